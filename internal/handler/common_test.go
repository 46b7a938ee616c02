package handler

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/apperr"
)

func newCtx(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		contains string
	}{
		{apperr.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{&apperr.TransitionError{From: "pending", To: "fixing"}, http.StatusUnprocessableEntity, "illegal transition"},
		{apperr.Dependency("load task", errors.New("dial tcp: refused")), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		c, rec := newCtx(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, writeError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.contains)
		assert.NotContains(t, rec.Body.String(), "dial tcp")
	}
}

func TestParamID(t *testing.T) {
	for raw, ok := range map[string]bool{"7": true, "0": false, "-1": false, "x": false} {
		c, _ := newCtx(httptest.NewRequest(http.MethodGet, "/", nil))
		c.SetParamNames("id")
		c.SetParamValues(raw)
		n, err := paramID(c, "id")
		if ok {
			require.NoError(t, err)
			assert.Equal(t, uint64(7), n)
		} else {
			assert.ErrorIs(t, err, apperr.ErrValidation, raw)
		}
	}
}

func TestCallerRequiresIdentity(t *testing.T) {
	c, _ := newCtx(httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := caller(c)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUploads(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "x"))
	for _, name := range []string{"a.jpg", "b.png"} {
		fw, err := w.CreateFormFile("task_image", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(name))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c, _ := newCtx(req)

	ups, opened, err := uploads(c, "task_image")
	require.NoError(t, err)
	defer opened.Close()
	require.Len(t, ups, 2)
	assert.Equal(t, "a.jpg", ups[0].Filename)

	none, _, err := upload(c, "slip_image")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUploadsWithoutMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newCtx(req)
	ups, _, err := uploads(c, "task_image")
	require.NoError(t, err)
	assert.Empty(t, ups)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("1996-01-31")
	require.NoError(t, err)
	assert.Equal(t, 31, d.Day())

	d, err = parseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("31/01/1996")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
