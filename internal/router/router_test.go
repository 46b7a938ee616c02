package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/auth"
	"github.com/iliyamo/repairhub/internal/memstore"
	"github.com/iliyamo/repairhub/internal/middleware"
	"github.com/iliyamo/repairhub/internal/service"
	"github.com/iliyamo/repairhub/internal/storage"
)

type app struct {
	t   *testing.T
	e   *echo.Echo
	mem *memstore.Store
	svc *service.Services
}

func newApp(t *testing.T) *app {
	t.Helper()
	mem := memstore.New()
	authn, err := auth.New(auth.Config{
		Secret:     []byte(strings.Repeat("s", auth.MinSecretLen)),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, mem.Sessions())
	require.NoError(t, err)

	svc := service.New(service.MemoryStores(mem), storage.NewStore(afero.NewMemMapFs()), authn, service.Options{BcryptCost: 4})
	_, err = mem.TaskTypes().Seed(context.Background(), []string{"Air conditioner", "Plumbing"})
	require.NoError(t, err)

	e := echo.New()
	RegisterRoutes(e, Deps{Services: svc, Auth: authn})
	return &app{t: t, e: e, mem: mem, svc: svc}
}

type part struct {
	field, filename, body string
}

func (a *app) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) json(method, path, token string, v any) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(a.t, err)
		body = bytes.NewReader(b)
	}
	return a.do(method, path, token, body, echo.MIMEApplicationJSON)
}

func (a *app) form(method, path, token string, fields map[string]string, parts ...part) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		require.NoError(a.t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())
	return a.do(method, path, token, &buf, w.FormDataContentType())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	Subject string `json:"subject"`
	Access  struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

type taskBody struct {
	ID       uint64   `json:"id"`
	Status   string   `json:"status"`
	Assignee *string  `json:"assignee"`
	Images   []string `json:"images"`
}

func (a *app) registerUser(username, phone string) authBody {
	a.t.Helper()
	rec := a.json(http.MethodPost, "/v1/users/register", "", map[string]string{
		"username": username,
		"password": "secret123",
		"name":     "Name " + username,
		"email":    username + "@example.com",
		"phone":    phone,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec)
}

// onboardTechnician runs the signup, admin approval and login of one
// technician and returns its access token.
func (a *app) onboardTechnician(adminToken, username, phone, idCard string) string {
	a.t.Helper()
	rec := a.form(http.MethodPost, "/v1/technicians/register", "", map[string]string{
		"username":   username,
		"password":   "wrench123",
		"full_name":  "Tech " + username,
		"email":      username + "@fix.example.com",
		"phone":      phone,
		"age":        "30",
		"id_card":    idCard,
		"address":    "1 Road",
		"district":   "Bang Rak",
		"province":   "Bangkok",
		"birth_date": "1996-01-01",
	}, part{"id_card_image", "card.png", "png"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[struct {
		ID     uint64 `json:"id"`
		Status string `json:"status"`
	}](a.t, rec)
	assert.Equal(a.t, "pending", reg.Status)

	rec = a.json(http.MethodPost, fmt.Sprintf("/v1/admin/registrations/%d/approve", reg.ID), adminToken, nil)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.json(http.MethodPost, "/v1/technicians/login", "", map[string]string{"username": username, "password": "wrench123"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec).Access.Token
}

func (a *app) adminToken() string {
	a.t.Helper()
	_, err := a.svc.Accounts.CreateAdmin(context.Background(), "root", "Root", "root@example.com", "admin1234")
	require.NoError(a.t, err)
	rec := a.json(http.MethodPost, "/v1/admins/login", "", map[string]string{"username": "root", "password": "admin1234"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec).Access.Token
}

func TestHealthAndTaskTypes(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(http.MethodGet, "/v1/task-types", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode[[]struct {
		Name string `json:"name"`
	}](t, rec)
	assert.Len(t, types, 2)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")
	admin := a.adminToken()
	tech := a.onboardTechnician(admin, "somchai", "0833333333", "1111111111111")

	types, err := a.mem.TaskTypes().List(context.Background())
	require.NoError(t, err)

	rec := a.form(http.MethodPost, "/v1/user/tasks", alice.Access.Token, map[string]string{
		"task_type_id": fmt.Sprint(types[0].ID),
		"title":        "AC repair",
		"detail":       "not cooling",
		"address":      "12 Main St",
		"district":     "Bang Rak",
		"province":     "Bangkok",
	}, part{"task_image", "front.jpg", "jpg"}, part{"task_image", "back.jpg", "jpg"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[taskBody](t, rec)
	assert.Equal(t, "pending", task.Status)
	assert.Len(t, task.Images, 2)
	taskPath := fmt.Sprintf("/v1/technician/tasks/%d", task.ID)

	rec = a.do(http.MethodGet, "/v1/technician/tasks/available", tech, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]taskBody](t, rec), 1)

	rec = a.json(http.MethodPatch, taskPath+"/accept", tech, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[taskBody](t, rec)
	require.NotNil(t, accepted.Assignee)
	assert.Equal(t, "somchai", *accepted.Assignee)

	rec = a.json(http.MethodPatch, taskPath+"/accept", tech, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.json(http.MethodPut, taskPath+"/status", tech, map[string]string{"status": "payment"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.json(http.MethodPut, taskPath+"/status", tech, map[string]string{"status": "fixing"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.json(http.MethodPut, taskPath+"/payment", tech, map[string]any{"type": "transfer", "amount": 1500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	info := decode[struct {
		Payment struct {
			ID     uint64  `json:"id"`
			Amount float64 `json:"amount"`
		} `json:"payment"`
	}](t, rec)
	assert.InDelta(t, 1500.0, info.Payment.Amount, 0.001)

	rec = a.json(http.MethodPost, fmt.Sprintf("/v1/technician/payments/%d/details", info.Payment.ID), tech,
		map[string]any{"detail": "compressor", "price": 900})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.json(http.MethodPut, taskPath+"/status", tech, map[string]string{"status": "payment"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	userTask := fmt.Sprintf("/v1/user/tasks/%d", task.ID)
	rec = a.form(http.MethodPost, userTask+"/payment/slip", alice.Access.Token, nil, part{"slip_image", "slip.png", "png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.json(http.MethodPost, taskPath+"/payment/confirm", tech, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, userTask, alice.Access.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successful", decode[taskBody](t, rec).Status)

	rec = a.do(http.MethodGet, "/v1/admin/stats/revenue", admin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rev := decode[struct {
		Total float64 `json:"total"`
	}](t, rec)
	assert.InDelta(t, 1500.0, rev.Total, 0.001)
}

func TestRoleGuards(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")

	rec := a.do(http.MethodGet, "/v1/user/tasks", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/v1/technician/tasks/available", alice.Access.Token, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/v1/admin/stats/dashboard", alice.Access.Token, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/v1/user/tasks", alice.Access.Token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	a := newApp(t)
	a.registerUser("alice", "0811111111")

	rec := a.json(http.MethodPost, "/v1/users/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.json(http.MethodPost, "/v1/users/login", "", map[string]string{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	creds := decode[authBody](t, rec)
	assert.Equal(t, "alice", creds.Subject)
	assert.NotEmpty(t, rec.Result().Cookies())

	logout := func() int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
		req.Header.Set(middleware.RefreshHeader, creds.Refresh.Token)
		r := httptest.NewRecorder()
		a.e.ServeHTTP(r, req)
		return r.Code
	}
	assert.Equal(t, http.StatusNoContent, logout())
	assert.Equal(t, http.StatusNotFound, logout())
}

func TestRefreshRenewsAccess(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set(middleware.RefreshHeader, alice.Refresh.Token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Access-Token"))
	assert.Equal(t, "alice", decode[struct {
		Username string `json:"username"`
	}](t, rec).Username)
}

func TestProfileAndPassword(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")

	rec := a.form(http.MethodPut, "/v1/users/me", alice.Access.Token, map[string]string{"name": "Alice Updated"},
		part{"profile_image", "me.webp", "webp"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode[struct {
		Name        string  `json:"name"`
		ProfilePath *string `json:"profile_path"`
	}](t, rec)
	assert.Equal(t, "Alice Updated", me.Name)
	require.NotNil(t, me.ProfilePath)

	rec = a.json(http.MethodPut, "/v1/users/me/password", alice.Access.Token,
		map[string]string{"current_password": "wrong", "new_password": "fresh123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.json(http.MethodPut, "/v1/users/me/password", alice.Access.Token,
		map[string]string{"current_password": "secret123", "new_password": "fresh123"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.json(http.MethodPost, "/v1/users/login", "", map[string]string{"username": "alice", "password": "fresh123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBadPathID(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")
	rec := a.do(http.MethodGet, "/v1/user/tasks/abc", alice.Access.Token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	a := newApp(t)
	alice := a.registerUser("alice", "0811111111")

	for _, token := range []string{"", alice.Access.Token} {
		rec := a.do(http.MethodGet, "/v1/nope", token, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(http.MethodGet, "/v1/admin/nope", token, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestAdminRoster(t *testing.T) {
	a := newApp(t)
	admin := a.adminToken()
	a.onboardTechnician(admin, "somchai", "0822222222", "1100700000001")

	rec := a.do(http.MethodGet, "/v1/admin/technicians-all", admin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	roster := decode[struct {
		Registrations []struct {
			Username string `json:"username"`
			Status   string `json:"status"`
		} `json:"registrations"`
		Technicians []struct {
			Username string `json:"username"`
		} `json:"technicians"`
	}](t, rec)
	require.Len(t, roster.Registrations, 1)
	assert.Equal(t, "approved", roster.Registrations[0].Status)
	require.Len(t, roster.Technicians, 1)
	assert.Equal(t, "somchai", roster.Technicians[0].Username)
}
