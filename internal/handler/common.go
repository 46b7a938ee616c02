// Package handler adapts HTTP requests onto the service layer. Handlers
// only bind input, resolve the caller and translate errors; every rule
// lives in the services.
package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/middleware"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/storage"
)

// requestTimeout bounds the storage work behind one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// writeError answers with the status of err's kind. Dependency failures are
// logged and hidden behind a generic message.
func writeError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func caller(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, apperr.ErrUnauthenticated
	}
	return id, nil
}

func paramID(c echo.Context, name string) (uint64, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return n, nil
}

// files holds opened multipart parts until the handler is done with them.
type files []multipart.File

func (f files) Close() {
	for _, x := range f {
		_ = x.Close()
	}
}

// uploads opens every part sent under field. A missing field yields none.
func uploads(c echo.Context, field string) ([]storage.Upload, files, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, apperr.Validation("invalid multipart form")
	}
	var (
		ups    []storage.Upload
		opened files
	)
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			opened.Close()
			return nil, nil, apperr.Validation("unreadable file " + fh.Filename)
		}
		opened = append(opened, f)
		ups = append(ups, storage.Upload{Filename: fh.Filename, Body: f})
	}
	return ups, opened, nil
}

// upload opens the single part sent under field, or returns nil when absent.
func upload(c echo.Context, field string) (*storage.Upload, files, error) {
	ups, opened, err := uploads(c, field)
	if err != nil || len(ups) == 0 {
		return nil, nil, err
	}
	return &ups[0], opened, nil
}
