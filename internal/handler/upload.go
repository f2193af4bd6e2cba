package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/storage"
)

// UploadHandler stores project images, the avatar and the resume.
type UploadHandler struct {
	Assets *storage.Assets
	Log    logging.Logger
}

// Upload: POST /v1/admin/uploads (multipart: file, kind=image|resume)
func (h *UploadHandler) Upload(c echo.Context) error {
	if h.Assets == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "uploads are disabled"})
	}
	// multipart overhead on top of the file itself
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.Assets.MaxSize()+1<<20)

	if err := c.Request().ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form expected"})
	}
	kind, err := storage.ParseKind(c.FormValue("kind"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read file"})
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	obj, err := h.Assets.Upload(ctx, kind, fh.Filename, f, fh.Size)
	switch {
	case err == nil:
		h.Log.Info(ctx, "asset uploaded", "key", obj.Key, "size", obj.Size)
		return c.JSON(http.StatusCreated, obj)
	case errors.Is(err, storage.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	case errors.Is(err, storage.ErrEmptyFile), errors.Is(err, storage.ErrUnsupportedType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		h.Log.Error(ctx, "upload failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store file"})
	}
}
