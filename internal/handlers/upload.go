package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dkotenko/eshop/internal/respond"
)

var allowedResources = map[string]bool{
	"products":   true,
	"categories": true,
	"brands":     true,
	"users":      true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadHandler stores multipart image uploads under the static uploads
// directory. Resizing is delegated to an external collaborator; this
// only persists the original and hands back the stored filename.
type UploadHandler struct {
	Dir     string
	BaseURL string
}

func (h *UploadHandler) Upload(c echo.Context) error {
	resource := c.Param("resource")
	if !allowedResources[resource] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown upload resource "+resource)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"image": "image is required"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{"image": "unsupported image type " + ext})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dir := filepath.Join(h.Dir, resource)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	return respond.Success(c, http.StatusCreated, echo.Map{
		"filename": filename,
		"url":      ImageURL(h.BaseURL, resource, filename),
	})
}
