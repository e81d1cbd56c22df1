package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/models"
	"github.com/atinyakov/MineAdmin/internal/service"
)

// maxUploadBytes bounds a bulk upload request.
const maxUploadBytes = 10 << 20

// SystemHandler serves the unauthenticated health and info endpoints.
type SystemHandler struct {
	Info models.Info
}

// Health handles GET /api/health.
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, models.Health{Status: "ok", Time: time.Now().UTC()})
}

// BuildInfo handles GET /api/info.
func (h *SystemHandler) BuildInfo(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, h.Info)
}

// ProductImporter stores the products read from an uploaded file.
type ProductImporter func(ctx context.Context, r io.Reader) (service.ImportResult, error)

// UploadHandler serves POST /api/products/bulk-upload.
type UploadHandler struct {
	Import ProductImporter
	Log    *zap.Logger
}

// BulkUpload reads the CSV sent in the "file" form field.
func (h *UploadHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "A CSV file is required in the file field")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".csv" {
		writeError(w, http.StatusBadRequest, "Only CSV files are supported")
		return
	}

	res, err := h.Import(r.Context(), file)
	if err != nil {
		writeFailure(w, h.Log, err)
		return
	}
	if h.Log != nil {
		h.Log.Info("products imported",
			zap.String("file", header.Filename),
			zap.Int("created", res.Created),
			zap.Int("failed", res.Failed),
		)
	}
	writeData(w, http.StatusOK, res)
}
