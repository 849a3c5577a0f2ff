package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catgroom/internal/models"
	"catgroom/internal/services"
	"catgroom/internal/session"
)

// maxUploadSize caps the request body well above the validator's 10 MiB
// limit, so oversized images get a structured VALIDATION_SIZE error instead
// of a transport failure.
const maxUploadSize = 32 << 20

type UploadHandler struct {
	sessions  session.Store
	processor *services.Processor
	log       *zap.SugaredLogger
}

func NewUploadHandler(sessions session.Store, processor *services.Processor, log *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{sessions: sessions, processor: processor, log: log}
}

// Upload attaches one image to the session and runs the processing pipeline.
// catID zero creates a new cat.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	catID, err := strconv.ParseInt(chi.URLParam(r, "catID"), 10, 64)
	if err != nil || catID < 0 {
		http.Error(w, "invalid cat id", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, fh, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	img := models.ImageAsset{
		FileName:   fh.Filename,
		Data:       data,
		Size:       int64(len(data)),
		Format:     formatFromContentType(fh.Header.Get("Content-Type")),
		UploadedAt: time.Now(),
	}

	ok, err := h.sessions.AttachImage(ctx, sessionID, img)
	if err != nil {
		h.log.Errorw("attach image failed", "session_id", sessionID, "error", err)
		http.Error(w, "failed to store image in session", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	result := h.processor.Run(ctx, sessionID, catID)
	if result.Status == "error" {
		writeJSON(w, statusFor(result.Error), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func formatFromContentType(contentType string) string {
	if i := strings.IndexByte(contentType, '/'); i >= 0 {
		return strings.ToUpper(contentType[i+1:])
	}
	return "UNKNOWN"
}
