package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catgroom/internal/repository"
)

type HaircutHandler struct {
	haircuts repository.Haircuts
	log      *zap.SugaredLogger
}

func NewHaircutHandler(haircuts repository.Haircuts, log *zap.SugaredLogger) *HaircutHandler {
	return &HaircutHandler{haircuts: haircuts, log: log}
}

// List returns the full style catalog, reference images excluded.
func (h *HaircutHandler) List(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.haircuts.GetAll(r.Context())
	if err != nil {
		h.log.Errorw("list haircuts failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": catalog})
}

// Image serves a haircut's reference image.
func (h *HaircutHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "haircutID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid haircut id", http.StatusBadRequest)
		return
	}

	haircut, err := h.haircuts.GetByID(r.Context(), id)
	if err != nil {
		h.log.Errorw("load haircut failed", "haircut_id", id, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if haircut == nil || len(haircut.Image) == 0 {
		http.Error(w, "haircut image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(haircut.Image))
	w.Write(haircut.Image)
}
