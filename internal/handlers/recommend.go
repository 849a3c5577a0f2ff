package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catgroom/internal/procerr"
	"catgroom/internal/services"
)

type RecommendHandler struct {
	recommender *services.Recommender
	log         *zap.SugaredLogger
}

func NewRecommendHandler(recommender *services.Recommender, log *zap.SugaredLogger) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, log: log}
}

func (h *RecommendHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	catID, err := strconv.ParseInt(chi.URLParam(r, "catID"), 10, 64)
	if err != nil || catID <= 0 {
		http.Error(w, "invalid cat id", http.StatusBadRequest)
		return
	}

	result, err := h.recommender.Recommend(r.Context(), catID)
	if err != nil {
		var perr *procerr.Error
		if errors.As(err, &perr) {
			writeError(w, perr)
			return
		}
		h.log.Errorw("recommendation failed", "cat_id", catID, "error", err)
		http.Error(w, "recommendation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
