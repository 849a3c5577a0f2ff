package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"catgroom/internal/session"
)

type SessionHandler struct {
	sessions session.Store
	log      *zap.SugaredLogger
}

func NewSessionHandler(sessions session.Store, log *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.Create(r.Context())
	if err != nil {
		h.log.Errorw("create session failed", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := h.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorw("get session failed", "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	ok, err := h.sessions.Delete(r.Context(), id)
	if err != nil {
		h.log.Errorw("delete session failed", "error", err)
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
