package api

import (
	"net/http"

	"inbox-live/auth"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	session, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	session, err := h.users.Login(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, session)
}

// GetProfile returns the public profile of a user, never its password hash.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, profile)
}
