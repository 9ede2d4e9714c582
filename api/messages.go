package api

import (
	"net/http"
	"strconv"

	"inbox-live/auth"
	"inbox-live/search"

	"github.com/go-chi/chi/v5"
)

// sendRequest accepts both the "message" field used by the web client and "body".
type sendRequest struct {
	Message *string `json:"message"`
	Body    *string `json:"body"`
}

func (s sendRequest) text() string {
	switch {
	case s.Message != nil:
		return *s.Message
	case s.Body != nil:
		return *s.Body
	default:
		return ""
	}
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, _ := auth.UserIDFromContext(r.Context())

	var req sendRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, r, err)
		return
	}

	message, err := h.chat.SendMessage(r.Context(), senderID, chi.URLParam(r, "receiverId"), req.text())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, message)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	messages, err := h.chat.GetHistory(r.Context(), viewerID, chi.URLParam(r, "peerId"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, messages)
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	conversations, err := h.chat.GetConversations(r.Context(), viewerID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, conversations)
}

// Search takes either discrete parameters (q, peer, limit) or a raw
// command line in q, e.g. "invoice --peer 42 --limit 5".
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	params := r.URL.Query()

	query := search.ParseQuery(params.Get("q"))
	if peer := params.Get("peer"); peer != "" {
		query.PeerID = peer
	}
	if limit, err := strconv.Atoi(params.Get("limit")); err == nil {
		query.Limit = search.ClampLimit(limit)
	}

	messages, err := h.chat.Search(r.Context(), viewerID, query)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, messages)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.JSON(w, http.StatusOK, h.monitoring.GetLatest())
}
