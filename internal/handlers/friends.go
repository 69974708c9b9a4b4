package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
)

// FriendshipHandler exposes the friendship lifecycle and friend queries.
// Every route expects RequireUser to have resolved the caller.
type FriendshipHandler struct {
	Lifecycle FriendshipLifecycle
	Guard     FriendshipGuard
	Graph     FriendGraph
	Limiter   RateLimiter
}

type friendshipRequest struct {
	FriendUserID string `json:"friendUserId" validate:"required,uuid"`
}

type friendListResponse struct {
	Friends []models.FriendSummary `json:"friends"`
}

// Send handles POST /api/v1/friendships/send.
func (h FriendshipHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, callerID, req, ok := h.begin(w, r)
	if !ok {
		return
	}
	if !allowRequest(h.Limiter, r, "friendship-send") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many friend requests")
		return
	}

	if err := h.Guard.CanSend(ctx, callerID, req.FriendUserID); err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	if err := h.Lifecycle.SendRequest(ctx, callerID, req.FriendUserID); err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accept handles POST /api/v1/friendships/accept. friendUserId names the requester.
func (h FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.lifecycleAccept)
}

// Decline handles POST /api/v1/friendships/decline. friendUserId names the requester.
func (h FriendshipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.answer(w, r, h.lifecycleDecline)
}

func (h FriendshipHandler) lifecycleAccept(ctx context.Context, callerID, requesterID string) error {
	return h.Lifecycle.AcceptRequest(ctx, callerID, requesterID)
}

func (h FriendshipHandler) lifecycleDecline(ctx context.Context, callerID, requesterID string) error {
	return h.Lifecycle.DeclineRequest(ctx, callerID, requesterID)
}

func (h FriendshipHandler) answer(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, callerID, requesterID string) error) {
	ctx, callerID, req, ok := h.begin(w, r)
	if !ok {
		return
	}

	if err := h.Guard.CanAnswer(ctx, callerID, req.FriendUserID); err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	if err := apply(ctx, callerID, req.FriendUserID); err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h FriendshipHandler) begin(w http.ResponseWriter, r *http.Request) (context.Context, string, friendshipRequest, bool) {
	ctx := r.Context()
	var req friendshipRequest

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return ctx, "", req, false
	}
	if h.Lifecycle == nil || h.Guard == nil {
		logging.FromContext(ctx).Error("friendship dependencies unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "friendship services unavailable")
		return ctx, "", req, false
	}

	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return ctx, "", req, false
	}

	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return ctx, "", req, false
	}
	return ctx, callerID, req, true
}

// Profile handles GET /api/v1/friends/profile?friendUserId=.
func (h FriendshipHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, callerID, ok := h.beginQuery(w, r)
	if !ok {
		return
	}

	friendUserID := strings.TrimSpace(r.URL.Query().Get("friendUserId"))
	if err := validationError(validate.Var(friendUserID, "required,uuid")); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "friendUserId must be a valid id")
		return
	}

	summary, err := h.Graph.GetFriendProfile(ctx, callerID, friendUserID)
	if err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, summary)
}

// List handles GET /api/v1/friends. The optional user filter must name the caller.
func (h FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, callerID, ok := h.beginQuery(w, r)
	if !ok {
		return
	}

	if user := strings.TrimSpace(r.URL.Query().Get("user")); user != "" && user != callerID {
		respondError(ctx, w, http.StatusForbidden, "can only list your own friends")
		return
	}

	friends, err := h.Graph.ListFriends(ctx, callerID)
	if err != nil {
		respondFriendshipError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: friends})
}

func (h FriendshipHandler) beginQuery(w http.ResponseWriter, r *http.Request) (context.Context, string, bool) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return ctx, "", false
	}
	if h.Graph == nil {
		logging.FromContext(ctx).Error("friend graph unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "friend services unavailable")
		return ctx, "", false
	}
	callerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return ctx, "", false
	}
	return ctx, callerID, true
}
