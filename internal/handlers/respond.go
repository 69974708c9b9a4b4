package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// respondFriendshipError maps friendship errors onto HTTP statuses.
func respondFriendshipError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, friendships.ErrInvalidRequest):
		respondError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, friendships.ErrNotAuthorized):
		respondError(ctx, w, http.StatusForbidden, "not allowed to answer this request")
	case errors.Is(err, friendships.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "friendship not found")
	case errors.Is(err, friendships.ErrTransient):
		w.Header().Set("Retry-After", "1")
		respondError(ctx, w, http.StatusServiceUnavailable, "please retry")
	default:
		logging.FromContext(ctx).Error("friendship operation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
