package handlers

import (
	"context"

	"github.com/friendgraph/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and validates authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// FriendshipLifecycle mutates friendship edges.
type FriendshipLifecycle interface {
	SendRequest(ctx context.Context, requesterID, targetID string) error
	AcceptRequest(ctx context.Context, accepterID, requesterID string) error
	DeclineRequest(ctx context.Context, declinerID, requesterID string) error
}

// FriendshipGuard authorizes lifecycle transitions before they run.
type FriendshipGuard interface {
	CanSend(ctx context.Context, requesterID, targetID string) error
	CanAnswer(ctx context.Context, answererID, requesterID string) error
}

// FriendGraph answers read-only friendship queries.
type FriendGraph interface {
	GetFriendProfile(ctx context.Context, viewerID, targetID string) (models.FriendSummary, error)
	ListFriends(ctx context.Context, viewerID string) ([]models.FriendSummary, error)
}
