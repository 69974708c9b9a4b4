package friendships

import (
	"context"
	"errors"
	"fmt"

	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

// Guard checks that a caller may perform a lifecycle transition before the
// Manager is invoked.
type Guard struct {
	users       repositories.UserRepository
	friendships repositories.FriendshipRepository
}

// NewGuard constructs a Guard.
func NewGuard(users repositories.UserRepository, friendships repositories.FriendshipRepository) (*Guard, error) {
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if friendships == nil {
		return nil, errors.New("friendship repository is required")
	}
	return &Guard{users: users, friendships: friendships}, nil
}

// CanSend verifies requesterID may send a request to targetID.
func (g *Guard) CanSend(ctx context.Context, requesterID, targetID string) error {
	if err := validatePair(requesterID, targetID); err != nil {
		return err
	}
	exists, err := g.users.Exists(ctx, targetID)
	if err != nil {
		return fmt.Errorf("lookup target user: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// CanAnswer verifies answererID is the recipient of a pending request from requesterID.
func (g *Guard) CanAnswer(ctx context.Context, answererID, requesterID string) error {
	if answererID != "" && answererID == requesterID {
		return ErrNotAuthorized
	}
	if err := validatePair(answererID, requesterID); err != nil {
		return err
	}

	pending, err := g.isPending(ctx, requesterID, answererID)
	if err != nil {
		return err
	}
	if pending {
		return nil
	}

	// The caller sent this request; answering it is not theirs to do.
	reversed, err := g.isPending(ctx, answererID, requesterID)
	if err != nil {
		return err
	}
	if reversed {
		return ErrNotAuthorized
	}
	return ErrNotFound
}

func (g *Guard) isPending(ctx context.Context, userID, friendUserID string) (bool, error) {
	edge, err := g.friendships.FindEdge(ctx, userID, friendUserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup friendship: %w", err)
	}
	return edge.Status == models.FriendshipRequested, nil
}
