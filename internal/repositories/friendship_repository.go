package repositories

import (
	"context"

	"github.com/friendgraph/backend/internal/models"
)

// FriendshipTx exposes edge reads and writes bound to one transaction.
// Find returns ErrNotFound when the ordered pair has no row.
type FriendshipTx interface {
	Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error)
	Insert(ctx context.Context, edge models.Friendship) error
	SetStatus(ctx context.Context, userID, friendUserID string, status models.FriendshipStatus) error
}

// FriendshipRepository defines data access for the directed friendship edge table.
type FriendshipRepository interface {
	// WithinTx runs fn in a serializable transaction. Any error from fn rolls
	// the transaction back; lost races surface as ErrConflict.
	WithinTx(ctx context.Context, fn func(tx FriendshipTx) error) error

	FindEdge(ctx context.Context, userID, friendUserID string) (models.Friendship, error)

	// AcceptedNeighbors returns every X with (userID, X, accepted).
	AcceptedNeighbors(ctx context.Context, userID string) ([]string, error)

	// AcceptedInbound returns, for each requested id T, every C with (C, T, accepted).
	AcceptedInbound(ctx context.Context, userIDs []string) (map[string][]string, error)

	// CountAccepted groups accepted outgoing edges by user id. Ids without
	// accepted edges are absent from the result.
	CountAccepted(ctx context.Context, userIDs []string) (map[string]int, error)

	// EachFriendship streams every stored edge ordered by (user_id, friend_user_id).
	EachFriendship(ctx context.Context, fn func(models.Friendship) error) error
}
