package friendships

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

type fixture struct {
	edges   *repositories.MemoryFriendshipStore
	users   *repositories.MemoryUserStore
	manager *Manager
	guard   *Guard
	graph   *Graph
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()

	f := &fixture{
		edges: repositories.NewMemoryFriendshipStore(),
		users: repositories.NewMemoryUserStore(),
	}
	for _, id := range userIDs {
		require.NoError(t, f.users.Create(context.Background(), models.User{
			ID:          id,
			Email:       id + "@example.com",
			FullName:    "User " + id,
			PhoneNumber: "+1555" + id,
		}))
	}

	var err error
	f.manager, err = NewManager(f.edges)
	require.NoError(t, err)
	f.guard, err = NewGuard(f.users, f.edges)
	require.NoError(t, err)
	f.graph, err = NewGraph(f.edges, f.users)
	require.NoError(t, err)
	return f
}

// befriend drives a full send then accept between a and b.
func (f *fixture) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.manager.SendRequest(ctx, a, b))
	require.NoError(t, f.manager.AcceptRequest(ctx, b, a))
}

// rowsBetween returns the edges stored for either ordered pair of a and b.
func (f *fixture) rowsBetween(a, b string) []models.Friendship {
	var rows []models.Friendship
	for _, edge := range f.edges.Edges() {
		if (edge.UserID == a && edge.FriendUserID == b) || (edge.UserID == b && edge.FriendUserID == a) {
			rows = append(rows, edge)
		}
	}
	return rows
}

func (f *fixture) status(t *testing.T, userID, friendUserID string) models.FriendshipStatus {
	t.Helper()
	edge, err := f.edges.FindEdge(context.Background(), userID, friendUserID)
	require.NoError(t, err)
	return edge.Status
}

// conflictingStore fails the first failures transactions with ErrConflict.
type conflictingStore struct {
	*repositories.MemoryFriendshipStore
	failures int32
	calls    atomic.Int32
}

func (s *conflictingStore) WithinTx(ctx context.Context, fn func(tx repositories.FriendshipTx) error) error {
	if s.calls.Add(1) <= s.failures {
		return fmt.Errorf("%w: simulated serialization failure", repositories.ErrConflict)
	}
	return s.MemoryFriendshipStore.WithinTx(ctx, fn)
}
