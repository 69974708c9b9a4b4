package friendships

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/friendgraph/backend/internal/models"
)

func TestTotalFriendCountIgnoresPendingAndDeclined(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d", "e")
	ctx := context.Background()
	f.befriend(t, "a", "b")
	f.befriend(t, "c", "a")

	total, err := f.graph.TotalFriendCount(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 2, total)

	require.NoError(t, f.manager.SendRequest(ctx, "a", "d"))
	require.NoError(t, f.manager.SendRequest(ctx, "e", "a"))
	require.NoError(t, f.manager.DeclineRequest(ctx, "a", "e"))

	total, err = f.graph.TotalFriendCount(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 2, total)

	total, err = f.graph.TotalFriendCount(ctx, "d")
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestMutualFriendCount(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	ctx := context.Background()
	f.befriend(t, "a", "c")
	f.befriend(t, "b", "c")

	mutual, err := f.graph.MutualFriendCount(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, 1, mutual)

	f.befriend(t, "a", "d")
	f.befriend(t, "d", "b")

	mutual, err = f.graph.MutualFriendCount(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, 2, mutual)

	mutual, err = f.graph.MutualFriendCount(ctx, "b", "a")
	require.NoError(t, err)
	require.Equal(t, 2, mutual)
}

func TestMutualFriendCountExcludesEndpoints(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.befriend(t, "a", "b")
	f.befriend(t, "a", "c")
	f.befriend(t, "b", "c")

	mutual, err := f.graph.MutualFriendCount(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Equal(t, 1, mutual)
}

func TestMutualFriendCountIgnoresPending(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	f.befriend(t, "a", "c")
	require.NoError(t, f.manager.SendRequest(ctx, "c", "b"))

	mutual, err := f.graph.MutualFriendCount(ctx, "a", "b")
	require.NoError(t, err)
	require.Zero(t, mutual)
}

func TestGetFriendProfileRequiresAcceptedEdge(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	_, err := f.graph.GetFriendProfile(ctx, "a", "b")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.manager.SendRequest(ctx, "a", "b"))
	_, err = f.graph.GetFriendProfile(ctx, "a", "b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFriendsOrderedWithCounts(t *testing.T) {
	f := newFixture(t, "a", "b", "c", "d")
	ctx := context.Background()
	f.befriend(t, "a", "d")
	f.befriend(t, "a", "b")
	f.befriend(t, "b", "d")
	f.befriend(t, "c", "d")
	require.NoError(t, f.manager.SendRequest(ctx, "a", "c"))

	friends, err := f.graph.ListFriends(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []models.FriendSummary{
		{
			Profile:           models.Profile{UserID: "b", FullName: "User b", PhoneNumber: "+1555b"},
			TotalFriendCount:  2,
			MutualFriendCount: 1,
		},
		{
			Profile:           models.Profile{UserID: "d", FullName: "User d", PhoneNumber: "+1555d"},
			TotalFriendCount:  3,
			MutualFriendCount: 1,
		},
	}, friends)
}

func TestListFriendsEmpty(t *testing.T) {
	f := newFixture(t, "a")

	friends, err := f.graph.ListFriends(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, friends)
	require.Empty(t, friends)
}

func TestListFriendsSkipsMissingProfiles(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()
	f.befriend(t, "a", "b")
	// ghost has edges but no user row.
	require.NoError(t, f.manager.SendRequest(ctx, "ghost", "a"))
	require.NoError(t, f.manager.AcceptRequest(ctx, "a", "ghost"))

	friends, err := f.graph.ListFriends(ctx, "a")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	require.Equal(t, "b", friends[0].UserID)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	f.befriend(t, "b", "c")
	f.befriend(t, "a", "c")

	require.NoError(t, f.guard.CanSend(ctx, "a", "b"))
	require.NoError(t, f.manager.SendRequest(ctx, "a", "b"))
	require.Equal(t, models.FriendshipRequested, f.status(t, "a", "b"))

	require.NoError(t, f.guard.CanAnswer(ctx, "b", "a"))
	require.NoError(t, f.manager.DeclineRequest(ctx, "b", "a"))
	require.Equal(t, models.FriendshipDeclined, f.status(t, "a", "b"))

	require.NoError(t, f.manager.SendRequest(ctx, "a", "b"))
	require.Equal(t, models.FriendshipRequested, f.status(t, "a", "b"))

	require.NoError(t, f.guard.CanAnswer(ctx, "b", "a"))
	require.NoError(t, f.manager.AcceptRequest(ctx, "b", "a"))
	require.Equal(t, models.FriendshipAccepted, f.status(t, "a", "b"))
	require.Equal(t, models.FriendshipAccepted, f.status(t, "b", "a"))

	summary, err := f.graph.GetFriendProfile(ctx, "a", "b")
	require.NoError(t, err)
	require.Equal(t, models.FriendSummary{
		Profile:           models.Profile{UserID: "b", FullName: "User b", PhoneNumber: "+1555b"},
		TotalFriendCount:  2,
		MutualFriendCount: 1,
	}, summary)
}
