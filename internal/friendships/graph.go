package friendships

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

// Graph answers read-only questions about the accepted friendship edges.
type Graph struct {
	friendships repositories.FriendshipRepository
	users       repositories.UserRepository
}

// NewGraph constructs a Graph.
func NewGraph(friendships repositories.FriendshipRepository, users repositories.UserRepository) (*Graph, error) {
	if friendships == nil {
		return nil, errors.New("friendship repository is required")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	return &Graph{friendships: friendships, users: users}, nil
}

// TotalFriendCount returns how many users userID has an accepted edge toward.
func (g *Graph) TotalFriendCount(ctx context.Context, userID string) (int, error) {
	counts, err := g.friendships.CountAccepted(ctx, []string{userID})
	if err != nil {
		return 0, fmt.Errorf("count friends: %w", err)
	}
	return counts[userID], nil
}

// MutualFriendCount returns the number of distinct users C with
// (viewerID, C, accepted) and (C, targetID, accepted).
func (g *Graph) MutualFriendCount(ctx context.Context, viewerID, targetID string) (int, error) {
	var (
		outgoing []string
		inbound  map[string][]string
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ids, err := g.friendships.AcceptedNeighbors(gctx, viewerID)
		outgoing = ids
		return err
	})
	group.Go(func() error {
		ids, err := g.friendships.AcceptedInbound(gctx, []string{targetID})
		inbound = ids
		return err
	})
	if err := group.Wait(); err != nil {
		return 0, fmt.Errorf("load neighbourhoods: %w", err)
	}
	return intersectCount(outgoing, inbound[targetID], viewerID, targetID), nil
}

// GetFriendProfile returns targetID's profile and counts as seen by viewerID.
// The pair must be accepted friends.
func (g *Graph) GetFriendProfile(ctx context.Context, viewerID, targetID string) (_ models.FriendSummary, err error) {
	ctx, span := logging.StartSpan(ctx, "friendships.profile",
		slog.String("user_id", viewerID),
		slog.String("friend_user_id", targetID),
	)
	defer func() { span.Finish(err) }()

	if err := validatePair(viewerID, targetID); err != nil {
		return models.FriendSummary{}, err
	}

	edge, err := g.friendships.FindEdge(ctx, viewerID, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.FriendSummary{}, ErrNotFound
	}
	if err != nil {
		return models.FriendSummary{}, fmt.Errorf("lookup friendship: %w", err)
	}
	if edge.Status != models.FriendshipAccepted {
		return models.FriendSummary{}, ErrNotFound
	}

	var (
		profiles map[string]models.Profile
		summary  models.FriendSummary
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		profiles, err = g.users.FindProfiles(gctx, []string{targetID})
		return err
	})
	group.Go(func() error {
		var err error
		summary.TotalFriendCount, err = g.TotalFriendCount(gctx, targetID)
		return err
	})
	group.Go(func() error {
		var err error
		summary.MutualFriendCount, err = g.MutualFriendCount(gctx, viewerID, targetID)
		return err
	})
	if err := group.Wait(); err != nil {
		return models.FriendSummary{}, err
	}

	profile, ok := profiles[targetID]
	if !ok {
		return models.FriendSummary{}, ErrNotFound
	}
	summary.Profile = profile
	return summary, nil
}

// ListFriends returns every accepted friend of viewerID ordered by user id.
func (g *Graph) ListFriends(ctx context.Context, viewerID string) (_ []models.FriendSummary, err error) {
	ctx, span := logging.StartSpan(ctx, "friendships.list", slog.String("user_id", viewerID))
	defer func() { span.Finish(err) }()

	friendIDs, err := g.friendships.AcceptedNeighbors(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	if len(friendIDs) == 0 {
		return []models.FriendSummary{}, nil
	}

	var (
		counts   map[string]int
		inbound  map[string][]string
		profiles map[string]models.Profile
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		counts, err = g.friendships.CountAccepted(gctx, friendIDs)
		return err
	})
	group.Go(func() error {
		var err error
		inbound, err = g.friendships.AcceptedInbound(gctx, friendIDs)
		return err
	})
	group.Go(func() error {
		var err error
		profiles, err = g.users.FindProfiles(gctx, friendIDs)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("decorate friends: %w", err)
	}

	sort.Strings(friendIDs)
	summaries := make([]models.FriendSummary, 0, len(friendIDs))
	for _, id := range friendIDs {
		profile, ok := profiles[id]
		if !ok {
			logging.FromContext(ctx).Warn("friend has no profile", slog.String("friend_user_id", id))
			continue
		}
		summaries = append(summaries, models.FriendSummary{
			Profile:           profile,
			TotalFriendCount:  counts[id],
			MutualFriendCount: intersectCount(friendIDs, inbound[id], viewerID, id),
		})
	}
	return summaries, nil
}
