package repositories

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/friendgraph/backend/internal/models"
)

type edgeKey struct {
	userID       string
	friendUserID string
}

// MemoryFriendshipStore implements FriendshipRepository in process memory for
// tests and local development. Transactions hold an exclusive lock, so they are
// serializable, and their writes are staged until fn returns nil.
type MemoryFriendshipStore struct {
	mu    sync.RWMutex
	edges map[edgeKey]models.Friendship
	now   func() time.Time
}

// NewMemoryFriendshipStore returns an empty in-memory friendship store.
func NewMemoryFriendshipStore() *MemoryFriendshipStore {
	return &MemoryFriendshipStore{
		edges: make(map[edgeKey]models.Friendship),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx runs fn against a staged copy of the edge set and publishes it on success.
func (s *MemoryFriendshipStore) WithinTx(ctx context.Context, fn func(tx FriendshipTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryFriendshipTx{edges: maps.Clone(s.edges), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.edges = tx.edges
	return nil
}

// FindEdge loads a single directed edge.
func (s *MemoryFriendshipStore) FindEdge(_ context.Context, userID, friendUserID string) (models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.edges[edgeKey{userID, friendUserID}]
	if !ok {
		return models.Friendship{}, ErrNotFound
	}
	return edge, nil
}

// AcceptedNeighbors returns the ids the user has an accepted outgoing edge to.
func (s *MemoryFriendshipStore) AcceptedNeighbors(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for key, edge := range s.edges {
		if key.userID == userID && edge.Status == models.FriendshipAccepted {
			ids = append(ids, key.friendUserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AcceptedInbound returns, per target, the users holding an accepted edge toward it.
func (s *MemoryFriendshipStore) AcceptedInbound(_ context.Context, userIDs []string) (map[string][]string, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	inbound := make(map[string][]string, len(userIDs))
	for key, edge := range s.edges {
		if edge.Status != models.FriendshipAccepted {
			continue
		}
		if _, ok := wanted[key.friendUserID]; ok {
			inbound[key.friendUserID] = append(inbound[key.friendUserID], key.userID)
		}
	}
	return inbound, nil
}

// CountAccepted returns the accepted outgoing edge count per user id.
func (s *MemoryFriendshipStore) CountAccepted(_ context.Context, userIDs []string) (map[string]int, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(userIDs))
	for key, edge := range s.edges {
		if edge.Status != models.FriendshipAccepted {
			continue
		}
		if _, ok := wanted[key.userID]; ok {
			counts[key.userID]++
		}
	}
	return counts, nil
}

// EachFriendship streams a snapshot of every edge in key order.
func (s *MemoryFriendshipStore) EachFriendship(ctx context.Context, fn func(models.Friendship) error) error {
	for _, edge := range s.Edges() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(edge); err != nil {
			return err
		}
	}
	return nil
}

// Edges returns every stored edge ordered by (UserID, FriendUserID).
func (s *MemoryFriendshipStore) Edges() []models.Friendship {
	s.mu.RLock()
	out := make([]models.Friendship, 0, len(s.edges))
	for _, edge := range s.edges {
		out = append(out, edge)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].FriendUserID < out[j].FriendUserID
	})
	return out
}

type memoryFriendshipTx struct {
	edges map[edgeKey]models.Friendship
	now   func() time.Time
}

func (t *memoryFriendshipTx) Find(_ context.Context, userID, friendUserID string) (models.Friendship, error) {
	edge, ok := t.edges[edgeKey{userID, friendUserID}]
	if !ok {
		return models.Friendship{}, ErrNotFound
	}
	return edge, nil
}

func (t *memoryFriendshipTx) Insert(_ context.Context, edge models.Friendship) error {
	key := edgeKey{edge.UserID, edge.FriendUserID}
	if _, exists := t.edges[key]; exists {
		return fmt.Errorf("%w: friendship %s -> %s", ErrConflict, edge.UserID, edge.FriendUserID)
	}
	t.edges[key] = edge
	return nil
}

func (t *memoryFriendshipTx) SetStatus(_ context.Context, userID, friendUserID string, status models.FriendshipStatus) error {
	key := edgeKey{userID, friendUserID}
	edge, ok := t.edges[key]
	if !ok {
		return ErrNotFound
	}
	edge.Status = status
	edge.UpdatedAt = t.now()
	t.edges[key] = edge
	return nil
}

// MemoryUserStore implements UserRepository in process memory.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// NewMemoryUserStore returns an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a user, rejecting duplicate ids or emails.
func (s *MemoryUserStore) Create(_ context.Context, user models.User) error {
	email := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[user.ID]; exists {
		return ErrConflict
	}
	if _, exists := s.byEmail[email]; exists && email != "" {
		return ErrConflict
	}
	s.byID[user.ID] = user
	if email != "" {
		s.byEmail[email] = user.ID
	}
	return nil
}

// FindByEmail fetches a user by their email address.
func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.byID[id], nil
}

// Exists reports whether a user with the given id is registered.
func (s *MemoryUserStore) Exists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.byID[userID]
	s.mu.RUnlock()
	return ok, nil
}

// FindProfiles loads the profile of every known id.
func (s *MemoryUserStore) FindProfiles(_ context.Context, userIDs []string) (map[string]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make(map[string]models.Profile, len(userIDs))
	for _, id := range userIDs {
		if user, ok := s.byID[id]; ok {
			profiles[id] = user.Profile()
		}
	}
	return profiles, nil
}

var _ UserRepository = (*MemoryUserStore)(nil)
var _ FriendshipRepository = (*MemoryFriendshipStore)(nil)
