package friendships

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/friendgraph/backend/internal/logging"
	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

const (
	opSend    = "send"
	opAccept  = "accept"
	opDecline = "decline"
)

// DefaultRetries is the number of times a conflicting transaction is re-run.
const DefaultRetries = 1

// Manager owns the friendship edge state machine.
type Manager struct {
	store   repositories.FriendshipRepository
	retries int
	metrics *Metrics
	now     func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithRetries overrides how many times a conflicting transaction is re-run.
func WithRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.retries = n
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithClock overrides the timestamp source for new edges.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a Manager backed by store.
func NewManager(store repositories.FriendshipRepository, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("friendship repository is required")
	}
	m := &Manager{
		store:   store,
		retries: DefaultRetries,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SendRequest records that requesterID asked targetID to be friends. Re-sending
// a pending or accepted request is a no-op; a declined edge is revived.
func (m *Manager) SendRequest(ctx context.Context, requesterID, targetID string) error {
	if err := validatePair(requesterID, targetID); err != nil {
		return err
	}
	return m.transact(ctx, opSend, requesterID, targetID, func(tx repositories.FriendshipTx) error {
		edge, err := tx.Find(ctx, requesterID, targetID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return tx.Insert(ctx, m.newEdge(requesterID, targetID, models.FriendshipRequested))
		case err != nil:
			return err
		}

		if edge.Status != models.FriendshipDeclined {
			return nil
		}
		return tx.SetStatus(ctx, requesterID, targetID, models.FriendshipRequested)
	})
}

// AcceptRequest accepts the pending request requesterID sent to accepterID and
// makes sure the mirror edge is accepted too.
func (m *Manager) AcceptRequest(ctx context.Context, accepterID, requesterID string) error {
	if err := validatePair(accepterID, requesterID); err != nil {
		return err
	}
	return m.transact(ctx, opAccept, accepterID, requesterID, func(tx repositories.FriendshipTx) error {
		edge, err := tx.Find(ctx, requesterID, accepterID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrNotFound
		case err != nil:
			return err
		}

		switch edge.Status {
		case models.FriendshipRequested:
			if err := tx.SetStatus(ctx, requesterID, accepterID, models.FriendshipAccepted); err != nil {
				return err
			}
		case models.FriendshipAccepted:
			// The other side accepted first; only converge the mirror.
		default:
			return ErrNotFound
		}

		return m.ensureAccepted(ctx, tx, accepterID, requesterID)
	})
}

// DeclineRequest declines the pending request requesterID sent to declinerID.
func (m *Manager) DeclineRequest(ctx context.Context, declinerID, requesterID string) error {
	if err := validatePair(declinerID, requesterID); err != nil {
		return err
	}
	return m.transact(ctx, opDecline, declinerID, requesterID, func(tx repositories.FriendshipTx) error {
		edge, err := tx.Find(ctx, requesterID, declinerID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrNotFound
		case err != nil:
			return err
		}
		if edge.Status != models.FriendshipRequested {
			return ErrNotFound
		}
		return tx.SetStatus(ctx, requesterID, declinerID, models.FriendshipDeclined)
	})
}

func (m *Manager) ensureAccepted(ctx context.Context, tx repositories.FriendshipTx, userID, friendUserID string) error {
	edge, err := tx.Find(ctx, userID, friendUserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return tx.Insert(ctx, m.newEdge(userID, friendUserID, models.FriendshipAccepted))
	case err != nil:
		return err
	}
	if edge.Status == models.FriendshipAccepted {
		return nil
	}
	return tx.SetStatus(ctx, userID, friendUserID, models.FriendshipAccepted)
}

func (m *Manager) transact(ctx context.Context, operation, callerID, otherID string, fn func(tx repositories.FriendshipTx) error) (err error) {
	ctx, span := logging.StartSpan(ctx, "friendships."+operation,
		slog.String("user_id", callerID),
		slog.String("friend_user_id", otherID),
	)
	defer func() {
		m.metrics.observe(operation, err)
		if isDomainError(err) {
			span.End()
			return
		}
		span.Finish(err)
	}()

	for attempt := 0; ; attempt++ {
		err = m.store.WithinTx(ctx, fn)
		if err == nil || !errors.Is(err, repositories.ErrConflict) {
			return translate(err)
		}
		if attempt >= m.retries {
			logging.FromContext(ctx).Warn("friendship transaction conflict persisted",
				slog.Int("attempts", attempt+1),
				slog.Any("error", err),
			)
			return fmt.Errorf("%w: %s: %v", ErrTransient, operation, err)
		}
		m.metrics.retried(operation)
		logging.FromContext(ctx).Debug("retrying friendship transaction", slog.Any("error", err))
	}
}

func (m *Manager) newEdge(userID, friendUserID string, status models.FriendshipStatus) models.Friendship {
	now := m.now()
	return models.Friendship{
		UserID:       userID,
		FriendUserID: friendUserID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// translate maps store errors that escaped fn onto the package's sentinels.
func translate(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotAuthorized) || errors.Is(err, ErrInvalidRequest)
}

func validatePair(userID, otherID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(otherID) == "" {
		return fmt.Errorf("%w: user ids are required", ErrInvalidRequest)
	}
	if userID == otherID {
		return fmt.Errorf("%w: cannot befriend yourself", ErrInvalidRequest)
	}
	return nil
}
