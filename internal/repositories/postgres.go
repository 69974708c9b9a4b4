package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/friendgraph/backend/internal/db"
	"github.com/friendgraph/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, full_name, phone_number, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Email, user.Password, user.FullName, user.PhoneNumber, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if db.ErrorCode(err) == db.CodeUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, full_name, phone_number, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.FullName, &user.PhoneNumber, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// Exists reports whether a user with the given id is registered.
func (r *PostgresUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// FindProfiles loads the public profile of every listed user. Unknown ids are omitted.
func (r *PostgresUserRepository) FindProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	profiles := make(map[string]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, full_name, phone_number
        FROM users
        WHERE id = ANY($1)
    `, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.UserID, &p.FullName, &p.PhoneNumber); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[p.UserID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// PostgresFriendshipRepository provides PostgreSQL-backed persistence for friendship edges.
type PostgresFriendshipRepository struct {
	pool db.Pool
}

// NewPostgresFriendshipRepository constructs a friendship repository backed by PostgreSQL.
func NewPostgresFriendshipRepository(pool db.Pool) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{pool: pool}
}

// WithinTx runs fn inside a serializable transaction on a dedicated connection.
func (r *PostgresFriendshipRepository) WithinTx(ctx context.Context, fn func(tx FriendshipTx) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin friendship transaction: %w", err)
	}
	// Rollback after a successful commit returns ErrTxClosed, which is ignored.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(pgFriendshipTx{tx: tx}); err != nil {
		return classifyTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(fmt.Errorf("commit friendship transaction: %w", err))
	}

	return nil
}

func classifyTxError(err error) error {
	if errors.Is(err, ErrConflict) {
		return err
	}
	if db.IsRetryableWrite(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// FindEdge loads a single directed edge outside of any transaction.
func (r *PostgresFriendshipRepository) FindEdge(ctx context.Context, userID, friendUserID string) (models.Friendship, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Friendship{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findFriendship(ctx, conn, userID, friendUserID)
}

// AcceptedNeighbors returns the ids the user has an accepted outgoing edge to.
func (r *PostgresFriendshipRepository) AcceptedNeighbors(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT friend_user_id
        FROM friendships
        WHERE user_id = $1 AND status = $2
        ORDER BY friend_user_id
    `, userID, string(models.FriendshipAccepted))
	if err != nil {
		return nil, fmt.Errorf("query accepted neighbors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan accepted neighbor: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accepted neighbors: %w", err)
	}

	return ids, nil
}

// AcceptedInbound returns, per target, the users holding an accepted edge toward it.
func (r *PostgresFriendshipRepository) AcceptedInbound(ctx context.Context, userIDs []string) (map[string][]string, error) {
	inbound := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return inbound, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT friend_user_id, user_id
        FROM friendships
        WHERE friend_user_id = ANY($1) AND status = $2
    `, userIDs, string(models.FriendshipAccepted))
	if err != nil {
		return nil, fmt.Errorf("query accepted inbound: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var target, source string
		if err := rows.Scan(&target, &source); err != nil {
			return nil, fmt.Errorf("scan accepted inbound: %w", err)
		}
		inbound[target] = append(inbound[target], source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accepted inbound: %w", err)
	}

	return inbound, nil
}

// CountAccepted returns the accepted outgoing edge count per user id.
func (r *PostgresFriendshipRepository) CountAccepted(ctx context.Context, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id, COUNT(friend_user_id)
        FROM friendships
        WHERE user_id = ANY($1) AND status = $2
        GROUP BY user_id
    `, userIDs, string(models.FriendshipAccepted))
	if err != nil {
		return nil, fmt.Errorf("query accepted counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			count  int64
		)
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("scan accepted count: %w", err)
		}
		counts[userID] = int(count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accepted counts: %w", err)
	}

	return counts, nil
}

// EachFriendship streams every edge in key order.
func (r *PostgresFriendshipRepository) EachFriendship(ctx context.Context, fn func(models.Friendship) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id, friend_user_id, status, created_at, updated_at
        FROM friendships
        ORDER BY user_id, friend_user_id
    `)
	if err != nil {
		return fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		edge, err := scanFriendship(rows)
		if err != nil {
			return err
		}
		if err := fn(edge); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate friendships: %w", err)
	}

	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgFriendshipTx struct {
	tx pgx.Tx
}

func (t pgFriendshipTx) Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error) {
	return findFriendship(ctx, t.tx, userID, friendUserID)
}

func (t pgFriendshipTx) Insert(ctx context.Context, edge models.Friendship) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO friendships (user_id, friend_user_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, edge.UserID, edge.FriendUserID, string(edge.Status), edge.CreatedAt, edge.UpdatedAt)
	if err != nil {
		switch db.ErrorCode(err) {
		case db.CodeUniqueViolation:
			return fmt.Errorf("%w: friendship %s -> %s", ErrConflict, edge.UserID, edge.FriendUserID)
		case db.CodeForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

func (t pgFriendshipTx) SetStatus(ctx context.Context, userID, friendUserID string, status models.FriendshipStatus) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE friendships
        SET status = $3, updated_at = NOW()
        WHERE user_id = $1 AND friend_user_id = $2
    `, userID, friendUserID, string(status))
	if err != nil {
		return fmt.Errorf("update friendship status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func findFriendship(ctx context.Context, q querier, userID, friendUserID string) (models.Friendship, error) {
	row := q.QueryRow(ctx, `
        SELECT user_id, friend_user_id, status, created_at, updated_at
        FROM friendships
        WHERE user_id = $1 AND friend_user_id = $2
    `, userID, friendUserID)

	edge, err := scanFriendship(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Friendship{}, ErrNotFound
	}
	return edge, err
}

func scanFriendship(row pgx.Row) (models.Friendship, error) {
	var (
		edge   models.Friendship
		status string
	)
	if err := row.Scan(&edge.UserID, &edge.FriendUserID, &status, &edge.CreatedAt, &edge.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Friendship{}, err
		}
		return models.Friendship{}, fmt.Errorf("scan friendship: %w", err)
	}
	edge.Status = models.FriendshipStatus(status)
	edge.CreatedAt = edge.CreatedAt.UTC()
	edge.UpdatedAt = edge.UpdatedAt.UTC()
	return edge, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendshipRepository = (*PostgresFriendshipRepository)(nil)
