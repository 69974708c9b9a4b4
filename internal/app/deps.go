package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/config"
	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/handlers"
	"github.com/friendgraph/backend/internal/middleware"
	"github.com/friendgraph/backend/internal/repositories"
)

// storeSet groups the persistence backends selected by FRIENDGRAPH_STORE.
type storeSet struct {
	users       repositories.UserRepository
	friendships repositories.FriendshipRepository
	sessions    auth.SessionStore
	health      handlers.Pinger
}

func postgresStores(pool *pgxpool.Pool) storeSet {
	return storeSet{
		users:       repositories.NewPostgresUserRepository(pool),
		friendships: repositories.NewPostgresFriendshipRepository(pool),
		sessions:    repositories.NewPostgresSessionStore(pool),
		health:      pool,
	}
}

func memoryStores() storeSet {
	return storeSet{
		users:       repositories.NewMemoryUserStore(),
		friendships: repositories.NewMemoryFriendshipStore(),
		sessions:    auth.NewInMemorySessionStore(),
	}
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(stores storeSet, cfg config.Config, reg *prometheus.Registry) (handlers.Dependencies, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessions, err := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, stores.sessions)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	manager, err := friendships.NewManager(stores.friendships,
		friendships.WithRetries(cfg.TxRetries),
		friendships.WithMetrics(friendships.NewMetrics(reg)),
	)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("friendship manager: %w", err)
	}

	guard, err := friendships.NewGuard(stores.users, stores.friendships)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("friendship guard: %w", err)
	}

	graph, err := friendships.NewGraph(stores.friendships, stores.users)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("friend graph: %w", err)
	}

	return handlers.Dependencies{
		Users:       stores.users,
		Sessions:    sessions,
		Lifecycle:   manager,
		Guard:       guard,
		Graph:       graph,
		Store:       stores.health,
		SendLimiter: middleware.NewKeyedRateLimiter(cfg.SendRateLimit, cfg.SendRateWindow, cfg.SendRateBurst, cfg.RateLimitIdleTTL),
		AuthLimiter: middleware.NewKeyedRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateLimit, cfg.RateLimitIdleTTL),
		Metrics:     reg,
	}, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
