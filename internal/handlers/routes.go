package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/friendgraph/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Lifecycle   FriendshipLifecycle
	Guard       FriendshipGuard
	Graph       FriendGraph
	Store       Pinger
	SendLimiter RateLimiter
	AuthLimiter RateLimiter
	Metrics     prometheus.Gatherer
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Store: deps.Store}
	authn := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	friends := FriendshipHandler{
		Lifecycle: deps.Lifecycle,
		Guard:     deps.Guard,
		Graph:     deps.Graph,
		Limiter:   deps.SendLimiter,
	}
	requireUser := middleware.RequireUser(deps.Sessions)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", authn.Login)
	mux.HandleFunc("/api/v1/auth/signup", authn.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", authn.Refresh)
	mux.Handle("/api/v1/friendships/send", requireUser(http.HandlerFunc(friends.Send)))
	mux.Handle("/api/v1/friendships/accept", requireUser(http.HandlerFunc(friends.Accept)))
	mux.Handle("/api/v1/friendships/decline", requireUser(http.HandlerFunc(friends.Decline)))
	mux.Handle("/api/v1/friends", requireUser(http.HandlerFunc(friends.List)))
	mux.Handle("/api/v1/friends/profile", requireUser(http.HandlerFunc(friends.Profile)))

	if deps.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}
