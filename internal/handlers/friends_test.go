package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/friendgraph/backend/internal/auth"
	"github.com/friendgraph/backend/internal/friendships"
	"github.com/friendgraph/backend/internal/models"
	"github.com/friendgraph/backend/internal/repositories"
)

const (
	aliceID = "11111111-1111-4111-8111-111111111111"
	bobID   = "22222222-2222-4222-8222-222222222222"
	carolID = "33333333-3333-4333-8333-333333333333"
	ghostID = "99999999-9999-4999-8999-999999999999"
)

type testServer struct {
	mux      *http.ServeMux
	sessions *auth.Manager
	edges    *repositories.MemoryFriendshipStore
	tokens   map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := repositories.NewMemoryUserStore()
	for _, u := range []models.User{
		{ID: aliceID, Email: "alice@example.com", FullName: "Alice", PhoneNumber: "+15550000001"},
		{ID: bobID, Email: "bob@example.com", FullName: "Bob", PhoneNumber: "+15550000002"},
		{ID: carolID, Email: "carol@example.com", FullName: "Carol", PhoneNumber: "+15550000003"},
	} {
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	edges := repositories.NewMemoryFriendshipStore()
	reg := prometheus.NewRegistry()
	manager, err := friendships.NewManager(edges, friendships.WithMetrics(friendships.NewMetrics(reg)))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	guard, err := friendships.NewGuard(users, edges)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	graph, err := friendships.NewGraph(edges, users)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	sessions := newSessionManager(t)
	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:     users,
		Sessions:  sessions,
		Lifecycle: manager,
		Guard:     guard,
		Graph:     graph,
		Metrics:   reg,
	})

	s := &testServer{mux: mux, sessions: sessions, edges: edges, tokens: make(map[string]string)}
	for _, id := range []string{aliceID, bobID, carolID} {
		tokens, err := sessions.Issue(context.Background(), id)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		s.tokens[id] = tokens.AccessToken
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, callerID string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	if callerID != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[callerID])
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) transition(t *testing.T, op, callerID, friendID string, want int) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/friendships/"+op, callerID, friendshipRequest{FriendUserID: friendID})
	if rec.Code != want {
		t.Fatalf("%s: expected %d got %d: %s", op, want, rec.Code, rec.Body.String())
	}
}

func TestFriendshipLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	s.transition(t, "send", aliceID, bobID, http.StatusNoContent)
	s.transition(t, "decline", bobID, aliceID, http.StatusNoContent)
	s.transition(t, "send", aliceID, bobID, http.StatusNoContent)
	s.transition(t, "accept", bobID, aliceID, http.StatusNoContent)

	s.transition(t, "send", aliceID, carolID, http.StatusNoContent)
	s.transition(t, "accept", carolID, aliceID, http.StatusNoContent)
	s.transition(t, "send", bobID, carolID, http.StatusNoContent)
	s.transition(t, "accept", carolID, bobID, http.StatusNoContent)

	rec := s.do(t, http.MethodGet, "/api/v1/friends/profile?friendUserId="+bobID, aliceID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.FriendSummary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := models.FriendSummary{
		Profile:           models.Profile{UserID: bobID, FullName: "Bob", PhoneNumber: "+15550000002"},
		TotalFriendCount:  2,
		MutualFriendCount: 1,
	}
	if summary != want {
		t.Fatalf("expected %+v got %+v", want, summary)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/friends?user="+aliceID, aliceID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var list friendListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Friends) != 2 || list.Friends[0].UserID != bobID || list.Friends[1].UserID != carolID {
		t.Fatalf("unexpected friend list: %+v", list.Friends)
	}
}

func TestFriendshipErrorMapping(t *testing.T) {
	s := newTestServer(t)
	s.transition(t, "send", aliceID, bobID, http.StatusNoContent)

	cases := []struct {
		name   string
		op     string
		caller string
		friend string
		want   int
	}{
		{"sendToSelf", "send", aliceID, aliceID, http.StatusBadRequest},
		{"sendToUnknown", "send", aliceID, ghostID, http.StatusNotFound},
		{"sendMalformedID", "send", aliceID, "not-a-uuid", http.StatusBadRequest},
		{"acceptOwnRequest", "accept", aliceID, bobID, http.StatusForbidden},
		{"acceptMissing", "accept", carolID, aliceID, http.StatusNotFound},
		{"declineMissing", "decline", aliceID, carolID, http.StatusNotFound},
		{"resendIsIdempotent", "send", aliceID, bobID, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s.transition(t, tc.op, tc.caller, tc.friend, tc.want)
		})
	}

	if got := len(s.edges.Edges()); got != 1 {
		t.Fatalf("expected rejected calls to leave one edge, got %d", got)
	}
}

func TestFriendRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/friends", "/api/v1/friends/profile?friendUserId=" + bobID} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
	rec := s.do(t, http.MethodPost, "/api/v1/friendships/send", "", friendshipRequest{FriendUserID: bobID})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestFriendQueries(t *testing.T) {
	s := newTestServer(t)
	s.transition(t, "send", aliceID, bobID, http.StatusNoContent)

	rec := s.do(t, http.MethodGet, "/api/v1/friends/profile?friendUserId="+bobID, aliceID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected pending friendship to be hidden, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/friends/profile", aliceID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected missing id to be rejected, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/friends?user="+bobID, aliceID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected listing someone else's friends to be forbidden, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/friends", aliceID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"friends":[]`) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/friends", aliceID, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.transition(t, "send", aliceID, bobID, http.StatusNoContent)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `friendgraph_friendship_transitions_total{operation="send",outcome="ok"} 1`) {
		t.Fatalf("expected transition counter, got %s", rec.Body.String())
	}
}

type stubLifecycle struct{ err error }

func (s stubLifecycle) SendRequest(context.Context, string, string) error    { return s.err }
func (s stubLifecycle) AcceptRequest(context.Context, string, string) error  { return s.err }
func (s stubLifecycle) DeclineRequest(context.Context, string, string) error { return s.err }

type allowGuard struct{}

func (allowGuard) CanSend(context.Context, string, string) error   { return nil }
func (allowGuard) CanAnswer(context.Context, string, string) error { return nil }

func TestFriendshipHandlerTransientAndRateLimit(t *testing.T) {
	body := func() *bytes.Reader {
		payload, _ := json.Marshal(friendshipRequest{FriendUserID: bobID})
		return bytes.NewReader(payload)
	}
	ctx := auth.WithUserID(context.Background(), aliceID)

	handler := FriendshipHandler{Lifecycle: stubLifecycle{err: friendships.ErrTransient}, Guard: allowGuard{}}
	rec := httptest.NewRecorder()
	handler.Accept(rec, httptest.NewRequest(http.MethodPost, "/", body()).WithContext(ctx))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	handler = FriendshipHandler{Lifecycle: stubLifecycle{err: errors.New("boom")}, Guard: allowGuard{}}
	rec = httptest.NewRecorder()
	handler.Decline(rec, httptest.NewRequest(http.MethodPost, "/", body()).WithContext(ctx))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}

	handler = FriendshipHandler{Lifecycle: stubLifecycle{}, Guard: allowGuard{}, Limiter: denyLimiter{}}
	rec = httptest.NewRecorder()
	handler.Send(rec, httptest.NewRequest(http.MethodPost, "/", body()).WithContext(ctx))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}
