package friendships

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardCanSend(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx := context.Background()

	require.NoError(t, f.guard.CanSend(ctx, "a", "b"))
	require.ErrorIs(t, f.guard.CanSend(ctx, "a", "ghost"), ErrNotFound)
	require.ErrorIs(t, f.guard.CanSend(ctx, "a", "a"), ErrInvalidRequest)
	require.ErrorIs(t, f.guard.CanSend(ctx, "a", ""), ErrInvalidRequest)
}

func TestGuardCanAnswer(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	ctx := context.Background()
	require.NoError(t, f.manager.SendRequest(ctx, "a", "b"))

	cases := []struct {
		name      string
		answerer  string
		requester string
		want      error
	}{
		{"recipient", "b", "a", nil},
		{"requesterAnsweringOwnRequest", "a", "b", ErrNotAuthorized},
		{"self", "a", "a", ErrNotAuthorized},
		{"unrelated", "c", "a", ErrNotFound},
		{"missingRequester", "b", "", ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.guard.CanAnswer(ctx, tc.answerer, tc.requester)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGuardCanAnswerAfterAccept(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.befriend(t, "a", "b")

	require.ErrorIs(t, f.guard.CanAnswer(context.Background(), "b", "a"), ErrNotFound)
}
