package study

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/apperr"
)

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)

	session := env.session(t, "alice", deck)
	assert.Equal(t, deck.ID, session.DeckID)
	assert.Equal(t, "alice", session.OwnerID)
	assert.True(t, session.StartedAt.Equal(now))
	assert.True(t, session.Open())

	env.clock = now.Add(30 * time.Minute)
	ended, err := env.svc.EndSession(env.ctx, SessionRequest{OwnerID: "alice", SessionID: session.ID})
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)
	assert.True(t, ended.EndedAt.Equal(now.Add(30*time.Minute)))

	env.clock = now.Add(2 * time.Hour)
	again, err := env.svc.EndSession(env.ctx, SessionRequest{OwnerID: "alice", SessionID: session.ID})
	require.NoError(t, err)
	assert.True(t, again.EndedAt.Equal(*ended.EndedAt), "ending twice keeps the first end time")
}

func TestSessionRejects(t *testing.T) {
	env := newTestEnv(t, DefaultPolicy())
	deck := env.deck(t, "alice", nil)
	session := env.session(t, "alice", deck)

	_, err := env.svc.StartSession(env.ctx, DeckRequest{OwnerID: "bob", DeckID: deck.ID})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = env.svc.StartSession(env.ctx, DeckRequest{OwnerID: "alice", DeckID: "deck"})
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	_, err = env.svc.EndSession(env.ctx, SessionRequest{OwnerID: "bob", SessionID: session.ID})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = env.svc.EndSession(env.ctx, SessionRequest{OwnerID: "alice", SessionID: uuid.NewString()})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
