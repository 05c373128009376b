package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/logine2e/internal/clock"
)

func TestSessionStoreCreateLookup(t *testing.T) {
	store := NewSessionStore(nil, time.Minute, clock.NewMock(time.Time{}))

	token, err := store.Create("testuser")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := store.Lookup(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", username)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStoreDistinctTokens(t *testing.T) {
	store := NewSessionStore(nil, time.Minute, nil)

	a, err := store.Create("testuser")
	require.NoError(t, err)
	b, err := store.Create("testuser")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, store.Len())
}

func TestSessionStoreExpiry(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	store := NewSessionStore(nil, time.Minute, clk)

	token, err := store.Create("testuser")
	require.NoError(t, err)

	clk.Advance(59 * time.Second)
	_, err = store.Lookup(token)
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = store.Lookup(token)
	assert.True(t, errors.Is(err, ErrNoSession))
	assert.Equal(t, 0, store.Len(), "expired session is evicted on lookup")
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(nil, time.Minute, nil)

	token, err := store.Create("testuser")
	require.NoError(t, err)

	require.NoError(t, store.Delete(token))
	_, err = store.Lookup(token)
	assert.ErrorIs(t, err, ErrNoSession)

	// Deleting again is fine.
	assert.NoError(t, store.Delete(token))
}

func TestSessionStoreRejectsForgedTokens(t *testing.T) {
	store := NewSessionStore(nil, time.Minute, nil)
	other := NewSessionStore(nil, time.Minute, nil)

	token, err := other.Create("testuser")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"signed by another key", token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Lookup(tt.token)
			assert.ErrorIs(t, err, ErrNoSession)
		})
	}
}

func TestSessionStoreSharedKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	a := NewSessionStore(key, time.Minute, nil)
	b := NewSessionStore(key, time.Minute, nil)

	token, err := a.Create("testuser")
	require.NoError(t, err)

	// Same key decodes, but sessions are per-store.
	_, err = b.Lookup(token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStoreCreateSweepsExpired(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	store := NewSessionStore(nil, time.Minute, clk)

	for range 3 {
		_, err := store.Create("abandoned")
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.Len())

	clk.Advance(time.Minute)
	live, err := store.Create("testuser")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len(), "expired sessions are dropped without their tokens being looked up")
	username, err := store.Lookup(live)
	require.NoError(t, err)
	assert.Equal(t, "testuser", username)
}
