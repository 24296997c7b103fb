package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garmlabs/garm/core"
)

func TestMemoryStoreCreate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "alice", "hash1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.Create(ctx, "alice", "hash2")
	assert.ErrorIs(t, err, core.ErrUsernameTaken)

	id, err = s.Create(ctx, "bob", "hash3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestMemoryStoreFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "alice", "hash")
	require.NoError(t, err)

	byName, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	byID, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	missing, err := s.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Returned records are snapshots, not aliases of internal state.
	byName.PasswordHash = "mutated"
	again, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestMemoryStoreRotateRefreshToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	require.NoError(t, s.SetRefreshToken(ctx, id, "token-1"))

	rotated, err := s.RotateRefreshToken(ctx, id, "token-1", "token-2")
	require.NoError(t, err)
	assert.True(t, rotated)

	// The rotated-out token can never win again.
	rotated, err = s.RotateRefreshToken(ctx, id, "token-1", "token-3")
	require.NoError(t, err)
	assert.False(t, rotated)

	record, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "token-2", record.RefreshToken)
}

func TestMemoryStoreClearRefreshToken(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "alice", "hash")
	require.NoError(t, err)
	require.NoError(t, s.SetRefreshToken(ctx, id, "token-1"))

	cleared, err := s.ClearRefreshToken(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, cleared)

	// Idempotence signal: the second clear finds nothing to match.
	cleared, err = s.ClearRefreshToken(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = s.ClearRefreshToken(ctx, "")
	require.NoError(t, err)
	assert.False(t, cleared)
}
