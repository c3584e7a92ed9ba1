package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*RevocationRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	repo, err := New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo, mr
}

func TestRevocationRepo_SetAndCheck(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.SetRevoked(ctx, "jti-1", time.Minute))
	require.NoError(t, repo.SetRevoked(ctx, "jti-1", time.Minute))

	revoked, err = repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.True(t, mr.Exists(revokedPrefix+"jti-1"))
	assert.Equal(t, time.Minute, mr.TTL(revokedPrefix+"jti-1"))

	revoked, err = repo.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationRepo_Expires(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetRevoked(ctx, "jti-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationRepo_ServerDown(t *testing.T) {
	repo, mr := newTestRepo(t)

	mr.Close()

	_, err := repo.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)

	assert.Error(t, repo.SetRevoked(context.Background(), "jti-1", time.Minute))
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
