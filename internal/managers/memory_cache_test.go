package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-server/internal/schemas"
)

func testSnapshot() *schemas.CachedUser {
	createdAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &schemas.CachedUser{
		ID:         1,
		Email:      "alice@example.com",
		IsVerified: true,
		Role:       schemas.RoleUser,
		CreatedAt:  &createdAt,
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheManager()

	_, err := cache.GetUser(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.SetUser(ctx, "alice@example.com", testSnapshot(), DefaultUserCacheTTL))

	got, err := cache.GetUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheManager()

	current := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	require.NoError(t, cache.SetUser(ctx, "alice@example.com", testSnapshot(), time.Hour))

	current = current.Add(59 * time.Minute)
	_, err := cache.GetUser(ctx, "alice@example.com")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = cache.GetUser(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheManager()

	require.NoError(t, cache.SetUser(ctx, "alice@example.com", testSnapshot(), DefaultUserCacheTTL))
	require.NoError(t, cache.InvalidateUser(ctx, "alice@example.com"))

	_, err := cache.GetUser(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Invalidating an absent key is a no-op.
	require.NoError(t, cache.InvalidateUser(ctx, "alice@example.com"))
}

func TestMemoryCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheManager()

	require.NoError(t, cache.SetUser(ctx, "alice@example.com", testSnapshot(), DefaultUserCacheTTL))

	updated := testSnapshot()
	updated.Role = schemas.RoleAdmin
	require.NoError(t, cache.SetUser(ctx, "alice@example.com", updated, DefaultUserCacheTTL))

	got, err := cache.GetUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, schemas.RoleAdmin, got.Role)
}
