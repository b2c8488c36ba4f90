package managers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"contacts-server/internal/schemas"
)

// userCachePrefix namespaces user snapshots inside the shared cache instance.
const userCachePrefix = "user_cache:"

// DefaultUserCacheTTL bounds the staleness window of cached user snapshots.
const DefaultUserCacheTTL = time.Hour

// ErrCacheMiss is returned when no snapshot exists for the given key.
// A miss is a valid outcome and always means "re-resolve from the database",
// never "user does not exist".
var ErrCacheMiss = errors.New("cache miss")

// CacheMgr is a TTL key-value store mapping a user's email to a denormalized
// user snapshot.
type CacheMgr interface {
	GetUser(ctx context.Context, email string) (*schemas.CachedUser, error)
	SetUser(ctx context.Context, email string, user *schemas.CachedUser, ttl time.Duration) error
	InvalidateUser(ctx context.Context, email string) error
}

// RedisCacheManager implements CacheMgr on top of a shared redis client.
// The client's connection pool is safe for concurrent use.
type RedisCacheManager struct {
	client *redis.Client
}

// NewRedisCacheManager creates a new RedisCacheManager around the given client.
func NewRedisCacheManager(client *redis.Client) CacheMgr {
	log.Info("Initializing redis cache manager")
	return &RedisCacheManager{client: client}
}

// GetUser retrieves the cached snapshot for the given email.
func (cm *RedisCacheManager) GetUser(ctx context.Context, email string) (*schemas.CachedUser, error) {
	data, err := cm.client.Get(ctx, userCachePrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	user := &schemas.CachedUser{}
	if err := json.Unmarshal([]byte(data), user); err != nil {
		// A snapshot we cannot decode is as good as absent.
		return nil, ErrCacheMiss
	}

	return user, nil
}

// SetUser overwrites the snapshot for the given email unconditionally.
func (cm *RedisCacheManager) SetUser(ctx context.Context, email string, user *schemas.CachedUser, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return cm.client.Set(ctx, userCachePrefix+email, data, ttl).Err()
}

// InvalidateUser deletes the snapshot for the given email. Deleting an absent
// key is a no-op.
func (cm *RedisCacheManager) InvalidateUser(ctx context.Context, email string) error {
	return cm.client.Del(ctx, userCachePrefix+email).Err()
}
