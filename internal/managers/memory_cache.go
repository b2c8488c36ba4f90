package managers

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"contacts-server/internal/schemas"
)

type memoryCacheEntry struct {
	user      schemas.CachedUser
	expiresAt time.Time
}

// MemoryCacheManager implements CacheMgr with an in-process map. It backs
// deployments without a redis instance and keeps cache behavior testable
// without network round trips.
type MemoryCacheManager struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

// NewMemoryCacheManager creates an empty in-memory cache.
func NewMemoryCacheManager() *MemoryCacheManager {
	log.Info("Initializing in-memory cache manager")
	return &MemoryCacheManager{
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

// GetUser retrieves the cached snapshot for the given email. Expired entries
// count as absent and are dropped lazily.
func (cm *MemoryCacheManager) GetUser(_ context.Context, email string) (*schemas.CachedUser, error) {
	cm.mu.RLock()
	entry, ok := cm.entries[userCachePrefix+email]
	cm.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if cm.now().After(entry.expiresAt) {
		cm.mu.Lock()
		delete(cm.entries, userCachePrefix+email)
		cm.mu.Unlock()
		return nil, ErrCacheMiss
	}

	user := entry.user
	return &user, nil
}

// SetUser overwrites the snapshot for the given email unconditionally.
func (cm *MemoryCacheManager) SetUser(_ context.Context, email string, user *schemas.CachedUser, ttl time.Duration) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.entries[userCachePrefix+email] = memoryCacheEntry{
		user:      *user,
		expiresAt: cm.now().Add(ttl),
	}

	return nil
}

// InvalidateUser deletes the snapshot for the given email.
func (cm *MemoryCacheManager) InvalidateUser(_ context.Context, email string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.entries, userCachePrefix+email)
	return nil
}
