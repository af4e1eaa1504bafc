package tracker

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"codetab/types"
)

const defaultCursorTTL = time.Minute

// CursorTracker remembers the last invocation position per document for a
// short window. Stale positions age out instead of accumulating across the
// whole editing session.
type CursorTracker struct {
	cache *ttlcache.Cache[string, types.Position]
}

func NewCursorTracker(ttl time.Duration) *CursorTracker {
	if ttl <= 0 {
		ttl = defaultCursorTTL
	}
	cache := ttlcache.New[string, types.Position](
		ttlcache.WithTTL[string, types.Position](ttl),
		ttlcache.WithDisableTouchOnHit[string, types.Position](),
	)
	go cache.Start()
	return &CursorTracker{cache: cache}
}

// TrackPosition records the latest cursor position for a document.
func (t *CursorTracker) TrackPosition(uri string, pos types.Position) {
	t.cache.Set(uri, pos, ttlcache.DefaultTTL)
}

// LastPosition returns the most recent non-expired position for a document.
func (t *CursorTracker) LastPosition(uri string) (types.Position, bool) {
	item := t.cache.Get(uri)
	if item == nil {
		return types.Position{}, false
	}
	return item.Value(), true
}

// Stop terminates the cache's expiry loop.
func (t *CursorTracker) Stop() {
	t.cache.Stop()
}
