package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/fadilmartias/mentor-match/internal/dto"
	"github.com/fadilmartias/mentor-match/internal/logger"
)

// ComputeFunc produces the candidate matches for one requester. It is invoked
// off the caller's goroutine and may be slow.
type ComputeFunc func() ([]dto.CandidateMatch, error)

type entry struct {
	matches    []dto.CandidateMatch
	computedAt time.Time
}

// MatchCache keeps recently computed match results per requester so repeated
// dashboard polling does not hammer the scoring services. Entries live in
// process memory only; the persisted request record stays the source of truth.
type MatchCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[string]entry
	inflight map[string]bool
	log      logger.Logger
}

func NewMatchCache(ttl time.Duration, log logger.Logger) *MatchCache {
	return &MatchCache{
		ttl:      ttl,
		entries:  make(map[string]entry),
		inflight: make(map[string]bool),
		log:      log.WithFields(map[string]interface{}{"component": "match_cache"}),
	}
}

// GetOrCompute returns the cached matches for key if they are younger than the
// TTL. Otherwise it launches compute in the background, unless one is already
// in flight for this key, and reports inProgress. It never blocks on compute.
func (c *MatchCache) GetOrCompute(key string, compute ComputeFunc) (matches []dto.CandidateMatch, inProgress bool) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Since(e.computedAt) < c.ttl {
		c.mu.Unlock()
		return e.matches, false
	}
	if c.inflight[key] {
		c.mu.Unlock()
		return nil, true
	}
	c.inflight[key] = true
	c.mu.Unlock()

	go func() {
		// The marker must clear on every exit path, a panicking compute
		// would otherwise wedge the key until restart.
		defer func() {
			if rec := recover(); rec != nil {
				c.log.Error("match compute panicked", map[string]interface{}{
					"key":   key,
					"panic": fmt.Sprint(rec),
				})
			}
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		result, err := compute()
		if err != nil {
			c.log.Warn("match compute failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			return
		}
		c.mu.Lock()
		c.entries[key] = entry{matches: result, computedAt: time.Now()}
		c.mu.Unlock()
	}()
	return nil, true
}

// Invalidate evicts the entry for key. Called when the underlying request
// transitions, so the next poll recomputes.
func (c *MatchCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
