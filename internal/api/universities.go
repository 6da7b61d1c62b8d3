package api

import (
	"context"
	"sync"
	"time"

	"github.com/stayhub/backend/internal/models"
)

// Universities exposes the campus lookup endpoint. The catalogue changes
// rarely, so successful lookups are cached with a TTL.
type Universities struct {
	c   *Client
	ttl time.Duration

	mu      sync.RWMutex
	cached  []models.University
	expires time.Time
}

// NewUniversities binds the universities module to a client, caching results
// for the provided TTL.
func NewUniversities(c *Client, ttl time.Duration) *Universities {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Universities{c: c, ttl: ttl}
}

// List returns the cached catalogue when fresh, otherwise it fetches and
// stores the result.
func (u *Universities) List(ctx context.Context) ([]models.University, error) {
	now := time.Now()

	u.mu.RLock()
	cached, expires := u.cached, u.expires
	u.mu.RUnlock()
	if cached != nil && now.Before(expires) {
		return cached, nil
	}

	var universities []models.University
	if err := u.c.Get(ctx, "/universities", nil, &universities); err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.cached = universities
	u.expires = now.Add(u.ttl)
	u.mu.Unlock()

	return universities, nil
}
