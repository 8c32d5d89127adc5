// Package cache holds the in-process caches used for computed reports and
// the janitor that expires their entries.
package cache

import (
	"context"
	"time"

	"expensetab/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches.
type Janitor struct {
	caches   []Cleaner
	interval time.Duration
	logger   *log.Logger
}

// NewJanitor creates a janitor sweeping caches every interval. A nil logger
// discards output.
func NewJanitor(interval time.Duration, logger *log.Logger, caches ...Cleaner) *Janitor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Janitor{
		caches:   caches,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentCache),
	}
}

// Register adds a cache to the sweep.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Sweep cleans every registered cache once and returns the entries removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps until ctx is done. It always returns nil so it can sit in an
// errgroup next to the server.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 || len(j.caches) == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
