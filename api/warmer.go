/*
warmer.go - Background grid cache warmer

PURPOSE:
  Periodically computes the preset grids and every saved grid spec so the
  first request for each is served from the cache.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Runs once immediately on Start
  - A spec that fails to build is logged and skipped
  - No-op when the handler has no cache

CONFIGURATION:
  - Interval: How often to refresh (default: half the cache TTL)
  - Enabled:  Whether the warmer is active (default: true)

USAGE:
  warmer := NewCacheWarmer(handler)
  warmer.Start()
  // ... later
  warmer.Stop()

SEE ALSO:
  - grids.go: computeGrid (the read-through path the warmer fills)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/valuation-engine/factory"
)

// CacheWarmer refreshes cached grids on a ticker.
type CacheWarmer struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCacheWarmer creates a warmer for the handler's cache.
func NewCacheWarmer(h *Handler) *CacheWarmer {
	interval := h.CacheTTL / 2
	if interval <= 0 {
		interval = DefaultCacheTTL / 2
	}
	return &CacheWarmer{
		Handler:  h,
		Interval: interval,
		Enabled:  h.Cache != nil,
		stop:     make(chan struct{}),
	}
}

// Start begins the warmer.
func (cw *CacheWarmer) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.Enabled {
		log.Println("[Warmer] Disabled, not starting")
		return
	}

	cw.ticker = time.NewTicker(cw.Interval)
	cw.wg.Add(1)

	go cw.run()

	log.Printf("[Warmer] Started with interval: %v", cw.Interval)
}

// Stop stops the warmer.
func (cw *CacheWarmer) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		cw.ticker.Stop()
		close(cw.stop)
		cw.wg.Wait()
		cw.ticker = nil
		log.Println("[Warmer] Stopped")
	}
}

func (cw *CacheWarmer) run() {
	defer cw.wg.Done()

	cw.RunNow(context.Background())

	for {
		select {
		case <-cw.ticker.C:
			cw.RunNow(context.Background())
		case <-cw.stop:
			return
		}
	}
}

// RunNow warms every preset and saved spec once and returns how many grids
// were computed or already cached.
func (cw *CacheWarmer) RunNow(ctx context.Context) int {
	h := cw.Handler
	if h.Cache == nil {
		return 0
	}

	specs := make([]factory.GridSpec, 0, len(factory.PresetNames()))
	for _, name := range factory.PresetNames() {
		spec, _ := factory.Preset(name)
		specs = append(specs, spec)
	}

	saved, err := h.Store.ListGridSpecs(ctx)
	if err != nil {
		log.Printf("[Warmer] Error listing saved specs: %v", err)
	}
	for _, rec := range saved {
		spec, err := factory.ParseJSON([]byte(rec.SpecJSON))
		if err != nil {
			log.Printf("[Warmer] Skipping unreadable spec %s: %v", rec.Name, err)
			continue
		}
		specs = append(specs, spec)
	}

	warmed, computed := 0, 0
	for _, spec := range specs {
		_, hit, err := h.computeGrid(ctx, spec)
		if err != nil {
			log.Printf("[Warmer] Error building %s: %v", spec.Name, err)
			continue
		}
		warmed++
		if !hit {
			computed++
		}
	}

	if computed > 0 {
		log.Printf("[Warmer] Completed: %d warmed, %d computed", warmed, computed)
	}
	return warmed
}
