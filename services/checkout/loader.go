package checkout

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ScriptKey is the fixed identifier the process-wide load state is keyed by.
// There is exactly one checkout script per process regardless of how many
// sessions reach the payment step.
const ScriptKey = "checkout-js"

// Loader performs the idempotent lazy load of the external checkout script.
// The first caller fetches; concurrent callers share that in-flight fetch via
// singleflight instead of issuing duplicates; once a load succeeds every
// later call is a no-op check. A failed load does not latch, so the next
// payment attempt retries.
type Loader struct {
	scriptURL string
	client    *http.Client
	group     singleflight.Group
	loaded    atomic.Bool
}

func NewLoader(scriptURL string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Loader{scriptURL: scriptURL, client: client}
}

// EnsureLoaded makes sure the checkout script is available, fetching it at
// most once per process.
func (l *Loader) EnsureLoaded(ctx context.Context) error {
	if l.loaded.Load() {
		return nil
	}

	_, err, _ := l.group.Do(ScriptKey, func() (interface{}, error) {
		if l.loaded.Load() {
			return nil, nil
		}
		start := time.Now()
		if err := l.fetch(ctx); err != nil {
			return nil, err
		}
		l.loaded.Store(true)
		log.Printf("Checkout script loaded from %s in %v", l.scriptURL, time.Since(start))
		return nil, nil
	})
	return err
}

// Loaded reports whether the script load has completed.
func (l *Loader) Loaded() bool {
	return l.loaded.Load()
}

func (l *Loader) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("error creating script request: %v", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching checkout script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("checkout script responded with status %d", resp.StatusCode)
	}
	return nil
}
