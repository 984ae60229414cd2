package geocode

import (
	"context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/i474232898/skypulse/internal/weather"
)

// DefaultDebounce is the quiet period before a suggestion lookup is sent.
const DefaultDebounce = 300 * time.Millisecond

// Autocomplete debounces suggestion lookups. Each Query cancels the one before it, so
// only the latest keystroke reaches the upstream.
type Autocomplete struct {
	resolver *Resolver
	debounce time.Duration
	clock    clock.Clock

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewAutocomplete(r *Resolver, debounce time.Duration, clk clock.Clock) *Autocomplete {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if clk == nil {
		clk = clock.NewClock()
	}
	return &Autocomplete{resolver: r, debounce: debounce, clock: clk}
}

// Query waits out the debounce interval and returns suggestions for text. A query
// superseded by a later call returns context.Canceled.
func (a *Autocomplete) Query(ctx context.Context, text string) ([]weather.Coordinates, error) {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	timer := a.clock.NewTimer(a.debounce)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C():
	}

	results := a.resolver.Suggestions(ctx, text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
