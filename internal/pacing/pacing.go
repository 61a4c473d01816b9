// Package pacing holds the human-like delay policy used between browser
// and HTTP operations. Request bursts with machine-regular timing are a
// reliable automation signal, so every delay site draws from a min/max
// range instead of sleeping a constant.
package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Delay is a single randomized delay site.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// Duration returns a uniformly random duration in [Min, Max].
func (d Delay) Duration() time.Duration {
	if d.Min <= 0 && d.Max <= 0 {
		return 0
	}
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rand.Int63n(int64(d.Max-d.Min)))
}

// Sleep blocks for a random duration in the range, or until ctx is done.
func (d Delay) Sleep(ctx context.Context) {
	dur := d.Duration()
	if dur <= 0 {
		return
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Policy names every delay site in the pipeline.
type Policy struct {
	SearchSettle       Delay // after loading the search page
	DetailSettle       Delay // after navigating to a detail page
	ScrollSettle       Delay // after each scroll of the results panel
	FinalSettle        Delay // after the scroll loop, for trailing renders
	BetweenDetails     Delay // between detail-page extractions
	BetweenEnrichments Delay // between website enrichment fetches
}

// Default returns the production pacing policy.
func Default() Policy {
	return Policy{
		SearchSettle:       Delay{Min: 4 * time.Second, Max: 6 * time.Second},
		DetailSettle:       Delay{Min: 2500 * time.Millisecond, Max: 4 * time.Second},
		ScrollSettle:       Delay{Min: 2500 * time.Millisecond, Max: 2500 * time.Millisecond},
		FinalSettle:        Delay{Min: 1500 * time.Millisecond, Max: 1500 * time.Millisecond},
		BetweenDetails:     Delay{Min: 1 * time.Second, Max: 2 * time.Second},
		BetweenEnrichments: Delay{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond},
	}
}

// Zero returns a policy with every delay disabled, for deterministic tests.
func Zero() Policy {
	return Policy{}
}
