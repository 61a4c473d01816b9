package pipeline

import (
	"github.com/Nmcnevin/Lead-System/internal/enrich"
	"github.com/Nmcnevin/Lead-System/internal/harvest"
	"github.com/Nmcnevin/Lead-System/internal/pacing"
	"github.com/Nmcnevin/Lead-System/internal/session"
)

// Result-count bounds accepted from callers; requests outside the range
// are clamped, not rejected.
const (
	MinResults = 3
	MaxResults = 15
)

// Config holds all configuration for a pipeline run.
type Config struct {
	Session session.Config
	Harvest harvest.Config
	Enrich  enrich.Config
	Pacing  pacing.Policy
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	policy := pacing.Default()
	return &Config{
		Session: session.DefaultConfig(),
		Harvest: harvest.DefaultConfig(policy),
		Enrich:  enrich.DefaultConfig(),
		Pacing:  policy,
	}
}

// clampResults bounds a requested result count to [MinResults, MaxResults].
func clampResults(n int) int {
	if n < MinResults {
		return MinResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}
