// Package selector picks the cheapest catalog model that satisfies a request's
// routing constraints.
package selector

import (
	"errors"
	"fmt"
	"sort"

	"llm-router/internal/llm-router/catalog"
)

var ErrNoFeasibleModel = errors.New("no feasible model for routing constraints")

// RoutingConstraints are built per request and never persisted.
//
// A zero MaxCost or MaxLatencyMillis means no ceiling. MaxCost is compared
// against the model's combined input+output rate per 1000 tokens, which
// blends two prices that are billed separately; kept for parity with the
// existing routing behaviour until the ceiling is split per direction.
type RoutingConstraints struct {
	MaxCost              float64
	MaxLatencyMillis     int
	MinimumQualityTier   catalog.QualityTier
	RequiredCapabilities []catalog.Capability

	// TaskLabel and LocaleHint are carried for logging only.
	TaskLabel  string
	LocaleHint string
}

// Validate rejects negative ceilings.
func (c RoutingConstraints) Validate() error {
	if c.MaxCost < 0 {
		return fmt.Errorf("max cost must not be negative: %v", c.MaxCost)
	}
	if c.MaxLatencyMillis < 0 {
		return fmt.Errorf("max latency must not be negative: %d", c.MaxLatencyMillis)
	}
	return nil
}

// Accepts reports whether m passes every filter in c.
func (c RoutingConstraints) Accepts(m catalog.ModelDescriptor) bool {
	if m.QualityTier < c.MinimumQualityTier {
		return false
	}
	if !m.HasAll(c.RequiredCapabilities) {
		return false
	}
	if c.MaxCost > 0 && m.CombinedRate() > c.MaxCost {
		return false
	}
	if c.MaxLatencyMillis > 0 && m.ExpectedLatencyMillis > c.MaxLatencyMillis {
		return false
	}
	return true
}

// Feasible returns every model accepted by c, cheapest first. Ties go to the
// lower expected latency, then to catalog order.
func Feasible(models []catalog.ModelDescriptor, c RoutingConstraints) []catalog.ModelDescriptor {
	var out []catalog.ModelDescriptor
	for _, m := range models {
		if c.Accepts(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(
		out, func(i, j int) bool {
			ri, rj := out[i].CombinedRate(), out[j].CombinedRate()
			if ri != rj {
				return ri < rj
			}
			return out[i].ExpectedLatencyMillis < out[j].ExpectedLatencyMillis
		},
	)
	return out
}

// Select returns the first model of Feasible, or ErrNoFeasibleModel.
func Select(cat *catalog.Catalog, c RoutingConstraints) (catalog.ModelDescriptor, error) {
	if err := c.Validate(); err != nil {
		return catalog.ModelDescriptor{}, err
	}

	candidates := Feasible(cat.ListModels(), c)
	if len(candidates) == 0 {
		return catalog.ModelDescriptor{}, fmt.Errorf(
			"quality>=%s capabilities=%v max_cost=%v max_latency_ms=%d: %w",
			c.MinimumQualityTier, c.RequiredCapabilities, c.MaxCost, c.MaxLatencyMillis, ErrNoFeasibleModel,
		)
	}
	return candidates[0], nil
}
