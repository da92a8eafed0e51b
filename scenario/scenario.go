/*
Package scenario draws economic backdrops for the time value calculators.

PURPOSE:
  Each scenario names an economic climate, a plausible interest rate range
  and a one-line news item. Drawing one picks a scenario and a rate uniformly
  inside its range. Only the rate reaches the engine; the rest is flavor
  shown next to the result.

AVAILABLE SCENARIOS:
  low-unemployment:    10% - 15%
  stable-economy:       5% - 10%
  moderate-inflation:   5% -  8%
  recession:            2% -  5%
  high-inflation:       5% -  8%
  boom:                13% - 18%
  world-at-war:         1% -  3%

USAGE:
  rng := rand.New(rand.NewPCG(seed, 0))
  d := scenario.Draw(rng)
  fv, _ := valuation.FutureValue(1000, d.Rate, 10)
*/
package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is one catalogue entry.
type Scenario struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	News    string  `json:"news" yaml:"news"`
	MinRate float64 `json:"min_rate" yaml:"min_rate"`
	MaxRate float64 `json:"max_rate" yaml:"max_rate"`
}

// Drawn is a scenario with the rate picked for it.
type Drawn struct {
	Scenario
	Rate float64 `json:"rate"`
}

var catalogue = []Scenario{
	{ID: "low-unemployment", Name: "Low Unemployment", MinRate: 0.10, MaxRate: 0.15,
		News: "The economy is thriving with low unemployment rates."},
	{ID: "stable-economy", Name: "Stable Economy", MinRate: 0.05, MaxRate: 0.10,
		News: "The economy is stable with consistent growth."},
	{ID: "moderate-inflation", Name: "Moderate Inflation", MinRate: 0.05, MaxRate: 0.08,
		News: "Inflation is moderate, affecting purchasing power."},
	{ID: "recession", Name: "Recession", MinRate: 0.02, MaxRate: 0.05,
		News: "The economy is in recession with rising unemployment."},
	{ID: "high-inflation", Name: "High Inflation", MinRate: 0.05, MaxRate: 0.08,
		News: "High inflation is affecting consumer prices significantly."},
	{ID: "boom", Name: "Boom", MinRate: 0.13, MaxRate: 0.18,
		News: "The economy is booming with significant growth."},
	{ID: "world-at-war", Name: "World at War", MinRate: 0.01, MaxRate: 0.03,
		News: "The world is in conflict, leading to high oil prices."},
}

// All returns a copy of the catalogue in display order.
func All() []Scenario {
	out := make([]Scenario, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a scenario by ID or display name, case-insensitively.
func Lookup(name string) (Scenario, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range catalogue {
		if s.ID == key || strings.ToLower(s.Name) == key {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}

// Draw picks a scenario and a rate within its range.
func Draw(rng *rand.Rand) Drawn {
	return DrawFrom(rng, catalogue[rng.IntN(len(catalogue))])
}

// DrawFrom picks a rate for a given scenario.
func DrawFrom(rng *rand.Rand, s Scenario) Drawn {
	return Drawn{Scenario: s, Rate: s.MinRate + rng.Float64()*(s.MaxRate-s.MinRate)}
}
