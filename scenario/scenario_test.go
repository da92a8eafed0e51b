package scenario_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/scenario"
)

func TestAll_Catalogue(t *testing.T) {
	all := scenario.All()
	require.Len(t, all, 7)
	for _, s := range all {
		assert.NotEmpty(t, s.News, s.ID)
		assert.Less(t, s.MinRate, s.MaxRate, s.ID)
	}

	// callers cannot mutate the catalogue
	all[0].MinRate = 99
	assert.NotEqual(t, 99.0, scenario.All()[0].MinRate)
}

func TestDraw_RateWithinRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		d := scenario.Draw(rng)
		seen[d.ID] = true
		assert.GreaterOrEqual(t, d.Rate, d.MinRate, d.ID)
		assert.LessOrEqual(t, d.Rate, d.MaxRate, d.ID)
	}
	assert.Len(t, seen, 7)
}

func TestDraw_Deterministic(t *testing.T) {
	a := scenario.Draw(rand.New(rand.NewPCG(1, 2)))
	b := scenario.Draw(rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a, b)
}

func TestLookup(t *testing.T) {
	s, err := scenario.Lookup("World at War")
	require.NoError(t, err)
	assert.Equal(t, "world-at-war", s.ID)
	assert.Equal(t, 0.01, s.MinRate)

	s, err = scenario.Lookup(" RECESSION ")
	require.NoError(t, err)
	assert.Equal(t, 0.05, s.MaxRate)

	_, err = scenario.Lookup("stagflation")
	assert.ErrorIs(t, err, scenario.ErrUnknownScenario)
}
