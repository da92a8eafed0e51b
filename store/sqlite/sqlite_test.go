package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/store/sqlite"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, name string, created time.Time) leaderboard.Record {
	return leaderboard.Record{
		ID:          id,
		Name:        name,
		Kind:        leaderboard.KindBond,
		Calculation: "bond_price",
		InputValue:  decimal.RequireFromString("1000"),
		Result:      decimal.RequireFromString("926.40"),
		Periods:     10,
		Rate:        decimal.RequireFromString("0.06"),
		CreatedAt:   created,
	}
}

// =============================================================================
// LEADERBOARD
// =============================================================================

func TestStore_SaveAndList_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 10, 9, 30, 0, 123, time.UTC)

	r := record("r-1", "Ada", created)
	r.Note = "ACME 2034s"
	r.Metadata = map[string]string{"cusip": "000000AA1", "company": "ACME"}
	r.Score = &leaderboard.Score{
		MarketPrice: decimal.RequireFromString("950.00"),
		Error:       decimal.RequireFromString("23.60"),
		Status:      valuation.StatusOvervalued,
	}
	require.NoError(t, store.Save(ctx, r))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, leaderboard.KindBond, got.Kind)
	assert.True(t, got.Result.Equal(r.Result))
	assert.True(t, got.Rate.Equal(r.Rate))
	assert.Equal(t, 10, got.Periods)
	assert.Equal(t, "ACME 2034s", got.Note)
	assert.Equal(t, r.Metadata, got.Metadata)
	assert.True(t, got.CreatedAt.Equal(created))
	require.NotNil(t, got.Score)
	assert.True(t, got.Score.Error.Equal(r.Score.Error))
	assert.Equal(t, valuation.StatusOvervalued, got.Score.Status)
}

func TestStore_Save_UnscoredRecordHasNoScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("r-1", "Ada", time.Now())))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Score)
	assert.Nil(t, records[0].Metadata)
}

func TestStore_Save_DuplicateNormalizedName(t *testing.T) {
	// GIVEN: "Ada" is on the board
	// WHEN: " ada " is saved directly, bypassing the board's pre-check
	// THEN: the unique index rejects it as a duplicate name
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("r-1", "Ada", time.Now())))

	err := store.Save(ctx, record("r-2", " ada ", time.Now()))
	assert.ErrorIs(t, err, leaderboard.ErrDuplicateName)

	exists, err := store.ExistsByName(ctx, "ADA")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByName(ctx, "Grace")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_List_SubmissionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, record("r-2", "second", base.Add(time.Minute))))
	require.NoError(t, store.Save(ctx, record("r-1", "first", base)))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, record("r-1", "Ada", time.Now())))

	require.NoError(t, store.Clear(ctx))
	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, store.Save(ctx, record("r-2", "Ada", time.Now())))
}

func TestStore_WorksBehindBoard(t *testing.T) {
	board := leaderboard.NewBoard(newTestStore(t))
	ctx := context.Background()

	_, err := board.SubmitPrediction(ctx, leaderboard.Prediction{Name: "Ada", Company: "ACME", Prediction: 110, MarketPrice: 100})
	require.NoError(t, err)
	_, err = board.SubmitPrediction(ctx, leaderboard.Prediction{Name: "ada", Prediction: 90, MarketPrice: 100})
	assert.ErrorIs(t, err, leaderboard.ErrDuplicateName)

	records, err := board.List(ctx, leaderboard.SortByError)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10.00", records[0].Score.Error.StringFixed(2))
	assert.Equal(t, valuation.StatusUndervalued, records[0].Score.Status)
}

// =============================================================================
// GRID SPECS
// =============================================================================

func TestStore_GridSpecs_VersionBumpsOnUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	spec := sqlite.GridSpecRecord{Name: "dcf-wide", Model: "dcf", SpecJSON: `{"model":"dcf"}`}
	require.NoError(t, store.SaveGridSpec(ctx, spec))

	spec.SpecJSON = `{"model":"dcf","base":{"horizon":7}}`
	require.NoError(t, store.SaveGridSpec(ctx, spec))

	got, err := store.GetGridSpec(ctx, "dcf-wide")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, spec.SpecJSON, got.SpecJSON)

	missing, err := store.GetGridSpec(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.SaveGridSpec(ctx, sqlite.GridSpecRecord{Name: "bond", Model: "bond", SpecJSON: "{}"}))
	specs, err := store.ListGridSpecs(ctx)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "bond", specs[0].Name)

	require.NoError(t, store.DeleteGridSpec(ctx, "bond"))
	specs, err = store.ListGridSpecs(ctx)
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}
