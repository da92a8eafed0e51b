package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// SORTING
// =============================================================================

// SortKey selects the listing order.
type SortKey string

const (
	SortByResult  SortKey = "result"  // highest result first
	SortByError   SortKey = "error"   // closest prediction first, unscored last
	SortByCreated SortKey = "created" // oldest first
)

// ParseSortKey maps a query value to a SortKey. Empty means SortByCreated.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByCreated:
		return SortByCreated, nil
	case SortByResult:
		return SortByResult, nil
	case SortByError:
		return SortByError, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

// Sort orders records in place. Ties fall back to submission order.
func Sort(records []Record, key SortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch key {
		case SortByResult:
			if !a.Result.Equal(b.Result) {
				return a.Result.GreaterThan(b.Result)
			}
		case SortByError:
			if (a.Score == nil) != (b.Score == nil) {
				return a.Score != nil
			}
			if a.Score != nil && !a.Score.Error.Equal(b.Score.Error) {
				return a.Score.Error.LessThan(b.Score.Error)
			}
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// =============================================================================
// BOARD
// =============================================================================

// Submission is a computed calculator result offered to the board.
type Submission struct {
	Name        string
	Kind        Kind
	Calculation string
	InputValue  float64
	Result      float64
	Periods     int
	Rate        float64
	Note        string
	Metadata    map[string]string
}

// Prediction is a participant's intrinsic value estimate for a listed company.
type Prediction struct {
	Name        string
	Company     string
	Prediction  float64
	MarketPrice float64
	Metadata    map[string]string
}

// Board enforces one submission per participant on top of a Store.
type Board struct {
	store Store
	now   func() time.Time
}

func NewBoard(store Store) *Board {
	return &Board{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Submit validates and stores a calculator result.
func (b *Board) Submit(ctx context.Context, s Submission) (Record, error) {
	r := Record{
		Name:        strings.TrimSpace(s.Name),
		Kind:        s.Kind,
		Calculation: s.Calculation,
		InputValue:  valuation.Round(s.InputValue),
		Result:      valuation.Round(s.Result),
		Periods:     s.Periods,
		Rate:        decimal.NewFromFloat(s.Rate),
		Note:        s.Note,
		Metadata:    s.Metadata,
	}
	return b.save(ctx, r)
}

// SubmitPrediction scores a prediction against the market price and stores it.
func (b *Board) SubmitPrediction(ctx context.Context, p Prediction) (Record, error) {
	if p.MarketPrice <= 0 {
		return Record{}, ErrInvalidPrice
	}
	meta := make(map[string]string, len(p.Metadata)+1)
	for k, v := range p.Metadata {
		meta[k] = v
	}
	if p.Company != "" {
		meta["company"] = p.Company
	}
	r := Record{
		Name:        strings.TrimSpace(p.Name),
		Kind:        KindDCF,
		Calculation: "intrinsic_value",
		InputValue:  valuation.Round(p.MarketPrice),
		Result:      valuation.Round(p.Prediction),
		Note:        p.Company,
		Score:       ScorePrediction(p.Prediction, p.MarketPrice),
		Metadata:    meta,
	}
	return b.save(ctx, r)
}

// ScorePrediction compares an estimate to the market price.
func ScorePrediction(prediction, marketPrice float64) *Score {
	return &Score{
		MarketPrice: valuation.Round(marketPrice),
		Error:       valuation.Round(prediction).Sub(valuation.Round(marketPrice)).Abs(),
		Status:      valuation.CompareToMarket(prediction, marketPrice),
	}
}

func (b *Board) save(ctx context.Context, r Record) (Record, error) {
	if r.Name == "" {
		return Record{}, ErrEmptyName
	}
	exists, err := b.store.ExistsByName(ctx, r.Name)
	if err != nil {
		return Record{}, fmt.Errorf("check name: %w", err)
	}
	if exists {
		return Record{}, fmt.Errorf("%w: %s", ErrDuplicateName, r.Name)
	}
	r.ID = uuid.NewString()
	r.CreatedAt = b.now()
	if err := b.store.Save(ctx, r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// List returns all records in the requested order.
func (b *Board) List(ctx context.Context, key SortKey) ([]Record, error) {
	records, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	Sort(records, key)
	return records, nil
}

// Reset clears the board.
func (b *Board) Reset(ctx context.Context) error {
	return b.store.Clear(ctx)
}
