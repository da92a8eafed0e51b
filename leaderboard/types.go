/*
Package leaderboard records calculator results and predictions for side by
side comparison.

PURPOSE:
  A small persistence collaborator of the calculators. Each participant
  submits once; entries can be listed in result, error or submission order.
  The valuation engine never imports this package; callers hand it results
  that are already computed.

KEY CONCEPTS:
  Record:     one flat row (name, kind, input, result, periods, rate)
  Score:      how far a prediction landed from the market price
  Store:      persistence contract, implemented by Memory and store/sqlite
  Board:      the service enforcing one submission per name

NAME UNIQUENESS:
  Names are compared after trimming surrounding whitespace and lower-casing,
  so "Ada", " ada " and "ADA" are the same participant.

SEE ALSO:
  - board.go:           Submission, scoring and ordering
  - memory.go:          In-memory Store
  - store/sqlite:       SQLite Store
*/
package leaderboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/valuation-engine/valuation"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDuplicateName  = errors.New("a submission with this name already exists")
	ErrEmptyName      = errors.New("name is required")
	ErrInvalidSortKey = errors.New("invalid sort key")
	ErrInvalidPrice   = errors.New("market price must be positive")
)

// IsClientError returns true if the error is due to the submission itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidSortKey) ||
		errors.Is(err, ErrInvalidPrice)
}

// =============================================================================
// RECORDS
// =============================================================================

// Kind is the calculator family a record came from.
type Kind string

const (
	KindTVM  Kind = "tvm"
	KindBond Kind = "bond"
	KindDDM  Kind = "ddm"
	KindDCF  Kind = "dcf"
)

// Record is one leaderboard row. Money fields are stored rounded to cents;
// Rate is kept as submitted.
type Record struct {
	ID          string
	Name        string
	Kind        Kind
	Calculation string // e.g. "future_value", "bond_price"
	InputValue  decimal.Decimal
	Result      decimal.Decimal
	Periods     int
	Rate        decimal.Decimal
	Note        string
	Score       *Score
	Metadata    map[string]string
	CreatedAt   time.Time
}

// Score is attached to prediction records only.
type Score struct {
	MarketPrice decimal.Decimal
	Error       decimal.Decimal // |prediction - market price|
	Status      valuation.Status
}

// NameKey is the form names are compared in.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence contract for leaderboard records.
type Store interface {
	// Save inserts a record. It returns ErrDuplicateName if a record with the
	// same NameKey exists.
	Save(ctx context.Context, r Record) error

	// List returns every record in submission order.
	List(ctx context.Context) ([]Record, error)

	ExistsByName(ctx context.Context, name string) (bool, error)

	// Clear removes all records.
	Clear(ctx context.Context) error
}
