/*
grid.go - Sensitivity sweeps over one or two inputs

PURPOSE:
  Re-evaluates any valuer across the cross product of two input sequences,
  holding every other parameter at its base value. Rows come from the first
  axis, columns from the second.

KEY TYPES:
  Valuer[P]: any func(P) (float64, error); BondPrice, IntrinsicValue,
             DividendValue, Evaluate... all fit
  Axis[P]:   a named sequence of values plus how to substitute one into P
  Grid:      len(rows) x len(cols) cells, each a value or the error it hit

FAILURE ISOLATION:
  A cell whose valuer fails (r == g inside a DCF sweep, a negative period)
  is stored as an invalid Cell carrying its error. Its siblings are computed
  as usual. Only ErrOverflow aborts the build.

IMMUTABILITY:
  The base parameter set is passed by value and Apply must return a modified
  copy, so building a grid never changes the caller's parameters.

EXAMPLE:
  grid, err := valuation.BuildGrid(valuation.IntrinsicValue, base,
      valuation.DCFGrowthAxis(valuation.Linspace(0.01, 0.10, 10)),
      valuation.DCFDiscountAxis(valuation.Linspace(0.05, 0.15, 10)))
*/
package valuation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TYPES
// =============================================================================

// Valuer computes one unrounded value from a parameter set.
type Valuer[P any] func(P) (float64, error)

// Axis is one swept dimension.
type Axis[P any] struct {
	Name   string
	Values []float64
	Apply  func(P, float64) P
}

// Cell is one grid entry. Err is set exactly when Valid is false.
type Cell struct {
	Value float64
	Valid bool
	Err   error
}

// Grid is the read-only result of a two-dimensional sweep.
type Grid struct {
	RowName   string
	ColName   string
	RowValues []float64
	ColValues []float64
	Cells     [][]Cell
}

// Series is the result of a one-dimensional sweep.
type Series struct {
	Name   string
	Values []float64
	Cells  []Cell
}

// =============================================================================
// BUILDERS
// =============================================================================

// BuildGrid evaluates valuer at every (row, col) pair.
func BuildGrid[P any](valuer Valuer[P], base P, rows, cols Axis[P]) (*Grid, error) {
	if valuer == nil || rows.Apply == nil || cols.Apply == nil {
		return nil, fmt.Errorf("grid: valuer and axis substitutions are required: %w", ErrInvalidInput)
	}
	grid := &Grid{
		RowName:   rows.Name,
		ColName:   cols.Name,
		RowValues: append([]float64(nil), rows.Values...),
		ColValues: append([]float64(nil), cols.Values...),
		Cells:     make([][]Cell, len(rows.Values)),
	}
	for i, rv := range rows.Values {
		grid.Cells[i] = make([]Cell, len(cols.Values))
		rowParams := rows.Apply(base, rv)
		for j, cv := range cols.Values {
			cell, err := evaluateCell(valuer, cols.Apply(rowParams, cv))
			if err != nil {
				return nil, fmt.Errorf("grid cell (%s=%v, %s=%v): %w", rows.Name, rv, cols.Name, cv, err)
			}
			grid.Cells[i][j] = cell
		}
	}
	return grid, nil
}

// BuildSeries evaluates valuer at every value of a single axis.
func BuildSeries[P any](valuer Valuer[P], base P, axis Axis[P]) (*Series, error) {
	if valuer == nil || axis.Apply == nil {
		return nil, fmt.Errorf("series: valuer and axis substitution are required: %w", ErrInvalidInput)
	}
	series := &Series{
		Name:   axis.Name,
		Values: append([]float64(nil), axis.Values...),
		Cells:  make([]Cell, len(axis.Values)),
	}
	for i, v := range axis.Values {
		cell, err := evaluateCell(valuer, axis.Apply(base, v))
		if err != nil {
			return nil, fmt.Errorf("series point (%s=%v): %w", axis.Name, v, err)
		}
		series.Cells[i] = cell
	}
	return series, nil
}

// evaluateCell returns a non-nil error only for unrecoverable failures.
func evaluateCell[P any](valuer Valuer[P], params P) (Cell, error) {
	v, err := valuer(params)
	if err != nil {
		if IsUnrecoverable(err) {
			return Cell{}, err
		}
		return Cell{Err: err}, nil
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Cell{}, ErrOverflow
	}
	return Cell{Value: v, Valid: true}, nil
}

// Dimensions returns (rows, cols).
func (g *Grid) Dimensions() (int, int) {
	return len(g.RowValues), len(g.ColValues)
}

// Rounded is the presentation view: 2dp values, nil for invalid cells.
func (g *Grid) Rounded() [][]*decimal.Decimal {
	out := make([][]*decimal.Decimal, len(g.Cells))
	for i, row := range g.Cells {
		out[i] = make([]*decimal.Decimal, len(row))
		for j, c := range row {
			if c.Valid {
				d := Round(c.Value)
				out[i][j] = &d
			}
		}
	}
	return out
}

// InvalidCount returns how many cells failed.
func (g *Grid) InvalidCount() int {
	n := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if !c.Valid {
				n++
			}
		}
	}
	return n
}

// =============================================================================
// AXIS VALUES
// =============================================================================

// MaxSeriesPoints is the most values Range or Linspace will generate.
const MaxSeriesPoints = 1 << 16

// RangeCount is the number of points Range(start, stop, step) yields,
// computed without generating them.
func RangeCount(start, stop, step float64) (int, error) {
	for _, v := range []float64{start, stop, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("range [%v, %v] step %v: %w", start, stop, step, ErrInvalidInput)
		}
	}
	if step <= 0 || stop < start {
		return 0, fmt.Errorf("range [%v, %v] step %v: %w", start, stop, step, ErrInvalidInput)
	}
	n := math.Floor((stop-start)/step+1e-9) + 1
	if math.IsInf(n, 0) || n > MaxSeriesPoints {
		return 0, fmt.Errorf("range [%v, %v] step %v exceeds %d points: %w", start, stop, step, MaxSeriesPoints, ErrInvalidInput)
	}
	return int(n), nil
}

// Range returns start, start+step, ... up to and including stop (within a
// small tolerance so 0.01-style steps do not lose their last point). Points
// are accumulated in decimal, so Range(0.01, 0.10, 0.01) ends at exactly 0.1.
func Range(start, stop, step float64) ([]float64, error) {
	n, err := RangeCount(start, stop, step)
	if err != nil {
		return nil, err
	}
	first, inc := decimal.NewFromFloat(start), decimal.NewFromFloat(step)
	values := make([]float64, n)
	for i := range values {
		values[i] = first.Add(inc.Mul(decimal.NewFromInt(int64(i)))).InexactFloat64()
	}
	return values, nil
}

// Linspace returns n evenly spaced values from a to b inclusive, or nil when
// n is outside 1..MaxSeriesPoints.
func Linspace(a, b float64, n int) []float64 {
	if n <= 0 || n > MaxSeriesPoints {
		return nil
	}
	if n == 1 {
		return []float64{a}
	}
	values := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range values {
		values[i] = a + float64(i)*step
	}
	values[n-1] = b
	return values
}

// =============================================================================
// READY-MADE AXES
// =============================================================================

func BondYieldAxis(values []float64) Axis[BondInput] {
	return Axis[BondInput]{Name: "yield_rate", Values: values, Apply: func(p BondInput, v float64) BondInput {
		p.YieldRate = v
		return p
	}}
}

func BondCouponAxis(values []float64) Axis[BondInput] {
	return Axis[BondInput]{Name: "coupon_rate", Values: values, Apply: func(p BondInput, v float64) BondInput {
		p.CouponRate = v
		return p
	}}
}

func BondYearsYieldAxis(values []float64) Axis[BondYearsInput] {
	return Axis[BondYearsInput]{Name: "yield_rate", Values: values, Apply: func(p BondYearsInput, v float64) BondYearsInput {
		p.YieldRate = v
		return p
	}}
}

func BondYearsCouponAxis(values []float64) Axis[BondYearsInput] {
	return Axis[BondYearsInput]{Name: "coupon_rate", Values: values, Apply: func(p BondYearsInput, v float64) BondYearsInput {
		p.CouponRate = v
		return p
	}}
}

func BondYearsAxis(values []float64) Axis[BondYearsInput] {
	return Axis[BondYearsInput]{Name: "years", Values: values, Apply: func(p BondYearsInput, v float64) BondYearsInput {
		p.Years = int(math.Round(v))
		return p
	}}
}

func TVMRateAxis(values []float64) Axis[TVMInput] {
	return Axis[TVMInput]{Name: "rate", Values: values, Apply: func(p TVMInput, v float64) TVMInput {
		p.Rate = v
		return p
	}}
}

func TVMPeriodsAxis(values []float64) Axis[TVMInput] {
	return Axis[TVMInput]{Name: "periods", Values: values, Apply: func(p TVMInput, v float64) TVMInput {
		p.Periods = int(math.Round(v))
		return p
	}}
}

func DCFGrowthAxis(values []float64) Axis[CashFlowInput] {
	return Axis[CashFlowInput]{Name: "growth", Values: values, Apply: func(p CashFlowInput, v float64) CashFlowInput {
		p.Growth = v
		return p
	}}
}

func DCFDiscountAxis(values []float64) Axis[CashFlowInput] {
	return Axis[CashFlowInput]{Name: "discount", Values: values, Apply: func(p CashFlowInput, v float64) CashFlowInput {
		p.Discount = v
		return p
	}}
}

func DCFHorizonAxis(values []float64) Axis[CashFlowInput] {
	return Axis[CashFlowInput]{Name: "horizon", Values: values, Apply: func(p CashFlowInput, v float64) CashFlowInput {
		p.Horizon = int(math.Round(v))
		return p
	}}
}

func DividendGrowthAxis(values []float64) Axis[DividendInput] {
	return Axis[DividendInput]{Name: "growth", Values: values, Apply: func(p DividendInput, v float64) DividendInput {
		p.Growth = v
		return p
	}}
}

func DividendDiscountAxis(values []float64) Axis[DividendInput] {
	return Axis[DividendInput]{Name: "discount", Values: values, Apply: func(p DividendInput, v float64) DividendInput {
		p.Discount = v
		return p
	}}
}
