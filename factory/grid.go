/*
Package factory provides JSON/YAML to sensitivity grid conversion.

PURPOSE:
  Converts declarative grid definitions into valuation.BuildGrid calls, so a
  sweep over any model and any two of its parameters can be described as
  data: posted to the API, stored by name, or kept in a YAML file for the CLI.

SCHEMA (JSON shown, YAML uses the same keys):
  {
    "name": "dcf-default",
    "model": "dcf",
    "base": {"base_cash_flow": 100, "horizon": 5},
    "rows": {"param": "growth",   "linspace": {"start": 0.01, "stop": 0.10, "count": 10}},
    "cols": {"param": "discount", "range":    {"start": 0.05, "stop": 0.15, "step": 0.01}}
  }

  Each axis takes exactly one of "values", "range" or "linspace".
  Bond models also read "settlement", "maturity" (YYYY-MM-DD) and
  "frequency"; "dcf_two_stage" reads "convention".

MODELS AND PARAMETERS:
  bond                  face_value coupon_rate yield_rate
  bond_years            face_value coupon_rate yield_rate years
  tvm:<calculation>     amount rate periods
  ddm                   last_dividend growth discount
  dcf                   base_cash_flow growth discount horizon
  dcf_two_stage         base_cash_flow discount high_growth high_growth_years
                        terminal_growth terminal_years

  Integer parameters (years, periods, horizon...) are rounded to the nearest
  whole number.

ERRORS:
  Every validation error wraps valuation.ErrInvalidInput so callers can map
  them with valuation.IsClientError.

SEE ALSO:
  - valuation/grid.go: BuildGrid
  - presets.go: Ready-made specs
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/warp/valuation-engine/valuation"
	"gopkg.in/yaml.v3"
)

// MaxAxisPoints bounds each axis so one request cannot ask for an
// arbitrarily large grid.
const MaxAxisPoints = 200

var (
	ErrUnknownModel = fmt.Errorf("unknown model: %w", valuation.ErrInvalidInput)
	ErrUnknownParam = fmt.Errorf("unknown parameter: %w", valuation.ErrInvalidInput)
	ErrInvalidAxis  = fmt.Errorf("invalid axis: %w", valuation.ErrInvalidInput)
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// GridSpec is the declarative form of one sensitivity grid.
type GridSpec struct {
	Name       string             `json:"name,omitempty" yaml:"name,omitempty"`
	Model      string             `json:"model" yaml:"model"`
	Base       map[string]float64 `json:"base,omitempty" yaml:"base,omitempty"`
	Settlement string             `json:"settlement,omitempty" yaml:"settlement,omitempty"`
	Maturity   string             `json:"maturity,omitempty" yaml:"maturity,omitempty"`
	Frequency  string             `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Convention string             `json:"convention,omitempty" yaml:"convention,omitempty"`
	Rows       AxisSpec           `json:"rows" yaml:"rows"`
	Cols       AxisSpec           `json:"cols" yaml:"cols"`
}

// AxisSpec names the swept parameter and how its values are generated.
type AxisSpec struct {
	Param    string        `json:"param" yaml:"param"`
	Values   []float64     `json:"values,omitempty" yaml:"values,omitempty"`
	Range    *RangeSpec    `json:"range,omitempty" yaml:"range,omitempty"`
	Linspace *LinspaceSpec `json:"linspace,omitempty" yaml:"linspace,omitempty"`
}

type RangeSpec struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Step  float64 `json:"step" yaml:"step"`
}

type LinspaceSpec struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Count int     `json:"count" yaml:"count"`
}

// Resolve returns the axis values.
func (a AxisSpec) Resolve() ([]float64, error) {
	set := 0
	if a.Values != nil {
		set++
	}
	if a.Range != nil {
		set++
	}
	if a.Linspace != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: %q needs exactly one of values, range or linspace", ErrInvalidAxis, a.Param)
	}

	var values []float64
	switch {
	case a.Values != nil:
		values = a.Values
	case a.Range != nil:
		n, err := valuation.RangeCount(a.Range.Start, a.Range.Stop, a.Range.Step)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAxis, a.Param, err)
		}
		if n > MaxAxisPoints {
			return nil, fmt.Errorf("%w: %q has %d values, max %d", ErrInvalidAxis, a.Param, n, MaxAxisPoints)
		}
		if values, err = valuation.Range(a.Range.Start, a.Range.Stop, a.Range.Step); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAxis, a.Param, err)
		}
	default:
		// Counts are checked before Linspace allocates.
		if a.Linspace.Count < 1 || a.Linspace.Count > MaxAxisPoints {
			return nil, fmt.Errorf("%w: %q linspace count %d, want 1..%d", ErrInvalidAxis, a.Param, a.Linspace.Count, MaxAxisPoints)
		}
		values = valuation.Linspace(a.Linspace.Start, a.Linspace.Stop, a.Linspace.Count)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %q has no values", ErrInvalidAxis, a.Param)
	}
	if len(values) > MaxAxisPoints {
		return nil, fmt.Errorf("%w: %q has %d values, max %d", ErrInvalidAxis, a.Param, len(values), MaxAxisPoints)
	}
	return values, nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseJSON decodes a spec, rejecting unknown fields.
func ParseJSON(data []byte) (GridSpec, error) {
	var spec GridSpec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return GridSpec{}, fmt.Errorf("invalid grid spec JSON: %v: %w", err, valuation.ErrInvalidInput)
	}
	return spec, nil
}

// ParseYAML decodes a spec, rejecting unknown fields.
func ParseYAML(data []byte) (GridSpec, error) {
	var spec GridSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return GridSpec{}, fmt.Errorf("invalid grid spec YAML: %v: %w", err, valuation.ErrInvalidInput)
	}
	return spec, nil
}

// Load reads a spec file; .json files are parsed as JSON, anything else as YAML.
func Load(path string) (GridSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GridSpec{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// =============================================================================
// MODELS
// =============================================================================

type setter[P any] func(*P, float64)

// model binds a valuer to the parameters a spec may name.
type model[P any] struct {
	valuer valuation.Valuer[P]
	params map[string]setter[P]
}

func (m model[P]) paramNames() []string {
	names := make([]string, 0, len(m.params))
	for n := range m.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m model[P]) axis(spec AxisSpec) (valuation.Axis[P], error) {
	set, ok := m.params[spec.Param]
	if !ok {
		return valuation.Axis[P]{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownParam, spec.Param, strings.Join(m.paramNames(), ", "))
	}
	values, err := spec.Resolve()
	if err != nil {
		return valuation.Axis[P]{}, err
	}
	return valuation.Axis[P]{
		Name:   spec.Param,
		Values: values,
		Apply: func(p P, v float64) P {
			set(&p, v)
			return p
		},
	}, nil
}

func (m model[P]) build(base P, spec GridSpec) (*valuation.Grid, error) {
	for name, v := range spec.Base {
		set, ok := m.params[name]
		if !ok {
			return nil, fmt.Errorf("%w: base %q (want one of %s)", ErrUnknownParam, name, strings.Join(m.paramNames(), ", "))
		}
		set(&base, v)
	}
	if spec.Rows.Param == spec.Cols.Param {
		return nil, fmt.Errorf("%w: rows and cols both sweep %q", ErrInvalidAxis, spec.Rows.Param)
	}
	rows, err := m.axis(spec.Rows)
	if err != nil {
		return nil, err
	}
	cols, err := m.axis(spec.Cols)
	if err != nil {
		return nil, err
	}
	return valuation.BuildGrid(m.valuer, base, rows, cols)
}

func whole(v float64) int { return int(math.Round(v)) }

var bondParams = map[string]setter[valuation.BondInput]{
	"face_value":  func(p *valuation.BondInput, v float64) { p.FaceValue = v },
	"coupon_rate": func(p *valuation.BondInput, v float64) { p.CouponRate = v },
	"yield_rate":  func(p *valuation.BondInput, v float64) { p.YieldRate = v },
}

var bondYearsParams = map[string]setter[valuation.BondYearsInput]{
	"face_value":  func(p *valuation.BondYearsInput, v float64) { p.FaceValue = v },
	"coupon_rate": func(p *valuation.BondYearsInput, v float64) { p.CouponRate = v },
	"yield_rate":  func(p *valuation.BondYearsInput, v float64) { p.YieldRate = v },
	"years":       func(p *valuation.BondYearsInput, v float64) { p.Years = whole(v) },
}

var tvmParams = map[string]setter[valuation.TVMInput]{
	"amount":  func(p *valuation.TVMInput, v float64) { p.Amount = v },
	"rate":    func(p *valuation.TVMInput, v float64) { p.Rate = v },
	"periods": func(p *valuation.TVMInput, v float64) { p.Periods = whole(v) },
}

var ddmParams = map[string]setter[valuation.DividendInput]{
	"last_dividend": func(p *valuation.DividendInput, v float64) { p.LastDividend = v },
	"growth":        func(p *valuation.DividendInput, v float64) { p.Growth = v },
	"discount":      func(p *valuation.DividendInput, v float64) { p.Discount = v },
}

var dcfParams = map[string]setter[valuation.CashFlowInput]{
	"base_cash_flow": func(p *valuation.CashFlowInput, v float64) { p.BaseCashFlow = v },
	"growth":         func(p *valuation.CashFlowInput, v float64) { p.Growth = v },
	"discount":       func(p *valuation.CashFlowInput, v float64) { p.Discount = v },
	"horizon":        func(p *valuation.CashFlowInput, v float64) { p.Horizon = whole(v) },
}

var twoStageParams = map[string]setter[valuation.TwoStageInput]{
	"base_cash_flow":    func(p *valuation.TwoStageInput, v float64) { p.BaseCashFlow = v },
	"discount":          func(p *valuation.TwoStageInput, v float64) { p.Discount = v },
	"high_growth":       func(p *valuation.TwoStageInput, v float64) { p.HighGrowth = v },
	"high_growth_years": func(p *valuation.TwoStageInput, v float64) { p.HighGrowthYears = whole(v) },
	"terminal_growth":   func(p *valuation.TwoStageInput, v float64) { p.TerminalGrowth = v },
	"terminal_years":    func(p *valuation.TwoStageInput, v float64) { p.TerminalYears = whole(v) },
}

// Models lists the accepted model names.
func Models() []string {
	models := []string{"bond", "bond_years", "ddm", "dcf", "dcf_two_stage"}
	for _, c := range valuation.Calculations {
		models = append(models, "tvm:"+string(c))
	}
	return models
}

// =============================================================================
// BUILD
// =============================================================================

// Build validates a spec and computes its grid.
func Build(spec GridSpec) (*valuation.Grid, error) {
	switch spec.Model {
	case "bond":
		base, err := bondBase(spec)
		if err != nil {
			return nil, err
		}
		return model[valuation.BondInput]{valuation.BondPrice, bondParams}.build(base, spec)

	case "bond_years":
		base := valuation.BondYearsInput{FaceValue: 1000, CouponRate: 0.05, YieldRate: 0.05, Years: 10}
		return model[valuation.BondYearsInput]{valuation.BondYearsPrice, bondYearsParams}.build(base, spec)

	case "ddm":
		base := valuation.DividendInput{LastDividend: 1, Growth: 0.03, Discount: 0.08}
		return model[valuation.DividendInput]{valuation.DividendValue, ddmParams}.build(base, spec)

	case "dcf":
		base := valuation.CashFlowInput{BaseCashFlow: 100, Growth: 0.03, Discount: 0.08, Horizon: 5}
		return model[valuation.CashFlowInput]{valuation.IntrinsicValue, dcfParams}.build(base, spec)

	case "dcf_two_stage":
		switch conv := valuation.TerminalConvention(spec.Convention); conv {
		case "", valuation.ConventionFolded, valuation.ConventionDeferred:
		default:
			return nil, fmt.Errorf("terminal convention %q: %w", conv, valuation.ErrInvalidInput)
		}
		base := valuation.TwoStageInput{
			BaseCashFlow: 100, Discount: 0.09, HighGrowth: 0.10, HighGrowthYears: 5,
			TerminalGrowth: 0.03, Convention: valuation.TerminalConvention(spec.Convention),
		}
		return model[valuation.TwoStageInput]{valuation.TwoStageValue, twoStageParams}.build(base, spec)
	}

	if kind, ok := strings.CutPrefix(spec.Model, "tvm:"); ok {
		calc, err := valuation.ParseCalculation(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, spec.Model)
		}
		base := valuation.TVMInput{Kind: calc, Amount: 1000, Rate: 0.05, Periods: 10}
		return model[valuation.TVMInput]{valuation.Evaluate, tvmParams}.build(base, spec)
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownModel, spec.Model, strings.Join(Models(), ", "))
}

func bondBase(spec GridSpec) (valuation.BondInput, error) {
	if spec.Settlement == "" || spec.Maturity == "" {
		return valuation.BondInput{}, fmt.Errorf("bond grid needs settlement and maturity dates: %w", valuation.ErrInvalidInput)
	}
	settlement, err := time.Parse(time.DateOnly, spec.Settlement)
	if err != nil {
		return valuation.BondInput{}, fmt.Errorf("settlement %q: %w", spec.Settlement, valuation.ErrInvalidInput)
	}
	maturity, err := time.Parse(time.DateOnly, spec.Maturity)
	if err != nil {
		return valuation.BondInput{}, fmt.Errorf("maturity %q: %w", spec.Maturity, valuation.ErrInvalidInput)
	}
	freq := valuation.Annual
	if spec.Frequency != "" {
		freq, err = valuation.ParseFrequency(spec.Frequency)
		if err != nil {
			return valuation.BondInput{}, err
		}
	}
	return valuation.BondInput{
		FaceValue:  1000,
		CouponRate: 0.05,
		YieldRate:  0.05,
		Settlement: settlement,
		Maturity:   maturity,
		Frequency:  freq,
	}, nil
}
