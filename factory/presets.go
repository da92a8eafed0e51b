package factory

import "sort"

// =============================================================================
// PRESETS - Ready-made grids for the calculators' default views
// =============================================================================

var presets = map[string]GridSpec{
	// Growth 1%..10% against discount 5%..15%, ten points each.
	"dcf-default": {
		Name:  "dcf-default",
		Model: "dcf",
		Base:  map[string]float64{"base_cash_flow": 100, "horizon": 5},
		Rows:  AxisSpec{Param: "growth", Linspace: &LinspaceSpec{Start: 0.01, Stop: 0.10, Count: 10}},
		Cols:  AxisSpec{Param: "discount", Linspace: &LinspaceSpec{Start: 0.05, Stop: 0.15, Count: 10}},
	},
	"bond-yield-coupon": {
		Name:  "bond-yield-coupon",
		Model: "bond_years",
		Base:  map[string]float64{"face_value": 1000, "years": 10},
		Rows:  AxisSpec{Param: "yield_rate", Range: &RangeSpec{Start: 0.02, Stop: 0.10, Step: 0.01}},
		Cols:  AxisSpec{Param: "coupon_rate", Range: &RangeSpec{Start: 0.02, Stop: 0.08, Step: 0.01}},
	},
	"tvm-rate-years": {
		Name:  "tvm-rate-years",
		Model: "tvm:future_value",
		Base:  map[string]float64{"amount": 1000},
		Rows:  AxisSpec{Param: "rate", Range: &RangeSpec{Start: 0.01, Stop: 0.10, Step: 0.01}},
		Cols:  AxisSpec{Param: "periods", Values: []float64{1, 5, 10, 15, 20, 25, 30}},
	},
	"ddm-growth-discount": {
		Name:  "ddm-growth-discount",
		Model: "ddm",
		Base:  map[string]float64{"last_dividend": 2},
		Rows:  AxisSpec{Param: "growth", Range: &RangeSpec{Start: 0.01, Stop: 0.06, Step: 0.01}},
		Cols:  AxisSpec{Param: "discount", Range: &RangeSpec{Start: 0.05, Stop: 0.12, Step: 0.01}},
	},
}

// Preset returns a copy of a named preset.
func Preset(name string) (GridSpec, bool) {
	p, ok := presets[name]
	if !ok {
		return GridSpec{}, false
	}
	base := make(map[string]float64, len(p.Base))
	for k, v := range p.Base {
		base[k] = v
	}
	p.Base = base
	return p, true
}

// PresetNames lists the presets alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
