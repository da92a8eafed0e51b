// Package render prints engine results as terminal tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/valuation"
)

// NotAvailable is printed for grid cells the valuer could not compute.
const NotAvailable = "n/a"

// AxisFormat controls how axis values are labelled.
type AxisFormat int

const (
	FormatAuto AxisFormat = iota
	FormatPercent
	FormatPlain
)

type Options struct {
	Color     bool
	Title     string
	RowFormat AxisFormat
	ColFormat AxisFormat
}

func newWriter(w io.Writer, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if opts.Title != "" {
		tw.SetTitle(opts.Title)
	}
	return tw
}

// FormatFor picks percent labels for rate-like parameters.
func FormatFor(param string) AxisFormat {
	p := strings.ToLower(param)
	for _, s := range []string{"rate", "growth", "discount", "yield", "coupon"} {
		if strings.Contains(p, s) {
			return FormatPercent
		}
	}
	return FormatPlain
}

// AxisLabel formats one axis value.
func AxisLabel(v float64, f AxisFormat, param string) string {
	if f == FormatAuto {
		f = FormatFor(param)
	}
	if f == FormatPercent {
		return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// GRID
// =============================================================================

// Grid renders a sensitivity grid: one row per row value, one column per
// column value, n/a for invalid cells.
func Grid(w io.Writer, g *valuation.Grid, opts Options) error {
	if g == nil {
		return fmt.Errorf("render: nil grid")
	}
	tw := newWriter(w, opts)

	hdr := make(table.Row, 0, len(g.ColValues)+1)
	hdr = append(hdr, fmt.Sprintf("%s \\ %s", strings.ToUpper(g.RowName), strings.ToUpper(g.ColName)))
	for _, cv := range g.ColValues {
		hdr = append(hdr, AxisLabel(cv, opts.ColFormat, g.ColName))
	}
	tw.AppendHeader(hdr)

	cfgs := make([]table.ColumnConfig, 0, len(g.ColValues))
	for i := range g.ColValues {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)

	rounded := g.Rounded()
	for i, rv := range g.RowValues {
		row := make(table.Row, 0, len(g.ColValues)+1)
		row = append(row, AxisLabel(rv, opts.RowFormat, g.RowName))
		for j := range g.ColValues {
			if d := rounded[i][j]; d != nil {
				row = append(row, d.StringFixed(valuation.MoneyPlaces))
			} else if opts.Color {
				row = append(row, text.Colors{text.FgRed}.Sprint(NotAvailable))
			} else {
				row = append(row, NotAvailable)
			}
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}

// =============================================================================
// FORECAST
// =============================================================================

// Forecast renders the year by year DCF projection followed by its totals.
func Forecast(w io.Writer, res valuation.CashFlowResult, opts Options) error {
	tw := newWriter(w, opts)
	tw.AppendHeader(table.Row{"YEAR", "FREE CASH FLOW", "PRESENT VALUE"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	money := func(v float64) string { return valuation.Round(v).StringFixed(valuation.MoneyPlaces) }
	for i, cf := range res.Forecast {
		tw.AppendRow(table.Row{i + 1, money(cf), money(res.PresentValues[i])})
	}
	tw.AppendSeparator()
	tw.AppendRow(table.Row{"Terminal", money(res.TerminalValue), money(res.PVTerminal)})
	tw.AppendFooter(table.Row{"Intrinsic value", "", money(res.IntrinsicValue)})
	tw.Render()
	return nil
}

// =============================================================================
// LEADERBOARD
// =============================================================================

// Leaderboard renders records in the order given.
func Leaderboard(w io.Writer, records []leaderboard.Record, opts Options) error {
	tw := newWriter(w, opts)
	tw.AppendHeader(table.Row{"#", "NAME", "KIND", "CALCULATION", "INPUT", "RESULT", "RATE", "PERIODS", "ERROR", "STATUS"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 9, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	for i, r := range records {
		var errStr, status string
		if r.Score != nil {
			errStr = r.Score.Error.StringFixed(valuation.MoneyPlaces)
			status = string(r.Score.Status)
			if opts.Color {
				if r.Score.Status == valuation.StatusUndervalued {
					status = text.Colors{text.FgGreen}.Sprint(status)
				} else {
					status = text.Colors{text.FgRed}.Sprint(status)
				}
			}
		}
		tw.AppendRow(table.Row{
			i + 1, r.Name, string(r.Kind), r.Calculation,
			r.InputValue.StringFixed(valuation.MoneyPlaces),
			r.Result.StringFixed(valuation.MoneyPlaces),
			r.Rate.String(), r.Periods, errStr, status,
		})
	}
	tw.Render()
	return nil
}
