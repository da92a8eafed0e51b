package render_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/render"
	"github.com/warp/valuation-engine/valuation"
)

func TestGrid_LabelsAndInvalidCells(t *testing.T) {
	base := valuation.CashFlowInput{BaseCashFlow: 100, Growth: 0.03, Discount: 0.08, Horizon: 5}
	grid, err := valuation.BuildGrid(valuation.IntrinsicValue, base,
		valuation.DCFGrowthAxis([]float64{0.02, 0.03}),
		valuation.DCFDiscountAxis([]float64{0.03, 0.08}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, render.Grid(&buf, grid, render.Options{}))
	out := buf.String()

	assert.Contains(t, out, "GROWTH \\ DISCOUNT")
	assert.Contains(t, out, "3.00%")
	assert.Contains(t, out, "8.00%")
	assert.Contains(t, out, render.NotAvailable)
	assert.Contains(t, out, valuation.Round(grid.Cells[0][1].Value).StringFixed(2))
}

func TestGrid_Nil(t *testing.T) {
	assert.Error(t, render.Grid(&bytes.Buffer{}, nil, render.Options{}))
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "5.00%", render.AxisLabel(0.05, render.FormatAuto, "yield_rate"))
	assert.Equal(t, "10", render.AxisLabel(10, render.FormatAuto, "periods"))
	assert.Equal(t, "0.05", render.AxisLabel(0.05, render.FormatPlain, "growth"))
	assert.Equal(t, "250.00%", render.AxisLabel(2.5, render.FormatPercent, "years"))
}

func TestForecast(t *testing.T) {
	res, err := valuation.DiscountedCashFlow(valuation.CashFlowInput{BaseCashFlow: 100, Growth: 0.03, Discount: 0.08, Horizon: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, render.Forecast(&buf, res, render.Options{Title: "ACME"}))
	out := buf.String()
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "103.00")
	assert.Contains(t, out, "Terminal")
	assert.Contains(t, out, "INTRINSIC VALUE")
	assert.Contains(t, out, valuation.Round(res.IntrinsicValue).StringFixed(2))
}

func TestLeaderboard(t *testing.T) {
	records := []leaderboard.Record{
		{
			Name: "Ada", Kind: leaderboard.KindDCF, Calculation: "intrinsic_value",
			InputValue: decimal.RequireFromString("100"), Result: decimal.RequireFromString("120.5"),
			Rate: decimal.Zero, CreatedAt: time.Now(),
			Score: leaderboard.ScorePrediction(120.5, 100),
		},
		{
			Name: "Grace", Kind: leaderboard.KindTVM, Calculation: "future_value",
			InputValue: decimal.RequireFromString("1000"), Result: decimal.RequireFromString("1628.89"),
			Rate: decimal.RequireFromString("0.05"), Periods: 10, CreatedAt: time.Now(),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, render.Leaderboard(&buf, records, render.Options{}))
	out := buf.String()
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "20.50")
	assert.Contains(t, out, string(valuation.StatusUndervalued))
	assert.Contains(t, out, "1628.89")
	assert.Contains(t, out, "0.05")
}
