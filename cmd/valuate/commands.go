package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/valuation-engine/factory"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/render"
	"github.com/warp/valuation-engine/scenario"
	"github.com/warp/valuation-engine/store/sqlite"
	"github.com/warp/valuation-engine/valuation"
)

func options(title string) render.Options {
	return render.Options{Color: viper.GetBool("color"), Title: title}
}

func newRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1))
}

// =============================================================================
// TVM
// =============================================================================

func newTVMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tvm",
		Short: "Future and present value of a sum or an annuity",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rate := viper.GetFloat64("rate")
			if !viper.IsSet("rate") {
				drawn, err := drawScenario(viper.GetString("scenario"))
				if err != nil {
					return err
				}
				rate = drawn.Rate
				fmt.Fprintf(out, "%s: %s\nRate drawn: %s\n\n", drawn.Name, drawn.News, render.AxisLabel(rate, render.FormatPercent, "rate"))
			}

			kinds := valuation.Calculations
			if k := viper.GetString("kind"); k != "" {
				calc, err := valuation.ParseCalculation(k)
				if err != nil {
					return err
				}
				kinds = []valuation.Calculation{calc}
			}

			amount, periods := viper.GetFloat64("amount"), viper.GetInt("periods")
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Calculation", "Value"})
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
			var last float64
			for _, calc := range kinds {
				v, err := valuation.Evaluate(valuation.TVMInput{Kind: calc, Amount: amount, Rate: rate, Periods: periods})
				if err != nil {
					return fmt.Errorf("%s: %w", calc.Label(), err)
				}
				tw.AppendRow(table.Row{calc.Label(), valuation.Round(v).StringFixed(valuation.MoneyPlaces)})
				last = v
			}
			tw.Render()

			if len(kinds) == 1 {
				return submit(cmd.Context(), out, leaderboard.Submission{
					Kind: leaderboard.KindTVM, Calculation: string(kinds[0]),
					InputValue: amount, Result: last, Periods: periods, Rate: rate,
				})
			}
			return nil
		},
	}
	cmd.Flags().Float64("amount", 1000, "present value, future value or payment")
	cmd.Flags().Float64("rate", 0, "periodic rate (decimal); drawn from --scenario when unset")
	cmd.Flags().Int("periods", 10, "number of periods")
	cmd.Flags().String("kind", "", "one calculation (future_value, present_value, future_value_annuity, present_value_annuity)")
	cmd.Flags().String("scenario", "random", "scenario to draw the rate from")
	cmd.Flags().String("submit", "", "store a single-calculation result on the leaderboard under this name")
	return cmd
}

func drawScenario(name string) (scenario.Drawn, error) {
	rng := newRand()
	if name == "" || name == "random" {
		return scenario.Draw(rng), nil
	}
	s, err := scenario.Lookup(name)
	if err != nil {
		return scenario.Drawn{}, err
	}
	return scenario.DrawFrom(rng, s), nil
}

// =============================================================================
// BOND
// =============================================================================

func newBondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Price a coupon bond from dates (--settlement/--maturity) or whole years (--years)",
		RunE: func(cmd *cobra.Command, args []string) error {
			face, coupon, yield := viper.GetFloat64("face"), viper.GetFloat64("coupon"), viper.GetFloat64("yield")

			var res valuation.BondResult
			var err error
			if years := viper.GetInt("years"); years > 0 {
				res, err = valuation.PriceBondYears(valuation.BondYearsInput{FaceValue: face, CouponRate: coupon, YieldRate: yield, Years: years})
			} else {
				res, err = priceDatedBond(face, coupon, yield)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bond price: %s (%d payments of %s, %.4f years)\n",
				res.Price.StringFixed(valuation.MoneyPlaces), res.Payments,
				valuation.Round(res.CouponPayment).StringFixed(valuation.MoneyPlaces), res.Years)
			printComparison(out, res.Unrounded)

			return submit(cmd.Context(), out, leaderboard.Submission{
				Kind: leaderboard.KindBond, Calculation: "bond_price",
				InputValue: face, Result: res.Unrounded, Periods: res.Payments, Rate: yield,
			})
		},
	}
	cmd.Flags().Float64("face", 1000, "face value")
	cmd.Flags().Float64("coupon", 0.05, "annual coupon rate (decimal)")
	cmd.Flags().Float64("yield", 0.05, "annual yield (decimal)")
	cmd.Flags().Int("years", 0, "whole years of annual coupons left")
	cmd.Flags().String("settlement", "", "settlement date YYYY-MM-DD")
	cmd.Flags().String("maturity", "", "maturity date YYYY-MM-DD")
	cmd.Flags().String("frequency", "annual", "annual, semiannual or quarterly")
	cmd.Flags().Float64("market-price", 0, "compare against this price")
	cmd.Flags().String("submit", "", "store the result on the leaderboard under this name")
	return cmd
}

func priceDatedBond(face, coupon, yield float64) (valuation.BondResult, error) {
	settlement, err := time.Parse(time.DateOnly, viper.GetString("settlement"))
	if err != nil {
		return valuation.BondResult{}, fmt.Errorf("--settlement: %w", err)
	}
	maturity, err := time.Parse(time.DateOnly, viper.GetString("maturity"))
	if err != nil {
		return valuation.BondResult{}, fmt.Errorf("--maturity: %w", err)
	}
	freq, err := valuation.ParseFrequency(viper.GetString("frequency"))
	if err != nil {
		return valuation.BondResult{}, err
	}
	return valuation.PriceBond(valuation.BondInput{
		FaceValue: face, CouponRate: coupon, YieldRate: yield,
		Settlement: settlement, Maturity: maturity, Frequency: freq,
	})
}

// =============================================================================
// DDM
// =============================================================================

func newDDMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddm",
		Short: "Constant-growth dividend discount model",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := valuation.DividendInput{
				LastDividend: viper.GetFloat64("dividend"),
				Growth:       viper.GetFloat64("growth"),
				Discount:     viper.GetFloat64("discount"),
			}
			if viper.IsSet("beta") {
				in.Discount = valuation.CostOfEquity(viper.GetFloat64("risk-free"), viper.GetFloat64("beta"), viper.GetFloat64("market-return"))
			}
			value, err := valuation.DividendValue(in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Intrinsic value: %s (D0 %.2f, g %s, R %s)\n",
				valuation.Round(value).StringFixed(valuation.MoneyPlaces), in.LastDividend,
				render.AxisLabel(in.Growth, render.FormatPercent, "growth"),
				render.AxisLabel(in.Discount, render.FormatPercent, "discount"))
			printComparison(out, value, in.LastDividend)

			return submit(cmd.Context(), out, leaderboard.Submission{
				Kind: leaderboard.KindDDM, Calculation: "dividend_value",
				InputValue: in.LastDividend, Result: value, Rate: in.Discount,
			})
		},
	}
	cmd.Flags().Float64("dividend", 1, "most recent dividend D0")
	cmd.Flags().Float64("growth", 0.03, "dividend growth rate (decimal)")
	cmd.Flags().Float64("discount", 0.08, "required return (decimal)")
	cmd.Flags().Float64("beta", 0, "derive the required return from CAPM with this beta")
	cmd.Flags().Float64("risk-free", 0.03, "risk-free rate for CAPM")
	cmd.Flags().Float64("market-return", 0.08, "expected market return for CAPM")
	cmd.Flags().Float64("market-price", 0, "compare against this price")
	cmd.Flags().String("submit", "", "store the result on the leaderboard under this name")
	return cmd
}

// =============================================================================
// DCF
// =============================================================================

func newDCFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dcf",
		Short: "Discounted free cash flow; set --terminal-years for two stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := valuation.TwoStage(valuation.TwoStageInput{
				BaseCashFlow:    viper.GetFloat64("base"),
				Discount:        viper.GetFloat64("discount"),
				HighGrowth:      viper.GetFloat64("growth"),
				HighGrowthYears: viper.GetInt("horizon"),
				TerminalGrowth:  viper.GetFloat64("terminal-growth"),
				TerminalYears:   viper.GetInt("terminal-years"),
				Convention:      valuation.TerminalConvention(viper.GetString("convention")),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := render.Forecast(out, res, options("Free cash flow forecast")); err != nil {
				return err
			}
			printComparison(out, res.IntrinsicValue)

			return submit(cmd.Context(), out, leaderboard.Submission{
				Kind: leaderboard.KindDCF, Calculation: "intrinsic_value",
				InputValue: viper.GetFloat64("base"), Result: res.IntrinsicValue,
				Periods: viper.GetInt("horizon"), Rate: viper.GetFloat64("discount"),
			})
		},
	}
	cmd.Flags().Float64("base", 100, "current free cash flow FCF0")
	cmd.Flags().Float64("growth", 0.03, "forecast growth rate (decimal)")
	cmd.Flags().Float64("discount", 0.08, "discount rate / WACC (decimal)")
	cmd.Flags().Int("horizon", 5, "forecast years")
	cmd.Flags().Float64("terminal-growth", 0, "terminal growth rate for the second stage")
	cmd.Flags().Int("terminal-years", 0, "second stage years (0 = single stage)")
	cmd.Flags().String("convention", "folded", "terminal discounting: folded or deferred")
	cmd.Flags().Float64("market-price", 0, "compare against this price")
	cmd.Flags().String("submit", "", "store the result on the leaderboard under this name")
	return cmd
}

// =============================================================================
// GRID
// =============================================================================

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Sensitivity grid from --file (YAML or JSON) or --preset",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := loadSpec(viper.GetString("file"), viper.GetString("preset"))
			if err != nil {
				return err
			}
			grid, err := factory.Build(spec)
			if err != nil {
				return err
			}
			title := spec.Name
			if title == "" {
				title = spec.Model
			}
			return render.Grid(cmd.OutOrStdout(), grid, options(title))
		},
	}
	cmd.Flags().String("file", "", "grid spec file (.yaml, .yml or .json)")
	cmd.Flags().String("preset", "dcf-default", "preset name when --file is not given")
	return cmd
}

func loadSpec(file, preset string) (factory.GridSpec, error) {
	if file != "" {
		return factory.Load(file)
	}
	spec, ok := factory.Preset(preset)
	if !ok {
		return factory.GridSpec{}, fmt.Errorf("unknown preset %q (want one of %v)", preset, factory.PresetNames())
	}
	return spec, nil
}

// =============================================================================
// SCENARIOS / LEADERBOARD
// =============================================================================

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the economic scenarios rates are drawn from",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"ID", "Scenario", "Rates", "News"})
			for _, s := range scenario.All() {
				tw.AppendRow(table.Row{s.ID, s.Name,
					render.AxisLabel(s.MinRate, render.FormatPercent, "rate") + " - " + render.AxisLabel(s.MaxRate, render.FormatPercent, "rate"),
					s.News})
			}
			tw.Render()
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the stored leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := leaderboard.ParseSortKey(viper.GetString("sort"))
			if err != nil {
				return err
			}
			store, err := sqlite.New(viper.GetString("db"))
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := leaderboard.NewBoard(store).List(cmd.Context(), key)
			if err != nil {
				return err
			}
			return render.Leaderboard(cmd.OutOrStdout(), records, options("Leaderboard"))
		},
	}
	cmd.Flags().String("sort", "created", "result, error or created")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

func printComparison(out io.Writer, estimate float64, dividends ...float64) {
	if !viper.IsSet("market-price") {
		return
	}
	price := viper.GetFloat64("market-price")
	cmp, err := valuation.CompareSnapshot(valuation.MarketSnapshot{Price: &price, Dividends: dividends}, estimate)
	if err != nil {
		fmt.Fprintf(out, "Market price %.2f ignored: %v\n", price, err)
		return
	}
	fmt.Fprintf(out, "Market price %.2f: %s (capital gains yield %s)\n",
		price, cmp.Status, render.AxisLabel(cmp.CapitalGainsYield, render.FormatPercent, "yield"))
	if cmp.DividendYield != nil {
		fmt.Fprintf(out, "Dividend yield %s, expected total return %s\n",
			render.AxisLabel(*cmp.DividendYield, render.FormatPercent, "yield"),
			render.AxisLabel(*cmp.ExpectedTotalReturn, render.FormatPercent, "yield"))
	}
}

// submit stores s under --submit when it is set.
func submit(ctx context.Context, out io.Writer, s leaderboard.Submission) error {
	name := viper.GetString("submit")
	if name == "" {
		return nil
	}
	store, err := sqlite.New(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	s.Name = name
	rec, err := leaderboard.NewBoard(store).Submit(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted %s for %s\n", rec.Result.StringFixed(valuation.MoneyPlaces), rec.Name)
	return nil
}
