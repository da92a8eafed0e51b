/*
main.go - Command-line calculators

PURPOSE:
  Runs the valuation calculators from a terminal and prints the results as
  tables. Every flag can also be set through the environment as
  VALUATE_<FLAG>, with dashes turned into underscores
  (VALUATE_MARKET_PRICE=101.5).

COMMANDS:
  valuate tvm         Time value conversions (rate drawn from a scenario if unset)
  valuate bond        Bond price from dates or whole years
  valuate ddm         Constant-growth dividend discount model
  valuate dcf         Single or two-stage discounted cash flow with forecast table
  valuate grid        Sensitivity grid from a YAML/JSON spec or a preset
  valuate scenarios   Economic scenario catalogue
  valuate leaderboard Stored leaderboard (SQLite)

LEADERBOARD:
  --submit NAME on tvm, bond, ddm and dcf stores the result under NAME in
  the database given by --db.

SEE ALSO:
  - render/render.go: Table output
  - factory/grid.go: Grid spec format
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "valuate",
		Short:         "Bond, time value, dividend and cash flow calculators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			viper.SetEnvPrefix("VALUATE")
			viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			viper.AutomaticEnv()
			return viper.BindPFlags(cmd.Flags())
		},
	}

	root.PersistentFlags().Bool("color", false, "colored table output")
	root.PersistentFlags().String("db", "valuation.db", "SQLite database for the leaderboard")

	root.AddCommand(
		newTVMCmd(),
		newBondCmd(),
		newDDMCmd(),
		newDCFCmd(),
		newGridCmd(),
		newScenariosCmd(),
		newLeaderboardCmd(),
	)
	return root
}
