package root

import (
	"github.com/spf13/cobra"

	"github.com/amorim-cjs/GHOST/cmd/dimacs"
	"github.com/amorim-cjs/GHOST/cmd/knapsack"
	"github.com/amorim-cjs/GHOST/cmd/options"
	"github.com/amorim-cjs/GHOST/cmd/queens"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ghost",
		Short: "GHOST is a metaheuristic solver for CSP and COP models",
		Long: `A metaheuristic solver for constraint satisfaction and constrained
optimization problems over finite-domain integer variables, tuned for
sub-second budgets.`,
	}

	options.Bind(rootCmd)

	// add sub-commands
	rootCmd.AddCommand(knapsack.NewKnapsackCommand())
	rootCmd.AddCommand(queens.NewQueensCommand())
	rootCmd.AddCommand(dimacs.NewDimacsCommand())

	return rootCmd
}
