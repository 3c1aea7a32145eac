package knapsack

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amorim-cjs/GHOST/cmd/options"
	"github.com/amorim-cjs/GHOST/pkg/ghost"
	"github.com/amorim-cjs/GHOST/pkg/solver"
)

func NewKnapsackCommand() *cobra.Command {
	var optimize bool

	cmd := &cobra.Command{
		Use:   "knapsack",
		Short: "Solves a small knapsack model",
		Long: `Packs water bottles (1kg, value 500) and sandwiches (1.25kg, value 650)
into a 30kg knapsack. Without --optimize the run stops at any packing
worth at least 15000; with it, the total value is maximized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return solve(options.FromViper(), optimize)
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", false, "maximize the packed value instead of stopping at 15000")
	return cmd
}

func solve(opts options.Solve, optimize bool) error {
	bottle, err := ghost.NewVariableRange("bottle", 0, 51)
	if err != nil {
		return err
	}
	sandwich, err := ghost.NewVariableRange("sandwich", 0, 11)
	if err != nil {
		return err
	}

	capacity := ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
		weight := 1.0*float64(values[0]) + 1.25*float64(values[1])
		if weight <= 30 {
			return 0
		}
		return weight - 30
	})

	value := func(values []int) float64 {
		return 500*float64(values[0]) + 650*float64(values[1])
	}

	solverOpts, err := opts.SolverOptions()
	if err != nil {
		return err
	}
	solverOpts = append(solverOpts,
		solver.WithVariables(bottle, sandwich),
	)

	if optimize {
		solverOpts = append(solverOpts,
			solver.WithConstraints(capacity),
			// maximization modeled as negated minimization
			solver.WithObjective(ghost.NewObjective([]int{0, 1}, func(values []int) float64 {
				return -value(values)
			})),
		)
	} else {
		atLeast := ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
			if v := value(values); v < 15000 {
				return 15000 - v
			}
			return 0
		})
		solverOpts = append(solverOpts, solver.WithConstraints(capacity, atLeast))
	}

	s, err := solver.NewSolver(solverOpts...)
	if err != nil {
		return err
	}

	result, err := s.Solve(context.Background(), opts.Timeout)
	if err != nil {
		return err
	}

	if !result.Found {
		fmt.Printf("no packing found within %s (best error %.2f)\n", opts.Timeout, result.Cost)
		return nil
	}
	fmt.Printf("bottles=%d sandwiches=%d", result.Solution[0], result.Solution[1])
	if optimize {
		fmt.Printf(" value=%.0f", result.Cost)
	}
	fmt.Printf(" (%d iterations in %s)\n", result.Iterations, result.Elapsed)
	return nil
}
