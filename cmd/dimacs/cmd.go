package dimacs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/spf13/cobra"

	"github.com/amorim-cjs/GHOST/cmd/options"
	"github.com/amorim-cjs/GHOST/pkg/ghost"
	"github.com/amorim-cjs/GHOST/pkg/solver"
)

func NewDimacsCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "solve <path>",
		Short: "Searches for a model of a sat problem given in dimacs format",
		Long: `Searches for a model of a sat problem given in dimacs format, with one
boolean variable per CNF variable and one constraint per clause whose
error is 1 while the clause is unsatisfied. For instance:
c
c this is a comment
c header: p cnf <number of variable> <number of clauses>
p cnf 2 2
c clauses end in zero, negative means 'not'
c 0 (zero) is not a valid literal
1 2 0
1 -2 0
c cnf: (1 or 2) and (1 or not 2)

The search is incomplete: a run ending without a model proves nothing.
With --check, an exhausted budget is followed by a complete solver pass
to tell a timeout apart from unsatisfiability.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return solve(options.FromViper(), args[0], check)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "on failure, decide satisfiability with a complete solver")
	return cmd
}

func solve(opts options.Solve, path string, check bool) error {
	// open dimacs file
	dimacsFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening dimacs file (%s): %w", path, err)
	}
	defer dimacsFile.Close()

	dimacs, err := NewDimacs(dimacsFile)
	if err != nil {
		return fmt.Errorf("error parsing dimacs file (%s): %w", path, err)
	}

	s, err := newSolver(opts, dimacs)
	if err != nil {
		return err
	}

	result, err := s.Solve(context.Background(), opts.Timeout)
	if err != nil {
		return err
	}

	if result.Found {
		fmt.Println("model found:")
		for i, v := range result.Solution {
			fmt.Printf("%d = %t\n", i+1, v == 1)
		}
		return nil
	}

	fmt.Printf("no model found within %s (%.0f clauses unsatisfied)\n", opts.Timeout, result.Cost)
	if check {
		switch decide(dimacs) {
		case 1:
			fmt.Println("complete check: satisfiable, the budget was too small")
		case -1:
			fmt.Println("complete check: unsatisfiable")
		default:
			fmt.Println("complete check: undecided")
		}
	}
	return nil
}

func newSolver(opts options.Solve, dimacs *Dimacs) (solver.Solver, error) {
	vars := make([]ghost.Variable, dimacs.NumVariables())
	for i := range vars {
		v, err := ghost.NewVariable(fmt.Sprintf("x%d", i+1), []int{0, 1})
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}

	constraints := make([]ghost.Constraint, 0, len(dimacs.Clauses()))
	for _, clause := range dimacs.Clauses() {
		constraints = append(constraints, clauseConstraint(clause))
	}

	solverOpts, err := opts.SolverOptions()
	if err != nil {
		return nil, err
	}
	solverOpts = append(solverOpts,
		solver.WithVariables(vars...),
		solver.WithConstraints(constraints...),
	)
	return solver.NewSolver(solverOpts...)
}

// clauseConstraint scores 1 while no literal of the clause holds. The
// scope lists each variable once even when the clause repeats it.
func clauseConstraint(clause []int) ghost.Constraint {
	scope := make([]int, 0, len(clause))
	pos := make(map[int]int, len(clause))
	for _, lit := range clause {
		id := lit
		if id < 0 {
			id = -id
		}
		id-- // clause literals are 1-based
		if _, ok := pos[id]; !ok {
			pos[id] = len(scope)
			scope = append(scope, id)
		}
	}

	lits := append([]int(nil), clause...)
	return ghost.NewConstraint(scope, func(values []int) float64 {
		for _, lit := range lits {
			id := lit
			if id < 0 {
				id = -id
			}
			v := values[pos[id-1]]
			if (lit > 0 && v == 1) || (lit < 0 && v == 0) {
				return 0
			}
		}
		return 1
	})
}

// decide runs the complete solver over the CNF: 1 satisfiable, -1
// unsatisfiable, 0 undecided.
func decide(dimacs *Dimacs) int {
	g := gini.New()
	for _, clause := range dimacs.Clauses() {
		for _, lit := range clause {
			g.Add(z.Dimacs2Lit(lit))
		}
		g.Add(z.LitNull)
	}
	return g.Solve()
}
