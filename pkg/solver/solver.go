// Package solver exposes the public face of the GHOST local-search
// engine: build a Solver from a model with NewSolver, then run it under
// a wall-clock budget with Solve.
package solver

import (
	"context"
	"time"

	"github.com/amorim-cjs/GHOST/internal/engine"
	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

// Result is the outcome of a Solve call. Found reports whether every
// constraint was satisfied. Cost is the objective cost for optimization
// problems that reached satisfaction (reported positive even when
// maximization is modeled as negated minimization) and the best
// satisfaction error otherwise. Solution
// holds the best value found for each variable, in model order.
type Result struct {
	Found      bool
	Cost       float64
	Solution   []int
	Iterations int
	Elapsed    time.Duration
}

// Solver runs the local search. A single Solver is not safe for
// concurrent Solve calls; it owns its variables and random stream.
type Solver interface {
	Solve(ctx context.Context, timeout time.Duration) (Result, error)
	Variables() []ghost.Variable
}

type ghostSolver struct {
	eng *engine.Engine
}

// Option configures a Solver under construction.
type Option func(*engine.Config) error

// WithVariables sets the model's variables. Their positions are the
// ids constraint scopes refer to.
func WithVariables(vars ...ghost.Variable) Option {
	return func(cfg *engine.Config) error {
		cfg.Variables = vars
		return nil
	}
}

// WithConstraints sets the model's constraints.
func WithConstraints(constraints ...ghost.Constraint) Option {
	return func(cfg *engine.Config) error {
		cfg.Constraints = constraints
		return nil
	}
}

// WithObjective sets the objective to minimize once satisfaction is
// reached, turning the run into an optimization problem.
func WithObjective(o ghost.Objective) Option {
	return func(cfg *engine.Config) error {
		cfg.Objective = o
		return nil
	}
}

// WithPermutationMode makes moves swap values between variables instead
// of assigning from the domain; the assignment stays a permutation of
// the initial values.
func WithPermutationMode() Option {
	return func(cfg *engine.Config) error {
		cfg.Permutation = true
		return nil
	}
}

// WithSeed fixes the random stream. Two runs with the same seed, model
// and iteration budget replay the same moves.
func WithSeed(seed int64) Option {
	return func(cfg *engine.Config) error {
		cfg.Seed = seed
		return nil
	}
}

// WithSamplings sets how many starting configurations each restart
// draws before keeping the best one. Default 10.
func WithSamplings(n int) Option {
	return func(cfg *engine.Config) error {
		cfg.Samplings = n
		return nil
	}
}

// WithNoRandomStart keeps the caller-provided assignment as the first
// starting point instead of sampling one. Later restarts sample as
// usual.
func WithNoRandomStart() Option {
	return func(cfg *engine.Config) error {
		cfg.NoRandomStart = true
		return nil
	}
}

// WithMaxIterations bounds the outer loop by iteration count in
// addition to the wall clock, making seeded runs reproducible across
// machines.
func WithMaxIterations(n int) Option {
	return func(cfg *engine.Config) error {
		cfg.MaxIterations = n
		return nil
	}
}

// WithTracer observes the search.
func WithTracer(t ghost.Tracer) Option {
	return func(cfg *engine.Config) error {
		cfg.Tracer = t
		return nil
	}
}

// NewSolver validates the model and builds a Solver. Modeling misuse
// (no variables, an empty domain, a scope referencing an unknown
// variable id) is reported here.
func NewSolver(options ...Option) (Solver, error) {
	var cfg engine.Config
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &ghostSolver{eng: eng}, nil
}

func (s *ghostSolver) Solve(ctx context.Context, timeout time.Duration) (Result, error) {
	r, err := s.eng.Solve(ctx, timeout)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Found:      r.Found,
		Cost:       r.Cost,
		Solution:   r.Solution,
		Iterations: r.Iterations,
		Elapsed:    r.Elapsed,
	}, nil
}

func (s *ghostSolver) Variables() []ghost.Variable {
	return s.eng.Variables()
}
