package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

// Result is the outcome of a Solve call. Found reports whether a
// configuration satisfying every constraint was reached; Cost and
// Solution always describe the best configuration seen, solved or not.
type Result struct {
	Found      bool
	Cost       float64
	Solution   []int
	Iterations int
	Elapsed    time.Duration
}

// Solve runs the search under the given wall-clock budget. A run that
// ends without satisfying every constraint is not an error: it returns
// Found == false together with the best configuration. Errors are
// reserved for broken user callbacks (NaN costs).
func (e *Engine) Solve(ctx context.Context, timeout time.Duration) (Result, error) {
	start := time.Now()
	info := ghost.RunInfo{
		ID:           uuid.New(),
		Variables:    len(e.vars),
		Constraints:  len(e.constraints),
		Optimization: e.isOptimization,
		Permutation:  e.permutation,
	}
	e.tracer.SolveStarted(info)

	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)

	if err := e.restart(true); err != nil {
		return Result{}, err
	}

	iterations := 0
	for e.withinBudget(ctx, start, timeout, iterations) && (e.bestSat > 0 || e.isOptimization) {
		iterations++
		e.decayWeakTabu()

		worst := e.worstVariables()
		v := worst[e.rng.Intn(len(worst))]

		var err error
		if e.permutation {
			err = e.stepPermutation(iterations, v)
		} else {
			err = e.stepStandard(iterations, v)
		}
		if err != nil {
			return Result{}, err
		}
	}

	found, cost := e.finalize()
	elapsed := time.Since(start)
	e.tracer.SolveFinished(info, found, cost, elapsed, iterations)

	solution := make([]int, len(e.best))
	copy(solution, e.best)
	return Result{
		Found:      found,
		Cost:       cost,
		Solution:   solution,
		Iterations: iterations,
		Elapsed:    elapsed,
	}, nil
}

func (e *Engine) withinBudget(ctx context.Context, start time.Time, timeout time.Duration, iterations int) bool {
	if ctx.Err() != nil {
		return false
	}
	if e.maxIterations > 0 && iterations >= e.maxIterations {
		return false
	}
	return time.Since(start) < timeout
}

// stepStandard performs one outer iteration in standard mode: evaluate
// the picked variable's domain, then apply, walk or restart.
func (e *Engine) stepStandard(iteration, v int) error {
	bestDelta, candidates, deltas := e.evaluateMoves(v)
	k := e.chooseValue(v, candidates)
	x := candidates[k]

	apply := func() {
		e.applyMove(v, x, deltas[k], bestDelta)
		e.markTabu(v, bestDelta)
		e.tracer.MoveApplied(iteration, v, x, bestDelta)
	}
	return e.decide(iteration, bestDelta, apply)
}

// stepPermutation performs one outer iteration in permutation mode:
// evaluate every swap partner, then apply, walk or restart.
func (e *Engine) stepPermutation(iteration, v int) error {
	bestDelta, partners, deltas := e.evaluateSwaps(v)
	if len(partners) == 0 {
		return e.restart(false)
	}
	k := e.choosePartner(partners)
	u := partners[k]

	apply := func() {
		e.applySwap(v, u, deltas[k], bestDelta)
		e.markTabu(v, bestDelta)
		e.tracer.MoveApplied(iteration, v, e.vars[v].Value(), bestDelta)
	}
	return e.decide(iteration, bestDelta, apply)
}

// decide implements the move-acceptance policy shared by both modes:
// worsening moves restart, moves reaching satisfaction hand off to the
// objective, plateaus walk or restart stochastically, improving moves
// apply.
func (e *Engine) decide(iteration int, bestDelta float64, apply func()) error {
	switch {
	case bestDelta > 0:
		return e.restart(false)

	case e.isOptimization && e.currentSat+bestDelta <= satTolerance:
		apply()
		c := e.objective.Cost()
		if math.IsNaN(c) {
			return ghost.NaNCostError{Source: "objective cost"}
		}
		switch {
		case c < e.currentOpt:
			e.currentOpt = c
			if c < e.bestOpt {
				e.bestOpt = c
				e.snapshotBest()
				if pp, ok := e.objective.(ghost.SatPostprocessor); ok {
					e.best, e.bestOpt = pp.PostprocessSatisfaction(e.best, e.bestOpt)
				}
				e.tracer.SolutionImproved(iteration, e.currentSat, e.bestOpt)
			}
		case c == e.currentOpt:
			if e.rng.Float64() < plateauRestartProbability {
				return e.restart(false)
			}
		default:
			return e.restart(false)
		}
		return nil

	case bestDelta == 0:
		if e.rng.Float64() < plateauRestartProbability {
			return e.restart(false)
		}
		apply()
		return nil

	default:
		apply()
		if e.currentSat < e.bestSat {
			e.snapshotBest()
			e.tracer.SolutionImproved(iteration, e.currentSat, e.currentOpt)
		}
		return nil
	}
}

// restart reseeds the search: fresh tabu state, a sampled starting
// configuration (kept on the very first entry when the caller asked to
// start from the current assignment) and a full rebuild of the error
// vectors. Global best tracking survives restarts.
func (e *Engine) restart(first bool) error {
	e.currentOpt = math.Inf(1)
	for v := range e.weakTabu {
		e.weakTabu[v] = 0
	}

	if !first || !e.noRandomStart {
		e.setInitialConfiguration(e.samplings)
	}

	e.broadcast()
	if err := e.computeConstraintErrors(); err != nil {
		return err
	}
	e.computeVariableErrors()
	e.refreshNonTabu()
	e.freeVariables = true

	if e.currentSat < e.bestSat {
		e.snapshotBest()
	}
	if e.isOptimization && e.currentSat == 0 {
		c := e.objective.Cost()
		if math.IsNaN(c) {
			return ghost.NaNCostError{Source: "objective cost"}
		}
		e.currentOpt = c
		if c < e.bestOpt {
			e.bestOpt = c
			e.snapshotBest()
		}
	}

	e.tracer.Restarted(e.currentSat)
	return nil
}

// finalize runs the postprocess hooks, un-negates a
// maximization-modeled-as-negation cost and restores the variables to
// the best assignment.
func (e *Engine) finalize() (bool, float64) {
	found := e.bestSat == 0

	if found && e.isOptimization {
		if pp, ok := e.objective.(ghost.OptPostprocessor); ok {
			e.best, e.bestOpt = pp.PostprocessOptimization(e.best, e.bestOpt)
		}
	}

	var cost float64
	if e.isOptimization && found {
		if e.bestOpt < 0 {
			e.bestOpt = -e.bestOpt
		}
		cost = e.bestOpt
	} else {
		cost = e.bestSat
	}

	e.restoreValues(e.best)
	return found, cost
}
