package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

func mustVar(t *testing.T, name string, domain []int) ghost.Variable {
	t.Helper()
	v, err := ghost.NewVariable(name, domain)
	require.NoError(t, err)
	return v
}

func mustRangeVar(t *testing.T, name string, start, size int) ghost.Variable {
	t.Helper()
	v, err := ghost.NewVariableRange(name, start, size)
	require.NoError(t, err)
	return v
}

// knapsackConfig models scenario helpers used across tests: pack
// bottles (1kg, 500) and sandwiches (1.25kg, 650) under a 30kg cap.
func knapsackConfig(t *testing.T, optimize bool, seed int64) Config {
	t.Helper()
	capacity := ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
		weight := float64(values[0]) + 1.25*float64(values[1])
		if weight <= 30 {
			return 0
		}
		return weight - 30
	})
	value := func(values []int) float64 {
		return 500*float64(values[0]) + 650*float64(values[1])
	}

	cfg := Config{
		Variables: []ghost.Variable{
			mustRangeVar(t, "bottle", 0, 51),
			mustRangeVar(t, "sandwich", 0, 11),
		},
		Seed: seed,
	}
	if optimize {
		cfg.Constraints = []ghost.Constraint{capacity}
		cfg.Objective = ghost.NewObjective([]int{0, 1}, func(values []int) float64 {
			return -value(values)
		})
	} else {
		atLeast := ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
			if v := value(values); v < 15000 {
				return 15000 - v
			}
			return 0
		})
		cfg.Constraints = []ghost.Constraint{capacity, atLeast}
	}
	return cfg
}

// checkInvariants asserts the bookkeeping invariants that must hold at
// every stable point of the loop: currentSat matches the constraint
// error sum, per-variable aggregates match the adjacency, cached
// constraint errors match a fresh evaluation and values stay in domain.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()

	sum := 0.0
	for _, err := range e.errConstraints {
		sum += err
	}
	if sum < satTolerance {
		sum = 0
	}
	assert.InDelta(t, sum, e.currentSat, 1e-9, "currentSat must equal the constraint error sum")

	for v := range e.vars {
		expected := 0.0
		for _, ci := range e.varToCtrs[v] {
			expected += e.errConstraints[ci]
		}
		assert.InDelta(t, expected, e.errVariables[v], 1e-9, "errVariables[%d]", v)
	}

	for ci, c := range e.constraints {
		assert.InDelta(t, c.Error(), e.errConstraints[ci], 1e-9, "constraint %d cache", ci)
	}

	for i := range e.vars {
		assert.Contains(t, e.vars[i].Domain(), e.vars[i].Value(), "variable %d out of domain", i)
	}

	for v := range e.weakTabu {
		assert.GreaterOrEqual(t, e.weakTabu[v], 0)
	}
}

// step drives one outer iteration the way Solve does.
func step(t *testing.T, e *Engine, iteration int) {
	t.Helper()
	e.decayWeakTabu()
	worst := e.worstVariables()
	require.NotEmpty(t, worst)
	v := worst[e.rng.Intn(len(worst))]
	var err error
	if e.permutation {
		err = e.stepPermutation(iteration, v)
	} else {
		err = e.stepStandard(iteration, v)
	}
	require.NoError(t, err)
}

func TestRestartEstablishesInvariants(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 1))
	require.NoError(t, err)

	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	checkInvariants(t, e)
	assert.True(t, e.freeVariables)
	assert.Equal(t, e.currentSat, e.bestSat)
}

func TestInvariantsHoldAcrossIterations(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 7))
	require.NoError(t, err)

	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	prevBest := e.bestSat
	for i := 1; i <= 200; i++ {
		step(t, e, i)
		checkInvariants(t, e)
		assert.LessOrEqual(t, e.bestSat, prevBest, "bestSat must be non-increasing")
		prevBest = e.bestSat
	}
}

func TestSimulateDeltaHasNoNetSideEffect(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 3))
	require.NoError(t, err)
	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	for _, x := range []int{0, 10, 50} {
		before := make([]float64, len(e.constraints))
		for ci, c := range e.constraints {
			before[ci] = c.Error()
		}
		_ = e.simulateDelta(0, 0, x)
		for ci, c := range e.constraints {
			assert.InDelta(t, before[ci], c.Error(), 1e-12, "constraint %d changed", ci)
		}
		assert.Contains(t, e.vars[0].Domain(), e.vars[0].Value())
	}
}

func TestKnapsackSatisfaction(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 42))
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 500*time.Millisecond)
	require.NoError(t, err)

	require.True(t, result.Found, "expected a satisfying packing, best error %f", result.Cost)
	bottle, sandwich := result.Solution[0], result.Solution[1]
	assert.LessOrEqual(t, float64(bottle)+1.25*float64(sandwich), 30.0)
	assert.GreaterOrEqual(t, 500*bottle+650*sandwich, 15000)
	assert.Equal(t, 0.0, result.Cost)
}

func TestKnapsackOptimization(t *testing.T) {
	e, err := New(knapsackConfig(t, true, 42))
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 500*time.Millisecond)
	require.NoError(t, err)

	require.True(t, result.Found)
	bottle, sandwich := result.Solution[0], result.Solution[1]
	assert.LessOrEqual(t, float64(bottle)+1.25*float64(sandwich), 30.0)
	// the cost is reported un-negated and matches the packed value
	assert.Equal(t, float64(500*bottle+650*sandwich), result.Cost)
	assert.GreaterOrEqual(t, result.Cost, 15000.0)
	assert.LessOrEqual(t, result.Cost, 15200.0)
}

func TestUnsatisfiableReportsBestEffort(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{mustRangeVar(t, "x", 0, 4)},
		Constraints: []ghost.Constraint{
			ghost.NewConstraint([]int{0}, func(values []int) float64 {
				return math.Abs(float64(values[0]) - 10)
			}),
		},
		Seed: 5,
	}
	e, err := New(cfg)
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Equal(t, 7.0, result.Cost)
	assert.Equal(t, []int{3}, result.Solution)
}

func TestPlateauRestartExploresAllSolutions(t *testing.T) {
	seen := map[[2]int]bool{}
	for seed := int64(0); seed < 40; seed++ {
		cfg := Config{
			Variables: []ghost.Variable{
				mustRangeVar(t, "a", 0, 2),
				mustRangeVar(t, "b", 0, 2),
			},
			Constraints: []ghost.Constraint{
				ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
					if values[0] == values[1] {
						return 0
					}
					return 1
				}),
			},
			Seed: seed,
		}
		e, err := New(cfg)
		require.NoError(t, err)
		result, err := e.Solve(context.Background(), 10*time.Millisecond)
		require.NoError(t, err)
		require.True(t, result.Found)
		seen[[2]int{result.Solution[0], result.Solution[1]}] = true
	}
	assert.True(t, seen[[2]int{0, 0}], "(0,0) never found")
	assert.True(t, seen[[2]int{1, 1}], "(1,1) never found")
}

// queensConfig builds 4-queens in permutation mode: columns start as
// the identity permutation, only diagonals are constrained.
func queensConfig(t *testing.T, seed int64) Config {
	t.Helper()
	const n = 4
	columns := []int{0, 1, 2, 3}
	vars := make([]ghost.Variable, n)
	for i := range vars {
		v := mustVar(t, "row", columns)
		require.NoError(t, v.SetValue(i))
		vars[i] = v
	}
	var constraints []ghost.Constraint
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			gap := j - i
			constraints = append(constraints, ghost.NewConstraint([]int{i, j}, func(values []int) float64 {
				diff := values[0] - values[1]
				if diff == gap || diff == -gap {
					return 1
				}
				return 0
			}))
		}
	}
	return Config{
		Variables:   vars,
		Constraints: constraints,
		Permutation: true,
		Seed:        seed,
	}
}

func TestPermutationInvariant(t *testing.T) {
	e, err := New(queensConfig(t, 11))
	require.NoError(t, err)

	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	assertPermutation := func() {
		t.Helper()
		seen := map[int]int{}
		for i := range e.vars {
			seen[e.vars[i].Value()]++
		}
		require.Len(t, seen, 4, "values collapsed: %v", seen)
	}

	assertPermutation()
	for i := 1; i <= 150; i++ {
		step(t, e, i)
		assertPermutation()
		checkInvariants(t, e)
	}
}

func TestPermutationSolvesQueens(t *testing.T) {
	e, err := New(queensConfig(t, 2))
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)

	require.True(t, result.Found)
	seen := map[int]bool{}
	for _, c := range result.Solution {
		seen[c] = true
	}
	assert.Len(t, seen, 4)
}

func TestSingleValueDomainNeverChanges(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{
			mustVar(t, "pinned", []int{5}),
			mustRangeVar(t, "free", 0, 11),
		},
		Constraints: []ghost.Constraint{
			ghost.NewConstraint([]int{0, 1}, func(values []int) float64 {
				return math.Abs(float64(values[0] - values[1]))
			}),
		},
		Seed: 9,
	}
	e, err := New(cfg)
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, []int{5, 5}, result.Solution)
}

func TestZeroTimeoutStillProducesAssignment(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 13))
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Iterations)
	require.Len(t, result.Solution, 2)
	assert.GreaterOrEqual(t, result.Solution[0], 0)
	assert.Less(t, result.Solution[0], 51)
	assert.GreaterOrEqual(t, result.Solution[1], 0)
	assert.Less(t, result.Solution[1], 11)
}

func TestOptimizationKeepsSearchingAfterSatisfaction(t *testing.T) {
	cfg := knapsackConfig(t, true, 17)
	cfg.MaxIterations = 300
	e, err := New(cfg)
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), time.Hour)
	require.NoError(t, err)

	// satisfaction alone is trivial here; the iteration budget must be
	// spent on the optimization phase instead of exiting early
	assert.Equal(t, 300, result.Iterations)
	assert.True(t, result.Found)
}

func TestSatisfactionStopsAtFirstSolution(t *testing.T) {
	cfg := knapsackConfig(t, false, 21)
	cfg.MaxIterations = 100000
	e, err := New(cfg)
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Less(t, result.Iterations, 100000)
}

type transcriptTracer struct {
	ghost.NopTracer
	moves [][3]int
}

func (tt *transcriptTracer) MoveApplied(iteration, variable, value int, _ float64) {
	tt.moves = append(tt.moves, [3]int{iteration, variable, value})
}

func TestSeededRunsReplayTheSameMoves(t *testing.T) {
	run := func() ([][3]int, []int) {
		cfg := knapsackConfig(t, true, 99)
		cfg.MaxIterations = 150
		tracer := &transcriptTracer{}
		cfg.Tracer = tracer
		e, err := New(cfg)
		require.NoError(t, err)
		result, err := e.Solve(context.Background(), time.Hour)
		require.NoError(t, err)
		return tracer.moves, result.Solution
	}

	movesA, solutionA := run()
	movesB, solutionB := run()
	assert.Equal(t, movesA, movesB)
	assert.Equal(t, solutionA, solutionB)
}

func TestNoRandomStartKeepsInitialAssignment(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{mustRangeVar(t, "x", 0, 100)},
		Constraints: []ghost.Constraint{
			ghost.NewConstraint([]int{0}, func(values []int) float64 {
				return math.Abs(float64(values[0]) - 37)
			}),
		},
		Seed:          4,
		NoRandomStart: true,
		MaxIterations: 1,
	}
	require.NoError(t, cfg.Variables[0].SetValue(37))
	e, err := New(cfg)
	require.NoError(t, err)

	result, err := e.Solve(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, []int{37}, result.Solution)
}

func TestConstructionRejectsUnknownScope(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{mustRangeVar(t, "x", 0, 2)},
		Constraints: []ghost.Constraint{
			ghost.NewConstraint([]int{0, 3}, func(values []int) float64 { return 0 }),
		},
	}
	_, err := New(cfg)
	var unknown ghost.UnknownVariableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 3, unknown.ID)
}

func TestConstructionRejectsEmptyDomain(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{{}},
	}
	_, err := New(cfg)
	var empty ghost.EmptyDomainError
	require.ErrorAs(t, err, &empty)
}

func TestNaNObjectiveIsFatal(t *testing.T) {
	cfg := Config{
		Variables: []ghost.Variable{mustRangeVar(t, "x", 0, 2)},
		Constraints: []ghost.Constraint{
			ghost.NewConstraint([]int{0}, func(values []int) float64 { return 0 }),
		},
		Objective: ghost.NewObjective([]int{0}, func(values []int) float64 {
			return math.NaN()
		}),
		Seed: 1,
	}
	e, err := New(cfg)
	require.NoError(t, err)

	_, err = e.Solve(context.Background(), time.Millisecond)
	var nan ghost.NaNCostError
	require.ErrorAs(t, err, &nan)
}

type offsetDelta struct {
	ghost.Constraint
	target int
}

func newOffsetDelta(id, target int) *offsetDelta {
	c := &offsetDelta{target: target}
	c.Constraint = ghost.NewConstraint([]int{id}, func(values []int) float64 {
		return math.Abs(float64(values[0] - c.target))
	})
	return c
}

func (c *offsetDelta) SimulateDelta(_, value int) float64 {
	after := math.Abs(float64(value - c.target))
	return after - c.Constraint.Error()
}

func TestSpecializedDeltaSimulatorIsUsed(t *testing.T) {
	c := newOffsetDelta(0, 4)
	cfg := Config{
		Variables:   []ghost.Variable{mustRangeVar(t, "x", 0, 10)},
		Constraints: []ghost.Constraint{c},
		Seed:        8,
	}
	e, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, e.deltaSims[0], "DeltaSimulator implementation must be detected")

	result, err := e.Solve(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, []int{4}, result.Solution)
}

func TestWorstVariablesTieOnZeroError(t *testing.T) {
	e, err := New(knapsackConfig(t, true, 30))
	require.NoError(t, err)
	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	for ci := range e.errConstraints {
		e.errConstraints[ci] = 0
	}
	e.computeVariableErrors()
	assert.ElementsMatch(t, []int{0, 1}, e.worstVariables())
}

func TestWeakTabuDecays(t *testing.T) {
	e, err := New(knapsackConfig(t, false, 14))
	require.NoError(t, err)
	e.bestSat = math.Inf(1)
	e.bestOpt = math.Inf(1)
	require.NoError(t, e.restart(true))

	e.weakTabu[0] = 2
	e.decayWeakTabu()
	assert.Equal(t, 1, e.weakTabu[0])
	assert.Equal(t, 0.0, e.errNonTabu[0], "tabu variables are masked in the non-tabu vector")
	assert.Equal(t, e.errVariables[1], e.errNonTabu[1])

	e.decayWeakTabu()
	e.decayWeakTabu()
	assert.Equal(t, 0, e.weakTabu[0])
	assert.True(t, e.freeVariables)
}
