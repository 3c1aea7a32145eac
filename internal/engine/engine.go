package engine

import (
	"fmt"
	"math/rand"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

const (
	// Satisfaction errors below this threshold are treated as zero to
	// absorb floating-point rounding.
	satTolerance = 1.0e-10

	// Probability of restarting instead of walking on a plateau.
	plateauRestartProbability = 0.1

	defaultSamplings = 10
)

// Config carries everything an Engine needs. Zero-value fields get the
// documented defaults.
type Config struct {
	Variables     []ghost.Variable
	Constraints   []ghost.Constraint
	Objective     ghost.Objective // nil for pure satisfaction problems
	Permutation   bool
	Seed          int64
	Samplings     int // initial-configuration samples per restart, default 10
	NoRandomStart bool
	MaxIterations int // 0 means wall-clock only
	Tracer        ghost.Tracer
}

// Engine is the local-search core. It owns the variables, keeps
// constraint and objective caches in sync with the assignment, and
// drives the satisfaction-then-optimization loop.
type Engine struct {
	vars        []ghost.Variable
	constraints []ghost.Constraint
	objective   ghost.Objective
	deltaSims   []ghost.DeltaSimulator // nil entry: fall back to update-evaluate-restore

	isOptimization bool
	permutation    bool

	// adjacency, built once at construction
	varToCtrs [][]int
	scopes    [][]int
	inScope   []map[int]struct{}
	domains   [][]int

	// error bookkeeping
	errConstraints []float64
	errVariables   []float64
	errNonTabu     []float64
	weakTabu       []int
	freeVariables  bool

	currentSat float64
	currentOpt float64
	bestSat    float64
	bestOpt    float64
	best       []int

	tabuLocalMin int
	tabuSelected int

	rng           *rand.Rand
	tracer        ghost.Tracer
	samplings     int
	noRandomStart bool
	maxIterations int

	// scratch buffers reused across iterations
	worstBuf   []int
	candBuf    []int
	candDeltas [][]float64
	deltaBuf   []float64
	partnerBuf []int
	swapDeltas [][]ctrDelta
	visited    []bool
	sampleBuf  []int
	tieBuf     []int
}

type ctrDelta struct {
	ctr int
	d   float64
}

type nullObjective struct{}

func (nullObjective) Cost() float64           { return 0 }
func (nullObjective) UpdateVariable(int, int) {}

// New validates the model and builds an Engine. Modeling misuse (empty
// domain, constraint scope referencing an unknown variable id) is
// reported here, not during the search.
func New(cfg Config) (*Engine, error) {
	n := len(cfg.Variables)
	if n == 0 {
		return nil, fmt.Errorf("model has no variables")
	}

	vars := make([]ghost.Variable, n)
	copy(vars, cfg.Variables)
	domains := make([][]int, n)
	for i := range vars {
		if vars[i].DomainSize() == 0 {
			return nil, ghost.EmptyDomainError{Name: vars[i].Name()}
		}
		domains[i] = vars[i].Domain()
	}

	varToCtrs := make([][]int, n)
	scopes := make([][]int, len(cfg.Constraints))
	inScope := make([]map[int]struct{}, len(cfg.Constraints))
	deltaSims := make([]ghost.DeltaSimulator, len(cfg.Constraints))
	for ci, c := range cfg.Constraints {
		scope := c.Scope()
		scopes[ci] = scope
		inScope[ci] = make(map[int]struct{}, len(scope))
		for _, id := range scope {
			if id < 0 || id >= n {
				return nil, ghost.UnknownVariableError{ID: id}
			}
			inScope[ci][id] = struct{}{}
			varToCtrs[id] = append(varToCtrs[id], ci)
		}
		if ds, ok := c.(ghost.DeltaSimulator); ok {
			deltaSims[ci] = ds
		}
	}

	objective := cfg.Objective
	isOptimization := objective != nil
	if objective == nil {
		objective = nullObjective{}
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = ghost.NopTracer{}
	}

	samplings := cfg.Samplings
	if samplings <= 0 {
		samplings = defaultSamplings
	}

	tabuLocalMin := n / 2
	if tabuLocalMin < 1 {
		tabuLocalMin = 1
	}
	tabuSelected := tabuLocalMin / 2
	if tabuSelected < 1 {
		tabuSelected = 1
	}

	return &Engine{
		vars:           vars,
		constraints:    cfg.Constraints,
		objective:      objective,
		deltaSims:      deltaSims,
		isOptimization: isOptimization,
		permutation:    cfg.Permutation,
		varToCtrs:      varToCtrs,
		scopes:         scopes,
		inScope:        inScope,
		domains:        domains,
		errConstraints: make([]float64, len(cfg.Constraints)),
		errVariables:   make([]float64, n),
		errNonTabu:     make([]float64, n),
		weakTabu:       make([]int, n),
		best:           make([]int, n),
		tabuLocalMin:   tabuLocalMin,
		tabuSelected:   tabuSelected,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
		tracer:         tracer,
		samplings:      samplings,
		noRandomStart:  cfg.NoRandomStart,
		maxIterations:  cfg.MaxIterations,
		deltaBuf:       make([]float64, 0, 8),
		visited:        make([]bool, len(cfg.Constraints)),
		sampleBuf:      make([]int, n),
	}, nil
}

// Variables returns the engine's variables in model order. After Solve
// they hold the best assignment found.
func (e *Engine) Variables() []ghost.Variable {
	out := make([]ghost.Variable, len(e.vars))
	copy(out, e.vars)
	return out
}
