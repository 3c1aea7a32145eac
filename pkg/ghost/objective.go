package ghost

// Objective implementations score a satisfying assignment. The engine
// minimizes Cost once all constraints are satisfied; model a
// maximization problem by returning the negated quantity, the solver
// reports the cost back un-negated.
//
// Like constraints, objectives are kept in sync with the assignment
// through UpdateVariable.
type Objective interface {
	Cost() float64
	UpdateVariable(id, value int)
}

// ValueHeuristic is an optional Objective capability used to break ties
// among candidate values that reach the same best satisfaction delta.
// The default tie-break re-scores each candidate by the objective and
// picks uniformly among the minimizers.
type ValueHeuristic interface {
	HeuristicValue(variable int, candidates []int) int
}

// VariableHeuristic is an optional Objective capability used in
// permutation mode to break ties among candidate swap partners. The
// default is a uniform pick.
type VariableHeuristic interface {
	HeuristicVariable(candidates []int) int
}

// SatPostprocessor is an optional Objective hook invoked on the best
// assignment during an optimization run, each time a move reaching
// satisfaction improves the best objective cost.
type SatPostprocessor interface {
	PostprocessSatisfaction(solution []int, bestCost float64) ([]int, float64)
}

// OptPostprocessor is an optional Objective hook invoked on the best
// assignment after an optimization run that reached satisfaction.
type OptPostprocessor interface {
	PostprocessOptimization(solution []int, bestCost float64) ([]int, float64)
}

type funcObjective struct {
	scope  []int
	local  map[int]int
	values []int
	costFn func(values []int) float64
}

// NewObjective builds an Objective from a cost function over the scoped
// values, in scope order.
func NewObjective(scope []int, costFn func(values []int) float64) Objective {
	owned := make([]int, len(scope))
	copy(owned, scope)
	local := make(map[int]int, len(owned))
	for i, id := range owned {
		local[id] = i
	}
	return &funcObjective{
		scope:  owned,
		local:  local,
		values: make([]int, len(owned)),
		costFn: costFn,
	}
}

func (o *funcObjective) Cost() float64 { return o.costFn(o.values) }

func (o *funcObjective) UpdateVariable(id, value int) {
	if i, ok := o.local[id]; ok {
		o.values[i] = value
	}
}
