package ghost

// Constraint implementations score how far the current assignment is
// from satisfying them. An error of zero means satisfied; errors are
// never negative.
//
// The engine owns the assignment and notifies constraints of every
// value change through UpdateVariable, so Error is always evaluated
// against the live configuration. Scope returns the ids (positions in
// the model's variable slice) the constraint ranges over.
type Constraint interface {
	Scope() []int
	Error() float64
	UpdateVariable(id, value int)
}

// DeltaSimulator is an optional Constraint capability. SimulateDelta
// returns error(after) - error(before) for the hypothetical move of one
// variable to a new value, without any net state change. Constraints
// that can compute deltas cheaper than a full re-evaluation should
// implement it; for the rest the engine falls back to
// update-evaluate-restore.
type DeltaSimulator interface {
	SimulateDelta(id, value int) float64
}

type funcConstraint struct {
	scope  []int
	local  map[int]int
	values []int
	errFn  func(values []int) float64
}

// NewConstraint builds a Constraint from an error function over the
// scoped values. The function receives the cached values of the scope
// variables, in scope order.
func NewConstraint(scope []int, errFn func(values []int) float64) Constraint {
	owned := make([]int, len(scope))
	copy(owned, scope)
	local := make(map[int]int, len(owned))
	for i, id := range owned {
		local[id] = i
	}
	return &funcConstraint{
		scope:  owned,
		local:  local,
		values: make([]int, len(owned)),
		errFn:  errFn,
	}
}

func (c *funcConstraint) Scope() []int { return c.scope }

func (c *funcConstraint) Error() float64 { return c.errFn(c.values) }

func (c *funcConstraint) UpdateVariable(id, value int) {
	if i, ok := c.local[id]; ok {
		c.values[i] = value
	}
}
