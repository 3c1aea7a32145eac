package engine

import (
	"math"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

// broadcast pushes every variable's current value into the constraint
// and objective caches.
func (e *Engine) broadcast() {
	for ci, c := range e.constraints {
		for _, v := range e.scopes[ci] {
			c.UpdateVariable(v, e.vars[v].Value())
		}
	}
	for v := range e.vars {
		e.objective.UpdateVariable(v, e.vars[v].Value())
	}
}

// computeConstraintErrors re-evaluates every constraint from scratch and
// rebuilds currentSat. Only restarts pay this price; moves are applied
// incrementally.
func (e *Engine) computeConstraintErrors() error {
	total := 0.0
	for ci, c := range e.constraints {
		err := c.Error()
		if math.IsNaN(err) {
			return ghost.NaNCostError{Source: "constraint error"}
		}
		e.errConstraints[ci] = err
		total += err
	}
	if total < satTolerance {
		total = 0
	}
	e.currentSat = total
	return nil
}

// computeVariableErrors rebuilds the per-variable error aggregates from
// the per-constraint errors.
func (e *Engine) computeVariableErrors() {
	for v := range e.errVariables {
		sum := 0.0
		for _, ci := range e.varToCtrs[v] {
			sum += e.errConstraints[ci]
		}
		e.errVariables[v] = sum
	}
}

// refreshNonTabu copies the variable errors, zeroing tabu variables.
func (e *Engine) refreshNonTabu() {
	for v := range e.errNonTabu {
		if e.weakTabu[v] == 0 {
			e.errNonTabu[v] = e.errVariables[v]
		} else {
			e.errNonTabu[v] = 0
		}
	}
}

// rawSatError sums constraint errors against the current caches. Used
// by initial-configuration sampling, where the incremental vectors are
// not yet valid.
func (e *Engine) rawSatError() float64 {
	total := 0.0
	for _, c := range e.constraints {
		total += c.Error()
	}
	if total < satTolerance {
		total = 0
	}
	return total
}

// snapshotBest records the current assignment as the best one seen.
func (e *Engine) snapshotBest() {
	e.bestSat = e.currentSat
	for i := range e.vars {
		e.best[i] = e.vars[i].Value()
	}
}

func (e *Engine) restoreValues(values []int) {
	for i := range e.vars {
		if e.vars[i].Value() != values[i] {
			_ = e.vars[i].SetValue(values[i])
		}
	}
}
