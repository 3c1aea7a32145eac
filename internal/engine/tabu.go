package engine

// decayWeakTabu decrements every positive tabu counter and records
// whether any variable is free. Counters saturate at zero.
func (e *Engine) decayWeakTabu() {
	free := false
	for v := range e.weakTabu {
		if e.weakTabu[v] > 0 {
			e.weakTabu[v]--
		}
		if e.weakTabu[v] == 0 {
			free = true
		}
	}
	e.freeVariables = free
	e.refreshNonTabu()
}

// markTabu freezes a just-moved variable: briefly after an improving
// move, longer after a plateau or worsening one.
func (e *Engine) markTabu(v int, delta float64) {
	if delta < 0 {
		e.weakTabu[v] = e.tabuSelected
	} else {
		e.weakTabu[v] = e.tabuLocalMin
	}
}

// worstVariables returns every variable whose aggregate error equals
// the maximum. When no constraint is violated all variables tie at
// zero and the whole model is returned.
func (e *Engine) worstVariables() []int {
	worst := e.worstBuf[:0]
	worstErr := 0.0
	for v := range e.errVariables {
		switch {
		case e.errVariables[v] > worstErr:
			worstErr = e.errVariables[v]
			worst = worst[:0]
			worst = append(worst, v)
		case e.errVariables[v] == worstErr:
			worst = append(worst, v)
		}
	}
	e.worstBuf = worst
	return worst
}
