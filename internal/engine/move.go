package engine

import (
	"math"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
)

func (e *Engine) swap(i, j int) {
	ghost.Swap(&e.vars[i], &e.vars[j])
}

// simulateDelta returns the hypothetical error change of constraint ci
// if variable v took value x. Constraints implementing DeltaSimulator
// answer directly; the fallback temporarily pushes the value into the
// constraint cache, reads the error and restores, leaving no net state
// change.
func (e *Engine) simulateDelta(ci, v, x int) float64 {
	if ds := e.deltaSims[ci]; ds != nil {
		return ds.SimulateDelta(v, x)
	}
	c := e.constraints[ci]
	old := e.vars[v].Value()
	c.UpdateVariable(v, x)
	d := c.Error() - e.errConstraints[ci]
	c.UpdateVariable(v, old)
	return d
}

// evaluateMoves scans the full domain of v and returns the minimum
// cumulative delta over v's constraints, every value achieving it, and
// the per-constraint deltas of each candidate (aligned with the
// candidate list) so an accepted move can be applied incrementally.
func (e *Engine) evaluateMoves(v int) (float64, []int, [][]float64) {
	ctrs := e.varToCtrs[v]
	bestDelta := math.Inf(1)
	candidates := e.candBuf[:0]
	candDeltas := e.candDeltas[:0]

	if cap(e.deltaBuf) < len(ctrs) {
		e.deltaBuf = make([]float64, len(ctrs))
	}
	buf := e.deltaBuf[:len(ctrs)]

	for _, x := range e.domains[v] {
		sum := 0.0
		for k, ci := range ctrs {
			d := e.simulateDelta(ci, v, x)
			buf[k] = d
			sum += d
		}
		switch {
		case sum < bestDelta:
			bestDelta = sum
			candidates = candidates[:0]
			candDeltas = candDeltas[:0]
			candidates = append(candidates, x)
			candDeltas = append(candDeltas, append([]float64(nil), buf...))
		case sum == bestDelta:
			candidates = append(candidates, x)
			candDeltas = append(candDeltas, append([]float64(nil), buf...))
		}
	}

	e.candBuf = candidates
	e.candDeltas = candDeltas
	return bestDelta, candidates, candDeltas
}

// chooseValue breaks ties among candidate values. With a single
// candidate there is nothing to decide; otherwise the objective's value
// heuristic is consulted, defaulting to re-scoring each candidate by
// the objective cost and picking uniformly among the minimizers.
// Returns the index into candidates.
func (e *Engine) chooseValue(v int, candidates []int) int {
	if len(candidates) == 1 {
		return 0
	}
	if h, ok := e.objective.(ghost.ValueHeuristic); ok {
		x := h.HeuristicValue(v, candidates)
		for i, c := range candidates {
			if c == x {
				return i
			}
		}
	}
	old := e.vars[v].Value()
	bestCost := math.Inf(1)
	ties := e.tieBuf[:0]
	for i, x := range candidates {
		e.objective.UpdateVariable(v, x)
		c := e.objective.Cost()
		switch {
		case c < bestCost:
			bestCost = c
			ties = ties[:0]
			ties = append(ties, i)
		case c == bestCost:
			ties = append(ties, i)
		}
	}
	e.objective.UpdateVariable(v, old)
	e.tieBuf = ties
	return ties[e.rng.Intn(len(ties))]
}

// applyMove assigns x to v and folds the memoized per-constraint deltas
// into the error vectors, then notifies the constraint and objective
// caches.
func (e *Engine) applyMove(v, x int, deltas []float64, sum float64) {
	_ = e.vars[v].SetValue(x)
	for k, ci := range e.varToCtrs[v] {
		d := deltas[k]
		e.errConstraints[ci] += d
		for _, u := range e.scopes[ci] {
			e.errVariables[u] += d
		}
		e.constraints[ci].UpdateVariable(v, x)
	}
	e.currentSat += sum
	if e.currentSat < satTolerance {
		e.currentSat = 0
	}
	e.objective.UpdateVariable(v, x)
	e.refreshNonTabu()
}

// unionConstraints collects the constraints containing v or u, each
// counted once, into dst.
func (e *Engine) unionConstraints(v, u int, dst []int) []int {
	dst = dst[:0]
	for _, ci := range e.varToCtrs[v] {
		e.visited[ci] = true
		dst = append(dst, ci)
	}
	for _, ci := range e.varToCtrs[u] {
		if !e.visited[ci] {
			dst = append(dst, ci)
		}
	}
	for _, ci := range e.varToCtrs[v] {
		e.visited[ci] = false
	}
	return dst
}

// simulateSwap computes the cumulative delta of swapping v and u over
// the union of their constraints, pushing the hypothetical values into
// the constraint caches and restoring them afterwards. The
// per-constraint deltas are appended to buf.
func (e *Engine) simulateSwap(v, u int, union []int, buf []ctrDelta) (float64, []ctrDelta) {
	vv := e.vars[v].Value()
	uv := e.vars[u].Value()
	sum := 0.0
	for _, ci := range union {
		c := e.constraints[ci]
		_, hasV := e.inScope[ci][v]
		_, hasU := e.inScope[ci][u]
		if hasV {
			c.UpdateVariable(v, uv)
		}
		if hasU {
			c.UpdateVariable(u, vv)
		}
		d := c.Error() - e.errConstraints[ci]
		if hasV {
			c.UpdateVariable(v, vv)
		}
		if hasU {
			c.UpdateVariable(u, uv)
		}
		sum += d
		buf = append(buf, ctrDelta{ctr: ci, d: d})
	}
	return sum, buf
}

// evaluateSwaps scans every other variable as a swap partner for v and
// returns the minimum cumulative delta, all partners achieving it, and
// their memoized per-constraint deltas.
func (e *Engine) evaluateSwaps(v int) (float64, []int, [][]ctrDelta) {
	bestDelta := math.Inf(1)
	partners := e.partnerBuf[:0]
	partnerDeltas := e.swapDeltas[:0]
	unionBuf := make([]int, 0, 8)

	for u := range e.vars {
		if u == v {
			continue
		}
		unionBuf = e.unionConstraints(v, u, unionBuf)
		sum, deltas := e.simulateSwap(v, u, unionBuf, make([]ctrDelta, 0, len(unionBuf)))
		switch {
		case sum < bestDelta:
			bestDelta = sum
			partners = partners[:0]
			partnerDeltas = partnerDeltas[:0]
			partners = append(partners, u)
			partnerDeltas = append(partnerDeltas, deltas)
		case sum == bestDelta:
			partners = append(partners, u)
			partnerDeltas = append(partnerDeltas, deltas)
		}
	}

	e.partnerBuf = partners
	e.swapDeltas = partnerDeltas
	return bestDelta, partners, partnerDeltas
}

// choosePartner breaks ties among candidate swap partners through the
// objective's variable heuristic, defaulting to a uniform pick.
// Returns the index into partners.
func (e *Engine) choosePartner(partners []int) int {
	if len(partners) == 1 {
		return 0
	}
	if h, ok := e.objective.(ghost.VariableHeuristic); ok {
		u := h.HeuristicVariable(partners)
		for i, p := range partners {
			if p == u {
				return i
			}
		}
	}
	return e.rng.Intn(len(partners))
}

// applySwap swaps v and u and folds the memoized per-constraint deltas
// into the error vectors, then notifies the constraint and objective
// caches for both variables.
func (e *Engine) applySwap(v, u int, deltas []ctrDelta, sum float64) {
	e.swap(v, u)
	newV := e.vars[v].Value()
	newU := e.vars[u].Value()
	for _, cd := range deltas {
		e.errConstraints[cd.ctr] += cd.d
		for _, w := range e.scopes[cd.ctr] {
			e.errVariables[w] += cd.d
		}
		c := e.constraints[cd.ctr]
		if _, ok := e.inScope[cd.ctr][v]; ok {
			c.UpdateVariable(v, newV)
		}
		if _, ok := e.inScope[cd.ctr][u]; ok {
			c.UpdateVariable(u, newU)
		}
	}
	e.currentSat += sum
	if e.currentSat < satTolerance {
		e.currentSat = 0
	}
	e.objective.UpdateVariable(v, newV)
	e.objective.UpdateVariable(u, newU)
	e.refreshNonTabu()
}
