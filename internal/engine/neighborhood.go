package engine

import "math"

// monteCarloSampling assigns every variable a uniform-random value from
// its domain.
func (e *Engine) monteCarloSampling() {
	for i := range e.vars {
		e.vars[i].PickRandom(e.rng)
	}
}

// randomPermutations walks all (i, j) pairs and swaps their index/value
// pair with probability one half.
func (e *Engine) randomPermutations() {
	for i := 0; i < len(e.vars)-1; i++ {
		for j := i + 1; j < len(e.vars); j++ {
			if e.rng.Intn(2) == 0 {
				e.swap(i, j)
			}
		}
	}
}

// setInitialConfiguration draws max(1, samplings) configurations with
// the sampler matching the problem mode and keeps the one with the
// lowest satisfaction error, stopping early on a solution.
func (e *Engine) setInitialConfiguration(samplings int) {
	if samplings < 1 {
		samplings = 1
	}

	bestErr := math.Inf(1)
	for i := 0; i < samplings; i++ {
		if e.permutation {
			e.randomPermutations()
		} else {
			e.monteCarloSampling()
		}
		e.broadcast()
		cur := e.rawSatError()
		if cur < bestErr {
			bestErr = cur
			for j := range e.vars {
				e.sampleBuf[j] = e.vars[j].Value()
			}
		}
		if cur == 0 {
			break
		}
	}
	e.restoreValues(e.sampleBuf)
}
