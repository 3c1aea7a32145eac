package ghost

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunInfo describes one Solve call.
type RunInfo struct {
	ID           uuid.UUID
	Variables    int
	Constraints  int
	Optimization bool
	Permutation  bool
}

// Tracer observes the search. All callbacks run on the solving
// goroutine; implementations must not block.
type Tracer interface {
	SolveStarted(info RunInfo)
	Restarted(satError float64)
	MoveApplied(iteration, variable, value int, delta float64)
	SolutionImproved(iteration int, satError, optCost float64)
	SolveFinished(info RunInfo, found bool, cost float64, elapsed time.Duration, iterations int)
}

// NopTracer discards all events.
type NopTracer struct{}

func (NopTracer) SolveStarted(RunInfo)                                     {}
func (NopTracer) Restarted(float64)                                        {}
func (NopTracer) MoveApplied(int, int, int, float64)                       {}
func (NopTracer) SolutionImproved(int, float64, float64)                   {}
func (NopTracer) SolveFinished(RunInfo, bool, float64, time.Duration, int) {}

// LoggingTracer emits structured search events through a zap logger.
type LoggingTracer struct {
	Logger *zap.Logger
}

func (t LoggingTracer) SolveStarted(info RunInfo) {
	t.Logger.Info("solve started",
		zap.Stringer("run", info.ID),
		zap.Int("variables", info.Variables),
		zap.Int("constraints", info.Constraints),
		zap.Bool("optimization", info.Optimization),
		zap.Bool("permutation", info.Permutation),
	)
}

func (t LoggingTracer) Restarted(satError float64) {
	t.Logger.Debug("restarted", zap.Float64("sat_error", satError))
}

func (t LoggingTracer) MoveApplied(iteration, variable, value int, delta float64) {
	t.Logger.Debug("move applied",
		zap.Int("iteration", iteration),
		zap.Int("variable", variable),
		zap.Int("value", value),
		zap.Float64("delta", delta),
	)
}

func (t LoggingTracer) SolutionImproved(iteration int, satError, optCost float64) {
	t.Logger.Debug("solution improved",
		zap.Int("iteration", iteration),
		zap.Float64("sat_error", satError),
		zap.Float64("opt_cost", optCost),
	)
}

func (t LoggingTracer) SolveFinished(info RunInfo, found bool, cost float64, elapsed time.Duration, iterations int) {
	t.Logger.Info("solve finished",
		zap.Stringer("run", info.ID),
		zap.Bool("found", found),
		zap.Float64("cost", cost),
		zap.Duration("elapsed", elapsed),
		zap.Int("iterations", iterations),
	)
}
