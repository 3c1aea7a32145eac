// Package options holds the solver flags shared by every ghost
// subcommand, bound through viper so each can also be set with a
// GHOST_* environment variable.
package options

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/amorim-cjs/GHOST/pkg/ghost"
	"github.com/amorim-cjs/GHOST/pkg/solver"
)

// Solve carries the options every subcommand passes to the solver.
type Solve struct {
	Timeout   time.Duration
	Seed      int64
	Samplings int
	Trace     bool
}

// Bind registers the shared persistent flags on the root command and
// wires them into viper under the GHOST_ environment prefix.
func Bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.Duration("timeout", 300*time.Microsecond, "wall-clock search budget")
	flags.Int64("seed", -1, "random seed, -1 for a time-based one")
	flags.Int("samplings", 10, "starting configurations sampled per restart")
	flags.Bool("trace", false, "log search events")

	viper.SetEnvPrefix("ghost")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("seed", flags.Lookup("seed"))
	_ = viper.BindPFlag("samplings", flags.Lookup("samplings"))
	_ = viper.BindPFlag("trace", flags.Lookup("trace"))
}

// FromViper reads the bound options back.
func FromViper() Solve {
	return Solve{
		Timeout:   viper.GetDuration("timeout"),
		Seed:      viper.GetInt64("seed"),
		Samplings: viper.GetInt("samplings"),
		Trace:     viper.GetBool("trace"),
	}
}

// SolverOptions translates the shared options into solver options.
func (s Solve) SolverOptions() ([]solver.Option, error) {
	seed := s.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	opts := []solver.Option{
		solver.WithSeed(seed),
		solver.WithSamplings(s.Samplings),
	}
	if s.Trace {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, solver.WithTracer(ghost.LoggingTracer{Logger: logger}))
	}
	return opts, nil
}
