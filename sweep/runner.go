// Package sweep runs cache configurations over memory traces and collects
// hit/miss statistics.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/cache/reference"
)

// checkInterval is how many accesses a job runs between context checks.
const checkInterval = 1 << 16

// Result holds the statistics of one configuration on one trace.
type Result struct {
	Plan      string           `json:"plan"`
	Parameter Parameter        `json:"parameter,omitempty"`
	Value     int              `json:"value"`
	Trace     string           `json:"trace"`
	Config    cache.Config     `json:"config"`
	Geometry  cache.Geometry   `json:"geometry"`
	Stats     cache.Statistics `json:"stats"`

	// Err is set for configurations skipped with SkipInvalid.
	Err string `json:"error,omitempty"`
}

// HitRate returns the hit rate in percent.
func (r Result) HitRate() float64 {
	return r.Stats.HitRate() * 100
}

// MissRate returns the miss rate in percent.
func (r Result) MissRate() float64 {
	return r.Stats.MissRate() * 100
}

// Trace is a named, fully loaded address trace.
type Trace struct {
	Name  string
	Addrs []uint64
}

// Runner runs sweep plans. Each job gets its own cache, so jobs share nothing
// but the read-only traces.
type Runner struct {
	Workers     int
	Replacement cache.Replacement
	SkipInvalid bool
	Verify      bool

	// Logger receives one line per finished job. Nil disables logging.
	Logger *log.Logger
}

// NewRunner creates a Runner from the sweep Config.
func NewRunner(config *Config) (*Runner, error) {
	replacement, err := cache.ParseReplacement(config.Replacement)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Workers:     config.Workers,
		Replacement: replacement,
		SkipInvalid: config.SkipInvalid,
		Verify:      config.Verify,
	}, nil
}

type job struct {
	plan   Plan
	config cache.Config
	trace  Trace
}

// Run simulates every configuration of every plan on every trace. Results
// are ordered by plan, then configuration, then trace.
func (r *Runner) Run(ctx context.Context, plans []Plan, traces []Trace) ([]Result, error) {
	jobs := []job{}
	for _, p := range plans {
		for _, c := range p.Configs() {
			for _, t := range traces {
				jobs = append(jobs, job{plan: p, config: c, trace: t})
			}
		}
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, j := range jobs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			result, err := r.runJob(gctx, j)
			if err != nil {
				return err
			}

			results[i] = result
			r.logf("%s %s %s: hits=%d misses=%d",
				j.plan.Name, j.trace.Name, j.config, result.Stats.Hits, result.Stats.Misses)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (r *Runner) runJob(ctx context.Context, j job) (Result, error) {
	result := Result{
		Plan:      j.plan.Name,
		Parameter: j.plan.Vary,
		Value:     j.plan.ParameterValue(j.config),
		Trace:     j.trace.Name,
		Config:    j.config,
	}

	c, err := cache.New(j.config, cache.WithReplacement(r.Replacement))
	if err != nil {
		var configErr *cache.ConfigurationError
		if r.SkipInvalid && errors.As(err, &configErr) {
			result.Err = err.Error()
			return result, nil
		}

		return Result{}, fmt.Errorf("plan %s: %w", j.plan.Name, err)
	}

	var ref *reference.Cache
	if r.Verify {
		ref, err = reference.New(j.config)
		if err != nil {
			return Result{}, err
		}
	}

	for i, addr := range j.trace.Addrs {
		if i%checkInterval == 0 && ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		access, err := c.Access(addr)
		if err != nil {
			return Result{}, fmt.Errorf("%s access %d: %w", j.trace.Name, i, err)
		}

		if ref != nil && ref.Access(uint32(addr)) != access.Hit {
			return Result{}, fmt.Errorf(
				"%s %s access %d (0x%X): reference model disagrees (hit=%v)",
				j.trace.Name, j.config, i, addr, access.Hit)
		}
	}

	result.Geometry = c.Geometry()
	result.Stats = c.Stats()

	return result, nil
}

// Simulate runs a single configuration over addrs.
func Simulate(config cache.Config, addrs []uint64, opts ...cache.Option) (cache.Statistics, error) {
	c, err := cache.New(config, opts...)
	if err != nil {
		return cache.Statistics{}, err
	}

	for i, addr := range addrs {
		if _, err := c.Access(addr); err != nil {
			return cache.Statistics{}, fmt.Errorf("access %d: %w", i, err)
		}
	}

	return c.Stats(), nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger == nil {
		return
	}

	r.Logger.Printf(format, args...)
}
