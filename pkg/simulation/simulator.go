package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/geometry"
	"github.com/df07/go-twobounce/pkg/trace"
)

// kernelFunc traces one source ray and its reflection
type kernelFunc func(origin, direction core.Vec3, buf []int) (first, second trace.Hit, scratch []int)

// Simulator casts rays from a point source into a scene and counts how many
// of their two-bounce paths touch critical geometry.
type Simulator struct {
	config Config
	tracer *trace.Tracer
	logger core.Logger
	kernel kernelFunc
}

// Result is the outcome of a simulation run
type Result struct {
	Stats      Stats
	Records    []Record      // Ledger entries of every completed partition, in ray order
	Partitions []Partition   // The partitions the rays were split into
	Workers    int           // Workers actually used
	Elapsed    time.Duration // Wall-clock time of Run
	Cancelled  bool          // Run stopped early; Stats covers only completed rays
}

// RaysPerSecond returns the overall throughput
func (r *Result) RaysPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Stats.Rays) / r.Elapsed.Seconds()
}

// RaysPerSecondPerWorker returns throughput divided by the worker count
func (r *Result) RaysPerSecondPerWorker() float64 {
	if r.Workers == 0 {
		return 0
	}
	return r.RaysPerSecond() / float64(r.Workers)
}

// RecordsByPartition groups the ledger entries by the partition that produced them
func (r *Result) RecordsByPartition() [][]Record {
	grouped := make([][]Record, len(r.Partitions))
	p := 0
	for _, record := range r.Records {
		for p < len(r.Partitions) && record.Ray >= r.Partitions[p].End {
			p++
		}
		if p == len(r.Partitions) {
			break
		}
		grouped[p] = append(grouped[p], record)
	}
	return grouped
}

// NewSimulator validates config and builds the acceleration structure
func NewSimulator(scene *geometry.Scene, config Config, logger core.Logger) (*Simulator, error) {
	if scene == nil {
		return nil, fmt.Errorf("%w: scene is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	start := time.Now()
	tracer := trace.NewTracer(scene, config.LeafCapacity, config.Policy)
	stats := tracer.BVH.Stats()
	logger.Printf("Built BVH over %d triangles in %v: %d nodes (%d leaves), max depth %d\n",
		stats.TotalTriangles, time.Since(start), stats.TotalNodes, stats.LeafNodes, stats.MaxDepth)

	return &Simulator{
		config: config,
		tracer: tracer,
		logger: logger,
		kernel: tracer.TwoBounce,
	}, nil
}

// Config returns the validated configuration
func (s *Simulator) Config() Config {
	return s.config
}

// Tracer returns the tracer shared by all workers
func (s *Simulator) Tracer() *trace.Tracer {
	return s.tracer
}

// Run traces all rays. On cancellation it returns the stats of the rays
// completed so far together with the context's error. A partition that
// keeps failing after MaxAttempts executions fails the whole run.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	partitions := Partitions(s.config.Rays, s.config.Workers)
	result := &Result{Partitions: partitions, Workers: len(partitions)}

	s.logger.Printf("Simulating %d rays from %v with %d workers (%s sampling, %s)\n",
		s.config.Rays, s.config.Source, len(partitions), s.config.Scheme, s.config.Policy)

	var progress atomic.Int64
	pool := NewWorkerPool(runCtx, s, len(partitions), len(partitions), &progress)
	pool.Start()
	for _, p := range partitions {
		pool.SubmitTask(PartitionTask{Partition: p, Attempt: 1})
	}

	stopProgress := s.reportProgress(&progress)

	completed := make([]PartitionResult, len(partitions))
	var failures []error
	for remaining := len(partitions); remaining > 0; remaining-- {
		res, ok := pool.GetResult()
		if !ok {
			break
		}

		if res.Err != nil {
			if res.Attempt < s.config.MaxAttempts && runCtx.Err() == nil {
				s.logger.Printf("Retrying %s (attempt %d of %d): %v\n",
					res.Partition, res.Attempt+1, s.config.MaxAttempts, firstLine(res.Err))
				pool.SubmitTask(PartitionTask{Partition: res.Partition, Attempt: res.Attempt + 1})
				remaining++
				continue
			}
			failures = append(failures, &PartitionError{Partition: res.Partition, Attempt: res.Attempt, Err: res.Err})
			cancel() // Stop the other partitions
			continue
		}

		completed[res.Partition.Index] = res
		if res.Cancelled {
			result.Cancelled = true
		}
	}

	stopProgress()
	pool.Stop()

	for _, res := range completed {
		result.Stats = result.Stats.Merge(res.Stats)
		result.Records = append(result.Records, res.Records...)
	}
	result.Elapsed = time.Since(start)

	if len(failures) > 0 {
		result.Cancelled = true
		return result, fmt.Errorf("simulation failed: %w", errors.Join(failures...))
	}
	// Only a partition that stopped early makes the run incomplete
	if result.Cancelled {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		s.logger.Printf("Simulation cancelled after %d of %d rays\n", result.Stats.Rays, s.config.Rays)
		return result, fmt.Errorf("simulation cancelled after %d of %d rays: %w", result.Stats.Rays, s.config.Rays, err)
	}

	s.logger.Printf("Simulation completed in %v\n", result.Elapsed)
	return result, nil
}

// reportProgress logs the traced ray count every ProgressInterval until the
// returned stop function is called
func (s *Simulator) reportProgress(progress *atomic.Int64) func() {
	if s.config.ProgressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(s.config.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				traced := progress.Load()
				percent := 0.0
				if s.config.Rays > 0 {
					percent = float64(traced) / float64(s.config.Rays) * 100
				}
				s.logger.Printf("Progress: %d/%d rays (%.1f%%)\n", traced, s.config.Rays, percent)
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

// firstLine trims panic stack traces from retry log lines
func firstLine(err error) string {
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
