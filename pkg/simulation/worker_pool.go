package simulation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/df07/go-twobounce/pkg/core"
	"github.com/df07/go-twobounce/pkg/trace"
)

// progressBatch is how many rays a worker traces between progress updates
const progressBatch = 1024

// PartitionTask asks a worker to trace every ray of one partition
type PartitionTask struct {
	Partition Partition
	Attempt   int // 1 for the first execution
}

// PartitionResult contains the result from tracing a partition
type PartitionResult struct {
	Partition Partition
	Attempt   int
	Worker    int
	Stats     Stats
	Records   []Record // Ledger entries in increasing ray order
	Cancelled bool     // The run was cancelled before the partition finished
	Err       error    // Set when the partition failed; Stats and Records are then empty
}

// WorkerPool runs partition tasks on a fixed set of goroutines
type WorkerPool struct {
	taskQueue   chan PartitionTask
	resultQueue chan PartitionResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker traces the partitions it receives, one at a time
type Worker struct {
	ID          int
	sim         *Simulator
	ctx         context.Context
	progress    *atomic.Int64
	taskQueue   chan PartitionTask
	resultQueue chan PartitionResult
}

// NewWorkerPool creates a pool able to hold every partition in flight
func NewWorkerPool(ctx context.Context, sim *Simulator, numWorkers, numPartitions int, progress *atomic.Int64) *WorkerPool {
	wp := &WorkerPool{
		taskQueue:   make(chan PartitionTask, numPartitions),
		resultQueue: make(chan PartitionResult, numPartitions),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			sim:         sim,
			ctx:         ctx,
			progress:    progress,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}
	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a partition task to the worker pool
func (wp *WorkerPool) SubmitTask(task PartitionTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed partition result
func (wp *WorkerPool) GetResult() (PartitionResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.trace(task)
	}
}

// trace runs one partition. A panic inside the kernel becomes the result's
// error and the partition's partial output is dropped.
func (w *Worker) trace(task PartitionTask) (result PartitionResult) {
	result = PartitionResult{Partition: task.Partition, Attempt: task.Attempt, Worker: w.ID}
	var reported int64

	defer func() {
		if r := recover(); r != nil {
			w.progress.Add(-reported)
			result.Stats = Stats{}
			result.Records = nil
			result.Cancelled = false
			result.Err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	cfg := &w.sim.config
	scene := w.sim.tracer.Scene
	sampler := core.NewIndexedSampler(cfg.Seed)
	done := w.ctx.Done()
	var buf []int
	pending := int64(0)

	for i := task.Partition.Start; i < task.Partition.End; i++ {
		select {
		case <-done:
			result.Cancelled = true
			w.progress.Add(pending)
			return result
		default:
		}

		sampler.Reset(uint64(i))
		direction := cfg.Scheme.Direction(sampler.Get2D())

		first, second, scratch := w.sim.kernel(cfg.Source, direction, buf)
		buf = scratch

		critical := first.Critical(scene) || second.Critical(scene)
		result.Stats.Record(first.Found || second.Found, critical)
		if critical {
			for bounce, hit := range [2]trace.Hit{first, second} {
				if hit.Found {
					result.Records = append(result.Records, newRecord(scene, i, bounce, hit, cfg.LedgerCoords))
				}
			}
		}

		pending++
		if pending == progressBatch {
			w.progress.Add(pending)
			reported += pending
			pending = 0
		}
	}

	w.progress.Add(pending)
	return result
}
