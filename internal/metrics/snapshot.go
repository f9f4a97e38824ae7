package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Snapshot is the atomic result of one collection pass. All metric fields
// are optional: nil means the signal was unavailable on this host at this
// instant. A Snapshot is never mutated after Gather returns it.
type Snapshot struct {
	Platform    string
	CollectedAt time.Time

	CPUUsageRatio           *float64
	CPUIOWaitRatio          *float64
	CPULoadRatio            *float64
	MemoryAvailableRatio    *float64
	MemoryPressureRatio     *float64
	SwapUsageRatio          *float64
	DiskIOBusyRatio         *float64
	NetworkUtilizationRatio *float64
	NetworkDropRatio        *float64
	FDUsageRatio            *float64
	ProcessCountRatio       *float64

	// Errors records per-domain failures for diagnostics. Sorted for
	// deterministic output; failures here never abort the evaluation.
	Errors []string
}

// GatherConfig bounds the collection pass.
type GatherConfig struct {
	// OpTimeout caps each domain read. Default 3s.
	OpTimeout time.Duration
}

// DefaultGatherConfig returns the default collection bounds.
func DefaultGatherConfig() GatherConfig {
	return GatherConfig{OpTimeout: 3 * time.Second}
}

// gatherOp reads one metric domain and, on success, returns the function
// that merges its values into the snapshot. Keeping the merge separate
// means an abandoned op can never write anything.
type gatherOp func(context.Context) (func(*Snapshot), error)

// Gather runs all source operations in parallel, each bounded by
// cfg.OpTimeout, and joins the results into one Snapshot. A failed
// operation leaves its fields nil and records the failure in
// Snapshot.Errors. An operation that ignores its context and hangs (a
// wedged procfs mount, a stuck external command) is abandoned at the
// deadline: its fields stay nil, ErrTimeout is recorded, and the pass
// moves on. Gather itself never fails; a snapshot with every field nil is
// the caller's signal that nothing was collectable.
func Gather(ctx context.Context, src Source, cfg GatherConfig) *Snapshot {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 3 * time.Second
	}

	snap := &Snapshot{
		Platform:    src.Platform(),
		CollectedAt: time.Now(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	// fail records a domain failure; timeouts are normalized to ErrTimeout
	// so callers see the typed kind, not context plumbing.
	fail := func(domain string, err error) {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		mu.Lock()
		snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", domain, err))
		mu.Unlock()
	}

	type outcome struct {
		apply func(*Snapshot)
		err   error
	}

	run := func(domain string, op gatherOp) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout)
			defer cancel()

			done := make(chan outcome, 1)
			go func() {
				apply, err := op(opCtx)
				done <- outcome{apply: apply, err: err}
			}()

			select {
			case out := <-done:
				if out.err != nil {
					fail(domain, out.err)
					return
				}
				mu.Lock()
				out.apply(snap)
				mu.Unlock()
			case <-opCtx.Done():
				fail(domain, opCtx.Err())
			}
		}()
	}

	run("cpu", func(ctx context.Context) (func(*Snapshot), error) {
		stats, err := src.CPUStats(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.CPUUsageRatio = stats.Usage
			s.CPUIOWaitRatio = stats.IOWait
			s.CPULoadRatio = stats.Load
		}, nil
	})

	run("memory", func(ctx context.Context) (func(*Snapshot), error) {
		stats, err := src.MemoryStats(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.MemoryAvailableRatio = stats.Available
			s.MemoryPressureRatio = stats.Pressure
			s.SwapUsageRatio = stats.SwapUsed
		}, nil
	})

	run("disk", func(ctx context.Context) (func(*Snapshot), error) {
		busy, err := src.DiskBusy(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.DiskIOBusyRatio = &busy
		}, nil
	})

	run("network", func(ctx context.Context) (func(*Snapshot), error) {
		stats, err := src.NetworkStats(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.NetworkUtilizationRatio = stats.Utilization
			s.NetworkDropRatio = stats.DropRatio
		}, nil
	})

	run("fd", func(ctx context.Context) (func(*Snapshot), error) {
		usage, err := src.FDUsage(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.FDUsageRatio = &usage
		}, nil
	})

	run("process", func(ctx context.Context) (func(*Snapshot), error) {
		count, err := src.ProcessCount(ctx)
		if err != nil {
			return nil, err
		}
		return func(s *Snapshot) {
			s.ProcessCountRatio = &count
		}, nil
	})

	wg.Wait()
	sort.Strings(snap.Errors)
	return snap
}
