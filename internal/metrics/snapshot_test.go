package metrics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeSource returns canned values and can delay or fail individual
// domains to exercise Gather's isolation guarantees.
type fakeSource struct {
	cpuDelay      time.Duration
	cpuIgnoresCtx bool
	cpuErr        error
	diskErr       error
	memErr        error
	netErr        error
	fdErr         error
	procErr       error
}

func (f *fakeSource) Platform() string { return "fake" }

func (f *fakeSource) CPUStats(ctx context.Context) (CPUStats, error) {
	if f.cpuDelay > 0 {
		if f.cpuIgnoresCtx {
			// Simulates a read that cannot be interrupted, like a
			// wedged filesystem.
			time.Sleep(f.cpuDelay)
		} else {
			select {
			case <-time.After(f.cpuDelay):
			case <-ctx.Done():
				return CPUStats{}, ctx.Err()
			}
		}
	}
	if f.cpuErr != nil {
		return CPUStats{}, f.cpuErr
	}
	return CPUStats{Usage: ratio(0.4), IOWait: ratio(0.01), Load: ratio(0.8)}, nil
}

func (f *fakeSource) MemoryStats(ctx context.Context) (MemoryStats, error) {
	if f.memErr != nil {
		return MemoryStats{}, f.memErr
	}
	return MemoryStats{Available: ratio(0.6), Pressure: ratio(0.02), SwapUsed: ratio(0.1)}, nil
}

func (f *fakeSource) DiskBusy(ctx context.Context) (float64, error) {
	if f.diskErr != nil {
		return 0, f.diskErr
	}
	return 0.3, nil
}

func (f *fakeSource) NetworkStats(ctx context.Context) (NetworkStats, error) {
	if f.netErr != nil {
		return NetworkStats{}, f.netErr
	}
	return NetworkStats{Utilization: ratio(0.05), DropRatio: ratio(0.001)}, nil
}

func (f *fakeSource) FDUsage(ctx context.Context) (float64, error) {
	if f.fdErr != nil {
		return 0, f.fdErr
	}
	return 0.02, nil
}

func (f *fakeSource) ProcessCount(ctx context.Context) (float64, error) {
	if f.procErr != nil {
		return 0, f.procErr
	}
	return 0.15, nil
}

func TestGather_AllFields(t *testing.T) {
	snap := Gather(context.Background(), &fakeSource{}, DefaultGatherConfig())

	if snap.Platform != "fake" {
		t.Errorf("Platform = %q, want fake", snap.Platform)
	}
	if snap.CollectedAt.IsZero() {
		t.Error("CollectedAt not set")
	}
	if len(snap.Errors) != 0 {
		t.Errorf("Errors = %v, want none", snap.Errors)
	}

	checks := []struct {
		name  string
		field *float64
		want  float64
	}{
		{"CPUUsageRatio", snap.CPUUsageRatio, 0.4},
		{"CPUIOWaitRatio", snap.CPUIOWaitRatio, 0.01},
		{"CPULoadRatio", snap.CPULoadRatio, 0.8},
		{"MemoryAvailableRatio", snap.MemoryAvailableRatio, 0.6},
		{"MemoryPressureRatio", snap.MemoryPressureRatio, 0.02},
		{"SwapUsageRatio", snap.SwapUsageRatio, 0.1},
		{"DiskIOBusyRatio", snap.DiskIOBusyRatio, 0.3},
		{"NetworkUtilizationRatio", snap.NetworkUtilizationRatio, 0.05},
		{"NetworkDropRatio", snap.NetworkDropRatio, 0.001},
		{"FDUsageRatio", snap.FDUsageRatio, 0.02},
		{"ProcessCountRatio", snap.ProcessCountRatio, 0.15},
	}
	for _, c := range checks {
		if c.field == nil {
			t.Errorf("%s is nil", c.name)
			continue
		}
		if *c.field != c.want {
			t.Errorf("%s = %v, want %v", c.name, *c.field, c.want)
		}
	}
}

func TestGather_FailureIsolation(t *testing.T) {
	src := &fakeSource{diskErr: fmt.Errorf("diskstats gone: %w", ErrUnavailable)}
	snap := Gather(context.Background(), src, DefaultGatherConfig())

	if snap.DiskIOBusyRatio != nil {
		t.Errorf("DiskIOBusyRatio should be nil after failure, got %v", *snap.DiskIOBusyRatio)
	}
	// Every other domain still lands.
	if snap.CPUUsageRatio == nil || snap.MemoryAvailableRatio == nil || snap.FDUsageRatio == nil {
		t.Error("unrelated domains should survive a disk failure")
	}
	if len(snap.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", snap.Errors)
	}
	if !strings.HasPrefix(snap.Errors[0], "disk:") {
		t.Errorf("error should name its domain, got %q", snap.Errors[0])
	}
}

func TestGather_Timeout(t *testing.T) {
	src := &fakeSource{cpuDelay: time.Second}
	cfg := GatherConfig{OpTimeout: 20 * time.Millisecond}

	start := time.Now()
	snap := Gather(context.Background(), src, cfg)
	elapsed := time.Since(start)

	if snap.CPUUsageRatio != nil {
		t.Error("CPUUsageRatio should be nil after timeout")
	}
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], ErrTimeout.Error()) {
		t.Errorf("Errors = %v, want one timeout for cpu", snap.Errors)
	}
	// The slow op must not stall the whole pass.
	if elapsed > 500*time.Millisecond {
		t.Errorf("Gather took %v, timeout is not bounding the pass", elapsed)
	}
}

func TestGather_AbandonsHungOp(t *testing.T) {
	// The op never looks at its context; Gather must abandon it at the
	// deadline instead of waiting for it to return.
	src := &fakeSource{cpuDelay: 2 * time.Second, cpuIgnoresCtx: true}
	cfg := GatherConfig{OpTimeout: 20 * time.Millisecond}

	start := time.Now()
	snap := Gather(context.Background(), src, cfg)
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Fatalf("Gather took %v, must not wait out a hung op", elapsed)
	}
	if snap.CPUUsageRatio != nil {
		t.Error("CPUUsageRatio should be nil for an abandoned op")
	}
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], ErrTimeout.Error()) {
		t.Errorf("Errors = %v, want one cpu timeout", snap.Errors)
	}

	// The abandoned op finishes later; its late result must not land on
	// the snapshot the caller already holds.
	time.Sleep(2*time.Second + 100*time.Millisecond)
	if snap.CPUUsageRatio != nil {
		t.Error("late completion mutated the returned snapshot")
	}
}

func TestGather_ErrorsSorted(t *testing.T) {
	src := &fakeSource{
		diskErr: fmt.Errorf("boom: %w", ErrUnavailable),
		netErr:  fmt.Errorf("boom: %w", ErrUnavailable),
		fdErr:   fmt.Errorf("boom: %w", ErrUnavailable),
	}

	for run := 0; run < 20; run++ {
		snap := Gather(context.Background(), src, DefaultGatherConfig())
		if len(snap.Errors) != 3 {
			t.Fatalf("Errors = %v, want 3", snap.Errors)
		}
		for i := 1; i < len(snap.Errors); i++ {
			if snap.Errors[i-1] > snap.Errors[i] {
				t.Fatalf("run %d: errors not sorted: %v", run, snap.Errors)
			}
		}
	}
}

func TestGather_TotalUnavailability(t *testing.T) {
	src := &UnsupportedSource{GOOS: "plan9"}
	snap := Gather(context.Background(), src, DefaultGatherConfig())

	if snap.CPUUsageRatio != nil || snap.MemoryAvailableRatio != nil ||
		snap.DiskIOBusyRatio != nil || snap.NetworkDropRatio != nil ||
		snap.FDUsageRatio != nil || snap.ProcessCountRatio != nil {
		t.Error("unsupported source should yield an all-nil snapshot")
	}
	if len(snap.Errors) != 6 {
		t.Errorf("Errors = %v, want one per domain", snap.Errors)
	}
}

func TestDefaultGatherConfig(t *testing.T) {
	if got := DefaultGatherConfig().OpTimeout; got != 3*time.Second {
		t.Errorf("OpTimeout = %v, want 3s", got)
	}
}

func TestGather_ZeroTimeoutFallsBack(t *testing.T) {
	// A zero config must not make every op fail instantly.
	snap := Gather(context.Background(), &fakeSource{}, GatherConfig{})
	if len(snap.Errors) != 0 {
		t.Errorf("Errors = %v, want none with fallback timeout", snap.Errors)
	}
}
