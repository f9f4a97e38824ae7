// Package metrics defines the Source contract that every platform-specific
// metric provider must implement, and gathers one immutable Snapshot per
// evaluation from it.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Sentinel failure kinds for single metric operations. A failed operation
// makes that metric unavailable for the evaluation; it never aborts the
// snapshot as a whole.
var (
	// ErrUnavailable means the signal cannot be produced on this host
	// (missing /proc file, unsupported command, no matching devices).
	ErrUnavailable = errors.New("metric unavailable")

	// ErrTimeout means the read exceeded its per-operation deadline.
	ErrTimeout = errors.New("metric collection timed out")

	// ErrParse means the data was read but could not be interpreted.
	ErrParse = errors.New("malformed metric data")
)

// UnsupportedPlatformError is returned by Detect on platforms where no
// source can produce any metric. It is surfaced before any scoring attempt.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s (only linux and darwin are supported)", e.Platform)
}

// CPUStats holds the CPU domain readings. nil fields are unavailable.
type CPUStats struct {
	// Usage is the non-idle share of CPU time, in [0,1].
	Usage *float64
	// IOWait is the iowait share of CPU time, in [0,1]. Linux only.
	IOWait *float64
	// Load is the 1-minute load average divided by the core count.
	// Unbounded: values above 1.0 mean tasks are queuing.
	Load *float64
}

// MemoryStats holds the memory domain readings. nil fields are unavailable.
type MemoryStats struct {
	// Available is MemAvailable/MemTotal, in [0,1].
	Available *float64
	// Pressure is PSI "some avg10"/100 on Linux, or the compressor page
	// share on darwin, in [0,1].
	Pressure *float64
	// SwapUsed is the used share of swap, in [0,1]. 0 on swapless hosts.
	SwapUsed *float64
}

// NetworkStats holds the network domain readings. nil fields are unavailable.
type NetworkStats struct {
	// Utilization is observed throughput over advertised link speed, in [0,1].
	Utilization *float64
	// DropRatio is dropped packets over total packets, in [0,1].
	DropRatio *float64
}

// Source produces raw metric readings for one platform. Each operation
// covers one metric domain and returns either usable numbers or a typed
// failure (ErrUnavailable, ErrTimeout, ErrParse). Implementations must
// honor ctx cancellation on every blocking read.
type Source interface {
	// Platform returns the source identifier: "linux", "darwin", or the
	// GOOS value for the unsupported variant.
	Platform() string

	// CPUStats reads usage, iowait, and per-core load.
	CPUStats(ctx context.Context) (CPUStats, error)

	// MemoryStats reads availability, pressure, and swap usage.
	MemoryStats(ctx context.Context) (MemoryStats, error)

	// DiskBusy reads the busiest device's I/O busy ratio, in [0,1].
	DiskBusy(ctx context.Context) (float64, error)

	// NetworkStats reads bandwidth utilization and packet drop ratio.
	NetworkStats(ctx context.Context) (NetworkStats, error)

	// FDUsage reads open file descriptors over the system limit, in [0,1].
	FDUsage(ctx context.Context) (float64, error)

	// ProcessCount reads the process count over the system limit.
	// Unbounded: capped by implementations at a sane maximum.
	ProcessCount(ctx context.Context) (float64, error)
}

// CommandRunner abstracts external command execution for testability.
type CommandRunner interface {
	// Run executes a command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandRunner is the default CommandRunner using os/exec.
type ExecCommandRunner struct{}

func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func ratio(v float64) *float64 { return &v }
