package metrics

import (
	"context"
	"fmt"
	"runtime"
)

// Detect returns the metric source for the current platform, chosen once at
// process start. Unsupported platforms fail here, before any scoring
// attempt.
func Detect() (Source, error) {
	switch runtime.GOOS {
	case "linux":
		return NewLinuxSource("/proc", "/sys"), nil
	case "darwin":
		return NewDarwinSource(), nil
	default:
		return nil, &UnsupportedPlatformError{Platform: runtime.GOOS}
	}
}

// UnsupportedSource is the capability variant for platforms where no metric
// can be produced. Every operation fails with ErrUnavailable.
type UnsupportedSource struct {
	GOOS string
}

func (s *UnsupportedSource) Platform() string { return s.GOOS }

func (s *UnsupportedSource) CPUStats(ctx context.Context) (CPUStats, error) {
	return CPUStats{}, s.unavailable("cpu")
}

func (s *UnsupportedSource) MemoryStats(ctx context.Context) (MemoryStats, error) {
	return MemoryStats{}, s.unavailable("memory")
}

func (s *UnsupportedSource) DiskBusy(ctx context.Context) (float64, error) {
	return 0, s.unavailable("disk")
}

func (s *UnsupportedSource) NetworkStats(ctx context.Context) (NetworkStats, error) {
	return NetworkStats{}, s.unavailable("network")
}

func (s *UnsupportedSource) FDUsage(ctx context.Context) (float64, error) {
	return 0, s.unavailable("fd")
}

func (s *UnsupportedSource) ProcessCount(ctx context.Context) (float64, error) {
	return 0, s.unavailable("process")
}

func (s *UnsupportedSource) unavailable(domain string) error {
	return fmt.Errorf("%s on %s: %w", domain, s.GOOS, ErrUnavailable)
}
