// Darwin source: gopsutil readers plus vm_stat/sysctl for the counters
// gopsutil does not expose on macOS.
package metrics

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// DarwinSource reads metrics through gopsutil where it can and shells out
// to vm_stat/sysctl for compressor and limit counters.
type DarwinSource struct {
	runner         CommandRunner
	sampleInterval time.Duration
}

// NewDarwinSource creates a darwin source using os/exec for commands.
func NewDarwinSource() *DarwinSource {
	return &DarwinSource{
		runner:         &ExecCommandRunner{},
		sampleInterval: 250 * time.Millisecond,
	}
}

func (s *DarwinSource) Platform() string { return "darwin" }

func (s *DarwinSource) CPUStats(ctx context.Context) (CPUStats, error) {
	var stats CPUStats

	times, err := cpu.TimesWithContext(ctx, false)
	if err == nil && len(times) > 0 {
		total := times[0].Total()
		if total > 0 {
			stats.Usage = ratio(clamp01(1.0 - times[0].Idle/total))
		}
	}
	// iowait is not accounted on darwin; the field stays nil.

	avg, err := load.AvgWithContext(ctx)
	if err == nil {
		perCore := avg.Load1 / float64(runtime.NumCPU())
		stats.Load = ratio(min(perCore, loadRatioCap))
	}

	if stats.Usage == nil && stats.Load == nil {
		return CPUStats{}, fmt.Errorf("cpu stats: %w", ErrUnavailable)
	}
	return stats, nil
}

func (s *DarwinSource) MemoryStats(ctx context.Context) (MemoryStats, error) {
	var stats MemoryStats

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm.Total == 0 {
		return MemoryStats{}, fmt.Errorf("virtual memory: %w", ErrUnavailable)
	}
	stats.Available = ratio(clamp01(float64(vm.Available) / float64(vm.Total)))

	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		stats.SwapUsed = ratio(clamp01(swap.UsedPercent / 100.0))
	}

	// Compressor pressure comes from vm_stat; a failure there leaves only
	// this field nil.
	if out, err := s.runner.Run(ctx, "vm_stat"); err == nil {
		if compressed, err := parseVMStat(string(out)); err == nil {
			stats.Pressure = ratio(compressed)
		}
	}

	return stats, nil
}

func (s *DarwinSource) DiskBusy(ctx context.Context) (float64, error) {
	sample1, err := disk.IOCountersWithContext(ctx)
	if err != nil || len(sample1) == 0 {
		return 0, fmt.Errorf("disk counters: %w", ErrUnavailable)
	}

	select {
	case <-time.After(s.sampleInterval):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	sample2, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("disk counters: %w", ErrUnavailable)
	}

	intervalMs := float64(s.sampleInterval.Milliseconds())
	busy := 0.0
	for name, c2 := range sample2 {
		c1, ok := sample1[name]
		if !ok || c2.IoTime < c1.IoTime {
			continue
		}
		busy = max(busy, min(float64(c2.IoTime-c1.IoTime)/intervalMs, 1.0))
	}
	return busy, nil
}

func (s *DarwinSource) NetworkStats(ctx context.Context) (NetworkStats, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil || len(counters) == 0 {
		return NetworkStats{}, fmt.Errorf("net counters: %w", ErrUnavailable)
	}

	// Link speed is not discoverable here, so bandwidth utilization stays
	// nil rather than being guessed against an assumed card.
	dropRatio, ok := dropRatioFromCounters(counters)
	if !ok {
		return NetworkStats{}, fmt.Errorf("no network traffic: %w", ErrUnavailable)
	}
	return NetworkStats{DropRatio: ratio(dropRatio)}, nil
}

// dropRatioFromCounters aggregates dropped packets over total packets
// across real interfaces. Loopback is excluded so localhost-heavy hosts
// cannot dilute the ratio, and idle interfaces are skipped.
func dropRatioFromCounters(counters []net.IOCountersStat) (float64, bool) {
	var totalPackets, totalDropped uint64
	for _, c := range counters {
		if strings.HasPrefix(c.Name, "lo") {
			continue
		}
		packets := c.PacketsRecv + c.PacketsSent
		if packets == 0 {
			continue
		}
		totalPackets += packets
		totalDropped += c.Dropin + c.Dropout
	}
	if totalPackets == 0 {
		return 0, false
	}
	return min(float64(totalDropped)/float64(totalPackets), 1.0), true
}

func (s *DarwinSource) FDUsage(ctx context.Context) (float64, error) {
	open, err := s.sysctlUint(ctx, "kern.num_files")
	if err != nil {
		return 0, err
	}
	limit, err := s.sysctlUint(ctx, "kern.maxfiles")
	if err != nil {
		return 0, err
	}
	if limit == 0 {
		return 0, fmt.Errorf("kern.maxfiles is zero: %w", ErrParse)
	}
	return clamp01(float64(open) / float64(limit)), nil
}

func (s *DarwinSource) ProcessCount(ctx context.Context) (float64, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pids: %w", ErrUnavailable)
	}
	limit, err := s.sysctlUint(ctx, "kern.maxproc")
	if err != nil {
		return 0, err
	}
	if limit == 0 {
		return 0, fmt.Errorf("kern.maxproc is zero: %w", ErrParse)
	}
	return min(float64(len(pids))/float64(limit), loadRatioCap), nil
}

func (s *DarwinSource) sysctlUint(ctx context.Context, key string) (uint64, error) {
	out, err := s.runner.Run(ctx, "sysctl", "-n", key)
	if err != nil {
		return 0, fmt.Errorf("sysctl %s: %w", key, ErrUnavailable)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sysctl %s %q: %w", key, strings.TrimSpace(string(out)), ErrParse)
	}
	return v, nil
}

// parseVMStat computes the compressor share of physical pages from vm_stat
// output ("Pages occupied by compressor: 60000.").
func parseVMStat(content string) (float64, error) {
	pages := make(map[string]uint64)
	for _, line := range strings.Split(content, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(value), "."), 10, 64)
		if err != nil {
			continue
		}
		pages[strings.TrimSpace(name)] = v
	}

	compressor := pages["Pages occupied by compressor"]
	total := pages["Pages free"] + pages["Pages active"] + pages["Pages inactive"] +
		pages["Pages speculative"] + pages["Pages wired down"] + compressor
	if total == 0 {
		return 0, fmt.Errorf("vm_stat reported no pages: %w", ErrParse)
	}
	return clamp01(float64(compressor) / float64(total)), nil
}
