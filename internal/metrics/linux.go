// Linux source: procfs/sysfs readers with two-point delta sampling for
// disk and network throughput.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// loadRatioCap bounds the per-core load ratio so one pathological reading
// cannot dominate the sigmoid domain.
const loadRatioCap = 10.0

// partitionRe matches partition names: sda1, nvme0n1p1, mmcblk0p2, etc.
var partitionRe = regexp.MustCompile(`^(sd[a-z]+|hd[a-z]+|vd[a-z]+)\d+$|^(nvme\d+n\d+)p\d+$|^(mmcblk\d+)p\d+$`)

// LinuxSource reads metrics from procfs and sysfs. The roots are injected
// so tests can point it at fixture trees.
type LinuxSource struct {
	procRoot       string
	sysRoot        string
	sampleInterval time.Duration
}

// NewLinuxSource creates a source rooted at the given procfs and sysfs
// mounts ("/proc" and "/sys" in production).
func NewLinuxSource(procRoot, sysRoot string) *LinuxSource {
	return &LinuxSource{
		procRoot:       procRoot,
		sysRoot:        sysRoot,
		sampleInterval: 250 * time.Millisecond,
	}
}

func (s *LinuxSource) Platform() string { return "linux" }

func (s *LinuxSource) CPUStats(ctx context.Context) (CPUStats, error) {
	var stats CPUStats

	statData, statErr := os.ReadFile(filepath.Join(s.procRoot, "stat"))
	if statErr == nil {
		usage, iowait, err := parseCPUStat(string(statData))
		if err == nil {
			stats.Usage = ratio(usage)
			stats.IOWait = ratio(iowait)
		}
	}

	loadData, loadErr := os.ReadFile(filepath.Join(s.procRoot, "loadavg"))
	if loadErr == nil {
		load1, err := parseLoadAvg(string(loadData))
		if err == nil {
			perCore := load1 / float64(runtime.NumCPU())
			stats.Load = ratio(min(perCore, loadRatioCap))
		}
	}

	if stats.Usage == nil && stats.Load == nil {
		return CPUStats{}, fmt.Errorf("cpu stats: %w", ErrUnavailable)
	}
	return stats, nil
}

func (s *LinuxSource) MemoryStats(ctx context.Context) (MemoryStats, error) {
	var stats MemoryStats

	memData, err := os.ReadFile(filepath.Join(s.procRoot, "meminfo"))
	if err != nil {
		return MemoryStats{}, fmt.Errorf("read meminfo: %w", ErrUnavailable)
	}
	available, swapUsed, err := parseMeminfo(string(memData))
	if err != nil {
		return MemoryStats{}, err
	}
	stats.Available = ratio(available)
	stats.SwapUsed = ratio(swapUsed)

	// PSI requires kernel >= 4.20; absence is not an error.
	if psiData, err := os.ReadFile(filepath.Join(s.procRoot, "pressure", "memory")); err == nil {
		if pressure, err := parseMemoryPressure(string(psiData)); err == nil {
			stats.Pressure = ratio(pressure)
		}
	}

	return stats, nil
}

func (s *LinuxSource) DiskBusy(ctx context.Context) (float64, error) {
	sample1, err := s.readDiskIOTime()
	if err != nil {
		return 0, err
	}

	if err := s.sleepInterval(ctx); err != nil {
		return 0, err
	}

	sample2, err := s.readDiskIOTime()
	if err != nil {
		return 0, err
	}

	intervalMs := float64(s.sampleInterval.Milliseconds())
	busy := 0.0
	found := false
	for name, t2 := range sample2 {
		t1, ok := sample1[name]
		if !ok || t2 < t1 {
			continue
		}
		found = true
		busy = max(busy, min(float64(t2-t1)/intervalMs, 1.0))
	}
	if !found {
		return 0, fmt.Errorf("no physical disks: %w", ErrUnavailable)
	}
	return busy, nil
}

func (s *LinuxSource) NetworkStats(ctx context.Context) (NetworkStats, error) {
	sample1, err := s.readNetDev()
	if err != nil {
		return NetworkStats{}, err
	}

	if err := s.sleepInterval(ctx); err != nil {
		return NetworkStats{}, err
	}

	sample2, err := s.readNetDev()
	if err != nil {
		return NetworkStats{}, err
	}

	var stats NetworkStats

	// Utilization: observed bits/sec against the advertised link speed.
	// Interfaces without a speed entry (virtual devices, some wifi
	// drivers) are skipped; if none advertises one, the metric stays nil.
	utilization := 0.0
	haveSpeed := false
	for name, n2 := range sample2 {
		n1, ok := sample1[name]
		if !ok {
			continue
		}
		speedMbps := s.readLinkSpeed(name)
		if speedMbps <= 0 {
			continue
		}
		haveSpeed = true
		deltaBytes := (n2.rxBytes - n1.rxBytes) + (n2.txBytes - n1.txBytes)
		bitsPerSec := float64(deltaBytes) * 8 / s.sampleInterval.Seconds()
		utilization = max(utilization, min(bitsPerSec/(speedMbps*1e6), 1.0))
	}
	if haveSpeed {
		stats.Utilization = ratio(utilization)
	}

	// Drop ratio uses the since-boot counters from the second read; only
	// interfaces with actual traffic count, so an idle bond port cannot
	// make the host look drop-free.
	var totalPackets, totalDropped uint64
	for _, n := range sample2 {
		packets := n.rxPackets + n.txPackets
		if packets == 0 {
			continue
		}
		totalPackets += packets
		totalDropped += n.rxDropped + n.txDropped
	}
	if totalPackets > 0 {
		stats.DropRatio = ratio(min(float64(totalDropped)/float64(totalPackets), 1.0))
	}

	if stats.Utilization == nil && stats.DropRatio == nil {
		return NetworkStats{}, fmt.Errorf("no active interfaces: %w", ErrUnavailable)
	}
	return stats, nil
}

func (s *LinuxSource) FDUsage(ctx context.Context) (float64, error) {
	data, err := os.ReadFile(filepath.Join(s.procRoot, "sys", "fs", "file-nr"))
	if err != nil {
		return 0, fmt.Errorf("read file-nr: %w", ErrUnavailable)
	}
	return parseFileNr(string(data))
}

func (s *LinuxSource) ProcessCount(ctx context.Context) (float64, error) {
	limitData, err := os.ReadFile(filepath.Join(s.procRoot, "sys", "kernel", "threads-max"))
	if err != nil {
		return 0, fmt.Errorf("read threads-max: %w", ErrUnavailable)
	}
	limit, err := strconv.ParseUint(strings.TrimSpace(string(limitData)), 10, 64)
	if err != nil || limit == 0 {
		return 0, fmt.Errorf("threads-max %q: %w", strings.TrimSpace(string(limitData)), ErrParse)
	}

	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return 0, fmt.Errorf("read proc: %w", ErrUnavailable)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err == nil {
			count++
		}
	}
	return min(float64(count)/float64(limit), loadRatioCap), nil
}

// sleepInterval waits one sample interval, honoring cancellation.
func (s *LinuxSource) sleepInterval(ctx context.Context) error {
	select {
	case <-time.After(s.sampleInterval):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readDiskIOTime returns io_time milliseconds per physical device.
func (s *LinuxSource) readDiskIOTime() (map[string]uint64, error) {
	data, err := os.ReadFile(filepath.Join(s.procRoot, "diskstats"))
	if err != nil {
		return nil, fmt.Errorf("read diskstats: %w", ErrUnavailable)
	}
	return parseDiskStats(string(data)), nil
}

type netDevCounters struct {
	rxBytes, rxPackets, rxDropped uint64
	txBytes, txPackets, txDropped uint64
}

func (s *LinuxSource) readNetDev() (map[string]netDevCounters, error) {
	data, err := os.ReadFile(filepath.Join(s.procRoot, "net", "dev"))
	if err != nil {
		return nil, fmt.Errorf("read net/dev: %w", ErrUnavailable)
	}
	return parseNetDev(string(data)), nil
}

// readLinkSpeed returns the interface speed in Mbps, or 0 if unknown.
func (s *LinuxSource) readLinkSpeed(iface string) float64 {
	data, err := os.ReadFile(filepath.Join(s.sysRoot, "class", "net", iface, "speed"))
	if err != nil {
		return 0
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || speed <= 0 {
		return 0
	}
	return speed
}

// --- parsing ---

// parseCPUStat computes (usage, iowait) ratios from the aggregate cpu line
// of /proc/stat. Usage counts everything except idle; iowait is carved out
// separately because it signals a different bottleneck.
func parseCPUStat(content string) (usage, iowait float64, err error) {
	line, _, _ := strings.Cut(content, "\n")
	fields := strings.Fields(line)
	if len(fields) < 8 || fields[0] != "cpu" {
		return 0, 0, fmt.Errorf("cpu line %q: %w", line, ErrParse)
	}

	var values [7]uint64
	for i := range values {
		values[i], err = strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("cpu field %d: %w", i+1, ErrParse)
		}
	}

	var total uint64
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("zero cpu time: %w", ErrParse)
	}

	idle := values[3]
	iowaitTicks := values[4]
	usage = clamp01(1.0 - float64(idle)/float64(total))
	iowait = clamp01(float64(iowaitTicks) / float64(total))
	return usage, iowait, nil
}

func parseLoadAvg(content string) (float64, error) {
	fields := strings.Fields(content)
	if len(fields) < 1 {
		return 0, fmt.Errorf("empty loadavg: %w", ErrParse)
	}
	load1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("loadavg %q: %w", fields[0], ErrParse)
	}
	return load1, nil
}

func parseMeminfo(content string) (available, swapUsed float64, err error) {
	var memTotal, memAvailable, swapTotal, swapFree uint64
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v, parseErr := strconv.ParseUint(fields[1], 10, 64)
		if parseErr != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			memTotal = v
		case "MemAvailable:":
			memAvailable = v
		case "SwapTotal:":
			swapTotal = v
		case "SwapFree:":
			swapFree = v
		}
	}

	if memTotal == 0 {
		return 0, 0, fmt.Errorf("no MemTotal: %w", ErrParse)
	}
	available = clamp01(float64(memAvailable) / float64(memTotal))

	// A swapless host has no swap pressure.
	if swapTotal > 0 && swapFree <= swapTotal {
		swapUsed = clamp01(float64(swapTotal-swapFree) / float64(swapTotal))
	}
	return available, swapUsed, nil
}

func parseMemoryPressure(content string) (float64, error) {
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "some ") {
			continue
		}
		for _, field := range strings.Fields(line)[1:] {
			value, ok := strings.CutPrefix(field, "avg10=")
			if !ok {
				continue
			}
			avg10, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return 0, fmt.Errorf("psi avg10 %q: %w", value, ErrParse)
			}
			return clamp01(avg10 / 100.0), nil
		}
	}
	return 0, fmt.Errorf("no psi some line: %w", ErrParse)
}

// parseDiskStats extracts io_time (field 13 of /proc/diskstats) for
// physical block devices, skipping partitions and virtual devices.
func parseDiskStats(content string) map[string]uint64 {
	ioTime := make(map[string]uint64)
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		name := fields[2]
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") ||
			strings.HasPrefix(name, "zram") || strings.HasPrefix(name, "dm-") ||
			strings.HasPrefix(name, "sr") || partitionRe.MatchString(name) {
			continue
		}
		v, err := strconv.ParseUint(fields[12], 10, 64)
		if err != nil {
			continue
		}
		ioTime[name] = v
	}
	return ioTime
}

func parseNetDev(content string) map[string]netDevCounters {
	counters := make(map[string]netDevCounters)
	lines := strings.Split(content, "\n")
	if len(lines) <= 2 {
		return counters
	}
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < 13 {
			continue
		}
		name := strings.TrimSuffix(fields[0], ":")
		if name == "lo" {
			continue
		}
		parse := func(idx int) uint64 {
			v, _ := strconv.ParseUint(fields[idx], 10, 64)
			return v
		}
		counters[name] = netDevCounters{
			rxBytes:   parse(1),
			rxPackets: parse(2),
			rxDropped: parse(4),
			txBytes:   parse(9),
			txPackets: parse(10),
			txDropped: parse(12),
		}
	}
	return counters
}

func parseFileNr(content string) (float64, error) {
	fields := strings.Fields(content)
	if len(fields) < 3 {
		return 0, fmt.Errorf("file-nr %q: %w", strings.TrimSpace(content), ErrParse)
	}
	used, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("file-nr used: %w", ErrParse)
	}
	limit, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil || limit == 0 {
		return 0, fmt.Errorf("file-nr max: %w", ErrParse)
	}
	return clamp01(float64(used) / float64(limit)), nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0.0), 1.0)
}
