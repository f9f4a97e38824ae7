// Package engine turns a raw metric snapshot into a 0-5 power reserve
// level: normalize each signal into a pressure value, transform it through
// a tunable sigmoid, take the worst component as the bottleneck, and band
// the result onto the discrete scale.
package engine

// Metric identifies one scored metric domain.
type Metric string

const (
	MetricCPUUsage       Metric = "cpu_usage"
	MetricCPUIOWait      Metric = "cpu_iowait"
	MetricCPULoad        Metric = "cpu_load"
	MetricMemoryUsage    Metric = "memory_usage"
	MetricMemoryPressure Metric = "memory_pressure"
	MetricSwapUsage      Metric = "swap_usage"
	MetricDiskIO         Metric = "disk_io"
	MetricNetworkUsage   Metric = "network_usage"
	MetricNetworkDropped Metric = "network_dropped"
	MetricFDUsage        Metric = "fd_usage"
	MetricProcessCount   Metric = "process_count"
)

// canonicalOrder fixes the component and bottleneck ordering so output is
// deterministic across runs regardless of collection order.
var canonicalOrder = []Metric{
	MetricCPUUsage,
	MetricCPUIOWait,
	MetricCPULoad,
	MetricMemoryUsage,
	MetricMemoryPressure,
	MetricSwapUsage,
	MetricDiskIO,
	MetricNetworkUsage,
	MetricNetworkDropped,
	MetricFDUsage,
	MetricProcessCount,
}

var metricLabels = map[Metric]string{
	MetricCPUUsage:       "CPU Usage",
	MetricCPUIOWait:      "CPU I/O Wait",
	MetricCPULoad:        "CPU Load",
	MetricMemoryUsage:    "Memory Usage",
	MetricMemoryPressure: "Memory Pressure",
	MetricSwapUsage:      "Swap Usage",
	MetricDiskIO:         "Disk I/O",
	MetricNetworkUsage:   "Network Usage",
	MetricNetworkDropped: "Network Dropped Packets",
	MetricFDUsage:        "File Descriptors",
	MetricProcessCount:   "Process Count",
}

// envKeys name the metric segment of the PWRZV_* override variables.
var envKeys = map[Metric]string{
	MetricCPUUsage:       "CPU_USAGE",
	MetricCPUIOWait:      "CPU_IOWAIT",
	MetricCPULoad:        "CPU_LOAD",
	MetricMemoryUsage:    "MEMORY_USAGE",
	MetricMemoryPressure: "MEMORY_PRESSURE",
	MetricSwapUsage:      "SWAP_USAGE",
	MetricDiskIO:         "DISK_IO",
	MetricNetworkUsage:   "NETWORK_USAGE",
	MetricNetworkDropped: "NETWORK_DROPPED",
	MetricFDUsage:        "FD",
	MetricProcessCount:   "PROCESS",
}

// Label returns the human-facing metric name.
func (m Metric) Label() string {
	if label, ok := metricLabels[m]; ok {
		return label
	}
	return string(m)
}

// Metrics returns all scored metrics in canonical order.
func Metrics() []Metric {
	out := make([]Metric, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}
