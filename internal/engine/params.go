package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Table holds the resolved sigmoid parameters for every metric on one
// platform. Resolve returns a fresh copy each time, so a Table handed to an
// evaluation is never mutated underneath it.
type Table map[Metric]Sigmoid

// linuxDefaults is tuned for server-style Linux hosts: iowait and packet
// drops bite early and hard, plain CPU usage is tolerated up to a high
// midpoint.
var linuxDefaults = Table{
	MetricCPUUsage:       {Midpoint: 0.65, Steepness: 8},
	MetricCPUIOWait:      {Midpoint: 0.20, Steepness: 20},
	MetricCPULoad:        {Midpoint: 1.2, Steepness: 5},
	MetricMemoryUsage:    {Midpoint: 0.85, Steepness: 18},
	MetricMemoryPressure: {Midpoint: 0.30, Steepness: 12},
	MetricSwapUsage:      {Midpoint: 0.50, Steepness: 10},
	MetricDiskIO:         {Midpoint: 0.70, Steepness: 10},
	MetricNetworkUsage:   {Midpoint: 0.90, Steepness: 10},
	MetricNetworkDropped: {Midpoint: 0.02, Steepness: 100},
	MetricFDUsage:        {Midpoint: 0.90, Steepness: 25},
	MetricProcessCount:   {Midpoint: 0.80, Steepness: 12},
}

// darwinDefaults is tuned independently: desktop workloads tolerate less
// sustained CPU, and memory health shows up in the compressor before
// anything else.
var darwinDefaults = Table{
	MetricCPUUsage:       {Midpoint: 0.60, Steepness: 8},
	MetricCPUIOWait:      {Midpoint: 0.20, Steepness: 20},
	MetricCPULoad:        {Midpoint: 1.2, Steepness: 5},
	MetricMemoryUsage:    {Midpoint: 0.85, Steepness: 20},
	MetricMemoryPressure: {Midpoint: 0.60, Steepness: 15},
	MetricSwapUsage:      {Midpoint: 0.55, Steepness: 12},
	MetricDiskIO:         {Midpoint: 0.75, Steepness: 10},
	MetricNetworkUsage:   {Midpoint: 0.90, Steepness: 10},
	MetricNetworkDropped: {Midpoint: 0.02, Steepness: 100},
	MetricFDUsage:        {Midpoint: 0.90, Steepness: 30},
	MetricProcessCount:   {Midpoint: 0.80, Steepness: 12},
}

// Warning records one rejected override. The evaluation proceeds on the
// default; the warning is carried into the result for the caller to render.
type Warning struct {
	Variable string
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (using default)", w.Variable, w.Reason)
}

// envPlatformKey maps a Source platform name to its segment in the
// override variable names (PWRZV_LINUX_*, PWRZV_MACOS_*).
func envPlatformKey(platform string) string {
	if platform == "darwin" {
		return "MACOS"
	}
	return strings.ToUpper(platform)
}

// Resolve builds the parameter table for a platform: compiled-in default,
// overridden per metric by PWRZV_<PLATFORM>_<METRIC>_MIDPOINT and
// ..._STEEPNESS. Overrides are re-read on every call because the CLI is
// short-lived; callers wanting a process-wide cache must swap whole tables,
// never mutate one in place.
//
// A missing default table entry would be a configuration-integrity bug, not
// a runtime condition; the tables above are complete by construction and
// pinned by tests.
func Resolve(platform string) (Table, []Warning) {
	defaults := linuxDefaults
	if platform == "darwin" {
		defaults = darwinDefaults
	}

	table := make(Table, len(defaults))
	var warnings []Warning
	prefix := "PWRZV_" + envPlatformKey(platform) + "_"

	// Canonical iteration keeps the warning order stable across runs.
	for _, metric := range canonicalOrder {
		def := defaults[metric]
		params := def
		key := prefix + envKeys[metric]

		if v, w := overrideValue(key+"_MIDPOINT", def.Midpoint); w != nil {
			warnings = append(warnings, *w)
		} else {
			params.Midpoint = v
		}
		if v, w := overrideValue(key+"_STEEPNESS", def.Steepness); w != nil {
			warnings = append(warnings, *w)
		} else {
			params.Steepness = v
		}

		table[metric] = params
	}
	return table, warnings
}

// overrideValue reads one override variable. Unset means "use the default";
// non-numeric or non-positive values are reportable configuration errors,
// never silently substituted.
func overrideValue(variable string, def float64) (float64, *Warning) {
	raw, ok := os.LookupEnv(variable)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return def, &Warning{Variable: variable, Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	if v <= 0 {
		return def, &Warning{Variable: variable, Reason: fmt.Sprintf("must be positive, got %v", v)}
	}
	return v, nil
}
