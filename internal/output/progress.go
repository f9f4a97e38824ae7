package output

import (
	"fmt"
	"os"
	"time"
)

// Progress reports gathering and configuration messages on stderr, keeping
// stdout clean for the rendered result. Scripts consuming the terse level
// therefore never need to filter diagnostics out of the pipe.
type Progress struct {
	enabled bool
	verbose bool
	start   time.Time
}

// NewProgress creates a Progress reporter. Quiet mode passes enabled=false.
func NewProgress(enabled bool) *Progress {
	return &Progress{
		enabled: enabled,
		start:   time.Now(),
	}
}

// NewVerboseProgress additionally enables Debug output. Verbose implies
// enabled, so --verbose wins over --quiet.
func NewVerboseProgress(enabled, verbose bool) *Progress {
	return &Progress{
		enabled: enabled || verbose,
		verbose: verbose,
		start:   time.Now(),
	}
}

// Log prints a progress message if enabled.
func (p *Progress) Log(format string, args ...interface{}) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s\n", p.stamp(), fmt.Sprintf(format, args...))
}

// Debug prints a debug message if verbose is enabled.
func (p *Progress) Debug(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] DEBUG: %s\n", p.stamp(), fmt.Sprintf(format, args...))
}

// stamp is the elapsed time since the reporter was created. Relative
// stamps make one evaluation round readable at a glance; absolute times
// belong to the continuous-mode result lines, not the diagnostics.
func (p *Progress) stamp() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}
