// Package output renders evaluation results in the supported formats
// and handles progress reporting on stderr.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kookyleo/pwrzv/internal/engine"
)

// Format names a supported serialization of the result.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Write renders the result in the given format. If path is "-" or empty,
// it writes to stdout.
func Write(res *engine.DetailedResult, path string, format Format) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatYAML:
		return WriteYAML(w, res)
	default:
		return WriteText(w, res)
	}
}

// WriteText renders a human-readable report.
func WriteText(w io.Writer, res *engine.DetailedResult) error {
	fmt.Fprintf(w, "Power Reserve: %d (%s)\n", res.Level, res.LevelLabel)
	fmt.Fprintf(w, "Platform: %s\n", res.Platform)
	fmt.Fprintf(w, "Overall Score: %.4f\n", res.Overall)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Components:")
	for _, c := range res.Components {
		marker := " "
		if isBottleneck(res.Bottlenecks, c.Name) {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-24s %.2f / 5.00\n", marker, c.Label+":", c.Points)
	}

	if len(res.Bottlenecks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Bottleneck: %s\n", strings.Join(res.Bottlenecks, ", "))
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}
	return nil
}

// WriteLevel prints just the numeric level, for the non-detailed mode.
func WriteLevel(w io.Writer, res *engine.DetailedResult) error {
	_, err := fmt.Fprintf(w, "%d\n", res.Level)
	return err
}

func isBottleneck(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
