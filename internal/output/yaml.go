package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kookyleo/pwrzv/internal/engine"
)

// WriteYAML serializes the result as YAML.
func WriteYAML(w io.Writer, res *engine.DetailedResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return nil
}
