package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kookyleo/pwrzv/internal/engine"
)

// WriteJSON serializes the result as indented JSON.
func WriteJSON(w io.Writer, res *engine.DetailedResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
