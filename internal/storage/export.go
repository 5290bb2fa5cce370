package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fmusim/internal/fmu"
)

type ExportData struct {
	Model   string         `json:"model"`
	Inputs  map[string]any `json:"inputs"`
	Outputs map[string]any `json:"outputs"`
	Stats   fmu.Stats      `json:"stats,omitempty"`
}

// ExportJSON writes a single evaluation keyed by variable name.
func ExportJSON(w io.Writer, model string, inNames []string, inputs []float64, outNames []string, outputs []float64, stats fmu.Stats) error {
	data := ExportData{
		Model:   model,
		Inputs:  make(map[string]any, len(inNames)),
		Outputs: make(map[string]any, len(outNames)),
		Stats:   stats,
	}
	for i, n := range inNames {
		data.Inputs[n] = inputs[i]
	}
	for i, n := range outNames {
		data.Outputs[n] = outputs[i]
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
