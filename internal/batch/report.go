package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReportEntry represents one converted file in report.json.
type ReportEntry struct {
	File      string   `json:"file"`
	Vertices  int      `json:"vertices"`
	Triangles int      `json:"triangles"`
	Chunks    int      `json:"chunks"`
	Outputs   []string `json:"outputs,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// WriteReport writes the results as JSON. Output paths are stored relative
// to the report's directory.
func WriteReport(path string, results []Result) error {
	dir := filepath.Dir(path)
	entries := make([]ReportEntry, len(results))
	for i, r := range results {
		e := ReportEntry{
			File:      r.File,
			Vertices:  r.Vertices,
			Triangles: r.Triangles,
			Chunks:    r.Chunks,
			Error:     r.Error,
		}
		for _, out := range r.Outputs {
			if rel, err := filepath.Rel(dir, out); err == nil {
				out = filepath.ToSlash(rel)
			}
			e.Outputs = append(e.Outputs, out)
		}
		entries[i] = e
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
