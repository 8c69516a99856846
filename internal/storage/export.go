package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

func NewExportData(meta RunMetadata, tr *dynamo.Trajectory) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Times:       tr.Times,
		States:      make([][]float64, len(tr.States)),
	}
	for i, s := range tr.States {
		data.States[i] = s
	}
	return data
}

func WriteJSON(w io.Writer, meta RunMetadata, tr *dynamo.Trajectory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, tr))
}

// ExportJSON writes the run to path, or to stdout when path is "-".
func ExportJSON(path string, meta RunMetadata, tr *dynamo.Trajectory) error {
	if path == "-" {
		return WriteJSON(os.Stdout, meta, tr)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, tr)
}

// ExportCSV writes the trajectory to path, or to stdout when path is "-".
func ExportCSV(path string, names []string, tr *dynamo.Trajectory) error {
	if path == "-" {
		return WriteCSV(os.Stdout, names, tr)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, names, tr)
}
