package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Strategy    string             `json:"strategy"`
	Method      string             `json:"method"`
	G           float64            `json:"g"`
	T0          float64            `json:"t0"`
	T1          float64            `json:"t1"`
	Dt          float64            `json:"dt"`
	Bodies      []string           `json:"bodies"`
	Masses      []float64          `json:"masses"`
	Samples     int                `json:"samples"`
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected,omitempty"`
	EnergyDrift float64            `json:"energy_drift"`
	Diverged    bool               `json:"diverged,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// NewMetadata fills the result-derived fields of a run record.
func NewMetadata(name, strategy string, g float64, bodies []string, masses []float64, cfg sim.Config, res *sim.Result) RunMetadata {
	return RunMetadata{
		Name:        name,
		Strategy:    strategy,
		Method:      res.Method,
		G:           g,
		T0:          cfg.T0,
		T1:          cfg.T1,
		Dt:          cfg.Dt,
		Bodies:      append([]string(nil), bodies...),
		Masses:      append([]float64(nil), masses...),
		Samples:     res.Trajectory.Len(),
		Steps:       res.Stats.Steps,
		Rejected:    res.Stats.Rejected,
		EnergyDrift: res.EnergyDrift,
		Diverged:    res.Diverged,
		Metrics:     res.Metrics,
	}
}

// Save writes metadata.json and trajectory.csv into a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, tr *dynamo.Trajectory) (string, error) {
	now := time.Now()
	name := meta.Name
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, meta.Bodies, tr); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tr, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return tr, nil
}

// Header is the CSV header for the given body names: time followed by
// x, y, vx, vy per body.
func Header(names []string, numBodies int) []string {
	header := make([]string, 0, 1+dynamo.BodyStride*numBodies)
	header = append(header, "time")
	for i := 0; i < numBodies; i++ {
		name := fmt.Sprintf("body%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		header = append(header, name+"_x", name+"_y", name+"_vx", name+"_vy")
	}
	return header
}

// WriteCSV writes one row per sample with full float precision.
func WriteCSV(w io.Writer, names []string, tr *dynamo.Trajectory) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header(names, tr.NumBodies())); err != nil {
		return err
	}

	for k, state := range tr.States {
		row := make([]string, 0, 1+len(state))
		row = append(row, strconv.FormatFloat(tr.Times[k], 'g', -1, 64))
		for _, v := range state {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) (*dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	width := len(records[0]) - 1
	if width%dynamo.BodyStride != 0 {
		return nil, fmt.Errorf("header has %d state columns, want a multiple of %d", width, dynamo.BodyStride)
	}

	tr := dynamo.NewTrajectory(len(records) - 1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		state := make(dynamo.State, width)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[j+1], 64); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j+1, err)
			}
		}
		tr.Append(t, state)
	}
	return tr, nil
}
