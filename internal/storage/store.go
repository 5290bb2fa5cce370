package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/fmusim/internal/fmu"
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

// RunMetadata describes a stored batch of evaluations.
type RunMetadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    []string  `json:"inputs"`
	Outputs   []string  `json:"outputs"`
	Points    int       `json:"points"`
	Failed    int       `json:"failed"`
}

// Run is what gets saved: the evaluated points of one driver.
type Run struct {
	Model   string
	Kind    string
	Inputs  []string
	Outputs []string
	Results []fmu.Result
}

// Save writes metadata.json, outputs.csv and stats.json into a new run
// directory and returns its id.
func (s *Store) Save(run Run) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", sanitize(run.Model), run.Kind, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     run.Model,
		Kind:      run.Kind,
		Timestamp: now,
		Inputs:    run.Inputs,
		Outputs:   run.Outputs,
		Points:    len(run.Results),
	}
	stats := make([]fmu.Stats, len(run.Results))
	for i, r := range run.Results {
		if r.Err != nil {
			meta.Failed++
		}
		stats[i] = r.Stats
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "stats.json"), stats); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "outputs.csv"), run); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, run Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append(append([]string{}, run.Inputs...), run.Outputs...)
	header = append(header, "error")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range run.Results {
		row := make([]string, 0, len(header))
		for _, v := range r.Inputs {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for j := range run.Outputs {
			if r.Err != nil || j >= len(r.Outputs) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(r.Outputs[j], 'g', -1, 64))
		}
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		row = append(row, msg)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResults reads back the points of a run. Failed points have nil outputs.
func (s *Store) LoadResults(runID string) ([]fmu.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "outputs.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []fmu.Result{}, nil
	}

	nIn, nOut := len(meta.Inputs), len(meta.Outputs)
	results := make([]fmu.Result, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != nIn+nOut+1 {
			return nil, fmt.Errorf("storage: %s: malformed row %v", runID, record)
		}
		res := fmu.Result{Inputs: parseFloats(record[:nIn])}
		if msg := record[nIn+nOut]; msg != "" {
			res.Err = errorString(msg)
		} else {
			res.Outputs = parseFloats(record[nIn : nIn+nOut])
		}
		results = append(results, res)
	}
	return results, nil
}

// LoadStats reads back the diagnostic records of a run.
func (s *Store) LoadStats(runID string) ([]map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "stats.json"))
	if err != nil {
		return nil, err
	}
	var stats []map[string]any
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

type errorString string

func (e errorString) Error() string { return string(e) }

func parseFloats(fields []string) []float64 {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		out[i] = v
	}
	return out
}

func sanitize(name string) string {
	return strings.NewReplacer(".", "_", "/", "_", " ", "_").Replace(name)
}
