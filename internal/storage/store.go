// Package storage persists streamline runs as per-run directories holding
// metadata JSON and the full per-step trace as CSV.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sroyc/windtrace/internal/streamline"
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

// RunMetadata describes one stored streamline run.
type RunMetadata struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	R0         float64   `json:"r_0"`
	Z0         float64   `json:"z_0"`
	Rho0       float64   `json:"rho_0"`
	VZ0        float64   `json:"v_z_0"`
	ForceModel string    `json:"force_model"`
	Status     string    `json:"status"`
	Escaped    bool      `json:"escaped"`
	Steps      int       `json:"steps"`
}

// Save writes a run's metadata and trace, returning the generated run ID.
func (s *Store) Save(cfg streamline.Config, status streamline.Status, escaped bool, hist *streamline.History) (string, error) {
	runID := fmt.Sprintf("line_%s", uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		R0:         cfg.R0,
		Z0:         cfg.Z0,
		Rho0:       cfg.Rho0,
		VZ0:        cfg.VZ0,
		ForceModel: cfg.ForceModel.String(),
		Status:     status.String(),
		Escaped:    escaped,
		Steps:      hist.Len(),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(streamline.Columns()); err != nil {
		return "", err
	}
	for i := 0; i < hist.Len(); i++ {
		row := hist.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns metadata for every stored run.
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

// Load reads a single run's metadata.
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

// LoadTrace reads a run's full per-step history back.
func (s *Store) LoadTrace(runID string) (*streamline.History, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trace for %s is empty", runID)
	}

	hist := &streamline.History{}
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("trace for %s: %w", runID, err)
			}
			row[j] = v
		}
		hist.AppendRow(row)
	}
	return hist, nil
}
