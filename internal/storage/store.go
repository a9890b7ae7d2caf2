package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/cumd/internal/energy"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
)

var energiesHeader = []string{"step", "time_fs", "epot", "ekin", "temperature", "etot"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	Symbol      string    `json:"symbol"`
	Atoms       int       `json:"atoms"`
	Size        int       `json:"size"`
	Potential   string    `json:"potential"`
	Integrator  string    `json:"integrator"`
	TimestepFs  float64   `json:"timestep_fs"`
	Temperature float64   `json:"temperature"`
	Seed        uint64    `json:"seed"`
	Steps       int       `json:"steps"`
	Reports     int       `json:"reports"`
	Frames      int       `json:"frames"`
	Trajectory  string    `json:"trajectory,omitempty"`
	EnergyDrift float64   `json:"energy_drift"`
	Elapsed     string    `json:"elapsed,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ReportRow is one line of energies.csv.
type ReportRow struct {
	Step   int
	TimeFs float64
	energy.Report
}

// Run is an open run directory receiving energy reports.
type Run struct {
	meta RunMetadata
	dir  string
	file *os.File
	csv  *csv.Writer
}

// Create allocates a new run directory and writes its initial metadata.
func (s *Store) Create(meta RunMetadata) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_%d", meta.Symbol, time.Now().Unix())
	runID := base
	runDir := filepath.Join(s.baseDir, runID)
	for i := 2; ; i++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Status = "running"

	file, err := os.Create(filepath.Join(runDir, energiesFile))
	if err != nil {
		return nil, err
	}
	r := &Run{meta: meta, dir: runDir, file: file, csv: csv.NewWriter(file)}

	if err := r.csv.Write(energiesHeader); err != nil {
		file.Close()
		return nil, err
	}
	if err := r.writeMetadata(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Run) ID() string { return r.meta.ID }

func (r *Run) Dir() string { return r.dir }

// Path returns name inside the run directory.
func (r *Run) Path(name string) string { return filepath.Join(r.dir, filepath.Base(name)) }

func (r *Run) Metadata() RunMetadata { return r.meta }

// Record appends a report row and flushes it.
func (r *Run) Record(step int, timeFs float64, rep energy.Report) error {
	row := []string{
		strconv.Itoa(step),
		strconv.FormatFloat(timeFs, 'f', 6, 64),
		strconv.FormatFloat(rep.Potential, 'g', -1, 64),
		strconv.FormatFloat(rep.Kinetic, 'g', -1, 64),
		strconv.FormatFloat(rep.Temperature, 'g', -1, 64),
		strconv.FormatFloat(rep.Total, 'g', -1, 64),
	}
	if err := r.csv.Write(row); err != nil {
		return err
	}
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		return err
	}
	r.meta.Reports++
	r.meta.Steps = step
	return nil
}

// Close finalises the run. update may change the summary fields; runErr
// marks the run as failed.
func (r *Run) Close(update func(*RunMetadata), runErr error) error {
	r.csv.Flush()
	csvErr := r.csv.Error()
	closeErr := r.file.Close()

	if update != nil {
		update(&r.meta)
	}
	r.meta.Status = "completed"
	if runErr != nil {
		r.meta.Status = "failed"
		r.meta.Error = runErr.Error()
	}

	return errors.Join(csvErr, closeErr, r.writeMetadata())
}

func (r *Run) writeMetadata() error {
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}

// List returns stored runs, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// TrajectoryPath returns the trajectory file of a run, or "" if it has none.
func (s *Store) TrajectoryPath(meta *RunMetadata) string {
	if meta.Trajectory == "" {
		return ""
	}
	return filepath.Join(s.baseDir, meta.ID, meta.Trajectory)
}

func (s *Store) LoadReports(runID string) ([]ReportRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, energiesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []ReportRow{}, nil
	}

	rows := make([]ReportRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(energiesHeader) {
			return nil, fmt.Errorf("storage: %s line %d: expected %d fields, got %d", energiesFile, i+2, len(energiesHeader), len(record))
		}

		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", energiesFile, i+2, err)
		}
		vals := make([]float64, 5)
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", energiesFile, i+2, err)
			}
		}

		rows = append(rows, ReportRow{
			Step:   step,
			TimeFs: vals[0],
			Report: energy.Report{Potential: vals[1], Kinetic: vals[2], Temperature: vals[3], Total: vals[4]},
		})
	}

	return rows, nil
}
