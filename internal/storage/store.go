package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	bodiesFile   = "bodies.csv"
)

var header = []string{"time", "body", "x", "y", "z", "vx", "vy", "vz", "fx", "fy", "fz"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Scene      string             `json:"scene"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Integrator string             `json:"integrator"`
	Backend    string             `json:"backend"`
	Pipeline   string             `json:"pipeline"`
	Controller string             `json:"controller"`
	Bodies     int                `json:"bodies"`
	Samples    int                `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory named <scene>_<uuid> and returns its id. ID,
// Timestamp, Samples and Metrics in meta are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Scene, uuid.NewString())
	meta.Timestamp = time.Now()
	meta.Samples = len(result.Samples)
	meta.Metrics = result.Metrics
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, bodiesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, smp := range samples {
		row[0] = strconv.FormatFloat(smp.Time, 'f', 6, 64)
		row[1] = strconv.Itoa(smp.Body)
		for i, v := range [][3]float64{smp.Position, smp.Velocity, smp.Force} {
			for j := 0; j < 3; j++ {
				row[2+3*i+j] = strconv.FormatFloat(v[j], 'f', 6, 64)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first. Unreadable directories are
// skipped.
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
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples reads every sample of a run. Malformed rows are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, bodiesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]sim.Sample, 0, max(len(records)-1, 0))
	for i := 1; i < len(records); i++ {
		smp, ok := parseRow(records[i])
		if !ok {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

// LoadTrajectory reads the samples of one body.
func (s *Store) LoadTrajectory(runID string, body int) ([]sim.Sample, error) {
	all, err := s.LoadSamples(runID)
	if err != nil {
		return nil, err
	}
	res := sim.Result{Samples: all}
	return res.Trajectory(body), nil
}

func parseRow(record []string) (sim.Sample, bool) {
	if len(record) < len(header) {
		return sim.Sample{}, false
	}
	var vals [11]float64
	for i := range vals {
		if i == 1 {
			continue
		}
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return sim.Sample{}, false
		}
		vals[i] = v
	}
	body, err := strconv.Atoi(record[1])
	if err != nil {
		return sim.Sample{}, false
	}
	return sim.Sample{
		Time:     vals[0],
		Body:     body,
		Position: mgl64.Vec3{vals[2], vals[3], vals[4]},
		Velocity: mgl64.Vec3{vals[5], vals[6], vals[7]},
		Force:    mgl64.Vec3{vals[8], vals[9], vals[10]},
	}, true
}
