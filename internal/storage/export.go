package storage

import (
	"encoding/json"
	"io"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// ExportData is a run's metadata and samples in one JSON document.
type ExportData struct {
	RunMetadata
	Trajectories map[int][]sim.Sample `json:"trajectories"`
}

// ExportJSON writes a stored run as indented JSON, samples grouped by
// body.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	data := ExportData{RunMetadata: *meta, Trajectories: make(map[int][]sim.Sample)}
	for _, smp := range samples {
		data.Trajectories[smp.Body] = append(data.Trajectories[smp.Body], smp)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
