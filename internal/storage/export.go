package storage

import (
	"encoding/json"
	"io"
	"time"

	"github.com/san-kum/ballsim/internal/diagnostics"
)

type ExportRecord struct {
	Time time.Time `json:"time"`
	ID   int       `json:"id"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	VX   float64   `json:"vx"`
	VY   float64   `json:"vy"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Records []ExportRecord `json:"records"`
}

// ExportJSON writes a run's metadata and diagnostics records to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	records, err := s.LoadRecords(runID)
	if err != nil {
		return err
	}

	data := ExportData{Run: *meta, Records: make([]ExportRecord, len(records))}
	for i, r := range records {
		data.Records[i] = exportRecord(r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func exportRecord(r diagnostics.Record) ExportRecord {
	return ExportRecord{
		Time: r.Time,
		ID:   r.ID,
		X:    r.Position.X,
		Y:    r.Position.Y,
		VX:   r.Velocity.X,
		VY:   r.Velocity.Y,
	}
}
