package diagnostics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/ballsim/internal/dynamo"
)

// Header names the record columns.
var Header = []string{"time", "id", "x", "y", "vx", "vy"}

// Record is one body's state at the end of its move.
type Record struct {
	Time     time.Time
	ID       int
	Position dynamo.Vector
	Velocity dynamo.Vector
}

func (r Record) String() string {
	return strings.Join(r.fields(), ",")
}

func (r Record) fields() []string {
	return []string{
		r.Time.UTC().Format(time.RFC3339Nano),
		strconv.Itoa(r.ID),
		formatFloat(r.Position.X),
		formatFloat(r.Position.Y),
		formatFloat(r.Velocity.X),
		formatFloat(r.Velocity.Y),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseRecord decodes a single record line.
func ParseRecord(line string) (Record, error) {
	return parseFields(strings.Split(strings.TrimSpace(line), ","))
}

func parseFields(fields []string) (Record, error) {
	if len(fields) != len(Header) {
		return Record{}, fmt.Errorf("diagnostics: expected %d fields, got %d", len(Header), len(fields))
	}

	t, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("diagnostics: bad time: %w", err)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("diagnostics: bad id: %w", err)
	}

	var v [4]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(fields[2+i], 64); err != nil {
			return Record{}, fmt.Errorf("diagnostics: bad %s: %w", Header[2+i], err)
		}
	}

	return Record{
		Time:     t,
		ID:       id,
		Position: dynamo.V(v[0], v[1]),
		Velocity: dynamo.V(v[2], v[3]),
	}, nil
}

// ReadRecords decodes every record in r. Malformed lines are skipped and
// counted.
func ReadRecords(r io.Reader) (records []Record, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, skipped, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return records, skipped, err
		}

		rec, err := parseFields(fields)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
}

// Frames groups records into frames. A body's k-th record belongs to frame k.
func Frames(records []Record) [][]Record {
	seen := make(map[int]int)
	var frames [][]Record
	for _, r := range records {
		k := seen[r.ID]
		seen[r.ID] = k + 1
		for len(frames) <= k {
			frames = append(frames, nil)
		}
		frames[k] = append(frames[k], r)
	}
	return frames
}
