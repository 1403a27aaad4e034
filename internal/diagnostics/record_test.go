package diagnostics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballsim/internal/dynamo"
)

func TestRecordFormat(t *testing.T) {
	r := Record{
		Time:     time.Date(2026, 10, 16, 12, 0, 0, 1, time.UTC),
		ID:       3,
		Position: dynamo.V(120.5, 88),
		Velocity: dynamo.V(1.25, -0.75),
	}
	require.Equal(t, "2026-10-16T12:00:00.000000001Z,3,120.500000,88.000000,1.250000,-0.750000", r.String())

	parsed, err := ParseRecord(r.String())
	require.NoError(t, err)
	require.True(t, parsed.Time.Equal(r.Time))
	require.Equal(t, r.ID, parsed.ID)
	require.Equal(t, r.Position, parsed.Position)
	require.Equal(t, r.Velocity, parsed.Velocity)
}

func TestParseRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "2026-10-16T12:00:00Z,1,2"},
		{"bad time", "yesterday,1,1,1,1,1"},
		{"bad id", "2026-10-16T12:00:00Z,x,1,1,1,1"},
		{"bad float", "2026-10-16T12:00:00Z,1,1,nope,1,1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			require.Error(t, err)
		})
	}
}

func TestReadRecordsAndFrames(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(Header, ","),
		"2026-10-16T12:00:00Z,0,10,10,1,1",
		"2026-10-16T12:00:00Z,1,50,50,-1,1",
		"garbage",
		"2026-10-16T12:00:01Z,1,49,51,-1,1",
		"2026-10-16T12:00:01Z,0,11,11,1,1",
	}, "\n")

	records, skipped, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, 2, skipped)

	frames := Frames(records)
	require.Len(t, frames, 2)
	require.Len(t, frames[0], 2)
	require.Equal(t, dynamo.V(11, 11), frames[1][1].Position)
}
