package export_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kallio/physync/internal/domain/model"
	"github.com/kallio/physync/internal/export"
)

func sampleRecords() []model.MeasurementRecord {
	start := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)
	return []model.MeasurementRecord{
		{
			FirstName:       "Ann",
			LastName:        "Lee",
			Start:           start,
			End:             start.Add(30 * time.Minute),
			Date:            "01/03/2025",
			Clock:           "9:05 AM",
			SessionType:     "TRAINING",
			MeasurementID:   "M1",
			AthleteID:       "101",
			CompositeID:     "M1-101",
			DurationMinutes: 30,
			Variables: map[string]string{
				"rmssd":         "42.5",
				"acwr":          "1.1",
				"zoneDuration1": "0",
				"zoneDuration2": "312",
			},
		},
	}
}

func TestRowLayout(t *testing.T) {
	row := export.Row(sampleRecords()[0])
	headers := export.Headers()

	require.Len(t, row, len(headers))

	byHeader := make(map[string]string, len(headers))
	for i, h := range headers {
		byHeader[h] = row[i]
	}

	assert.Equal(t, "First Name", headers[0])
	assert.Equal(t, "Ann", byHeader["First Name"])
	assert.Equal(t, "M1-101", byHeader["ID"])
	assert.Equal(t, "30", byHeader["Duration"])
	assert.Equal(t, "42.5", byHeader["RMSSD"])

	// Absent scalar and present zone default.
	assert.Equal(t, "", byHeader["TRIMP"])
	assert.Equal(t, "0", byHeader["Zone 1 Duration"])
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, export.Write(path, sampleRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Headers(), rows[0])
	assert.Equal(t, "M1-101", rows[1][6])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, export.Write(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Measurements")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "First Name", rows[0][0])
	assert.Equal(t, "Ann", rows[1][0])
}

func TestWriteUnsupportedFormat(t *testing.T) {
	err := export.Write(filepath.Join(t.TempDir(), "out.parquet"), sampleRecords())
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestWriteEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, export.Write(path, nil))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
