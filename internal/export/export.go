// Package export writes fetched records to local files for offline
// review. The xlsx form is the primary one; csv exists for tooling
// that cannot read spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kallio/physync/internal/domain/model"
)

const sheetName = "Measurements"

// columns is the fixed export layout. Review sheets get compared
// run-over-run, so the order must not drift.
var columns = []struct {
	header   string
	variable string // empty means a derived record field
}{
	{header: "First Name"},
	{header: "Last Name"},
	{header: "Date"},
	{header: "Time"},
	{header: "Session Type"},
	{header: "Duration"},
	{header: "ID"},
	{header: "RMSSD", variable: "rmssd"},
	{header: "ACWR", variable: "acwr"},
	{header: "Avg HR", variable: "averageHeartRate"},
	{header: "Peak HR", variable: "peakHeartRate"},
	{header: "TRIMP", variable: "trimp"},
	{header: "Movement Load", variable: "movementLoad"},
	{header: "Zone 1 Duration", variable: "zoneDuration1"},
	{header: "Zone 2 Duration", variable: "zoneDuration2"},
	{header: "Zone 3 Duration", variable: "zoneDuration3"},
	{header: "Zone 4 Duration", variable: "zoneDuration4"},
	{header: "Zone 5 Duration", variable: "zoneDuration5"},
}

// Headers returns the export column headers in order.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// Row flattens one record into the export column order.
func Row(r model.MeasurementRecord) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.variable != "" {
			out = append(out, r.Variable(c.variable))
			continue
		}
		switch c.header {
		case "First Name":
			out = append(out, r.FirstName)
		case "Last Name":
			out = append(out, r.LastName)
		case "Date":
			out = append(out, r.Date)
		case "Time":
			out = append(out, r.Clock)
		case "Session Type":
			out = append(out, r.SessionType)
		case "Duration":
			out = append(out, strconv.FormatFloat(r.DurationMinutes, 'f', -1, 64))
		case "ID":
			out = append(out, r.CompositeID)
		}
	}
	return out
}

// Write stores records at path, picking the format from the extension.
// Supported extensions are .xlsx and .csv.
func Write(path string, records []model.MeasurementRecord) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return writeXLSX(path, records)
	case ".csv":
		return writeCSV(path, records)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeXLSX(path string, records []model.MeasurementRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := writeSheetRow(f, 1, Headers()); err != nil {
		return err
	}
	for i, r := range records {
		if err := writeSheetRow(f, i+2, Row(r)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func writeCSV(path string, records []model.MeasurementRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Headers()); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	for _, r := range records {
		if err := w.Write(Row(r)); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
