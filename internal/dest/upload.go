package dest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kallio/physync/internal/domain/model"
	"github.com/kallio/physync/internal/domain/transform"
	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
	"github.com/kallio/physync/pkg/metrics"
)

// formPairs maps destination form field names to the record variables
// feeding them. Order matters only for readability of the payload.
var formPairs = []struct {
	key      string
	variable string
}{
	{"RMSSD", "rmssd"},
	{"ACWR", "acwr"},
	{"Avg HR", "averageHeartRate"},
	{"Peak HR", "peakHeartRate"},
	{"TRIMP", "trimp"},
	{"Movement Load", "movementLoad"},
	{"Zone 1 Duration", "zoneDuration1"},
	{"Zone 2 Duration", "zoneDuration2"},
	{"Zone 3 Duration", "zoneDuration3"},
	{"Zone 4 Duration", "zoneDuration4"},
	{"Zone 5 Duration", "zoneDuration5"},
}

// Result summarizes one upload pass.
type Result struct {
	Matched    int
	Duplicates int
	Uploaded   int
	Failed     int
}

// Upload pushes records into the import form: resolve users by name,
// drop records already present, then import one event per record. A
// failed import is logged and counted but does not stop the remainder.
func (c *Client) Upload(ctx context.Context, records []model.MeasurementRecord) (Result, error) {
	var res Result

	if err := validateRecords(records); err != nil {
		return res, err
	}
	if len(records) == 0 {
		c.log.Info(ctx, "no records fetched, nothing to upload")
		return res, nil
	}

	users, err := c.Users(ctx)
	if err != nil {
		return res, err
	}

	type matched struct {
		record model.MeasurementRecord
		userID int
	}
	var (
		toUpload []matched
		userIDs  []int
	)
	for _, r := range records {
		if r.FirstName == "" || r.LastName == "" {
			// A blank name could never match a destination user; drop
			// the row like any other unmapped record.
			c.log.Warn(ctx, "record without athlete name, dropping",
				logger.String("id", r.CompositeID))
			metrics.RecordUnmapped()
			continue
		}
		userID, ok := users[NameKey{First: r.FirstName, Last: r.LastName}]
		if !ok {
			c.log.Debug(ctx, "no destination user for record, dropping",
				logger.String("firstName", r.FirstName),
				logger.String("lastName", r.LastName),
				logger.String("id", r.CompositeID))
			metrics.RecordUnmapped()
			continue
		}
		toUpload = append(toUpload, matched{record: r, userID: userID})
		userIDs = append(userIDs, userID)
	}
	res.Matched = len(toUpload)
	if len(toUpload) == 0 {
		c.log.Info(ctx, "no records matched destination users, nothing to upload")
		return res, nil
	}

	existing, err := c.ExistingIDs(ctx, userIDs)
	if err != nil {
		return res, err
	}

	fresh := toUpload[:0]
	for _, m := range toUpload {
		if existing.Seen(m.record.CompositeID) {
			metrics.RecordDuplicate()
			res.Duplicates++
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		c.log.Info(ctx, "all records already exist, nothing to upload")
		return res, nil
	}

	for _, m := range fresh {
		resp, err := c.post(ctx, "eventimport", buildEvent(c.formName, m.record, m.userID))
		switch {
		case err != nil:
			c.log.Warn(ctx, "event import failed",
				logger.String("id", m.record.CompositeID),
				logger.Error(err))
			metrics.RecordFailed()
			res.Failed++
		case !resp.OK():
			c.log.Warn(ctx, "event import rejected",
				logger.String("id", m.record.CompositeID),
				logger.Error(transport.NewStatusError(resp)))
			metrics.RecordFailed()
			res.Failed++
		default:
			c.log.Info(ctx, "event imported",
				logger.String("id", m.record.CompositeID))
			metrics.RecordUploaded()
			res.Uploaded++
		}
	}

	c.log.Info(ctx, "upload finished",
		logger.String("form", c.formName),
		logger.Int("uploaded", res.Uploaded),
		logger.Int("failed", res.Failed))
	return res, nil
}

// buildEvent shapes one record as an import payload. The composite id
// and session type lead the row so the dedup scan finds them first.
func buildEvent(formName string, r model.MeasurementRecord, userID int) eventImportRequest {
	pairs := []eventPair{
		{Key: "ID", Value: r.CompositeID},
		{Key: "Session Type", Value: r.SessionType},
		{Key: "Duration", Value: strconv.FormatFloat(r.DurationMinutes, 'f', -1, 64)},
	}
	for _, fp := range formPairs {
		pairs = append(pairs, eventPair{Key: fp.key, Value: r.Variable(fp.variable)})
	}

	return eventImportRequest{
		FormName:   formName,
		StartDate:  r.Date,
		StartTime:  r.Clock,
		FinishDate: transform.DisplayDate(r.End),
		FinishTime: transform.DisplayClock(r.End),
		UserID:     userIDBody{UserID: userID},
		Rows:       []eventRow{{Row: 0, Pairs: pairs}},
	}
}

// validateRecords rejects records without the composite id. The id is
// derived, never vendor data, so its absence indicates an upstream bug
// and uploading would create undeduplicatable events.
func validateRecords(records []model.MeasurementRecord) error {
	for _, r := range records {
		if r.CompositeID == "" {
			return fmt.Errorf("%w: measurement %q athlete %q",
				ErrMissingRequired, r.MeasurementID, r.AthleteID)
		}
	}
	return nil
}
