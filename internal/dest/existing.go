package dest

import (
	"context"
	"sort"

	"github.com/kallio/physync/internal/domain/dedupe"
	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
)

// ExistingIDs scans the import form's events for the given users and
// returns the composite ids already present. User ids are deduplicated,
// sorted, and scanned in batches; a server-side failure on a multi-user
// batch falls back to per-user scans so one poisoned user cannot hide
// the rest. Client-side failures propagate, they will not heal on
// retry.
func (c *Client) ExistingIDs(ctx context.Context, userIDs []int) (dedupe.Set, error) {
	unique := uniqueSorted(userIDs)
	if len(unique) == 0 {
		return dedupe.NewSet(nil), nil
	}

	var ids []string
	for start := 0; start < len(unique); start += c.batchSize {
		end := start + c.batchSize
		if end > len(unique) {
			end = len(unique)
		}
		batch := unique[start:end]

		batchIDs, err := c.scanBatch(ctx, batch)
		if err == nil {
			ids = append(ids, batchIDs...)
			continue
		}
		if !transport.IsServerError(err) || len(batch) == 1 {
			return nil, err
		}

		// The platform occasionally 500s on specific users' event
		// history. Narrow to single-user scans and skip the culprits.
		c.log.Warn(ctx, "existing-event batch failed, retrying per user",
			logger.Int("batchSize", len(batch)),
			logger.Error(err))
		for _, id := range batch {
			oneIDs, err := c.scanBatch(ctx, []int{id})
			if err != nil {
				if !transport.IsServerError(err) {
					return nil, err
				}
				c.log.Warn(ctx, "existing-event scan failed for user, skipping",
					logger.Int("userId", id),
					logger.Error(err))
				continue
			}
			ids = append(ids, oneIDs...)
		}
	}

	return dedupe.NewSet(ids), nil
}

// scanBatch pulls all event pages for one batch of users and extracts
// the "ID" pair value from every row.
func (c *Client) scanBatch(ctx context.Context, userIDs []int) ([]string, error) {
	req := eventSyncRequest{
		FormName: c.formName,
		UserIDs:  userIDs,
		Paginate: true,
	}

	var ids []string
	for {
		resp, err := c.post(ctx, "synchronise", req)
		if err != nil {
			return nil, wrap(ErrExistingEvents, err)
		}
		if !resp.OK() {
			return nil, transport.NewStatusError(resp)
		}
		var body eventSyncResponse
		if err := resp.Decode(&body); err != nil {
			return nil, wrap(ErrExistingEvents, err)
		}

		for _, event := range body.Export.Events {
			for _, row := range event.Rows {
				for _, pair := range row.Pairs {
					if pair.Key == "ID" && pair.Value != "" {
						ids = append(ids, pair.Value)
					}
				}
			}
		}

		if body.Export.NextCursor == "" {
			return ids, nil
		}
		req.Cursor = body.Export.NextCursor
	}
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
