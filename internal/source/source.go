// Package source talks to the vendor measurement API: roster listing,
// per-athlete measurement discovery, and per-measurement result
// retrieval. A fetch failure for one athlete or measurement is logged
// and skipped; only a roster failure aborts the run.
package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kallio/physync/internal/auth"
	"github.com/kallio/physync/internal/domain/model"
	"github.com/kallio/physync/internal/domain/transform"
	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
	"github.com/kallio/physync/pkg/metrics"
)

// windowTimeLayout is the fromTime/toTime format the measurements
// endpoint expects: UTC wall clock with a literal Z suffix.
const windowTimeLayout = "2006-01-02T15:04:05Z"

// Headers builds the per-call header provider for the vendor API. A
// fresh short-lived token is minted on every call so retries never
// ride an expired one.
func Headers(signer *auth.Signer, apiKey string) transport.HeaderProvider {
	return func() (map[string]string, error) {
		token, err := signer.Token()
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"Authorization": "Bearer " + token,
			"x-api-key":     apiKey,
		}, nil
	}
}

// Fetcher reads athletes and measurements for one account/team pair.
type Fetcher struct {
	client  *transport.Client
	account string
	team    string
	log     logger.Logger
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// NewFetcher creates a Fetcher over an already configured transport.
func NewFetcher(client *transport.Client, accountID, teamID string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  client,
		account: accountID,
		team:    teamID,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Get().Named("source")
	}
	return f
}

// Accounts lists the coach accounts visible to the configured consumer.
func (f *Fetcher) Accounts(ctx context.Context) ([]Account, error) {
	resp, err := f.client.Get(ctx, "/sports/accounts/", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccounts, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %v", ErrAccounts, transport.NewStatusError(resp))
	}
	var body accountsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccounts, err)
	}
	accounts := make([]Account, 0, len(body.Accounts))
	for _, a := range body.Accounts {
		accounts = append(accounts, Account{ID: a.AccountID, Name: a.Name})
	}
	return accounts, nil
}

// APIKey retrieves the API key tied to the signing credentials. Used
// once at setup time; normal runs carry the key in configuration.
func (f *Fetcher) APIKey(ctx context.Context) (string, error) {
	resp, err := f.client.Get(ctx, "/account/api-key", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIKey, err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: %v", ErrAPIKey, transport.NewStatusError(resp))
	}
	var body apiKeyResponse
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPIKey, err)
	}
	return body.APIKey, nil
}

// Roster returns the team's athletes. Entries without an id are
// dropped with a warning; they cannot be measured or matched.
func (f *Fetcher) Roster(ctx context.Context) ([]model.Athlete, error) {
	path := fmt.Sprintf("/sports/accounts/%s/teams/%s/athletes", f.account, f.team)
	resp, err := f.client.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoster, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %v", ErrRoster, transport.NewStatusError(resp))
	}
	var body rosterResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoster, err)
	}

	athletes := make([]model.Athlete, 0, len(body.Athletes))
	for _, a := range body.Athletes {
		if a.AthleteID.String() == "" {
			f.log.Warn(ctx, "athlete without id in roster, skipping",
				logger.String("firstName", a.FirstName),
				logger.String("lastName", a.LastName))
			continue
		}
		athletes = append(athletes, model.Athlete{
			ID:        a.AthleteID.String(),
			FirstName: a.FirstName,
			LastName:  a.LastName,
		})
	}
	return athletes, nil
}

// MeasurementIDs lists measurement ids for one athlete inside the
// [from, to) window. Failures are logged and reported as an empty list
// so the remaining athletes still sync.
func (f *Fetcher) MeasurementIDs(ctx context.Context, athleteID string, from, to time.Time) []string {
	path := fmt.Sprintf("/sports/accounts/%s/athletes/%s/measurements/", f.account, athleteID)
	query := url.Values{
		"fromTime": {from.UTC().Format(windowTimeLayout)},
		"toTime":   {to.UTC().Format(windowTimeLayout)},
	}

	resp, err := f.client.Get(ctx, path, query)
	if err != nil {
		f.skipAthlete(ctx, athleteID, logger.Error(err))
		return nil
	}
	if !resp.OK() {
		f.skipAthlete(ctx, athleteID, logger.Int("status", resp.StatusCode))
		return nil
	}
	var body measurementsResponse
	if err := resp.Decode(&body); err != nil {
		f.skipAthlete(ctx, athleteID, logger.Error(err))
		return nil
	}

	ids := make([]string, 0, len(body.Measurements))
	for _, m := range body.Measurements {
		if m.MeasurementID.String() != "" {
			ids = append(ids, m.MeasurementID.String())
		}
	}
	return ids
}

// Results retrieves one measurement's result in list format with the
// fixed variable set, keyed by variable name with defaults applied.
func (f *Fetcher) Results(ctx context.Context, athleteID, measurementID string) (Detail, error) {
	path := fmt.Sprintf("/sports/accounts/%s/athletes/%s/measurements/%s/results", f.account, athleteID, measurementID)
	query := url.Values{
		"format": {"list"},
		"var":    {variableQuery()},
	}

	resp, err := f.client.Get(ctx, path, query)
	if err != nil {
		return Detail{}, err
	}
	if !resp.OK() {
		return Detail{}, transport.NewStatusError(resp)
	}
	var body resultsResponse
	if err := resp.Decode(&body); err != nil {
		return Detail{}, err
	}

	return Detail{
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		MeasurementType: body.MeasurementType,
		Variables:       extractVariables(body.Variables),
	}, nil
}

// Fetch runs the full read side for one window: roster, then per
// athlete the measurement listing, then per measurement the result.
// Athlete-level and measurement-level failures are skipped; only a
// roster failure is fatal.
func (f *Fetcher) Fetch(ctx context.Context, from, to time.Time) ([]transform.Input, error) {
	athletes, err := f.Roster(ctx)
	if err != nil {
		return nil, err
	}
	f.log.Info(ctx, "roster fetched",
		logger.Int("athletes", len(athletes)),
		logger.String("fromTime", from.UTC().Format(windowTimeLayout)),
		logger.String("toTime", to.UTC().Format(windowTimeLayout)))

	var inputs []transform.Input
	for _, athlete := range athletes {
		for _, measurementID := range f.MeasurementIDs(ctx, athlete.ID, from, to) {
			detail, err := f.Results(ctx, athlete.ID, measurementID)
			if err != nil {
				f.log.Warn(ctx, "measurement fetch failed, skipping",
					logger.String("athleteId", athlete.ID),
					logger.String("measurementId", measurementID),
					logger.Error(err))
				metrics.RecordMeasurementSkipped()
				continue
			}
			metrics.RecordFetched()
			inputs = append(inputs, transform.Input{
				Athlete:       athlete,
				MeasurementID: measurementID,
				StartTime:     detail.StartTime,
				EndTime:       detail.EndTime,
				SessionType:   detail.MeasurementType,
				Variables:     detail.Variables,
			})
		}
	}
	return inputs, nil
}

func (f *Fetcher) skipAthlete(ctx context.Context, athleteID string, extra logger.Field) {
	f.log.Warn(ctx, "measurement listing failed, skipping athlete",
		logger.String("athleteId", athleteID), extra)
	metrics.RecordAthleteSkipped()
}
