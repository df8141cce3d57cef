// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults; Load layers file and env on top.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration for one synchronization run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SourceBaseURL is the vendor analytics cloud API root.
	SourceBaseURL string `koanf:"source_base_url"`

	// SourceConsumerID is the JWT issuer id assigned to this API consumer.
	SourceConsumerID string `koanf:"source_consumer_id"`

	// SourceSharedSecret signs the per-call JWT.
	SourceSharedSecret string `koanf:"source_shared_secret"`

	// SourceAPIKey is sent as x-api-key on every source call.
	SourceAPIKey string `koanf:"source_api_key"`

	// SourceAccountID identifies the coach account, e.g. "3-4925".
	SourceAccountID string `koanf:"source_account_id"`

	// SourceTeamID identifies the roster to synchronize.
	SourceTeamID string `koanf:"source_team_id"`

	// LookbackHours bounds the measurement window ending at "now" (UTC).
	LookbackHours int `koanf:"lookback_hours"`

	// DestBaseURL is the athlete-management platform root, without /api/v1.
	DestBaseURL string `koanf:"dest_base_url"`

	// DestUsername and DestPassword are the Basic-Auth credentials.
	DestUsername string `koanf:"dest_username"`
	DestPassword string `koanf:"dest_password"`

	// DestAppID is sent as X-APP-ID on every destination call.
	DestAppID string `koanf:"dest_app_id"`

	// DestFormName is the destination form uploaded events must match.
	DestFormName string `koanf:"dest_form_name"`

	// DedupBatchSize bounds how many user ids go into one dedup query.
	DedupBatchSize int `koanf:"dedup_batch_size"`

	// RetryMaxAttempts bounds the transport retry loop.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`

	// PushgatewayURL, when set, receives run metrics at the end of the run.
	PushgatewayURL string `koanf:"pushgateway_url"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		SourceBaseURL:    "https://api.firstbeat.com/v1",
		LookbackHours:    24,
		DestAppID:        "physync",
		DestFormName:     "Firstbeat Measurement",
		DedupBatchSize:   25,
		RetryMaxAttempts: 5,
	}
}

// ValidateSource checks the credentials every run needs to read the
// vendor cloud. Missing values are a startup-fatal condition.
func (c *Config) ValidateSource() error {
	switch {
	case c.SourceConsumerID == "":
		return missing("source_consumer_id")
	case c.SourceSharedSecret == "":
		return missing("source_shared_secret")
	case c.SourceAPIKey == "":
		return missing("source_api_key")
	case c.SourceAccountID == "":
		return missing("source_account_id")
	case c.SourceTeamID == "":
		return missing("source_team_id")
	case c.LookbackHours <= 0:
		return invalid("lookback_hours must be positive")
	}
	return nil
}

// ValidateDest checks the credentials the live-push mode needs. The
// export mode never talks to the destination and skips this check.
func (c *Config) ValidateDest() error {
	switch {
	case c.DestBaseURL == "":
		return missing("dest_base_url")
	case c.DestUsername == "":
		return missing("dest_username")
	case c.DestPassword == "":
		return missing("dest_password")
	case c.DestFormName == "":
		return missing("dest_form_name")
	case c.DedupBatchSize <= 0:
		return invalid("dedup_batch_size must be positive")
	}
	return nil
}
