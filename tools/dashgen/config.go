package main

import "errors"

// KnownMetrics is the set of metric names exported by the client plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// Request metrics.
	"meli_requests_total":                  true,
	"meli_request_duration_seconds_bucket": true,
	"meli_request_duration_seconds_sum":    true,
	"meli_request_duration_seconds_count":  true,
	"meli_transport_errors_total":          true,

	// Authentication metrics.
	"meli_auth_retries_total":             true,
	"meli_auth_failures_total":            true,
	"meli_token_refreshes_total":          true,
	"meli_token_refresh_failures_total":   true,
	"meli_credential_save_failures_total": true,

	// Rate limit metrics.
	"meli_daily_usage":            true,
	"meli_daily_limit_hits_total": true,

	// Recording rules.
	"meli:requests:rate5m":        true,
	"meli:request_errors:rate5m":  true,
	"meli:token_refreshes:rate5m": true,
	"meli:auth_failures:rate5m":   true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
	// DailyLimit scales the quota panels and alert; match rate_limit.daily_limit.
	DailyLimit int64
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
		DailyLimit:       5000,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	if c.DailyLimit <= 0 {
		return errors.New("daily limit must be positive")
	}
	return nil
}
