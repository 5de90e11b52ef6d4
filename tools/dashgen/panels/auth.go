package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TokenRefreshes shows token endpoint exchanges and failed ones.
func TokenRefreshes() *timeseries.PanelBuilder {
	return lineChart("Token Refreshes", "Token endpoint exchanges per second").
		Span(ThirdWidth).
		WithTarget(PromQuery(`sum(meli:token_refreshes:rate5m)`, "refreshes", "A")).
		WithTarget(PromQuery(`sum(rate(meli_token_refresh_failures_total[5m]))`, "failures", "B")).
		Thresholds(alwaysGreen()).
		ColorScheme(classicPalette())
}

// AuthRetries shows requests retried after a 401 and the ones still
// unauthorized afterwards.
func AuthRetries() *timeseries.PanelBuilder {
	return lineChart("Auth Retries", "Requests retried after a 401, and requests still rejected after the retry").
		Span(ThirdWidth).
		WithTarget(PromQuery(`sum(rate(meli_auth_retries_total[5m]))`, "retries", "A")).
		WithTarget(PromQuery(`sum(meli:auth_failures:rate5m)`, "still unauthorized", "B")).
		Thresholds(alwaysGreen()).
		ColorScheme(classicPalette())
}

// CredentialSaveFailures counts rotated credentials that could not be
// persisted in the last 24 hours. Any value above zero is red.
func CredentialSaveFailures() *stat.PanelBuilder {
	return counterStat("Credential Save Failures (24h)", "Rotated refresh tokens that could not be written to the credential store").
		Span(ThirdWidth).
		WithTarget(PromQuery(`sum(increase(meli_credential_save_failures_total[24h]))`, "", "A")).
		Thresholds(warnAt(1, 1)).
		GraphMode(common.BigValueGraphModeNone)
}
