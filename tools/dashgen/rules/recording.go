package rules

// RecordingRules returns the pre-computed rates used by the dashboard and
// the alert rules.
func RecordingRules() PrometheusRule {
	return newPrometheusRule("meli-client-recording",
		Rule{
			Record: "meli:requests:rate5m",
			Expr:   `sum by (job, method) (rate(meli_requests_total[5m]))`,
		},
		Rule{
			Record: "meli:request_errors:rate5m",
			Expr:   `sum by (job, method) (rate(meli_requests_total{status=~"[45].."}[5m]))`,
		},
		Rule{
			Record: "meli:token_refreshes:rate5m",
			Expr:   `sum by (job) (rate(meli_token_refreshes_total[5m]))`,
		},
		Rule{
			Record: "meli:auth_failures:rate5m",
			Expr:   `sum by (job) (rate(meli_auth_failures_total[5m]))`,
		},
	)
}
