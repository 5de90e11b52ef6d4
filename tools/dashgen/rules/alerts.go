package rules

import "fmt"

// AlertRules returns alerts for services embedding the client. dailyLimit
// sets the quota threshold.
func AlertRules(dailyLimit int64) PrometheusRule {
	quotaWarn := dailyLimit * 8 / 10

	return newPrometheusRule("meli-client-alerts",
		alert("MeliHighErrorRate",
			`sum by (job) (meli:request_errors:rate5m) / sum by (job) (meli:requests:rate5m) > 0.05`,
			"5m", "warning",
			"High API error rate",
			"More than 5% of Mercado Livre API requests returned 4xx or 5xx over the last 5 minutes."),
		alert("MeliTransportErrors",
			`sum by (job) (rate(meli_transport_errors_total[5m])) > 0.1`,
			"5m", "warning",
			"API requests failing without a response",
			"Requests are timing out or failing to connect at more than 0.1/s."),
		alert("MeliTokenRefreshFailing",
			`sum by (job) (increase(meli_token_refresh_failures_total[10m])) > 0`,
			"0m", "critical",
			"OAuth2 token refresh is failing",
			"The token endpoint rejected a refresh. The refresh token may be revoked and the application must be re-authorized."),
		alert("MeliAuthFailures",
			`sum by (job) (meli:auth_failures:rate5m) > 0`,
			"5m", "warning",
			"Requests unauthorized after a token refresh",
			"Requests are still returning 401 after refreshing the access token."),
		alert("MeliCredentialSaveFailures",
			`sum by (job) (increase(meli_credential_save_failures_total[5m])) > 0`,
			"0m", "critical",
			"Rotated credentials were not persisted",
			"A refreshed token could not be saved. The stored refresh token is now invalid and will fail on the next restart."),
		alert("MeliQuotaHigh",
			fmt.Sprintf(`max by (job) (meli_daily_usage) > %d`, quotaWarn),
			"5m", "warning",
			"Daily API usage is above 80% of the quota",
			fmt.Sprintf("Daily API usage has exceeded %d calls (limit is %d).", quotaWarn, dailyLimit)),
		alert("MeliDailyLimitReached",
			`sum by (job) (increase(meli_daily_limit_hits_total[5m])) > 0`,
			"0m", "critical",
			"Daily API limit has been reached",
			"The client is refusing calls until the 24h window resets."),
	)
}
