package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RequestRate shows outbound API calls per second by method.
func RequestRate() *timeseries.PanelBuilder {
	return lineChart("Request Rate", "Outbound API requests per second by method").
		Span(HalfWidth).
		WithTarget(PromQuery(`sum by (method) (meli:requests:rate5m)`, "{{method}}", "A")).
		Unit("reqps").
		Legend(tableLegend("mean", "max")).
		Thresholds(alwaysGreen()).
		ColorScheme(classicPalette())
}

// LatencyPercentiles shows p50, p95 and p99 request durations. A request's
// duration includes any token refresh and the retry after a 401.
func LatencyPercentiles() *timeseries.PanelBuilder {
	b := lineChart("Latency Percentiles", "API request duration percentiles, including refresh and retry").
		Span(HalfWidth).
		Unit("s").
		Legend(tableLegend("mean", "max")).
		Thresholds(alwaysGreen()).
		ColorScheme(classicPalette())

	for i, q := range []string{"0.50", "0.95", "0.99"} {
		b = b.WithTarget(PromQuery(
			fmt.Sprintf(`histogram_quantile(%s, sum(rate(meli_request_duration_seconds_bucket[5m])) by (le))`, q),
			"p"+q[2:],
			string(rune('A'+i)),
		))
	}
	return b
}

// ErrorRate shows 4xx and 5xx responses as a percentage of all requests.
func ErrorRate() *timeseries.PanelBuilder {
	return lineChart("Error Rate %", "4xx and 5xx responses as percentage of total requests").
		Span(HalfWidth).
		WithTarget(PromQuery(
			`sum(meli:request_errors:rate5m) / sum(meli:requests:rate5m) * 100`,
			"error %", "A",
		)).
		Unit("percent").
		Thresholds(warnAt(1, 5)).
		ColorScheme(byThreshold())
}

// TransportErrors counts requests that failed without a response in the
// last hour.
func TransportErrors() *stat.PanelBuilder {
	return counterStat("Transport Errors (1h)", "Requests that failed before a response was received").
		Span(HalfWidth).
		WithTarget(PromQuery(`sum(increase(meli_transport_errors_total[1h]))`, "", "A")).
		Thresholds(warnAt(1, 10)).
		GraphMode(common.BigValueGraphModeArea)
}
