package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// QuotaGauge shows the daily call count as a percentage of limit.
func QuotaGauge(limit int64) *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("Daily Quota %").
		Description("API calls in the current 24h window as percentage of the configured limit").
		Datasource(DSRef()).
		Height(PanelHeight).
		Span(ThirdWidth).
		WithTarget(PromQuery(fmt.Sprintf("max(meli_daily_usage) / %d * 100", limit), "", "A")).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(warnAt(80, 95)).
		ColorScheme(byThreshold())
}

// DailyUsage shows the rolling 24h call count per instance, colored
// against limit.
func DailyUsage(limit int64) *timeseries.PanelBuilder {
	return lineChart("Daily Usage vs Limit", fmt.Sprintf("API calls in the current 24h window (limit: %d)", limit)).
		Span(ThirdWidth).
		WithTarget(PromQuery(`meli_daily_usage`, "{{instance}}", "A")).
		Thresholds(warnAt(float64(limit)*0.8, float64(limit))).
		ColorScheme(byThreshold())
}

// LimitHits counts calls refused because the daily limit was reached.
func LimitHits() *stat.PanelBuilder {
	return counterStat("Limit Hits (24h)", "Calls refused locally because the daily limit was reached").
		Span(ThirdWidth).
		WithTarget(PromQuery(`sum(increase(meli_daily_limit_hits_total[24h]))`, "", "A")).
		Thresholds(warnAt(1, 3)).
		GraphMode(common.BigValueGraphModeArea)
}
