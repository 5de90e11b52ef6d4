// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/meli-client/tools/dashgen/panels"
)

// BuildOverview constructs the client overview dashboard. dailyLimit scales
// the quota panels.
func BuildOverview(dailyLimit int64) *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Meli Client Overview").
		Uid("meli-client-overview").
		Tags([]string{"meli", "mercadolivre"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Requests.
	b.WithRow(dashboard.NewRowBuilder("Requests").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.TransportErrors()))

	// Row 2: Authentication.
	b.WithRow(dashboard.NewRowBuilder("Authentication").
		WithPanel(panels.TokenRefreshes()).
		WithPanel(panels.AuthRetries()).
		WithPanel(panels.CredentialSaveFailures()))

	// Row 3: Quota.
	b.WithRow(dashboard.NewRowBuilder("Daily Quota").
		WithPanel(panels.QuotaGauge(dailyLimit)).
		WithPanel(panels.DailyUsage(dailyLimit)).
		WithPanel(panels.LimitHits()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
