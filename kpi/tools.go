package kpi

import (
	"context"

	"github.com/pulsekit/kpiagent/tool"
)

// Tool names as they appear in model tool-call requests.
const (
	ToolSummary   = "get_saas_kpi_summary"
	ToolDetails   = "get_detailed_kpi_data"
	ToolAnomalies = "detect_business_anomalies"
	ToolTrend     = "get_kpi_trend_analysis"
)

type clientArgs struct {
	ClientID string `json:"client_id" description:"Identifier of the client to report on."`
}

type trendArgs struct {
	ClientID string `json:"client_id" description:"Identifier of the client to report on."`
	KPIName  string `json:"kpi_name" description:"Name of the KPI to analyze, e.g. churn_rate or mrr."`
}

// Tools builds the four KPI tools over the given services, in the order they
// are advertised to the model.
func Tools(monitor MonitorService, anomaly AnomalyService) []tool.Tool {
	return []tool.Tool{
		NewSummaryTool(monitor),
		NewDetailsTool(monitor),
		NewAnomaliesTool(anomaly),
		NewTrendTool(anomaly),
	}
}

// NewSummaryTool reports the aggregated KPI health snapshot for a client.
func NewSummaryTool(monitor MonitorService) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolSummary,
		"Get a high-level summary of SaaS KPI health for a client: totals, red-zone count and the key insight.",
		clientArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return monitor.MonitoringSummary(ctx, stringArg(args, "client_id"))
		},
	)
}

// NewDetailsTool returns the raw monitoring rows for a client.
func NewDetailsTool(monitor MonitorService) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolDetails,
		"Get detailed per-KPI monitoring data points for a client.",
		clientArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			items, err := monitor.MonitoringData(ctx, stringArg(args, "client_id"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"data": items}, nil
		},
	)
}

// NewAnomaliesTool runs anomaly detection over a client's KPIs.
func NewAnomaliesTool(anomaly AnomalyService) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolAnomalies,
		"Detect anomalies in a client's business KPIs and recommend follow-up actions.",
		clientArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return anomaly.DetectAnomalies(ctx, stringArg(args, "client_id"))
		},
	)
}

// NewTrendTool analyzes the trend of one named KPI for a client.
func NewTrendTool(anomaly AnomalyService) tool.Tool {
	return tool.NewFunctionToolFromStruct(
		ToolTrend,
		"Analyze the trend of a single KPI for a client, including change percentage and forecast.",
		trendArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return anomaly.TrendAnalysis(ctx, stringArg(args, "client_id"), stringArg(args, "kpi_name"))
		},
	)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
