package kpi

import "context"

// MonitoringItem is a single KPI observation for a client.
type MonitoringItem struct {
	Date    string  `json:"date"`
	KPIName string  `json:"kpi_name"`
	Value   float64 `json:"value"`
	Status  string  `json:"status"`
}

// Summary is the aggregated health snapshot returned by get_saas_kpi_summary.
type Summary struct {
	TotalKPIsTracked int    `json:"total_kpis_tracked"`
	KPIsInRedZone    int    `json:"kpis_in_red_zone"`
	KeyInsight       string `json:"key_insight"`
	ClientID         string `json:"client_id"`
}

// AnomalyReport is the result of detect_business_anomalies.
type AnomalyReport struct {
	AnomaliesFound  int      `json:"anomalies_found"`
	CriticalKPIs    []string `json:"critical_kpis"`
	AnomalyScore    float64  `json:"anomaly_score"`
	Recommendations []string `json:"recommendations"`
}

// TrendAnalysis is the result of get_kpi_trend_analysis for one KPI.
type TrendAnalysis struct {
	KPIName          string  `json:"kpi_name"`
	Trend            string  `json:"trend"`
	ChangePercentage float64 `json:"change_percentage"`
	Forecast         string  `json:"forecast"`
}

// MonitorService supplies current KPI observations for a client. Unknown
// clients yield empty results, not errors.
type MonitorService interface {
	MonitoringSummary(ctx context.Context, clientID string) (Summary, error)
	MonitoringData(ctx context.Context, clientID string) ([]MonitoringItem, error)
}

// AnomalyService supplies anomaly detection and trend analysis for a client.
type AnomalyService interface {
	DetectAnomalies(ctx context.Context, clientID string) (AnomalyReport, error)
	TrendAnalysis(ctx context.Context, clientID, kpiName string) (TrendAnalysis, error)
}
