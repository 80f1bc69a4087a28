// Package kpi defines the SaaS KPI tool set exposed to the orchestration
// loop. The four tools are read-only and idempotent; the actual metric
// computation lives behind the MonitorService and AnomalyService interfaces,
// which the embedding application implements against its own data source.
package kpi
