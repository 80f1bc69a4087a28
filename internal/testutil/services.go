// Package testutil provides static fakes for the KPI service interfaces used
// across package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/pulsekit/kpiagent/kpi"
)

// StaticMonitor is a kpi.MonitorService returning canned data keyed by client
// id. Tool calls within one phase may run concurrently, so call recording is
// mutex-guarded.
type StaticMonitor struct {
	Summaries map[string]kpi.Summary
	Data      map[string][]kpi.MonitoringItem
	Err       error

	mu    sync.Mutex
	calls []string
}

// Calls returns the client ids passed in so far.
func (m *StaticMonitor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *StaticMonitor) record(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, clientID)
}

func (m *StaticMonitor) MonitoringSummary(_ context.Context, clientID string) (kpi.Summary, error) {
	m.record(clientID)
	if m.Err != nil {
		return kpi.Summary{}, m.Err
	}
	return m.Summaries[clientID], nil
}

func (m *StaticMonitor) MonitoringData(_ context.Context, clientID string) ([]kpi.MonitoringItem, error) {
	m.record(clientID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data[clientID], nil
}

// StaticAnomaly is a kpi.AnomalyService returning canned reports. Like
// StaticMonitor it is safe for concurrent calls.
type StaticAnomaly struct {
	Reports map[string]kpi.AnomalyReport
	Trends  map[string]kpi.TrendAnalysis // keyed by clientID + "/" + kpiName
	Err     error

	mu    sync.Mutex
	calls []string
}

// Calls returns the recorded call keys so far.
func (a *StaticAnomaly) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.calls))
	copy(out, a.calls)
	return out
}

func (a *StaticAnomaly) record(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, key)
}

func (a *StaticAnomaly) DetectAnomalies(_ context.Context, clientID string) (kpi.AnomalyReport, error) {
	a.record(clientID)
	if a.Err != nil {
		return kpi.AnomalyReport{}, a.Err
	}
	return a.Reports[clientID], nil
}

func (a *StaticAnomaly) TrendAnalysis(_ context.Context, clientID, kpiName string) (kpi.TrendAnalysis, error) {
	a.record(clientID + "/" + kpiName)
	if a.Err != nil {
		return kpi.TrendAnalysis{}, a.Err
	}
	return a.Trends[clientID+"/"+kpiName], nil
}
