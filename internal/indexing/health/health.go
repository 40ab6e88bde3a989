package health

import (
	"context"
	"time"
)

// Status values reported by the monitor.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusCritical = "critical"
)

// Report is the health snapshot served over HTTP.
type Report struct {
	Status          string `json:"status"`
	SyncerRunning   bool   `json:"syncer_running"`
	CheckpointIndex uint64 `json:"checkpoint_index"`
	DatabaseOK      bool   `json:"database_ok"`
	CheckedAt       int64  `json:"checked_at"`
}

// SyncerStatus exposes the pieces of the sync loop the monitor inspects.
type SyncerStatus interface {
	Running() bool
}

// CheckpointReader reads the cached checkpoint position.
type CheckpointReader interface {
	Current() uint64
}

// Pinger checks a backing service.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates component health into one report.
type Monitor struct {
	syncer     SyncerStatus
	checkpoint CheckpointReader
	db         Pinger
}

// NewMonitor creates a health monitor. db may be nil when running without a
// database.
func NewMonitor(syncer SyncerStatus, checkpoint CheckpointReader, db Pinger) *Monitor {
	return &Monitor{syncer: syncer, checkpoint: checkpoint, db: db}
}

// CheckHealth builds the current health report. Worst case wins: a dead
// database is critical, a stopped sync loop is degraded.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	report := Report{
		Status:          StatusHealthy,
		SyncerRunning:   m.syncer.Running(),
		CheckpointIndex: m.checkpoint.Current(),
		DatabaseOK:      true,
		CheckedAt:       time.Now().Unix(),
	}

	if m.db != nil {
		if err := m.db.Health(ctx); err != nil {
			report.DatabaseOK = false
			report.Status = StatusCritical
			return report
		}
	}

	if !report.SyncerRunning {
		report.Status = StatusDegraded
	}
	return report
}
