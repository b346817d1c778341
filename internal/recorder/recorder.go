package recorder

import (
	"time"

	"GradeSentinel/internal/model"
)

// Cycle status values.
const (
	StatusOK            = "OK"
	StatusFailed        = "FAILED"
	StatusPersistFailed = "PERSIST_FAILED"
)

// CycleRecord holds the outcome of one check cycle.
type CycleRecord struct {
	CycleID   string
	Trigger   model.TriggerType
	StartedAt time.Time
	Status    string // StatusOK, StatusFailed or StatusPersistFailed
	Error     string
	Courses   int
	Events    int
}

// EventRecord is a stored change event.
type EventRecord struct {
	CycleID   string
	Timestamp time.Time
	Kind      model.EventKind
	Course    string
	Item      string
	OldScore  *float64
	NewScore  *float64
	Old       float64
	New       float64
}

// Recorder persists a queryable history of cycles and change events.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecordEvents(cycleID string, at time.Time, events []model.ChangeEvent) error
	RecentEvents(limit int) ([]EventRecord, error)
	Close() error
}
