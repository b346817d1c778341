package recorder

import (
	"time"

	"GradeSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *CycleRecord) error                               { return nil }
func (n *NoopRecorder) RecordEvents(_ string, _ time.Time, _ []model.ChangeEvent) error { return nil }
func (n *NoopRecorder) RecentEvents(_ int) ([]EventRecord, error)                      { return nil, nil }
func (n *NoopRecorder) Close() error                                                   { return nil }
