package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"GradeSentinel/internal/model"
)

func TestSQLiteRecorderEvents(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "sentinel.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := r.RecordEvents("cycle-1", first, []model.ChangeEvent{
		{Kind: model.EventBaseline, Course: "Algebra", Achieved: 15, Percentage: 75, GradedCount: 1},
	}); err != nil {
		t.Fatalf("RecordEvents() error = %v", err)
	}
	second := first.Add(30 * time.Minute)
	if err := r.RecordEvents("cycle-2", second, []model.ChangeEvent{
		{Kind: model.EventGradeChanged, Course: "Algebra", Item: "Quiz 1", OldScore: nil, NewScore: model.Float(18)},
		{Kind: model.EventTotalChanged, Course: "Algebra", Old: 15, New: 18},
	}); err != nil {
		t.Fatalf("RecordEvents() error = %v", err)
	}

	got, err := r.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Kind != model.EventTotalChanged || got[0].Old != 15 || got[0].New != 18 {
		t.Errorf("expected newest total change first, got %+v", got[0])
	}
	gc := got[1]
	if gc.Kind != model.EventGradeChanged || gc.OldScore != nil || gc.NewScore == nil || *gc.NewScore != 18 {
		t.Errorf("unexpected grade change record: %+v", gc)
	}
	if gc.CycleID != "cycle-2" || !gc.Timestamp.Equal(second) {
		t.Errorf("unexpected cycle/timestamp: %s %v", gc.CycleID, gc.Timestamp)
	}
	base := got[2]
	if base.Kind != model.EventBaseline || base.Old != 15 || base.New != 75 {
		t.Errorf("expected baseline achieved/percentage in value columns, got %+v", base)
	}

	limited, err := r.RecentEvents(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestSQLiteRecorderCycle(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sentinel.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	rec := &CycleRecord{
		CycleID:   "cycle-1",
		Trigger:   model.TriggerManual,
		StartedAt: time.Now(),
		Status:    StatusFailed,
		Error:     "authentication failed",
	}
	if err := r.RecordCycle(rec); err != nil {
		t.Fatalf("RecordCycle() error = %v", err)
	}

	var status, trigger string
	if err := r.db.QueryRow(`SELECT status, trigger_type FROM check_cycles WHERE cycle_id = ?`, "cycle-1").Scan(&status, &trigger); err != nil {
		t.Fatal(err)
	}
	if status != StatusFailed || trigger != string(model.TriggerManual) {
		t.Errorf("unexpected row: status=%s trigger=%s", status, trigger)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordEvents("x", time.Now(), []model.ChangeEvent{{Kind: model.EventNewCourse}}); err != nil {
		t.Error(err)
	}
	events, err := r.RecentEvents(5)
	if err != nil || events != nil {
		t.Errorf("expected empty result, got %v %v", events, err)
	}
}
