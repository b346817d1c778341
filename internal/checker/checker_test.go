package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"GradeSentinel/internal/collector"
	"GradeSentinel/internal/model"
	"GradeSentinel/internal/notifier"
	"GradeSentinel/internal/recorder"
	"GradeSentinel/internal/state"
)

func strPtr(s string) *string { return &s }

type captureSink struct {
	notes []model.Notification
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Notify(_ context.Context, n model.Notification) error {
	c.notes = append(c.notes, n)
	return nil
}

type memRecorder struct {
	recorder.NoopRecorder
	cycles []recorder.CycleRecord
	events []model.ChangeEvent
}

func (m *memRecorder) RecordCycle(rec *recorder.CycleRecord) error {
	m.cycles = append(m.cycles, *rec)
	return nil
}

func (m *memRecorder) RecordEvents(_ string, _ time.Time, events []model.ChangeEvent) error {
	m.events = append(m.events, events...)
	return nil
}

type fixture struct {
	dir    string
	client *collector.MockClient
	sink   *captureSink
	rec    *memRecorder
	c      *Checker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	client := &collector.MockClient{
		Courses: []collector.EnrolledCourse{{ID: 1, FullName: "Algebra"}},
		Reports: map[int64]*collector.GradeReport{
			1: collector.MockReport(
				collector.RawGradeItem{ID: model.Int(11), ItemName: strPtr("Quiz 1"), GradeRaw: model.Float(15)},
				collector.RawGradeItem{ID: model.Int(12), ItemName: strPtr("Quiz 2")},
			),
		},
	}
	col := collector.NewCollector(client, 20)
	col.Now = now

	store := state.NewStore(filepath.Join(dir, "previous_grades.json"))
	store.Now = now
	hist := state.NewHistory(filepath.Join(dir, "grade_history.txt"), 20)
	hist.Now = now

	sink := &captureSink{}
	rec := &memRecorder{}
	return &fixture{
		dir:    dir,
		client: client,
		sink:   sink,
		rec:    rec,
		c: &Checker{
			Collector:  col,
			Store:      store,
			History:    hist,
			Current:    state.CurrentGradesFile{Path: filepath.Join(dir, "current_grades.txt")},
			Recorder:   rec,
			Dispatcher: notifier.NewDispatcher(sink),
			Now:        now,
		},
	}
}

func (f *fixture) history(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.c.History.Path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	return string(data)
}

func TestRun_FirstRunEstablishesBaseline(t *testing.T) {
	f := newFixture(t)
	res, err := f.c.Run(context.Background(), model.TriggerStartup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Baseline {
		t.Error("expected a baseline cycle")
	}
	if len(res.Events) != 1 || res.Events[0].Kind != model.EventBaseline {
		t.Fatalf("expected one baseline event, got %+v", res.Events)
	}
	if res.CycleID == "" {
		t.Error("expected a cycle id")
	}
	if len(f.sink.notes) != 0 {
		t.Errorf("expected no notifications on baseline, got %d", len(f.sink.notes))
	}

	saved, err := f.c.Store.Load()
	if err != nil {
		t.Fatalf("expected saved snapshot: %v", err)
	}
	if !saved.HasCourse("Algebra") {
		t.Errorf("expected Algebra in saved snapshot, got %+v", saved.Courses)
	}

	h := f.history(t)
	for _, want := range []string{
		"Grade check started (cycle " + res.CycleID,
		"FIRST RUN - establishing baseline grades",
		"COURSE SUMMARY: Algebra",
		"Grade check completed - 1 changes detected",
	} {
		if !strings.Contains(h, want) {
			t.Errorf("expected %q in history:\n%s", want, h)
		}
	}

	current, err := f.c.Current.Read()
	if err != nil || !strings.Contains(current, "📚 Course: Algebra") {
		t.Errorf("unexpected current grades file %q (%v)", current, err)
	}

	if len(f.rec.cycles) != 1 || f.rec.cycles[0].Status != recorder.StatusOK || f.rec.cycles[0].Trigger != model.TriggerStartup {
		t.Errorf("unexpected cycle records %+v", f.rec.cycles)
	}
	if len(f.rec.events) != 1 {
		t.Errorf("expected baseline event recorded, got %d", len(f.rec.events))
	}
}

func TestRun_DetectsNewGradeAndNotifies(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("first run: %v", err)
	}

	f.client.Reports[1] = collector.MockReport(
		collector.RawGradeItem{ID: model.Int(11), ItemName: strPtr("Quiz 1"), GradeRaw: model.Float(15)},
		collector.RawGradeItem{ID: model.Int(12), ItemName: strPtr("Quiz 2"), GradeRaw: model.Float(3)},
	)
	res, err := f.c.Run(context.Background(), model.TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Baseline {
		t.Error("expected a steady-state cycle")
	}

	kinds := make([]model.EventKind, 0, len(res.Events))
	for _, e := range res.Events {
		kinds = append(kinds, e.Kind)
	}
	want := []model.EventKind{model.EventGradeChanged, model.EventTotalChanged, model.EventPercentageChanged}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	if len(f.sink.notes) != 1 || f.sink.notes[0].Title != notifier.TitleGradeUpdated {
		t.Errorf("expected one grade-updated notification, got %+v", f.sink.notes)
	}
	if !strings.Contains(f.history(t), "Grade check completed - 3 changes detected") {
		t.Error("expected completion marker with change count")
	}
}

func TestRun_NoChanges(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := f.c.Run(context.Background(), model.TriggerScheduled)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(res.Events) != 0 {
		t.Errorf("expected no events, got %+v", res.Events)
	}
	if !strings.Contains(f.history(t), "Grade check completed - No changes detected") {
		t.Error("expected no-changes marker")
	}
}

func TestRun_AuthFailure(t *testing.T) {
	f := newFixture(t)
	f.client.SiteErr = errors.New("invalid token")

	_, err := f.c.Run(context.Background(), model.TriggerManual)
	if !collector.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if _, err := f.c.Store.Load(); !errors.Is(err, state.ErrNoSnapshot) {
		t.Errorf("expected no snapshot saved, got %v", err)
	}
	if !strings.Contains(f.history(t), "ERROR: collect grades") {
		t.Error("expected error marker in history")
	}
	if len(f.rec.cycles) != 1 || f.rec.cycles[0].Status != recorder.StatusFailed || f.rec.cycles[0].Error == "" {
		t.Errorf("unexpected cycle records %+v", f.rec.cycles)
	}
}

func TestRun_NoGradesDoesNotAdvanceBaseline(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before, _ := os.ReadFile(f.c.Store.Path)

	f.client.ReportErrs = map[int64]error{1: errors.New("timeout")}
	res, err := f.c.Run(context.Background(), model.TriggerManual)
	if !errors.Is(err, ErrNoGrades) {
		t.Fatalf("expected ErrNoGrades, got %v", err)
	}
	if len(res.FailedCourses) != 1 || res.FailedCourses[0] != "Algebra" {
		t.Errorf("expected Algebra reported as failed, got %v", res.FailedCourses)
	}

	after, _ := os.ReadFile(f.c.Store.Path)
	if string(before) != string(after) {
		t.Error("expected saved baseline untouched")
	}
}

type cancelAtClient struct {
	*collector.MockClient
	courseID int64
	cancel   context.CancelFunc
}

func (c *cancelAtClient) GetGradeItems(ctx context.Context, courseID, userID int64) (*collector.GradeReport, error) {
	if courseID == c.courseID {
		c.cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.MockClient.GetGradeItems(ctx, courseID, userID)
}

func TestRun_CancelledCycleKeepsBaseline(t *testing.T) {
	f := newFixture(t)
	f.client.Courses = append(f.client.Courses, collector.EnrolledCourse{ID: 2, FullName: "History"})
	f.client.Reports[2] = collector.MockReport(
		collector.RawGradeItem{ID: model.Int(21), ItemName: strPtr("Essay"), GradeRaw: model.Float(12)},
	)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before, _ := os.ReadFile(f.c.Store.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.c.Collector.Client = &cancelAtClient{MockClient: f.client, courseID: 2, cancel: cancel}

	res, err := f.c.Run(ctx, model.TriggerScheduled)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Events) != 0 {
		t.Errorf("expected no events from a cancelled cycle, got %+v", res.Events)
	}
	after, _ := os.ReadFile(f.c.Store.Path)
	if string(before) != string(after) {
		t.Error("expected saved baseline untouched")
	}
	if len(f.sink.notes) != 0 {
		t.Errorf("expected no notifications, got %d", len(f.sink.notes))
	}
	last := f.rec.cycles[len(f.rec.cycles)-1]
	if last.Status != recorder.StatusFailed {
		t.Errorf("expected %s, got %s", recorder.StatusFailed, last.Status)
	}
}

func TestRun_PersistFailureSkipsNotifications(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("first run: %v", err)
	}

	f.client.Reports[1] = collector.MockReport(
		collector.RawGradeItem{ID: model.Int(11), ItemName: strPtr("Quiz 1"), GradeRaw: model.Float(15)},
		collector.RawGradeItem{ID: model.Int(12), ItemName: strPtr("Quiz 2")},
		collector.RawGradeItem{ID: model.Int(13), ItemName: strPtr("Quiz 3"), GradeRaw: model.Float(1)},
	)
	// a directory at the temp path makes the atomic write fail
	if err := os.MkdirAll(filepath.Join(f.c.Store.Path+".tmp", "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := f.c.Run(context.Background(), model.TriggerManual)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if len(res.Events) == 0 || res.Events[0].Kind != model.EventNewGradeItem {
		t.Errorf("expected events returned despite the save failure, got %+v", res.Events)
	}
	if len(f.sink.notes) != 0 {
		t.Errorf("expected no notifications, got %d", len(f.sink.notes))
	}
	if !strings.Contains(f.history(t), "Item: Quiz 3") {
		t.Error("expected events logged to history")
	}
	last := f.rec.cycles[len(f.rec.cycles)-1]
	if last.Status != recorder.StatusPersistFailed {
		t.Errorf("expected %s, got %s", recorder.StatusPersistFailed, last.Status)
	}
	if len(f.rec.events) != 1 {
		t.Errorf("expected only the first run's events recorded, got %d", len(f.rec.events))
	}

	saved, err := f.c.Store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c, _ := saved.Course("Algebra"); len(c.Items) != 2 {
		t.Errorf("expected old baseline kept, got %d items", len(c.Items))
	}
}

func TestCurrentGradesAndHistory(t *testing.T) {
	f := newFixture(t)
	if got := f.c.CurrentGrades(); got != notifier.NoGradesYet {
		t.Errorf("expected placeholder, got %q", got)
	}
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := f.c.CurrentGrades(); !strings.Contains(got, "Algebra") {
		t.Errorf("expected Algebra in %q", got)
	}

	f.c.Recorder = nil
	got, err := f.c.RecentHistory(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "No recorded grade events") {
		t.Errorf("unexpected history %q", got)
	}
}

func TestCurrentGrades_FallsBackToRenderedFile(t *testing.T) {
	f := newFixture(t)
	if _, err := f.c.Run(context.Background(), model.TriggerStartup); err != nil {
		t.Fatalf("run: %v", err)
	}
	rendered, err := f.c.Current.Read()
	if err != nil {
		t.Fatalf("read current grades: %v", err)
	}
	if err := os.WriteFile(f.c.Store.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := f.c.CurrentGrades(); got != rendered {
		t.Errorf("expected the rendered file, got %q", got)
	}
}
