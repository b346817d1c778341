package checker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"GradeSentinel/internal/collector"
	"GradeSentinel/internal/diff"
	"GradeSentinel/internal/model"
	"GradeSentinel/internal/notifier"
	"GradeSentinel/internal/recorder"
	"GradeSentinel/internal/state"
)

var (
	// ErrNoGrades is returned when no enrolled course yielded grade items.
	ErrNoGrades = errors.New("no grades retrieved")
	// ErrPersist is returned when the new baseline could not be saved.
	ErrPersist = errors.New("save snapshot")
)

// Checker runs grade check cycles: fetch, load, diff, log, save, notify.
// Cycles must not run concurrently against the same files; the scheduler
// serialises them.
type Checker struct {
	Collector  *collector.Collector
	Store      *state.Store
	History    *state.History
	Current    state.CurrentGradesFile
	Recorder   recorder.Recorder
	Dispatcher *notifier.Dispatcher
	Now        func() time.Time
}

// Run executes one cycle. On failure the returned result still carries the
// cycle id and whatever was computed before the failing step.
func (c *Checker) Run(ctx context.Context, trigger model.TriggerType) (*model.CycleResult, error) {
	res := &model.CycleResult{
		CycleID:   uuid.NewString(),
		Trigger:   trigger,
		StartedAt: c.now(),
	}
	log.Printf("[INFO] grade check %s started (%s)", res.CycleID, trigger)
	c.marker(fmt.Sprintf("Grade check started (cycle %s, trigger %s)", res.CycleID, trigger))

	collected, err := c.Collector.Collect(ctx)
	if err != nil {
		return res, c.fail(res, recorder.StatusFailed, fmt.Errorf("collect grades: %w", err))
	}
	res.FailedCourses = collected.FailedCourses()
	cur := collected.Snapshot
	if len(cur.Courses) == 0 {
		return res, c.fail(res, recorder.StatusFailed, ErrNoGrades)
	}
	res.Snapshot = cur

	prev := c.Store.LoadPrevious()
	res.Baseline = prev == nil || prev.Courses == nil
	res.Events = diff.Compare(prev, cur)

	if c.History != nil {
		if err := c.History.AppendEvents(res.Events, cur); err != nil {
			log.Printf("[ERROR] append history: %v", err)
		}
	}

	if err := c.Store.SaveCurrent(cur); err != nil {
		return res, c.fail(res, recorder.StatusPersistFailed, fmt.Errorf("%w: %w", ErrPersist, err))
	}

	if c.Current.Path != "" {
		if err := c.Current.Write(notifier.FormatCurrentGrades(cur, c.now())); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}

	res.FinishedAt = c.now()
	c.record(res, recorder.StatusOK, nil)

	if c.Dispatcher != nil {
		if n := c.Dispatcher.Dispatch(ctx, res.Events); n > 0 {
			log.Printf("[INFO] sent %d grade notifications", n)
		}
	}

	if len(res.Events) == 0 {
		c.marker("Grade check completed - No changes detected")
	} else {
		c.marker(fmt.Sprintf("Grade check completed - %d changes detected", len(res.Events)))
	}
	log.Printf("[INFO] grade check %s finished: %d events", res.CycleID, len(res.Events))
	return res, nil
}

// CurrentGrades renders the saved snapshot for display. If the snapshot
// cannot be read, the last written current-grades file is shown instead.
func (c *Checker) CurrentGrades() string {
	snap, err := c.Store.Load()
	if err != nil {
		if errors.Is(err, state.ErrNoSnapshot) {
			return notifier.NoGradesYet
		}
		log.Printf("[WARN] load snapshot: %v", err)
		if c.Current.Path == "" {
			return notifier.NoGradesYet
		}
		text, err := c.Current.Read()
		if err != nil {
			return notifier.NoGradesYet
		}
		return text
	}
	return notifier.FormatCurrentGrades(snap, c.now())
}

// RecentHistory renders the latest recorded events.
func (c *Checker) RecentHistory(limit int) (string, error) {
	records, err := c.recorder().RecentEvents(limit)
	if err != nil {
		return "", fmt.Errorf("query events: %w", err)
	}
	return notifier.FormatRecentEvents(records, c.now()), nil
}

func (c *Checker) fail(res *model.CycleResult, status string, err error) error {
	res.FinishedAt = c.now()
	log.Printf("[ERROR] grade check %s failed: %v", res.CycleID, err)
	c.marker("ERROR: " + err.Error())
	c.record(res, status, err)
	return err
}

// record stores the cycle row, and its events when the baseline advanced.
func (c *Checker) record(res *model.CycleResult, status string, cycleErr error) {
	rec := c.recorder()
	row := &recorder.CycleRecord{
		CycleID:   res.CycleID,
		Trigger:   res.Trigger,
		StartedAt: res.StartedAt,
		Status:    status,
		Events:    len(res.Events),
	}
	if res.Snapshot != nil {
		row.Courses = len(res.Snapshot.Courses)
	}
	if cycleErr != nil {
		row.Error = cycleErr.Error()
	}
	if err := rec.RecordCycle(row); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	if status != recorder.StatusOK {
		return
	}
	if err := rec.RecordEvents(res.CycleID, res.FinishedAt, res.Events); err != nil {
		log.Printf("[ERROR] record events: %v", err)
	}
}

func (c *Checker) marker(msg string) {
	if c.History == nil {
		return
	}
	if err := c.History.AppendMarker(msg); err != nil {
		log.Printf("[ERROR] append history: %v", err)
	}
}

func (c *Checker) recorder() recorder.Recorder {
	if c.Recorder == nil {
		return recorder.NewNoopRecorder()
	}
	return c.Recorder
}

func (c *Checker) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
