package notifier

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"GradeSentinel/internal/model"
)

type recordingSink struct {
	name  string
	err   error
	notes []model.Notification
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Notify(_ context.Context, n model.Notification) error {
	r.notes = append(r.notes, n)
	return r.err
}

func TestBuildNotifications_OnlyGradeEvents(t *testing.T) {
	events := []model.ChangeEvent{
		{Kind: model.EventBaseline, Course: "Algebra", Achieved: 15, Percentage: 75, GradedCount: 1},
		{Kind: model.EventNewCourse, Course: "Biology"},
		{Kind: model.EventNewGradeItem, Course: "Algebra", Item: "Quiz 3", NewScore: model.Float(5)},
		{Kind: model.EventGradeChanged, Course: "Algebra", Item: "Quiz 1", OldScore: model.Float(15), NewScore: model.Float(18)},
		{Kind: model.EventTotalChanged, Course: "Algebra", Old: 15, New: 23},
		{Kind: model.EventPercentageChanged, Course: "Algebra", Old: 75, New: 100},
		{Kind: model.EventCourseDropped, Course: "History"},
	}
	notes := BuildNotifications(events)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}

	n := notes[0]
	if n.Title != TitleNewGrade {
		t.Errorf("expected title %q, got %q", TitleNewGrade, n.Title)
	}
	if n.Details == nil || n.Details.Course != "Algebra" || n.Details.Assignment != "Quiz 3" || n.Details.NewGrade != "5 points" {
		t.Errorf("unexpected details: %+v", n.Details)
	}
	if n.Details.OldGrade != nil {
		t.Errorf("expected no old grade on a new item, got %q", *n.Details.OldGrade)
	}
	if !strings.Contains(n.Body, "'Quiz 3'") || !strings.Contains(n.Body, "5 points") {
		t.Errorf("unexpected body: %q", n.Body)
	}

	n = notes[1]
	if n.Title != TitleGradeUpdated {
		t.Errorf("expected title %q, got %q", TitleGradeUpdated, n.Title)
	}
	if n.Details.OldGrade == nil || *n.Details.OldGrade != "15 points" || n.Details.NewGrade != "18 points" {
		t.Errorf("unexpected details: %+v", n.Details)
	}
}

func TestBuildNotifications_NullScores(t *testing.T) {
	notes := BuildNotifications([]model.ChangeEvent{
		{Kind: model.EventNewGradeItem, Course: "C", Item: "Essay"},
		{Kind: model.EventGradeChanged, Course: "C", Item: "Quiz", OldScore: model.Float(4)},
	})
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}
	if notes[0].Details.NewGrade != model.NotGraded {
		t.Errorf("expected %q, got %q", model.NotGraded, notes[0].Details.NewGrade)
	}
	if *notes[1].Details.OldGrade != "4 points" || notes[1].Details.NewGrade != model.NotGraded {
		t.Errorf("unexpected details: %+v", notes[1].Details)
	}
}

func TestDispatch_FansOutAndSurvivesSinkErrors(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(failing, ok)

	n := d.Dispatch(context.Background(), []model.ChangeEvent{
		{Kind: model.EventNewGradeItem, Course: "C", Item: "A", NewScore: model.Float(1)},
		{Kind: model.EventTotalChanged, Course: "C", Old: 0, New: 1},
		{Kind: model.EventGradeChanged, Course: "C", Item: "B", OldScore: model.Float(1), NewScore: model.Float(2)},
	})
	if n != 2 {
		t.Errorf("expected 2 notifications, got %d", n)
	}
	if len(failing.notes) != 2 || len(ok.notes) != 2 {
		t.Errorf("expected every sink to see 2 notifications, got %d and %d", len(failing.notes), len(ok.notes))
	}
}

func TestDispatch_NoEvents(t *testing.T) {
	s := &recordingSink{name: "s"}
	if n := NewDispatcher(s).Dispatch(context.Background(), nil); n != 0 {
		t.Errorf("expected 0 notifications, got %d", n)
	}
	if len(s.notes) != 0 {
		t.Errorf("expected sink untouched, got %d", len(s.notes))
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	err := sink.Notify(context.Background(), model.Notification{Title: TitleNewGrade, Body: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, TitleNewGrade) || !strings.Contains(got, "hello") {
		t.Errorf("unexpected output: %q", got)
	}
}
