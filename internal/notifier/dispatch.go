package notifier

import (
	"context"
	"fmt"
	"log"

	"GradeSentinel/internal/model"
)

const (
	TitleNewGrade     = "🎓 New Grade"
	TitleGradeUpdated = "🎓 Grade Updated"
)

// Sink delivers notifications to one destination.
type Sink interface {
	Name() string
	Notify(ctx context.Context, n model.Notification) error
}

// BuildNotifications maps change events to notification requests. Only new
// grade items and grade changes are notified, one notification per event.
func BuildNotifications(events []model.ChangeEvent) []model.Notification {
	var out []model.Notification
	for _, e := range events {
		switch e.Kind {
		case model.EventNewGradeItem:
			grade := model.FormatScore(e.NewScore)
			out = append(out, model.Notification{
				Title: TitleNewGrade,
				Body: fmt.Sprintf("You received a new grade in '%s' for '%s'.\n\nYour grade: %s",
					e.Course, e.Item, grade),
				Details: &model.GradeDetails{
					Course:     e.Course,
					Assignment: e.Item,
					NewGrade:   grade,
				},
			})
		case model.EventGradeChanged:
			oldGrade := model.FormatScore(e.OldScore)
			newGrade := model.FormatScore(e.NewScore)
			out = append(out, model.Notification{
				Title: TitleGradeUpdated,
				Body: fmt.Sprintf("Your grade in '%s' for '%s' has been updated.\n\nPrevious grade: %s\nNew grade: %s",
					e.Course, e.Item, oldGrade, newGrade),
				Details: &model.GradeDetails{
					Course:     e.Course,
					Assignment: e.Item,
					OldGrade:   &oldGrade,
					NewGrade:   newGrade,
				},
			})
		}
	}
	return out
}

// Dispatcher fans notifications out to every configured sink.
type Dispatcher struct {
	Sinks []Sink
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{Sinks: sinks}
}

// Dispatch sends one notification per qualifying event to every sink and
// returns how many notifications were built. Sink failures are logged only.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.ChangeEvent) int {
	notes := BuildNotifications(events)
	for _, n := range notes {
		for _, s := range d.Sinks {
			if err := s.Notify(ctx, n); err != nil {
				log.Printf("[ERROR] %s notification failed: %v", s.Name(), err)
			}
		}
	}
	return len(notes)
}
