package diff

import (
	"GradeSentinel/internal/calculator"
	"GradeSentinel/internal/model"
)

// Compare diffs the previous snapshot against the current one. Neither
// snapshot is modified.
//
// With no usable previous snapshot every current course yields a single
// BASELINE event and nothing else. Otherwise events are emitted course by
// course in current order (item events in item order, then the total and
// percentage events), followed by COURSE_DROPPED events in previous order.
func Compare(prev, cur *model.Snapshot) []model.ChangeEvent {
	if cur == nil {
		return nil
	}
	if prev == nil || prev.Courses == nil {
		return baseline(cur)
	}

	var events []model.ChangeEvent
	for _, course := range cur.Courses {
		before, ok := prev.Course(course.Name)
		if !ok {
			events = append(events, model.ChangeEvent{Kind: model.EventNewCourse, Course: course.Name})
			continue
		}
		events = append(events, compareCourse(before, course)...)
	}

	for _, course := range prev.Courses {
		if !cur.HasCourse(course.Name) {
			events = append(events, model.ChangeEvent{Kind: model.EventCourseDropped, Course: course.Name})
		}
	}
	return events
}

func baseline(cur *model.Snapshot) []model.ChangeEvent {
	events := make([]model.ChangeEvent, 0, len(cur.Courses))
	for _, c := range cur.Courses {
		events = append(events, model.ChangeEvent{
			Kind:        model.EventBaseline,
			Course:      c.Name,
			Achieved:    c.AchievedTotal,
			Percentage:  c.Percentage,
			GradedCount: c.GradedCount,
		})
	}
	return events
}

// compareCourse emits item events, then the aggregate events. The aggregate
// checks run regardless of item results, so one grade update usually yields
// three events.
func compareCourse(prev, cur model.CourseSnapshot) []model.ChangeEvent {
	var events []model.ChangeEvent

	for _, item := range cur.Items {
		match, ok := FindMatch(prev.Items, item)
		if !ok {
			if item.RawScore != nil {
				events = append(events, model.ChangeEvent{
					Kind:     model.EventNewGradeItem,
					Course:   cur.Name,
					Item:     item.Name,
					NewScore: item.RawScore,
				})
			}
			continue
		}
		if !calculator.ScoresEqual(match.RawScore, item.RawScore) {
			events = append(events, model.ChangeEvent{
				Kind:     model.EventGradeChanged,
				Course:   cur.Name,
				Item:     item.Name,
				OldScore: match.RawScore,
				NewScore: item.RawScore,
			})
		}
	}

	if calculator.Changed(prev.AchievedTotal, cur.AchievedTotal) {
		events = append(events, model.ChangeEvent{
			Kind:   model.EventTotalChanged,
			Course: cur.Name,
			Old:    prev.AchievedTotal,
			New:    cur.AchievedTotal,
		})
	}
	if calculator.Changed(prev.Percentage, cur.Percentage) {
		events = append(events, model.ChangeEvent{
			Kind:   model.EventPercentageChanged,
			Course: cur.Name,
			Old:    prev.Percentage,
			New:    cur.Percentage,
		})
	}
	return events
}
