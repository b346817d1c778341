package model

import "time"

// EventKind classifies a detected grade change.
type EventKind string

const (
	EventBaseline          EventKind = "BASELINE"
	EventNewCourse         EventKind = "NEW_COURSE"
	EventNewGradeItem      EventKind = "NEW_GRADE_ITEM"
	EventGradeChanged      EventKind = "GRADE_CHANGED"
	EventTotalChanged      EventKind = "TOTAL_CHANGED"
	EventPercentageChanged EventKind = "PERCENTAGE_CHANGED"
	EventCourseDropped     EventKind = "COURSE_DROPPED"
)

// TriggerType indicates what started a check cycle.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
	TriggerStartup   TriggerType = "STARTUP"
)

// ChangeEvent is one entry of the diff between two snapshots. Which fields
// are meaningful depends on Kind:
//
//	BASELINE            Course, Achieved, Percentage, GradedCount
//	NEW_COURSE          Course
//	NEW_GRADE_ITEM      Course, Item, NewScore
//	GRADE_CHANGED       Course, Item, OldScore, NewScore (either may be nil)
//	TOTAL_CHANGED       Course, Old, New
//	PERCENTAGE_CHANGED  Course, Old, New
//	COURSE_DROPPED      Course
type ChangeEvent struct {
	Kind   EventKind
	Course string
	Item   string

	OldScore *float64
	NewScore *float64

	Old float64
	New float64

	Achieved    float64
	Percentage  float64
	GradedCount int
}

// Delta returns New - Old for aggregate events.
func (e ChangeEvent) Delta() float64 { return e.New - e.Old }

// CycleResult summarises one finished (or failed) check cycle.
type CycleResult struct {
	CycleID    string
	Trigger    TriggerType
	StartedAt  time.Time
	FinishedAt time.Time
	Baseline   bool
	Events     []ChangeEvent
	Snapshot   *Snapshot
	// FailedCourses lists courses whose grade fetch degraded to empty.
	FailedCourses []string
}
