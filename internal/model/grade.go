package model

import "time"

// GradeItem is one graded activity of a course as reported by Moodle.
// Nil pointers mean the field was absent or null upstream; a nil RawScore
// means "not graded yet", which is not the same as a score of 0.
type GradeItem struct {
	ID       *int64   `json:"id"`
	Name     string   `json:"itemname"`
	RawScore *float64 `json:"graderaw"`
	MaxScore *float64 `json:"grademax"`
	MinScore *float64 `json:"grademin"`
	GradedAt *int64   `json:"gradedategraded"` // unix seconds
}

// Graded reports whether the item carries a raw score.
func (g GradeItem) Graded() bool { return g.RawScore != nil }

// GradedTime returns the grading time, if known.
func (g GradeItem) GradedTime() (time.Time, bool) {
	if g.GradedAt == nil || *g.GradedAt <= 0 {
		return time.Time{}, false
	}
	return time.Unix(*g.GradedAt, 0), true
}

// CourseSnapshot holds one course's grade items and aggregates at a point in time.
type CourseSnapshot struct {
	Name          string      `json:"-"`
	CourseID      int64       `json:"course_id"`
	Items         []GradeItem `json:"grades"`
	Percentage    float64     `json:"percentage"`
	AchievedTotal float64     `json:"total_achieved"`
	MaxTotal      float64     `json:"total_possible"`
	GradedCount   int         `json:"graded_assignments"`
}

// Snapshot is the full grade state of one account at one point in time.
// Courses keep the order they were observed in; the course name is the
// join key across snapshots.
type Snapshot struct {
	Timestamp time.Time
	Courses   []CourseSnapshot
}

// Course looks up a course by display name.
func (s *Snapshot) Course(name string) (CourseSnapshot, bool) {
	if s == nil {
		return CourseSnapshot{}, false
	}
	for _, c := range s.Courses {
		if c.Name == name {
			return c, true
		}
	}
	return CourseSnapshot{}, false
}

// HasCourse reports whether a course with the given name is present.
func (s *Snapshot) HasCourse(name string) bool {
	_, ok := s.Course(name)
	return ok
}

// ItemCount returns the number of grade items across all courses.
func (s *Snapshot) ItemCount() (total, graded int) {
	for _, c := range s.Courses {
		total += len(c.Items)
		graded += c.GradedCount
	}
	return total, graded
}

// Float returns a pointer to v. Handy for building items in code and tests.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
