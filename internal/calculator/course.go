package calculator

import (
	"errors"
	"math"

	"GradeSentinel/internal/model"
)

// Epsilon is the absolute tolerance used when deciding whether an
// aggregate value changed between two snapshots.
const Epsilon = 0.01

// slack absorbs float noise so a difference of exactly Epsilon never counts.
const slack = 1e-9

// Totals holds a course's aggregate grade values.
type Totals struct {
	Achieved    float64
	GradedCount int
	MaxTotal    float64
	Percentage  float64
}

// SumGraded returns the sum of raw scores over graded items and how many there were.
func SumGraded(items []model.GradeItem) (achieved float64, graded int) {
	for _, it := range items {
		if it.RawScore == nil {
			continue
		}
		achieved += *it.RawScore
		graded++
	}
	return achieved, graded
}

// CalculatePercentage returns achieved/maxTotal*100 capped at 100, or 0 when
// nothing has been graded yet.
func CalculatePercentage(achieved float64, graded int, maxTotal float64) (float64, error) {
	if maxTotal <= 0 {
		return 0, errors.New("max total must be positive")
	}
	if graded == 0 {
		return 0, nil
	}
	return math.Min(achieved/maxTotal*100, 100), nil
}

// Summarize computes the aggregates for a course's items against the
// course-wide maximum.
func Summarize(items []model.GradeItem, maxTotal float64) (Totals, error) {
	achieved, graded := SumGraded(items)
	pct, err := CalculatePercentage(achieved, graded, maxTotal)
	if err != nil {
		return Totals{}, err
	}
	return Totals{
		Achieved:    achieved,
		GradedCount: graded,
		MaxTotal:    maxTotal,
		Percentage:  pct,
	}, nil
}

// NewCourseSnapshot builds a CourseSnapshot with its aggregates filled in.
func NewCourseSnapshot(name string, courseID int64, items []model.GradeItem, maxTotal float64) (model.CourseSnapshot, error) {
	t, err := Summarize(items, maxTotal)
	if err != nil {
		return model.CourseSnapshot{}, err
	}
	return model.CourseSnapshot{
		Name:          name,
		CourseID:      courseID,
		Items:         items,
		Percentage:    t.Percentage,
		AchievedTotal: t.Achieved,
		MaxTotal:      t.MaxTotal,
		GradedCount:   t.GradedCount,
	}, nil
}

// Changed reports whether two aggregate values differ by more than Epsilon.
func Changed(old, cur float64) bool {
	return math.Abs(cur-old) > Epsilon+slack
}

// ScoresEqual compares two optional raw scores exactly. Nil equals only nil.
func ScoresEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
