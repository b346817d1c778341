package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"GradeSentinel/internal/model"
	"GradeSentinel/internal/recorder"
)

// NoGradesYet is shown when no snapshot has been saved.
const NoGradesYet = "No grades available yet.\nRun a check to fetch your grades."

// FormatCurrentGrades renders the plain-text "current grades" view.
func FormatCurrentGrades(snap *model.Snapshot, now time.Time) string {
	if snap == nil || len(snap.Courses) == 0 {
		return NoGradesYet + "\n"
	}
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Current Grades - %s", snap.Timestamp.Format("2006-01-02 15:04:05")))
	if !snap.Timestamp.IsZero() {
		b.WriteString(fmt.Sprintf(" (%s)", humanize.RelTime(snap.Timestamp, now, "ago", "from now")))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, c := range snap.Courses {
		b.WriteString(fmt.Sprintf("📚 Course: %s\n", c.Name))
		b.WriteString(fmt.Sprintf("    Grade: %.2f/%g (%.2f%%)\n", c.AchievedTotal, c.MaxTotal, c.Percentage))
		b.WriteString(fmt.Sprintf("    Graded items: %d/%d\n\n", c.GradedCount, len(c.Items)))
	}

	total, graded := snap.ItemCount()
	b.WriteString(fmt.Sprintf("Monitoring %s courses, %s grade items (%s graded)\n",
		humanize.Comma(int64(len(snap.Courses))), humanize.Comma(int64(total)), humanize.Comma(int64(graded))))
	return b.String()
}

// DescribeEvent renders one change event as a single line.
func DescribeEvent(e model.ChangeEvent) string {
	switch e.Kind {
	case model.EventBaseline:
		if e.GradedCount == 0 {
			return fmt.Sprintf("Baseline established for %s (no grades yet)", e.Course)
		}
		return fmt.Sprintf("Baseline established for %s (%.2f points, %.2f%%, %d graded)",
			e.Course, e.Achieved, e.Percentage, e.GradedCount)
	case model.EventNewCourse:
		return fmt.Sprintf("New course detected: %s", e.Course)
	case model.EventNewGradeItem:
		return fmt.Sprintf("New grade item in %s: %s - %s", e.Course, e.Item, model.FormatScore(e.NewScore))
	case model.EventGradeChanged:
		return fmt.Sprintf("Grade changed in %s - %s: %s → %s",
			e.Course, e.Item, model.FormatScore(e.OldScore), model.FormatScore(e.NewScore))
	case model.EventTotalChanged:
		return fmt.Sprintf("Total grade changed for %s: %.2f → %.2f (%+.2f points)", e.Course, e.Old, e.New, e.Delta())
	case model.EventPercentageChanged:
		return fmt.Sprintf("Course percentage changed for %s: %.2f%% → %.2f%% (%+.2f%%)", e.Course, e.Old, e.New, e.Delta())
	case model.EventCourseDropped:
		return fmt.Sprintf("Course no longer enrolled: %s", e.Course)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Course)
	}
}

// FormatCycleReport summarises a finished cycle.
func FormatCycleReport(res *model.CycleResult) string {
	var b strings.Builder
	switch {
	case res.Baseline:
		b.WriteString(fmt.Sprintf("📋 Baseline established for %d courses:\n", len(res.Events)))
	case len(res.Events) == 0:
		b.WriteString("✅ No grade changes detected\n")
	default:
		b.WriteString(fmt.Sprintf("🎯 %d grade changes found:\n", len(res.Events)))
	}
	for _, e := range res.Events {
		b.WriteString("  • " + DescribeEvent(e) + "\n")
	}
	if len(res.FailedCourses) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ Could not fetch: %s\n", strings.Join(res.FailedCourses, ", ")))
	}
	b.WriteString(fmt.Sprintf("Last check: %s\n", res.FinishedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatRecentEvents renders stored events, newest first.
func FormatRecentEvents(records []recorder.EventRecord, now time.Time) string {
	if len(records) == 0 {
		return "No recorded grade events.\n"
	}
	var b strings.Builder
	for _, r := range records {
		e := model.ChangeEvent{
			Kind:     r.Kind,
			Course:   r.Course,
			Item:     r.Item,
			OldScore: r.OldScore,
			NewScore: r.NewScore,
			Old:      r.Old,
			New:      r.New,
		}
		line := DescribeEvent(e)
		if r.Kind == model.EventBaseline {
			// graded count is not stored for baseline rows
			line = fmt.Sprintf("Baseline established for %s (%.2f points, %.2f%%)", r.Course, r.Old, r.New)
		}
		b.WriteString(fmt.Sprintf("[%s] %s\n", humanize.RelTime(r.Timestamp, now, "ago", "from now"), line))
	}
	return b.String()
}
