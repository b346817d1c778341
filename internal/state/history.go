package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"GradeSentinel/internal/model"
)

const (
	historyTitle = "MOODLE GRADE HISTORY LOG"
	tsLayout     = "2006-01-02 15:04:05"
)

var (
	wideRule   = strings.Repeat("=", 80)
	narrowRule = strings.Repeat("-", 60)
)

// Entry is one timestamped block of the history log.
type Entry struct {
	Message  string
	Course   string
	Item     string
	OldGrade string
	NewGrade string
}

// History is the append-only, human-readable change log. The header is
// written once when the file is created; existing content is never rewritten.
type History struct {
	Path     string
	MaxTotal float64
	Now      func() time.Time
}

// NewHistory creates a History writing to path.
func NewHistory(path string, maxTotal float64) *History {
	return &History{Path: path, MaxTotal: maxTotal, Now: time.Now}
}

// AppendMarker writes a single message entry, e.g. a cycle start or end line.
func (h *History) AppendMarker(msg string) error {
	return h.Log(Entry{Message: msg})
}

// Log appends one entry.
func (h *History) Log(e Entry) error {
	var b strings.Builder
	h.writeEntry(&b, e)
	return h.append(b.String())
}

// AppendEvents logs every event of a cycle. cur supplies the course details
// for the summary blocks written on baseline and new-course events.
func (h *History) AppendEvents(events []model.ChangeEvent, cur *model.Snapshot) error {
	if len(events) == 0 {
		return nil
	}
	var b strings.Builder
	if events[0].Kind == model.EventBaseline {
		h.writeEntry(&b, Entry{Message: "FIRST RUN - establishing baseline grades"})
	}
	for _, e := range events {
		switch e.Kind {
		case model.EventBaseline:
			h.writeEntry(&b, Entry{Message: "New course discovered", Course: e.Course})
			if c, ok := cur.Course(e.Course); ok {
				h.writeCourseSummary(&b, c)
			}
		case model.EventNewCourse:
			h.writeEntry(&b, Entry{Message: "New course enrolled", Course: e.Course})
			if c, ok := cur.Course(e.Course); ok {
				h.writeCourseSummary(&b, c)
			}
		case model.EventNewGradeItem:
			h.writeEntry(&b, Entry{
				Message:  "New grade item",
				Course:   e.Course,
				Item:     e.Item,
				NewGrade: model.FormatScore(e.NewScore),
			})
		case model.EventGradeChanged:
			h.writeEntry(&b, Entry{
				Message:  "Grade updated",
				Course:   e.Course,
				Item:     e.Item,
				OldGrade: model.FormatScore(e.OldScore),
				NewGrade: model.FormatScore(e.NewScore),
			})
		case model.EventTotalChanged:
			h.writeEntry(&b, Entry{
				Message: fmt.Sprintf("Course total updated: %.2f → %.2f points", e.Old, e.New),
				Course:  e.Course,
			})
		case model.EventPercentageChanged:
			h.writeEntry(&b, Entry{
				Message: fmt.Sprintf("Course percentage updated: %.2f%% → %.2f%%", e.Old, e.New),
				Course:  e.Course,
			})
		case model.EventCourseDropped:
			h.writeEntry(&b, Entry{Message: "Course no longer enrolled", Course: e.Course})
		}
	}
	return h.append(b.String())
}

func (h *History) writeEntry(b *strings.Builder, e Entry) {
	fmt.Fprintf(b, "[%s] %s\n", h.now().Format(tsLayout), e.Message)
	if e.Course != "" {
		fmt.Fprintf(b, "    Course: %s\n", e.Course)
	}
	if e.Item != "" {
		fmt.Fprintf(b, "    Item: %s\n", e.Item)
	}
	switch {
	case e.OldGrade != "" && e.NewGrade != "":
		fmt.Fprintf(b, "    Grade change: %s → %s\n", e.OldGrade, e.NewGrade)
	case e.NewGrade != "":
		fmt.Fprintf(b, "    Grade: %s\n", e.NewGrade)
	}
	b.WriteString("\n")
}

func (h *History) writeCourseSummary(b *strings.Builder, c model.CourseSnapshot) {
	fmt.Fprintf(b, "[%s] COURSE SUMMARY: %s\n", h.now().Format(tsLayout), c.Name)
	b.WriteString(narrowRule + "\n")
	fmt.Fprintf(b, "    Course grade: %.2f/%g (%.2f%%)\n", c.AchievedTotal, c.MaxTotal, c.Percentage)
	fmt.Fprintf(b, "    Graded items: %d/%d\n", c.GradedCount, len(c.Items))
	fmt.Fprintf(b, "    Course maximum grade: %g\n", h.MaxTotal)
	b.WriteString(narrowRule + "\n")
	if len(c.Items) == 0 {
		b.WriteString("    No grade items found\n")
	}
	for _, it := range c.Items {
		if at, ok := it.GradedTime(); ok {
			fmt.Fprintf(b, "    %s: %s (graded %s)\n", it.Name, model.FormatScore(it.RawScore), at.Format(tsLayout))
			continue
		}
		fmt.Fprintf(b, "    %s: %s\n", it.Name, model.FormatScore(it.RawScore))
	}
	b.WriteString("\n")
}

func (h *History) append(text string) error {
	if err := h.ensureHeader(); err != nil {
		return err
	}
	f, err := os.OpenFile(h.Path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (h *History) ensureHeader() error {
	if _, err := os.Stat(h.Path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat history: %w", err)
	}
	if dir := filepath.Dir(h.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString(wideRule + "\n")
	b.WriteString(historyTitle + "\n")
	b.WriteString(wideRule + "\n")
	fmt.Fprintf(&b, "Log started: %s\n", h.now().Format(tsLayout))
	fmt.Fprintf(&b, "Course maximum grade: %g\n", h.MaxTotal)
	b.WriteString(wideRule + "\n\n")

	f, err := os.OpenFile(h.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create history: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}

func (h *History) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
