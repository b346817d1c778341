package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"GradeSentinel/internal/calculator"
	"GradeSentinel/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	Site       *SiteInfo
	SiteErr    error
	Courses    []EnrolledCourse
	CoursesErr error
	Reports    map[int64]*GradeReport
	ReportErrs map[int64]error

	GradeCalls int
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) GetSiteInfo(_ context.Context) (*SiteInfo, error) {
	if m.SiteErr != nil {
		return nil, m.SiteErr
	}
	if m.Site == nil {
		return &SiteInfo{UserID: 1, Username: "student"}, nil
	}
	return m.Site, nil
}

func (m *MockClient) GetEnrolledCourses(_ context.Context, _ int64) ([]EnrolledCourse, error) {
	if m.CoursesErr != nil {
		return nil, m.CoursesErr
	}
	return m.Courses, nil
}

func (m *MockClient) GetGradeItems(_ context.Context, courseID, _ int64) (*GradeReport, error) {
	m.GradeCalls++
	if err, ok := m.ReportErrs[courseID]; ok {
		return nil, err
	}
	return m.Reports[courseID], nil
}

// MockReport builds a single-user grade report from raw items.
func MockReport(items ...RawGradeItem) *GradeReport {
	return &GradeReport{UserGrades: []UserGrade{{GradeItems: items}}}
}

// Collector turns Moodle responses into a Snapshot.
type Collector struct {
	Client   Client
	MaxTotal float64
	Now      func() time.Time
}

// NewCollector creates a new Collector. maxTotal is the course-wide maximum
// grade used for every course's percentage.
func NewCollector(client Client, maxTotal float64) *Collector {
	return &Collector{Client: client, MaxTotal: maxTotal, Now: time.Now}
}

// Result is the outcome of one collection pass.
type Result struct {
	Snapshot *model.Snapshot
	UserID   int64
	// Failures lists courses whose fetch failed and were treated as empty.
	Failures []*FetchError
	// Empty lists courses omitted because they had no qualifying items.
	Empty []string
}

// FailedCourses returns the names of courses degraded by fetch failures.
func (r *Result) FailedCourses() []string {
	names := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		names = append(names, f.Course)
	}
	return names
}

// Collect fetches every enrolled course and builds the current snapshot.
// An identity failure returns an *AuthError and no snapshot. A failing
// course fetch is recorded in Result.Failures and the course yields no items,
// unless ctx is done, in which case the whole pass fails.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	info, err := c.Client.GetSiteInfo(ctx)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if info == nil || info.UserID <= 0 {
		return nil, &AuthError{Err: fmt.Errorf("site info has no user id")}
	}

	courses, err := c.Client.GetEnrolledCourses(ctx, info.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch enrolled courses: %w", err)
	}

	res := &Result{
		Snapshot: &model.Snapshot{Timestamp: c.now()},
		UserID:   info.UserID,
	}
	for _, course := range courses {
		name := courseName(course)

		report, err := c.Client.GetGradeItems(ctx, course.ID, info.UserID)
		if err != nil {
			// a cancelled pass must not look like a set of empty courses
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("fetch grades for %q: %w", name, ctxErr)
			}
			fe := &FetchError{CourseID: course.ID, Course: name, Err: err}
			log.Printf("[WARN] %v, treating course as empty", fe)
			res.Failures = append(res.Failures, fe)
			report = nil
		}

		items := NormalizeReport(report)
		if len(items) == 0 {
			res.Empty = append(res.Empty, name)
			continue
		}

		cs, err := calculator.NewCourseSnapshot(name, course.ID, items, c.MaxTotal)
		if err != nil {
			return nil, fmt.Errorf("summarize %q: %w", name, err)
		}
		putCourse(res.Snapshot, cs)
	}
	return res, nil
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func courseName(c EnrolledCourse) string {
	switch {
	case c.FullName != "":
		return c.FullName
	case c.ShortName != "":
		return c.ShortName
	default:
		return fmt.Sprintf("Course %d", c.ID)
	}
}

// putCourse appends cs, or replaces an earlier course of the same name in
// place: two enrollments sharing a display name collapse to the later one.
func putCourse(s *model.Snapshot, cs model.CourseSnapshot) {
	for i := range s.Courses {
		if s.Courses[i].Name == cs.Name {
			s.Courses[i] = cs
			return
		}
	}
	s.Courses = append(s.Courses, cs)
}
