package collector

import "context"

// Client is the authenticated Moodle web-service surface the collector needs.
type Client interface {
	GetSiteInfo(ctx context.Context) (*SiteInfo, error)
	GetEnrolledCourses(ctx context.Context, userID int64) ([]EnrolledCourse, error)
	GetGradeItems(ctx context.Context, courseID, userID int64) (*GradeReport, error)
	Name() string
}

// SiteInfo is the subset of core_webservice_get_site_info we use.
type SiteInfo struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	SiteName string `json:"sitename"`
}

// EnrolledCourse is one entry of core_enrol_get_users_courses.
type EnrolledCourse struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullname"`
	ShortName string `json:"shortname"`
}

// GradeReport is the response of gradereport_user_get_grade_items.
type GradeReport struct {
	UserGrades []UserGrade `json:"usergrades"`
}

// UserGrade groups the grade items of one user in one course.
type UserGrade struct {
	CourseID   int64          `json:"courseid"`
	UserID     int64          `json:"userid"`
	GradeItems []RawGradeItem `json:"gradeitems"`
}

// RawGradeItem mirrors the wire shape of a grade item. Every field Moodle may
// send as null is a pointer.
type RawGradeItem struct {
	ID              *int64   `json:"id"`
	ItemName        *string  `json:"itemname"`
	GradeRaw        *float64 `json:"graderaw"`
	GradeMax        *float64 `json:"grademax"`
	GradeMin        *float64 `json:"grademin"`
	GradeDateGraded *int64   `json:"gradedategraded"`
}
