package model

// GradeDetails is the structured part of a grade notification.
type GradeDetails struct {
	Course     string
	Assignment string
	OldGrade   *string
	NewGrade   string
}

// Notification is a request for one user-facing notification.
type Notification struct {
	Title   string
	Body    string
	Details *GradeDetails
}
