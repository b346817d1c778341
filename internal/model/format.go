package model

import "strconv"

// NotGraded is how a missing raw score is displayed.
const NotGraded = "Not graded"

// FormatScore renders an optional raw score for people.
func FormatScore(score *float64) string {
	if score == nil {
		return NotGraded
	}
	return strconv.FormatFloat(*score, 'f', -1, 64) + " points"
}
