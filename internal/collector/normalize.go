package collector

import (
	"strings"

	"GradeSentinel/internal/model"
)

// IsCourseTotalRow reports whether an item name denotes the aggregate row
// Moodle injects into grade reports rather than a real grade item: empty,
// "none" or "null", case-insensitive, with surrounding parentheses ignored.
func IsCourseTotalRow(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSpace(strings.Trim(n, "()"))
	switch n {
	case "", "none", "null":
		return true
	}
	return false
}

// FilterItems drops course-total rows. It keeps no state between items, so
// applying it twice is the same as applying it once.
func FilterItems(items []model.GradeItem) []model.GradeItem {
	out := make([]model.GradeItem, 0, len(items))
	for _, it := range items {
		if IsCourseTotalRow(it.Name) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// NormalizeReport flattens a grade report into typed grade items in API
// order, with course-total rows removed. A nil report yields no items.
func NormalizeReport(report *GradeReport) []model.GradeItem {
	if report == nil {
		return nil
	}
	var items []model.GradeItem
	for _, ug := range report.UserGrades {
		for _, raw := range ug.GradeItems {
			items = append(items, toGradeItem(raw))
		}
	}
	return FilterItems(items)
}

func toGradeItem(raw RawGradeItem) model.GradeItem {
	item := model.GradeItem{
		ID:       raw.ID,
		RawScore: raw.GradeRaw,
		MaxScore: raw.GradeMax,
		MinScore: raw.GradeMin,
		GradedAt: raw.GradeDateGraded,
	}
	if raw.ItemName != nil {
		item.Name = *raw.ItemName
	}
	return item
}
