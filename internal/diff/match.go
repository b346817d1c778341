package diff

import "GradeSentinel/internal/model"

// FindMatch returns the first item in prev that matches item. Two items
// match when both carry the same id or when their names are equal, so a
// renamed item keeps its id match and a re-created item keeps its name match.
// Duplicate ids or names resolve to the first one encountered.
func FindMatch(prev []model.GradeItem, item model.GradeItem) (model.GradeItem, bool) {
	for _, p := range prev {
		if sameItem(p, item) {
			return p, true
		}
	}
	return model.GradeItem{}, false
}

func sameItem(a, b model.GradeItem) bool {
	if a.ID != nil && b.ID != nil && *a.ID == *b.ID {
		return true
	}
	return a.Name == b.Name
}
