package tables

import (
	"sort"

	"github.com/tsawler/timetable/model"
)

// Dedupe collapses overlapping boxes. Boxes are visited smallest first and a
// box is kept unless its IoU with an already kept box exceeds threshold, so
// the inner rectangle of a ruled cell wins over the outline around it.
//
// The result is ordered by ascending area and Dedupe is idempotent.
func Dedupe(boxes []model.Box, threshold float64) []model.Box {
	sorted := make([]model.Box, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area() < sorted[j].Area()
	})

	kept := make([]model.Box, 0, len(sorted))
	for _, b := range sorted {
		duplicate := false
		for _, k := range kept {
			if model.IoU(b, k) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, b)
		}
	}
	return kept
}
