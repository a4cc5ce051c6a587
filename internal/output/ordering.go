package output

import (
	"sort"

	"relbench/internal/compare"
)

// SortOverlaps sorts overlaps by jaccard DESC, intersection DESC, left ASC, right ASC
func SortOverlaps(overlaps []compare.Overlap) {
	sort.SliceStable(overlaps, func(i, j int) bool {
		a, b := overlaps[i], overlaps[j]
		if RoundFloat(a.Jaccard) != RoundFloat(b.Jaccard) {
			return a.Jaccard > b.Jaccard
		}
		if a.Intersection != b.Intersection {
			return a.Intersection > b.Intersection
		}
		if a.Left != b.Left {
			return a.Left < b.Left
		}
		return a.Right < b.Right
	})
}

// SortToolSummaries sorts tool lines by unique DESC, total DESC, label ASC
func SortToolSummaries(tools []compare.ToolSummary) {
	sort.SliceStable(tools, func(i, j int) bool {
		if tools[i].Unique != tools[j].Unique {
			return tools[i].Unique > tools[j].Unique
		}
		if tools[i].Total != tools[j].Total {
			return tools[i].Total > tools[j].Total
		}
		return tools[i].Label < tools[j].Label
	})
}
