package export

import (
	"relbench/internal/compare"
)

// UniqueColumns lays the unique relations of each tool out as spreadsheet
// columns: the first row holds the labels, the following rows the sorted
// relations. Shorter columns are padded with empty cells.
func UniqueColumns(res *compare.Result) [][]string {
	if res == nil || len(res.Labels) == 0 {
		return nil
	}

	columns := make([][]string, len(res.Labels))
	depth := 0
	for i := range res.Labels {
		columns[i] = res.Unique[i].Sorted()
		if len(columns[i]) > depth {
			depth = len(columns[i])
		}
	}

	rows := make([][]string, 0, depth+1)
	rows = append(rows, append([]string(nil), res.Labels...))
	for r := 0; r < depth; r++ {
		row := make([]string, len(columns))
		for c, col := range columns {
			if r < len(col) {
				row[c] = col[r]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
