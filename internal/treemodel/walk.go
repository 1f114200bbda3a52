package treemodel

// Walk visits every row of m depth-first in row order, passing the column 0
// index and its depth (0 for top-level rows). Returning false from fn skips
// the row's children.
func Walk(m ItemModel, fn func(idx Index, depth int) bool) {
	walk(m, Index{}, 0, fn)
}

func walk(m ItemModel, parent Index, depth int, fn func(Index, int) bool) {
	for row := 0; row < m.RowCount(parent); row++ {
		idx := m.Index(row, 0, parent)
		if !idx.IsValid() {
			continue
		}
		if fn(idx, depth) {
			walk(m, idx, depth+1, fn)
		}
	}
}
