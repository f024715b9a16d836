package snakesboard

// The board is a 10x10 grid numbered 1..100 along a boustrophedon path:
// the bottom row (row index 9, counting rows from the top) holds cells 1-10
// left to right, the row above holds 11-20 right to left, and so on up to
// cell 100 at the top-left.

const (
	// GridSize is the number of rows and columns on the board.
	GridSize = 10
	// CellCount is the number of logical cells.
	CellCount = GridSize * GridSize
)

// ClampCell forces cell into [1,100]. Out-of-range input is clamped rather
// than rejected so a bad click or a noisy detection degrades instead of
// failing.
func ClampCell(cell int) int {
	if cell < 1 {
		return 1
	}
	if cell > CellCount {
		return CellCount
	}
	return cell
}

// CellFromRowCol converts a (row, col) grid coordinate to a cell number.
// Row 0 is the top row of the board, row 9 the bottom.
func CellFromRowCol(row, col int) int {
	rowFromBottom := GridSize - 1 - row
	var offset int
	if rowFromBottom%2 == 0 {
		// left to right
		offset = col
	} else {
		// right to left
		offset = GridSize - 1 - col
	}
	return ClampCell(rowFromBottom*GridSize + offset + 1)
}

// RowColFromCell converts a cell number to its (row, col) grid coordinate,
// the inverse of CellFromRowCol.
func RowColFromCell(cell int) (int, int) {
	cell = ClampCell(cell)
	rowFromBottom := (cell - 1) / GridSize
	offset := (cell - 1) % GridSize

	row := GridSize - 1 - rowFromBottom
	var col int
	if rowFromBottom%2 == 0 {
		col = offset
	} else {
		col = GridSize - 1 - offset
	}
	return row, col
}
