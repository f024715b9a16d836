package snakesboard

import (
	"math"

	"github.com/golang/geo/r2"
)

const (
	centerMaxIterations = 10
	centerTolerance     = 1e-3
)

// SquareCenter is the pixel and normalized location of one logical cell's
// center.
type SquareCenter struct {
	Cell int     `json:"cell"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	U    float64 `json:"u"`
	V    float64 `json:"v"`
}

// CellUV returns the normalized center of a cell. u runs left to right,
// v from the bottom edge of the board upward.
func CellUV(cell int) (float64, float64) {
	row, col := RowColFromCell(cell)
	u := (float64(col) + 0.5) / GridSize
	v := (float64(GridSize-1-row) + 0.5) / GridSize
	return u, v
}

// GenerateCenters computes the pixel center of all 100 cells through the
// solved quad. Each center is located by a short Newton refinement from the
// quad centroid: step the pixel guess until its inverse-mapped (u,v) matches
// the cell's target within the tolerance. The table is regenerated wholesale
// whenever corners change, never patched.
func GenerateCenters(q *BoardQuad) []SquareCenter {
	centroid := q.Forward(0.5, 0.5)

	centers := make([]SquareCenter, 0, CellCount)
	for cell := 1; cell <= CellCount; cell++ {
		u, v := CellUV(cell)
		p := refineCenter(q, centroid, u, v)
		centers = append(centers, SquareCenter{Cell: cell, X: p.X, Y: p.Y, U: u, V: v})
	}
	return centers
}

// refineCenter walks a pixel guess toward the point whose inverse-mapped
// normalized coordinate equals (tu,tv). The Jacobian of the forward map
// converts the normalized error into a pixel step.
func refineCenter(q *BoardQuad, start r2.Point, tu, tv float64) r2.Point {
	p := start
	for range centerMaxIterations {
		u, v := q.Invert(p)
		eu := tu - u
		ev := tv - v
		if math.Abs(eu)+math.Abs(ev) < centerTolerance {
			break
		}

		dx := (q.a[1]+q.a[3]*v)*eu + (q.a[2]+q.a[3]*u)*ev
		dy := (q.b[1]+q.b[3]*v)*eu + (q.b[2]+q.b[3]*u)*ev
		p = r2.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return p
}

// NearestCell returns the cell whose center is closest to p, by exhaustive
// scan over the 100 centers. Ties keep the first center found in generation
// order; with real center spacing ties do not occur.
func NearestCell(centers []SquareCenter, p r2.Point) int {
	if len(centers) == 0 {
		return 1
	}

	best := centers[0].Cell
	bestDist := math.MaxFloat64
	for _, c := range centers {
		dx := p.X - c.X
		dy := p.Y - c.Y
		dist := dx*dx + dy*dy
		if dist < bestDist {
			bestDist = dist
			best = c.Cell
		}
	}
	return best
}
