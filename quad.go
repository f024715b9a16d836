package snakesboard

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Corner order convention for every 4-point slice in this package.
// Wrong order is not detectable and silently produces a wrong mapping.
const (
	CornerBottomLeft = iota
	CornerBottomRight
	CornerTopRight
	CornerTopLeft
)

// unit square coordinates matching the corner order above.
// u runs left to right, v runs bottom to top.
var cornerUV = [4]r2.Point{
	{X: 0, Y: 0}, // bottom-left
	{X: 1, Y: 0}, // bottom-right
	{X: 1, Y: 1}, // top-right
	{X: 0, Y: 1}, // top-left
}

const (
	inverseMaxIterations = 20
	inverseTolerance     = 1e-6
	jacobianEpsilon      = 1e-9
)

// BoardQuad maps the unit square (u,v) in [0,1]^2 onto the board
// quadrilateral in pixel space using a bilinear form:
//
//	x = a0 + a1*u + a2*v + a3*u*v
//	y = b0 + b1*u + b2*v + b3*u*v
//
// A bilinear patch is enough for a near-planar board photo; it is not a full
// projective homography.
type BoardQuad struct {
	a [4]float64
	b [4]float64

	corners [4]r2.Point
}

// SolveQuad fits the bilinear coefficients to four corner points given in
// BL,BR,TR,TL order. The 4 correspondences give an 8x8 linear system over
// (a0..a3, b0..b3) which is solved by Gaussian elimination with partial
// pivoting.
func SolveQuad(corners []r2.Point) (*BoardQuad, error) {
	if len(corners) != 4 {
		return nil, fmt.Errorf("need 4 corners, got %d", len(corners))
	}

	var m [8][8]float64
	var rhs [8]float64

	for i, c := range corners {
		u, v := cornerUV[i].X, cornerUV[i].Y
		r := 2 * i

		// x = a0 + a1*u + a2*v + a3*u*v
		m[r][0] = 1
		m[r][1] = u
		m[r][2] = v
		m[r][3] = u * v
		rhs[r] = c.X

		// y = b0 + b1*u + b2*v + b3*u*v
		m[r+1][4] = 1
		m[r+1][5] = u
		m[r+1][6] = v
		m[r+1][7] = u * v
		rhs[r+1] = c.Y
	}

	sol, ok := solve8x8(m, rhs)
	if !ok {
		return nil, fmt.Errorf("corner quad is singular")
	}

	q := &BoardQuad{
		a: [4]float64{sol[0], sol[1], sol[2], sol[3]},
		b: [4]float64{sol[4], sol[5], sol[6], sol[7]},
	}
	copy(q.corners[:], corners)
	return q, nil
}

// Corners returns the corner points the quad was solved from, BL,BR,TR,TL.
func (q *BoardQuad) Corners() []r2.Point {
	out := make([]r2.Point, 4)
	copy(out, q.corners[:])
	return out
}

// Forward maps normalized (u,v) to pixel coordinates. Exact, no iteration.
func (q *BoardQuad) Forward(u, v float64) r2.Point {
	return r2.Point{
		X: q.a[0] + q.a[1]*u + q.a[2]*v + q.a[3]*u*v,
		Y: q.b[0] + q.b[1]*u + q.b[2]*v + q.b[3]*u*v,
	}
}

// newtonState is one (u,v) guess of the iterative inverse. Keeping it as an
// explicit value with a pure step function lets convergence be tested without
// the surrounding pipeline.
type newtonState struct {
	u, v float64
}

// step performs one Newton-Raphson update toward Forward(u,v) == target and
// reports the combined step size. A near-singular Jacobian is epsilon-guarded:
// the step degrades instead of dividing by zero.
func (s newtonState) step(q *BoardQuad, target r2.Point) (newtonState, float64) {
	p := q.Forward(s.u, s.v)
	ex := target.X - p.X
	ey := target.Y - p.Y

	// analytic Jacobian of the bilinear form
	j00 := q.a[1] + q.a[3]*s.v
	j01 := q.a[2] + q.a[3]*s.u
	j10 := q.b[1] + q.b[3]*s.v
	j11 := q.b[2] + q.b[3]*s.u

	det := j00*j11 - j01*j10
	if math.Abs(det) < jacobianEpsilon {
		if det < 0 {
			det = -jacobianEpsilon
		} else {
			det = jacobianEpsilon
		}
	}

	du := (ex*j11 - ey*j01) / det
	dv := (ey*j00 - ex*j10) / det

	return newtonState{u: s.u + du, v: s.v + dv}, math.Abs(du) + math.Abs(dv)
}

// Invert maps a pixel back to normalized (u,v). The bilinear form has no
// closed-form inverse, so this iterates Newton-Raphson from the center of the
// unit square. For points inside a non-degenerate quad the round trip through
// Forward recovers (u,v) within the convergence tolerance; for degenerate
// quads convergence is not guaranteed.
func (q *BoardQuad) Invert(p r2.Point) (float64, float64) {
	s := newtonState{u: 0.5, v: 0.5}
	for range inverseMaxIterations {
		next, stepSize := s.step(q, p)
		s = next
		if stepSize < inverseTolerance {
			break
		}
	}
	return s.u, s.v
}

func solve8x8(m [8][8]float64, rhs [8]float64) ([8]float64, bool) {
	// forward elimination with partial pivoting
	for col := range 8 {
		pivot := col
		maxAbs := math.Abs(m[col][col])
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > maxAbs {
				maxAbs = math.Abs(m[r][col])
				pivot = r
			}
		}
		if maxAbs == 0 {
			return [8]float64{}, false
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			rhs[col], rhs[pivot] = rhs[pivot], rhs[col]
		}

		div := m[col][col]
		for c := col; c < 8; c++ {
			m[col][c] /= div
		}
		rhs[col] /= div

		for r := range 8 {
			if r == col {
				continue
			}
			factor := m[r][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 8; c++ {
				m[r][c] -= factor * m[col][c]
			}
			rhs[r] -= factor * rhs[col]
		}
	}

	return rhs, true
}
