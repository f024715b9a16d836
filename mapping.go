package snakesboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"
)

// MappingVersion is the only document version this package reads or writes.
const MappingVersion = 1

// MappingMeta carries provenance for a mapping document.
type MappingMeta struct {
	Note               string  `json:"note"`
	Source             string  `json:"source,omitempty"`
	UpdatedAt          string  `json:"updatedAt,omitempty"`
	CreatedAt          string  `json:"createdAt,omitempty"`
	BoundaryConfidence float64 `json:"boundaryConfidence,omitempty"`
}

// PointJSON is the wire shape of a pixel point.
type PointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MappingDocument is the versioned hand-off artifact between calibration or
// auto-detection and game logic. It is the unit of persistence and
// interchange: saved, exported and imported as one JSON value, replaced
// wholesale rather than patched.
type MappingDocument struct {
	Version int            `json:"version"`
	Meta    MappingMeta    `json:"meta"`
	Corners []PointJSON    `json:"corners"`
	Centers []SquareCenter `json:"centers"`
	Ladders map[int]int    `json:"ladders"`
	Snakes  map[int]int    `json:"snakes"`
}

// NewMappingDocument builds a document from solved corners, stamping the
// creation time.
func NewMappingDocument(corners []r2.Point, centers []SquareCenter, note string) *MappingDocument {
	doc := &MappingDocument{
		Version: MappingVersion,
		Meta: MappingMeta{
			Note:      note,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		Corners: make([]PointJSON, 0, len(corners)),
		Centers: centers,
		Ladders: map[int]int{},
		Snakes:  map[int]int{},
	}
	for _, c := range corners {
		doc.Corners = append(doc.Corners, PointJSON{X: c.X, Y: c.Y})
	}
	return doc
}

// CornerPoints returns the document corners as float points, BL,BR,TR,TL.
func (d *MappingDocument) CornerPoints() []r2.Point {
	pts := make([]r2.Point, 0, len(d.Corners))
	for _, c := range d.Corners {
		pts = append(pts, r2.Point{X: c.X, Y: c.Y})
	}
	return pts
}

// Validate checks the structural invariants of a document and reports every
// violation it finds, not just the first.
func (d *MappingDocument) Validate() error {
	var err error

	if d.Version != MappingVersion {
		err = multierr.Append(err, fmt.Errorf("unsupported mapping version %d, want %d", d.Version, MappingVersion))
	}
	if len(d.Corners) != 4 {
		err = multierr.Append(err, fmt.Errorf("need 4 corners, got %d", len(d.Corners)))
	}
	if len(d.Centers) != 0 && len(d.Centers) != CellCount {
		err = multierr.Append(err, fmt.Errorf("need %d centers, got %d", CellCount, len(d.Centers)))
	}
	for base, top := range d.Ladders {
		if top <= base {
			err = multierr.Append(err, fmt.Errorf("ladder %d -> %d does not ascend", base, top))
		}
		if base < 1 || base > CellCount || top < 1 || top > CellCount {
			err = multierr.Append(err, fmt.Errorf("ladder %d -> %d out of range", base, top))
		}
	}
	for head, tail := range d.Snakes {
		if tail >= head {
			err = multierr.Append(err, fmt.Errorf("snake %d -> %d does not descend", head, tail))
		}
		if head < 1 || head > CellCount || tail < 1 || tail > CellCount {
			err = multierr.Append(err, fmt.Errorf("snake %d -> %d out of range", head, tail))
		}
	}

	return err
}

// EncodeMapping serializes a document to the interchange JSON shape.
func EncodeMapping(d *MappingDocument) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// DecodeMapping parses and validates a mapping document. Malformed JSON and a
// missing or wrong version tag are distinct errors; nothing is coerced or
// silently defaulted.
func DecodeMapping(data []byte) (*MappingDocument, error) {
	var doc MappingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mapping document is not valid JSON: %w", err)
	}
	if doc.Version != MappingVersion {
		return nil, fmt.Errorf("unsupported mapping version %d, want %d", doc.Version, MappingVersion)
	}
	if doc.Ladders == nil {
		doc.Ladders = map[int]int{}
	}
	if doc.Snakes == nil {
		doc.Snakes = map[int]int{}
	}
	return &doc, nil
}

// Calibration accumulates a mapping from user clicks: four corner clicks in
// BL,BR,TR,TL order, then ladder and snake endpoints. Corner order is a
// convention the caller must honor; it is never reordered here.
type Calibration struct {
	corners []r2.Point
	quad    *BoardQuad
	centers []SquareCenter

	ladders map[int]int
	snakes  map[int]int

	pendingCell int
}

// NewCalibration starts an empty calibration session.
func NewCalibration() *Calibration {
	return &Calibration{
		ladders:     map[int]int{},
		snakes:      map[int]int{},
		pendingCell: 0,
	}
}

// AddCorner records the next corner click. Once the fourth corner arrives the
// quad is solved and the center table generated.
func (c *Calibration) AddCorner(p r2.Point) error {
	if len(c.corners) >= 4 {
		return fmt.Errorf("already have 4 corners")
	}
	c.corners = append(c.corners, p)

	if len(c.corners) == 4 {
		quad, err := SolveQuad(c.corners)
		if err != nil {
			c.corners = c.corners[:3]
			return err
		}
		c.quad = quad
		c.centers = GenerateCenters(quad)
	}
	return nil
}

// Ready reports whether the corner quad is solved.
func (c *Calibration) Ready() bool {
	return c.quad != nil
}

// CellAt maps a clicked pixel to its logical cell through the center table.
func (c *Calibration) CellAt(p r2.Point) (int, error) {
	if !c.Ready() {
		return 0, fmt.Errorf("need 4 corners before cell lookup")
	}
	return NearestCell(c.centers, p), nil
}

// BeginTransition records the first endpoint click of a ladder or snake.
func (c *Calibration) BeginTransition(p r2.Point) (int, error) {
	cell, err := c.CellAt(p)
	if err != nil {
		return 0, err
	}
	c.pendingCell = cell
	return cell, nil
}

// FinishLadder completes a pending endpoint pair as a ladder. A top that does
// not exceed the base is rejected and the pending endpoint discarded.
func (c *Calibration) FinishLadder(p r2.Point) error {
	base := c.pendingCell
	c.pendingCell = 0
	if base == 0 {
		return fmt.Errorf("no pending ladder base")
	}

	top, err := c.CellAt(p)
	if err != nil {
		return err
	}
	if top <= base {
		return fmt.Errorf("ladder top %d must be above base %d", top, base)
	}
	c.ladders[base] = top
	return nil
}

// FinishSnake completes a pending endpoint pair as a snake. A tail that does
// not fall below the head is rejected and the pending endpoint discarded.
func (c *Calibration) FinishSnake(p r2.Point) error {
	head := c.pendingCell
	c.pendingCell = 0
	if head == 0 {
		return fmt.Errorf("no pending snake head")
	}

	tail, err := c.CellAt(p)
	if err != nil {
		return err
	}
	if tail >= head {
		return fmt.Errorf("snake tail %d must be below head %d", tail, head)
	}
	c.snakes[head] = tail
	return nil
}

// Document snapshots the calibration into a mapping document.
func (c *Calibration) Document(note string) (*MappingDocument, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("calibration incomplete: have %d of 4 corners", len(c.corners))
	}

	doc := NewMappingDocument(c.corners, c.centers, note)
	doc.Meta.Source = "manual"
	for base, top := range c.ladders {
		doc.Ladders[base] = top
	}
	for head, tail := range c.snakes {
		doc.Snakes[head] = tail
	}
	return doc, nil
}
