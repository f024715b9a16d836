package snakesboard

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/rdk/rimage"
)

// Auto-detection: a best-effort alternative to clicking corners by hand. The
// pipeline never lets a failure escape as a panic; everything funnels into a
// DetectResult.

const (
	cropSize = 200

	boundaryMarginRatio = 0.20
	fallbackInsetRatio  = 0.05

	minCellDelta = 3

	componentConfidence = 0.1
	lowConfidenceFloor  = 0.5
)

// DetectResult is the output contract of one auto-detection run. Success is
// false only on hard failure (e.g. an unreadable image); a low-confidence
// detection is still Success=true with an advisory message, and the caller
// decides whether to accept it.
type DetectResult struct {
	Success    bool
	Confidence float64
	Message    string
	Mapping    *MappingDocument
}

func failedDetect(msg string) DetectResult {
	return DetectResult{Success: false, Confidence: 0, Message: msg}
}

// AutoDetectFromFile loads an image and runs detection on it. An unreachable
// or undecodable file is a hard failure.
func AutoDetectFromFile(path string) DetectResult {
	img, err := rimage.ReadImageFromFile(path)
	if err != nil {
		return failedDetect(fmt.Sprintf("cannot load board image: %v", err))
	}
	return AutoDetect(img)
}

// AutoDetect runs the full detection pipeline on a decoded image.
func AutoDetect(img image.Image) (result DetectResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedDetect(fmt.Sprintf("detection failed: %v", r))
		}
	}()

	if img == nil {
		return failedDetect("cannot load board image: no image")
	}

	lum := luminanceBuffer(img)
	corners, boundaryConf := detectBoundary(lum)

	quad, err := SolveQuad(corners)
	if err != nil {
		return failedDetect(fmt.Sprintf("detected corners are unusable: %v", err))
	}
	centers := GenerateCenters(quad)

	crop := resampleQuad(img, quad, cropSize)

	var components []component
	for _, mc := range []maskColor{maskRed, maskGreen, maskBlue, maskYellow} {
		mask := openMask(colorMask(crop, mc), cropSize, cropSize, 1)
		components = append(components, extractComponents(mask, mc)...)
	}

	ladders := map[int]int{}
	snakes := map[int]int{}
	accepted := 0
	for _, c := range components {
		if !c.plausible() {
			continue
		}
		topCell, bottomCell := snapEndpoints(quad, centers, c)
		switch {
		case topCell-bottomCell >= minCellDelta:
			recordMaxSpan(ladders, bottomCell, topCell)
			accepted++
		case bottomCell-topCell >= minCellDelta:
			recordMaxSpan(snakes, bottomCell, topCell)
			accepted++
		}
		// smaller deltas are noise
	}

	pruneInvalid(ladders, snakes)

	confidence := scoreConfidence(boundaryConf, accepted, len(ladders), len(snakes))

	doc := NewMappingDocument(quad.Corners(), centers, "auto-detected")
	doc.Meta.Source = "auto"
	doc.Meta.BoundaryConfidence = boundaryConf
	doc.Ladders = ladders
	doc.Snakes = snakes

	msg := fmt.Sprintf("detected %d ladders and %d snakes", len(ladders), len(snakes))
	if confidence < lowConfidenceFloor {
		msg += "; confidence is low, manual calibration recommended"
	}

	return DetectResult{
		Success:    true,
		Confidence: confidence,
		Message:    msg,
		Mapping:    doc,
	}
}

// luminanceBuffer flattens an image into per-pixel luminance, the one buffer
// boundary detection reads.
func luminanceBuffer(img image.Image) [][]int {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	lum := make([][]int, height)
	for y := range height {
		lum[y] = make([]int, width)
		for x := range width {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum[y][x] = (int(r>>8) + int(g>>8) + int(b>>8)) / 3
		}
	}
	return lum
}

// detectBoundary guesses the board edges from accumulated luminance
// gradients: the strongest column gradient within the outer 20% margin on
// each side, likewise for rows. Intentionally coarse; no sub-pixel or
// rotation correction. If the found rectangle is implausibly small a fixed
// 5%-inset rectangle is used instead.
func detectBoundary(lum [][]int) ([]r2.Point, float64) {
	height := len(lum)
	width := len(lum[0])

	colGrad := make([]float64, width)
	rowGrad := make([]float64, height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			colGrad[x] += math.Abs(float64(lum[y][x+1] - lum[y][x-1]))
			rowGrad[y] += math.Abs(float64(lum[y+1][x] - lum[y-1][x]))
		}
	}

	marginX := int(float64(width) * boundaryMarginRatio)
	marginY := int(float64(height) * boundaryMarginRatio)

	left := strongestIndex(colGrad, 0, marginX)
	right := strongestIndex(colGrad, width-marginX, width)
	top := strongestIndex(rowGrad, 0, marginY)
	bottom := strongestIndex(rowGrad, height-marginY, height)

	areaRatio := float64((right-left)*(bottom-top)) / float64(width*height)

	var confidence float64
	switch {
	case areaRatio > 0.40:
		confidence = 0.5
	case areaRatio > 0.20:
		confidence = 0.7
	case areaRatio > 0.10:
		confidence = 0.6
	default:
		// boundary search found nothing usable, fall back to a fixed inset
		insetX := int(float64(width) * fallbackInsetRatio)
		insetY := int(float64(height) * fallbackInsetRatio)
		left, right = insetX, width-insetX
		top, bottom = insetY, height-insetY
		confidence = 0.4
	}

	corners := []r2.Point{
		{X: float64(left), Y: float64(bottom)},  // BL
		{X: float64(right), Y: float64(bottom)}, // BR
		{X: float64(right), Y: float64(top)},    // TR
		{X: float64(left), Y: float64(top)},     // TL
	}
	return corners, confidence
}

func strongestIndex(grad []float64, from, to int) int {
	if from < 0 {
		from = 0
	}
	if to > len(grad) {
		to = len(grad)
	}
	best := from
	bestVal := -1.0
	for i := from; i < to; i++ {
		if grad[i] > bestVal {
			bestVal = grad[i]
			best = i
		}
	}
	return best
}

// resampleQuad pulls the board quad into a fixed-size square crop, sampling
// the source bilinearly through the forward map. Crop row 0 is the top of
// the board (v=1).
func resampleQuad(img image.Image, quad *BoardQuad, size int) *image.RGBA {
	crop := image.NewRGBA(image.Rect(0, 0, size, size))
	bounds := img.Bounds()

	for cy := range size {
		v := 1 - (float64(cy)+0.5)/float64(size)
		for cx := range size {
			u := (float64(cx) + 0.5) / float64(size)
			p := quad.Forward(u, v)
			crop.Set(cx, cy, sampleBilinear(img, bounds, p))
		}
	}
	return crop
}

// sampleBilinear interpolates the four source pixels around p. Samples
// outside the image clamp to the border.
func sampleBilinear(img image.Image, bounds image.Rectangle, p r2.Point) color.RGBA {
	fx := math.Floor(p.X)
	fy := math.Floor(p.Y)
	tx := p.X - fx
	ty := p.Y - fy

	x0 := clampInt(int(fx), bounds.Min.X, bounds.Max.X-1)
	y0 := clampInt(int(fy), bounds.Min.Y, bounds.Max.Y-1)
	x1 := clampInt(x0+1, bounds.Min.X, bounds.Max.X-1)
	y1 := clampInt(y0+1, bounds.Min.Y, bounds.Max.Y-1)

	blend := func(a, b, c, d uint32) uint8 {
		top := float64(a>>8)*(1-tx) + float64(b>>8)*tx
		bot := float64(c>>8)*(1-tx) + float64(d>>8)*tx
		return uint8(top*(1-ty) + bot*ty)
	}

	r00, g00, b00, _ := img.At(x0, y0).RGBA()
	r10, g10, b10, _ := img.At(x1, y0).RGBA()
	r01, g01, b01, _ := img.At(x0, y1).RGBA()
	r11, g11, b11, _ := img.At(x1, y1).RGBA()

	return color.RGBA{
		R: blend(r00, r10, r01, r11),
		G: blend(g00, g10, g01, g11),
		B: blend(b00, b10, b01, b11),
		A: 255,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// snapEndpoints maps a component's y-extremal crop pixels onto their nearest
// logical cells. endLow has the smaller crop y, which is the top of the
// board. The pairing assumes the art has a clear vertical extent; diagonal or
// curved art can pick a misleading pair.
func snapEndpoints(quad *BoardQuad, centers []SquareCenter, c component) (topCell, bottomCell int) {
	topCell = cellAtCropPoint(quad, centers, c.endLow)
	bottomCell = cellAtCropPoint(quad, centers, c.endHigh)
	return topCell, bottomCell
}

func cellAtCropPoint(quad *BoardQuad, centers []SquareCenter, p image.Point) int {
	u := (float64(p.X) + 0.5) / cropSize
	v := 1 - (float64(p.Y)+0.5)/cropSize
	return NearestCell(centers, quad.Forward(u, v))
}

// recordMaxSpan keeps at most one target per source cell, preferring the
// candidate with the widest cell span.
func recordMaxSpan(m map[int]int, source, target int) {
	if existing, ok := m[source]; ok {
		if absInt(existing-source) >= absInt(target-source) {
			return
		}
	}
	m[source] = target
}

// pruneInvalid drops entries that survived de-duplication but violate the
// direction invariants: a ladder must ascend, a snake must descend.
func pruneInvalid(ladders, snakes map[int]int) {
	for base, top := range ladders {
		if top <= base {
			delete(ladders, base)
		}
	}
	for head, tail := range snakes {
		if tail >= head {
			delete(snakes, head)
		}
	}
}

// scoreConfidence combines the boundary signal with per-component and
// count-based signal strength. A heuristic quality estimate, not a
// probability.
func scoreConfidence(boundaryConf float64, accepted, ladderCount, snakeCount int) float64 {
	componentScore := float64(accepted) * componentConfidence
	countScore := 0.5 * math.Min(1, float64(ladderCount+snakeCount)/12)
	confidence := 0.4*boundaryConf + 0.6*math.Min(1, componentScore+countScore)
	return math.Max(0, math.Min(1, confidence))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
