package snakesboard

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"go.viam.com/test"
)

// syntheticBoard draws a bright board on a dark background: 400x400 frame,
// board from (40,40) to (360,360).
func syntheticBoard() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{10, 10, 10, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(40, 40, 360, 360), image.NewUniform(color.RGBA{230, 230, 230, 255}), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func TestDetectBoundary(t *testing.T) {
	lum := luminanceBuffer(syntheticBoard())
	corners, conf := detectBoundary(lum)

	test.That(t, len(corners), test.ShouldEqual, 4)
	// board covers 64% of the frame, which lands in the widest (most
	// suspicious) area band
	test.That(t, conf, test.ShouldAlmostEqual, 0.5, 1e-9)

	// BL,BR,TR,TL near the drawn board edges
	test.That(t, corners[CornerBottomLeft].X, test.ShouldAlmostEqual, 40, 3)
	test.That(t, corners[CornerBottomLeft].Y, test.ShouldAlmostEqual, 360, 3)
	test.That(t, corners[CornerTopRight].X, test.ShouldAlmostEqual, 360, 3)
	test.That(t, corners[CornerTopRight].Y, test.ShouldAlmostEqual, 40, 3)
}

func TestDetectBoundaryFallback(t *testing.T) {
	// featureless frame: gradient search finds nothing plausible, so the
	// fixed 5%-inset rectangle is used at confidence 0.4
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{128, 128, 128, 255}), image.Point{}, draw.Src)

	corners, conf := detectBoundary(luminanceBuffer(img))
	test.That(t, conf, test.ShouldAlmostEqual, 0.4, 1e-9)
	test.That(t, corners[CornerTopLeft].X, test.ShouldAlmostEqual, 10, 1e-9)
	test.That(t, corners[CornerTopLeft].Y, test.ShouldAlmostEqual, 10, 1e-9)
	test.That(t, corners[CornerBottomRight].X, test.ShouldAlmostEqual, 190, 1e-9)
	test.That(t, corners[CornerBottomRight].Y, test.ShouldAlmostEqual, 190, 1e-9)
}

func TestAutoDetectFindsLadder(t *testing.T) {
	img := syntheticBoard()

	// a tall red stripe from the bottom row (cell 2) up to the fifth row
	// (cell 42): clearly elongated, clearly ascending
	fillRect(img, image.Rect(84, 220, 92, 340), color.RGBA{200, 30, 30, 255})

	result := AutoDetect(img)
	test.That(t, result.Success, test.ShouldBeTrue)
	test.That(t, result.Mapping, test.ShouldNotBeNil)
	test.That(t, result.Mapping.Meta.Source, test.ShouldEqual, "auto")
	test.That(t, result.Mapping.Meta.BoundaryConfidence, test.ShouldAlmostEqual, 0.5, 1e-9)

	test.That(t, result.Mapping.Ladders, test.ShouldResemble, map[int]int{2: 42})
	test.That(t, len(result.Mapping.Snakes), test.ShouldEqual, 0)

	// one blob is weak signal: low confidence, but still a success with an
	// advisory, acceptance is the caller's call
	test.That(t, result.Confidence, test.ShouldBeGreaterThan, 0)
	test.That(t, result.Confidence, test.ShouldBeLessThan, lowConfidenceFloor)
	test.That(t, strings.Contains(result.Message, "manual calibration"), test.ShouldBeTrue)
}

func TestAutoDetectIgnoresCompactBlobs(t *testing.T) {
	img := syntheticBoard()

	// a square green patch: big enough to survive the size floor but with
	// aspect ~1, so shape classification drops it
	fillRect(img, image.Rect(180, 180, 220, 220), color.RGBA{30, 190, 30, 255})

	result := AutoDetect(img)
	test.That(t, result.Success, test.ShouldBeTrue)
	test.That(t, len(result.Mapping.Ladders), test.ShouldEqual, 0)
	test.That(t, len(result.Mapping.Snakes), test.ShouldEqual, 0)
}

func TestAutoDetectUnreadableFile(t *testing.T) {
	result := AutoDetectFromFile("data/no-such-board.jpg")
	test.That(t, result.Success, test.ShouldBeFalse)
	test.That(t, result.Confidence, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, result.Mapping, test.ShouldBeNil)
}

func TestAutoDetectNilImage(t *testing.T) {
	result := AutoDetect(nil)
	test.That(t, result.Success, test.ShouldBeFalse)
	test.That(t, result.Confidence, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestRecordMaxSpanDeduplicates(t *testing.T) {
	m := map[int]int{}
	recordMaxSpan(m, 5, 20)
	recordMaxSpan(m, 5, 12)
	test.That(t, m, test.ShouldResemble, map[int]int{5: 20})

	// a wider span replaces a narrower one regardless of arrival order
	m = map[int]int{}
	recordMaxSpan(m, 5, 12)
	recordMaxSpan(m, 5, 20)
	test.That(t, m, test.ShouldResemble, map[int]int{5: 20})
}

func TestPruneInvalidTransitions(t *testing.T) {
	ladders := map[int]int{10: 7, 4: 14}
	snakes := map[int]int{20: 38, 87: 24}

	pruneInvalid(ladders, snakes)

	test.That(t, ladders, test.ShouldResemble, map[int]int{4: 14})
	test.That(t, snakes, test.ShouldResemble, map[int]int{87: 24})
}

func TestScoreConfidence(t *testing.T) {
	test.That(t, scoreConfidence(0, 0, 0, 0), test.ShouldAlmostEqual, 0, 1e-9)

	// saturated component signal clamps at 1 before weighting
	test.That(t, scoreConfidence(1, 50, 12, 12), test.ShouldAlmostEqual, 1, 1e-9)

	got := scoreConfidence(0.5, 1, 1, 0)
	want := 0.4*0.5 + 0.6*(0.1+0.5*(1.0/12))
	test.That(t, got, test.ShouldAlmostEqual, want, 1e-9)
}
