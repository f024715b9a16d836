package snakesboard

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"go.viam.com/test"
)

func maskFromRects(width, height int, rects ...image.Rectangle) [][]bool {
	mask := make([][]bool, height)
	for y := range height {
		mask[y] = make([]bool, width)
	}
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				mask[y][x] = true
			}
		}
	}
	return mask
}

func countMask(mask [][]bool) int {
	n := 0
	for _, row := range mask {
		for _, set := range row {
			if set {
				n++
			}
		}
	}
	return n
}

func TestOpenMaskKillsNoise(t *testing.T) {
	// a solid block plus scattered single pixels
	mask := maskFromRects(40, 40,
		image.Rect(10, 10, 20, 20),
		image.Rect(30, 5, 31, 6),
		image.Rect(5, 33, 6, 34),
	)

	opened := openMask(mask, 40, 40, 1)

	// isolated pixels are gone, the block survives at (almost) full size
	test.That(t, opened[5][30], test.ShouldBeFalse)
	test.That(t, opened[33][5], test.ShouldBeFalse)
	test.That(t, opened[15][15], test.ShouldBeTrue)
	test.That(t, countMask(opened), test.ShouldEqual, 100)
}

func TestExtractComponentsEightConnectivity(t *testing.T) {
	// two blocks touching only on a diagonal: 8-connected fill merges them
	mask := maskFromRects(40, 40,
		image.Rect(2, 2, 8, 8),
		image.Rect(8, 8, 14, 14),
	)

	components := extractComponents(mask, maskRed)
	test.That(t, len(components), test.ShouldEqual, 1)
	test.That(t, len(components[0].pixels), test.ShouldEqual, 72)
}

func TestExtractComponentsSizeFloor(t *testing.T) {
	mask := maskFromRects(40, 40,
		image.Rect(2, 2, 7, 7),    // 25 pixels, below the floor
		image.Rect(20, 2, 26, 12), // 60 pixels, kept
	)

	components := extractComponents(mask, maskGreen)
	test.That(t, len(components), test.ShouldEqual, 1)
	test.That(t, components[0].bbox, test.ShouldResemble, image.Rect(20, 2, 26, 12))
}

func TestComponentShape(t *testing.T) {
	// 4 wide, 30 tall stripe
	mask := maskFromRects(60, 60, image.Rect(10, 15, 14, 45))

	components := extractComponents(mask, maskBlue)
	test.That(t, len(components), test.ShouldEqual, 1)

	c := components[0]
	test.That(t, c.aspect, test.ShouldAlmostEqual, 30.0/4, 1e-9)
	test.That(t, c.length, test.ShouldBeGreaterThan, 28)
	test.That(t, c.plausible(), test.ShouldBeTrue)

	// endpoints ordered by y, spanning the stripe
	test.That(t, c.endLow.Y, test.ShouldEqual, 15)
	test.That(t, c.endHigh.Y, test.ShouldEqual, 44)

	// a compact blob is not plausible art
	square := extractComponents(maskFromRects(60, 60, image.Rect(5, 5, 15, 15)), maskBlue)
	test.That(t, len(square), test.ShouldEqual, 1)
	test.That(t, square[0].plausible(), test.ShouldBeFalse)
}

func TestColorMaskRules(t *testing.T) {
	crop := image.NewRGBA(image.Rect(0, 0, 4, 1))
	crop.SetRGBA(0, 0, color.RGBA{200, 30, 30, 255})   // red
	crop.SetRGBA(1, 0, color.RGBA{30, 190, 30, 255})   // green
	crop.SetRGBA(2, 0, color.RGBA{220, 220, 40, 255})  // yellow
	crop.SetRGBA(3, 0, color.RGBA{128, 128, 128, 255}) // gray, in no mask

	test.That(t, colorMask(crop, maskRed)[0][0], test.ShouldBeTrue)
	test.That(t, colorMask(crop, maskGreen)[0][1], test.ShouldBeTrue)
	test.That(t, colorMask(crop, maskYellow)[0][2], test.ShouldBeTrue)

	for _, m := range []maskColor{maskRed, maskGreen, maskBlue, maskYellow} {
		mask := colorMask(crop, m)
		test.That(t, mask[0][3], test.ShouldBeFalse)
		// each sample lands in exactly one mask
		n := 0
		for x := range 3 {
			if mask[0][x] {
				n++
			}
		}
		test.That(t, n, test.ShouldBeLessThanOrEqualTo, 1)
	}
}

func TestResampleQuadOrientation(t *testing.T) {
	// board occupying the full frame, bottom half dark, top half bright
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, image.Rect(0, 0, 100, 50), image.NewUniform(color.RGBA{240, 240, 240, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 50, 100, 100), image.NewUniform(color.RGBA{20, 20, 20, 255}), image.Point{}, draw.Src)

	q, err := SolveQuad(squareCorners())
	test.That(t, err, test.ShouldBeNil)

	crop := resampleQuad(img, q, cropSize)
	test.That(t, crop.Bounds().Dx(), test.ShouldEqual, cropSize)

	// crop row 0 is the top of the board (v=1): bright
	test.That(t, crop.RGBAAt(100, 10).R, test.ShouldBeGreaterThan, 200)
	test.That(t, crop.RGBAAt(100, 190).R, test.ShouldBeLessThan, 50)
}
