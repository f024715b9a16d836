package snakesboard

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestMappingDebugImagePassThrough(t *testing.T) {
	src := syntheticBoard()

	out, err := MappingDebugImage(src, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds(), test.ShouldResemble, src.Bounds())

	// unmarked copy: every pixel survives
	rgba, ok := out.(*image.RGBA)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, rgba.RGBAAt(200, 200), test.ShouldResemble, src.RGBAAt(200, 200))
}

func TestMappingDebugImageDrawsOverlay(t *testing.T) {
	src := syntheticBoard()
	doc := testDocument(t)

	out, err := MappingDebugImage(src, doc)
	test.That(t, err, test.ShouldBeNil)

	rgba, ok := out.(*image.RGBA)
	test.That(t, ok, test.ShouldBeTrue)

	// the board-edge grid line runs along x=0 on the unit-square document
	changed := 0
	for y := 0; y <= 100; y++ {
		if rgba.RGBAAt(0, y) != src.RGBAAt(0, y) {
			changed++
		}
	}
	test.That(t, changed, test.ShouldBeGreaterThan, 50)
}

func TestMappingDebugImageBadCorners(t *testing.T) {
	doc := testDocument(t)
	doc.Corners = doc.Corners[:2]

	_, err := MappingDebugImage(syntheticBoard(), doc)
	test.That(t, err, test.ShouldNotBeNil)
}
