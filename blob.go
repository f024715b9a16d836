package snakesboard

import (
	"image"
	"math"
)

// Binary pixel masks and connected-component analysis over the normalized
// board crop. Everything here operates on explicit [][]bool / [][]int buffers
// so each stage is testable on its own.

const (
	minComponentSize = 30
	minAspectRatio   = 2.0
	minBlobLength    = 12.0
)

// maskColor identifies which color channel rule produced a mask.
type maskColor int

const (
	maskRed maskColor = iota
	maskGreen
	maskBlue
	maskYellow
)

var maskColorNames = []string{"red", "green", "blue", "yellow"}

func (m maskColor) String() string { return maskColorNames[m] }

// colorMask thresholds an RGBA crop into one binary mask per detectable
// color. The rules are normalized channel ratios with minimum absolute
// intensity floors, so dim noise and gray board texture stay out.
func colorMask(crop *image.RGBA, color maskColor) [][]bool {
	bounds := crop.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	mask := make([][]bool, height)
	for y := range height {
		mask[y] = make([]bool, width)
		for x := range width {
			c := crop.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b := float64(c.R), float64(c.G), float64(c.B)

			switch color {
			case maskRed:
				mask[y][x] = r > 90 && r > 1.35*g && r > 1.35*b
			case maskGreen:
				mask[y][x] = g > 80 && g > 1.3*r && g > 1.3*b
			case maskBlue:
				mask[y][x] = b > 80 && b > 1.3*r && b > 1.3*g
			case maskYellow:
				mask[y][x] = r > 110 && g > 110 && b < 0.65*math.Min(r, g)
			}
		}
	}
	return mask
}

// openMask runs one round of morphological erosion then dilation with a
// square structuring element, killing isolated noise pixels while roughly
// preserving blob extent.
func openMask(mask [][]bool, width, height, radius int) [][]bool {
	return dilateMask(erodeMask(mask, width, height, radius), width, height, radius)
}

func erodeMask(mask [][]bool, width, height, radius int) [][]bool {
	result := make([][]bool, height)
	for y := range height {
		result[y] = make([]bool, width)
	}

	for y := radius; y < height-radius; y++ {
		for x := radius; x < width-radius; x++ {
			allSet := true
			for dy := -radius; dy <= radius && allSet; dy++ {
				for dx := -radius; dx <= radius && allSet; dx++ {
					if !mask[y+dy][x+dx] {
						allSet = false
					}
				}
			}
			result[y][x] = allSet
		}
	}

	return result
}

func dilateMask(mask [][]bool, width, height, radius int) [][]bool {
	result := make([][]bool, height)
	for y := range height {
		result[y] = make([]bool, width)
	}

	for y := radius; y < height-radius; y++ {
		for x := radius; x < width-radius; x++ {
			anySet := false
			for dy := -radius; dy <= radius && !anySet; dy++ {
				for dx := -radius; dx <= radius && !anySet; dx++ {
					if mask[y+dy][x+dx] {
						anySet = true
					}
				}
			}
			result[y][x] = anySet
		}
	}

	return result
}

// component is one connected blob in a mask. Transient: it exists only during
// a single detection run.
type component struct {
	color  maskColor
	pixels []image.Point
	bbox   image.Rectangle

	// the two mutually farthest pixels found by the two-pass search,
	// ordered so endLow.Y <= endHigh.Y
	endLow  image.Point
	endHigh image.Point

	length float64
	aspect float64
}

// extractComponents flood-fills a binary mask into 8-connected components,
// discarding anything below the size floor.
func extractComponents(mask [][]bool, color maskColor) []component {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := range height {
		visited[y] = make([]bool, width)
	}

	var components []component
	for y := range height {
		for x := range width {
			if !mask[y][x] || visited[y][x] {
				continue
			}
			pixels := floodFill8(mask, visited, x, y, width, height)
			if len(pixels) < minComponentSize {
				continue
			}
			components = append(components, buildComponent(color, pixels))
		}
	}
	return components
}

func floodFill8(mask, visited [][]bool, startX, startY, width, height int) []image.Point {
	stack := []image.Point{{startX, startY}}
	var pixels []image.Point

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if !mask[p.Y][p.X] || visited[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		pixels = append(pixels, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{p.X + dx, p.Y + dy})
			}
		}
	}

	return pixels
}

// buildComponent computes bounding box, endpoints, length and aspect for a
// pixel set. The endpoints come from a two-pass farthest-point search, not a
// true PCA: good enough for elongated art with a clear vertical extent,
// wrong for strongly curved shapes.
func buildComponent(color maskColor, pixels []image.Point) component {
	bbox := image.Rectangle{Min: pixels[0], Max: pixels[0].Add(image.Point{1, 1})}
	for _, p := range pixels[1:] {
		if p.X < bbox.Min.X {
			bbox.Min.X = p.X
		}
		if p.Y < bbox.Min.Y {
			bbox.Min.Y = p.Y
		}
		if p.X+1 > bbox.Max.X {
			bbox.Max.X = p.X + 1
		}
		if p.Y+1 > bbox.Max.Y {
			bbox.Max.Y = p.Y + 1
		}
	}

	first := farthestPoint(pixels, pixels[0])
	second := farthestPoint(pixels, first)

	low, high := first, second
	if low.Y > high.Y {
		low, high = high, low
	}

	w := float64(bbox.Dx())
	h := float64(bbox.Dy())
	longSide := math.Max(w, h)
	shortSide := math.Max(math.Min(w, h), 1)

	return component{
		color:   color,
		pixels:  pixels,
		bbox:    bbox,
		endLow:  low,
		endHigh: high,
		length:  pointDist(first, second),
		aspect:  longSide / shortSide,
	}
}

// plausible reports whether a component is shaped like snake or ladder art
// rather than a round decoration or a cell tint.
func (c component) plausible() bool {
	return c.aspect > minAspectRatio && c.length > minBlobLength
}

func farthestPoint(pixels []image.Point, from image.Point) image.Point {
	best := from
	bestDist := -1.0
	for _, p := range pixels {
		d := pointDist(from, p)
		if d > bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

func pointDist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
