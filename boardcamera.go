package snakesboard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/spatialmath"
)

var MappingCameraModel = family.WithModel("mapping-camera")

func init() {
	resource.RegisterComponent(camera.API, MappingCameraModel,
		resource.Registration[camera.Camera, *MappingCameraConfig]{
			Constructor: newMappingCamera,
		},
	)
}

// MappingCameraConfig wires an input camera and the mapping store whose
// document should be drawn over each frame.
type MappingCameraConfig struct {
	Input      string
	MappingDir string `json:"mapping-dir"`
}

func (cfg *MappingCameraConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Input == "" {
		return nil, nil, fmt.Errorf("need an input")
	}
	if cfg.MappingDir == "" {
		return nil, nil, fmt.Errorf("need a mapping-dir")
	}
	return []string{cfg.Input}, nil, nil
}

func newMappingCamera(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (camera.Camera, error) {
	conf, err := resource.NativeConfig[*MappingCameraConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewMappingCamera(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewMappingCamera(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *MappingCameraConfig, logger logging.Logger) (camera.Camera, error) {
	var err error

	mc := &MappingCamera{
		name:   name,
		conf:   conf,
		logger: logger,
	}

	mc.input, err = camera.FromProvider(deps, conf.Input)
	if err != nil {
		return nil, err
	}

	mc.store, err = NewMappingStore(conf.MappingDir)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// MappingCamera overlays the calibrated or detected mapping (cell grid,
// numbers, snake and ladder arrows) on the input camera's frames, so the user
// can judge a mapping at a glance before playing on it.
type MappingCamera struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	conf   *MappingCameraConfig
	logger logging.Logger

	input camera.Camera
	store *MappingStore
}

func (mc *MappingCamera) Image(ctx context.Context, mimeType string, extra map[string]interface{}) ([]byte, camera.ImageMetadata, error) {
	return camera.GetImageFromGetImages(ctx, nil, mc, extra, nil)
}

func (mc *MappingCamera) Images(ctx context.Context, filterSourceNames []string, extra map[string]interface{}) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	ni, rm, err := mc.input.Images(ctx, nil, extra)
	if err != nil {
		return nil, rm, err
	}

	if len(ni) == 0 {
		return nil, rm, fmt.Errorf("no images returned from input camera")
	}

	srcImg, err := ni[0].Image(ctx)
	if err != nil {
		return nil, rm, err
	}

	doc := mc.store.Current()
	if doc == nil {
		mc.logger.Debug("no mapping stored yet, passing frame through")
	}

	dst, err := MappingDebugImage(srcImg, doc)
	if err != nil {
		return nil, rm, err
	}

	result, err := camera.NamedImageFromImage(dst, ni[0].SourceName, "", data.Annotations{})
	if err != nil {
		return nil, rm, err
	}
	return []camera.NamedImage{result}, rm, nil
}

// MappingDebugImage draws a mapping document over a board frame. A nil
// document returns an unmarked copy.
func MappingDebugImage(srcImg image.Image, doc *MappingDocument) (image.Image, error) {
	bounds := srcImg.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, srcImg, bounds.Min, draw.Src)

	if doc == nil {
		return dst, nil
	}

	quad, err := SolveQuad(doc.CornerPoints())
	if err != nil {
		return nil, err
	}

	gridColor := color.RGBA{0, 0, 0, 255}
	labelColor := color.RGBA{255, 0, 0, 255}

	// grid lines across the quad
	for i := 0; i <= GridSize; i++ {
		f := float64(i) / GridSize
		drawQuadLine(dst, quad.Forward(f, 0), quad.Forward(f, 1), gridColor)
		drawQuadLine(dst, quad.Forward(0, f), quad.Forward(1, f), gridColor)
	}

	// cell numbers at each center
	centerAt := make(map[int]r2.Point, len(doc.Centers))
	for _, c := range doc.Centers {
		centerAt[c.Cell] = r2.Point{X: c.X, Y: c.Y}
		drawString(dst, int(c.X)-6, int(c.Y)+4, fmt.Sprintf("%d", c.Cell), labelColor)
	}

	// ladders green-ish, snakes red-ish, hue-stepped per entry so overlapping
	// arrows stay distinguishable
	i := 0
	for base, top := range doc.Ladders {
		hue := 90.0 + float64(i%4)*15
		drawTransition(dst, centerAt[base], centerAt[top], colorfulRGBA(hue))
		i++
	}
	i = 0
	for head, tail := range doc.Snakes {
		hue := 330.0 + float64(i%4)*15
		drawTransition(dst, centerAt[head], centerAt[tail], colorfulRGBA(hue))
		i++
	}

	return dst, nil
}

func colorfulRGBA(hue float64) color.RGBA {
	c := colorful.Hsv(math.Mod(hue, 360), 1, 1)
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

func drawTransition(dst *image.RGBA, from, to r2.Point, c color.RGBA) {
	drawQuadLine(dst, from, to, c)
	drawCross(dst, int(to.X), int(to.Y), 6, c)
}

func drawQuadLine(dst *image.RGBA, from, to r2.Point, c color.Color) {
	steps := int(math.Hypot(to.X-from.X, to.Y-from.Y)) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(from.X + (to.X-from.X)*t)
		y := int(from.Y + (to.Y-from.Y)*t)
		if x >= 0 && x < dst.Bounds().Max.X && y >= 0 && y < dst.Bounds().Max.Y {
			dst.Set(x, y, c)
		}
	}
}

func drawCross(img *image.RGBA, cx, cy, size int, c color.Color) {
	for d := -size; d <= size; d++ {
		x := cx + d
		if x >= 0 && x < img.Bounds().Max.X && cy >= 0 && cy < img.Bounds().Max.Y {
			img.Set(x, cy, c)
		}
		y := cy + d
		if cx >= 0 && cx < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
			img.Set(cx, y, c)
		}
	}
}

func drawString(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func (mc *MappingCamera) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return nil, fmt.Errorf("DoCommand not supported")
}

func (mc *MappingCamera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	return nil, fmt.Errorf("NextPointCloud not supported")
}

func (mc *MappingCamera) Properties(ctx context.Context) (camera.Properties, error) {
	return camera.Properties{}, nil
}

func (mc *MappingCamera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

func (mc *MappingCamera) Name() resource.Name {
	return mc.name
}
