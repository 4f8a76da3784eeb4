// internal/canvas/canvas.go
//
// Server-side drawing surface.
// Responsibilities:
//   - Own a fixed-size RGBA raster, initialized to white.
//   - Render freehand strokes as independent round-capped segments.
//   - Count "ink" (visibly non-white pixels) for the prediction gate.
//   - Encode the raster as PNG / PNG data URL for the prediction service.
//
// Notes:
//   - Canvas is not safe for concurrent use; the owning session serializes access.
//   - Segments are rasterized with golang.org/x/image/vector, so edges are
//     anti-aliased the same way a browser 2D context would produce gray fringes.

package canvas

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"
)

const (
	// LineWidth is the stroke width in pixels.
	LineWidth = 12.0

	// InkRedCutoff: a pixel counts as ink when its red channel is below this.
	// Tolerates anti-aliased fringes that are almost white.
	InkRedCutoff = 250

	// capSteps is the number of polygon steps used for each half-circle cap.
	capSteps = 16
)

// Point is a cursor position in canvas pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Canvas is a white raster that strokes are drawn onto.
type Canvas struct {
	img *image.RGBA
	ink *image.Uniform
	z   *vector.Rasterizer // reused per segment, sized to the segment's box
}

// New returns a w×h canvas filled white.
func New(w, h int) *Canvas {
	c := &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		ink: image.NewUniform(color.Black),
	}
	c.Clear()
	return c
}

// Size returns the raster dimensions.
func (c *Canvas) Size() (w, h int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the whole raster with white.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.White, image.Point{}, draw.Src)
}

// Image exposes the backing raster. Callers must treat it as read-only.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Segment draws a black round-capped line of LineWidth from a to b.
// A zero-length segment draws a dot.
func (c *Canvas) Segment(a, b Point) {
	const r = LineWidth / 2
	a, b = c.clamp(a), c.clamp(b)

	box := segmentBounds(a, b, r).Intersect(c.img.Bounds())
	if box.Empty() {
		return
	}
	if c.z == nil {
		c.z = vector.NewRasterizer(box.Dx(), box.Dy())
	} else {
		c.z.Reset(box.Dx(), box.Dy())
	}

	// Rasterizer coordinates are relative to the box.
	o := Point{X: float64(box.Min.X), Y: float64(box.Min.Y)}
	capsule(c.z, Point{a.X - o.X, a.Y - o.Y}, Point{b.X - o.X, b.Y - o.Y}, r)
	c.z.Draw(c.img, box, c.ink, image.Point{})
}

// segmentBounds is the pixel box covering a capsule of radius r, plus one
// pixel for anti-aliasing.
func segmentBounds(a, b Point, r float64) image.Rectangle {
	pad := r + 1
	return image.Rect(
		int(math.Floor(math.Min(a.X, b.X)-pad)),
		int(math.Floor(math.Min(a.Y, b.Y)-pad)),
		int(math.Ceil(math.Max(a.X, b.X)+pad)),
		int(math.Ceil(math.Max(a.Y, b.Y)+pad)),
	)
}

// clamp keeps p inside the raster.
func (c *Canvas) clamp(p Point) Point {
	w, h := c.Size()
	p.X = math.Max(0, math.Min(float64(w), p.X))
	p.Y = math.Max(0, math.Min(float64(h), p.Y))
	return p
}

// capsule adds a closed convex outline: a half circle around b, then a half
// circle around a, joined by the two straight sides of the segment.
func capsule(z *vector.Rasterizer, a, b Point, r float64) {
	theta := math.Atan2(b.Y-a.Y, b.X-a.X)

	arc := func(center Point, start float64, first bool) {
		for i := 0; i <= capSteps; i++ {
			t := start + math.Pi*float64(i)/capSteps
			x := float32(center.X + r*math.Cos(t))
			y := float32(center.Y + r*math.Sin(t))
			if first && i == 0 {
				z.MoveTo(x, y)
				continue
			}
			z.LineTo(x, y)
		}
	}
	arc(b, theta-math.Pi/2, true)
	arc(a, theta+math.Pi/2, false)
	z.ClosePath()
}

// InkAmount counts pixels whose red channel is below InkRedCutoff.
func (c *Canvas) InkAmount() int {
	count := 0
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		if pix[i] < InkRedCutoff {
			count++
		}
	}
	return count
}

// PNG encodes the raster as PNG bytes.
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURL returns the raster as a `data:image/png;base64,...` string.
func (c *Canvas) DataURL() (string, error) {
	b, err := c.PNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b), nil
}
