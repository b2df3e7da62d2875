package render

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/principal"
)

// DefaultArrowScale is the arrow length as a multiple of the cloud's display
// scale.
const DefaultArrowScale = 2.0

// Axis colours, in principal-axis order, then the reference direction.
var (
	AxisColors = [3]color.RGBA{
		{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, // red
		{R: 0x1f, G: 0x3f, B: 0xd4, A: 0xff}, // blue
		{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, // green
	}
	ReferenceColor = color.RGBA{A: 0xff}
	PointColor     = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// Scene is everything drawn for one sensor.
type Scene struct {
	Title  string
	Points []r3.Vec
	Result principal.Result

	// Reference is the applied calibration force direction. It is drawn
	// unnormalised, so a zero vector yields a zero-length arrow.
	Reference *r3.Vec

	// ArrowScale multiplies the display scale to give arrow length.
	// Zero means DefaultArrowScale.
	ArrowScale float64
}

// Arrow is a directed segment anchored at Origin. Its tip is
// Origin + Length*Dir.
type Arrow struct {
	Label  string
	Origin r3.Vec
	Dir    r3.Vec
	Length float64
	Color  color.RGBA
}

// Tip returns the arrow end point.
func (a Arrow) Tip() r3.Vec {
	return r3.Add(a.Origin, r3.Scale(a.Length, a.Dir))
}

// Cube is the shared range of all three plot axes.
type Cube struct {
	Min, Max float64
}

// Corners returns the eight cube vertices. Index bits select Max for x
// (bit 0), y (bit 1) and z (bit 2).
func (c Cube) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	for i := range out {
		pick := func(bit int) float64 {
			if i&(1<<bit) != 0 {
				return c.Max
			}
			return c.Min
		}
		out[i] = r3.Vec{X: pick(0), Y: pick(1), Z: pick(2)}
	}
	return out
}

// Edges returns the twelve cube edges as corner index pairs.
func (Cube) Edges() [12][2]int {
	return [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along x
		{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along y
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along z
	}
}

// Layout is the geometry derived from a Scene.
type Layout struct {
	Centroid r3.Vec
	// Scale is the largest absolute coordinate of the centred cloud.
	Scale  float64
	Arrows []Arrow
	Bounds Cube
}

// NewLayout centres the cloud independently of the extractor, sizes the
// arrows from the centred extent and fits an equal-range cube around the
// points and arrow tips.
func NewLayout(s Scene) Layout {
	centred, centroid := principal.Centre(s.Points)

	var scale float64
	for _, p := range centred {
		scale = math.Max(scale, math.Max(math.Abs(p.X), math.Max(math.Abs(p.Y), math.Abs(p.Z))))
	}

	k := s.ArrowScale
	if k == 0 {
		k = DefaultArrowScale
	}
	length := k * scale

	l := Layout{Centroid: centroid, Scale: scale}
	for i, axis := range s.Result.Axes {
		l.Arrows = append(l.Arrows, Arrow{
			Label:  axisLabel(i),
			Origin: centroid,
			Dir:    axis,
			Length: length,
			Color:  AxisColors[i],
		})
	}
	if s.Reference != nil {
		l.Arrows = append(l.Arrows, Arrow{
			Label:  "Applied force",
			Origin: centroid,
			Dir:    *s.Reference,
			Length: length,
			Color:  ReferenceColor,
		})
	}

	l.Bounds = fitCube(s.Points, l.Arrows)
	return l
}

func axisLabel(i int) string {
	return [...]string{"Axis 1", "Axis 2", "Axis 3"}[i]
}

// fitCube returns the smallest range covering every coordinate of pts and
// every arrow end, on all axes at once.
func fitCube(pts []r3.Vec, arrows []Arrow) Cube {
	lo, hi := math.Inf(1), math.Inf(-1)
	grow := func(v r3.Vec) {
		lo = math.Min(lo, math.Min(v.X, math.Min(v.Y, v.Z)))
		hi = math.Max(hi, math.Max(v.X, math.Max(v.Y, v.Z)))
	}
	for _, p := range pts {
		grow(p)
	}
	for _, a := range arrows {
		grow(a.Origin)
		grow(a.Tip())
	}

	switch {
	case math.IsInf(lo, 0) || math.IsInf(hi, 0):
		return Cube{Min: -1, Max: 1}
	case hi-lo == 0:
		return Cube{Min: lo - 1, Max: hi + 1}
	}
	return Cube{Min: lo, Max: hi}
}
