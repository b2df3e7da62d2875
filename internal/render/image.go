package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/forcecal/internal/fsutil"
)

// DefaultImageSize is the edge length of the square image.
const DefaultImageSize = 7 * vg.Inch

const (
	arrowHeadRatio = 0.15
	arrowHeadAngle = 25 * math.Pi / 180
)

var errReleased = errors.New("render: canvas already released")

// imageFormats are the extensions gonum/plot can write.
var imageFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"svg": true, "pdf": true, "eps": true,
}

// FileTarget renders to an image file. The format follows the file
// extension; PNG is the usual choice.
type FileTarget struct {
	FS   fsutil.FileSystem
	Path string
	// Size is the image edge length. Zero means DefaultImageSize.
	Size vg.Length
	// View is the camera. The zero value means DefaultView.
	View View
}

// Open starts a new image canvas.
func (t FileTarget) Open(title string) (Canvas, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(t.Path), "."))
	if !imageFormats[format] {
		return nil, fmt.Errorf("unsupported image format %q for %s", format, t.Path)
	}

	size := t.Size
	if size == 0 {
		size = DefaultImageSize
	}
	view := t.View
	if view == (View{}) {
		view = DefaultView
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return &imageCanvas{
		target: t,
		format: format,
		size:   size,
		view:   view,
		plot:   p,
	}, nil
}

// imageCanvas draws an orthographic projection of the scene with gonum/plot.
type imageCanvas struct {
	target FileTarget
	format string
	size   vg.Length
	view   View
	plot   *plot.Plot
	cube   *Cube
}

func (c *imageCanvas) SetBounds(cube Cube) error {
	if c.plot == nil {
		return errReleased
	}
	c.cube = &cube

	corners := cube.Corners()
	var proj [8]plotter.XY
	for i, v := range corners {
		proj[i] = c.view.Project(v)
	}

	for _, e := range cube.Edges() {
		edge, err := plotter.NewLine(plotter.XYs{proj[e[0]], proj[e[1]]})
		if err != nil {
			return err
		}
		edge.LineStyle.Color = color.Gray{Y: 0xb4}
		edge.LineStyle.Width = vg.Points(0.5)
		c.plot.Add(edge)
	}

	// Name the three edges leaving the min corner after the axis they follow.
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs: []plotter.XY{proj[1], proj[2], proj[4]},
		Labels: []string{
			fmt.Sprintf("X [%.3g, %.3g]", cube.Min, cube.Max),
			fmt.Sprintf("Y [%.3g, %.3g]", cube.Min, cube.Max),
			fmt.Sprintf("Z [%.3g, %.3g]", cube.Min, cube.Max),
		},
	})
	if err != nil {
		return err
	}
	c.plot.Add(labels)
	return nil
}

func (c *imageCanvas) Scatter(label string, pts []r3.Vec) error {
	if c.plot == nil {
		return errReleased
	}
	s, err := plotter.NewScatter(c.view.ProjectAll(pts))
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = draw.PlusGlyph{}
	s.GlyphStyle.Color = PointColor
	s.GlyphStyle.Radius = vg.Points(1.5)
	c.plot.Add(s)
	c.plot.Legend.Add(label, s)
	return nil
}

func (c *imageCanvas) Arrow(a Arrow) error {
	if c.plot == nil {
		return errReleased
	}
	base := c.view.Project(a.Origin)
	tip := c.view.Project(a.Tip())
	pts := plotter.XYs{base, tip}

	// The head is drawn in page space so it stays visible from any view.
	dx, dy := tip.X-base.X, tip.Y-base.Y
	if l := math.Hypot(dx, dy); l > 0 {
		back := math.Atan2(dy, dx) + math.Pi
		head := arrowHeadRatio * l
		for _, side := range []float64{1, -1} {
			ang := back + side*arrowHeadAngle
			pts = append(pts,
				plotter.XY{X: tip.X + head*math.Cos(ang), Y: tip.Y + head*math.Sin(ang)},
				tip,
			)
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = a.Color
	line.LineStyle.Width = vg.Points(1.5)
	c.plot.Add(line)
	c.plot.Legend.Add(a.Label, line)
	return nil
}

func (c *imageCanvas) Flush() error {
	if c.plot == nil {
		return errReleased
	}
	p := c.plot
	c.plot = nil

	if c.cube != nil {
		c.fitWindow(p, *c.cube)
	}
	wt, err := p.WriterTo(c.size, c.size, c.format)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.target.Path, err)
	}
	return fsutil.Replace(c.target.FS, c.target.Path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}

func (c *imageCanvas) Discard() {
	c.plot = nil
}

// fitWindow centres the projected cube in a square data window so that both
// page axes share one scale.
func (c *imageCanvas) fitWindow(p *plot.Plot, cube Cube) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range cube.Corners() {
		xy := c.view.Project(v)
		minX, maxX = math.Min(minX, xy.X), math.Max(maxX, xy.X)
		minY, maxY = math.Min(minY, xy.Y), math.Max(maxY, xy.Y)
	}
	half := 0.55 * math.Max(maxX-minX, maxY-minY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}
