package render

import (
	"fmt"
	"image/color"
	"io"
	"os/exec"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/fsutil"
)

// arrowSamples is the number of points used to draw an arrow in 3D.
const arrowSamples = 32

// DisplayTarget renders to an interactive HTML page and hands it to Viewer.
// Viewer must not block; OpenBrowser starts the system browser and returns.
type DisplayTarget struct {
	FS   fsutil.FileSystem
	Path string
	// Viewer shows the written page. Nil means OpenBrowser.
	Viewer func(path string) error
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
}

// Open starts a new interactive canvas.
func (t DisplayTarget) Open(title string) (Canvas, error) {
	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  title,
			Width:      "900px",
			Height:     "900px",
			AssetsHost: t.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	return &displayCanvas{target: t, chart: chart}, nil
}

// displayCanvas accumulates go-echarts 3D series.
type displayCanvas struct {
	target DisplayTarget
	chart  *charts.Scatter3D
}

func (c *displayCanvas) SetBounds(cube Cube) error {
	if c.chart == nil {
		return errReleased
	}
	c.chart.SetGlobalOptions(
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Min: cube.Min, Max: cube.Max}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Min: cube.Min, Max: cube.Max}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Min: cube.Min, Max: cube.Max}),
	)
	return nil
}

func (c *displayCanvas) Scatter(label string, pts []r3.Vec) error {
	if c.chart == nil {
		return errReleased
	}
	c.addSeries(label, pts, PointColor)
	return nil
}

func (c *displayCanvas) Arrow(a Arrow) error {
	if c.chart == nil {
		return errReleased
	}
	pts := make([]r3.Vec, arrowSamples+1)
	for i := range pts {
		t := float64(i) / arrowSamples
		pts[i] = r3.Add(a.Origin, r3.Scale(t*a.Length, a.Dir))
	}
	c.addSeries(a.Label, pts, a.Color)
	return nil
}

func (c *displayCanvas) addSeries(label string, pts []r3.Vec, col color.RGBA) {
	data := make([]opts.Chart3DData, len(pts))
	for i, p := range pts {
		data[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
	}
	c.chart.AddSeries(label, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(col)}))
}

func (c *displayCanvas) Flush() error {
	if c.chart == nil {
		return errReleased
	}
	chart := c.chart
	c.chart = nil

	err := fsutil.Replace(c.target.FS, c.target.Path, func(w io.Writer) error {
		return chart.Render(w)
	})
	if err != nil {
		return err
	}

	view := c.target.Viewer
	if view == nil {
		view = OpenBrowser
	}
	if err := view(c.target.Path); err != nil {
		return fmt.Errorf("show %s: %w", c.target.Path, err)
	}
	return nil
}

func (c *displayCanvas) Discard() {
	c.chart = nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// OpenBrowser asks the desktop to open path and returns without waiting.
func OpenBrowser(path string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{path}
	case "linux":
		cmd = "xdg-open"
		args = []string{path}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", path}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return exec.Command(cmd, args...).Start()
}
