package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/plotter"
)

// View is a camera direction for projecting the scene onto a page.
// Angles are in degrees; the defaults match the usual 3D plot view.
type View struct {
	Elevation float64
	Azimuth   float64
}

// DefaultView looks down 30° from an azimuth of -60°.
var DefaultView = View{Elevation: 30, Azimuth: -60}

// Project maps p to page coordinates by orthographic projection. The page
// x axis is horizontal in the world and the page y axis is the projection
// of world up.
func (v View) Project(p r3.Vec) plotter.XY {
	el := v.Elevation * math.Pi / 180
	az := v.Azimuth * math.Pi / 180
	sinEl, cosEl := math.Sincos(el)
	sinAz, cosAz := math.Sincos(az)

	right := r3.Vec{X: -sinAz, Y: cosAz}
	up := r3.Vec{X: -sinEl * cosAz, Y: -sinEl * sinAz, Z: cosEl}
	return plotter.XY{X: r3.Dot(p, right), Y: r3.Dot(p, up)}
}

// ProjectAll projects every point in pts.
func (v View) ProjectAll(pts []r3.Vec) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i] = v.Project(p)
	}
	return out
}
