// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic sensor recordings so that the loader,
// extractor, renderer and pipeline tests all exercise the same shapes of
// data.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianCloud returns n points drawn from an axis-aligned normal
// distribution centred on mean with per-axis standard deviation sigma.
// The same seed always yields the same cloud.
func GaussianCloud(seed uint64, n int, mean, sigma r3.Vec) []r3.Vec {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	nx := distuv.Normal{Mu: mean.X, Sigma: sigma.X, Src: src}
	ny := distuv.Normal{Mu: mean.Y, Sigma: sigma.Y, Src: src}
	nz := distuv.Normal{Mu: mean.Z, Sigma: sigma.Z, Src: src}

	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: nx.Rand(), Y: ny.Rand(), Z: nz.Rand()}
	}
	return pts
}

// LineCloud returns n points evenly spaced along dir, from -dir to +dir,
// passing through the origin.
func LineCloud(n int, dir r3.Vec) []r3.Vec {
	pts := make([]r3.Vec, n)
	if n == 1 {
		return pts
	}
	for i := range pts {
		t := -1 + 2*float64(i)/float64(n-1)
		pts[i] = r3.Scale(t, dir)
	}
	return pts
}

// RecordingCSV renders a 13-column sensor file from left and right force
// clouds. Moment columns are filled with a deterministic function of the
// force so they are distinguishable from it. The shorter slice bounds the
// number of rows.
func RecordingCSV(left, right []r3.Vec) string {
	n := min(len(left), len(right))
	var b strings.Builder
	for i := 0; i < n; i++ {
		l, r := left[i], right[i]
		fmt.Fprintf(&b, "%g,%g,%g,%g,%g,%g,%g,%g,%g,%g,%g,%g,%g\n",
			float64(i)*0.01,
			l.X, l.Y, l.Z, -l.Y, l.X, 0.5*l.Z,
			r.X, r.Y, r.Z, -r.Y, r.X, 0.5*r.Z,
		)
	}
	return b.String()
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
