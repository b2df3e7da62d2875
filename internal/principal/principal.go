// Package principal extracts the principal axes of a 3D point cloud.
//
// The cloud is centred on its centroid and the transposed (3xN) matrix is
// factorised by singular value decomposition. The left singular vectors are
// the principal axes and the singular values their magnitudes, in the
// non-increasing order the factorisation produces.
//
// Axis signs follow the LAPACK convention used by gonum and are not otherwise
// constrained. Callers may rely on orthonormality and on magnitude order, not
// on sign.
package principal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyCloud is returned when Extract is given no points.
	ErrEmptyCloud = errors.New("principal: empty point cloud")
	// ErrNoConvergence is returned when the SVD fails to converge.
	ErrNoConvergence = errors.New("principal: singular value decomposition did not converge")
	// ErrNonFinite is returned when a point, or its offset from the centroid,
	// is NaN or infinite. The decomposition never terminates on such input.
	ErrNonFinite = errors.New("principal: non-finite coordinate")
)

// Result holds the principal axes of one sensor's point cloud.
// Axes[i] pairs with Magnitudes[i]; Magnitudes are non-increasing and >= 0.
type Result struct {
	Axes       [3]r3.Vec
	Magnitudes [3]float64
	Centroid   r3.Vec
	Samples    int
}

// Centroid returns the component-wise mean of points.
func Centroid(points []r3.Vec) r3.Vec {
	if len(points) == 0 {
		return r3.Vec{}
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	return r3.Vec{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
}

// Centre returns a copy of points translated so their centroid is the origin,
// together with the centroid that was removed.
func Centre(points []r3.Vec) ([]r3.Vec, r3.Vec) {
	c := Centroid(points)
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = r3.Sub(p, c)
	}
	return out, c
}

// Extract computes the principal axes and magnitudes of points.
//
// Clouds with fewer than three points, or with no spread at all, are rank
// deficient. They still produce an orthonormal basis; the missing magnitudes
// are zero and the corresponding directions are arbitrary.
func Extract(points []r3.Vec) (Result, error) {
	n := len(points)
	if n == 0 {
		return Result{}, ErrEmptyCloud
	}

	centred, centroid := Centre(points)

	// Rows are the x, y and z components; one column per sample.
	data := make([]float64, 3*n)
	for j, p := range centred {
		if !finite(p) {
			return Result{}, fmt.Errorf("%w at sample %d", ErrNonFinite, j)
		}
		data[j] = p.X
		data[n+j] = p.Y
		data[2*n+j] = p.Z
	}
	a := mat.NewDense(3, n, data)

	// Full U keeps the basis 3x3 even when n < 3; V is never needed.
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFullU); !ok {
		return Result{}, ErrNoConvergence
	}

	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	res := Result{Centroid: centroid, Samples: n}
	for i := 0; i < 3; i++ {
		res.Axes[i] = r3.Vec{X: u.At(0, i), Y: u.At(1, i), Z: u.At(2, i)}
		if i < len(values) {
			res.Magnitudes[i] = values[i]
		}
	}
	return res, nil
}

// AnglesTo returns the angle in degrees between each principal axis and ref.
// Axes are unsigned, so angles lie in [0, 90]. ok is false for a zero ref.
func (r Result) AnglesTo(ref r3.Vec) (angles [3]float64, ok bool) {
	norm := r3.Norm(ref)
	if norm == 0 {
		return angles, false
	}
	unit := r3.Scale(1/norm, ref)
	for i, axis := range r.Axes {
		cos := math.Abs(r3.Dot(axis, unit))
		if cos > 1 {
			cos = 1
		}
		angles[i] = math.Acos(cos) * 180 / math.Pi
	}
	return angles, true
}

func (r Result) String() string {
	return fmt.Sprintf("n=%d centroid=(%.4f, %.4f, %.4f) e1=(%.4f, %.4f, %.4f) e2=(%.4f, %.4f, %.4f) e3=(%.4f, %.4f, %.4f) m=(%.4f, %.4f, %.4f)",
		r.Samples,
		r.Centroid.X, r.Centroid.Y, r.Centroid.Z,
		r.Axes[0].X, r.Axes[0].Y, r.Axes[0].Z,
		r.Axes[1].X, r.Axes[1].Y, r.Axes[1].Z,
		r.Axes[2].X, r.Axes[2].Y, r.Axes[2].Z,
		r.Magnitudes[0], r.Magnitudes[1], r.Magnitudes[2],
	)
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
