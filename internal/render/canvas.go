package render

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Canvas is an explicitly scoped drawing context. Exactly one of Flush or
// Discard must be called once drawing is done; the canvas is unusable
// afterwards.
type Canvas interface {
	// SetBounds fixes the shared range of the three axes.
	SetBounds(c Cube) error
	// Scatter draws a point cloud.
	Scatter(label string, pts []r3.Vec) error
	// Arrow draws a directed segment.
	Arrow(a Arrow) error
	// Flush writes or shows the drawing and releases the canvas.
	Flush() error
	// Discard releases the canvas without producing output.
	Discard()
}

// Target opens canvases for one output destination.
type Target interface {
	Open(title string) (Canvas, error)
}

// Draw renders s into c. It does not flush.
func Draw(c Canvas, s Scene) error {
	l := NewLayout(s)
	if err := c.SetBounds(l.Bounds); err != nil {
		return fmt.Errorf("draw bounds: %w", err)
	}
	if err := c.Scatter("Samples", s.Points); err != nil {
		return fmt.Errorf("draw samples: %w", err)
	}
	for _, a := range l.Arrows {
		if err := c.Arrow(a); err != nil {
			return fmt.Errorf("draw %s: %w", a.Label, err)
		}
	}
	return nil
}

// Emit opens a canvas on t, draws s and flushes it. When drawing fails or
// panics the canvas is discarded instead, so no partial output is left.
func Emit(t Target, s Scene) (err error) {
	c, err := t.Open(s.Title)
	if err != nil {
		return err
	}

	done := false
	defer func() {
		if !done {
			c.Discard()
		}
	}()

	if err := Draw(c, s); err != nil {
		return err
	}
	done = true
	return c.Flush()
}
