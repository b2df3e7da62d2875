// Package sensordata loads raw recordings from the dual force/torque rig.
//
// A recording is a headerless CSV with 13 numeric columns per row:
//
//	t, fxL, fyL, fzL, mxL, myL, mzL, fxR, fyR, fzR, mxR, myR, mzR
//
// Each row becomes one Sample. Point clouds for analysis are sliced out of
// a Recording by sensor side and channel.
package sensordata

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Columns is the number of values in every row of a recording.
const Columns = 13

// Side selects one of the two sensors on the rig.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sensors in report order.
var Sides = []Side{Left, Right}

func (s Side) String() string {
	switch s {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Channel selects force or moment readings of a sensor.
type Channel int

const (
	Force Channel = iota
	Moment
)

func (c Channel) String() string {
	switch c {
	case Force:
		return "Force"
	case Moment:
		return "Moment"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel accepts "force" or "moment" in any case.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "force", "":
		return Force, nil
	case "moment", "torque":
		return Moment, nil
	default:
		return 0, fmt.Errorf("unknown channel %q (want force or moment)", s)
	}
}

// Sample is one row of a recording.
type Sample struct {
	T           float64
	LeftForce   r3.Vec
	LeftMoment  r3.Vec
	RightForce  r3.Vec
	RightMoment r3.Vec
}

// Vec returns the reading for side and channel.
func (s Sample) Vec(side Side, ch Channel) r3.Vec {
	switch {
	case side == Left && ch == Force:
		return s.LeftForce
	case side == Left && ch == Moment:
		return s.LeftMoment
	case side == Right && ch == Force:
		return s.RightForce
	default:
		return s.RightMoment
	}
}

// Recording is the full contents of one input file.
type Recording struct {
	Source  string
	Samples []Sample
}

// Cloud returns the point cloud of one sensor channel, in sample order.
func (r *Recording) Cloud(side Side, ch Channel) []r3.Vec {
	out := make([]r3.Vec, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Vec(side, ch)
	}
	return out
}

// Duration returns the time span covered by the recording.
func (r *Recording) Duration() float64 {
	if len(r.Samples) < 2 {
		return 0
	}
	return r.Samples[len(r.Samples)-1].T - r.Samples[0].T
}

func sampleFromRow(v [Columns]float64) Sample {
	return Sample{
		T:           v[0],
		LeftForce:   r3.Vec{X: v[1], Y: v[2], Z: v[3]},
		LeftMoment:  r3.Vec{X: v[4], Y: v[5], Z: v[6]},
		RightForce:  r3.Vec{X: v[7], Y: v[8], Z: v[9]},
		RightMoment: r3.Vec{X: v[10], Y: v[11], Z: v[12]},
	}
}
