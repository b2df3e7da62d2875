// Package report writes the calibration text report for both sensors.
//
// Layout, one line each:
//
//	Left Force Sensor
//	Axis 1
//	x,y,z
//	Axis 2
//	x,y,z
//	Axis 3
//	x,y,z
//	<blank separator>
//	Right Force Sensor
//	...
//
// Values use fixed-point notation with four decimal places. Magnitudes are
// left out unless Options.IncludeMagnitudes is set.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/fsutil"
	"github.com/banshee-data/forcecal/internal/principal"
	"github.com/banshee-data/forcecal/internal/sensordata"
)

// Options controls optional report content.
type Options struct {
	// Channel names the sensor quantity in section headers.
	Channel sensordata.Channel
	// IncludeMagnitudes appends a "Magnitudes" block to each sensor.
	IncludeMagnitudes bool
}

// Write replaces the file at path with the report for left and right.
// Any existing file is deleted first. Failures wrap fsutil.ErrFilesystem.
func Write(fsys fsutil.FileSystem, path string, left, right principal.Result, opts Options) error {
	return fsutil.Replace(fsys, path, func(w io.Writer) error {
		return Encode(w, left, right, opts)
	})
}

// Encode writes the report body to w.
func Encode(w io.Writer, left, right principal.Result, opts Options) error {
	bw := bufio.NewWriter(w)

	writeSensor(bw, Header(sensordata.Left, opts.Channel), left, opts)
	bw.WriteString("\n")
	writeSensor(bw, Header(sensordata.Right, opts.Channel), right, opts)

	return bw.Flush()
}

// Header returns the section label for one sensor, e.g. "Left Force Sensor".
func Header(side sensordata.Side, ch sensordata.Channel) string {
	return fmt.Sprintf("%s %s Sensor", side, ch)
}

// FormatVec renders v as "x,y,z" with four decimal places.
func FormatVec(v r3.Vec) string {
	return formatRow(v.X, v.Y, v.Z)
}

func writeSensor(w *bufio.Writer, header string, res principal.Result, opts Options) {
	w.WriteString(header + "\n")
	for i, axis := range res.Axes {
		fmt.Fprintf(w, "Axis %d\n%s\n", i+1, FormatVec(axis))
	}
	if opts.IncludeMagnitudes {
		m := res.Magnitudes
		fmt.Fprintf(w, "Magnitudes\n%s\n", formatRow(m[0], m[1], m[2]))
	}
}

func formatRow(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, ",")
}
