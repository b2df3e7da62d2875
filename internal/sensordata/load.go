package sensordata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/forcecal/internal/fsutil"
	"github.com/banshee-data/forcecal/internal/monitoring"
)

// ErrInputShape marks recordings that cannot be parsed: wrong row width,
// non-numeric or non-finite cells, or no rows at all.
var ErrInputShape = errors.New("malformed sensor recording")

// LoadError locates a parse failure within a recording.
// Line is the 1-based record line. Column is the 1-based field index within
// the row, not a character offset. Zero means unknown.
type LoadError struct {
	Source string
	Line   int
	Column int
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
}

// Unwrap exposes both the input-shape kind and the underlying cause.
func (e *LoadError) Unwrap() []error {
	return []error{ErrInputShape, e.Err}
}

// Load reads and parses the recording at path.
// Open failures are filesystem errors; content failures are ErrInputShape.
func Load(fsys fsutil.FileSystem, path string) (*Recording, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &fsutil.OpError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	rec, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("loaded %d samples from %s (%.3fs)", len(rec.Samples), path, rec.Duration())
	return rec, nil
}

// Parse reads a recording from r. source names the input in errors.
// Blank lines and lines starting with '#' are skipped.
func Parse(r io.Reader, source string) (*Recording, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = Columns
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	rec := &Recording{Source: source}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}

		var vals [Columns]float64
		for i, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, &LoadError{
					Source: source,
					Line:   line,
					Column: i + 1,
					Err:    fmt.Errorf("non-numeric value %q", cell),
				}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				line, _ := cr.FieldPos(i)
				return nil, &LoadError{
					Source: source,
					Line:   line,
					Column: i + 1,
					Err:    fmt.Errorf("non-finite value %q", cell),
				}
			}
			vals[i] = v
		}
		rec.Samples = append(rec.Samples, sampleFromRow(vals))
	}

	if len(rec.Samples) == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("no samples")}
	}
	return rec, nil
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		return &fsutil.OpError{Op: "read", Path: source, Err: err}
	}
	if errors.Is(pe.Err, csv.ErrFieldCount) {
		return &LoadError{
			Source: source,
			Line:   pe.Line,
			Err:    fmt.Errorf("expected %d columns: %w", Columns, pe.Err),
		}
	}
	// pe.Column is a character offset; the field is unknown here.
	return &LoadError{Source: source, Line: pe.Line, Err: pe.Err}
}
