// Package config defines the calibration run configuration and how it is
// layered from defaults, an optional YAML file, the environment and flags.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/sensordata"
)

// EnvPrefix prefixes every environment override, e.g. FORCECAL_OUTPUT_DIR.
const EnvPrefix = "FORCECAL_"

// ConfigEnv names the environment variable holding a YAML config path.
const ConfigEnv = EnvPrefix + "CONFIG"

// Config contains everything one calibration run needs.
type Config struct {
	// Input is the raw 13-column sensor recording.
	Input string `koanf:"input"`

	// OutputDir receives the report and images. Created if missing.
	OutputDir string `koanf:"output_dir"`

	// TestID names the outputs, e.g. "3" -> 3_calibration.csv.
	TestID string `koanf:"test"`

	// ImageBase is the path prefix for images; "_left.png" etc. is appended.
	// Empty means <OutputDir>/<TestID>.
	ImageBase string `koanf:"image_base"`

	// ImageFormat is the raster format for saved plots.
	ImageFormat string `koanf:"image_format"`

	// Reference is the applied force direction, three components or empty.
	// Empty means the zero vector.
	Reference []float64 `koanf:"reference"`

	// Channel selects force or moment columns.
	Channel string `koanf:"channel"`

	// Display opens interactive views instead of saving images.
	Display bool `koanf:"display"`

	// NoPlots skips visualisation entirely.
	NoPlots bool `koanf:"no_plots"`

	// ArrowScale multiplies the cloud's display scale to size arrows.
	ArrowScale float64 `koanf:"arrow_scale"`

	// IncludeMagnitudes adds singular values to the text report.
	IncludeMagnitudes bool `koanf:"include_magnitudes"`

	// DBPath, when set, records the run in a SQLite database.
	DBPath string `koanf:"db"`

	// MetricsFile, when set, receives a Prometheus textfile.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		OutputDir:   "calibration",
		ImageFormat: "png",
		Channel:     "force",
		ArrowScale:  2,
	}
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return fmt.Errorf("%w: input file is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TestID) == "" {
		return fmt.Errorf("%w: test identifier is required", ErrInvalidConfig)
	}
	if _, err := sensordata.ParseChannel(c.Channel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if n := len(c.Reference); n != 0 && n != 3 {
		return fmt.Errorf("%w: reference must have 3 components, got %d", ErrInvalidConfig, n)
	}
	for _, v := range c.Reference {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: reference components must be finite", ErrInvalidConfig)
		}
	}
	if !(c.ArrowScale > 0) {
		return fmt.Errorf("%w: arrow_scale must be positive, got %g", ErrInvalidConfig, c.ArrowScale)
	}
	switch strings.ToLower(c.ImageFormat) {
	case "png", "jpg", "jpeg", "tif", "tiff":
	default:
		return fmt.Errorf("%w: image_format must be a raster format (png, jpg, tiff), got %q", ErrInvalidConfig, c.ImageFormat)
	}
	return nil
}

// SensorChannel returns the parsed channel. Call after Validate.
func (c *Config) SensorChannel() sensordata.Channel {
	ch, _ := sensordata.ParseChannel(c.Channel)
	return ch
}

// ReferenceVec returns the reference direction. The arrow is always drawn, so
// an unset reference is the zero vector rather than nil.
func (c *Config) ReferenceVec() r3.Vec {
	if len(c.Reference) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: c.Reference[0], Y: c.Reference[1], Z: c.Reference[2]}
}

// ReportPath is <OutputDir>/<test>_calibration.csv.
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, SanitizeFilename(c.TestID)+"_calibration.csv")
}

// ImagePath returns the image (or interactive page) path for one sensor.
func (c *Config) ImagePath(side sensordata.Side) string {
	base := c.ImageBase
	if base == "" {
		base = filepath.Join(c.OutputDir, SanitizeFilename(c.TestID))
	}
	ext := strings.ToLower(c.ImageFormat)
	if c.Display {
		ext = "html"
	}
	return fmt.Sprintf("%s_%s.%s", base, strings.ToLower(side.String()), ext)
}

// SanitizeFilename makes a safe filename from an arbitrary test identifier.
// Characters other than ASCII letters, digits, dot, underscore or dash become
// an underscore, runs of underscores collapse, and the result is trimmed to
// a reasonable length.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
