package calibration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/config"
	"github.com/banshee-data/forcecal/internal/db"
	"github.com/banshee-data/forcecal/internal/fsutil"
	"github.com/banshee-data/forcecal/internal/monitoring"
	"github.com/banshee-data/forcecal/internal/principal"
	"github.com/banshee-data/forcecal/internal/report"
	"github.com/banshee-data/forcecal/internal/sensordata"
	"github.com/banshee-data/forcecal/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func clouds() (left, right []r3.Vec) {
	left = testutil.GaussianCloud(1, 200, r3.Vec{X: 10, Z: -50}, r3.Vec{X: 4, Y: 1, Z: 0.5})
	right = testutil.GaussianCloud(2, 200, r3.Vec{Y: -5, Z: -60}, r3.Vec{X: 0.5, Y: 3, Z: 1})
	return left, right
}

func newFixture(t *testing.T) (*fsutil.MemoryFileSystem, *config.Config) {
	t.Helper()

	left, right := clouds()
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("raw/test3.csv", []byte(testutil.RecordingCSV(left, right)))

	cfg := config.New()
	cfg.Input = "raw/test3.csv"
	cfg.TestID = "3"
	cfg.Reference = []float64{0, 0, -1}
	return fsys, cfg
}

func TestRun_WritesPlotsThenReport(t *testing.T) {
	t.Parallel()
	fsys, cfg := newFixture(t)

	out, err := Run(context.Background(), cfg, Deps{FS: fsys})
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, filepath.Join("calibration", "3_calibration.csv"), out.Report)
	assert.Equal(t, []string{
		filepath.Join("calibration", "3_left.png"),
		filepath.Join("calibration", "3_right.png"),
	}, out.Images)
	for _, img := range out.Images {
		assert.True(t, fsys.Exists(img), "missing %s", img)
	}

	left, right := clouds()
	wantLeft, err := principal.Extract(left)
	require.NoError(t, err)
	wantRight, err := principal.Extract(right)
	require.NoError(t, err)
	assert.Equal(t, wantLeft, out.Left)
	assert.Equal(t, wantRight, out.Right)

	var want bytes.Buffer
	require.NoError(t, report.Encode(&want, wantLeft, wantRight, report.Options{Channel: sensordata.Force}))
	got, err := fsys.ReadFile(out.Report)
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(got))
}

func TestRun_MomentChannel(t *testing.T) {
	t.Parallel()
	fsys, cfg := newFixture(t)
	cfg.Channel = "moment"
	cfg.IncludeMagnitudes = true
	cfg.NoPlots = true

	out, err := Run(context.Background(), cfg, Deps{FS: fsys})
	require.NoError(t, err)

	got, err := fsys.ReadFile(out.Report)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Left Moment Sensor\n")
	assert.Contains(t, string(got), "Right Moment Sensor\n")
	assert.Contains(t, string(got), "Magnitudes\n")
}

func TestRun_NoPlots(t *testing.T) {
	t.Parallel()
	fsys, cfg := newFixture(t)
	cfg.NoPlots = true

	out, err := Run(context.Background(), cfg, Deps{FS: fsys})
	require.NoError(t, err)

	assert.Empty(t, out.Images)
	assert.ElementsMatch(t, []string{"raw/test3.csv", "calibration/3_calibration.csv"}, fsys.Files())
}

func TestRun_Display(t *testing.T) {
	t.Parallel()
	fsys, cfg := newFixture(t)
	cfg.Display = true

	var viewed []string
	viewer := func(path string) error {
		viewed = append(viewed, path)
		return nil
	}

	out, err := Run(context.Background(), cfg, Deps{FS: fsys, Viewer: viewer})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("calibration", "3_left.html"),
		filepath.Join("calibration", "3_right.html"),
	}, out.Images)
	assert.Equal(t, out.Images, viewed)
	assert.True(t, fsys.Exists(out.Report))
}

func TestRun_FailureLeavesNoReport(t *testing.T) {
	t.Parallel()

	errViewer := errors.New("no display")
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		prepare func(*fsutil.MemoryFileSystem, *config.Config, *Deps)
		wantErr error
	}{
		{
			name:    "missing input",
			prepare: func(_ *fsutil.MemoryFileSystem, c *config.Config, _ *Deps) { c.Input = "raw/missing.csv" },
			wantErr: fsutil.ErrFilesystem,
		},
		{
			name: "malformed input",
			prepare: func(fs *fsutil.MemoryFileSystem, _ *config.Config, _ *Deps) {
				fs.WriteFile("raw/test3.csv", []byte("1,2,3\n"))
			},
			wantErr: sensordata.ErrInputShape,
		},
		{
			name: "infinite input",
			prepare: func(fs *fsutil.MemoryFileSystem, c *config.Config, _ *Deps) {
				c.NoPlots = true
				fs.WriteFile("raw/test3.csv", []byte(
					"0,inf,1,2,0,0,0,1,1,1,0,0,0\n"+
						"0.01,1,1,1,0,0,0,2,1,0,0,0,0\n"+
						"0.02,3,1,0,0,0,0,0,2,1,0,0,0\n"))
			},
			wantErr: sensordata.ErrInputShape,
		},
		{
			name: "nan input",
			prepare: func(fs *fsutil.MemoryFileSystem, _ *config.Config, _ *Deps) {
				fs.WriteFile("raw/test3.csv", []byte("0,1,nan,2,0,0,0,1,1,1,0,0,0\n"))
			},
			wantErr: sensordata.ErrInputShape,
		},
		{
			name:    "invalid config",
			prepare: func(_ *fsutil.MemoryFileSystem, c *config.Config, _ *Deps) { c.TestID = "" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "viewer fails",
			prepare: func(_ *fsutil.MemoryFileSystem, c *config.Config, d *Deps) {
				c.Display = true
				d.Viewer = func(string) error { return errViewer }
			},
			wantErr: errViewer,
		},
		{
			name:    "cancelled",
			ctx:     cancelled,
			prepare: func(*fsutil.MemoryFileSystem, *config.Config, *Deps) {},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys, cfg := newFixture(t)
			deps := Deps{FS: fsys}
			tt.prepare(fsys, cfg, &deps)

			ctx := tt.ctx
			if ctx == nil {
				ctx = context.Background()
			}

			out, err := Run(ctx, cfg, deps)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, out)
			assert.False(t, fsys.Exists(cfg.ReportPath()), "report must not exist after a failed run")
		})
	}
}

func TestRun_HistoryAndMetrics(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	left, right := clouds()
	cfg := config.New()
	cfg.Input = testutil.WriteFile(t, dir, "raw.csv", testutil.RecordingCSV(left, right))
	cfg.TestID = "3"
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.NoPlots = true
	cfg.DBPath = filepath.Join(dir, "runs.db")
	cfg.MetricsFile = filepath.Join(dir, "forcecal.prom")

	out, err := Run(context.Background(), cfg, Deps{})
	require.NoError(t, err)
	assert.FileExists(t, out.Report)

	store, err := db.NewDB(cfg.DBPath)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].RunID)
	assert.Equal(t, "force", runs[0].Channel)
	assert.Equal(t, 200, runs[0].Samples)
	require.Len(t, runs[0].Axes, 6)
	assert.Equal(t, "left", runs[0].Axes[0].Sensor)
	assert.InDelta(t, out.Left.Magnitudes[0], runs[0].Axes[0].Magnitude, 1e-12)
	assert.InDelta(t, out.Right.Axes[2].Z, runs[0].Axes[5].Z, 1e-12)

	metrics, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "forcecal_axis_magnitude{")
	assert.Contains(t, string(metrics), `sensor="right"`)
	assert.Contains(t, string(metrics), `test="3"`)
}

func TestRun_BadHistoryPathWritesNothing(t *testing.T) {
	t.Parallel()
	fsys, cfg := newFixture(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "runs.db")

	_, err := Run(context.Background(), cfg, Deps{FS: fsys})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run history")
	assert.False(t, fsys.Exists(cfg.ReportPath()))
}
