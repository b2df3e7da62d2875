// Package calibration runs one force plate calibration end to end: load the
// recording, extract principal axes for each sensor, render both sensors and
// write the report. Optional run history and metrics are recorded last.
package calibration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/forcecal/internal/config"
	"github.com/banshee-data/forcecal/internal/db"
	"github.com/banshee-data/forcecal/internal/fsutil"
	"github.com/banshee-data/forcecal/internal/monitoring"
	"github.com/banshee-data/forcecal/internal/principal"
	"github.com/banshee-data/forcecal/internal/render"
	"github.com/banshee-data/forcecal/internal/report"
	"github.com/banshee-data/forcecal/internal/sensordata"
)

// Deps are the side effects a run needs. Zero values select the real thing.
type Deps struct {
	FS fsutil.FileSystem
	// Viewer shows interactive pages in display mode. Nil opens the browser.
	Viewer func(path string) error
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.FS == nil {
		d.FS = fsutil.OSFileSystem{}
	}
	if d.Viewer == nil {
		d.Viewer = render.OpenBrowser
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Outcome describes a completed run.
type Outcome struct {
	RunID  string
	Left   principal.Result
	Right  principal.Result
	Report string
	// Images lists the written plots (or pages), left first. Empty when
	// plotting is disabled.
	Images []string
}

// sensorRun carries one sensor through the pipeline.
type sensorRun struct {
	side   sensordata.Side
	cloud  []r3.Vec
	result principal.Result
}

// Run executes the calibration described by cfg. Both sensors are rendered
// before the report is written, so a failure at any stage leaves no report.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()
	started := deps.Now()
	runID := db.NewRunID()

	// Open the history first so a bad path fails before anything is written.
	var store *db.DB
	if cfg.DBPath != "" {
		var err error
		if store, err = db.NewDB(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("run history: %w", err)
		}
		defer store.Close()
	}

	rec, err := sensordata.Load(deps.FS, cfg.Input)
	if err != nil {
		return nil, err
	}

	ch := cfg.SensorChannel()
	ref := cfg.ReferenceVec()
	sensors := make([]sensorRun, 0, len(sensordata.Sides))
	for _, side := range sensordata.Sides {
		cloud := rec.Cloud(side, ch)
		res, err := principal.Extract(cloud)
		if err != nil {
			return nil, fmt.Errorf("%s sensor: %w", strings.ToLower(side.String()), err)
		}
		logResult(side, ch, res, ref)
		sensors = append(sensors, sensorRun{side: side, cloud: cloud, result: res})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(deps.FS, cfg.OutputDir); err != nil {
		return nil, err
	}

	out := &Outcome{
		RunID:  runID,
		Left:   sensors[0].result,
		Right:  sensors[1].result,
		Report: cfg.ReportPath(),
	}

	if !cfg.NoPlots {
		for _, s := range sensors {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path, err := renderSensor(cfg, deps, s, ref)
			if err != nil {
				return nil, err
			}
			out.Images = append(out.Images, path)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := report.Options{Channel: ch, IncludeMagnitudes: cfg.IncludeMagnitudes}
	if err := report.Write(deps.FS, out.Report, out.Left, out.Right, opts); err != nil {
		return nil, err
	}
	monitoring.Logf("Wrote %s", out.Report)

	if store != nil {
		run := &db.Run{
			RunID:     runID,
			TestID:    cfg.TestID,
			Input:     cfg.Input,
			Channel:   strings.ToLower(ch.String()),
			Samples:   len(rec.Samples),
			Duration:  time.Duration(rec.Duration() * float64(time.Second)),
			CreatedAt: started,
		}
		for _, s := range sensors {
			run.Axes = append(run.Axes, db.AxesFromResult(sensorLabel(s.side), s.result)...)
		}
		if err := store.RecordRun(ctx, run); err != nil {
			return out, fmt.Errorf("run history: %w", err)
		}
		monitoring.Logf("Recorded run %s in %s", runID, cfg.DBPath)
	}

	if cfg.MetricsFile != "" {
		m := monitoring.NewRunMetrics(cfg.TestID)
		for _, s := range sensors {
			m.ObserveSensor(sensorLabel(s.side), strings.ToLower(ch.String()), s.result.Samples, s.result.Axes, s.result.Magnitudes)
		}
		m.Finish(started, deps.Now())
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return out, err
		}
	}

	return out, nil
}

func renderSensor(cfg *config.Config, deps Deps, s sensorRun, ref r3.Vec) (string, error) {
	path := cfg.ImagePath(s.side)
	if err := fsutil.EnsureDir(deps.FS, filepath.Dir(path)); err != nil {
		return "", err
	}

	var target render.Target
	if cfg.Display {
		target = render.DisplayTarget{FS: deps.FS, Path: path, Viewer: deps.Viewer}
	} else {
		target = render.FileTarget{FS: deps.FS, Path: path}
	}

	scene := render.Scene{
		Title:      fmt.Sprintf("Test %s %s", cfg.TestID, sensorLabel(s.side)),
		Points:     s.cloud,
		Result:     s.result,
		Reference:  &ref,
		ArrowScale: cfg.ArrowScale,
	}
	if err := render.Emit(target, scene); err != nil {
		return "", fmt.Errorf("%s sensor: %w", sensorLabel(s.side), err)
	}
	monitoring.Logf("Rendered %s", path)
	return path, nil
}

func logResult(side sensordata.Side, ch sensordata.Channel, res principal.Result, ref r3.Vec) {
	monitoring.Logf("%s: %s", report.Header(side, ch), res)
	if angles, ok := res.AnglesTo(ref); ok {
		monitoring.Logf("%s: angle to reference axis1=%.2f° axis2=%.2f° axis3=%.2f°",
			report.Header(side, ch), angles[0], angles[1], angles[2])
	}
}

func sensorLabel(side sensordata.Side) string {
	return strings.ToLower(side.String())
}
