package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/banshee-data/forcecal/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "calibration")
				convey.So(cfg.ImageFormat, convey.ShouldEqual, "png")
				convey.So(cfg.Channel, convey.ShouldEqual, "force")
				convey.So(cfg.ArrowScale, convey.ShouldEqual, 2.0)
				convey.So(cfg.Display, convey.ShouldBeFalse)
				convey.So(cfg.IncludeMagnitudes, convey.ShouldBeFalse)
				convey.So(cfg.Reference, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FORCECAL_INPUT", "raw.csv")
			_ = os.Setenv("FORCECAL_TEST", "7")
			_ = os.Setenv("FORCECAL_OUTPUT_DIR", "out")
			_ = os.Setenv("FORCECAL_CHANNEL", "moment")
			_ = os.Setenv("FORCECAL_ARROW_SCALE", "1.5")
			_ = os.Setenv("FORCECAL_INCLUDE_MAGNITUDES", "true")
			_ = os.Setenv("FORCECAL_REFERENCE", "0,0,1")
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "raw.csv")
				convey.So(cfg.TestID, convey.ShouldEqual, "7")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "out")
				convey.So(cfg.Channel, convey.ShouldEqual, "moment")
				convey.So(cfg.ArrowScale, convey.ShouldEqual, 1.5)
				convey.So(cfg.IncludeMagnitudes, convey.ShouldBeTrue)
				convey.So(cfg.Reference, convey.ShouldResemble, []float64{0, 0, 1})
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()
			yamlContent := `
input: "session/raw.csv"
test: "3"
output_dir: "results"
reference: [1, 0, 0]
display: true
db: "runs.db"
metrics_file: "forcecal.prom"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FORCECAL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "session/raw.csv")
				convey.So(cfg.TestID, convey.ShouldEqual, "3")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "results")
				convey.So(cfg.Reference, convey.ShouldResemble, []float64{1, 0, 0})
				convey.So(cfg.Display, convey.ShouldBeTrue)
				convey.So(cfg.DBPath, convey.ShouldEqual, "runs.db")
				convey.So(cfg.MetricsFile, convey.ShouldEqual, "forcecal.prom")
				convey.So(cfg.Channel, convey.ShouldEqual, "force")
			})
		})

		convey.Convey("When env vars and a YAML file both set a value", func() {
			clearConfigEnvVars()
			tmpFile := createTempConfigFile("output_dir: from-file\ntest: \"3\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("FORCECAL_OUTPUT_DIR", "from-env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(tmpFile)

			convey.Convey("Then the env var should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "from-env")
				convey.So(cfg.TestID, convey.ShouldEqual, "3")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(filepath.Join(os.TempDir(), "forcecal-missing-config.yaml"))

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not valid YAML", func() {
			clearConfigEnvVars()
			tmpFile := createTempConfigFile("input: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_, err := config.Load(tmpFile)

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "forcecal-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"FORCECAL_CONFIG",
		"FORCECAL_INPUT",
		"FORCECAL_TEST",
		"FORCECAL_OUTPUT_DIR",
		"FORCECAL_CHANNEL",
		"FORCECAL_ARROW_SCALE",
		"FORCECAL_INCLUDE_MAGNITUDES",
		"FORCECAL_REFERENCE",
	} {
		_ = os.Unsetenv(name)
	}
}
