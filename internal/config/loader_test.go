package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/vtxana/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

const validYAML = `
vtx_selection: cfg/vtxSelection.yaml
histo_cfg: cfg/histos.yaml
beam_e: 4.55
cal_time_offset: 56
region_definitions:
  - cfg/ESumCR.yaml
  - cfg/ESumSR.yaml
input: events.jsonl
output: out.yoda
max_events: 500
`

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.AnaName, convey.ShouldEqual, "vtxana")
			convey.So(cfg.VtxColl, convey.ShouldEqual, "UnconstrainedV0Vertices")
			convey.So(cfg.TrkColl, convey.ShouldEqual, "GBLTracks")
			convey.So(cfg.BeamE, convey.ShouldEqual, 2.3)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.MaxEvents, convey.ShouldEqual, 0)
		})

		convey.Convey("Then validation names the first missing key", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "vtx_selection")
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config from a YAML file", func() {
			tmpFile := createTempConfigFile(t, validYAML)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then the file overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.VtxSelection, convey.ShouldEqual, "cfg/vtxSelection.yaml")
				convey.So(cfg.HistoCfg, convey.ShouldEqual, "cfg/histos.yaml")
				convey.So(cfg.BeamE, convey.ShouldEqual, 4.55)
				convey.So(cfg.CalTimeOffset, convey.ShouldEqual, 56)
				convey.So(cfg.RegionDefinitions, convey.ShouldResemble, []string{"cfg/ESumCR.yaml", "cfg/ESumSR.yaml"})
				convey.So(cfg.MaxEvents, convey.ShouldEqual, 500)
				convey.So(cfg.VtxColl, convey.ShouldEqual, "UnconstrainedV0Vertices")
			})
		})

		convey.Convey("When the path comes from VTXANA_CONFIG", func() {
			tmpFile := createTempConfigFile(t, validYAML)
			_ = os.Setenv("VTXANA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Output, convey.ShouldEqual, "out.yoda")
		})

		convey.Convey("When environment variables are set", func() {
			tmpFile := createTempConfigFile(t, validYAML)
			_ = os.Setenv("VTXANA_BEAM_E", "1.056")
			_ = os.Setenv("VTXANA_DEBUG", "1")
			_ = os.Setenv("VTXANA_REGION_DEFINITIONS", "a.yaml,b.yaml,c.yaml")
			_ = os.Setenv("VTXANA_MONITOR_ADDR", "127.0.0.1:9090")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then env takes precedence over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BeamE, convey.ShouldEqual, 1.056)
				convey.So(cfg.Debug, convey.ShouldEqual, 1)
				convey.So(cfg.RegionDefinitions, convey.ShouldResemble, []string{"a.yaml", "b.yaml", "c.yaml"})
				convey.So(cfg.MonitorAddr, convey.ShouldEqual, "127.0.0.1:9090")
			})
		})

		convey.Convey("When the beam energy is not positive", func() {
			tmpFile := createTempConfigFile(t, validYAML)
			_ = os.Setenv("VTXANA_BEAM_E", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it fails naming the key", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "beam_e")
			})
		})

		convey.Convey("When the histogram config is missing", func() {
			tmpFile := createTempConfigFile(t, strings.Replace(validYAML, "histo_cfg: cfg/histos.yaml", "", 1))

			_, err := config.Load(ctx, tmpFile)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "histo_cfg")
		})

		convey.Convey("When the config file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the YAML is invalid", func() {
			tmpFile := createTempConfigFile(t, "vtx_selection: [unclosed")

			_, err := config.Load(ctx, tmpFile)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vtxana.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix) {
			_ = os.Unsetenv(strings.SplitN(kv, "=", 2)[0])
		}
	}
}
