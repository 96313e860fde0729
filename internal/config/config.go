// Package config defines the analysis run configuration and its loading.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and VTXANA_ env vars on top.
// - Validation errors wrap ErrInvalidConfig and name the offending key.
package config

import (
	"fmt"
)

// Config contains the run configuration of a vertex analysis.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Debug is the integer debug level; any positive value enables debug logs.
	Debug int `koanf:"debug"`

	// AnaName names the analysis in logs and in the output header.
	AnaName string `koanf:"ana_name"`

	// VtxColl and TrkColl name the vertex and track collections of an event.
	VtxColl string `koanf:"vtx_coll"`
	TrkColl string `koanf:"trk_coll"`

	// VtxSelection is the rule-set file of the primary vertex selector.
	VtxSelection string `koanf:"vtx_selection"`

	// HistoCfg is the histogram definition file shared by every set.
	HistoCfg string `koanf:"histo_cfg"`

	// CalTimeOffset is subtracted from cluster times before timing cuts.
	CalTimeOffset float64 `koanf:"cal_time_offset"`

	// BeamE is the beam energy used to normalise the energy sum.
	BeamE float64 `koanf:"beam_e"`

	// RegionDefinitions lists region rule-set files. The region name is the
	// file base name without extension; order is output order.
	RegionDefinitions []string `koanf:"region_definitions"`

	// Input is the JSON-lines event file, "-" for stdin.
	Input string `koanf:"input"`

	// Output is the histogram file written at the end of the run.
	Output string `koanf:"output"`

	// MetricsFile, when set, receives the Prometheus textfile at end of run.
	MetricsFile string `koanf:"metrics_file"`

	// MonitorAddr, when set, serves /healthz, /stats and /metrics for the
	// duration of the run.
	MonitorAddr string `koanf:"monitor_addr"`

	// QueueSize bounds the read-ahead event queue.
	QueueSize int `koanf:"queue_size"`

	// MaxEvents stops the run after this many events; 0 or less reads all.
	MaxEvents int `koanf:"max_events"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		AnaName:       "vtxana",
		VtxColl:       "UnconstrainedV0Vertices",
		TrkColl:       "GBLTracks",
		CalTimeOffset: 43,
		BeamE:         2.3,
		Input:         "-",
		Output:        "vtxana.yoda",
		QueueSize:     1024,
	}
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	switch {
	case c.VtxSelection == "":
		return fmt.Errorf("%w: vtx_selection must not be empty", ErrInvalidConfig)
	case c.HistoCfg == "":
		return fmt.Errorf("%w: histo_cfg must not be empty", ErrInvalidConfig)
	case c.BeamE <= 0:
		return fmt.Errorf("%w: beam_e must be positive, got %g", ErrInvalidConfig, c.BeamE)
	case c.Input == "":
		return fmt.Errorf("%w: input must not be empty", ErrInvalidConfig)
	case c.Output == "":
		return fmt.Errorf("%w: output must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	}
	for i, r := range c.RegionDefinitions {
		if r == "" {
			return fmt.Errorf("%w: region_definitions[%d] is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}
