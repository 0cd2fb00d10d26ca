// Package config defines the per-logger processing configuration consumed
// from the persisted project settings, plus engine-level settings taken
// from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/metocean-tools/logscreen/filters"
	"github.com/metocean-tools/logscreen/ingest"
	"github.com/metocean-tools/logscreen/integrate"
	"github.com/metocean-tools/logscreen/spectral"
	"github.com/metocean-tools/logscreen/windowing"
)

// LoggerSource is the configuration identity of one logger. Created once
// from persisted settings and read-only during a processing run.
type LoggerSource struct {
	ID string `yaml:"id" json:"id"`

	// File decoding
	FileFormat        string    `yaml:"file_format" json:"file_format"`
	Delimiter         string    `yaml:"delimiter" json:"delimiter"`
	HeaderRows        int       `yaml:"header_rows" json:"header_rows"`
	ChannelRow        int       `yaml:"channel_row" json:"channel_row"`
	UnitsRow          int       `yaml:"units_row" json:"units_row"`
	Columns           []int     `yaml:"columns" json:"columns"`
	UnitFactors       []float64 `yaml:"unit_factors" json:"unit_factors"`
	ChannelNames      []string  `yaml:"channel_names" json:"channel_names"`
	ChannelUnits      []string  `yaml:"channel_units" json:"channel_units"`
	FilenameTimestamp string    `yaml:"filename_timestamp" json:"filename_timestamp"`
	SampleInterval    float64   `yaml:"sample_interval" json:"sample_interval"`

	// Ordered raw files of the campaign
	Files []string `yaml:"files" json:"files"`

	// Logging frequency in Hz and the expected points per file
	LoggingFreq    float64 `yaml:"logging_freq" json:"logging_freq"`
	ExpectedPoints int     `yaml:"expected_points" json:"expected_points"`

	// Window lengths in seconds
	StatsInterval    float64 `yaml:"stats_interval" json:"stats_interval"`
	SpectralInterval float64 `yaml:"spectral_interval" json:"spectral_interval"`

	// Screening mode
	ProcessStats       bool `yaml:"process_stats" json:"process_stats"`
	ProcessSpectral    bool `yaml:"process_spectral" json:"process_spectral"`
	IncludeUnfiltered  bool `yaml:"include_unfiltered" json:"include_unfiltered"`
	IncludeFiltered    bool `yaml:"include_filtered" json:"include_filtered"`
	ProcessIntegration bool `yaml:"process_integration" json:"process_integration"`

	// Bandpass configuration. Nil cutoffs mean disabled, which is distinct
	// from a cutoff at 0 Hz.
	LowCutoff   *float64 `yaml:"low_cutoff" json:"low_cutoff"`
	HighCutoff  *float64 `yaml:"high_cutoff" json:"high_cutoff"`
	FilterType  string   `yaml:"filter_type" json:"filter_type"`
	FilterOrder int      `yaml:"filter_order" json:"filter_order"`
	RestoreMean bool     `yaml:"restore_mean" json:"restore_mean"`

	// PSD estimation
	PSDSegmentLength int     `yaml:"psd_segment_length" json:"psd_segment_length"`
	PSDWindow        string  `yaml:"psd_window" json:"psd_window"`
	PSDOverlap       float64 `yaml:"psd_overlap" json:"psd_overlap"`

	// Integration: 0-based indices into Columns selecting acceleration and
	// angular-rate channels, paired positionally for gravity correction.
	AccChannels       []int `yaml:"acc_channels" json:"acc_channels"`
	RateChannels      []int `yaml:"rate_channels" json:"rate_channels"`
	GravityCorrection bool  `yaml:"gravity_correction" json:"gravity_correction"`
	RMSSummary        bool  `yaml:"rms_summary" json:"rms_summary"`
}

// DefaultLoggerSource returns a source with the engine defaults filled in.
func DefaultLoggerSource(id string) LoggerSource {
	return LoggerSource{
		ID:                id,
		FileFormat:        "Custom",
		ProcessStats:      true,
		IncludeUnfiltered: true,
		FilterType:        "butterworth",
		FilterOrder:       4,
		RestoreMean:       true,
		PSDWindow:         string(windowing.TypeHann),
		PSDOverlap:        50,
	}
}

// UnmarshalYAML overlays the persisted fields onto the engine defaults, so
// a key absent from the project file keeps its default instead of collapsing
// to the zero value.
func (s *LoggerSource) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain LoggerSource
	defaults := plain(DefaultLoggerSource(""))
	if err := unmarshal(&defaults); err != nil {
		return err
	}
	*s = LoggerSource(defaults)
	return nil
}

// Validate checks the source for conditions that are fatal for this logger.
func (s *LoggerSource) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("logger id is required")
	}
	if _, err := ingest.ParseFormat(s.FileFormat); err != nil {
		return fmt.Errorf("logger %s: %w", s.ID, err)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("logger %s: no channel columns configured", s.ID)
	}
	if len(s.ChannelNames) > 0 && len(s.ChannelUnits) > 0 &&
		len(s.ChannelNames) != len(s.ChannelUnits) {
		return fmt.Errorf("logger %s: channel names (%d) and units (%d) length mismatch",
			s.ID, len(s.ChannelNames), len(s.ChannelUnits))
	}
	if s.ProcessStats && s.StatsSampleLength() <= 0 {
		return fmt.Errorf("logger %s: statistics interval and logging frequency must be positive", s.ID)
	}
	if s.ProcessSpectral && s.SpectralSampleLength() <= 0 {
		return fmt.Errorf("logger %s: spectral interval and logging frequency must be positive", s.ID)
	}
	if _, err := filters.ParseKind(s.FilterType); err != nil {
		return fmt.Errorf("logger %s: %w", s.ID, err)
	}
	if _, err := windowing.ParseType(s.PSDWindow); err != nil {
		return fmt.Errorf("logger %s: %w", s.ID, err)
	}
	for _, c := range append(append([]int(nil), s.AccChannels...), s.RateChannels...) {
		if c < 0 || c >= len(s.Columns) {
			return fmt.Errorf("logger %s: integration channel index %d out of range", s.ID, c)
		}
	}

	return nil
}

// StatsSampleLength returns the statistics window target length in rows.
func (s *LoggerSource) StatsSampleLength() int {
	return int(s.StatsInterval * s.LoggingFreq)
}

// SpectralSampleLength returns the spectral window target length in rows.
func (s *LoggerSource) SpectralSampleLength() int {
	return int(s.SpectralInterval * s.LoggingFreq)
}

// Descriptor builds the ingest descriptor for this source.
func (s *LoggerSource) Descriptor() (ingest.Descriptor, error) {
	format, err := ingest.ParseFormat(s.FileFormat)
	if err != nil {
		return ingest.Descriptor{}, err
	}

	return ingest.Descriptor{
		Format:            format,
		Delimiter:         s.Delimiter,
		HeaderRows:        s.HeaderRows,
		ChannelRow:        s.ChannelRow,
		UnitsRow:          s.UnitsRow,
		Columns:           append([]int(nil), s.Columns...),
		UnitFactors:       append([]float64(nil), s.UnitFactors...),
		ChannelNames:      append([]string(nil), s.ChannelNames...),
		ChannelUnits:      append([]string(nil), s.ChannelUnits...),
		FilenameTimestamp: s.FilenameTimestamp,
		SampleInterval:    s.SampleInterval,
	}, nil
}

// FilterConfig builds the bandpass stage configuration.
func (s *LoggerSource) FilterConfig() (filters.Config, error) {
	kind, err := filters.ParseKind(s.FilterType)
	if err != nil {
		return filters.Config{}, err
	}

	cfg := filters.Config{
		Kind:        kind,
		Order:       s.FilterOrder,
		RestoreMean: s.RestoreMean,
	}
	if s.LowCutoff != nil {
		cfg.Low = filters.CutoffAt(*s.LowCutoff)
	}
	if s.HighCutoff != nil {
		cfg.High = filters.CutoffAt(*s.HighCutoff)
	}

	return cfg, nil
}

// WelchParams builds the PSD estimator configuration.
func (s *LoggerSource) WelchParams() spectral.WelchParams {
	params := spectral.DefaultWelchParams()
	params.SegmentLength = s.PSDSegmentLength
	if s.PSDWindow != "" {
		params.Window = windowing.Type(s.PSDWindow)
	}
	if s.PSDOverlap > 0 {
		params.OverlapPercent = s.PSDOverlap
	}
	return params
}

// IntegrateParams builds the frequency-domain integrator configuration.
// The rectangular filter is enforced for integration regardless of the
// logger's general filter type.
func (s *LoggerSource) IntegrateParams() integrate.Params {
	params := integrate.Params{
		AccChannels:       append([]int(nil), s.AccChannels...),
		RateChannels:      append([]int(nil), s.RateChannels...),
		GravityCorrection: s.GravityCorrection,
		RMSSummary:        s.RMSSummary,
	}
	if s.LowCutoff != nil {
		params.Low = filters.CutoffAt(*s.LowCutoff)
	}
	if s.HighCutoff != nil {
		params.High = filters.CutoffAt(*s.HighCutoff)
	}
	return params
}

// Project is the persisted multi-logger configuration file.
type Project struct {
	Loggers []LoggerSource `yaml:"loggers" json:"loggers"`
}

// LoadProject reads a YAML project file.
func LoadProject(path string) (*Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	return &p, nil
}

// Engine holds engine-level settings taken from LOGSCREEN_* environment
// variables.
type Engine struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Workers  int    `envconfig:"WORKERS" default:"4"`
}

// EngineFromEnv reads the engine settings from the environment.
func EngineFromEnv() (Engine, error) {
	var e Engine
	if err := envconfig.Process("logscreen", &e); err != nil {
		return Engine{}, fmt.Errorf("engine environment: %w", err)
	}
	return e, nil
}
