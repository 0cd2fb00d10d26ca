package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metocean-tools/logscreen/filters"
	"github.com/metocean-tools/logscreen/ingest"
	"github.com/metocean-tools/logscreen/windowing"
)

func validSource() LoggerSource {
	s := DefaultLoggerSource("L1")
	s.Columns = []int{2, 3}
	s.LoggingFreq = 10
	s.StatsInterval = 60
	return s
}

func TestValidateAcceptsDefaults(t *testing.T) {
	s := validSource()
	assert.NoError(t, s.Validate())
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*LoggerSource)
	}{
		{"missing id", func(s *LoggerSource) { s.ID = "" }},
		{"unknown format", func(s *LoggerSource) { s.FileFormat = "dat-unknown" }},
		{"no columns", func(s *LoggerSource) { s.Columns = nil }},
		{"names units mismatch", func(s *LoggerSource) {
			s.ChannelNames = []string{"a", "b"}
			s.ChannelUnits = []string{"m"}
		}},
		{"stats without interval", func(s *LoggerSource) { s.StatsInterval = 0 }},
		{"spectral without interval", func(s *LoggerSource) { s.ProcessSpectral = true }},
		{"unknown filter type", func(s *LoggerSource) { s.FilterType = "elliptic" }},
		{"unknown psd window", func(s *LoggerSource) { s.PSDWindow = "triangle" }},
		{"integration index out of range", func(s *LoggerSource) { s.AccChannels = []int{5} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSource()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSampleLengths(t *testing.T) {
	s := validSource()
	s.LoggingFreq = 10
	s.StatsInterval = 15
	s.SpectralInterval = 120

	assert.Equal(t, 150, s.StatsSampleLength())
	assert.Equal(t, 1200, s.SpectralSampleLength())
}

func TestFilterConfigNilCutoffsStayDisabled(t *testing.T) {
	s := validSource()

	cfg, err := s.FilterConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Low.Enabled)
	assert.False(t, cfg.High.Enabled)
	assert.False(t, cfg.Enabled())

	zero := 0.0
	high := 5.0
	s.LowCutoff = &zero
	s.HighCutoff = &high

	cfg, err = s.FilterConfig()
	require.NoError(t, err)
	// a cutoff at 0 Hz is enabled, distinct from absent
	assert.True(t, cfg.Low.Enabled)
	assert.Equal(t, 0.0, cfg.Low.Hz)
	assert.Equal(t, filters.CutoffAt(5), cfg.High)
}

func TestIntegrateParamsUseCutoffsDirectly(t *testing.T) {
	s := validSource()
	low, high := 0.4, 2.5
	s.LowCutoff = &low
	s.HighCutoff = &high
	s.AccChannels = []int{0}
	s.RateChannels = []int{1}
	s.GravityCorrection = true

	p := s.IntegrateParams()
	assert.Equal(t, []int{0}, p.AccChannels)
	assert.Equal(t, []int{1}, p.RateChannels)
	assert.Equal(t, filters.CutoffAt(0.4), p.Low)
	assert.Equal(t, filters.CutoffAt(2.5), p.High)
	assert.True(t, p.GravityCorrection)
}

func TestDescriptorCopiesSlices(t *testing.T) {
	s := validSource()
	s.FileFormat = "Pulse-acc"
	s.FilenameTimestamp = "xxxxYYYYxmmDDxHHMM"

	d, err := s.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, ingest.FormatPulseAcc, d.Format)
	assert.Equal(t, "xxxxYYYYxmmDDxHHMM", d.FilenameTimestamp)

	d.Columns[0] = 99
	assert.Equal(t, 2, s.Columns[0])
}

func TestWelchParamsFallBackToDefaults(t *testing.T) {
	s := validSource()
	s.PSDWindow = ""
	s.PSDOverlap = 0

	p := s.WelchParams()
	assert.Equal(t, windowing.TypeHann, p.Window)
	assert.Equal(t, 50.0, p.OverlapPercent)

	s.PSDWindow = string(windowing.TypeKaiser)
	s.PSDOverlap = 75
	s.PSDSegmentLength = 256

	p = s.WelchParams()
	assert.Equal(t, windowing.TypeKaiser, p.Window)
	assert.Equal(t, 75.0, p.OverlapPercent)
	assert.Equal(t, 256, p.SegmentLength)
}

func TestLoadProject(t *testing.T) {
	content := `loggers:
  - id: L1
    file_format: Custom
    delimiter: ","
    columns: [2, 3]
    logging_freq: 10
    stats_interval: 60
    process_stats: true
    low_cutoff: 0.5
    high_cutoff: 5
  - id: L2
    file_format: Fugro-csv
    columns: [2]
    logging_freq: 2
    spectral_interval: 1200
    process_spectral: true
`
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProject(path)
	require.NoError(t, err)
	require.Len(t, p.Loggers, 2)

	l1 := p.Loggers[0]
	assert.Equal(t, "L1", l1.ID)
	require.NotNil(t, l1.LowCutoff)
	assert.Equal(t, 0.5, *l1.LowCutoff)
	assert.Nil(t, p.Loggers[1].LowCutoff)
	assert.Equal(t, 2400, p.Loggers[1].SpectralSampleLength())
}

func TestLoadProjectFillsDefaultsForAbsentKeys(t *testing.T) {
	// a minimal project: only cutoffs beyond the identity fields
	content := `loggers:
  - id: L1
    columns: [2]
    logging_freq: 10
    stats_interval: 60
    low_cutoff: 0.5
    high_cutoff: 2
`
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProject(path)
	require.NoError(t, err)
	require.Len(t, p.Loggers, 1)

	l := p.Loggers[0]
	require.NoError(t, l.Validate())
	assert.Equal(t, "Custom", l.FileFormat)
	assert.True(t, l.ProcessStats)
	assert.True(t, l.IncludeUnfiltered)
	assert.True(t, l.RestoreMean)
	assert.Equal(t, 4, l.FilterOrder)
	assert.Equal(t, "butterworth", l.FilterType)

	// the defaulted order makes the configured band usable as-is
	cfg, err := l.FilterConfig()
	require.NoError(t, err)
	require.True(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate(l.LoggingFreq))
}

func TestLoadProjectExplicitValuesOverrideDefaults(t *testing.T) {
	content := `loggers:
  - id: L1
    columns: [2]
    logging_freq: 10
    stats_interval: 60
    filter_order: 2
    restore_mean: false
    process_stats: false
`
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProject(path)
	require.NoError(t, err)

	l := p.Loggers[0]
	assert.Equal(t, 2, l.FilterOrder)
	assert.False(t, l.RestoreMean)
	assert.False(t, l.ProcessStats)
}

func TestLoadProjectFailures(t *testing.T) {
	_, err := LoadProject(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loggers: {not: [a, list"), 0o644))
	_, err = LoadProject(path)
	assert.Error(t, err)
}

func TestEngineFromEnv(t *testing.T) {
	t.Setenv("LOGSCREEN_LOG_LEVEL", "debug")
	t.Setenv("LOGSCREEN_WORKERS", "8")

	e, err := EngineFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", e.LogLevel)
	assert.Equal(t, 8, e.Workers)
}

func TestEngineDefaults(t *testing.T) {
	// register cleanup via t.Setenv, then clear so the defaults apply
	t.Setenv("LOGSCREEN_LOG_LEVEL", "x")
	t.Setenv("LOGSCREEN_WORKERS", "1")
	os.Unsetenv("LOGSCREEN_LOG_LEVEL")
	os.Unsetenv("LOGSCREEN_WORKERS")

	e, err := EngineFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "info", e.LogLevel)
	assert.Equal(t, 4, e.Workers)
}
