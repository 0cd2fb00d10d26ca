package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metocean-tools/logscreen/config"
	"github.com/metocean-tools/logscreen/screening"
	"github.com/metocean-tools/logscreen/sink"
)

// writeDataFile writes a comma-delimited file of (elapsed, 1 Hz sine,
// constant) rows at 10 Hz.
func writeDataFile(t *testing.T, dir, name string, rows int) string {
	t.Helper()

	var b strings.Builder
	for i := 0; i < rows; i++ {
		ts := float64(i) * 0.1
		fmt.Fprintf(&b, "%.1f,%.6f,%.1f\n", ts, math.Sin(2*math.Pi*ts), 2.0)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// campaignFiles writes three hourly 100-row files.
func campaignFiles(t *testing.T) []string {
	t.Helper()

	dir := t.TempDir()
	return []string{
		writeDataFile(t, dir, "TST_2018_0607_0000.csv", 100),
		writeDataFile(t, dir, "TST_2018_0607_0100.csv", 100),
		writeDataFile(t, dir, "TST_2018_0607_0200.csv", 100),
	}
}

func baseSource(id string, files []string) config.LoggerSource {
	return config.LoggerSource{
		ID:                id,
		FileFormat:        "Custom",
		Delimiter:         ",",
		Columns:           []int{2, 3, 7}, // column 7 absent from every file
		ChannelNames:      []string{"AccX", "AccY", "Missing"},
		ChannelUnits:      []string{"m/s^2", "m/s^2", "-"},
		FilenameTimestamp: "xxxxYYYYxmmDDxHHMM",
		Files:             files,
		LoggingFreq:       10,
		ExpectedPoints:    100,
		StatsInterval:     15, // 150-row windows straddling file boundaries
		ProcessStats:      true,
		IncludeUnfiltered: true,
	}
}

func TestRunWindowsSpanFileBoundaries(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesTotal)
	assert.Equal(t, 3, res.FilesProcessed)

	// 300 rows / 150 per window, no remainder
	require.Len(t, res.StatsRecords, 2)

	day := time.Date(2018, 6, 7, 0, 0, 0, 0, time.UTC)
	first := res.StatsRecords[0]
	assert.False(t, first.Partial)
	assert.True(t, first.HasTimestamp)
	assert.Equal(t, day, first.Timestamp)
	assert.Equal(t, 0, first.FileNumber)

	// second window starts 50 rows into the second file
	second := res.StatsRecords[1]
	assert.Equal(t, day.Add(time.Hour+5*time.Second), second.Timestamp)
	assert.Equal(t, 1, second.FileNumber)

	require.NotNil(t, res.Stats)
	assert.Equal(t, "L1", res.Stats.LoggerID)
}

func TestRunStatsValues(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	for _, rec := range res.StatsRecords {
		require.Len(t, rec.Unfiltered, 3)

		// constant channel
		assert.Equal(t, 2.0, rec.Unfiltered[1].Min)
		assert.Equal(t, 2.0, rec.Unfiltered[1].Max)
		assert.InDelta(t, 0.0, rec.Unfiltered[1].Std, 1e-12)

		// absent column reduces to NaN statistics, never an error
		assert.True(t, math.IsNaN(rec.Unfiltered[2].Mean))
	}
}

func TestRunScreeningOutputs(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Completeness, 3)
	assert.InDelta(t, 100.0, res.Completeness[0], 1e-12)
	assert.InDelta(t, 100.0, res.Completeness[1], 1e-12)
	assert.InDelta(t, 0.0, res.Completeness[2], 1e-12)

	require.Len(t, res.PointsPerFile, 3)
	for _, fp := range res.PointsPerFile {
		assert.Equal(t, 100, fp.Points)
	}

	assert.True(t, math.IsInf(res.MinResolution[2], 1))
	assert.Equal(t, 0, res.BadFiles.Len())
}

func TestRunExcludesUnparseableFilename(t *testing.T) {
	files := campaignFiles(t)
	files = append(files, writeDataFile(t, t.TempDir(), "badname.csv", 100))

	src := baseSource("L1", files)
	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesTotal)
	reason, ok := res.BadFiles.Reason(files[3])
	require.True(t, ok)
	assert.Equal(t, screening.ReasonFilenameTimestamp, reason)
	assert.Len(t, res.StatsRecords, 2)
}

func TestRunExcludesWrongPointCount(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeDataFile(t, dir, "TST_2018_0607_0000.csv", 100),
		writeDataFile(t, dir, "TST_2018_0607_0100.csv", 60), // short file
		writeDataFile(t, dir, "TST_2018_0607_0200.csv", 100),
	}

	src := baseSource("L1", files)
	src.StatsInterval = 10 // 100-row windows

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	reason, ok := res.BadFiles.Reason(files[1])
	require.True(t, ok)
	assert.Equal(t, screening.ReasonPointCount, reason)

	// only the two valid files feed the sampler
	require.Len(t, res.StatsRecords, 2)
	assert.Equal(t, 0, res.StatsRecords[0].FileNumber)
	assert.Equal(t, 2, res.StatsRecords[1].FileNumber)
}

func TestRunFlagsTrailingPartialWindow(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))
	src.StatsInterval = 25 // 250-row windows: 300 rows -> 250 + 50 partial

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.StatsRecords, 2)
	assert.False(t, res.StatsRecords[0].Partial)
	assert.True(t, res.StatsRecords[1].Partial)
}

func TestRunFilteredStats(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))
	src.IncludeFiltered = true
	src.FilterType = "rectangular"
	src.FilterOrder = 1
	low, high := 0.5, 2.0
	src.LowCutoff = &low
	src.HighCutoff = &high

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	rec := res.StatsRecords[0]
	require.Len(t, rec.Filtered, 3)

	// the 1 Hz sine is inside the band, its spread survives
	assert.InDelta(t, 1.0/math.Sqrt2, rec.Filtered[0].Std, 0.05)

	// the constant channel is entirely out of band
	assert.InDelta(t, 0.0, rec.Filtered[1].Mean, 1e-9)
	assert.InDelta(t, 0.0, rec.Filtered[1].Std, 1e-9)
}

func TestRunSpectralWindows(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))
	src.ProcessSpectral = true
	src.SpectralInterval = 15

	p, err := NewProcessor(src)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Spectra, 2)
	for _, s := range res.Spectra {
		require.Len(t, s.Channels, 3)
		assert.NotNil(t, s.Channels[0])
		assert.Nil(t, s.Channels[2]) // all-NaN channel

		// peak at 1 Hz
		psd := s.Channels[0]
		peak := 0
		for i, p := range psd.Power {
			if p > psd.Power[peak] {
				peak = i
			}
		}
		assert.InDelta(t, 1.0, psd.Frequencies[peak], 0.1)
	}
}

func TestRunProgressIsMonotonic(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))

	var calls []int
	p, err := NewProcessor(src, WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRunCancelledContextReturnsPartialResults(t *testing.T) {
	src := baseSource("L1", campaignFiles(t))

	p, err := NewProcessor(src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	require.NotNil(t, res)
	assert.Equal(t, 0, res.FilesProcessed)
	assert.Equal(t, 3, res.FilesTotal)
}

func TestNewProcessorRejectsInvalidSource(t *testing.T) {
	src := baseSource("L1", nil)
	src.Columns = nil

	_, err := NewProcessor(src)
	require.Error(t, err)

	var lerr *LoggerError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "L1", lerr.LoggerID)
}

func TestNewProcessorRejectsCutoffAboveNyquist(t *testing.T) {
	src := baseSource("L1", nil)
	high := 6.0 // Nyquist is 5 Hz at 10 Hz logging
	src.HighCutoff = &high
	src.FilterOrder = 4

	_, err := NewProcessor(src)
	assert.Error(t, err)
}

func TestRunnerIsolatesFailingLogger(t *testing.T) {
	files := campaignFiles(t)

	good := baseSource("good", files)
	bad := baseSource("bad", files)
	bad.Columns = nil

	out := sink.NewMemory()
	r := NewRunner([]config.LoggerSource{good, bad}, out, 2)

	batch := r.Run(context.Background())

	require.Contains(t, batch.Results, "good")
	assert.NotContains(t, batch.Results, "bad")
	require.Contains(t, batch.Errors, "bad")
	assert.NotContains(t, batch.Errors, "good")

	// only the good logger reached the sink
	assert.Equal(t, []string{"good"}, out.Loggers())
	assert.Equal(t, []sink.Mode{sink.ModeCreate}, out.ModeHistory())
}

func TestRunnerWritesAllLoggersWithOneCreate(t *testing.T) {
	files := campaignFiles(t)

	sources := []config.LoggerSource{
		baseSource("L1", files),
		baseSource("L2", files),
		baseSource("L3", files),
	}

	out := sink.NewMemory()
	r := NewRunner(sources, out, 2)

	batch := r.Run(context.Background())
	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Results, 3)

	history := out.ModeHistory()
	require.Len(t, history, 3)
	assert.Equal(t, sink.ModeCreate, history[0])
	assert.Equal(t, sink.ModeAppend, history[1])
	assert.Equal(t, sink.ModeAppend, history[2])
}
