// Package pipeline orchestrates the screening engine per logger: file
// ordering, decoding, quality screening, cross-file windowing, filtering,
// statistics/spectral reduction and the per-file integration pass.
package pipeline

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/metocean-tools/logscreen/config"
	"github.com/metocean-tools/logscreen/filters"
	"github.com/metocean-tools/logscreen/frame"
	"github.com/metocean-tools/logscreen/ingest"
	"github.com/metocean-tools/logscreen/integrate"
	"github.com/metocean-tools/logscreen/logging"
	"github.com/metocean-tools/logscreen/sampler"
	"github.com/metocean-tools/logscreen/screening"
	"github.com/metocean-tools/logscreen/sink"
	"github.com/metocean-tools/logscreen/spectral"
	"github.com/metocean-tools/logscreen/stats"
)

// Progress receives monotonically increasing (files processed, total files)
// notifications.
type Progress func(done, total int)

// Results holds everything one logger's run produced. Partial results are
// still returned when a run is cancelled or aborted mid-way.
type Results struct {
	LoggerID string

	Stats        *stats.Table
	StatsRecords []stats.Record
	Spectra      []*sink.LoggerSpectra

	BadFiles      *screening.BadFileRegistry
	PointsPerFile []screening.FilePoints
	Completeness  []float64
	MinResolution []float64

	Integrations []*integrate.Result
	RMSSummary   *integrate.RMSSummary

	FilesProcessed int
	FilesTotal     int
}

// Processor runs the screening pipeline for one logger. Processing is
// single-threaded and strictly chronological because the window sampler's
// cross-file accumulation is order-dependent.
type Processor struct {
	src       config.LoggerSource
	adapter   ingest.Adapter
	filterCfg filters.Config
	welch     *spectral.Welch
	registry  *screening.BadFileRegistry

	progress Progress
	log      logging.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithProgress installs a progress callback.
func WithProgress(fn Progress) Option {
	return func(p *Processor) { p.progress = fn }
}

// WithLogger installs a logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// NewProcessor validates the source configuration and builds the pipeline
// for one logger. Configuration problems are logger-fatal and reported as
// *LoggerError.
func NewProcessor(src config.LoggerSource, opts ...Option) (*Processor, error) {
	if err := src.Validate(); err != nil {
		return nil, loggerErr(src.ID, err)
	}

	desc, err := src.Descriptor()
	if err != nil {
		return nil, loggerErr(src.ID, err)
	}
	adapter, err := ingest.NewAdapter(desc)
	if err != nil {
		return nil, loggerErr(src.ID, err)
	}

	filterCfg, err := src.FilterConfig()
	if err != nil {
		return nil, loggerErr(src.ID, err)
	}
	if src.LoggingFreq > 0 && filterCfg.Enabled() {
		if err := filterCfg.Validate(src.LoggingFreq); err != nil {
			return nil, loggerErr(src.ID, err)
		}
	}

	p := &Processor{
		src:       src,
		adapter:   adapter,
		filterCfg: filterCfg,
		registry:  screening.NewBadFileRegistry(),
		log:       logging.GetGlobalLogger(),
	}

	if src.ProcessSpectral {
		welch, err := spectral.NewWelch(src.WelchParams())
		if err != nil {
			return nil, loggerErr(src.ID, err)
		}
		p.welch = welch
	}

	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithFields(logging.Fields{"logger": src.ID})

	return p, nil
}

// orderedFile is one raw file with its parsed filename timestamp.
type orderedFile struct {
	path  string
	start time.Time
	timed bool
}

// orderFiles parses filename timestamps, excludes files whose name does not
// match the pattern, and sorts the rest chronologically.
func (p *Processor) orderFiles() []orderedFile {
	files := make([]orderedFile, 0, len(p.src.Files))

	for _, path := range p.src.Files {
		of := orderedFile{path: path}
		if p.src.FilenameTimestamp != "" {
			start, err := ingest.ParseFilenameTimestamp(path, p.src.FilenameTimestamp)
			if err != nil {
				p.registry.Add(path, screening.ReasonFilenameTimestamp)
				p.log.Warn("excluding file", logging.Fields{
					"file": path, "reason": screening.ReasonFilenameTimestamp,
				})
				continue
			}
			of.start = start
			of.timed = true
		}
		files = append(files, of)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].timed || !files[j].timed {
			return false
		}
		return files[i].start.Before(files[j].start)
	})

	return files
}

// Run processes the logger's campaign. The context is checked before each
// file; on cancellation the run stops cleanly after the current file and
// whatever results exist are flushed and returned together with the
// context's error.
func (p *Processor) Run(ctx context.Context) (*Results, error) {
	files := p.orderFiles()

	res := &Results{
		LoggerID:   p.src.ID,
		BadFiles:   p.registry,
		FilesTotal: len(files),
	}

	numChannels := len(p.src.Columns)
	screen := screening.NewQualityScreen(p.src.ExpectedPoints, numChannels, p.registry)
	agg := stats.NewAggregator(p.src.ID, p.channelNames(), p.channelUnits())

	var statsSampler, spectralSampler *sampler.Sampler
	if p.src.ProcessStats {
		statsSampler = sampler.NewSampler(p.src.StatsSampleLength(), numChannels)
	}
	if p.src.ProcessSpectral {
		spectralSampler = sampler.NewSampler(p.src.SpectralSampleLength(), numChannels)
	}

	var integrator *integrate.Integrator
	if p.src.ProcessIntegration {
		var err error
		integrator, err = integrate.NewIntegrator(p.src.IntegrateParams())
		if err != nil {
			return res, loggerErr(p.src.ID, err)
		}
	}

	var runErr error

	for i, of := range files {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		f, err := p.adapter.Decode(of.path)
		if err != nil {
			p.recordFileError(of.path, err)
			p.notifyProgress(res, len(files))
			continue
		}
		f.FileOrder = i
		if of.timed && !f.HasTimestamps() {
			// Time-step files with a filename start time get absolute
			// timestamps reconstructed by the adapter; files without either
			// stay file-number indexed.
			attachTimestamps(f, of.start)
		}

		if !screen.Observe(f) {
			p.log.Warn("excluding file", logging.Fields{
				"file": of.path, "reason": screening.ReasonPointCount,
				"points": f.NumRows(), "expected": p.src.ExpectedPoints,
			})
			p.notifyProgress(res, len(files))
			continue
		}

		if integrator != nil {
			ires, err := integrator.Process(f.Clone())
			if err != nil {
				p.recordFileError(of.path, err)
			} else {
				res.Integrations = append(res.Integrations, ires)
			}
		}

		if spectralSampler != nil {
			for _, w := range spectralSampler.Push(f.Clone()) {
				if err := p.reduceSpectral(res, w); err != nil {
					return p.finish(res, screen, agg), err
				}
			}
		}

		if statsSampler != nil {
			for _, w := range statsSampler.Push(f) {
				if err := p.reduceStats(agg, w); err != nil {
					return p.finish(res, screen, agg), err
				}
			}
		}

		p.notifyProgress(res, len(files))
	}

	// A trailing window that never reached target length is still closed
	// and reported, flagged Partial.
	if statsSampler != nil {
		if w := statsSampler.Flush(); w != nil {
			if err := p.reduceStats(agg, w); err != nil {
				return p.finish(res, screen, agg), err
			}
		}
	}
	if spectralSampler != nil {
		if w := spectralSampler.Flush(); w != nil {
			if err := p.reduceSpectral(res, w); err != nil {
				return p.finish(res, screen, agg), err
			}
		}
	}

	if integrator != nil {
		res.RMSSummary = integrator.Summary()
	}

	return p.finish(res, screen, agg), runErr
}

// finish assembles the exportable results from the run's accumulators.
func (p *Processor) finish(res *Results, screen *screening.QualityScreen, agg *stats.Aggregator) *Results {
	res.StatsRecords = agg.Records()
	if agg.Len() > 0 {
		res.Stats = agg.Table()
	}
	res.PointsPerFile = screen.PointsPerFile()
	res.Completeness = screen.Completeness()
	res.MinResolution = screen.MinResolution()
	return res
}

// reduceStats filters (when configured) and reduces one closed window into
// a statistics record. Invalid filter configurations abort the logger.
func (p *Processor) reduceStats(agg *stats.Aggregator, w *sampler.Window) error {
	rec := stats.Record{
		WindowIndex:  agg.Len(),
		Timestamp:    w.Start(),
		HasTimestamp: w.HasTimestamps(),
		FileNumber:   w.StartFile(),
		Partial:      w.Partial(),
	}

	if p.src.IncludeUnfiltered {
		rec.Unfiltered = stats.ComputeChannels(w.Channels())
	}

	if p.src.IncludeFiltered && p.filterCfg.Enabled() {
		filtered, err := filters.Apply(w.Channels(), p.windowRate(w), p.filterCfg)
		if err != nil {
			// cutoff validation failures abort this logger, not the run
			return loggerErr(p.src.ID, err)
		}
		rec.Filtered = stats.ComputeChannels(filtered)
	}

	agg.Append(rec)
	return nil
}

// reduceSpectral estimates the PSD of one closed spectral window.
func (p *Processor) reduceSpectral(res *Results, w *sampler.Window) error {
	channels, err := p.welch.ComputeChannels(w.Channels(), p.windowRate(w))
	if err != nil {
		return loggerErr(p.src.ID, err)
	}

	res.Spectra = append(res.Spectra, &sink.LoggerSpectra{
		WindowIndex: len(res.Spectra),
		Channels:    channels,
	})
	return nil
}

// windowRate prefers the rate observed in the data over the configured
// logging frequency.
func (p *Processor) windowRate(w *sampler.Window) float64 {
	if fs := w.SampleRate(); fs > 0 {
		return fs
	}
	return p.src.LoggingFreq
}

// recordFileError converts a file-scoped failure to a registry entry. Every
// caught condition is recorded with enough context to reconstruct what
// happened.
func (p *Processor) recordFileError(path string, err error) {
	reason := screening.ReasonUnreadable
	var parseErr *ingest.ParseError
	if errors.As(err, &parseErr) && parseErr.Reason != "" {
		reason = parseErr.Reason
	}

	p.registry.Add(path, reason)
	p.log.Warn("excluding file", logging.Fields{"file": path, "reason": reason})
}

func (p *Processor) notifyProgress(res *Results, total int) {
	res.FilesProcessed++
	if p.progress != nil {
		p.progress(res.FilesProcessed, total)
	}
}

func (p *Processor) channelNames() []string {
	names := make([]string, len(p.src.Columns))
	for i, col := range p.src.Columns {
		names[i] = "Column " + strconv.Itoa(col)
		if i < len(p.src.ChannelNames) && p.src.ChannelNames[i] != "" {
			names[i] = p.src.ChannelNames[i]
		}
	}
	return names
}

func (p *Processor) channelUnits() []string {
	units := make([]string, len(p.src.Columns))
	for i := range units {
		units[i] = "-"
		if i < len(p.src.ChannelUnits) && p.src.ChannelUnits[i] != "" {
			units[i] = p.src.ChannelUnits[i]
		}
	}
	return units
}

// attachTimestamps reconstructs absolute row times for a time-step file
// from a filename-encoded start time. Rows with a missing index keep the
// zero time.
func attachTimestamps(f *frame.Frame, start time.Time) {
	f.Timestamps = make([]time.Time, f.NumRows())
	for i, elapsed := range f.Elapsed {
		if math.IsNaN(elapsed) {
			continue
		}
		f.Timestamps[i] = start.Add(time.Duration(elapsed * float64(time.Second)))
	}
}
