// Package ingest decodes raw logger files into normalized frames. Each
// supported file format is a tagged variant with its own adapter behind the
// single Adapter interface.
package ingest

import (
	"fmt"

	"github.com/metocean-tools/logscreen/frame"
)

// Format identifies a raw logger file format.
type Format int

const (
	// FormatCustom is a general delimited text format described entirely by
	// the logger's descriptor (delimiter, header rows, column numbers).
	FormatCustom Format = iota

	// FormatFugroCSV is comma-separated Fugro logger output with embedded
	// row timestamps.
	FormatFugroCSV

	// FormatPulseAcc is Pulse acceleration output: a metadata header block
	// followed by whitespace-delimited rows indexed by time step.
	FormatPulseAcc

	// Format2HPS2Acc is 2H PS2 acceleration output: comment-prefixed header
	// lines followed by delimited rows indexed by time step.
	Format2HPS2Acc
)

func (f Format) String() string {
	switch f {
	case FormatCustom:
		return "Custom"
	case FormatFugroCSV:
		return "Fugro-csv"
	case FormatPulseAcc:
		return "Pulse-acc"
	case Format2HPS2Acc:
		return "2HPS2-acc"
	default:
		return "unknown"
	}
}

// ParseFormat maps a configuration tag to a Format.
func ParseFormat(tag string) (Format, error) {
	switch tag {
	case "Custom", "custom", "":
		return FormatCustom, nil
	case "Fugro-csv", "fugro-csv":
		return FormatFugroCSV, nil
	case "Pulse-acc", "pulse-acc":
		return FormatPulseAcc, nil
	case "2HPS2-acc", "2hps2-acc":
		return Format2HPS2Acc, nil
	default:
		return 0, fmt.Errorf("unknown file format %q", tag)
	}
}

// Descriptor carries the per-logger decode configuration shared by all
// adapters.
type Descriptor struct {
	Format Format `json:"format"`

	// Delimiter separates raw columns. Empty means any whitespace.
	Delimiter string `json:"delimiter"`

	// HeaderRows is the number of leading rows before data. The channel and
	// units rows, when present, are 1-based positions within the header.
	HeaderRows int `json:"header_rows"`
	ChannelRow int `json:"channel_row"`
	UnitsRow   int `json:"units_row"`

	// Columns are the requested channel columns as 1-based positions within
	// the full raw row. A requested column beyond what a file contains
	// yields a synthesized missing-value channel, never a failure.
	Columns []int `json:"columns"`

	// UnitFactors are optional per-channel conversion factors applied at
	// decode time.
	UnitFactors []float64 `json:"unit_factors"`

	// ChannelNames/ChannelUnits override names and units recovered from the
	// header.
	ChannelNames []string `json:"channel_names"`
	ChannelUnits []string `json:"channel_units"`

	// FilenameTimestamp is the position code locating an embedded start
	// timestamp in each filename, e.g. "xxxxYYYYxmmDDxHHMM". Empty when
	// filenames carry no timestamp.
	FilenameTimestamp string `json:"filename_timestamp"`

	// SampleInterval converts a time-step first column to seconds. Zero
	// means the first column already holds seconds.
	SampleInterval float64 `json:"sample_interval"`
}

// Adapter decodes one raw file of a fixed format into a normalized frame.
type Adapter interface {
	Decode(path string) (*frame.Frame, error)
	Format() Format
}

// NewAdapter builds the adapter for the descriptor's format tag.
func NewAdapter(d Descriptor) (Adapter, error) {
	if len(d.Columns) == 0 {
		return nil, fmt.Errorf("format %s: no channel columns requested", d.Format)
	}

	switch d.Format {
	case FormatCustom:
		return &customAdapter{desc: d}, nil
	case FormatFugroCSV:
		return &fugroAdapter{desc: d}, nil
	case FormatPulseAcc:
		return &pulseAdapter{desc: d}, nil
	case Format2HPS2Acc:
		return &hps2Adapter{desc: d}, nil
	default:
		return nil, fmt.Errorf("unknown file format %d", d.Format)
	}
}

// ParseError is a file-scoped decode failure. It is recoverable: the file
// is registered and excluded while the run continues.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
