package stats

import (
	"math"
	"time"
)

// Record is one row of the statistics output: one closed window reduced to
// per-channel statistics for the unfiltered and/or filtered variant.
// Records are appended to the per-logger aggregator and never mutated
// afterwards.
type Record struct {
	WindowIndex int       `json:"window_index"`
	Timestamp   time.Time `json:"timestamp"`

	// HasTimestamp is false for loggers whose files carry no timestamps;
	// such records are indexed by FileNumber instead.
	HasTimestamp bool `json:"has_timestamp"`
	FileNumber   int  `json:"file_number"`

	// Partial marks a final trailing window that closed short of the target
	// length. Reported alongside full windows but flagged so callers can
	// exclude it.
	Partial bool `json:"partial"`

	Unfiltered []ChannelStats `json:"unfiltered,omitempty"`
	Filtered   []ChannelStats `json:"filtered,omitempty"`
}

// ColumnKey is the three-level column label of the exported table.
type ColumnKey struct {
	Channel string `json:"channel"`
	Stat    string `json:"stat"`
	Unit    string `json:"unit"`
}

// RowKey indexes one table row by timestamp or file number.
type RowKey struct {
	Timestamp    time.Time `json:"timestamp"`
	HasTimestamp bool      `json:"has_timestamp"`
	FileNumber   int       `json:"file_number"`
	Partial      bool      `json:"partial"`
}

// Table is the exportable per-logger statistics table. The engine performs
// no file-format encoding; this in-memory shape is what export layers
// consume.
type Table struct {
	LoggerID string      `json:"logger_id"`
	Columns  []ColumnKey `json:"columns"`
	Index    []RowKey    `json:"index"`
	Rows     [][]float64 `json:"rows"`
}

// Aggregator accumulates statistics records for one logger and compiles
// them into tables. Unfiltered and filtered statistics are kept separately
// addressable; the combined table interleaves them as
// (channel, channel-filtered) column pairs.
type Aggregator struct {
	loggerID string
	names    []string
	units    []string
	records  []Record
}

// NewAggregator creates an aggregator for one logger's channels.
func NewAggregator(loggerID string, names, units []string) *Aggregator {
	return &Aggregator{
		loggerID: loggerID,
		names:    names,
		units:    units,
	}
}

// Append adds one closed-window record.
func (a *Aggregator) Append(rec Record) {
	a.records = append(a.records, rec)
}

// Records returns the accumulated records.
func (a *Aggregator) Records() []Record {
	return a.records
}

// Len returns the number of accumulated records.
func (a *Aggregator) Len() int {
	return len(a.records)
}

// UnfilteredTable compiles the unfiltered statistics only.
func (a *Aggregator) UnfilteredTable() *Table {
	return a.compile(false, true)
}

// FilteredTable compiles the filtered statistics only.
func (a *Aggregator) FilteredTable() *Table {
	return a.compile(true, false)
}

// Table compiles the combined export table. When both variants exist the
// channel columns are interleaved as (channel, channel-filtered) pairs.
func (a *Aggregator) Table() *Table {
	return a.compile(a.hasFiltered(), a.hasUnfiltered())
}

func (a *Aggregator) hasFiltered() bool {
	for _, r := range a.records {
		if r.Filtered != nil {
			return true
		}
	}
	return false
}

func (a *Aggregator) hasUnfiltered() bool {
	for _, r := range a.records {
		if r.Unfiltered != nil {
			return true
		}
	}
	return false
}

func (a *Aggregator) compile(filtered, unfiltered bool) *Table {
	t := &Table{LoggerID: a.loggerID}

	for c, name := range a.names {
		unit := ""
		if c < len(a.units) {
			unit = a.units[c]
		}
		if unfiltered {
			for _, s := range StatNames {
				t.Columns = append(t.Columns, ColumnKey{Channel: name, Stat: s, Unit: unit})
			}
		}
		if filtered {
			for _, s := range StatNames {
				t.Columns = append(t.Columns, ColumnKey{Channel: name + " (filtered)", Stat: s, Unit: unit})
			}
		}
	}

	for _, rec := range a.records {
		t.Index = append(t.Index, RowKey{
			Timestamp:    rec.Timestamp,
			HasTimestamp: rec.HasTimestamp,
			FileNumber:   rec.FileNumber,
			Partial:      rec.Partial,
		})

		row := make([]float64, 0, len(t.Columns))
		for c := range a.names {
			if unfiltered {
				row = append(row, statValues(rec.Unfiltered, c)...)
			}
			if filtered {
				row = append(row, statValues(rec.Filtered, c)...)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

func statValues(cs []ChannelStats, c int) []float64 {
	out := make([]float64, len(StatNames))
	if cs == nil || c >= len(cs) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	for i, name := range StatNames {
		out[i] = cs[c].Value(name)
	}
	return out
}
