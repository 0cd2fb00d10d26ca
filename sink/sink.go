// Package sink owns the write-mode transition for combined multi-logger
// output: the first logger's tables are written in create mode, every
// subsequent logger's in append mode. The transition lives here, behind a
// mutex, instead of as a flag threaded through the pipeline.
package sink

import (
	"fmt"
	"sync"

	"github.com/metocean-tools/logscreen/spectral"
	"github.com/metocean-tools/logscreen/stats"
)

// Mode is the write mode handed to a concrete encoder.
type Mode int

const (
	ModeCreate Mode = iota
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeCreate {
		return "create"
	}
	return "append"
}

// Sink receives per-logger result tables. Implementations encode or collect
// them; the engine itself performs no file-format encoding.
type Sink interface {
	// WriteStats stores one logger's statistics table.
	WriteStats(table *stats.Table) error

	// WriteSpectra stores one logger's per-window PSD results.
	WriteSpectra(loggerID string, psd []*LoggerSpectra) error
}

// LoggerSpectra is one window's PSD estimate for every channel of a logger.
type LoggerSpectra struct {
	WindowIndex int                   `json:"window_index"`
	Channels    []*spectral.PSDResult `json:"channels"`
}

// WriteMode serializes the create/append transition across otherwise
// parallel loggers. The first call returns ModeCreate, every later call
// ModeAppend.
type WriteMode struct {
	mu     sync.Mutex
	opened bool
}

// Next returns the mode the next write must use and advances the state.
func (w *WriteMode) Next() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.opened {
		w.opened = true
		return ModeCreate
	}
	return ModeAppend
}

// Memory collects tables in memory for the presentation/export layer. Safe
// for concurrent use by parallel loggers; writes are serialized and the
// create/append transition is tracked per combined store.
type Memory struct {
	mu      sync.Mutex
	mode    WriteMode
	history []Mode

	statsTables map[string]*stats.Table
	statsOrder  []string
	spectra     map[string][]*LoggerSpectra
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		statsTables: make(map[string]*stats.Table),
		spectra:     make(map[string][]*LoggerSpectra),
	}
}

// WriteStats stores one logger's statistics table. The first write uses
// create mode, subsequent writes append mode.
func (m *Memory) WriteStats(table *stats.Table) error {
	if table == nil {
		return fmt.Errorf("nil statistics table")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// reject duplicates before consuming a write mode
	if _, exists := m.statsTables[table.LoggerID]; exists {
		return fmt.Errorf("statistics for logger %q already written", table.LoggerID)
	}

	mode := m.mode.Next()
	m.statsTables[table.LoggerID] = table
	m.statsOrder = append(m.statsOrder, table.LoggerID)
	m.history = append(m.history, mode)

	return nil
}

// WriteSpectra stores one logger's PSD results.
func (m *Memory) WriteSpectra(loggerID string, psd []*LoggerSpectra) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.spectra[loggerID] = psd
	return nil
}

// Stats returns the stored statistics table for a logger.
func (m *Memory) Stats(loggerID string) (*stats.Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.statsTables[loggerID]
	return t, ok
}

// Loggers returns logger IDs in write order.
func (m *Memory) Loggers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.statsOrder...)
}

// Spectra returns the stored PSD results for a logger.
func (m *Memory) Spectra(loggerID string) []*LoggerSpectra {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.spectra[loggerID]
}

// ModeHistory returns the write modes used, in write order. Exactly one
// ModeCreate leads the sequence.
func (m *Memory) ModeHistory() []Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Mode(nil), m.history...)
}
