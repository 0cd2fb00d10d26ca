package sink

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metocean-tools/logscreen/spectral"
	"github.com/metocean-tools/logscreen/stats"
)

func statsTable(loggerID string) *stats.Table {
	return &stats.Table{
		LoggerID: loggerID,
		Columns:  []stats.ColumnKey{{Channel: "AccX", Stat: "mean", Unit: "m/s^2"}},
		Rows:     [][]float64{{1.0}},
	}
}

func TestWriteModeTransition(t *testing.T) {
	var w WriteMode
	assert.Equal(t, ModeCreate, w.Next())
	assert.Equal(t, ModeAppend, w.Next())
	assert.Equal(t, ModeAppend, w.Next())
}

func TestFirstWriteCreatesRestAppend(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.WriteStats(statsTable("L1")))
	require.NoError(t, m.WriteStats(statsTable("L2")))
	require.NoError(t, m.WriteStats(statsTable("L3")))

	assert.Equal(t, []Mode{ModeCreate, ModeAppend, ModeAppend}, m.ModeHistory())
	assert.Equal(t, []string{"L1", "L2", "L3"}, m.Loggers())
}

func TestConcurrentWritesYieldOneCreate(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.WriteStats(statsTable(fmt.Sprintf("L%02d", i))))
		}(i)
	}
	wg.Wait()

	history := m.ModeHistory()
	require.Len(t, history, 16)
	assert.Equal(t, ModeCreate, history[0])

	creates := 0
	for _, mode := range history {
		if mode == ModeCreate {
			creates++
		}
	}
	assert.Equal(t, 1, creates)
}

func TestDuplicateLoggerRejected(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.WriteStats(statsTable("L1")))
	assert.Error(t, m.WriteStats(statsTable("L1")))
	assert.Len(t, m.Loggers(), 1)
}

func TestRejectedDuplicateDoesNotAdvanceWriteMode(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.WriteStats(statsTable("L1")))
	require.Error(t, m.WriteStats(statsTable("L1")))
	require.NoError(t, m.WriteStats(statsTable("L2")))

	assert.Equal(t, []Mode{ModeCreate, ModeAppend}, m.ModeHistory())
	assert.Equal(t, []string{"L1", "L2"}, m.Loggers())
}

func TestNilTableRejected(t *testing.T) {
	m := NewMemory()
	assert.Error(t, m.WriteStats(nil))
}

func TestSpectraRoundTrip(t *testing.T) {
	m := NewMemory()

	psd := []*LoggerSpectra{
		{WindowIndex: 0, Channels: []*spectral.PSDResult{
			{Frequencies: []float64{0, 0.5}, Power: []float64{0, 1.5}, Segments: 3},
		}},
	}
	require.NoError(t, m.WriteSpectra("L1", psd))

	got := m.Spectra("L1")
	require.Len(t, got, 1)
	assert.Equal(t, 1.5, got[0].Channels[0].Power[1])
	assert.Nil(t, m.Spectra("missing"))
}

func TestStatsLookup(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteStats(statsTable("L1")))

	tbl, ok := m.Stats("L1")
	require.True(t, ok)
	assert.Equal(t, "L1", tbl.LoggerID)

	_, ok = m.Stats("L2")
	assert.False(t, ok)
}
