package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metocean-tools/logscreen/frame"
)

func makeFrame(t *testing.T, order, rows int, start time.Time) *frame.Frame {
	t.Helper()

	f, err := frame.New([]string{"x"}, []string{"m"})
	require.NoError(t, err)
	f.FileOrder = order

	for i := 0; i < rows; i++ {
		elapsed := float64(i) * 0.1
		f.AppendRow(elapsed, start.Add(time.Duration(i)*100*time.Millisecond),
			[]float64{float64(order*rows + i)})
	}
	return f
}

func TestSampleConsumesAcrossFileBoundary(t *testing.T) {
	start1 := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	start2 := start1.Add(time.Hour)
	start3 := start2.Add(time.Hour)

	s := NewSampler(1500, 1)

	// file 1: 1000 rows, window stays open
	closed := s.Push(makeFrame(t, 0, 1000, start1))
	assert.Empty(t, closed)
	assert.Equal(t, 1000, s.Pending())

	// file 2: closes window 1 with rows 1-500, carries 500 rows over
	closed = s.Push(makeFrame(t, 1, 1000, start2))
	require.Len(t, closed, 1)

	w1 := closed[0]
	assert.Equal(t, 1500, w1.Len())
	assert.False(t, w1.Partial())
	assert.Equal(t, start1, w1.Start())
	assert.Equal(t, start2.Add(499*100*time.Millisecond), w1.End())
	assert.Equal(t, 0, w1.StartFile())
	assert.Equal(t, 1, w1.EndFile())
	assert.Equal(t, 500, s.Pending())

	// file 3: closes window 2 at exactly 1500 rows, file fully consumed
	closed = s.Push(makeFrame(t, 2, 1000, start3))
	require.Len(t, closed, 1)

	w2 := closed[0]
	assert.Equal(t, 1500, w2.Len())
	assert.Equal(t, start2.Add(500*100*time.Millisecond), w2.Start())
	assert.Equal(t, start3.Add(999*100*time.Millisecond), w2.End())
	assert.Equal(t, 0, s.Pending())
	assert.Nil(t, s.Flush())
	assert.Equal(t, 2, s.WindowCount())
}

func TestRowConservation(t *testing.T) {
	s := NewSampler(700, 1)
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	total := 0
	closedRows := 0
	for i := 0; i < 5; i++ {
		f := makeFrame(t, i, 1000, start.Add(time.Duration(i)*time.Hour))
		total += 1000
		for _, w := range s.Push(f) {
			closedRows += w.Len()
		}
	}
	if w := s.Flush(); w != nil {
		closedRows += w.Len()
	}

	assert.Equal(t, total, closedRows)
}

func TestFlushClosesPartialTrailingWindow(t *testing.T) {
	s := NewSampler(1500, 1)
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	closed := s.Push(makeFrame(t, 0, 900, start))
	assert.Empty(t, closed)

	w := s.Flush()
	require.NotNil(t, w)
	assert.True(t, w.Closed())
	assert.True(t, w.Partial())
	assert.Equal(t, 900, w.Len())
	assert.Equal(t, start, w.Start())
}

func TestSampleSmallFramesAccumulate(t *testing.T) {
	s := NewSampler(250, 1)
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

	var windows []*Window
	for i := 0; i < 10; i++ {
		f := makeFrame(t, i, 100, start.Add(time.Duration(i)*time.Minute))
		windows = append(windows, s.Push(f)...)
	}

	// 1000 rows / 250 per window = 4 full windows
	require.Len(t, windows, 4)
	for _, w := range windows {
		assert.Equal(t, 250, w.Len())
		assert.False(t, w.Partial())
	}
}

func TestSampleTransitionLeavesRemainder(t *testing.T) {
	w := NewWindow(100, 1)
	f := makeFrame(t, 0, 150, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC))

	w, rest := Sample(w, f)

	assert.True(t, w.Closed())
	assert.Equal(t, 100, w.Len())
	assert.Equal(t, 50, rest.NumRows())
	assert.Equal(t, 100.0, rest.Channels[0][0])
}
