package store

import (
	"testing"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCreatesThenUpdates(t *testing.T) {
	s := New(zerolog.Nop())
	created := s.Merge([]point.Batch{
		{point.KKS: "X", point.Type: "AnalogPoint"},
	})
	assert.Equal(t, 1, created)
	created = s.Merge([]point.Batch{
		{point.KKS: "X", point.OperatingRangeLow: "10"},
	})
	assert.Equal(t, 0, created)

	require.Equal(t, 1, s.Len())
	p, ok := s.Point("X")
	require.True(t, ok)
	assert.Equal(t, "AnalogPoint", p.Get(point.Type))
	assert.Equal(t, "10", p.Get(point.OperatingRangeLow))
}

func TestPointsSharesMergedPoints(t *testing.T) {
	s := New(zerolog.Nop())
	s.Merge([]point.Batch{{point.KKS: "X"}, {point.KKS: "Y"}})

	points := s.Points()
	require.Len(t, points, 2)
	points[0] = nil
	assert.Equal(t, 2, s.Len())
	p, _ := s.Point("X")
	assert.NotNil(t, p)

	snapshot := s.Points()
	s.Merge([]point.Batch{{point.KKS: "X", point.OperatingRangeLow: "5"}})
	assert.Equal(t, "5", snapshot[0].Get(point.OperatingRangeLow))
	assert.Same(t, p, snapshot[0])
}

func TestMergeSkipsEmptyKKS(t *testing.T) {
	s := New(zerolog.Nop())
	s.Merge([]point.Batch{{point.Type: "AnalogPoint"}, {point.KKS: ""}})
	assert.Equal(t, 0, s.Len())
}

func TestMergeIsIdempotent(t *testing.T) {
	batches := []point.Batch{
		{point.KKS: "A", point.Type: "DigitalPoint", point.AppearInFiles: point.DbidFileName, point.IOChannel: "3"},
		{point.KKS: "B", point.AppearInFiles: "screen.src"},
		{point.KKS: "A", point.AppearInFiles: "logic.xml"},
	}
	s := New(zerolog.Nop())
	s.Merge(batches)
	first := make(map[string]point.Batch)
	for _, p := range s.Points() {
		first[p.KKS()] = p.Values()
	}

	s.Merge(batches)
	require.Equal(t, 2, s.Len())
	for _, p := range s.Points() {
		assert.Equal(t, first[p.KKS()], p.Values())
	}
	a, _ := s.Point("A")
	assert.Equal(t, "DBID.imp, logic.xml", a.Get(point.AppearInFiles))
}

func TestMergeKeepsFirstSightingOrder(t *testing.T) {
	s := New(zerolog.Nop())
	s.Merge([]point.Batch{{point.KKS: "C"}, {point.KKS: "A"}})
	s.Merge([]point.Batch{{point.KKS: "B"}, {point.KKS: "C"}})

	var order []string
	for _, p := range s.Points() {
		order = append(order, p.KKS())
	}
	assert.Equal(t, []string{"C", "A", "B"}, order)
}

func TestMergeRegistersTasks(t *testing.T) {
	s := New(zerolog.Nop())
	s.Merge([]point.Batch{
		{point.KKS: "A", point.Type: "AnalogPoint", point.Drop: "DROP11/DROP61", point.IOLocation: "1.1.3", point.IOTaskIndex: "1"},
		{point.KKS: "B", point.Type: "DigitalPoint", point.Drop: "DROP11/DROP61", point.IOLocation: "1.1.3", point.IOTaskIndex: "2"},
		{point.KKS: "C", point.Type: "DigitalPoint", point.Drop: "DROP11/DROP61", point.IOLocation: "1.1.3", point.IOTaskIndex: "1"},
		{point.KKS: "M", point.Type: "ModulePoint", point.Drop: "DROP11/DROP61", point.IOLocation: "1.1.3", point.IOTaskIndex: "3"},
		{point.KKS: "D", point.Type: "DigitalPoint", point.Drop: "DROP11/DROP61", point.IOLocation: "1.1.4"},
		{point.KKS: "E", point.Type: "DigitalPoint", point.IOLocation: "1.1.5", point.IOTaskIndex: "1"},
	})

	assert.Equal(t, []string{"1", "2"}, s.TasksAt("DROP11/DROP61", "1.1.3"))
	assert.Equal(t, []string{""}, s.TasksAt("DROP11/DROP61", "1.1.4"))
	assert.Empty(t, s.TasksAt("", "1.1.5"))

	// an existing point never re-registers
	s.Merge([]point.Batch{{point.KKS: "A", point.IOTaskIndex: "5"}})
	assert.Equal(t, []string{"1", "2"}, s.TasksAt("DROP11/DROP61", "1.1.3"))
}

func TestReset(t *testing.T) {
	s := New(zerolog.Nop())
	s.Merge([]point.Batch{{point.KKS: "A", point.Drop: "D", point.IOLocation: "1.1.1"}})
	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.TasksAt("D", "1.1.1"))
	_, ok := s.Point("A")
	assert.False(t, ok)
}
