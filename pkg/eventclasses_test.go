package qncorrections

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventClassVariableBinOf(t *testing.T) {
	t.Parallel()

	v, err := NewEventClassVariable(VtxZ, "vtxZ", []float64{-10, -7, 7, 10})
	require.NoError(t, err)

	tests := []struct {
		name string
		x    float64
		want int
	}{
		{"first bin", -8, 0},
		{"lower edge", -10, 0},
		{"inner edge belongs to upper bin", -7, 1},
		{"middle", 0, 1},
		{"upper edge is inclusive", 10, 2},
		{"above range", 11, OutOfRange},
		{"below range", -10.5, OutOfRange},
		{"not a number", math.NaN(), OutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.BinOf(tt.x))
		})
	}
}

func TestNewEventClassVariableRejectsBadEdges(t *testing.T) {
	t.Parallel()

	_, err := NewEventClassVariable(VtxZ, "vtxZ", []float64{1})
	assert.Error(t, err)
	_, err = NewEventClassVariable(VtxZ, "vtxZ", []float64{0, 1, 1})
	assert.Error(t, err)
	_, err = NewEventClassVariable(VtxZ, "vtxZ", []float64{0, 2, 1})
	assert.Error(t, err)
}

func TestNewEventClassVariableFromPairs(t *testing.T) {
	t.Parallel()

	v, err := NewEventClassVariableFromPairs(VtxZ, "vtxZ", [][2]float64{{-10, 4}, {-7, 1}, {7, 8}, {10, 1}})
	require.NoError(t, err)
	require.Equal(t, 10, v.NBins())
	assert.Equal(t, -10.0, v.Min())
	assert.Equal(t, 10.0, v.Max())
	assert.InDelta(t, -7.0, v.Edges[1], 1e-12)
	assert.InDelta(t, -5.25, v.Edges[2], 1e-12)
	assert.InDelta(t, 7.0, v.Edges[9], 1e-12)

	c, err := NewEventClassVariableFromPairs(CentralityV, "centrality", [][2]float64{{0, 2}, {100, 100}})
	require.NoError(t, err)
	assert.Equal(t, 100, c.NBins())
	assert.Equal(t, 42, c.BinOf(42.5))

	_, err = NewEventClassVariableFromPairs(VtxZ, "vtxZ", [][2]float64{{-10, 3}, {10, 5}})
	assert.Error(t, err, "announced pair count does not match")
	_, err = NewEventClassVariableFromPairs(VtxZ, "vtxZ", [][2]float64{{-10, 2}, {-20, 5}})
	assert.Error(t, err, "edges going backwards")
}

func testEventClasses(t *testing.T) *EventClassVariablesSet {
	t.Helper()
	vz, err := NewEventClassVariable(VtxZ, "vtxZ", []float64{-10, -7, 7, 10})
	require.NoError(t, err)
	cent, err := NewEventClassVariable(CentralityV, "centrality", []float64{0, 10, 30, 50, 100})
	require.NoError(t, err)
	set, err := NewEventClassVariablesSet("vz_cent", vz, cent)
	require.NoError(t, err)
	return set
}

func TestEventClassVariablesSetClassify(t *testing.T) {
	t.Parallel()

	set := testEventClasses(t)
	require.Equal(t, 12, set.TotalBins())

	assert.Equal(t, 0, set.Classify(Variables{VtxZ: -8, CentralityV: 5}))
	assert.Equal(t, 1, set.Classify(Variables{VtxZ: 0, CentralityV: 5}))
	assert.Equal(t, 2*1+3*3, set.Classify(Variables{VtxZ: 10, CentralityV: 100}))
	assert.Equal(t, OutOfRange, set.Classify(Variables{VtxZ: 11, CentralityV: 5}))
	assert.Equal(t, OutOfRange, set.Classify(Variables{VtxZ: 0}), "missing variable")

	assert.Equal(t, []int{2, 3}, set.Coordinates(11))
	assert.Nil(t, set.Coordinates(12))
}

func TestEventClassVariablesSetClassifyIsTotalAndMonotonic(t *testing.T) {
	t.Parallel()

	set := testEventClasses(t)
	for _, cent := range []float64{0, 7, 10, 29.9, 50, 99, 100} {
		prev := -1
		for vz := -10.0; vz <= 10.0; vz += 0.25 {
			bin := set.Classify(Variables{VtxZ: vz, CentralityV: cent})
			require.NotEqual(t, OutOfRange, bin, "vtxZ %v centrality %v", vz, cent)
			require.Less(t, bin, set.TotalBins())
			assert.GreaterOrEqual(t, bin, prev, "vtxZ %v centrality %v", vz, cent)
			prev = bin
		}
	}
}
