package qncorrections

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQnVectorNormalize(t *testing.T) {
	t.Parallel()

	newVector := func() *QnVector {
		q := NewQnVector(2, 2)
		q.SetQ(1, 3, 4)
		q.SetQ(2, 0, 2)
		q.SumW = 4
		q.Entries = 4
		return q
	}

	tests := []struct {
		name   string
		method Normalization
		x1, y1 float64
		x2, y2 float64
	}{
		{"none", NormalizationNone, 3, 4, 0, 2},
		{"QoverSqrtM", NormalizationQoverSqrtM, 1.5, 2, 0, 1},
		{"QoverM", NormalizationQoverM, 0.75, 1, 0, 0.5},
		{"QoverQlength", NormalizationQoverQlength, 0.6, 0.8, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newVector()
			q.Normalize(tt.method)
			require.True(t, q.Valid)
			assert.InDelta(t, tt.x1, q.Qx(1), 1e-12)
			assert.InDelta(t, tt.y1, q.Qy(1), 1e-12)
			assert.InDelta(t, tt.x2, q.Qx(2), 1e-12)
			assert.InDelta(t, tt.y2, q.Qy(2), 1e-12)
		})
	}
}

func TestQnVectorEmptyIsInvalidNotNaN(t *testing.T) {
	t.Parallel()

	for _, method := range []Normalization{NormalizationNone, NormalizationQoverSqrtM, NormalizationQoverM, NormalizationQoverQlength} {
		q := NewQnVector(3, 3)
		q.Normalize(method)
		assert.False(t, q.Valid, method.String())
		for h := 1; h <= 3; h++ {
			assert.False(t, math.IsNaN(q.Qx(h)) || math.IsInf(q.Qx(h), 0), method.String())
			assert.False(t, math.IsNaN(q.Qy(h)) || math.IsInf(q.Qy(h), 0), method.String())
		}
	}

	// entries whose weights all vanished
	q := NewQnVector(1, 1)
	q.Entries = 3
	q.Normalize(NormalizationQoverM)
	assert.False(t, q.Valid)
	assert.Zero(t, q.Qx(1))
}

func TestQnVectorCloneAndEventPlane(t *testing.T) {
	t.Parallel()

	q := NewQnVector(2, 4)
	q.SetQ(2, 0, 1)
	q.EventClassBin = 3
	c := q.Clone()
	assert.Equal(t, 4, c.InternalHarmonics())
	assert.Equal(t, 2, c.NHarmonics())
	assert.Equal(t, 3, c.EventClassBin)
	assert.InDelta(t, math.Pi/4, c.EventPlane(2), 1e-12)

	c.SetQ(2, 5, 5)
	assert.Equal(t, 1.0, q.Qy(2), "clone is independent")
	q.Reset()
	assert.Equal(t, OutOfRange, q.EventClassBin)
	assert.Zero(t, q.Length(2))
}
