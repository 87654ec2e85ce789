package qncorrections

import "math"

// QnVector holds the flow vector of one configuration for one event.
// Harmonics are indexed from 1. Internal harmonics above NHarmonics are only
// kept when a correction step needs them.
type QnVector struct {
	qx            []float64
	qy            []float64
	nHarmonics    int
	EventClassBin int
	SumW          float64
	Entries       int
	Valid         bool
}

func NewQnVector(nHarmonics, internalHarmonics int) *QnVector {
	if internalHarmonics < nHarmonics {
		internalHarmonics = nHarmonics
	}
	return &QnVector{
		qx:            make([]float64, internalHarmonics+1),
		qy:            make([]float64, internalHarmonics+1),
		nHarmonics:    nHarmonics,
		EventClassBin: OutOfRange,
	}
}

func (q *QnVector) NHarmonics() int { return q.nHarmonics }

func (q *QnVector) InternalHarmonics() int { return len(q.qx) - 1 }

func (q *QnVector) Qx(h int) float64 { return q.qx[h] }

func (q *QnVector) Qy(h int) float64 { return q.qy[h] }

func (q *QnVector) SetQ(h int, qx, qy float64) {
	q.qx[h] = qx
	q.qy[h] = qy
}

func (q *QnVector) Add(h int, qx, qy float64) {
	q.qx[h] += qx
	q.qy[h] += qy
}

func (q *QnVector) Length(h int) float64 {
	return math.Hypot(q.qx[h], q.qy[h])
}

// EventPlane returns the harmonic h symmetry plane angle in (-pi/h, pi/h].
func (q *QnVector) EventPlane(h int) float64 {
	return math.Atan2(q.qy[h], q.qx[h]) / float64(h)
}

func (q *QnVector) Reset() {
	for h := range q.qx {
		q.qx[h] = 0
		q.qy[h] = 0
	}
	q.EventClassBin = OutOfRange
	q.SumW = 0
	q.Entries = 0
	q.Valid = false
}

// CopyFrom requires both vectors to hold the same number of internal harmonics.
func (q *QnVector) CopyFrom(o *QnVector) {
	copy(q.qx, o.qx)
	copy(q.qy, o.qy)
	q.nHarmonics = o.nHarmonics
	q.EventClassBin = o.EventClassBin
	q.SumW = o.SumW
	q.Entries = o.Entries
	q.Valid = o.Valid
}

func (q *QnVector) Clone() *QnVector {
	c := NewQnVector(q.nHarmonics, q.InternalHarmonics())
	c.CopyFrom(q)
	return c
}

// Normalize scales every harmonic according to the method. A vector without
// entries or weights is marked invalid and zeroed.
func (q *QnVector) Normalize(method Normalization) {
	if q.Entries == 0 || !(q.SumW > 0) {
		for h := range q.qx {
			q.qx[h] = 0
			q.qy[h] = 0
		}
		q.Valid = false
		return
	}
	switch method {
	case NormalizationQoverSqrtM:
		q.scale(1 / math.Sqrt(q.SumW))
	case NormalizationQoverM:
		q.scale(1 / q.SumW)
	case NormalizationQoverQlength:
		for h := 1; h < len(q.qx); h++ {
			l := q.Length(h)
			if l > 0 {
				q.qx[h] /= l
				q.qy[h] /= l
			}
		}
	}
	q.Valid = true
}

func (q *QnVector) scale(f float64) {
	for h := 1; h < len(q.qx); h++ {
		q.qx[h] *= f
		q.qy[h] *= f
	}
}
