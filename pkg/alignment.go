package qncorrections

import (
	"fmt"
	"math"
)

const (
	alXaXb = iota
	alYaYb
	alXaYb
	alYaXb
	alN
)

func alignmentQuantities(s *CorrectionStep) []quantity {
	return []quantity{
		{name: "XaXb", width: 1},
		{name: "YaYb", width: 1},
		{name: "XaYb", width: 1},
		{name: "YaXb", width: 1},
		{name: "N", width: 1},
	}
}

func validateAlignment(s *CorrectionStep) error {
	if len(s.partners) != 1 || s.Params.ReferenceC != "" {
		return &ErrConfiguration{Component: s.String(), Reason: "alignment needs exactly one reference configuration"}
	}
	k := s.Params.Harmonic
	if k < 1 || k > s.config.NHarmonics() || k > s.partners[0].NHarmonics() {
		return &ErrConfiguration{Component: s.String(), Reason: fmt.Sprintf("alignment harmonic %d not available in both configurations", k)}
	}
	return nil
}

func collectAlignment(s *CorrectionStep, acc *binAccumulator, q *QnVector) {
	ref := s.partnerVector(s.partners[0])
	if !ref.Valid {
		return
	}
	k := s.Params.Harmonic
	bin := q.EventClassBin
	acc.fill(alXaXb, bin, 0, q.Qx(k)*ref.Qx(k))
	acc.fill(alYaYb, bin, 0, q.Qy(k)*ref.Qy(k))
	acc.fill(alXaYb, bin, 0, q.Qx(k)*ref.Qy(k))
	acc.fill(alYaXb, bin, 0, q.Qy(k)*ref.Qx(k))
	acc.fill(alN, bin, 0, 1)
}

// applyAlignment rotates every harmonic h by h*dpsi, where dpsi is the mean
// angle between the reference and this configuration at the alignment harmonic.
func applyAlignment(s *CorrectionStep, cal *binAccumulator, q *QnVector) {
	bin := q.EventClassBin
	n := entries(cal, alN, bin)
	if n < float64(s.Params.MinEntries) {
		return
	}
	dpsi := alignmentAngle(cal, bin, s.Params.Harmonic)
	for h := 1; h <= q.InternalHarmonics(); h++ {
		sin, cos := math.Sincos(float64(h) * dpsi)
		x, y := q.Qx(h), q.Qy(h)
		q.SetQ(h, x*cos-y*sin, x*sin+y*cos)
	}
}

func alignmentAngle(cal *binAccumulator, bin int, harmonic int) float64 {
	xaxb := cal.sum(alXaXb, bin, 0)
	yayb := cal.sum(alYaYb, bin, 0)
	xayb := cal.sum(alXaYb, bin, 0)
	yaxb := cal.sum(alYaXb, bin, 0)
	return math.Atan2(xayb-yaxb, xaxb+yayb) / float64(harmonic)
}
