package qncorrections

import (
	"fmt"
	"math"
)

const (
	tw2X = iota
	tw2Y
)

const (
	twXaXb = iota
	twYaYb
	twXaYb
	twYaXb
	twXaXc
	twYaYc
	twXbXc
	twYbYc
)

const minTwistDenominator = 1e-9

func twistQuantities(s *CorrectionStep) []quantity {
	n := s.config.NHarmonics()
	var q []quantity
	switch s.Params.Method {
	case DoubleHarmonic:
		q = []quantity{{name: "X2n", width: n}, {name: "Y2n", width: n}}
	case Correlations:
		q = []quantity{
			{name: "XaXb", width: n},
			{name: "YaYb", width: n},
			{name: "XaYb", width: n},
			{name: "YaXb", width: n},
		}
		if len(s.partners) == 2 {
			q = append(q,
				quantity{name: "XaXc", width: n},
				quantity{name: "YaYc", width: n},
				quantity{name: "XbXc", width: n},
				quantity{name: "YbYc", width: n},
			)
		}
	}
	return append(q, quantity{name: "N", width: 1})
}

func validateTwist(s *CorrectionStep) error {
	if !s.Params.Twist && !s.Params.Rescale {
		return &ErrConfiguration{Component: s.String(), Reason: "neither twist nor rescale enabled"}
	}
	switch s.Params.Method {
	case DoubleHarmonic:
		if len(s.partners) != 0 {
			return &ErrConfiguration{Component: s.String(), Reason: "the double harmonic method takes no reference configuration"}
		}
		if s.config.InternalHarmonics() < 2*s.config.NHarmonics() {
			return &ErrConfiguration{Component: s.String(), Reason: "the double harmonic method needs harmonics up to twice the configured ones"}
		}
		if s.config.Normalization() != NormalizationQoverM {
			return &ErrConfiguration{Component: s.String(), Reason: "the double harmonic method needs QoverM normalization"}
		}
	case Correlations:
		if len(s.partners) < 1 || s.Params.Reference == "" {
			return &ErrConfiguration{Component: s.String(), Reason: "the correlations method needs at least reference B"}
		}
		for _, p := range s.partners {
			if p.NHarmonics() < s.config.NHarmonics() {
				return &ErrConfiguration{
					Component: s.String(),
					Reason:    fmt.Sprintf("reference %s has fewer harmonics than %s", p.Name(), s.config.Name()),
				}
			}
		}
	default:
		return &ErrUnknownEnum{Enum: "twist method", Value: fmt.Sprint(int(s.Params.Method))}
	}
	return nil
}

func collectTwist(s *CorrectionStep, acc *binAccumulator, q *QnVector) {
	bin := q.EventClassBin
	nIdx := len(s.quantities) - 1
	switch s.Params.Method {
	case DoubleHarmonic:
		// Earlier steps zero the 2n moments, so they come from the plain vector.
		plain, ok := s.config.Snapshot(PlainKey)
		if !ok || !plain.Valid {
			return
		}
		for h := 1; h <= q.NHarmonics(); h++ {
			acc.fill(tw2X, bin, h-1, plain.Qx(2*h))
			acc.fill(tw2Y, bin, h-1, plain.Qy(2*h))
		}
	case Correlations:
		b := s.partnerVector(s.partners[0])
		if !b.Valid {
			return
		}
		var c *QnVector
		if len(s.partners) == 2 {
			c = s.partnerVector(s.partners[1])
			if !c.Valid {
				return
			}
		}
		for h := 1; h <= q.NHarmonics(); h++ {
			acc.fill(twXaXb, bin, h-1, q.Qx(h)*b.Qx(h))
			acc.fill(twYaYb, bin, h-1, q.Qy(h)*b.Qy(h))
			acc.fill(twXaYb, bin, h-1, q.Qx(h)*b.Qy(h))
			acc.fill(twYaXb, bin, h-1, q.Qy(h)*b.Qx(h))
			if c != nil {
				acc.fill(twXaXc, bin, h-1, q.Qx(h)*c.Qx(h))
				acc.fill(twYaYc, bin, h-1, q.Qy(h)*c.Qy(h))
				acc.fill(twXbXc, bin, h-1, b.Qx(h)*c.Qx(h))
				acc.fill(twYbYc, bin, h-1, b.Qy(h)*c.Qy(h))
			}
		}
	}
	acc.fill(nIdx, bin, 0, 1)
}

// twistCoefficients returns the twist (lp, lm) and rescale (ap, am)
// coefficients of harmonic h, with the acceptance model
//
//	X = ap*x + lm*am*y
//	Y = am*y + lp*ap*x
func twistCoefficients(s *CorrectionStep, cal *binAccumulator, bin, h int, n float64) (lp, lm, ap, am float64, ok bool) {
	switch s.Params.Method {
	case DoubleHarmonic:
		x2 := mean(cal, tw2X, bin, h-1, n)
		y2 := mean(cal, tw2Y, bin, h-1, n)
		ap = 1 + x2
		am = 1 - x2
		if math.Abs(ap) < minTwistDenominator || math.Abs(am) < minTwistDenominator {
			return 0, 0, 0, 0, false
		}
		return y2 / ap, y2 / am, ap, am, true
	case Correlations:
		xaxb := mean(cal, twXaXb, bin, h-1, n)
		yayb := mean(cal, twYaYb, bin, h-1, n)
		xayb := mean(cal, twXaYb, bin, h-1, n)
		yaxb := mean(cal, twYaXb, bin, h-1, n)
		if math.Abs(xaxb) < minTwistDenominator || math.Abs(yayb) < minTwistDenominator {
			return 0, 0, 0, 0, false
		}
		lm = xayb / yayb
		lp = yaxb / xaxb
		if len(s.partners) == 2 {
			xaxc := mean(cal, twXaXc, bin, h-1, n)
			yayc := mean(cal, twYaYc, bin, h-1, n)
			xbxc := mean(cal, twXbXc, bin, h-1, n)
			ybyc := mean(cal, twYbYc, bin, h-1, n)
			if math.Abs(xbxc) < minTwistDenominator || math.Abs(ybyc) < minTwistDenominator {
				return 0, 0, 0, 0, false
			}
			ap = math.Sqrt(2 * xaxb * xaxc / xbxc)
			am = math.Sqrt(2 * yayb * yayc / ybyc)
		} else {
			ap = math.Sqrt(2 * xaxb)
			am = math.Sqrt(2 * yayb)
		}
		return lp, lm, ap, am, true
	}
	return 0, 0, 0, 0, false
}

func applyTwist(s *CorrectionStep, cal *binAccumulator, q *QnVector) {
	bin := q.EventClassBin
	n := entries(cal, len(s.quantities)-1, bin)
	if n < float64(s.Params.MinEntries) {
		return
	}
	for h := 1; h <= q.NHarmonics(); h++ {
		lp, lm, ap, am, ok := twistCoefficients(s, cal, bin, h, n)
		if !ok {
			continue
		}
		x, y := q.Qx(h), q.Qy(h)
		if s.Params.Twist {
			d := 1 - lm*lp
			if math.Abs(d) < minTwistDenominator {
				continue
			}
			x, y = (x-lm*y)/d, (y-lp*x)/d
		}
		if s.Params.Rescale {
			if !(ap > 0) || !(am > 0) {
				continue
			}
			x /= ap
			y /= am
		}
		q.SetQ(h, x, y)
	}
}
