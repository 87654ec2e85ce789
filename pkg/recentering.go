package qncorrections

import "math"

const (
	recQx = iota
	recQy
	recQx2
	recQy2
	recN
)

func recenteringQuantities(s *CorrectionStep) []quantity {
	n := s.config.InternalHarmonics()
	return []quantity{
		{name: "Qx", width: n},
		{name: "Qy", width: n},
		{name: "Qx2", width: n},
		{name: "Qy2", width: n},
		{name: "N", width: 1},
	}
}

func validateRecentering(s *CorrectionStep) error {
	if len(s.partners) != 0 {
		return &ErrConfiguration{Component: s.String(), Reason: "recentering takes no reference configuration"}
	}
	return nil
}

func collectRecentering(s *CorrectionStep, acc *binAccumulator, q *QnVector) {
	bin := q.EventClassBin
	for h := 1; h <= q.InternalHarmonics(); h++ {
		x, y := q.Qx(h), q.Qy(h)
		acc.fill(recQx, bin, h-1, x)
		acc.fill(recQy, bin, h-1, y)
		acc.fill(recQx2, bin, h-1, x*x)
		acc.fill(recQy2, bin, h-1, y*y)
	}
	acc.fill(recN, bin, 0, 1)
}

// applyRecentering subtracts the bin mean, and with width equalization also
// divides by the bin standard deviation of each component.
func applyRecentering(s *CorrectionStep, cal *binAccumulator, q *QnVector) {
	bin := q.EventClassBin
	n := entries(cal, recN, bin)
	if n < float64(s.Params.MinEntries) {
		return
	}
	for h := 1; h <= q.InternalHarmonics(); h++ {
		mx := mean(cal, recQx, bin, h-1, n)
		my := mean(cal, recQy, bin, h-1, n)
		x := q.Qx(h) - mx
		y := q.Qy(h) - my
		if s.Params.WidthEqualization {
			sx := math.Sqrt(mean(cal, recQx2, bin, h-1, n) - mx*mx)
			sy := math.Sqrt(mean(cal, recQy2, bin, h-1, n) - my*my)
			if sx > 0 && sy > 0 {
				x /= sx
				y /= sy
			}
		}
		q.SetQ(h, x, y)
	}
}
