package qncorrections

import (
	"fmt"
	"math"
)

const (
	eqM = iota
	eqM2
	eqN
	eqGroupM
	eqGroupN
)

// below this average or width a channel is left untouched
const minEqualizationValue = 1e-6

func equalizationQuantities(s *CorrectionStep) []quantity {
	scheme := s.config.Scheme()
	q := []quantity{
		{name: "M", width: scheme.NChannels()},
		{name: "M2", width: scheme.NChannels()},
		{name: "N", width: scheme.NChannels()},
	}
	if s.Params.UseGroups {
		q = append(q,
			quantity{name: "GroupM", width: scheme.NGroups()},
			quantity{name: "GroupN", width: scheme.NGroups()},
		)
	}
	return q
}

func validateEqualization(s *CorrectionStep) error {
	if s.config.Kind() != ChannelConfiguration {
		return &ErrConfiguration{Component: s.String(), Reason: "gain equalization needs a channel configuration"}
	}
	if s.Params.Equalization != AverageEqualization && s.Params.Equalization != WidthEqualization {
		return &ErrUnknownEnum{Enum: "equalization method", Value: fmt.Sprint(int(s.Params.Equalization))}
	}
	if s.Params.UseGroups && !s.config.Scheme().HasGroups() {
		return &ErrConfiguration{Component: s.String(), Reason: "group weights requested but the channel scheme has no groups"}
	}
	return nil
}

// collectEqualization accumulates the multiplicity of every channel, and of
// its group, in the event class bin.
func collectEqualization(s *CorrectionStep, acc *binAccumulator, data []DataVector, bin int) {
	scheme := s.config.Scheme()
	for _, d := range data {
		w := d.EqualizedWeight
		acc.fill(eqM, bin, d.ChannelID, w)
		acc.fill(eqM2, bin, d.ChannelID, w*w)
		acc.fill(eqN, bin, d.ChannelID, 1)
		if s.Params.UseGroups {
			if g, ok := scheme.Group(d.ChannelID); ok {
				acc.fill(eqGroupM, bin, g, w)
				acc.fill(eqGroupN, bin, g, 1)
			}
		}
	}
}

// applyEqualization rescales the channel weights once the channel has enough
// entries in the bin:
//
//	average: w / <M_c>              (times <M_g> with groups)
//	width:   shift + scale*(w - <M_c>)/sigma_c  (times <M_g> with groups)
func applyEqualization(s *CorrectionStep, cal *binAccumulator, data []DataVector, bin int) {
	scheme := s.config.Scheme()
	minEntries := float64(s.Params.MinEntries)
	for i := range data {
		d := &data[i]
		n := cal.sum(eqN, bin, d.ChannelID)
		if n < minEntries {
			continue
		}
		avg := cal.sum(eqM, bin, d.ChannelID) / n
		if avg <= minEqualizationValue {
			continue
		}
		groupFactor := 1.0
		if s.Params.UseGroups {
			g, ok := scheme.Group(d.ChannelID)
			if !ok {
				continue
			}
			gn := cal.sum(eqGroupN, bin, g)
			if gn < minEntries {
				continue
			}
			groupFactor = cal.sum(eqGroupM, bin, g) / gn
		}
		switch s.Params.Equalization {
		case AverageEqualization:
			d.EqualizedWeight = d.EqualizedWeight / avg * groupFactor
		case WidthEqualization:
			variance := cal.sum(eqM2, bin, d.ChannelID)/n - avg*avg
			if variance <= minEqualizationValue*minEqualizationValue {
				continue
			}
			width := math.Sqrt(variance)
			d.EqualizedWeight = (s.Params.Shift + s.Params.Scale*(d.EqualizedWeight-avg)/width) * groupFactor
		}
	}
}
