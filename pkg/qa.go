package qncorrections

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
)

const (
	qaQx = iota
	qaQy
	qaN
)

const qaMultiplicityBins = 100

// qaHistograms follows the corrected vectors of every configuration after
// each step, the rate of invalid vectors and the multiplicity distribution.
type qaHistograms struct {
	list       *HistogramList
	configs    []*configQA
	centrality *hbook.H1D
	centVar    VariableID
}

type configQA struct {
	config       *DetectorConfiguration
	valid        *hbook.H1D
	invalid      *hbook.H1D
	multiplicity *hbook.H1D
	keys         []string
	steps        []*binAccumulator
}

func newQAHistograms(configs []*DetectorConfiguration, multiplicityMax float64, centrality VariableID) *qaHistograms {
	qa := &qaHistograms{list: NewHistogramList(), centVar: centrality}
	if centrality != "" {
		qa.centrality = hbook.NewH1D(qaMultiplicityBins, 0, 100)
		qa.list.Add("QA."+string(centrality), qa.centrality)
	}
	for _, c := range configs {
		nBins := c.EventClasses().TotalBins()
		prefix := "QA." + c.Name() + "."
		cqa := &configQA{
			config:       c,
			valid:        newCellHistogram(prefix+"valid", nBins),
			invalid:      newCellHistogram(prefix+"invalid", 1),
			multiplicity: hbook.NewH1D(qaMultiplicityBins, 0, multiplicityMax),
		}
		qa.list.Add(prefix+"valid", cqa.valid)
		qa.list.Add(prefix+"invalid", cqa.invalid)
		qa.list.Add(prefix+"multiplicity", cqa.multiplicity)
		keys := []string{PlainKey}
		for _, s := range c.qnSteps {
			keys = append(keys, s.Params.Key)
		}
		for _, key := range keys {
			acc := newBinAccumulator(prefix+key+".", nBins, []quantity{
				{name: "Qx", width: c.NHarmonics()},
				{name: "Qy", width: c.NHarmonics()},
				{name: "N", width: 1},
			})
			for i, q := range acc.quantities {
				qa.list.Add(prefix+key+"."+q.name, acc.hists[i])
			}
			cqa.keys = append(cqa.keys, key)
			cqa.steps = append(cqa.steps, acc)
		}
		qa.configs = append(qa.configs, cqa)
	}
	return qa
}

func (qa *qaHistograms) fill(vars Variables) {
	if qa.centrality != nil {
		if cent, ok := vars.Get(qa.centVar); ok {
			qa.centrality.Fill(cent, 1)
		}
	}
	for _, cqa := range qa.configs {
		c := cqa.config
		q := c.QnVector()
		cqa.multiplicity.Fill(c.Multiplicity(), 1)
		if !q.Valid {
			cqa.invalid.Fill(0.5, 1)
			continue
		}
		bin := q.EventClassBin
		cqa.valid.Fill(float64(bin)+0.5, 1)
		for i, key := range cqa.keys {
			v, ok := c.Snapshot(key)
			if !ok {
				continue
			}
			acc := cqa.steps[i]
			for h := 1; h <= c.NHarmonics(); h++ {
				acc.fill(qaQx, bin, h-1, v.Qx(h))
				acc.fill(qaQy, bin, h-1, v.Qy(h))
			}
			acc.fill(qaN, bin, 0, 1)
		}
	}
}

// MeanQn returns the mean corrected components recorded by the QA histograms
// of configuration after the step key, for an event class bin and harmonic.
func MeanQn(qa *HistogramList, configuration, key string, bin, harmonic int) (qx, qy float64, n float64, err error) {
	prefix := "QA." + configuration + "." + key + "."
	hx, okx := qa.Get(prefix + "Qx")
	hy, oky := qa.Get(prefix + "Qy")
	hn, okn := qa.Get(prefix + "N")
	if !okx || !oky || !okn {
		return 0, 0, 0, fmt.Errorf("no QA histograms for %s after %s", configuration, key)
	}
	nBins := hn.Len()
	if bin < 0 || bin >= nBins {
		return 0, 0, 0, fmt.Errorf("bin %d out of range for %s", bin, configuration)
	}
	width := hx.Len() / nBins
	if harmonic < 1 || harmonic > width {
		return 0, 0, 0, fmt.Errorf("harmonic %d not recorded for %s", harmonic, configuration)
	}
	n = cellValue(hn, bin)
	if n == 0 {
		return 0, 0, 0, nil
	}
	cell := bin*width + harmonic - 1
	return cellValue(hx, cell) / n, cellValue(hy, cell) / n, n, nil
}
