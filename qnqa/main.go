package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	qn "github.com/next-exp/qncorrections_go/pkg"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	log.SetPrefix("qnqa: ")
	log.SetFlags(0)

	fname := flag.String("f", "QA.root", "QA histogram file")
	config := flag.String("c", "", "detector configuration")
	harmonic := flag.Int("h", 2, "harmonic")
	out := flag.String("o", "", "output plot, defaults to <configuration>_h<harmonic>.png")
	multOut := flag.String("m", "", "multiplicity plot, defaults to <configuration>_multiplicity.png")
	flag.Parse()

	if *config == "" {
		log.Fatalf("missing configuration name (-c)")
	}
	if *out == "" {
		*out = fmt.Sprintf("%s_h%d.png", *config, *harmonic)
	}
	if *multOut == "" {
		*multOut = fmt.Sprintf("%s_multiplicity.png", *config)
	}

	qa, err := qn.ReadHistogramFile(*fname)
	if err != nil {
		log.Fatalf("could not read QA histograms: %+v", err)
	}
	if err := plotMeans(qa, *config, *harmonic, *out); err != nil {
		log.Fatalf("%+v", err)
	}
	if err := plotMultiplicity(qa, *config, *multOut); err != nil {
		log.Fatalf("%+v", err)
	}
}

// stepKeys lists the snapshots recorded for configuration, plain first.
func stepKeys(qa *qn.HistogramList, configuration string) []string {
	prefix := "QA." + configuration + "."
	var keys []string
	for _, name := range qa.Names() {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".N") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".N"))
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i] == qn.PlainKey && keys[j] != qn.PlainKey })
	return keys
}

// plotMeans draws <Qx> and <Qy> per event class bin for every snapshot and
// prints the spread of the means.
func plotMeans(qa *qn.HistogramList, configuration string, harmonic int, out string) error {
	keys := stepKeys(qa, configuration)
	if len(keys) == 0 {
		return fmt.Errorf("no QA histograms for %s", configuration)
	}
	nBins := 0
	if h, ok := qa.Get("QA." + configuration + "." + keys[0] + ".N"); ok {
		nBins = h.Len()
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s mean Q%d per event class", configuration, harmonic)
	p.X.Label.Text = "event class bin"
	p.Y.Label.Text = "mean component"

	var lines []interface{}
	for _, key := range keys {
		xs := make(plotter.XYs, 0, nBins)
		ys := make(plotter.XYs, 0, nBins)
		var mx, my, weights []float64
		for bin := 0; bin < nBins; bin++ {
			qx, qy, n, err := qn.MeanQn(qa, configuration, key, bin, harmonic)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			xs = append(xs, plotter.XY{X: float64(bin), Y: qx})
			ys = append(ys, plotter.XY{X: float64(bin), Y: qy})
			mx = append(mx, qx)
			my = append(my, qy)
			weights = append(weights, n)
		}
		if len(mx) == 0 {
			continue
		}
		lines = append(lines, key+" Qx", xs, key+" Qy", ys)
		fmt.Printf("%-8s <Qx> = %+.5f (rms %.5f)  <Qy> = %+.5f (rms %.5f)  bins %d  events %.0f\n",
			key,
			stat.Mean(mx, weights), stat.StdDev(mx, weights),
			stat.Mean(my, weights), stat.StdDev(my, weights),
			len(mx), floats.Sum(weights))
	}
	if len(lines) == 0 {
		return fmt.Errorf("no filled event class for %s", configuration)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return fmt.Errorf("could not add lines: %w", err)
	}
	if err := p.Save(20*vg.Centimeter, 12*vg.Centimeter, out); err != nil {
		return fmt.Errorf("could not save %s: %w", out, err)
	}
	log.Printf("saved %s", out)
	return nil
}

// plotMultiplicity draws the multiplicity distribution of configuration.
func plotMultiplicity(qa *qn.HistogramList, configuration string, out string) error {
	hist, ok := qa.Get("QA." + configuration + ".multiplicity")
	if !ok {
		return fmt.Errorf("no multiplicity histogram for %s", configuration)
	}

	p := plot.New()
	p.Title.Text = configuration + " multiplicity"
	p.X.Label.Text = "multiplicity"
	p.Y.Label.Text = "events"

	h := hplot.NewH1D(hist)
	h.FillColor = nil
	h.Infos.Style = hplot.HInfoSummary
	p.Add(h)

	if err := p.Save(20*vg.Centimeter, 12*vg.Centimeter, out); err != nil {
		return fmt.Errorf("could not save %s: %w", out, err)
	}
	log.Printf("saved %s", out)
	return nil
}
