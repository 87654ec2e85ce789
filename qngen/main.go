package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	qn "github.com/next-exp/qncorrections_go/pkg"
)

// flowFlag parses a comma separated list of flow coefficients.
type flowFlag []float64

func (f *flowFlag) String() string {
	parts := make([]string, len(*f))
	for i, v := range *f {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f *flowFlag) Set(value string) error {
	*f = (*f)[:0]
	for _, s := range strings.Split(value, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid flow coefficient %q: %w", s, err)
		}
		*f = append(*f, v)
	}
	return nil
}

func main() {
	log.SetPrefix("qngen: ")
	log.SetFlags(0)

	cfg := qn.DefaultGeneratorConfig()
	flow := flowFlag(cfg.Flow)

	out := flag.String("o", "events.jsonl", "output file")
	nEvents := flag.Int("n", 1000, "number of events per run")
	runs := flag.Int("runs", 1, "number of runs")
	firstRun := flag.Int("run", 1000, "first run number")
	seed := flag.Uint64("seed", cfg.Seed, "random seed")
	flag.Var(&flow, "flow", "comma separated v1,v2,... coefficients")
	gainSpread := flag.Float64("gain-spread", cfg.GainSpread, "relative spread of the channel gains")
	tracks := flag.Float64("tracks", cfg.MeanTracks, "mean number of tracks per event")
	holeEff := flag.Float64("hole-efficiency", cfg.HoleEfficiency, "track efficiency inside the acceptance hole")
	flag.Parse()

	cfg.Seed = *seed
	cfg.Flow = flow
	cfg.GainSpread = *gainSpread
	cfg.MeanTracks = *tracks
	cfg.HoleEfficiency = *holeEff

	if err := generate(*out, cfg, *firstRun, *runs, *nEvents); err != nil {
		log.Fatalf("%+v", err)
	}
}

func generate(filename string, cfg qn.GeneratorConfig, firstRun, runs, nEvents int) error {
	f, err := os.Create(filename)
	if err != nil {
		return &qn.ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	gen := qn.NewGenerator(cfg)
	w := qn.NewEventWriter(f)
	for r := 0; r < runs; r++ {
		for i := 0; i < nEvents; i++ {
			if err := w.Write(gen.Next(firstRun + r)); err != nil {
				return fmt.Errorf("could not write event: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("could not flush %s: %w", filename, err)
	}
	log.Printf("wrote %d events to %s", runs*nEvents, filename)
	return f.Close()
}
