package qncorrections

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// GeneratorConfig describes a toy event stream with anisotropic flow, channel
// gain spread and a track acceptance hole.
type GeneratorConfig struct {
	Seed uint64
	// Flow holds v1, v2, ... relative to a random reaction plane.
	Flow []float64

	ChannelDetector        int
	MultiplicityPerChannel float64
	// GainSpread is the relative sigma of the channel gains.
	GainSpread float64

	TrackDetector  int
	MeanTracks     float64
	HoleMin        float64
	HoleMax        float64
	HoleEfficiency float64
	// EtaRange generates tracks beyond the usual |eta| < 0.8 selection.
	EtaRange float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:                   1,
		Flow:                   []float64{0, 0.08, 0.03},
		ChannelDetector:        0,
		MultiplicityPerChannel: 20,
		GainSpread:             0.2,
		TrackDetector:          1,
		MeanTracks:             300,
		HoleMin:                1.0,
		HoleMax:                1.6,
		HoleEfficiency:         0.3,
		EtaRange:               1.0,
	}
}

type Generator struct {
	cfg        GeneratorConfig
	rng        *rand.Rand
	src        rand.Source
	channelMap *ChannelMap
	gains      []float64
	event      int
	psi        float64
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	g := &Generator{
		cfg:        cfg,
		rng:        rand.New(src),
		src:        src,
		channelMap: VZEROChannelMap(),
	}
	gain := distuv.Normal{Mu: 1, Sigma: cfg.GainSpread, Src: src}
	g.gains = make([]float64, g.channelMap.NChannels())
	for c := range g.gains {
		g.gains[c] = math.Max(0.05, gain.Rand())
	}
	return g
}

// ChannelMap is the map used for the generated channel signals.
func (g *Generator) ChannelMap() *ChannelMap { return g.channelMap }

// Gains returns the generated channel gains.
func (g *Generator) Gains() []float64 { return g.gains }

// ReactionPlane is the true symmetry plane of the last event.
func (g *Generator) ReactionPlane() float64 { return g.psi }

func (g *Generator) flowDensity(phi float64) float64 {
	d := 1.0
	for i, v := range g.cfg.Flow {
		n := float64(i + 1)
		d += 2 * v * math.Cos(n*(phi-g.psi))
	}
	return d
}

func (g *Generator) maxDensity() float64 {
	d := 1.0
	for _, v := range g.cfg.Flow {
		d += 2 * math.Abs(v)
	}
	return d
}

// Next generates one event of run.
func (g *Generator) Next(run int) *EventRecord {
	g.psi = 2 * math.Pi * g.rng.Float64()
	ev := &EventRecord{
		Run:   run,
		Event: g.event,
		Variables: map[string]float64{
			string(VtxZ):        distuv.Uniform{Min: -10, Max: 10, Src: g.src}.Rand(),
			string(VtxX):        distuv.Normal{Mu: 0, Sigma: 0.01, Src: g.src}.Rand(),
			string(VtxY):        distuv.Normal{Mu: 0, Sigma: 0.01, Src: g.src}.Rand(),
			string(CentralityV): distuv.Uniform{Min: 0, Max: 100, Src: g.src}.Rand(),
		},
	}
	g.event++

	if g.cfg.MultiplicityPerChannel > 0 {
		for c := 0; c < g.channelMap.NChannels(); c++ {
			lambda := g.cfg.MultiplicityPerChannel * g.flowDensity(g.channelMap.Phi[c])
			if lambda <= 0 {
				continue
			}
			n := distuv.Poisson{Lambda: lambda, Src: g.src}.Rand()
			ev.Channels = append(ev.Channels, ChannelSignal{
				Detector: g.cfg.ChannelDetector,
				Channel:  c,
				Weight:   n * g.gains[c],
			})
		}
	}

	if g.cfg.MeanTracks > 0 {
		nTracks := int(distuv.Poisson{Lambda: g.cfg.MeanTracks, Src: g.src}.Rand())
		dmax := g.maxDensity()
		for i := 0; i < nTracks; i++ {
			phi := g.samplePhi(dmax)
			if phi >= g.cfg.HoleMin && phi < g.cfg.HoleMax && g.rng.Float64() > g.cfg.HoleEfficiency {
				continue
			}
			ev.Tracks = append(ev.Tracks, TrackRecord{
				Detector: g.cfg.TrackDetector,
				Phi:      phi,
				Variables: map[string]float64{
					string(Pt):      distuv.Uniform{Min: 0.1, Max: 5, Src: g.src}.Rand(),
					string(Eta):     distuv.Uniform{Min: -g.cfg.EtaRange, Max: g.cfg.EtaRange, Src: g.src}.Rand(),
					string(DcaXY):   distuv.Normal{Mu: 0, Sigma: 0.1, Src: g.src}.Rand(),
					string(DcaZ):    distuv.Normal{Mu: 0, Sigma: 0.1, Src: g.src}.Rand(),
					string(TPCnCls): float64(70 + g.rng.IntN(90)),
					string(TPCchi2): distuv.Uniform{Min: 0.5, Max: 3, Src: g.src}.Rand(),
				},
			})
		}
	}
	return ev
}

// samplePhi draws an azimuth in [0, 2pi) from the flow modulated density.
func (g *Generator) samplePhi(dmax float64) float64 {
	for {
		phi := 2 * math.Pi * g.rng.Float64()
		if g.rng.Float64()*dmax <= g.flowDensity(phi) {
			return phi
		}
	}
}
