package qncorrections

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// AllLabel names the calibration bundle used when the manager does not
// calibrate run by run, and the merged bundle written next to per-run ones.
const AllLabel = "all"

const defaultMinEntries = 2

// StepParams carries the parameters of every step kind. Each kind reads the
// fields that concern it.
type StepParams struct {
	// Key names the step in calibration files and snapshots. Defaults to the
	// kind's short name.
	Key string
	// MinEntries is the number of entries an event class bin needs before the
	// step applies a correction.
	MinEntries int
	// ApplyOnline lets the step apply corrections from the statistics being
	// collected when no calibration was loaded.
	ApplyOnline bool

	Equalization EqualizationMethod
	Shift        float64
	Scale        float64
	UseGroups    bool

	WidthEqualization bool

	// Reference and ReferenceC name the partner configurations of alignment
	// and correlation based twist steps.
	Reference  string
	ReferenceC string
	// PartnerStep selects the partner snapshot read by correlation steps.
	// Empty reads the partner as it stood after the previous stage.
	PartnerStep string
	Harmonic    int

	Method  TwistMethod
	Twist   bool
	Rescale bool
}

// CorrectionStep is one stage of a configuration pipeline. The Kind selects
// the handler; the calibration statistics are kept per run label.
type CorrectionStep struct {
	Kind   StepKind
	Params StepParams

	config     *DetectorConfiguration
	stage      int
	partners   []*DetectorConfiguration
	quantities []quantity
	bundles    map[string]*stepBundle
	active     *stepBundle
	state      StepState
}

type stepBundle struct {
	label  string
	output *binAccumulator
	input  *binAccumulator
}

// stepHandler is the behavior of one step kind.
type stepHandler struct {
	quantities  func(s *CorrectionStep) []quantity
	validate    func(s *CorrectionStep) error
	collectData func(s *CorrectionStep, acc *binAccumulator, data []DataVector, bin int)
	applyData   func(s *CorrectionStep, cal *binAccumulator, data []DataVector, bin int)
	collectQn   func(s *CorrectionStep, acc *binAccumulator, q *QnVector)
	applyQn     func(s *CorrectionStep, cal *binAccumulator, q *QnVector)
}

var stepHandlers map[StepKind]stepHandler

func init() {
	stepHandlers = map[StepKind]stepHandler{
		GainEqualization: {
			quantities:  equalizationQuantities,
			validate:    validateEqualization,
			collectData: collectEqualization,
			applyData:   applyEqualization,
		},
		Recentering: {
			quantities: recenteringQuantities,
			validate:   validateRecentering,
			collectQn:  collectRecentering,
			applyQn:    applyRecentering,
		},
		Alignment: {
			quantities: alignmentQuantities,
			validate:   validateAlignment,
			collectQn:  collectAlignment,
			applyQn:    applyAlignment,
		},
		TwistAndRescale: {
			quantities: twistQuantities,
			validate:   validateTwist,
			collectQn:  collectTwist,
			applyQn:    applyTwist,
		},
	}
}

func NewCorrectionStep(kind StepKind, params StepParams) *CorrectionStep {
	if params.Key == "" {
		params.Key = kind.DefaultKey()
	}
	if params.MinEntries <= 0 {
		params.MinEntries = defaultMinEntries
	}
	return &CorrectionStep{Kind: kind, Params: params, state: StepUninitialized}
}

func NewGainEqualization(method EqualizationMethod, shift, scale float64, useGroups bool) *CorrectionStep {
	return NewCorrectionStep(GainEqualization, StepParams{
		Equalization: method,
		Shift:        shift,
		Scale:        scale,
		UseGroups:    useGroups,
		ApplyOnline:  true,
	})
}

func NewRecentering(widthEqualization bool) *CorrectionStep {
	return NewCorrectionStep(Recentering, StepParams{
		WidthEqualization: widthEqualization,
		ApplyOnline:       true,
	})
}

func NewAlignment(reference string, harmonic int) *CorrectionStep {
	return NewCorrectionStep(Alignment, StepParams{
		Reference:   reference,
		Harmonic:    harmonic,
		ApplyOnline: true,
	})
}

// NewTwistAndRescale builds a twist and rescale step. The correlation method
// needs referenceB, and referenceC for the three sub-detector variant.
func NewTwistAndRescale(method TwistMethod, referenceB, referenceC string) *CorrectionStep {
	return NewCorrectionStep(TwistAndRescale, StepParams{
		Method:      method,
		Reference:   referenceB,
		ReferenceC:  referenceC,
		Twist:       true,
		Rescale:     true,
		ApplyOnline: true,
	})
}

func (s *CorrectionStep) Key() string { return s.Params.Key }

func (s *CorrectionStep) Configuration() *DetectorConfiguration { return s.config }

// State reports the lifecycle state for the active run label.
func (s *CorrectionStep) State() StepState {
	if s.state != StepCollecting {
		return s.state
	}
	if s.active != nil && s.active.input != nil {
		return StepApplying
	}
	return StepCollecting
}

func (s *CorrectionStep) String() string {
	name := "<unattached>"
	if s.config != nil {
		name = s.config.Name()
	}
	return fmt.Sprintf("%s/%s(%v)", name, s.Params.Key, s.Kind)
}

func (s *CorrectionStep) prefix(label string) string {
	return label + "." + s.config.Name() + "." + s.Params.Key + "."
}

func (s *CorrectionStep) handler() stepHandler {
	return stepHandlers[s.Kind]
}

// initialize resolves partners, checks parameters and validates every bundle
// of the supplied calibration before activating label.
func (s *CorrectionStep) initialize(partners map[string]*DetectorConfiguration, input *HistogramList, label string) error {
	h, ok := stepHandlers[s.Kind]
	if !ok {
		return &ErrConfiguration{Component: s.String(), Reason: "unsupported step kind"}
	}
	s.partners = s.partners[:0]
	for _, ref := range []string{s.Params.Reference, s.Params.ReferenceC} {
		if ref == "" {
			continue
		}
		p, ok := partners[ref]
		if !ok {
			return &ErrConfiguration{Component: s.String(), Reason: "unknown reference configuration " + ref}
		}
		if p == s.config {
			return &ErrConfiguration{Component: s.String(), Reason: "a configuration cannot reference itself"}
		}
		s.partners = append(s.partners, p)
	}
	if err := h.validate(s); err != nil {
		return err
	}
	s.quantities = h.quantities(s)
	nBins := s.config.EventClasses().TotalBins()
	for _, l := range input.Labels() {
		if _, err := loadBinAccumulator(input, s.prefix(l), nBins, s.quantities); err != nil {
			return fmt.Errorf("%v: %w", s, err)
		}
	}
	s.bundles = make(map[string]*stepBundle)
	s.state = StepCollecting
	return s.activate(label, input)
}

// activate makes label the active bundle. Bundles are created on first use
// from a copy of the supplied calibration, falling back to the merged one.
func (s *CorrectionStep) activate(label string, input *HistogramList) error {
	if b, ok := s.bundles[label]; ok {
		s.active = b
		return nil
	}
	nBins := s.config.EventClasses().TotalBins()
	b := &stepBundle{
		label:  label,
		output: newBinAccumulator(s.prefix(label), nBins, s.quantities),
	}
	in, err := loadBinAccumulator(input, s.prefix(label), nBins, s.quantities)
	if err != nil {
		return err
	}
	if in == nil && label != AllLabel {
		in, err = loadBinAccumulator(input, s.prefix(AllLabel), nBins, s.quantities)
		if err != nil {
			return err
		}
	}
	b.input = in
	if verbosity > 1 {
		mode := "collecting"
		if in != nil {
			mode = "applying loaded calibration"
		}
		logger.Info(fmt.Sprintf("%v: run label %q %s", s, label, mode), "steps")
	}
	s.bundles[label] = b
	s.active = b
	return nil
}

// calibration returns the statistics corrections are computed from, or nil
// when the step has to pass data through.
func (s *CorrectionStep) calibration() *binAccumulator {
	if s.active == nil {
		return nil
	}
	if s.active.input != nil {
		return s.active.input
	}
	if s.Params.ApplyOnline {
		return s.active.output
	}
	return nil
}

func (s *CorrectionStep) processData(data []DataVector, bin int) {
	if s.active == nil || bin == OutOfRange || len(data) == 0 {
		return
	}
	h := s.handler()
	h.collectData(s, s.active.output, data, bin)
	if cal := s.calibration(); cal != nil {
		h.applyData(s, cal, data, bin)
	}
}

func (s *CorrectionStep) processQn(q *QnVector) {
	if s.active == nil || !q.Valid || q.EventClassBin == OutOfRange {
		return
	}
	h := s.handler()
	h.collectQn(s, s.active.output, q)
	if cal := s.calibration(); cal != nil {
		h.applyQn(s, cal, q)
	}
}

// partnerVector returns the partner vector seen by this step.
func (s *CorrectionStep) partnerVector(p *DetectorConfiguration) *QnVector {
	if s.Params.PartnerStep != "" {
		if v, ok := p.Snapshot(s.Params.PartnerStep); ok {
			return v
		}
	}
	return p.stageInput
}

func (s *CorrectionStep) labels() []string {
	labels := maps.Keys(s.bundles)
	sort.Strings(labels)
	return labels
}

// exportTo writes the statistics of every run label bundle, plus their sum
// under AllLabel.
func (s *CorrectionStep) exportTo(list *HistogramList) {
	labels := s.labels()
	nBins := s.config.EventClasses().TotalBins()
	all := newBinAccumulator(s.prefix(AllLabel), nBins, s.quantities)
	for _, l := range labels {
		out := s.bundles[l].output
		if l != AllLabel {
			out.exportTo(list, s.prefix(l))
		}
		all.add(out)
	}
	all.exportTo(list, s.prefix(AllLabel))
}

// entries returns the number of entries recorded in bin.
func entries(acc *binAccumulator, quantity, bin int) float64 {
	return acc.sum(quantity, bin, 0)
}

func mean(acc *binAccumulator, quantity, bin, sub int, n float64) float64 {
	return acc.sum(quantity, bin, sub) / n
}
