package qncorrections

import (
	"fmt"
	"math"
)

// PlainKey names the snapshot taken right after normalization.
const PlainKey = "plain"

// DataVector is one raw contribution: a channel signal or a track.
type DataVector struct {
	ChannelID       int
	Phi             float64
	Weight          float64
	EqualizedWeight float64
}

// DetectorConfiguration turns the data vectors of one (sub)detector into a
// corrected Qn-vector: input-data steps, Qn sums, normalization and Qn steps.
type DetectorConfiguration struct {
	name              string
	kind              ConfigurationKind
	detector          *Detector
	eventClasses      *EventClassVariablesSet
	scheme            *ChannelScheme
	nHarmonics        int
	internalHarmonics int
	normalization     Normalization
	cuts              Cuts
	inputSteps        []*CorrectionStep
	qnSteps           []*CorrectionStep

	data         []DataVector
	qn           *QnVector
	stageInput   *QnVector
	snapshots    map[string]*QnVector
	multiplicity float64
	prepared     bool
}

func NewChannelConfiguration(name string, classes *EventClassVariablesSet, scheme *ChannelScheme, nHarmonics int, norm Normalization) *DetectorConfiguration {
	return &DetectorConfiguration{
		name:          name,
		kind:          ChannelConfiguration,
		eventClasses:  classes,
		scheme:        scheme,
		nHarmonics:    nHarmonics,
		normalization: norm,
	}
}

func NewTrackConfiguration(name string, classes *EventClassVariablesSet, nHarmonics int, norm Normalization) *DetectorConfiguration {
	return &DetectorConfiguration{
		name:          name,
		kind:          TrackConfiguration,
		eventClasses:  classes,
		nHarmonics:    nHarmonics,
		normalization: norm,
	}
}

func (c *DetectorConfiguration) Name() string                          { return c.name }
func (c *DetectorConfiguration) Kind() ConfigurationKind               { return c.kind }
func (c *DetectorConfiguration) Detector() *Detector                   { return c.detector }
func (c *DetectorConfiguration) EventClasses() *EventClassVariablesSet { return c.eventClasses }
func (c *DetectorConfiguration) Scheme() *ChannelScheme                { return c.scheme }
func (c *DetectorConfiguration) NHarmonics() int                       { return c.nHarmonics }
func (c *DetectorConfiguration) Normalization() Normalization          { return c.normalization }
func (c *DetectorConfiguration) Cuts() Cuts                            { return c.cuts }
func (c *DetectorConfiguration) DataVectors() []DataVector             { return c.data }

// Multiplicity is the sum of raw weights of the current event.
func (c *DetectorConfiguration) Multiplicity() float64 { return c.multiplicity }

// InternalHarmonics is the number of harmonics carried through the pipeline,
// twice the configured ones when a double harmonic twist is present.
func (c *DetectorConfiguration) InternalHarmonics() int {
	if c.internalHarmonics < c.nHarmonics {
		return c.nHarmonics
	}
	return c.internalHarmonics
}

func (c *DetectorConfiguration) SetCuts(cuts ...Cut) {
	c.cuts = append(Cuts(nil), cuts...)
}

// AddCorrectionStep appends a step to the input-data or Qn list according to
// its kind. Keys must be unique within the configuration.
func (c *DetectorConfiguration) AddCorrectionStep(step *CorrectionStep) error {
	if c.prepared {
		return ErrAlreadyInitialized
	}
	if step.Params.Key == PlainKey {
		return &ErrConfiguration{Component: c.name, Reason: "step key " + PlainKey + " is reserved"}
	}
	for _, s := range c.CorrectionSteps() {
		if s.Params.Key == step.Params.Key {
			return &ErrConfiguration{Component: c.name, Reason: "duplicated step key " + step.Params.Key}
		}
	}
	if step.Kind.IsInputData() {
		if c.kind != ChannelConfiguration {
			return &ErrConfiguration{Component: c.name, Reason: fmt.Sprintf("%v applies to channel configurations only", step.Kind)}
		}
		step.stage = len(c.inputSteps)
		c.inputSteps = append(c.inputSteps, step)
	} else {
		step.stage = len(c.qnSteps)
		c.qnSteps = append(c.qnSteps, step)
	}
	if step.Kind == TwistAndRescale && step.Params.Method == DoubleHarmonic {
		c.internalHarmonics = 2 * c.nHarmonics
	}
	step.config = c
	return nil
}

// CorrectionSteps returns the input-data steps followed by the Qn steps.
func (c *DetectorConfiguration) CorrectionSteps() []*CorrectionStep {
	steps := make([]*CorrectionStep, 0, len(c.inputSteps)+len(c.qnSteps))
	steps = append(steps, c.inputSteps...)
	return append(steps, c.qnSteps...)
}

// FindStep looks a step up by key.
func (c *DetectorConfiguration) FindStep(key string) (*CorrectionStep, bool) {
	for _, s := range c.CorrectionSteps() {
		if s.Params.Key == key {
			return s, true
		}
	}
	return nil, false
}

func (c *DetectorConfiguration) validate() error {
	if c.eventClasses == nil {
		return &ErrConfiguration{Component: c.name, Reason: "no event class variables"}
	}
	if c.nHarmonics < 1 {
		return &ErrConfiguration{Component: c.name, Reason: "at least one harmonic is required"}
	}
	if c.normalization < NormalizationNone || c.normalization > NormalizationQoverQlength {
		return &ErrUnknownEnum{Enum: "normalization", Value: fmt.Sprint(int(c.normalization))}
	}
	if c.kind == ChannelConfiguration && c.scheme == nil {
		return &ErrConfiguration{Component: c.name, Reason: "channel configuration without channel scheme"}
	}
	return nil
}

// prepare allocates the per-event vectors once the step list is final.
func (c *DetectorConfiguration) prepare() {
	n := c.InternalHarmonics()
	c.qn = NewQnVector(c.nHarmonics, n)
	c.stageInput = NewQnVector(c.nHarmonics, n)
	c.snapshots = map[string]*QnVector{PlainKey: NewQnVector(c.nHarmonics, n)}
	for _, s := range c.qnSteps {
		c.snapshots[s.Params.Key] = NewQnVector(c.nHarmonics, n)
	}
	if c.kind == ChannelConfiguration {
		c.data = make([]DataVector, 0, c.scheme.NChannels())
	}
	c.prepared = true
}

// accept reports whether a sample passes the channel scheme and the cuts.
func (c *DetectorConfiguration) accept(channel int, vars Variables) bool {
	if c.kind == ChannelConfiguration && !c.scheme.Enabled(channel) {
		return false
	}
	return c.cuts.Accept(vars)
}

func (c *DetectorConfiguration) addDataVector(channel int, phi, weight float64) {
	c.data = append(c.data, DataVector{ChannelID: channel, Phi: phi, Weight: weight, EqualizedWeight: weight})
}

func (c *DetectorConfiguration) clear() {
	c.data = c.data[:0]
	c.multiplicity = 0
	if c.qn != nil {
		c.qn.Reset()
	}
}

// discard invalidates the vector and its snapshots for a rejected event.
func (c *DetectorConfiguration) discard() {
	c.qn.Reset()
	for _, v := range c.snapshots {
		v.Reset()
	}
}

// formQnVector runs the input-data steps, builds the raw sums and normalizes.
func (c *DetectorConfiguration) formQnVector(bin int) {
	q := c.qn
	q.Reset()
	q.EventClassBin = bin
	c.multiplicity = 0
	for _, s := range c.inputSteps {
		s.processData(c.data, bin)
	}
	for _, d := range c.data {
		w := d.EqualizedWeight
		if c.kind == TrackConfiguration {
			w = 1
		}
		c.multiplicity += d.Weight
		for h := 1; h <= q.InternalHarmonics(); h++ {
			sin, cos := math.Sincos(float64(h) * d.Phi)
			q.Add(h, w*cos, w*sin)
		}
		q.SumW += w
		q.Entries++
	}
	q.Normalize(c.normalization)
	if bin == OutOfRange {
		q.Valid = false
	}
	c.snapshots[PlainKey].CopyFrom(q)
}

// snapshotStageInput freezes the vector before a stage, for partners to read.
func (c *DetectorConfiguration) snapshotStageInput() {
	c.stageInput.CopyFrom(c.qn)
}

// applyStage runs the Qn step at position stage, if any.
func (c *DetectorConfiguration) applyStage(stage int) {
	if stage >= len(c.qnSteps) {
		return
	}
	s := c.qnSteps[stage]
	s.processQn(c.qn)
	c.snapshots[s.Params.Key].CopyFrom(c.qn)
}

func (c *DetectorConfiguration) nStages() int { return len(c.qnSteps) }

// ProcessEvent forms and corrects the vector of this configuration alone.
// The Manager interleaves stages across configurations instead, so that
// correlation steps see their partners at a well defined stage.
func (c *DetectorConfiguration) ProcessEvent(bin int) *QnVector {
	c.formQnVector(bin)
	for stage := 0; stage < c.nStages(); stage++ {
		c.snapshotStageInput()
		c.applyStage(stage)
	}
	return c.qn
}

// QnVector returns the latest corrected vector.
func (c *DetectorConfiguration) QnVector() *QnVector { return c.qn }

// Snapshot returns the vector as it stood after the step with the given key,
// or after normalization for PlainKey.
func (c *DetectorConfiguration) Snapshot(key string) (*QnVector, bool) {
	v, ok := c.snapshots[key]
	return v, ok
}
