package qncorrections

import (
	"fmt"
	"strconv"
)

const defaultQAMultiplicityMax = 1000

// ManagerOptions toggles the optional outputs and the run-by-run calibration.
type ManagerOptions struct {
	// CalibrateByLabel keeps a separate calibration per run label.
	CalibrateByLabel bool
	FillQA           bool
	FillTree         bool
	ProvideQnVectors bool
	// QAMultiplicityMax is the upper edge of the QA multiplicity histograms.
	QAMultiplicityMax float64
	// QACentrality is the descriptor variable histogrammed for QA, if any.
	QACentrality VariableID
	// EventCuts select the events that enter the corrections at all.
	EventCuts Cuts
}

// NamedQnVector is an entry of the list of latest corrected vectors.
type NamedQnVector struct {
	Detector      string
	Configuration string
	Vector        *QnVector
}

// Manager drives the events through every registered configuration and owns
// the calibration lifecycle. It is not safe for concurrent use; parallel
// passes run one Manager per shard and merge their outputs.
type Manager struct {
	options        ManagerOptions
	detectors      []*Detector
	configurations []*DetectorConfiguration
	byName         map[string]*DetectorConfiguration
	bank           *DataVectorBank
	input          *HistogramList

	label        string
	activeLabel  string
	initialized  bool
	finalized    bool
	eventCleared bool
	nStages      int
	binCache     map[*EventClassVariablesSet]int
	events       int
	rejected     int
	accepted     bool

	qa          *qaHistograms
	treeColumns []string
	treeRow     []float64
}

func NewManager(options ManagerOptions) *Manager {
	if options.QAMultiplicityMax <= 0 {
		options.QAMultiplicityMax = defaultQAMultiplicityMax
	}
	return &Manager{
		options:     options,
		byName:      make(map[string]*DetectorConfiguration),
		bank:        newDataVectorBank(),
		activeLabel: AllLabel,
		binCache:    make(map[*EventClassVariablesSet]int),
	}
}

func (m *Manager) Options() ManagerOptions { return m.options }

// AddDetector registers a detector and its configurations. Configuration
// names are unique across the manager.
func (m *Manager) AddDetector(d *Detector) error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	for _, other := range m.detectors {
		if other.ID() == d.ID() {
			return &ErrConfiguration{Component: "manager", Reason: "duplicated detector id " + strconv.Itoa(d.ID())}
		}
	}
	for _, c := range d.Configurations() {
		if _, ok := m.byName[c.Name()]; ok {
			return &ErrConfiguration{Component: "manager", Reason: "duplicated configuration name " + c.Name()}
		}
	}
	m.detectors = append(m.detectors, d)
	for _, c := range d.Configurations() {
		m.byName[c.Name()] = c
		m.configurations = append(m.configurations, c)
	}
	m.bank.register(d)
	return nil
}

func (m *Manager) Detector(id int) (*Detector, bool) {
	for _, d := range m.detectors {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

func (m *Manager) Detectors() []*Detector { return m.detectors }

// Configurations returns every configuration in registration order.
func (m *Manager) Configurations() []*DetectorConfiguration { return m.configurations }

func (m *Manager) FindConfiguration(name string) (*DetectorConfiguration, bool) {
	c, ok := m.byName[name]
	return c, ok
}

func (m *Manager) Bank() *DataVectorBank { return m.bank }

// Initialize validates the setup, checks and attaches the supplied calibration
// and moves every step out of Uninitialized. A nil calibration starts every
// step collecting.
func (m *Manager) Initialize(calibration *HistogramList) error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	if len(m.configurations) == 0 {
		return &ErrConfiguration{Component: "manager", Reason: "no detector configuration registered"}
	}
	for _, c := range m.configurations {
		if err := c.validate(); err != nil {
			return err
		}
		c.prepare()
	}
	for _, c := range m.configurations {
		for _, s := range c.CorrectionSteps() {
			if err := s.initialize(m.byName, calibration, m.activeLabel); err != nil {
				return err
			}
			if err := m.checkPartnerStep(s); err != nil {
				return err
			}
		}
		if c.nStages() > m.nStages {
			m.nStages = c.nStages()
		}
	}
	m.input = calibration
	if m.options.FillQA {
		m.qa = newQAHistograms(m.configurations, m.options.QAMultiplicityMax, m.options.QACentrality)
	}
	if m.options.FillTree {
		m.treeColumns = m.buildTreeColumns()
		m.treeRow = make([]float64, len(m.treeColumns))
	}
	m.initialized = true
	if verbosity > 0 {
		message := fmt.Sprintf("Initialized %d configurations in %d detectors, %d calibration histograms supplied",
			len(m.configurations), len(m.detectors), calibration.Len())
		logger.Info(message, "manager")
	}
	return nil
}

// checkPartnerStep makes sure a partner snapshot requested by a correlation
// step is complete when the step runs.
func (m *Manager) checkPartnerStep(s *CorrectionStep) error {
	key := s.Params.PartnerStep
	if key == "" || key == PlainKey {
		return nil
	}
	for _, p := range s.partners {
		ps, ok := p.FindStep(key)
		if !ok || ps.Kind.IsInputData() {
			return &ErrConfiguration{Component: s.String(), Reason: fmt.Sprintf("partner %s has no Qn step %q", p.Name(), key)}
		}
		if ps.stage >= s.stage {
			return &ErrConfiguration{
				Component: s.String(),
				Reason:    fmt.Sprintf("partner step %s/%s does not run before this step", p.Name(), key),
			}
		}
	}
	return nil
}

// SetCurrentProcessListName selects the run label of the coming events. With
// run-by-run calibration the steps switch to that label's bundle, creating it
// on first use; previously accumulated labels are kept.
func (m *Manager) SetCurrentProcessListName(label string) error {
	m.label = label
	if !m.options.CalibrateByLabel || label == m.activeLabel {
		return nil
	}
	m.activeLabel = label
	if !m.initialized {
		return nil
	}
	for _, c := range m.configurations {
		for _, s := range c.CorrectionSteps() {
			if err := s.activate(label, m.input); err != nil {
				return err
			}
		}
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Switched calibration to run label %s", label), "manager")
	}
	return nil
}

func (m *Manager) CurrentLabel() string { return m.label }

// ClearEvent resets the bank. It must be called once before filling each event.
func (m *Manager) ClearEvent() {
	m.bank.Clear()
	for k := range m.binCache {
		delete(m.binCache, k)
	}
	m.eventCleared = true
}

// ProcessEvent classifies the event, forms every Qn-vector and runs the Qn
// steps stage by stage over all configurations in registration order.
func (m *Manager) ProcessEvent(vars Variables) error {
	switch {
	case !m.initialized:
		return ErrNotInitialized
	case m.finalized:
		return ErrFinalized
	case !m.eventCleared:
		return ErrEventNotCleared
	}
	m.eventCleared = false

	m.accepted = m.options.EventCuts.Accept(vars)
	if !m.accepted {
		for _, c := range m.configurations {
			c.discard()
		}
		m.rejected++
		return nil
	}
	for _, c := range m.configurations {
		bin, ok := m.binCache[c.eventClasses]
		if !ok {
			bin = c.eventClasses.Classify(vars)
			m.binCache[c.eventClasses] = bin
		}
		c.formQnVector(bin)
	}
	for stage := 0; stage < m.nStages; stage++ {
		for _, c := range m.configurations {
			c.snapshotStageInput()
		}
		for _, c := range m.configurations {
			c.applyStage(stage)
		}
	}

	if m.qa != nil {
		m.qa.fill(vars)
	}
	if m.options.FillTree {
		m.fillTreeRow()
	}
	m.events++
	return nil
}

// Finalize returns the statistics accumulated by every step, named so that
// they can be fed back to Initialize.
func (m *Manager) Finalize() (*HistogramList, error) {
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if m.finalized {
		return nil, ErrFinalized
	}
	list := NewHistogramList()
	for _, c := range m.configurations {
		for _, s := range c.CorrectionSteps() {
			s.exportTo(list)
			s.state = StepFinalized
		}
	}
	m.finalized = true
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Finalized after %d events, %d calibration histograms", m.events, list.Len()), "manager")
	}
	return list, nil
}

// Events returns the number of events that passed the event cuts.
func (m *Manager) Events() int { return m.events }

// RejectedEvents returns the number of events dropped by the event cuts.
func (m *Manager) RejectedEvents() int { return m.rejected }

// EventAccepted reports whether the last processed event passed the event
// cuts. Rejected events leave every vector invalid and feed no calibration.
func (m *Manager) EventAccepted() bool { return m.accepted }

// QAHistograms returns the QA list, nil when QA is disabled.
func (m *Manager) QAHistograms() *HistogramList {
	if m.qa == nil {
		return nil
	}
	return m.qa.list
}

// QnVectors returns the latest corrected vector of every configuration.
func (m *Manager) QnVectors() []NamedQnVector {
	if !m.options.ProvideQnVectors || !m.initialized {
		return nil
	}
	vectors := make([]NamedQnVector, 0, len(m.configurations))
	for _, c := range m.configurations {
		vectors = append(vectors, NamedQnVector{
			Detector:      c.Detector().Name(),
			Configuration: c.Name(),
			Vector:        c.QnVector(),
		})
	}
	return vectors
}

// QnVector returns the vector of a configuration after the step key, or the
// final one when key is empty.
func (m *Manager) QnVector(configuration, key string) (*QnVector, bool) {
	c, ok := m.byName[configuration]
	if !ok || !m.initialized {
		return nil, false
	}
	if key == "" {
		return c.QnVector(), true
	}
	return c.Snapshot(key)
}

// StepState reports the state of a step for the active run label.
func (m *Manager) StepState(configuration, key string) (StepState, error) {
	c, ok := m.byName[configuration]
	if !ok {
		return StepUninitialized, &ErrConfiguration{Component: "manager", Reason: "unknown configuration " + configuration}
	}
	s, ok := c.FindStep(key)
	if !ok {
		return StepUninitialized, &ErrConfiguration{Component: configuration, Reason: "unknown step " + key}
	}
	return s.State(), nil
}

func (m *Manager) buildTreeColumns() []string {
	var columns []string
	for _, c := range m.configurations {
		columns = append(columns, c.Name()+".valid")
		for h := 1; h <= c.NHarmonics(); h++ {
			columns = append(columns,
				fmt.Sprintf("%s.Qx%d", c.Name(), h),
				fmt.Sprintf("%s.Qy%d", c.Name(), h))
		}
	}
	return columns
}

func (m *Manager) fillTreeRow() {
	i := 0
	for _, c := range m.configurations {
		q := c.QnVector()
		m.treeRow[i] = 0
		if q.Valid {
			m.treeRow[i] = 1
		}
		i++
		for h := 1; h <= c.NHarmonics(); h++ {
			m.treeRow[i] = q.Qx(h)
			m.treeRow[i+1] = q.Qy(h)
			i += 2
		}
	}
}

// TreeColumns names the values of TreeRow.
func (m *Manager) TreeColumns() []string { return m.treeColumns }

// TreeRow holds the corrected components of the last event, nil when the
// tree output is disabled.
func (m *Manager) TreeRow() []float64 { return m.treeRow }
