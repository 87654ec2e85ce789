package qncorrections

import (
	"fmt"
	"sort"
)

// Detector identifiers used by the presets and the toy generator.
const (
	VZEROID = 0
	TPCID   = 1
)

// BuildManager creates a Manager from a validated setup. channelMaps, keyed by
// detector id, supply the channel count, status and groups of configurations
// that ask for them.
func BuildManager(setup SetupConfig, channelMaps map[int]*ChannelMap) (*Manager, error) {
	eventCuts, err := buildCuts(setup.EventCuts)
	if err != nil {
		return nil, fmt.Errorf("event cuts: %w", err)
	}
	m := NewManager(ManagerOptions{
		CalibrateByLabel:  setup.CalibrateByRun,
		FillQA:            setup.FillQA,
		FillTree:          setup.FillTree,
		ProvideQnVectors:  setup.ProvideQnVectors,
		QAMultiplicityMax: setup.QAMultiplicityMax,
		QACentrality:      VariableID(setup.QACentrality),
		EventCuts:         eventCuts,
	})

	sets := make(map[string]*EventClassVariablesSet, len(setup.EventClasses))
	names := make([]string, 0, len(setup.EventClasses))
	for name := range setup.EventClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set, err := buildEventClasses(name, setup.EventClasses[name])
		if err != nil {
			return nil, err
		}
		sets[name] = set
	}

	for _, ds := range setup.Detectors {
		det := NewDetector(ds.Name, ds.ID)
		for _, cs := range ds.Configurations {
			classes, ok := sets[cs.EventClasses]
			if !ok {
				return nil, &ErrConfiguration{Component: cs.Name, Reason: fmt.Sprintf("unknown event classes %q", cs.EventClasses)}
			}
			conf, err := buildConfiguration(cs, classes, channelMaps[ds.ID])
			if err != nil {
				return nil, err
			}
			if err := det.AddConfiguration(conf); err != nil {
				return nil, err
			}
		}
		if err := m.AddDetector(det); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildEventClasses(name string, cfg EventClassSetConfig) (*EventClassVariablesSet, error) {
	vars := make([]EventClassVariable, 0, len(cfg.Variables))
	for _, v := range cfg.Variables {
		label := v.Label
		if label == "" {
			label = v.Variable
		}
		var (
			ecv EventClassVariable
			err error
		)
		if len(v.Edges) > 0 {
			ecv, err = NewEventClassVariable(VariableID(v.Variable), label, v.Edges)
		} else {
			ecv, err = NewEventClassVariableFromPairs(VariableID(v.Variable), label, v.Bins)
		}
		if err != nil {
			return nil, fmt.Errorf("event classes %s: %w", name, err)
		}
		vars = append(vars, ecv)
	}
	return NewEventClassVariablesSet(name, vars...)
}

func buildConfiguration(cs ConfigurationSetup, classes *EventClassVariablesSet, cm *ChannelMap) (*DetectorConfiguration, error) {
	var conf *DetectorConfiguration
	switch cs.Type {
	case TrackConfiguration:
		conf = NewTrackConfiguration(cs.Name, classes, cs.Harmonics, cs.Normalization)
	default:
		scheme, err := buildChannelScheme(cs, cm)
		if err != nil {
			return nil, fmt.Errorf("configuration %s: %w", cs.Name, err)
		}
		conf = NewChannelConfiguration(cs.Name, classes, scheme, cs.Harmonics, cs.Normalization)
	}

	cuts, err := buildCuts(cs.Cuts)
	if err != nil {
		return nil, err
	}
	conf.SetCuts(cuts...)

	for _, ss := range cs.Steps {
		if err := conf.AddCorrectionStep(buildStep(ss)); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

func buildCuts(setups []CutSetup) (Cuts, error) {
	cuts := make(Cuts, 0, len(setups))
	for _, c := range setups {
		cut, err := NewCut(VariableID(c.Variable), c.Min, c.Max)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, cut)
	}
	return cuts, nil
}

func buildChannelScheme(cs ConfigurationSetup, cm *ChannelMap) (*ChannelScheme, error) {
	if cs.UseChannelMap && cm == nil {
		return nil, &ErrConfiguration{Component: cs.Name, Reason: "no channel map available"}
	}
	nChannels := cs.NChannels
	if nChannels == 0 && cm != nil {
		nChannels = cm.NChannels()
	}

	var enabled []bool
	if len(cs.Channels) > 0 {
		enabled = make([]bool, nChannels)
		for _, c := range cs.Channels {
			if c >= nChannels {
				return nil, &ErrConfiguration{Component: cs.Name, Reason: fmt.Sprintf("channel %d out of %d", c, nChannels)}
			}
			enabled[c] = true
		}
	}
	if cs.UseChannelMap {
		if enabled == nil {
			enabled = make([]bool, nChannels)
			for c := range enabled {
				enabled[c] = true
			}
		}
		for c := range enabled {
			enabled[c] = enabled[c] && c < cm.NChannels() && cm.Enabled[c]
		}
	}

	var groups []int
	switch {
	case len(cs.Groups) > 0:
		groups = cs.Groups
	case cs.GroupSize > 0:
		groups = make([]int, nChannels)
		for c := range groups {
			groups[c] = c / cs.GroupSize
		}
	case cs.UseChannelMap && cm.HasGroups() && cm.NChannels() == nChannels:
		groups = cm.Group
	}
	return NewChannelScheme(nChannels, enabled, groups)
}

func buildStep(ss StepSetup) *CorrectionStep {
	params := StepParams{
		Key:               ss.Key,
		MinEntries:        ss.MinEntries,
		ApplyOnline:       boolOr(ss.ApplyOnline, true),
		Equalization:      ss.Equalization,
		Shift:             ss.Shift,
		Scale:             ss.Scale,
		UseGroups:         ss.UseGroups,
		WidthEqualization: ss.WidthEqualization,
		Reference:         ss.Reference,
		ReferenceC:        ss.ReferenceC,
		PartnerStep:       ss.PartnerStep,
		Harmonic:          ss.Harmonic,
		Method:            ss.Method,
		Twist:             boolOr(ss.Twist, true),
		Rescale:           boolOr(ss.Rescale, true),
	}
	return NewCorrectionStep(ss.Kind, params)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func channelList(first, last int) []int {
	channels := make([]int, 0, last-first+1)
	for c := first; c <= last; c++ {
		channels = append(channels, c)
	}
	return channels
}

func defaultEventClasses() map[string]EventClassSetConfig {
	return map[string]EventClassSetConfig{
		"vtxz_centrality": {Variables: []EventClassVariableConfig{
			{Variable: string(VtxZ), Label: "Vertex Z", Bins: [][2]float64{{-10, 4}, {-7, 1}, {7, 8}, {10, 1}}},
			{Variable: string(CentralityV), Label: "Centrality (V0M)", Bins: [][2]float64{{0, 2}, {100, 100}}},
		}},
	}
}

// VZEROSetup is the VZERO A and C setup: 4 harmonics normalized by the
// multiplicity, group weighted average gain equalization and recentering.
func VZEROSetup() SetupConfig {
	vzeroConf := func(name string, first, last int) ConfigurationSetup {
		return ConfigurationSetup{
			Name:          name,
			Type:          ChannelConfiguration,
			Harmonics:     4,
			Normalization: NormalizationQoverM,
			EventClasses:  "vtxz_centrality",
			NChannels:     64,
			Channels:      channelList(first, last),
			GroupSize:     8,
			Steps: []StepSetup{
				{Kind: GainEqualization, Equalization: AverageEqualization, Shift: 1.0, Scale: 0.1, UseGroups: true},
				{Kind: Recentering},
			},
		}
	}
	return SetupConfig{
		FillQA:            true,
		QAMultiplicityMax: 500,
		QACentrality:      string(CentralityV),
		EventCuts: []CutSetup{
			{Variable: string(VtxZ), Min: -10, Max: 10},
			{Variable: string(CentralityV), Min: 0, Max: 100},
		},
		EventClasses: defaultEventClasses(),
		Detectors: []DetectorSetup{{
			Name: "VZERO",
			ID:   VZEROID,
			Configurations: []ConfigurationSetup{
				vzeroConf("VZEROA", 32, 63),
				vzeroConf("VZEROC", 0, 31),
			},
		}},
	}
}

// TPCSetup is the track configuration of the TPC with the standard track
// quality cuts and recentering.
func TPCSetup() DetectorSetup {
	return DetectorSetup{
		Name: "TPC",
		ID:   TPCID,
		Configurations: []ConfigurationSetup{{
			Name:          "TPC",
			Type:          TrackConfiguration,
			Harmonics:     4,
			Normalization: NormalizationQoverM,
			EventClasses:  "vtxz_centrality",
			Cuts: []CutSetup{
				{Variable: string(DcaXY), Min: -0.3, Max: 0.3},
				{Variable: string(DcaZ), Min: -0.3, Max: 0.3},
				{Variable: string(Eta), Min: -0.8, Max: 0.8},
				{Variable: string(Pt), Min: 0.2, Max: 5},
				{Variable: string(TPCnCls), Min: 70, Max: 161},
				{Variable: string(TPCchi2), Min: 0.2, Max: 4},
			},
			Steps: []StepSetup{{Kind: Recentering}},
		}},
	}
}

// VZEROTPCSetup combines the VZERO and TPC setups and aligns both VZERO
// configurations to the TPC in the second harmonic before a three
// sub-detector twist and rescale.
func VZEROTPCSetup() SetupConfig {
	setup := VZEROSetup()
	setup.Detectors = append(setup.Detectors, TPCSetup())
	confs := setup.Detectors[0].Configurations
	other := map[string]string{"VZEROA": "VZEROC", "VZEROC": "VZEROA"}
	for i := range confs {
		confs[i].Steps = append(confs[i].Steps,
			StepSetup{Kind: Alignment, Reference: "TPC", Harmonic: 2},
			StepSetup{Kind: TwistAndRescale, Method: Correlations, Reference: "TPC", ReferenceC: other[confs[i].Name]},
		)
	}
	return setup
}

// PresetSetup returns the named preset.
func PresetSetup(name string) (SetupConfig, error) {
	switch name {
	case "vzero":
		return VZEROSetup(), nil
	case "vzero-tpc":
		return VZEROTPCSetup(), nil
	}
	return SetupConfig{}, &ErrConfiguration{Component: "setup", Reason: fmt.Sprintf("unknown preset %q", name)}
}

// DefaultChannelMaps are the channel maps used when the conditions database
// is not queried.
func DefaultChannelMaps() map[int]*ChannelMap {
	return map[int]*ChannelMap{VZEROID: VZEROChannelMap()}
}
