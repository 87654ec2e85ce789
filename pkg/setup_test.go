package qncorrections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepKeys(c *DetectorConfiguration) []string {
	var keys []string
	for _, s := range c.CorrectionSteps() {
		keys = append(keys, s.Key())
	}
	return keys
}

func TestPresetsBuildAndInitialize(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"vzero", "vzero-tpc"} {
		t.Run(name, func(t *testing.T) {
			setup, err := PresetSetup(name)
			require.NoError(t, err)
			require.NoError(t, ValidateStruct(setup))

			m, err := BuildManager(setup, DefaultChannelMaps())
			require.NoError(t, err)
			require.NoError(t, m.Initialize(nil))
			assert.True(t, m.Options().FillQA)
			assert.Len(t, m.Options().EventCuts, 2)
			assert.NotNil(t, m.QAHistograms())

			v0a, ok := m.FindConfiguration("VZEROA")
			require.True(t, ok)
			assert.Equal(t, 32, v0a.Scheme().NEnabled())
			assert.True(t, v0a.Scheme().Enabled(32))
			assert.False(t, v0a.Scheme().Enabled(31))
			assert.Equal(t, 8, v0a.Scheme().NGroups())
			assert.Equal(t, 4, v0a.NHarmonics())
			assert.Equal(t, 10*100, v0a.EventClasses().TotalBins())

			v0c, ok := m.FindConfiguration("VZEROC")
			require.True(t, ok)
			assert.Same(t, v0a.EventClasses(), v0c.EventClasses(), "configurations share one event class set")
		})
	}

	m, err := BuildManager(VZEROTPCSetup(), DefaultChannelMaps())
	require.NoError(t, err)
	v0a, _ := m.FindConfiguration("VZEROA")
	assert.Equal(t, []string{"eq", "rec", "align", "twist"}, stepKeys(v0a))
	tpc, ok := m.FindConfiguration("TPC")
	require.True(t, ok)
	assert.Equal(t, TrackConfiguration, tpc.Kind())
	assert.Len(t, tpc.Cuts(), 6)

	_, err = PresetSetup("zdc")
	assert.Error(t, err)
}

func TestBuildManagerFromFile(t *testing.T) {
	t.Parallel()

	setup, err := LoadSetup(writeFile(t, "setup.json", fmdSetup))
	require.NoError(t, err)
	m, err := BuildManager(setup, nil)
	require.NoError(t, err)
	assert.True(t, m.Options().CalibrateByLabel)
	assert.Equal(t, Cuts{{Variable: VtxZ, Min: -8, Max: 8}}, m.Options().EventCuts)

	fmd, ok := m.FindConfiguration("FMD")
	require.True(t, ok)
	assert.Equal(t, []string{"eq", "rec1"}, stepKeys(fmd))
	assert.Equal(t, 4, fmd.Scheme().NGroups())
	assert.Equal(t, 16, fmd.Scheme().NEnabled())
	rec, _ := fmd.FindStep("rec1")
	assert.Equal(t, 10, rec.Params.MinEntries)
	assert.False(t, rec.Params.ApplyOnline)
	eq, _ := fmd.FindStep("eq")
	assert.True(t, eq.Params.ApplyOnline, "apply_online defaults to true")
	assert.True(t, eq.Params.UseGroups)
	assert.Equal(t, 1, fmd.EventClasses().Classify(Variables{VtxZ: 5}))

	require.NoError(t, m.Initialize(nil))
}

func TestBuildManagerUsesChannelMap(t *testing.T) {
	t.Parallel()

	cm := UniformChannelMap("FMD", 8)
	cm.Enabled[2] = false
	for c := range cm.Group {
		cm.Group[c] = c % 2
	}
	setup := SetupConfig{
		EventClasses: defaultEventClasses(),
		Detectors: []DetectorSetup{{
			Name: "FMD",
			ID:   3,
			Configurations: []ConfigurationSetup{
				{Name: "FMDall", Harmonics: 2, EventClasses: "vtxz_centrality", UseChannelMap: true},
				{Name: "FMDlow", Harmonics: 2, EventClasses: "vtxz_centrality", UseChannelMap: true, Channels: []int{0, 1, 2, 3}},
				{Name: "FMDraw", Harmonics: 2, EventClasses: "vtxz_centrality", NChannels: 8},
			},
		}},
	}
	require.NoError(t, ValidateStruct(setup))

	m, err := BuildManager(setup, map[int]*ChannelMap{3: cm})
	require.NoError(t, err)

	all, _ := m.FindConfiguration("FMDall")
	assert.Equal(t, 8, all.Scheme().NChannels())
	assert.Equal(t, 7, all.Scheme().NEnabled())
	assert.Equal(t, 2, all.Scheme().NGroups(), "groups come from the channel map")

	low, _ := m.FindConfiguration("FMDlow")
	assert.Equal(t, 3, low.Scheme().NEnabled())
	assert.False(t, low.Scheme().Enabled(2))
	assert.False(t, low.Scheme().Enabled(5))

	raw, _ := m.FindConfiguration("FMDraw")
	assert.Equal(t, 8, raw.Scheme().NEnabled(), "the map status only applies on request")
	assert.False(t, raw.Scheme().HasGroups())

	_, err = BuildManager(setup, nil)
	assert.Error(t, err, "use_channel_map without a map")
}

func TestBuildManagerErrors(t *testing.T) {
	t.Parallel()

	setup := SetupConfig{
		EventClasses: defaultEventClasses(),
		Detectors: []DetectorSetup{{
			Name:           "TPC",
			ID:             1,
			Configurations: []ConfigurationSetup{{Name: "TPC", Type: TrackConfiguration, Harmonics: 2, EventClasses: "centrality"}},
		}},
	}
	_, err := BuildManager(setup, nil)
	var confErr *ErrConfiguration
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "unknown event classes")

	setup.Detectors[0].Configurations[0].EventClasses = "vtxz_centrality"
	setup.Detectors[0].Configurations[0].Steps = []StepSetup{{Kind: Recentering}, {Kind: Recentering}}
	_, err = BuildManager(setup, nil)
	assert.Error(t, err, "duplicated step key")

	setup.Detectors[0].Configurations[0].Steps = []StepSetup{{Kind: GainEqualization}}
	_, err = BuildManager(setup, nil)
	assert.Error(t, err, "gain equalization on tracks")

	setup.Detectors[0].Configurations[0].Steps = nil
	setup.Detectors[0].Configurations[0].Type = ChannelConfiguration
	setup.Detectors[0].Configurations[0].Channels = []int{12}
	setup.Detectors[0].Configurations[0].NChannels = 8
	_, err = BuildManager(setup, nil)
	assert.Error(t, err, "channel out of range")

	setup.Detectors[0].Configurations[0].Channels = nil
	setup.EventCuts = []CutSetup{{Variable: string(VtxZ), Min: 5, Max: -5}}
	_, err = BuildManager(setup, nil)
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "greater than max")
}
