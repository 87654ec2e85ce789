package qncorrections

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vtxClasses(t *testing.T) *EventClassVariablesSet {
	t.Helper()
	vz, err := NewEventClassVariable(VtxZ, "vtxZ", []float64{-10, 10})
	require.NoError(t, err)
	set, err := NewEventClassVariablesSet("vz", vz)
	require.NoError(t, err)
	return set
}

func channelConfiguration(t *testing.T, name string, classes *EventClassVariablesSet, nChannels, first, last int, norm Normalization) *DetectorConfiguration {
	t.Helper()
	scheme, err := NewChannelScheme(nChannels, ChannelRange(nChannels, first, last), nil)
	require.NoError(t, err)
	return NewChannelConfiguration(name, classes, scheme, 1, norm)
}

func TestSixtyFourChannelDetectorRawQn(t *testing.T) {
	t.Parallel()

	classes := vtxClasses(t)
	det := NewDetector("VZERO", 0)
	require.NoError(t, det.AddConfiguration(channelConfiguration(t, "C", classes, 64, 0, 31, NormalizationNone)))
	require.NoError(t, det.AddConfiguration(channelConfiguration(t, "D", classes, 64, 32, 63, NormalizationNone)))

	m := NewManager(ManagerOptions{})
	require.NoError(t, m.AddDetector(det))
	require.NoError(t, m.Initialize(nil))

	cm := VZEROChannelMap()
	vars := Variables{VtxZ: 1}
	m.ClearEvent()
	for c := 0; c < 64; c++ {
		n := m.Bank().AddChannel(0, c, cm.Phi[c], 1.0, vars)
		require.Equal(t, 1, n, "channel %d", c)
		name, ok := m.Bank().AcceptedConfiguration(0)
		require.True(t, ok)
		if c < 32 {
			assert.Equal(t, "C", name)
		} else {
			assert.Equal(t, "D", name)
		}
	}
	assert.Equal(t, 32, m.Bank().Entries(0, "C"))
	require.NoError(t, m.ProcessEvent(vars))

	var wantX, wantY float64
	for c := 0; c < 32; c++ {
		wantX += math.Cos(cm.Phi[c])
		wantY += math.Sin(cm.Phi[c])
	}
	q, ok := m.QnVector("C", PlainKey)
	require.True(t, ok)
	require.True(t, q.Valid)
	assert.InDelta(t, wantX, q.Qx(1), 1e-9)
	assert.InDelta(t, wantY, q.Qy(1), 1e-9)
	assert.Equal(t, 32, q.Entries)
	assert.Equal(t, 32.0, q.SumW)
}

func TestBankFanOutAndCuts(t *testing.T) {
	t.Parallel()

	classes := vtxClasses(t)
	det := NewDetector("FMD", 3)
	all := channelConfiguration(t, "FMDall", classes, 8, 0, 7, NormalizationQoverM)
	central := channelConfiguration(t, "FMDcentral", classes, 8, 0, 7, NormalizationQoverM)
	cut, err := NewCut(VtxZ, -5, 5)
	require.NoError(t, err)
	central.SetCuts(cut)
	require.NoError(t, det.AddConfiguration(all))
	require.NoError(t, det.AddConfiguration(central))

	tracks := NewDetector("TPC", 1)
	tpc := NewTrackConfiguration("TPC", classes, 2, NormalizationQoverM)
	etaCut, err := NewCut(Eta, -0.8, 0.8)
	require.NoError(t, err)
	tpc.SetCuts(etaCut)
	require.NoError(t, tracks.AddConfiguration(tpc))

	m := NewManager(ManagerOptions{})
	require.NoError(t, m.AddDetector(det))
	require.NoError(t, m.AddDetector(tracks))
	require.NoError(t, m.Initialize(nil))

	m.ClearEvent()
	bank := m.Bank()
	assert.Equal(t, 2, bank.AddChannel(3, 1, 0.3, 2, Variables{VtxZ: 0}))
	assert.Equal(t, 1, bank.AddChannel(3, 2, 0.6, 2, Variables{VtxZ: 7}))
	assert.Equal(t, 0, bank.AddChannel(3, 9, 0.6, 2, Variables{VtxZ: 0}), "channel outside the scheme")
	assert.Equal(t, 0, bank.AddChannel(42, 1, 0.6, 2, Variables{VtxZ: 0}), "unknown detector")
	assert.Equal(t, 0, bank.AddChannel(1, 1, 0.6, 2, Variables{VtxZ: 0}), "tracks detector takes no channels")
	assert.Equal(t, 1, bank.AddTrack(1, 1.0, Variables{Eta: 0.1}))
	assert.Equal(t, 0, bank.AddTrack(1, 1.0, Variables{Eta: 1.1}))
	_, ok := bank.AcceptedConfiguration(0)
	assert.False(t, ok, "last sample was rejected")

	assert.Equal(t, 2, bank.Entries(3, "FMDall"))
	assert.Equal(t, 1, bank.Entries(3, "FMDcentral"))
	assert.Equal(t, 1, bank.Entries(1, "TPC"))

	m.ClearEvent()
	assert.Zero(t, bank.Entries(3, "FMDall"))
}

func TestEmptyConfigurationIsInvalid(t *testing.T) {
	t.Parallel()

	classes := vtxClasses(t)
	det := NewDetector("TPC", 1)
	tpc := NewTrackConfiguration("TPC", classes, 2, NormalizationQoverM)
	require.NoError(t, tpc.AddCorrectionStep(NewRecentering(true)))
	require.NoError(t, det.AddConfiguration(tpc))
	m := NewManager(ManagerOptions{FillQA: true})
	require.NoError(t, m.AddDetector(det))
	require.NoError(t, m.Initialize(nil))

	m.ClearEvent()
	require.NoError(t, m.ProcessEvent(Variables{VtxZ: 0}))
	q, ok := m.QnVector("TPC", "")
	require.True(t, ok)
	assert.False(t, q.Valid)
	for h := 1; h <= 2; h++ {
		assert.False(t, math.IsNaN(q.Qx(h)) || math.IsNaN(q.Qy(h)))
	}
	invalid, ok := m.QAHistograms().Get("QA.TPC.invalid")
	require.True(t, ok)
	assert.Equal(t, 1.0, cellValue(invalid, 0))
}
