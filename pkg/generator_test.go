package qncorrections

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := DefaultGeneratorConfig()
	cfg.MeanTracks = 20
	a := NewGenerator(cfg)
	b := NewGenerator(cfg)
	assert.Equal(t, a.Gains(), b.Gains())
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Next(7), b.Next(7))
	}

	cfg.Seed++
	c := NewGenerator(cfg)
	assert.NotEqual(t, a.Gains(), c.Gains())
}

func TestGeneratorEvents(t *testing.T) {
	t.Parallel()

	cfg := DefaultGeneratorConfig()
	cfg.MeanTracks = 50
	cfg.HoleEfficiency = 0
	g := NewGenerator(cfg)

	require.Len(t, g.Gains(), 64)
	for _, gain := range g.Gains() {
		assert.GreaterOrEqual(t, gain, 0.05)
	}

	for i := 0; i < 100; i++ {
		ev := g.Next(3)
		assert.Equal(t, 3, ev.Run)
		assert.Equal(t, i, ev.Event)
		vz := ev.Variables[string(VtxZ)]
		assert.True(t, vz >= -10 && vz < 10, "vertex %v", vz)
		require.Len(t, ev.Channels, 64)
		for _, ch := range ev.Channels {
			assert.GreaterOrEqual(t, ch.Weight, 0.0)
		}
		for _, tr := range ev.Tracks {
			assert.Equal(t, cfg.TrackDetector, tr.Detector)
			assert.True(t, tr.Phi >= 0 && tr.Phi < 2*math.Pi)
			assert.False(t, tr.Phi >= cfg.HoleMin && tr.Phi < cfg.HoleMax, "track %v inside a dead hole", tr.Phi)
		}
		psi := g.ReactionPlane()
		assert.True(t, psi >= 0 && psi < 2*math.Pi)
	}
}
