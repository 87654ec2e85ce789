package qncorrections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuts(t *testing.T) {
	t.Parallel()

	eta, err := NewCut(Eta, -0.8, 0.8)
	require.NoError(t, err)
	pt, err := NewCut(Pt, 0.2, 5)
	require.NoError(t, err)
	cuts := Cuts{eta, pt}

	assert.True(t, cuts.Accept(Variables{Eta: 0.8, Pt: 0.2}), "limits are inclusive")
	assert.False(t, cuts.Accept(Variables{Eta: 0.9, Pt: 1}))
	assert.False(t, cuts.Accept(Variables{Eta: 0}), "missing variable")
	assert.True(t, Cuts(nil).Accept(nil))

	_, err = NewCut(Pt, 5, 0.2)
	assert.Error(t, err)
}
