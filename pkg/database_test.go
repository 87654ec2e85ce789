package qncorrections

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const channelMappingSchema = `CREATE TABLE ChannelMapping (
	Detector TEXT NOT NULL,
	MinRun INTEGER NOT NULL,
	MaxRun INTEGER NOT NULL,
	ChannelID INTEGER NOT NULL,
	Phi REAL NOT NULL,
	Enabled INTEGER NOT NULL,
	ChannelGroup INTEGER NOT NULL
)`

func conditionsDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "conditions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.MustExec(channelMappingSchema)
	insert := "INSERT INTO ChannelMapping VALUES (?, ?, ?, ?, ?, ?, ?)"
	// runs 1-99: four channels, channel 2 dead
	for c, enabled := range []int{1, 1, 0, 1} {
		db.MustExec(insert, "FMD", 1, 99, c, 0.5*float64(c), enabled, c/2)
	}
	// runs 100-: channel 2 repaired, channel 5 added, channel 4 never listed
	for _, c := range []int{0, 1, 2, 3, 5} {
		db.MustExec(insert, "FMD", 100, 1000000, c, 0.25*float64(c), 1, c/2)
	}
	db.MustExec(insert, "T0", 1, 1000000, 0, 1.0, 1, 0)
	return db
}

func TestGetChannelMapFromDB(t *testing.T) {
	t.Parallel()

	db := conditionsDB(t)

	cm, err := GetChannelMapFromDB(db, "FMD", 50)
	require.NoError(t, err)
	assert.Equal(t, "FMD", cm.Detector)
	assert.Equal(t, 4, cm.NChannels())
	assert.Equal(t, []bool{true, true, false, true}, cm.Enabled)
	assert.InDelta(t, 1.5, cm.Phi[3], 1e-12)
	assert.Equal(t, []int{0, 0, 1, 1}, cm.Group)
	assert.True(t, cm.HasGroups())

	cm, err = GetChannelMapFromDB(db, "FMD", 100)
	require.NoError(t, err)
	assert.Equal(t, 6, cm.NChannels())
	assert.Equal(t, []bool{true, true, true, true, false, true}, cm.Enabled)
	assert.Equal(t, -1, cm.Group[4], "missing channels stay ungrouped")
	assert.InDelta(t, 1.25, cm.Phi[5], 1e-12)

	_, err = GetChannelMapFromDB(db, "FMD", 0)
	assert.Error(t, err, "no map valid for run 0")
	_, err = GetChannelMapFromDB(db, "ZDC", 50)
	assert.Error(t, err)
}

func TestBuiltinChannelMaps(t *testing.T) {
	t.Parallel()

	vzero := VZEROChannelMap()
	require.Equal(t, 64, vzero.NChannels())
	assert.Equal(t, 7, vzero.Group[63])
	assert.InDelta(t, vzero.Phi[3], vzero.Phi[11], 1e-12, "rings share the octant azimuths")

	uniform := UniformChannelMap("FMD", 4)
	assert.False(t, uniform.HasGroups())
	assert.InDelta(t, math.Pi/4, uniform.Phi[0], 1e-12)
}
