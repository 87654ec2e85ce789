package qncorrections

import (
	"fmt"
	"math"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

// ChannelMap holds the per channel azimuth, status and group of a detector
// for a run range.
type ChannelMap struct {
	Detector string
	Phi      []float64
	Enabled  []bool
	Group    []int
}

func (cm *ChannelMap) NChannels() int { return len(cm.Phi) }

// HasGroups reports whether any channel is assigned to a group.
func (cm *ChannelMap) HasGroups() bool {
	for _, g := range cm.Group {
		if g >= 0 {
			return true
		}
	}
	return false
}

type ChannelMappingEntry struct {
	ChannelID int     `db:"ChannelID"`
	Phi       float64 `db:"Phi"`
	Enabled   bool    `db:"Enabled"`
	Group     int     `db:"ChannelGroup"`
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// GetChannelMapFromDB reads the channel map of a detector valid for runNumber.
// Channels missing from the table are disabled.
func GetChannelMapFromDB(db *sqlx.DB, detector string, runNumber int) (*ChannelMap, error) {
	query := "SELECT ChannelID, Phi, Enabled, ChannelGroup FROM ChannelMapping " +
		"WHERE Detector = ? AND MinRun <= ? AND MaxRun >= ? ORDER BY ChannelID"

	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading %s channel map for run %d from database", detector, runNumber), "database")
	}
	if verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	rows, err := db.Queryx(query, detector, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var entries []ChannelMappingEntry
	nChannels := 0
	for rows.Next() {
		result := ChannelMappingEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		if result.ChannelID < 0 {
			return nil, fmt.Errorf("negative channel id %d for %s", result.ChannelID, detector)
		}
		if result.ChannelID+1 > nChannels {
			nChannels = result.ChannelID + 1
		}
		entries = append(entries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating DB rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no channel map for %s in run %d", detector, runNumber)
	}

	cm := newChannelMap(detector, nChannels)
	for _, e := range entries {
		cm.Phi[e.ChannelID] = e.Phi
		cm.Enabled[e.ChannelID] = e.Enabled
		cm.Group[e.ChannelID] = e.Group
	}
	return cm, nil
}

func newChannelMap(detector string, nChannels int) *ChannelMap {
	cm := &ChannelMap{
		Detector: detector,
		Phi:      make([]float64, nChannels),
		Enabled:  make([]bool, nChannels),
		Group:    make([]int, nChannels),
	}
	for c := range cm.Group {
		cm.Group[c] = -1
	}
	return cm
}

// VZERO octant directions
var (
	vzeroX = [8]float64{0.92388, 0.38268, -0.38268, -0.92388, -0.92388, -0.38268, 0.38268, 0.92388}
	vzeroY = [8]float64{0.38268, 0.92388, 0.92388, 0.38268, -0.38268, -0.92388, -0.92388, -0.38268}
)

// VZEROChannelMap is the 64 channel map of the VZERO scintillator rings:
// eight sectors per ring, one group per ring.
func VZEROChannelMap() *ChannelMap {
	cm := newChannelMap("VZERO", 64)
	for c := 0; c < 64; c++ {
		cm.Phi[c] = math.Atan2(vzeroY[c%8], vzeroX[c%8])
		cm.Enabled[c] = true
		cm.Group[c] = c / 8
	}
	return cm
}

// UniformChannelMap places nChannels at equal azimuthal intervals, all
// enabled and without groups.
func UniformChannelMap(detector string, nChannels int) *ChannelMap {
	cm := newChannelMap(detector, nChannels)
	for c := 0; c < nChannels; c++ {
		cm.Phi[c] = 2 * math.Pi * (float64(c) + 0.5) / float64(nChannels)
		cm.Enabled[c] = true
	}
	return cm
}
