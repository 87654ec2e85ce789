package qncorrections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoadConfigurationDefaults(t *testing.T) {
	filename := writeFile(t, "config.json", `{"files_in": ["events.jsonl"], "preset": "vzero"}`)

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"events.jsonl"}, config.FilesIn)
	assert.Equal(t, 1000000000, config.MaxEvents)
	assert.Equal(t, 1, config.NumWorkers)
	assert.Equal(t, 4, config.CompressionLevel)
	assert.Equal(t, defaultWeightThreshold, config.WeightThreshold)
	assert.Equal(t, "CalibrationHistograms.root", config.CalibrationOut)
	assert.True(t, config.NoDB)
	assert.Equal(t, "localhost", config.Host)
}

func TestLoadConfigurationEnvironmentOverrides(t *testing.T) {
	t.Setenv("QN_DB_HOST", "conditions.example.org")
	t.Setenv("QN_CALIBRATION_IN", "pass1.root")
	t.Setenv("QN_VERBOSITY", "2")
	filename := writeFile(t, "config.json",
		`{"files_in": ["a.jsonl"], "preset": "vzero-tpc", "host": "db1", "calibration_in": "old.root", "no_db": false}`)

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)
	assert.Equal(t, "conditions.example.org", config.Host)
	assert.Equal(t, "pass1.root", config.CalibrationIn)
	assert.Equal(t, 2, config.Verbosity)
	assert.False(t, config.NoDB)
}

func TestLoadConfigurationErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)

	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"no input", `{"preset": "vzero"}`, "files_in failed on required"},
		{"bad preset", `{"files_in": ["a"], "preset": "zdc"}`, "preset failed on oneof"},
		{"compression", `{"files_in": ["a"], "preset": "vzero", "compression_level": 12}`, "compression_level failed on lte"},
		{"workers", `{"files_in": ["a"], "preset": "vzero", "num_workers": 0}`, "num_workers failed on gte"},
		{"no setup", `{"files_in": ["a"]}`, "setup_file or preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeFile(t, "config.json", tt.content))
			var confErr *ErrConfiguration
			require.ErrorAs(t, err, &confErr)
			assert.Contains(t, confErr.Reason, tt.reason)
		})
	}

	_, err = LoadConfiguration(writeFile(t, "config.json", `{"files_in": `))
	assert.Error(t, err)
}

const fmdSetup = `{
	"fill_qa": true,
	"calibrate_by_run": true,
	"event_cuts": [{"variable": "VtxZ", "min": -8, "max": 8}],
	"event_classes": {
		"vtx": {"variables": [{"variable": "VtxZ", "edges": [-10, 0, 10]}]}
	},
	"detectors": [{
		"name": "FMD",
		"id": 3,
		"configurations": [{
			"name": "FMD",
			"type": "channels",
			"harmonics": 2,
			"normalization": "QoverM",
			"event_classes": "vtx",
			"n_channels": 16,
			"group_size": 4,
			"steps": [
				{"kind": "gainEqualization", "equalization_method": "width", "shift": 1, "scale": 0.1, "use_groups": true},
				{"kind": "recentering", "key": "rec1", "min_entries": 10, "apply_online": false}
			]
		}]
	}]
}`

func TestLoadSetup(t *testing.T) {
	t.Parallel()

	setup, err := LoadSetup(writeFile(t, "setup.json", fmdSetup))
	require.NoError(t, err)
	assert.True(t, setup.FillQA)
	assert.True(t, setup.CalibrateByRun)
	assert.Equal(t, []CutSetup{{Variable: "VtxZ", Min: -8, Max: 8}}, setup.EventCuts)
	require.Len(t, setup.Detectors, 1)
	conf := setup.Detectors[0].Configurations[0]
	assert.Equal(t, ChannelConfiguration, conf.Type)
	assert.Equal(t, NormalizationQoverM, conf.Normalization)
	require.Len(t, conf.Steps, 2)
	assert.Equal(t, GainEqualization, conf.Steps[0].Kind)
	assert.Equal(t, WidthEqualization, conf.Steps[0].Equalization)
	require.NotNil(t, conf.Steps[1].ApplyOnline)
	assert.False(t, *conf.Steps[1].ApplyOnline)
}

func TestLoadSetupErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{
			"dot in name",
			`{"event_classes": {"vtx": {"variables": [{"variable": "VtxZ", "edges": [-10, 10]}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T.a", "type": "tracks", "harmonics": 1, "event_classes": "vtx"}]}]}`,
			"name failed on excludes",
		},
		{
			"descending edges",
			`{"event_classes": {"vtx": {"variables": [{"variable": "VtxZ", "edges": [10, -10]}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T", "type": "tracks", "harmonics": 1, "event_classes": "vtx"}]}]}`,
			"edges failed on ascending",
		},
		{
			"no binning",
			`{"event_classes": {"vtx": {"variables": [{"variable": "VtxZ"}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T", "type": "tracks", "harmonics": 1, "event_classes": "vtx"}]}]}`,
			"bins failed on required_without",
		},
		{
			"harmonics",
			`{"event_classes": {"vtx": {"variables": [{"variable": "VtxZ", "edges": [-10, 10]}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T", "type": "tracks", "harmonics": 0, "event_classes": "vtx"}]}]}`,
			"harmonics failed on gte",
		},
		{
			"inverted cut",
			`{"event_classes": {"vtx": {"variables": [{"variable": "VtxZ", "edges": [-10, 10]}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T", "type": "tracks", "harmonics": 1, "event_classes": "vtx",
			    "cuts": [{"variable": "Eta", "min": 0.8, "max": -0.8}]}]}]}`,
			"max failed on gtefield",
		},
		{
			"inverted event cut",
			`{"event_cuts": [{"variable": "CentralityV0M", "min": 90, "max": 10}],
			  "event_classes": {"vtx": {"variables": [{"variable": "VtxZ", "edges": [-10, 10]}]}},
			  "detectors": [{"name": "T", "configurations": [{"name": "T", "type": "tracks", "harmonics": 1, "event_classes": "vtx"}]}]}`,
			"max failed on gtefield",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSetup(writeFile(t, "setup.json", tt.content))
			var confErr *ErrConfiguration
			require.ErrorAs(t, err, &confErr)
			assert.Contains(t, confErr.Reason, tt.reason)
		})
	}

	_, err := LoadSetup(writeFile(t, "setup.json", `{"detectors": [{"configurations": [{"type": "spaghetti"}]}]}`))
	var enumErr *ErrUnknownEnum
	assert.ErrorAs(t, err, &enumErr)
}
