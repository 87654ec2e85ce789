package qncorrections

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/kelseyhightower/envconfig"
)

// Configuration is the run configuration of the qncorrect program.
type Configuration struct {
	FilesIn          []string `json:"files_in" validate:"required,min=1,dive,required"`
	SetupFile        string   `json:"setup_file"`
	Preset           string   `json:"preset" validate:"omitempty,oneof=vzero vzero-tpc"`
	CalibrationIn    string   `json:"calibration_in"`
	CalibrationOut   string   `json:"calibration_out" validate:"required"`
	QAOut            string   `json:"qa_out"`
	TreeOut          string   `json:"tree_out"`
	MaxEvents        int      `json:"max_events" validate:"gte=0"`
	Skip             int      `json:"skip" validate:"gte=0"`
	Verbosity        int      `json:"verbosity" validate:"gte=0"`
	NumWorkers       int      `json:"num_workers" validate:"gte=1"`
	CompressionLevel int      `json:"compression_level" validate:"gte=0,lte=9"`
	WeightThreshold  float64  `json:"weight_threshold" validate:"gte=0"`
	NoDB             bool     `json:"no_db"`
	Host             string   `json:"host"`
	User             string   `json:"user"`
	Passwd           string   `json:"pass"`
	DBName           string   `json:"dbname"`
}

// envOverrides are read from QN_* variables and win over the file.
type envOverrides struct {
	Host          string `envconfig:"DB_HOST"`
	User          string `envconfig:"DB_USER"`
	Passwd        string `envconfig:"DB_PASS"`
	DBName        string `envconfig:"DB_NAME"`
	CalibrationIn string `envconfig:"CALIBRATION_IN"`
	Verbosity     int    `envconfig:"VERBOSITY" default:"-1"`
}

// LoadConfiguration reads the run configuration, applies QN_* environment
// overrides and validates the result.
func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.NumWorkers = 1
	config.CompressionLevel = 4
	config.WeightThreshold = defaultWeightThreshold
	config.CalibrationOut = "CalibrationHistograms.root"
	config.NoDB = true
	config.Host = "localhost"
	config.User = "qnreader"
	config.Passwd = "readonly"
	config.DBName = "QnConditions"

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &ErrOpenFile{Filename: filename, Err: err}
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("error decoding %s: %w", filename, err)
	}
	if err := applyEnvOverrides(&config); err != nil {
		return config, err
	}
	if err := ValidateStruct(config); err != nil {
		return config, err
	}
	if config.SetupFile == "" && config.Preset == "" {
		return config, &ErrConfiguration{Component: "configuration", Reason: "either setup_file or preset is required"}
	}
	return config, nil
}

func applyEnvOverrides(config *Configuration) error {
	var env envOverrides
	if err := envconfig.Process("QN", &env); err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}
	if env.Host != "" {
		config.Host = env.Host
	}
	if env.User != "" {
		config.User = env.User
	}
	if env.Passwd != "" {
		config.Passwd = env.Passwd
	}
	if env.DBName != "" {
		config.DBName = env.DBName
	}
	if env.CalibrationIn != "" {
		config.CalibrationIn = env.CalibrationIn
	}
	if env.Verbosity >= 0 {
		config.Verbosity = env.Verbosity
	}
	return nil
}

// SetupConfig is the detector setup consumed by BuildManager.
type SetupConfig struct {
	CalibrateByRun    bool                           `json:"calibrate_by_run"`
	FillQA            bool                           `json:"fill_qa"`
	FillTree          bool                           `json:"fill_tree"`
	ProvideQnVectors  bool                           `json:"provide_qn_vectors"`
	QAMultiplicityMax float64                        `json:"qa_multiplicity_max" validate:"gte=0"`
	QACentrality      string                         `json:"qa_centrality"`
	EventCuts         []CutSetup                     `json:"event_cuts,omitempty" validate:"dive"`
	EventClasses      map[string]EventClassSetConfig `json:"event_classes" validate:"required,min=1,dive"`
	Detectors         []DetectorSetup                `json:"detectors" validate:"required,min=1,dive"`
}

type EventClassSetConfig struct {
	Variables []EventClassVariableConfig `json:"variables" validate:"required,min=1,dive"`
}

// EventClassVariableConfig gives either explicit edges or the compact
// {{min, nPairs}, {edge, nBins}, ...} pairs.
type EventClassVariableConfig struct {
	Variable string       `json:"variable" validate:"required"`
	Label    string       `json:"label"`
	Edges    []float64    `json:"edges,omitempty" validate:"omitempty,min=2,ascending"`
	Bins     [][2]float64 `json:"bins,omitempty" validate:"required_without=Edges"`
}

type DetectorSetup struct {
	Name           string               `json:"name" validate:"required"`
	ID             int                  `json:"id" validate:"gte=0"`
	Configurations []ConfigurationSetup `json:"configurations" validate:"required,min=1,dive"`
}

type ConfigurationSetup struct {
	Name          string            `json:"name" validate:"required,excludes=."`
	Type          ConfigurationKind `json:"type"`
	Harmonics     int               `json:"harmonics" validate:"gte=1,lte=8"`
	Normalization Normalization     `json:"normalization"`
	EventClasses  string            `json:"event_classes" validate:"required"`
	NChannels     int               `json:"n_channels" validate:"gte=0"`
	// Channels lists the enabled channels; empty enables all of them.
	Channels []int `json:"channels,omitempty" validate:"dive,gte=0"`
	// Groups gives the group of every channel; GroupSize groups consecutive channels.
	Groups        []int       `json:"groups,omitempty"`
	GroupSize     int         `json:"group_size" validate:"gte=0"`
	UseChannelMap bool        `json:"use_channel_map"`
	Cuts          []CutSetup  `json:"cuts,omitempty" validate:"dive"`
	Steps         []StepSetup `json:"steps,omitempty" validate:"dive"`
}

type CutSetup struct {
	Variable string  `json:"variable" validate:"required"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max" validate:"gtefield=Min"`
}

type StepSetup struct {
	Kind              StepKind           `json:"kind"`
	Key               string             `json:"key" validate:"excludes=."`
	MinEntries        int                `json:"min_entries" validate:"gte=0"`
	ApplyOnline       *bool              `json:"apply_online,omitempty"`
	Equalization      EqualizationMethod `json:"equalization_method"`
	Shift             float64            `json:"shift"`
	Scale             float64            `json:"scale"`
	UseGroups         bool               `json:"use_groups"`
	WidthEqualization bool               `json:"width_equalization"`
	Reference         string             `json:"reference"`
	ReferenceC        string             `json:"reference_c"`
	PartnerStep       string             `json:"partner_step"`
	Harmonic          int                `json:"harmonic" validate:"gte=0"`
	Method            TwistMethod        `json:"method"`
	Twist             *bool              `json:"twist,omitempty"`
	Rescale           *bool              `json:"rescale,omitempty"`
}

// LoadSetup reads and validates a detector setup file.
func LoadSetup(filename string) (SetupConfig, error) {
	var setup SetupConfig
	data, err := os.ReadFile(filename)
	if err != nil {
		return setup, &ErrOpenFile{Filename: filename, Err: err}
	}
	if err := json.Unmarshal(data, &setup); err != nil {
		return setup, fmt.Errorf("error decoding %s: %w", filename, err)
	}
	if err := ValidateStruct(setup); err != nil {
		return setup, err
	}
	return setup, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("ascending", validateAscending); err != nil {
		panic(err)
	}
	return v
}

// validateAscending checks that a float slice is strictly increasing.
func validateAscending(fl validator.FieldLevel) bool {
	edges, ok := fl.Field().Interface().([]float64)
	if !ok {
		return false
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return false
		}
	}
	return true
}

// ValidateStruct runs the struct tag validation and wraps the failures into
// a configuration error.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	reasons := make([]string, len(verrs))
	for i, fe := range verrs {
		reasons[i] = fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag())
	}
	return &ErrConfiguration{Component: "configuration", Reason: strings.Join(reasons, "; ")}
}
