package qncorrections

import (
	"github.com/goccy/go-json"
)

// Normalization selects how a raw Qn-vector is scaled once formed.
type Normalization int

const (
	NormalizationNone Normalization = iota
	NormalizationQoverSqrtM
	NormalizationQoverM
	NormalizationQoverQlength
)

var normalizationStrings = []string{
	"none",
	"QoverSqrtM",
	"QoverM",
	"QoverQlength",
}

func (n Normalization) String() string {
	if n < NormalizationNone || n > NormalizationQoverQlength {
		return "UNKNOWN"
	}
	return normalizationStrings[n]
}

func (n Normalization) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Normalization) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "normalization", normalizationStrings)
	if err != nil {
		return err
	}
	*n = Normalization(v)
	return nil
}

// StepKind tags the variant carried by a CorrectionStep.
type StepKind int

const (
	GainEqualization StepKind = iota
	Recentering
	Alignment
	TwistAndRescale
)

var stepKindStrings = []string{
	"gainEqualization",
	"recentering",
	"alignment",
	"twistAndRescale",
}

// default persisted keys, also used to name snapshots
var stepKindKeys = []string{
	"eq",
	"rec",
	"align",
	"twist",
}

func (k StepKind) String() string {
	if k < GainEqualization || k > TwistAndRescale {
		return "UNKNOWN"
	}
	return stepKindStrings[k]
}

func (k StepKind) DefaultKey() string {
	if k < GainEqualization || k > TwistAndRescale {
		return "unknown"
	}
	return stepKindKeys[k]
}

// IsInputData reports whether the step acts on raw data vectors instead of on
// the formed Qn-vector.
func (k StepKind) IsInputData() bool {
	return k == GainEqualization
}

func (k StepKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *StepKind) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "step kind", stepKindStrings)
	if err != nil {
		return err
	}
	*k = StepKind(v)
	return nil
}

type EqualizationMethod int

const (
	AverageEqualization EqualizationMethod = iota
	WidthEqualization
)

var equalizationStrings = []string{
	"average",
	"width",
}

func (e EqualizationMethod) String() string {
	if e < AverageEqualization || e > WidthEqualization {
		return "UNKNOWN"
	}
	return equalizationStrings[e]
}

func (e EqualizationMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *EqualizationMethod) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "equalization method", equalizationStrings)
	if err != nil {
		return err
	}
	*e = EqualizationMethod(v)
	return nil
}

type TwistMethod int

const (
	DoubleHarmonic TwistMethod = iota
	Correlations
)

var twistMethodStrings = []string{
	"doubleHarmonic",
	"correlations",
}

func (t TwistMethod) String() string {
	if t < DoubleHarmonic || t > Correlations {
		return "UNKNOWN"
	}
	return twistMethodStrings[t]
}

func (t TwistMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TwistMethod) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "twist method", twistMethodStrings)
	if err != nil {
		return err
	}
	*t = TwistMethod(v)
	return nil
}

// ConfigurationKind distinguishes channel-weighted from track-counting
// detector configurations.
type ConfigurationKind int

const (
	ChannelConfiguration ConfigurationKind = iota
	TrackConfiguration
)

var configurationKindStrings = []string{
	"channels",
	"tracks",
}

func (c ConfigurationKind) String() string {
	if c < ChannelConfiguration || c > TrackConfiguration {
		return "UNKNOWN"
	}
	return configurationKindStrings[c]
}

func (c ConfigurationKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ConfigurationKind) UnmarshalJSON(data []byte) error {
	v, err := parseEnum(data, "configuration type", configurationKindStrings)
	if err != nil {
		return err
	}
	*c = ConfigurationKind(v)
	return nil
}

// StepState is the lifecycle state of a correction step for the active run label.
type StepState int

const (
	StepUninitialized StepState = iota
	StepCollecting
	StepApplying
	StepFinalized
)

func (s StepState) String() string {
	switch s {
	case StepUninitialized:
		return "Uninitialized"
	case StepCollecting:
		return "Collecting"
	case StepApplying:
		return "Applying"
	case StepFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

func parseEnum(data []byte, enum string, values []string) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	for i, v := range values {
		if v == s {
			return i, nil
		}
	}
	return 0, &ErrUnknownEnum{Enum: enum, Value: s}
}
