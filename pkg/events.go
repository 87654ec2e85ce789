package qncorrections

// EventRecord is one event of the JSON lines stream consumed by qncorrect.
type EventRecord struct {
	Run       int                `json:"run"`
	Event     int                `json:"event"`
	Variables map[string]float64 `json:"variables"`
	Channels  []ChannelSignal    `json:"channels,omitempty"`
	Tracks    []TrackRecord      `json:"tracks,omitempty"`
}

// ChannelSignal is the amplitude of one channel. The azimuth comes from the
// channel map of the detector.
type ChannelSignal struct {
	Detector int     `json:"detector"`
	Channel  int     `json:"channel"`
	Weight   float64 `json:"weight"`
}

type TrackRecord struct {
	Detector  int                `json:"detector"`
	Phi       float64            `json:"phi"`
	Variables map[string]float64 `json:"variables,omitempty"`
}
