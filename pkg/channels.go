package qncorrections

import "fmt"

// ChannelScheme describes which channels of a detector feed a configuration
// and how enabled channels are grouped for group-weighted equalization.
type ChannelScheme struct {
	nChannels int
	enabled   []bool
	groupOf   []int
	nGroups   int
}

// NewChannelScheme builds a scheme over nChannels. A nil enabled slice
// enables every channel; a nil groupOf leaves the scheme without groups.
// Groups of disabled channels are ignored.
func NewChannelScheme(nChannels int, enabled []bool, groupOf []int) (*ChannelScheme, error) {
	if nChannels < 1 {
		return nil, &ErrConfiguration{Component: "channel scheme", Reason: "no channels"}
	}
	if enabled != nil && len(enabled) != nChannels {
		return nil, &ErrConfiguration{
			Component: "channel scheme",
			Reason:    fmt.Sprintf("enabled mask has %d entries for %d channels", len(enabled), nChannels),
		}
	}
	if groupOf != nil && len(groupOf) != nChannels {
		return nil, &ErrConfiguration{
			Component: "channel scheme",
			Reason:    fmt.Sprintf("group table has %d entries for %d channels", len(groupOf), nChannels),
		}
	}
	s := &ChannelScheme{nChannels: nChannels, enabled: make([]bool, nChannels)}
	for c := range s.enabled {
		s.enabled[c] = enabled == nil || enabled[c]
	}
	if groupOf != nil {
		s.groupOf = make([]int, nChannels)
		for c := range s.groupOf {
			s.groupOf[c] = -1
			if !s.enabled[c] {
				continue
			}
			if groupOf[c] < 0 {
				return nil, &ErrConfiguration{
					Component: "channel scheme",
					Reason:    fmt.Sprintf("enabled channel %d has no group", c),
				}
			}
			s.groupOf[c] = groupOf[c]
			if groupOf[c]+1 > s.nGroups {
				s.nGroups = groupOf[c] + 1
			}
		}
	}
	return s, nil
}

// ChannelRange enables the channels [first, last] out of nChannels.
func ChannelRange(nChannels, first, last int) []bool {
	enabled := make([]bool, nChannels)
	for c := first; c <= last && c < nChannels; c++ {
		if c >= 0 {
			enabled[c] = true
		}
	}
	return enabled
}

func (s *ChannelScheme) NChannels() int { return s.nChannels }

func (s *ChannelScheme) Enabled(channel int) bool {
	return channel >= 0 && channel < s.nChannels && s.enabled[channel]
}

func (s *ChannelScheme) NEnabled() int {
	n := 0
	for _, e := range s.enabled {
		if e {
			n++
		}
	}
	return n
}

func (s *ChannelScheme) HasGroups() bool { return s.groupOf != nil }

func (s *ChannelScheme) NGroups() int { return s.nGroups }

func (s *ChannelScheme) Group(channel int) (int, bool) {
	if s.groupOf == nil || !s.Enabled(channel) {
		return 0, false
	}
	return s.groupOf[channel], true
}
