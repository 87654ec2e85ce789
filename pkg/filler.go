package qncorrections

import "fmt"

// defaultWeightThreshold zeroes channel signals below it
const defaultWeightThreshold = 0.01

// EventFiller moves an EventRecord into the bank of a Manager, looking channel
// azimuths up in the channel maps of each detector.
type EventFiller struct {
	ChannelMaps     map[int]*ChannelMap
	WeightThreshold float64
}

func NewEventFiller(channelMaps map[int]*ChannelMap) *EventFiller {
	return &EventFiller{ChannelMaps: channelMaps, WeightThreshold: defaultWeightThreshold}
}

// Fill adds the channels and tracks of ev and returns the event descriptor.
// Samples of unknown detectors or channels are dropped.
func (f *EventFiller) Fill(m *Manager, ev *EventRecord) Variables {
	vars := VariablesFromMap(ev.Variables)
	bank := m.Bank()
	dropped := 0
	for _, ch := range ev.Channels {
		cm, ok := f.ChannelMaps[ch.Detector]
		if !ok || ch.Channel < 0 || ch.Channel >= cm.NChannels() || !cm.Enabled[ch.Channel] {
			dropped++
			continue
		}
		w := ch.Weight
		if w < f.WeightThreshold {
			w = 0
		}
		bank.AddChannel(ch.Detector, ch.Channel, cm.Phi[ch.Channel], w, vars)
	}
	for _, tr := range ev.Tracks {
		bank.AddTrack(tr.Detector, tr.Phi, VariablesFromMap(tr.Variables))
	}
	if dropped > 0 && verbosity > 2 {
		logger.Info(fmt.Sprintf("Event %d: dropped %d channel signals without channel map", ev.Event, dropped), "filler")
	}
	return vars
}
