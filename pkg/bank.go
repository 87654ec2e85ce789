package qncorrections

// DataVectorBank receives the raw samples of an event and routes them to the
// configurations that accept them.
type DataVectorBank struct {
	detectors map[int]*Detector
	accepted  []string
}

func newDataVectorBank() *DataVectorBank {
	return &DataVectorBank{detectors: make(map[int]*Detector)}
}

func (b *DataVectorBank) register(d *Detector) {
	b.detectors[d.ID()] = d
}

// Clear empties every configuration. Slices keep their capacity.
func (b *DataVectorBank) Clear() {
	for _, d := range b.detectors {
		for _, c := range d.configurations {
			c.clear()
		}
	}
	b.accepted = b.accepted[:0]
}

// AddChannel adds a channel signal to the channel configurations of the
// detector that enable the channel and whose cuts accept vars. It returns the
// number of configurations that took the sample.
func (b *DataVectorBank) AddChannel(detectorID, channel int, phi, weight float64, vars Variables) int {
	return b.add(detectorID, ChannelConfiguration, channel, phi, weight, vars)
}

// AddTrack adds a track with unit weight to the track configurations of the
// detector whose cuts accept the track variables.
func (b *DataVectorBank) AddTrack(detectorID int, phi float64, vars Variables) int {
	return b.add(detectorID, TrackConfiguration, -1, phi, 1, vars)
}

func (b *DataVectorBank) add(detectorID int, kind ConfigurationKind, channel int, phi, weight float64, vars Variables) int {
	b.accepted = b.accepted[:0]
	d, ok := b.detectors[detectorID]
	if !ok {
		return 0
	}
	for _, c := range d.configurations {
		if c.kind != kind || !c.accept(channel, vars) {
			continue
		}
		c.addDataVector(channel, phi, weight)
		b.accepted = append(b.accepted, c.name)
	}
	return len(b.accepted)
}

// AcceptedConfiguration names the i-th configuration that took the last sample.
func (b *DataVectorBank) AcceptedConfiguration(i int) (string, bool) {
	if i < 0 || i >= len(b.accepted) {
		return "", false
	}
	return b.accepted[i], true
}

// Entries returns the number of data vectors held by a configuration.
func (b *DataVectorBank) Entries(detectorID int, configuration string) int {
	d, ok := b.detectors[detectorID]
	if !ok {
		return 0
	}
	c, ok := d.FindConfiguration(configuration)
	if !ok {
		return 0
	}
	return len(c.data)
}
