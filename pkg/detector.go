package qncorrections

// Detector groups the configurations built on one physical subsystem.
type Detector struct {
	name           string
	id             int
	configurations []*DetectorConfiguration
}

func NewDetector(name string, id int) *Detector {
	return &Detector{name: name, id: id}
}

func (d *Detector) Name() string { return d.name }
func (d *Detector) ID() int      { return d.id }

func (d *Detector) AddConfiguration(c *DetectorConfiguration) error {
	if _, ok := d.FindConfiguration(c.Name()); ok {
		return &ErrConfiguration{Component: "detector " + d.name, Reason: "duplicated configuration " + c.Name()}
	}
	c.detector = d
	d.configurations = append(d.configurations, c)
	return nil
}

func (d *Detector) FindConfiguration(name string) (*DetectorConfiguration, bool) {
	for _, c := range d.configurations {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// ForEachConfiguration visits the configurations in registration order.
func (d *Detector) ForEachConfiguration(fn func(c *DetectorConfiguration)) {
	for _, c := range d.configurations {
		fn(c)
	}
}

func (d *Detector) Configurations() []*DetectorConfiguration {
	return d.configurations
}
