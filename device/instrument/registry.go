package instrument

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-synth/device"
)

// Default is the instrument used when a requested name is unknown.
const Default = "analog"

var constructors = map[string]func(device.Config) (device.Instrument, error){
	"analog":    func(c device.Config) (device.Instrument, error) { return NewAnalog(c) },
	"wavetable": func(c device.Config) (device.Instrument, error) { return NewWavetable(c) },
	"sampler":   func(c device.Config) (device.Instrument, error) { return NewSampler(c) },
	"piano":     func(c device.Config) (device.Instrument, error) { return NewPiano(c) },
}

// New builds the named instrument.
func New(name string, cfg device.Config) (device.Instrument, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("instrument %q: %w", name, device.ErrUnknown)
	}
	return ctor(cfg)
}

// Names lists the registered instruments in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
