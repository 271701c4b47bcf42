package effect

import (
	"fmt"
	"sort"

	"github.com/cwbudde/algo-synth/device"
)

// Default is the effect used when a requested name is unknown.
const Default = "gain"

var constructors = map[string]func(device.Config) (device.Effect, error){
	"gain":       func(c device.Config) (device.Effect, error) { return NewGain(c) },
	"filter":     func(c device.Config) (device.Effect, error) { return NewFilter(c) },
	"tilt":       func(c device.Config) (device.Effect, error) { return NewTilt(c) },
	"delay":      func(c device.Config) (device.Effect, error) { return NewDelay(c) },
	"chorus":     func(c device.Config) (device.Effect, error) { return NewChorus(c) },
	"reverb":     func(c device.Config) (device.Effect, error) { return NewReverb(c) },
	"diffuser":   func(c device.Config) (device.Effect, error) { return NewDiffuser(c) },
	"convolver":  func(c device.Config) (device.Effect, error) { return NewConvolver(c) },
	"distortion": func(c device.Config) (device.Effect, error) { return NewDistortion(c) },
	"compressor": func(c device.Config) (device.Effect, error) { return NewCompressor(c) },
	"limiter":    func(c device.Config) (device.Effect, error) { return NewLimiter(c) },
	"ladder":     func(c device.Config) (device.Effect, error) { return NewLadder(c) },
}

// New builds the named effect.
func New(name string, cfg device.Config) (device.Effect, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("effect %q: %w", name, device.ErrUnknown)
	}
	return ctor(cfg)
}

// Names lists the registered effects in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
