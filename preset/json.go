// Package preset loads engine session files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/engine"
)

// File is the JSON schema for session presets. Omitted fields keep the
// engine defaults.
type File struct {
	SampleRate     *float64 `json:"sample_rate"`
	MaxBlock       *int     `json:"max_block"`
	ControlQueue   *int     `json:"control_queue"`
	FeedbackQueue  *int     `json:"feedback_queue"`
	AssetRequests  *int     `json:"asset_requests"`
	AssetResponses *int     `json:"asset_responses"`
	PartitionSize  *int     `json:"partition_size"`
	// Channels replaces the default channel layout when present.
	Channels []Channel `json:"channels"`
}

// Channel is one channel entry in a preset file.
type Channel struct {
	Instrument string             `json:"instrument"`
	Steal      string             `json:"steal"`
	Muted      bool               `json:"muted"`
	Params     map[string]float32 `json:"params"`
	Samples    []string           `json:"samples"`
	Effects    []Effect           `json:"effects"`
}

// Effect is one effect stage in a preset file.
type Effect struct {
	Name            string             `json:"name"`
	Bypass          bool               `json:"bypass"`
	Params          map[string]float32 `json:"params"`
	ImpulseResponse string             `json:"impulse_response"`
}

// LoadJSON loads a preset JSON file and applies it on top of the default
// engine config. Relative file paths resolve against the preset directory.
func LoadJSON(path string) (*engine.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseJSON(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		for j, s := range ch.Samples {
			ch.Samples[j] = resolve(base, s)
		}
		for j := range ch.Effects {
			ch.Effects[j].ImpulseResponse = resolve(base, ch.Effects[j].ImpulseResponse)
		}
	}
	return cfg, nil
}

// ParseJSON decodes a session preset on top of the defaults. Asset paths
// are returned as written.
func ParseJSON(data []byte) (*engine.Config, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	cfg := engine.NewDefaultConfig()
	if err := ApplyFile(&cfg, &f); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// ApplyFile applies a parsed preset file onto an existing config.
func ApplyFile(dst *engine.Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		dst.SampleRate = *f.SampleRate
	}
	ints := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"max_block", f.MaxBlock, &dst.MaxBlock},
		{"control_queue", f.ControlQueue, &dst.ControlQueue},
		{"feedback_queue", f.FeedbackQueue, &dst.FeedbackQueue},
		{"asset_requests", f.AssetRequests, &dst.AssetRequests},
		{"asset_responses", f.AssetResponses, &dst.AssetResponses},
		{"partition_size", f.PartitionSize, &dst.PartitionSize},
	}
	for _, v := range ints {
		if v.src == nil {
			continue
		}
		if *v.src <= 0 {
			return fmt.Errorf("%s must be > 0", v.name)
		}
		*v.dst = *v.src
	}

	if f.Channels != nil {
		dst.Channels = make([]engine.ChannelConfig, 0, len(f.Channels))
		for i, ch := range f.Channels {
			cc, err := channelConfig(ch)
			if err != nil {
				return fmt.Errorf("channels[%d]: %w", i, err)
			}
			dst.Channels = append(dst.Channels, cc)
		}
	}
	return dst.Validate()
}

func channelConfig(ch Channel) (engine.ChannelConfig, error) {
	steal, err := engine.ParseStealPolicy(strings.TrimSpace(ch.Steal))
	if err != nil {
		return engine.ChannelConfig{}, err
	}
	params, err := parseParams(ch.Params)
	if err != nil {
		return engine.ChannelConfig{}, err
	}
	cc := engine.ChannelConfig{
		Instrument: strings.TrimSpace(ch.Instrument),
		Steal:      steal,
		Muted:      ch.Muted,
		Params:     params,
	}
	if cc.Instrument == "" {
		return engine.ChannelConfig{}, fmt.Errorf("instrument must be set")
	}
	for _, s := range ch.Samples {
		cc.Samples = append(cc.Samples, strings.TrimSpace(s))
	}
	for j, e := range ch.Effects {
		ep, err := parseParams(e.Params)
		if err != nil {
			return engine.ChannelConfig{}, fmt.Errorf("effects[%d]: %w", j, err)
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return engine.ChannelConfig{}, fmt.Errorf("effects[%d].name must be set", j)
		}
		cc.Effects = append(cc.Effects, engine.EffectConfig{
			Name:            name,
			Bypass:          e.Bypass,
			Params:          ep,
			ImpulseResponse: strings.TrimSpace(e.ImpulseResponse),
		})
	}
	return cc, nil
}

// parseParams converts the string-keyed JSON map into parameter indices.
func parseParams(in map[string]float32) (map[int]float32, error) {
	if len(in) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[int]float32, len(in))
	for _, k := range keys {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid param key %q (expected an index >= 0)", k)
		}
		out[idx] = in[k]
	}
	return out, nil
}
