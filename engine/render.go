package engine

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/device"
	"github.com/cwbudde/algo-synth/device/effect"
	"github.com/cwbudde/algo-synth/device/instrument"
	"github.com/cwbudde/algo-synth/internal/rtcheck"
	"github.com/cwbudde/algo-synth/protocol"
)

// Render owns the channels and mixes them onto the stereo bus.
//
// Process and ParseMessages run on the audio thread. The structural
// methods run on the control thread with the Shared lock held.
type Render struct {
	cfg    Config
	logger *slog.Logger

	control  *protocol.Queue[protocol.AudioMessage]
	feedback *protocol.Queue[protocol.FeedbackMessage]

	channels []*Channel
	bus      []float32
	master   Meter
	cpu      cpuMeter

	nextID uint64
}

// NewRender builds an empty render graph around the two queues.
func NewRender(cfg Config, control *protocol.Queue[protocol.AudioMessage], feedback *protocol.Queue[protocol.FeedbackMessage], logger *slog.Logger) (*Render, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Render{
		cfg:      cfg,
		logger:   logger,
		control:  control,
		feedback: feedback,
		bus:      make([]float32, 2*cfg.MaxBlock),
		master:   NewMeter(cfg.SampleRate),
		cpu:      cpuMeter{sampleRate: cfg.SampleRate},
	}, nil
}

// Config returns the engine settings.
func (r *Render) Config() Config { return r.cfg }

// ChannelCount returns the number of channels.
func (r *Render) ChannelCount() int { return len(r.channels) }

// Channel returns channel index.
func (r *Render) Channel(index int) (*Channel, error) {
	if index < 0 || index >= len(r.channels) {
		return nil, ErrOutOfRange
	}
	return r.channels[index], nil
}

// MasterMeter returns the bus peak levels.
func (r *Render) MasterMeter() (float32, float32) { return r.master.Peak() }

func (r *Render) id() uint64 {
	r.nextID++
	return r.nextID
}

// Process renders len(out)/2 frames of interleaved stereo into out.
func (r *Render) Process(out []float32) {
	r.cpu.begin()
	for off := 0; off < len(out); off += 2 * r.cfg.MaxBlock {
		r.processChunk(out[off:min(off+2*r.cfg.MaxBlock, len(out))])
	}
	l, rr := r.master.Peak()
	_ = r.feedback.Push(protocol.Meter(l, rr))
	_ = r.feedback.Push(protocol.Cpu(r.cpu.end(len(out) / 2)))
}

func (r *Render) processChunk(out []float32) {
	bus := r.bus[:len(out)]
	clear(bus)
	frames := len(out) / 2
	for _, ch := range r.channels {
		if ch.voices.MuteState() == MuteOff {
			continue
		}
		buf := ch.process(frames)
		for i, v := range buf {
			bus[i] += v
		}
	}
	r.master.Update(bus)
	for i, v := range bus {
		out[i] = clampSample(v)
	}
}

// clampSample limits v to [-1, 1]. NaN becomes silence; debug builds trap
// it instead.
func clampSample(v float32) float32 {
	rtcheck.Finite("render", v)
	switch {
	case v != v:
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

func (r *Render) warn(text string, v int) {
	_ = r.feedback.Push(protocol.LogInt(protocol.LevelWarn, text, v))
}

func (r *Render) channel(i int32) *Channel {
	if i < 0 || int(i) >= len(r.channels) {
		r.warn("channel out of range:", int(i))
		return nil
	}
	return r.channels[i]
}

// ParseMessages drains the control queue and applies every message.
// Invalid indices produce a warning and are otherwise ignored.
func (r *Render) ParseMessages() {
	for {
		msg, ok := r.control.Pop()
		if !ok {
			return
		}
		r.apply(&msg)
	}
}

func (r *Render) apply(msg *protocol.AudioMessage) {
	if msg.Kind == protocol.KindPanic {
		for _, ch := range r.channels {
			ch.voices.AllNotesOff()
		}
		return
	}
	ch := r.channel(msg.Channel)
	if ch == nil {
		return
	}
	switch msg.Kind {
	case protocol.KindNoteOn:
		ch.voices.NoteOn(msg.Token, msg.Value, msg.Velocity)
	case protocol.KindNoteOff:
		ch.voices.NoteOff(msg.Token)
	case protocol.KindPitch:
		ch.voices.Pitch(msg.Token, msg.Value)
	case protocol.KindPressure:
		ch.voices.Pressure(msg.Token, msg.Value)
	case protocol.KindSustain:
		ch.voices.Sustain(msg.Flag)
	case protocol.KindMute:
		ch.voices.SetMute(msg.Flag)
	case protocol.KindParameter:
		dev, ok := ch.device(int(msg.Device))
		if !ok {
			r.warn("device out of range:", int(msg.Device))
			return
		}
		if !dev.SetParameter(int(msg.Param), msg.Value) {
			r.warn("parameter out of range:", int(msg.Param))
		}
	case protocol.KindBypass:
		if !ch.setBypass(int(msg.Device), msg.Flag) {
			r.warn("effect out of range:", int(msg.Device))
		}
	case protocol.KindReorderEffect:
		if !ch.reorder(int(msg.Param), int(msg.Index)) {
			r.warn("reorder out of range:", int(msg.Param))
		}
	default:
		r.warn("unknown message kind:", int(msg.Kind))
	}
}

func (r *Render) newInstrument(cc ChannelConfig) (device.Instrument, string) {
	dc := r.cfg.deviceConfig()
	dc.Samples = cc.Samples
	inst, err := instrument.New(cc.Instrument, dc)
	if err == nil {
		return inst, cc.Instrument
	}
	r.logger.Warn("instrument unavailable, using default", "name", cc.Instrument, "default", instrument.Default, "err", err)
	inst, err = instrument.New(instrument.Default, dc)
	if err != nil {
		// The default is built in; failing here is a programming error.
		panic(fmt.Sprintf("default instrument: %v", err))
	}
	return inst, instrument.Default
}

// newEffect builds ec with its parameters applied and its state settled.
func (r *Render) newEffect(ec EffectConfig) device.Effect {
	dc := r.cfg.deviceConfig()
	dc.ImpulseResponse = ec.ImpulseResponse
	fx, err := effect.New(ec.Name, dc)
	if err != nil {
		r.logger.Warn("effect unavailable, using default", "name", ec.Name, "default", effect.Default, "err", err)
		if fx, err = effect.New(effect.Default, dc); err != nil {
			panic(fmt.Sprintf("default effect: %v", err))
		}
	}
	for p, v := range ec.Params {
		if !fx.SetParameter(p, v) {
			r.logger.Warn("unknown effect parameter", "effect", fx.Name(), "param", p)
		}
	}
	fx.Flush()
	return fx
}

// InsertChannel inserts a channel running the named instrument at index.
// index == ChannelCount appends.
func (r *Render) InsertChannel(index int, name string) error {
	return r.InsertChannelConfig(index, ChannelConfig{Instrument: name})
}

// InsertChannelConfig inserts a fully described channel at index.
func (r *Render) InsertChannelConfig(index int, cc ChannelConfig) error {
	if index < 0 || index > len(r.channels) {
		return ErrOutOfRange
	}
	inst, name := r.newInstrument(cc)
	r.insertChannel(index, inst, name, cc)
	return nil
}

func (r *Render) insertChannel(index int, inst device.Instrument, name string, cc ChannelConfig) *Channel {
	ch := &Channel{
		name:   name,
		instID: r.id(),
		voices: NewVoiceManager(inst, r.cfg.SampleRate, cc.Steal),
		buf:    make([]float32, 2*r.cfg.MaxBlock),
		meter:  NewMeter(r.cfg.SampleRate),
	}
	for p, v := range cc.Params {
		if !inst.SetParameter(p, v) {
			r.logger.Warn("unknown instrument parameter", "instrument", name, "param", p)
		}
	}
	for _, ec := range cc.Effects {
		fx := r.newEffect(ec)
		ch.effects = append(ch.effects, effectSlot{fx: fx, id: r.id(), bypass: ec.Bypass})
	}
	if cc.Muted {
		ch.voices.SetMute(true)
	}
	r.channels = append(r.channels, nil)
	copy(r.channels[index+1:], r.channels[index:])
	r.channels[index] = ch
	return ch
}

// RemoveChannel silences and detaches channel index.
func (r *Render) RemoveChannel(index int) error {
	if index < 0 || index >= len(r.channels) {
		return ErrOutOfRange
	}
	r.channels[index].voices.Flush()
	r.channels = append(r.channels[:index], r.channels[index+1:]...)
	return nil
}

// InsertEffect inserts the named effect into channel at index.
func (r *Render) InsertEffect(channel, index int, name string) error {
	return r.InsertEffectConfig(channel, index, EffectConfig{Name: name})
}

// InsertEffectConfig inserts a described effect into channel at index.
func (r *Render) InsertEffectConfig(channel, index int, ec EffectConfig) error {
	ch, err := r.Channel(channel)
	if err != nil {
		return err
	}
	if index < 0 || index > len(ch.effects) {
		return ErrOutOfRange
	}
	fx := r.newEffect(ec)
	ch.effects = append(ch.effects, effectSlot{})
	copy(ch.effects[index+1:], ch.effects[index:])
	ch.effects[index] = effectSlot{fx: fx, id: r.id(), bypass: ec.Bypass}
	return nil
}

// RemoveEffect detaches effect index from channel.
func (r *Render) RemoveEffect(channel, index int) error {
	ch, err := r.Channel(channel)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(ch.effects) {
		return ErrOutOfRange
	}
	ch.effects = append(ch.effects[:index], ch.effects[index+1:]...)
	return nil
}

// Flush silences every channel and clears all device state.
func (r *Render) Flush() {
	for _, ch := range r.channels {
		ch.flush()
	}
	r.master.Reset()
}

// assetDevice is a device that loads files, with the id used to route the
// response back to it.
type assetDevice struct {
	id       uint64
	consumer device.AssetConsumer
}

func (r *Render) assetDevices() []assetDevice {
	var out []assetDevice
	for _, ch := range r.channels {
		if c, ok := ch.voices.Instrument().(device.AssetConsumer); ok {
			out = append(out, assetDevice{id: ch.instID, consumer: c})
		}
		for _, e := range ch.effects {
			if c, ok := e.fx.(device.AssetConsumer); ok {
				out = append(out, assetDevice{id: e.id, consumer: c})
			}
		}
	}
	return out
}

// AssetRequests appends the pending file loads of every device to dst. Each
// request is reported once.
func (r *Render) AssetRequests(dst []asset.Request) []asset.Request {
	for _, d := range r.assetDevices() {
		if req, ok := d.consumer.AssetRequest(); ok {
			req.Target = d.id
			dst = append(dst, req)
		}
	}
	return dst
}

// AdoptAsset hands resp to the device it was loaded for. Responses for
// devices that no longer exist are dropped. A follow-up request, if the
// device wants one, is returned with its target set.
func (r *Render) AdoptAsset(resp asset.Response) (asset.Request, bool) {
	for _, d := range r.assetDevices() {
		if d.id != resp.Request.Target {
			continue
		}
		next, ok := d.consumer.Adopt(resp)
		next.Target = d.id
		return next, ok
	}
	r.logger.Debug("dropping stale asset", "path", resp.Request.Path, "target", resp.Request.Target)
	return asset.Request{}, false
}
