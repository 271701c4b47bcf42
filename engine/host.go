package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-synth/asset"
	"github.com/cwbudde/algo-synth/protocol"
)

// AssetLoader is the part of asset.Worker the host drives.
type AssetLoader interface {
	Submit(asset.Request) error
	Responses() <-chan asset.Response
}

// Stats is the latest audio-thread report seen by DrainFeedback.
type Stats struct {
	Load        float32
	Left, Right float32
	// Dropped counts control messages rejected by a full queue.
	Dropped int
}

// Host is the control-thread side of the engine. It produces control
// messages, consumes feedback and moves assets between the worker and the
// graph. A Host is not safe for concurrent use.
type Host struct {
	cfg      Config
	logger   *slog.Logger
	control  *protocol.Queue[protocol.AudioMessage]
	feedback *protocol.Queue[protocol.FeedbackMessage]
	shared   *Shared
	assets   AssetLoader

	backlog  []asset.Request
	inflight int
	stats    Stats
}

// NewHost builds the render graph described by cfg. assets may be nil, in
// which case file-backed devices keep their built-in defaults.
func NewHost(cfg Config, assets AssetLoader, logger *slog.Logger) (*Host, error) {
	if logger == nil {
		logger = slog.Default()
	}
	control := protocol.NewQueue[protocol.AudioMessage](cfg.ControlQueue)
	feedback := protocol.NewQueue[protocol.FeedbackMessage](cfg.FeedbackQueue)
	r, err := NewRender(cfg, control, feedback, logger)
	if err != nil {
		return nil, err
	}
	for i, cc := range cfg.Channels {
		if err := r.InsertChannelConfig(i, cc); err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
	}
	h := &Host{
		cfg:      cfg,
		logger:   logger,
		control:  control,
		feedback: feedback,
		shared:   NewShared(r),
		assets:   assets,
	}
	h.PollAssets()
	return h, nil
}

// Shared returns the guarded render graph.
func (h *Host) Shared() *Shared { return h.shared }

// Stats returns the most recent feedback values.
func (h *Host) Stats() Stats { return h.stats }

// Send queues msg for the audio thread.
func (h *Host) Send(msg protocol.AudioMessage) error {
	if err := h.control.Push(msg); err != nil {
		h.stats.Dropped++
		h.logger.Warn("control message dropped", "kind", msg.Kind, "channel", msg.Channel)
		return err
	}
	return nil
}

func (h *Host) NoteOn(channel int, pitch, velocity float32, token protocol.Token) error {
	return h.Send(protocol.NoteOn(channel, pitch, velocity, token))
}

func (h *Host) NoteOff(channel int, token protocol.Token) error {
	return h.Send(protocol.NoteOff(channel, token))
}

func (h *Host) Pitch(channel int, offset float32, token protocol.Token) error {
	return h.Send(protocol.Pitch(channel, offset, token))
}

func (h *Host) Pressure(channel int, value float32, token protocol.Token) error {
	return h.Send(protocol.Pressure(channel, value, token))
}

func (h *Host) Parameter(channel, device, param int, value float32) error {
	return h.Send(protocol.Parameter(channel, device, param, value))
}

func (h *Host) Mute(channel int, muted bool) error {
	return h.Send(protocol.Mute(channel, muted))
}

func (h *Host) Bypass(channel, device int, bypassed bool) error {
	return h.Send(protocol.Bypass(channel, device, bypassed))
}

func (h *Host) ReorderEffect(channel, from, to int) error {
	return h.Send(protocol.ReorderEffect(channel, from, to))
}

func (h *Host) Panic() error { return h.Send(protocol.Panic()) }

func (h *Host) Sustain(channel int, down bool) error {
	return h.Send(protocol.Sustain(channel, down))
}

// DrainFeedback consumes all pending feedback, forwarding log lines to the
// logger, and returns the updated stats.
func (h *Host) DrainFeedback() Stats {
	for {
		msg, ok := h.feedback.Pop()
		if !ok {
			return h.stats
		}
		switch msg.Kind {
		case protocol.FeedbackCpu:
			h.stats.Load = msg.Load
		case protocol.FeedbackMeter:
			h.stats.Left, h.stats.Right = msg.Left, msg.Right
		case protocol.FeedbackLog:
			h.logger.Log(context.Background(), msg.Level.Slog(), msg.Text(), "source", "audio")
		}
	}
}

// PollAssets collects new requests from the graph and submits as many
// queued requests as the worker accepts. It returns the number submitted.
func (h *Host) PollAssets() int {
	_ = h.shared.With(func(r *Render) error {
		h.backlog = r.AssetRequests(h.backlog)
		return nil
	})
	return h.submit()
}

func (h *Host) submit() int {
	if h.assets == nil {
		if len(h.backlog) > 0 {
			h.logger.Warn("no asset loader, dropping requests", "count", len(h.backlog))
			h.backlog = h.backlog[:0]
		}
		return 0
	}
	consumed, submitted := 0, 0
	for _, req := range h.backlog {
		err := h.assets.Submit(req)
		if errors.Is(err, asset.ErrQueueFull) {
			break
		}
		consumed++
		if err != nil {
			h.logger.Warn("asset submit failed", "path", req.Path, "err", err)
			continue
		}
		h.inflight++
		submitted++
	}
	h.backlog = append(h.backlog[:0], h.backlog[consumed:]...)
	return submitted
}

// InFlight returns the number of submitted requests without a response.
func (h *Host) InFlight() int { return h.inflight }

// Pending returns the number of requests waiting for room in the worker
// queue.
func (h *Host) Pending() int { return len(h.backlog) }

// DrainAssets adopts every available response without blocking and
// returns how many were handled.
func (h *Host) DrainAssets() int {
	if h.assets == nil {
		return 0
	}
	n := 0
	for {
		select {
		case resp := <-h.assets.Responses():
			h.adopt(resp)
			n++
		default:
			if n > 0 {
				h.submit()
			}
			return n
		}
	}
}

func (h *Host) adopt(resp asset.Response) {
	if h.inflight > 0 {
		h.inflight--
	}
	_ = h.shared.With(func(r *Render) error {
		if next, ok := r.AdoptAsset(resp); ok {
			h.backlog = append(h.backlog, next)
		}
		return nil
	})
}

// Service is the periodic control-thread housekeeping of a live host:
// drain feedback, adopt finished assets, then collect requests the graph
// raised since the last call, such as a sampler preset switch.
func (h *Host) Service() Stats {
	stats := h.DrainFeedback()
	h.DrainAssets()
	h.PollAssets()
	return stats
}

// WaitAssets blocks until every requested asset has been adopted or ctx
// is done. Offline renders use it so the first block already hears the
// loaded files.
func (h *Host) WaitAssets(ctx context.Context) error {
	for {
		h.PollAssets()
		if h.assets == nil || (h.inflight == 0 && len(h.backlog) == 0) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp := <-h.assets.Responses():
			h.adopt(resp)
		}
	}
}
