package asset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/internal/wavio"
)

// Config sizes a Worker.
type Config struct {
	SampleRate    float64
	PartitionSize int
	// Requests and Responses are the channel capacities.
	Requests  int
	Responses int
	Logger    *slog.Logger
}

// Loader decodes one file at a sample rate. The default reads WAV files.
type Loader func(path string, sampleRate int) (*Sample, error)

// Worker loads files on its own goroutine. Decoded samples are cached by
// path and shared by every device that asks for them.
type Worker struct {
	cfg       Config
	logger    *slog.Logger
	load      Loader
	requests  chan Request
	responses chan Response

	mu    sync.Mutex
	cache map[string]*Sample
}

// NewWorker creates a worker; call Run to start it.
func NewWorker(cfg Config) *Worker {
	if cfg.Requests < 1 {
		cfg.Requests = 16
	}
	if cfg.Responses < 1 {
		cfg.Responses = 16
	}
	if cfg.PartitionSize <= 0 {
		cfg.PartitionSize = dsp.DefaultPartitionSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:       cfg,
		logger:    logger,
		load:      LoadWAV,
		requests:  make(chan Request, cfg.Requests),
		responses: make(chan Response, cfg.Responses),
		cache:     make(map[string]*Sample),
	}
}

// SetLoader replaces the file decoder. It must be called before Run.
func (w *Worker) SetLoader(l Loader) { w.load = l }

// Submit queues a request without blocking.
func (w *Worker) Submit(req Request) error {
	select {
	case w.requests <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// Responses delivers finished loads. It is never closed.
func (w *Worker) Responses() <-chan Response { return w.responses }

// Run serves requests until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.requests:
			resp := w.Handle(req)
			select {
			case w.responses <- resp:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Handle loads one request synchronously.
func (w *Worker) Handle(req Request) Response {
	resp := Response{Request: req}
	switch req.Kind {
	case KindSample:
		resp.Sample, resp.Err = w.sample(req.Path)
	case KindImpulseResponse:
		resp.Convolver, resp.Err = w.impulseResponse(req.Path)
	default:
		resp.Err = fmt.Errorf("%w: %s", ErrUnsupported, req.Kind)
	}
	if resp.Err != nil {
		w.logger.Warn("asset load failed", "kind", req.Kind, "path", req.Path, "err", resp.Err)
	} else {
		w.logger.Debug("asset loaded", "kind", req.Kind, "path", req.Path)
	}
	return resp
}

func (w *Worker) sample(path string) (*Sample, error) {
	w.mu.Lock()
	s, ok := w.cache[path]
	w.mu.Unlock()
	if ok {
		return s, nil
	}
	s, err := w.load(path, int(w.cfg.SampleRate))
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.cache[path] = s
	w.mu.Unlock()
	return s, nil
}

func (w *Worker) impulseResponse(path string) (*dsp.Convolver, error) {
	s, err := w.sample(path)
	if err != nil {
		return nil, err
	}
	left, right := normalizeIR(s.Left, s.Right)
	conv, err := dsp.NewConvolver(left, right, w.cfg.PartitionSize)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", path, err)
	}
	return conv, nil
}

// normalizeIR scales the pair to unit peak when it is louder than that.
// The cached sample is left untouched.
func normalizeIR(left, right []float32) ([]float32, []float32) {
	peak := 0.0
	for _, ch := range [][]float32{left, right} {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}
	if peak <= 1 {
		return left, right
	}
	g := float32(1 / peak)
	l := make([]float32, len(left))
	r := make([]float32, len(right))
	for i, v := range left {
		l[i] = v * g
	}
	for i, v := range right {
		r[i] = v * g
	}
	return l, r
}

// LoadWAV decodes a WAV file to stereo and resamples it to sampleRate.
func LoadWAV(path string, sampleRate int) (*Sample, error) {
	left, right, rate, err := wavio.ReadStereo(path)
	if err != nil {
		return nil, err
	}
	return newSample(path, left, right, rate, sampleRate)
}

// DecodeWAV is LoadWAV for in-memory data, for hosts without a file system.
func DecodeWAV(r io.ReadSeeker, path string, sampleRate int) (*Sample, error) {
	left, right, rate, err := wavio.DecodeStereo(r, path)
	if err != nil {
		return nil, err
	}
	return newSample(path, left, right, rate, sampleRate)
}

func newSample(path string, left, right []float32, rate, sampleRate int) (*Sample, error) {
	var err error
	if left, err = dsp.ResampleOffline(left, rate, sampleRate); err != nil {
		return nil, err
	}
	if right, err = dsp.ResampleOffline(right, rate, sampleRate); err != nil {
		return nil, err
	}
	n := min(len(left), len(right))
	return &Sample{
		Path:       path,
		Left:       left[:n],
		Right:      right[:n],
		SampleRate: float64(sampleRate),
	}, nil
}
