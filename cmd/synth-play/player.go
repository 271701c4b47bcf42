package main

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/realtime"
)

// streamReader adapts the audio callback to the io.Reader oto pulls from.
// oto calls Read from its own goroutine.
type streamReader struct {
	cb  *realtime.Callback
	buf []float32
}

func newStreamReader(cb *realtime.Callback, maxFrames int) *streamReader {
	return &streamReader{cb: cb, buf: make([]float32, 2*maxFrames)}
}

func (r *streamReader) Read(p []byte) (int, error) {
	// 2 channels of float32 per frame.
	frames := len(p) / 8
	if frames > len(r.buf)/2 {
		frames = len(r.buf) / 2
	}
	if frames == 0 {
		return 0, nil
	}
	block := r.buf[:2*frames]
	r.cb.Fill(block)
	for i, v := range block {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return 8 * frames, nil
}

type output struct {
	ctx    *oto.Context
	player *oto.Player
}

func openOutput(sampleRate int, bufferFrames int, r *streamReader) (*output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   framesToDuration(bufferFrames, sampleRate),
	})
	if err != nil {
		return nil, err
	}
	<-ready
	p := ctx.NewPlayer(r)
	p.Play()
	return &output{ctx: ctx, player: p}, nil
}

func (o *output) Close() error {
	return o.player.Close()
}
