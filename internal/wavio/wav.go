// Package wavio reads and writes the WAV files used for samples, impulse
// responses and offline renders.
package wavio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadStereo decodes a WAV file into planar left/right channels. Mono files
// are duplicated; files with more than two channels are folded, even
// channels to the left and odd ones to the right.
func ReadStereo(path string) (left, right []float32, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()
	return DecodeStereo(f, path)
}

// DecodeStereo is ReadStereo for an already open stream; name is only used
// in errors.
func DecodeStereo(r io.ReadSeeker, path string) (left, right []float32, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}

	numCh := buf.Format.NumChannels
	sampleRate = buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, nil, 0, fmt.Errorf("invalid wav sample-rate: %d", sampleRate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, nil, 0, fmt.Errorf("empty wav data: %s", path)
	}

	left = make([]float32, frames)
	right = make([]float32, frames)
	switch numCh {
	case 1:
		copy(left, buf.Data[:frames])
		copy(right, left)
	case 2:
		for i := range frames {
			left[i] = buf.Data[i*2]
			right[i] = buf.Data[i*2+1]
		}
	default:
		nl := float32((numCh + 1) / 2)
		nr := float32(numCh / 2)
		for i := range frames {
			frame := buf.Data[i*numCh : (i+1)*numCh]
			for c, v := range frame {
				if c%2 == 0 {
					left[i] += v
				} else {
					right[i] += v
				}
			}
			left[i] /= nl
			right[i] /= nr
		}
	}
	return left, right, sampleRate, nil
}

// WriteStereoInterleaved writes interleaved stereo float samples as 16-bit PCM.
func WriteStereoInterleaved(path string, samples []float32, sampleRate int) error {
	return write(path, samples, sampleRate, 2)
}

// WriteStereo interleaves left/right and writes them as 16-bit PCM.
func WriteStereo(path string, left, right []float32, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("left/right length mismatch: %d != %d", len(left), len(right))
	}
	data := make([]float32, len(left)*2)
	for i := range left {
		data[i*2] = left[i]
		data[i*2+1] = right[i]
	}
	return write(path, data, sampleRate, 2)
}

// WriteMono writes a single channel as 16-bit PCM.
func WriteMono(path string, data []float32, sampleRate int) error {
	return write(path, data, sampleRate, 1)
}

func write(path string, data []float32, sampleRate, channels int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// Deinterleave splits interleaved stereo into left/right.
func Deinterleave(st []float32) (left, right []float32) {
	n := len(st) / 2
	left = make([]float32, n)
	right = make([]float32, n)
	for i := 0; i < n; i++ {
		left[i] = st[i*2]
		right[i] = st[i*2+1]
	}
	return left, right
}

// StereoRMS returns the RMS over all samples of an interleaved buffer.
func StereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
