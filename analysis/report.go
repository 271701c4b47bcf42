// Package analysis measures rendered audio: level and spectral summaries of
// a single render, and distance metrics against a reference recording.
package analysis

import (
	"math"
)

const reportFFTSize = 4096

// Report summarizes one interleaved stereo render.
type Report struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`

	PeakLeft  float64 `json:"peak_left"`
	PeakRight float64 `json:"peak_right"`
	PeakDB    float64 `json:"peak_db"`
	RMS       float64 `json:"rms"`
	RMSDB     float64 `json:"rms_db"`
	DCOffset  float64 `json:"dc_offset"`
	// Clipped counts samples at or beyond full scale.
	Clipped int `json:"clipped"`
	// CentroidHz is the magnitude-weighted mean frequency of the mono mix.
	CentroidHz float64 `json:"centroid_hz"`
}

// Analyze builds a Report for interleaved stereo samples.
func Analyze(interleaved []float32, sampleRate int) Report {
	r := Report{SampleRate: sampleRate, Frames: len(interleaved) / 2}
	if r.Frames == 0 || sampleRate <= 0 {
		r.PeakDB, r.RMSDB = linToDB(0), linToDB(0)
		return r
	}

	var sum, sq float64
	for i := 0; i+1 < len(interleaved); i += 2 {
		l, rr := float64(interleaved[i]), float64(interleaved[i+1])
		r.PeakLeft = math.Max(r.PeakLeft, math.Abs(l))
		r.PeakRight = math.Max(r.PeakRight, math.Abs(rr))
		sum += l + rr
		sq += l*l + rr*rr
		if math.Abs(l) >= 1 {
			r.Clipped++
		}
		if math.Abs(rr) >= 1 {
			r.Clipped++
		}
	}
	n := float64(2 * r.Frames)
	r.RMS = math.Sqrt(sq / n)
	r.DCOffset = sum / n
	r.PeakDB = linToDB(math.Max(r.PeakLeft, r.PeakRight))
	r.RMSDB = linToDB(r.RMS)
	r.CentroidHz = spectralCentroid(Mono(interleaved), sampleRate)
	return r
}

// Mono averages interleaved stereo into one channel.
func Mono(interleaved []float32) []float64 {
	out := make([]float64, len(interleaved)/2)
	for i := range out {
		out[i] = 0.5 * (float64(interleaved[2*i]) + float64(interleaved[2*i+1]))
	}
	return out
}

// spectralCentroid averages the magnitude spectrum over non-overlapping
// frames and returns its centroid, or 0 for silence.
func spectralCentroid(x []float64, sampleRate int) float64 {
	sp, err := newSpectrum(reportFFTSize)
	if err != nil {
		return 0
	}
	acc := make([]float64, reportFFTSize/2)
	mag := make([]float64, reportFFTSize/2)
	for off := 0; off < len(x); off += reportFFTSize {
		if err := sp.magnitudes(mag, x[off:min(off+reportFFTSize, len(x))]); err != nil {
			return 0
		}
		for k, m := range mag {
			acc[k] += m
		}
	}
	binHz := float64(sampleRate) / reportFFTSize
	var num, den float64
	for k := 1; k < len(acc); k++ {
		num += float64(k) * binHz * acc[k]
		den += acc[k]
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}
