package analysis

import (
	"math"
)

const (
	envFrame       = 256
	envHop         = 128
	compareFFTSize = 4096
	// maxCompareSeconds bounds the aligned region that is scored.
	maxCompareSeconds = 12
)

// Metrics holds distance measurements between a render and a reference.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`

	// Score is a weighted distance in [0,1]; 0 is identical.
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare aligns candidate to reference and scores how far apart they are.
// Both signals are mono at sampleRate and are level-matched first.
func Compare(reference, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	ref := normalizeRMS(trimSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimSilence(candidate, 1e-6), 0.1)
	if sampleRate <= 0 || len(ref) < 2 || len(cand) < 2 {
		return m
	}

	maxLag := max(1, min(sampleRate/2, len(ref)-1, len(cand)-1))
	m.LagSamples = estimateLag(ref, cand, maxLag)
	ref, cand = alignByLag(ref, cand, m.LagSamples)
	n := min(len(ref), len(cand), sampleRate*maxCompareSeconds)
	if n < envFrame {
		return m
	}
	ref, cand = ref[:n], cand[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmsDiff(ref, cand)

	refEnv := envelopeDB(ref)
	candEnv := envelopeDB(cand)
	m.EnvelopeRMSEDB = rmsDiff(refEnv, candEnv)
	m.SpectralRMSEDB = spectralRMSEDB(ref, cand)

	hop := float64(envHop) / float64(sampleRate)
	m.RefDecayDBPerS = decaySlope(refEnv, hop)
	m.CandDecayDBPerS = decaySlope(candEnv, hop)
	if isFinite(m.RefDecayDBPerS) && isFinite(m.CandDecayDBPerS) {
		m.DecayDiffDBPerS = math.Abs(m.RefDecayDBPerS - m.CandDecayDBPerS)
	}

	m.Score = clamp01(0.30*clamp01(m.TimeRMSE/0.25) +
		0.25*clamp01(m.EnvelopeRMSEDB/30) +
		0.30*clamp01(m.SpectralRMSEDB/30) +
		0.15*clamp01(m.DecayDiffDBPerS/40))
	m.Similarity = math.Exp(-4 * m.Score)
	return m
}

func trimSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// estimateLag returns the shift of cand against ref with the largest cross
// correlation. A positive lag means cand starts lag samples into ref.
func estimateLag(ref, cand []float64, maxLag int) int {
	c, err := crossCorrelate(ref, cand, maxLag)
	if err != nil {
		return 0
	}
	best, bestLag := math.Inf(-1), 0
	for i, v := range c {
		if v > best {
			best, bestLag = v, i-maxLag
		}
	}
	return bestLag
}

func alignByLag(ref, cand []float64, lag int) ([]float64, []float64) {
	switch {
	case lag >= len(ref) || -lag >= len(cand):
		return nil, nil
	case lag >= 0:
		return ref[lag:], cand
	default:
		return ref, cand[-lag:]
	}
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// rmsDiff is the RMS of a-b over their common length.
func rmsDiff(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// envelopeDB is the short-time RMS level in dB.
func envelopeDB(x []float64) []float64 {
	if len(x) < envFrame {
		return nil
	}
	out := make([]float64, 1+(len(x)-envFrame)/envHop)
	for i := range out {
		out[i] = linToDB(rms(x[i*envHop : i*envHop+envFrame]))
	}
	return out
}

func spectralRMSEDB(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 512 {
		return 0
	}
	size := min(nextPow2(n), compareFFTSize)
	sp, err := newSpectrum(size)
	if err != nil {
		return 0
	}
	ma := make([]float64, size/2)
	mb := make([]float64, size/2)
	if sp.magnitudes(ma, a[:min(n, size)]) != nil || sp.magnitudes(mb, b[:min(n, size)]) != nil {
		return 0
	}
	var sum float64
	for k := 1; k < len(ma); k++ {
		d := linToDB(ma[k]) - linToDB(mb[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(ma)-1))
}

// decaySlope fits a line to the envelope from its peak down to 60 dB
// below it and returns the slope in dB per second.
func decaySlope(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peakIdx := 0
	for i, v := range env {
		if v > env[peakIdx] {
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}
	end := len(env)
	for i := start; i < len(env); i++ {
		if env[i] < env[peakIdx]-60 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		sx += x
		sy += env[i]
		sxx += x * x
		sxy += x * env[i]
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
