package analysis

import (
	"fmt"
	"math"
)

const (
	bandFFTSize = 4096
	bandHop     = 2048
)

// Band is a frequency range in Hz.
type Band struct {
	Name string
	LoHz float64
	HiHz float64
}

// Window is a time range in milliseconds from the aligned start.
type Window struct {
	Name    string
	StartMs float64
	EndMs   float64
}

// DefaultBands splits the audible range into seven octave-ish bands.
var DefaultBands = []Band{
	{"sub-bass", 20, 100},
	{"bass", 100, 300},
	{"low-mid", 300, 1000},
	{"mid", 1000, 3000},
	{"hi-mid", 3000, 6000},
	{"high", 6000, 12000},
	{"air", 12000, 20000},
}

// DefaultWindows follows the life of a struck or plucked note.
var DefaultWindows = []Window{
	{"attack", 0, 20},
	{"early", 20, 100},
	{"sustain", 100, 500},
	{"decay", 500, 2000},
	{"late", 2000, 4000},
}

// BandDiff compares one band inside one time window.
type BandDiff struct {
	Window string `json:"window"`
	Band   string `json:"band"`
	// Frames is the number of STFT frames averaged.
	Frames int `json:"frames"`
	// RMSEDB is the RMS of the per-bin level difference.
	RMSEDB float64 `json:"rmse_db"`
	RefDB  float64 `json:"ref_db"`
	CandDB float64 `json:"cand_db"`
}

// DiffDB is the candidate level relative to the reference.
func (d BandDiff) DiffDB() float64 { return d.CandDB - d.RefDB }

// CompareBands aligns candidate to reference by cross correlation and
// reports the averaged STFT level per band and window. Levels are not
// normalized. Windows past the end of either signal are skipped.
func CompareBands(reference, candidate []float64, sampleRate int, windows []Window, bands []Band) ([]BandDiff, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	ref, cand := reference, candidate
	if len(ref) > 1 && len(cand) > 1 {
		maxLag := max(1, min(sampleRate/2, len(ref)-1, len(cand)-1))
		ref, cand = alignByLag(ref, cand, estimateLag(ref, cand, maxLag))
	}
	n := min(len(ref), len(cand))

	sp, err := newSpectrum(bandFFTSize)
	if err != nil {
		return nil, err
	}
	nBins := bandFFTSize / 2
	binHz := float64(sampleRate) / bandFFTSize
	magRef := make([]float64, nBins)
	magCand := make([]float64, nBins)
	avgRef := make([]float64, nBins)
	avgCand := make([]float64, nBins)

	var out []BandDiff
	for _, w := range windows {
		start := int(w.StartMs / 1000 * float64(sampleRate))
		end := min(int(w.EndMs/1000*float64(sampleRate)), n)
		if start >= end {
			continue
		}
		clear(avgRef)
		clear(avgCand)
		frames := 0
		// Windows shorter than one frame get a single zero-padded frame.
		for pos := start; pos < end; pos += bandHop {
			stop := min(pos+bandFFTSize, end)
			if frames > 0 && stop-pos < bandFFTSize {
				break
			}
			if err := sp.magnitudes(magRef, ref[pos:stop]); err != nil {
				return nil, err
			}
			if err := sp.magnitudes(magCand, cand[pos:stop]); err != nil {
				return nil, err
			}
			for k := range avgRef {
				avgRef[k] += magRef[k]
				avgCand[k] += magCand[k]
			}
			frames++
		}
		scale := 1 / float64(frames)

		for _, b := range bands {
			lo := max(1, int(b.LoHz/binHz))
			hi := min(nBins-1, int(b.HiHz/binHz))
			if lo > hi {
				continue
			}
			var sumSq, refPow, candPow float64
			for k := lo; k <= hi; k++ {
				r, c := avgRef[k]*scale, avgCand[k]*scale
				d := linToDB(r) - linToDB(c)
				sumSq += d * d
				refPow += r * r
				candPow += c * c
			}
			cnt := float64(hi - lo + 1)
			out = append(out, BandDiff{
				Window: w.Name,
				Band:   b.Name,
				Frames: frames,
				RMSEDB: math.Sqrt(sumSq / cnt),
				RefDB:  10 * math.Log10(math.Max(refPow/cnt, 1e-24)),
				CandDB: 10 * math.Log10(math.Max(candPow/cnt, 1e-24)),
			})
		}
	}
	return out, nil
}
