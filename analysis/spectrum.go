package analysis

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// spectrum computes Hann-windowed magnitude spectra of a fixed size.
type spectrum struct {
	n      int
	plan   *algofft.Plan[complex128]
	window []float64
	in     []complex128
	out    []complex128
}

func newSpectrum(n int) (*spectrum, error) {
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan %d: %w", n, err)
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return &spectrum{
		n:      n,
		plan:   plan,
		window: w,
		in:     make([]complex128, n),
		out:    make([]complex128, n),
	}, nil
}

// magnitudes writes |X[k]| for k in [0, n/2) into dst. x shorter than n is
// zero padded.
func (s *spectrum) magnitudes(dst, x []float64) error {
	for i := range s.in {
		v := 0.0
		if i < len(x) {
			v = x[i] * s.window[i]
		}
		s.in[i] = complex(v, 0)
	}
	if err := s.plan.Forward(s.out, s.in); err != nil {
		return err
	}
	for k := range dst[:s.n/2] {
		re, im := real(s.out[k]), imag(s.out[k])
		dst[k] = math.Hypot(re, im)
	}
	return nil
}

// crossCorrelate returns c[k] = sum a[i+k]*b[i] for lags in [-maxLag, maxLag],
// indexed by k+maxLag.
func crossCorrelate(a, b []float64, maxLag int) ([]float64, error) {
	n := nextPow2(len(a) + len(b))
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan %d: %w", n, err)
	}
	fa := make([]complex128, n)
	fb := make([]complex128, n)
	for i, v := range a {
		fa[i] = complex(v, 0)
	}
	for i, v := range b {
		fb[i] = complex(v, 0)
	}
	sa := make([]complex128, n)
	sb := make([]complex128, n)
	if err := plan.Forward(sa, fa); err != nil {
		return nil, err
	}
	if err := plan.Forward(sb, fb); err != nil {
		return nil, err
	}
	for k := range sa {
		sa[k] *= complex(real(sb[k]), -imag(sb[k]))
	}
	if err := plan.Inverse(fa, sa); err != nil {
		return nil, err
	}
	out := make([]float64, 2*maxLag+1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := lag
		if idx < 0 {
			idx += n
		}
		out[lag+maxLag] = real(fa[idx])
	}
	return out, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
