package irsynth

import (
	"math"
	"sort"

	pdebc "github.com/cwbudde/algo-pde/bc"
)

// plateGrid is the number of interior points per axis of the finite
// difference plate.
const plateGrid = 96

// PlateModes returns up to maxModes eigenfrequencies in [fundamental, maxF]
// of a simply supported orthotropic plate, sorted ascending.
//
// The mode shapes of a simply supported plate are products of Dirichlet
// Laplacian eigenvectors along each axis, so the biharmonic eigenvalue
// follows from the 1-D spectra λx, λy:
//
//	ω² ∝ S·λx² + 2·√S·λx·λy + λy²
//
// ratio is Lx/Ly and stiffness is S = Dx/Dy. The 1-D spectra come from the
// discrete operator, which compresses the highest modes slightly compared
// to the continuous plate.
func PlateModes(fundamental, maxF float64, maxModes int, ratio, stiffness float64) []float64 {
	if maxModes < 1 || fundamental <= 0 || maxF < fundamental {
		return nil
	}
	lx := 1.0
	ly := 1.0 / ratio
	ex := pdebc.EigenvaluesDirichlet(plateGrid, lx/(plateGrid+1))
	ey := pdebc.EigenvaluesDirichlet(plateGrid, ly/(plateGrid+1))

	sqrtS := math.Sqrt(stiffness)
	omega := func(x, y float64) float64 {
		return math.Sqrt(stiffness*x*x + 2*sqrtS*x*y + y*y)
	}
	ref := omega(ex[0], ey[0])

	freqs := make([]float64, 0, maxModes)
	for _, x := range ex {
		if fundamental*omega(x, ey[0])/ref > maxF {
			break
		}
		for _, y := range ey {
			f := fundamental * omega(x, y) / ref
			if f > maxF {
				break
			}
			freqs = append(freqs, f)
		}
	}
	sort.Float64s(freqs)
	if len(freqs) > maxModes {
		freqs = freqs[:maxModes]
	}
	return freqs
}
