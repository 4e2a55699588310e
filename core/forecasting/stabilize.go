package forecasting

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

const rootTolerance = 1e-9

// stabilize rescales characteristic roots of the recurrence lying outside the
// unit circle onto it and rebuilds the coefficients from the roots. Roots that
// are already stable are left alone, so is the input when none needs fixing.
func stabilize(coeffs []float64) []float64 {
	d := len(coeffs)
	if d == 0 {
		return coeffs
	}
	// Companion matrix of y[t] = sum_k a_k y[t-k] with a_k = coeffs[d-k].
	comp := mat.NewDense(d, d, nil)
	for k := 1; k <= d; k++ {
		comp.Set(0, k-1, coeffs[d-k])
	}
	for i := 1; i < d; i++ {
		comp.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(comp, mat.EigenNone); !ok {
		return coeffs
	}
	roots := eig.Values(nil)
	changed := false
	for i, r := range roots {
		if abs := cmplx.Abs(r); abs > 1+rootTolerance {
			roots[i] = r / complex(abs, 0)
			changed = true
		}
	}
	if !changed {
		return coeffs
	}

	// poly holds z^d + p[1] z^(d-1) + ... + p[d].
	poly := make([]complex128, d+1)
	poly[0] = 1
	for n, r := range roots {
		for j := n + 1; j >= 1; j-- {
			poly[j] -= r * poly[j-1]
		}
	}
	out := make([]float64, d)
	for k := 1; k <= d; k++ {
		out[d-k] = -real(poly[k])
	}
	return out
}
