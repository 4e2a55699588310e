package forecasting

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/bikecast/core/model"
)

// verticality above which the recurrence is numerically unusable.
const maxVerticality = 1 - 1e-6

const numericalRank = 1e-10

// Model is a fitted SSA forecaster. It is safe for concurrent use.
type Model struct {
	opts     Options
	rank     int
	singular []float64
	// coeffs[j] multiplies y[t-d+j] where d = len(coeffs).
	coeffs []float64
	// psi holds the error propagation weights of the recurrence, one per step.
	psi   []float64
	sigma float64
	z     float64
	// state is the tail of the training series the engines start from.
	state []float64
	// through is the date of the last observation in state, zero when unknown.
	through time.Time
}

// Fit trains an SSA forecaster on series. Only the most recent
// opts.TrainSize points are used.
func Fit(series []float64, opts Options) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(series) > opts.TrainSize {
		series = series[len(series)-opts.TrainSize:]
	}
	if len(series) < opts.minPoints() {
		return nil, fmt.Errorf("%w: need at least %d points, got %d", ErrInsufficientData, opts.minPoints(), len(series))
	}

	l := opts.WindowSize
	k := len(series) - l + 1
	traj := mat.NewDense(l, k, nil)
	for i := 0; i < l; i++ {
		for j := 0; j < k; j++ {
			traj.Set(i, j, series[i+j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(traj, mat.SVDThin); !ok {
		return nil, errors.New("ssa: singular value decomposition failed")
	}
	sv := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	rank := selectRank(sv, l, k, opts.MaxRank)
	coeffs, rank := recurrence(&u, rank)
	if opts.Stabilize {
		coeffs = stabilize(coeffs)
	}

	m := &Model{
		opts:     opts,
		rank:     rank,
		singular: sv,
		coeffs:   coeffs,
		psi:      propagation(coeffs, opts.Horizon),
		sigma:    residualDeviation(series, coeffs),
		z:        distuv.UnitNormal.Quantile(0.5 + opts.ConfidenceLevel/2),
		state:    tail(series, opts.SeriesLength),
	}
	return m, nil
}

// selectRank counts the singular values above the optimal hard threshold for
// an unknown noise level, bounded to [1, l-1] and by maxRank when set.
func selectRank(sv []float64, l, k, maxRank int) int {
	sorted := append([]float64(nil), sv...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	beta := float64(l) / float64(k)
	if beta > 1 {
		beta = 1 / beta
	}
	omega := 0.56*beta*beta*beta - 0.95*beta*beta + 1.82*beta + 1.43
	tau := omega * median
	// values at round-off level of the largest one are numerically zero
	if len(sv) > 0 && sv[0]*numericalRank > tau {
		tau = sv[0] * numericalRank
	}

	rank := 0
	for _, s := range sv {
		if s > tau {
			rank++
		}
	}
	if rank < 1 {
		rank = 1
	}
	if rank > l-1 {
		rank = l - 1
	}
	if maxRank > 0 && rank > maxRank {
		rank = maxRank
	}
	return rank
}

// recurrence derives the LRF coefficients from the leading rank columns of u.
// The rank is lowered while the verticality coefficient is too close to one.
func recurrence(u *mat.Dense, rank int) ([]float64, int) {
	l, _ := u.Dims()
	d := l - 1
	for ; rank > 0; rank-- {
		nu2 := 0.0
		for i := 0; i < rank; i++ {
			pi := u.At(d, i)
			nu2 += pi * pi
		}
		if nu2 >= maxVerticality {
			continue
		}
		coeffs := make([]float64, d)
		for i := 0; i < rank; i++ {
			pi := u.At(d, i)
			for j := 0; j < d; j++ {
				coeffs[j] += pi * u.At(j, i)
			}
		}
		for j := range coeffs {
			coeffs[j] /= 1 - nu2
		}
		return coeffs, rank
	}
	return make([]float64, d), 0
}

// propagation returns psi weights of the recurrence seen as an AR process:
// the variance of the h-step error is sigma² * sum(psi[0..h-1]²).
func propagation(coeffs []float64, horizon int) []float64 {
	d := len(coeffs)
	psi := make([]float64, horizon)
	psi[0] = 1
	for h := 1; h < horizon; h++ {
		for lag := 1; lag <= h && lag <= d; lag++ {
			psi[h] += coeffs[d-lag] * psi[h-lag]
		}
	}
	return psi
}

// residualDeviation is the RMS of the in-sample one-step errors.
func residualDeviation(series, coeffs []float64) float64 {
	d := len(coeffs)
	var sum float64
	var n int
	for t := d; t < len(series); t++ {
		e := series[t] - apply(coeffs, series[t-d:t])
		sum += e * e
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

func apply(coeffs, window []float64) float64 {
	var y float64
	for j, c := range coeffs {
		y += c * window[j]
	}
	return y
}

// forecast runs the recurrence horizon steps ahead of buf.
func (m *Model) forecast(buf []float64) model.ForecastResult {
	h := m.opts.Horizon
	d := len(m.coeffs)
	res := model.ForecastResult{
		Forecast:   make([]float64, h),
		LowerBound: make([]float64, h),
		UpperBound: make([]float64, h),
	}
	work := make([]float64, d, d+h)
	copy(work, buf[len(buf)-d:])
	var cum float64
	for i := 0; i < h; i++ {
		y := apply(m.coeffs, work[len(work)-d:])
		work = append(work, y)
		cum += m.psi[i] * m.psi[i]
		band := m.z * m.sigma * math.Sqrt(cum)
		res.Forecast[i] = y
		res.LowerBound[i] = y - band
		res.UpperBound[i] = y + band
	}
	return res
}

// Transform replays values through a copy of the model state. For each value
// it returns the forecast made before the value is consumed, so the first
// entry of every result is a one-step-ahead prediction of that value.
func (m *Model) Transform(values []float64) []model.ForecastResult {
	buf := append([]float64(nil), m.state...)
	out := make([]model.ForecastResult, 0, len(values))
	for _, v := range values {
		out = append(out, m.forecast(buf))
		buf = push(buf, v, m.opts.SeriesLength)
	}
	return out
}

// NewEngine returns a prediction engine positioned at the end of the training
// series.
func (m *Model) NewEngine() *Engine {
	return &Engine{model: m, buf: append([]float64(nil), m.state...)}
}

// WithThrough returns a copy of the model marked as positioned after the
// observation dated t.
func (m *Model) WithThrough(t time.Time) *Model {
	c := *m
	c.through = t
	return &c
}

// Through is the date of the last observation the model state includes. It
// is zero when the model was never marked.
func (m *Model) Through() time.Time { return m.through }

// Options returns the options the model was fitted with.
func (m *Model) Options() Options { return m.opts }

// Rank is the number of singular components used by the recurrence.
func (m *Model) Rank() int { return m.rank }

// Coefficients returns a copy of the recurrence coefficients, oldest lag first.
func (m *Model) Coefficients() []float64 { return append([]float64(nil), m.coeffs...) }

// SingularValues returns the singular values of the trajectory matrix.
func (m *Model) SingularValues() []float64 { return append([]float64(nil), m.singular...) }

// ResidualDeviation is the standard deviation of the one-step training error.
func (m *Model) ResidualDeviation() float64 { return m.sigma }

func tail(s []float64, n int) []float64 {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append([]float64(nil), s...)
}

func push(buf []float64, v float64, limit int) []float64 {
	buf = append(buf, v)
	if len(buf) > limit {
		buf = append(buf[:0], buf[len(buf)-limit:]...)
	}
	return buf
}
