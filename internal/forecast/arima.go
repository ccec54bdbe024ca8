package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model is an autoregressive approximation of a seasonal ARIMA model,
// fitted by conditional least squares. Moving-average terms are folded
// into the autoregressive lag order.
type Model struct {
	order    Order
	seasonal SeasonalOrder

	lags    []int     // regressor lags on the differenced scale
	coeffs  []float64 // intercept followed by one coefficient per lag
	sigma   float64   // residual standard deviation on the differenced scale
	history []float64 // observations on the original scale
}

// NewModel returns an unfitted model with the given orders.
func NewModel(order Order, seasonal SeasonalOrder) *Model {
	m := &Model{order: order, seasonal: seasonal}
	for i := 1; i <= order.P+order.Q; i++ {
		m.lags = append(m.lags, i)
	}
	if seasonal.M > 1 {
		for i := 1; i <= seasonal.P; i++ {
			m.lags = append(m.lags, i*seasonal.M)
		}
	}
	return m
}

// maxLag is the furthest-back observation any regressor reaches.
func (m *Model) maxLag() int {
	if len(m.lags) == 0 {
		return 0
	}
	return m.lags[len(m.lags)-1]
}

// totalDiff is how many observations differencing consumes.
func (m *Model) totalDiff() int {
	d := m.order.D
	if m.seasonal.M > 1 {
		d += m.seasonal.D * m.seasonal.M
	}
	return d
}

// difference applies the non-seasonal and seasonal differencing of the
// model's orders.
func (m *Model) difference(data []float64) []float64 {
	out := data
	for i := 0; i < m.order.D; i++ {
		out = diff(out, 1)
	}
	if m.seasonal.M > 1 {
		for i := 0; i < m.seasonal.D; i++ {
			out = diff(out, m.seasonal.M)
		}
	}
	return out
}

func diff(data []float64, lag int) []float64 {
	if len(data) <= lag {
		return nil
	}
	out := make([]float64, len(data)-lag)
	for i := range out {
		out[i] = data[i+lag] - data[i]
	}
	return out
}

// Fit estimates the model coefficients on data by least squares.
func (m *Model) Fit(data []float64) error {
	y := m.difference(data)
	maxLag := m.maxLag()
	nRows := len(y) - maxLag
	nCols := len(m.lags) + 1
	if nRows < nCols {
		return fmt.Errorf("not enough observations: need at least %d after differencing, have %d",
			maxLag+nCols, len(y))
	}

	x := mat.NewDense(nRows, nCols, nil)
	b := mat.NewVecDense(nRows, nil)
	for t := 0; t < nRows; t++ {
		x.Set(t, 0, 1)
		for j, lag := range m.lags {
			x.Set(t, j+1, y[maxLag+t-lag])
		}
		b.SetVec(t, y[maxLag+t])
	}

	var qr mat.QR
	qr.Factorize(x)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return fmt.Errorf("solving least squares: %w", err)
	}

	m.coeffs = make([]float64, nCols)
	for i := range m.coeffs {
		m.coeffs[i] = sol.AtVec(i)
	}

	// Residual variance, with a degrees-of-freedom correction.
	var sse float64
	for t := 0; t < nRows; t++ {
		pred := m.coeffs[0]
		for j, lag := range m.lags {
			pred += m.coeffs[j+1] * y[maxLag+t-lag]
		}
		resid := b.AtVec(t) - pred
		sse += resid * resid
	}
	dof := nRows - nCols
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(sse / float64(dof))

	m.history = append([]float64(nil), data...)
	return nil
}

// Extend appends new observations to the model's history without
// re-estimating the coefficients.
func (m *Model) Extend(data []float64) {
	m.history = append(m.history, data...)
}

// Forecast predicts steps values ahead of the model's history, returning
// the mean together with the lower and upper confidence bounds at the
// given alpha.
func (m *Model) Forecast(steps int, alpha float64) (mean, lower, upper []float64, err error) {
	if m.coeffs == nil {
		return nil, nil, nil, fmt.Errorf("model has not been fitted")
	}
	if steps < 1 {
		return nil, nil, nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	// Forecast recursively on the differenced scale, then integrate.
	y := m.difference(m.history)
	maxLag := m.maxLag()
	if len(y) < maxLag {
		return nil, nil, nil, fmt.Errorf("history too short to forecast")
	}
	work := append([]float64(nil), y...)
	for h := 0; h < steps; h++ {
		pred := m.coeffs[0]
		for j, lag := range m.lags {
			pred += m.coeffs[j+1] * work[len(work)-lag]
		}
		work = append(work, pred)
	}
	diffForecast := work[len(y):]

	mean = m.integrate(diffForecast)

	// Forecast error variance via the psi-weight recursion of the
	// autoregressive representation.
	psi := m.psiWeights(steps)
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - alpha/2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	var cum float64
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		width := z * m.sigma * math.Sqrt(cum)
		lower[h] = mean[h] - width
		upper[h] = mean[h] + width
	}
	return mean, lower, upper, nil
}

// integrate undoes the model's differencing for a run of forecasts that
// follows directly after the history.
func (m *Model) integrate(diffForecast []float64) []float64 {
	// Reconstruct level forecasts by re-running each differencing stage
	// forward from the tail of the partially-differenced history.
	stages := [][]float64{m.history}
	cur := m.history
	for i := 0; i < m.order.D; i++ {
		cur = diff(cur, 1)
		stages = append(stages, cur)
	}
	if m.seasonal.M > 1 {
		for i := 0; i < m.seasonal.D; i++ {
			cur = diff(cur, m.seasonal.M)
			stages = append(stages, cur)
		}
	}

	forecast := append([]float64(nil), diffForecast...)
	// Walk the stages backwards, undoing seasonal differencing first.
	lags := make([]int, 0, len(stages)-1)
	for i := 0; i < m.order.D; i++ {
		lags = append(lags, 1)
	}
	if m.seasonal.M > 1 {
		for i := 0; i < m.seasonal.D; i++ {
			lags = append(lags, m.seasonal.M)
		}
	}
	for s := len(lags) - 1; s >= 0; s-- {
		lag := lags[s]
		base := stages[s]
		undone := make([]float64, len(forecast))
		for h := range forecast {
			var prev float64
			if h < lag {
				prev = base[len(base)-lag+h]
			} else {
				prev = undone[h-lag]
			}
			undone[h] = forecast[h] + prev
		}
		forecast = undone
	}
	return forecast
}

// psiWeights computes the first n weights of the moving-average
// representation of the fitted autoregression.
func (m *Model) psiWeights(n int) []float64 {
	ar := make([]float64, m.maxLag()+1)
	for j, lag := range m.lags {
		ar[lag] = m.coeffs[j+1]
	}
	psi := make([]float64, n)
	if n == 0 {
		return psi
	}
	psi[0] = 1
	for j := 1; j < n; j++ {
		var sum float64
		for i := 1; i <= j && i < len(ar); i++ {
			sum += ar[i] * psi[j-i]
		}
		psi[j] = sum
	}
	return psi
}
