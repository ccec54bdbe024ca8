package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourlySine builds n hourly observations of a noiseless daily cycle.
func hourlySine(n int) Series {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := Series{}
	for i := 0; i < n; i++ {
		series.Timestamps = append(series.Timestamps, base.Add(time.Duration(i)*time.Hour))
		series.Values = append(series.Values, 20+5*math.Sin(2*math.Pi*float64(i)/24))
	}
	return series
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Order = Order{P: 2, D: 1, Q: 0}
	cfg.SeasonalOrder = SeasonalOrder{M: 24, P: 1, D: 1}
	cfg.HoursForecast = 12
	return cfg
}

func TestRunForecastShape(t *testing.T) {
	series := hourlySine(24 * 14)
	cfg := testConfig()

	result, err := Run(series, cfg)
	require.NoError(t, err)

	require.Len(t, result.Mean, 12)
	require.Len(t, result.Lower, 12)
	require.Len(t, result.Upper, 12)
	require.Len(t, result.Timestamps, 12)

	// Forecast timestamps continue hourly from the last observation.
	last := series.Timestamps[len(series.Timestamps)-1]
	assert.Equal(t, last.Add(time.Hour), result.Timestamps[0])
	assert.Equal(t, last.Add(12*time.Hour), result.Timestamps[11])

	// Confidence band brackets the mean.
	for i := range result.Mean {
		assert.LessOrEqual(t, result.Lower[i], result.Mean[i])
		assert.GreaterOrEqual(t, result.Upper[i], result.Mean[i])
	}

	// Cross-validation ran and produced finite metrics.
	require.NotNil(t, result.Metrics)
	assert.False(t, math.IsNaN(result.Metrics.RMSE))
	assert.False(t, math.IsNaN(result.Metrics.MAPE))

	// On a noiseless cycle the fit should be close.
	assert.Less(t, result.Metrics.RMSE, 1.0)
}

func TestRunSkipsCV(t *testing.T) {
	series := hourlySine(24 * 14)
	cfg := testConfig()
	cfg.PerformCV = false

	result, err := Run(series, cfg)
	require.NoError(t, err)
	assert.Nil(t, result.Metrics)
}

func TestRunCVFailureIsNotFatal(t *testing.T) {
	// Long enough to fit, far too short to build the cross-validator.
	series := hourlySine(24*3 + 5)
	cfg := testConfig()
	cfg.TrainFraction = 0.99

	result, err := Run(series, cfg)
	require.NoError(t, err)
	assert.Nil(t, result.Metrics)
	assert.Len(t, result.Mean, 12)
}

func TestRunRejectsBadInput(t *testing.T) {
	cfg := testConfig()

	_, err := Run(Series{}, cfg)
	assert.Error(t, err)

	// Non-increasing timestamps.
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = Run(Series{
		Timestamps: []time.Time{ts, ts},
		Values:     []float64{1, 2},
	}, cfg)
	assert.Error(t, err)

	cfg.HoursForecast = 0
	_, err = Run(hourlySine(24*7), cfg)
	assert.Error(t, err)
}

func TestRunCVRefit(t *testing.T) {
	series := hourlySine(24 * 14)
	cfg := testConfig()
	cfg.CVRefit = true

	result, err := Run(series, cfg)
	require.NoError(t, err)
	require.NotNil(t, result.Metrics)
}

func TestBuildFolds(t *testing.T) {
	folds, err := buildFolds(100, 0.8, 4)
	require.NoError(t, err)
	require.Len(t, folds, 4)

	// Folds tile the last fifth of the data without gaps.
	assert.Equal(t, 80, folds[0].testStart)
	assert.Equal(t, 100, folds[3].testEnd)
	for i := 1; i < len(folds); i++ {
		assert.Equal(t, folds[i-1].testEnd, folds[i].testStart)
	}

	_, err = buildFolds(100, 0.3, 4)
	assert.Error(t, err)

	_, err = buildFolds(5, 0.8, 4)
	assert.Error(t, err)
}

func TestModelFitTooShort(t *testing.T) {
	model := NewModel(Order{P: 2, D: 1, Q: 0}, SeasonalOrder{})
	err := model.Fit([]float64{1, 2, 3})
	assert.Error(t, err)
}
