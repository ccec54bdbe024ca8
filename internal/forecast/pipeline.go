package forecast

import (
	"fmt"
	"log"
	"math"
	"time"
)

// Series is a time-indexed series of float observations.
type Series struct {
	Timestamps []time.Time
	Values     []float64
}

// Result is the output of a pipeline run.
type Result struct {
	Timestamps []time.Time
	Mean       []float64
	Lower      []float64
	Upper      []float64
	Metrics    *Metrics // nil when cross-validation was skipped or failed
}

// Metrics are the cross-validated error scores of the fitted model.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

type fold struct {
	trainEnd  int
	testStart int
	testEnd   int
}

// buildFolds splits n observations into expanding-window cross-validation
// folds. The last (1 - trainFraction) of the series is divided into
// nSplits equally sized test sets.
func buildFolds(n int, trainFraction float64, nSplits int) ([]fold, error) {
	if trainFraction < 0.5 || trainFraction >= 1 {
		return nil, fmt.Errorf("train_fraction must be >= 0.5 and < 1, got %g", trainFraction)
	}
	testSize := int(math.Round(float64(n)*(1-trainFraction))) / nSplits
	if testSize < 1 {
		return nil, fmt.Errorf("cannot cross-validate: test set per fold would be empty")
	}

	folds := make([]fold, nSplits)
	for i := 0; i < nSplits; i++ {
		testStart := n - (nSplits-i)*testSize
		folds[i] = fold{trainEnd: testStart, testStart: testStart, testEnd: testStart + testSize}
	}
	return folds, nil
}

// crossValidate walks the folds, fitting on the first fold's training set
// and either refitting or extending the model at each subsequent fold.
func crossValidate(series Series, cfg Config) (*Metrics, error) {
	folds, err := buildFolds(len(series.Values), cfg.TrainFraction, cfg.NSplits)
	if err != nil {
		return nil, err
	}

	var rmses, mapes []float64
	model := NewModel(cfg.Order, cfg.SeasonalOrder)
	for i, f := range folds {
		if i == 0 {
			if err := model.Fit(series.Values[:f.trainEnd]); err != nil {
				return nil, err
			}
		} else if cfg.CVRefit {
			if err := model.Fit(series.Values[:f.trainEnd]); err != nil {
				return nil, err
			}
		} else {
			prev := folds[i-1]
			model.Extend(series.Values[prev.testStart:prev.testEnd])
		}

		mean, _, _, err := model.Forecast(f.testEnd-f.testStart, cfg.Alpha)
		if err != nil {
			return nil, err
		}
		actual := series.Values[f.testStart:f.testEnd]
		rmses = append(rmses, rmse(actual, mean))
		mapes = append(mapes, mape(actual, mean))
	}

	return &Metrics{RMSE: meanOf(rmses), MAPE: meanOf(mapes)}, nil
}

// Run fits the model on the whole series and forecasts HoursForecast hours
// past the last observation. Cross-validation failures are demoted to a
// warning; the forecast itself still runs.
func Run(series Series, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(series.Values) == 0 || len(series.Timestamps) != len(series.Values) {
		return Result{}, fmt.Errorf("series must be non-empty and time-indexed")
	}
	for i := 1; i < len(series.Timestamps); i++ {
		if !series.Timestamps[i].After(series.Timestamps[i-1]) {
			return Result{}, fmt.Errorf("series timestamps must be strictly increasing")
		}
	}

	stock := DefaultConfig()
	if cfg.Order != stock.Order {
		log.Printf("forecast: arima_order %+v differs from the stock %+v", cfg.Order, stock.Order)
	}
	if cfg.SeasonalOrder != stock.SeasonalOrder {
		log.Printf("forecast: seasonal_order %+v differs from the stock %+v", cfg.SeasonalOrder, stock.SeasonalOrder)
	}
	if cfg.HoursForecast != stock.HoursForecast {
		log.Printf("forecast: hours_forecast %d differs from the stock %d", cfg.HoursForecast, stock.HoursForecast)
	}

	var metrics *Metrics
	if cfg.PerformCV {
		if cfg.CVRefit {
			log.Println("forecast: running cross-validation with parameter refit")
		} else {
			log.Println("forecast: running cross-validation without parameter refit")
		}
		m, err := crossValidate(series, cfg)
		if err != nil {
			log.Printf("forecast: could not cross-validate, continuing without model testing: %v", err)
		} else {
			log.Printf("forecast: cross-validated RMSE %.2f, MAPE %.3f", m.RMSE, m.MAPE)
			metrics = m
		}
	}

	model := NewModel(cfg.Order, cfg.SeasonalOrder)
	if err := model.Fit(series.Values); err != nil {
		return Result{}, err
	}

	interval := seriesInterval(series)
	steps := int(time.Duration(cfg.HoursForecast) * time.Hour / interval)
	if steps < 1 {
		steps = 1
	}
	mean, lower, upper, err := model.Forecast(steps, cfg.Alpha)
	if err != nil {
		return Result{}, err
	}

	last := series.Timestamps[len(series.Timestamps)-1]
	timestamps := make([]time.Time, steps)
	for i := range timestamps {
		timestamps[i] = last.Add(time.Duration(i+1) * interval)
	}
	log.Printf("forecast: forecasting from %s to %s", last, timestamps[len(timestamps)-1])

	return Result{
		Timestamps: timestamps,
		Mean:       mean,
		Lower:      lower,
		Upper:      upper,
		Metrics:    metrics,
	}, nil
}

// seriesInterval infers the sampling interval from the first pair of
// timestamps, defaulting to an hour for a single observation.
func seriesInterval(series Series) time.Duration {
	if len(series.Timestamps) < 2 {
		return time.Hour
	}
	return series.Timestamps[1].Sub(series.Timestamps[0])
}

func rmse(actual, predicted []float64) float64 {
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

func mape(actual, predicted []float64) float64 {
	const epsilon = 1e-10
	var sum float64
	for i := range actual {
		denom := math.Abs(actual[i])
		if denom < epsilon {
			denom = epsilon
		}
		sum += math.Abs(actual[i]-predicted[i]) / denom
	}
	return sum / float64(len(actual))
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
