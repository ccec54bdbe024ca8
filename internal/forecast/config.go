package forecast

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Order holds the non-seasonal (p, d, q) order of the model.
type Order struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

// SeasonalOrder holds the seasonal (P, D, Q, m) order of the model.
type SeasonalOrder struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
	M int `yaml:"m"`
}

// Config are the tunables of the forecasting pipeline.
type Config struct {
	Order         Order         `yaml:"arima_order"`
	SeasonalOrder SeasonalOrder `yaml:"seasonal_order"`
	HoursForecast int           `yaml:"hours_forecast"`
	Alpha         float64       `yaml:"alpha"`
	PerformCV     bool          `yaml:"perform_cv"`
	CVRefit       bool          `yaml:"cv_refit"`
	TrainFraction float64       `yaml:"train_fraction"`
	NSplits       int           `yaml:"n_splits"`

	SensorUniqueID string `yaml:"sensor_unique_id"`
	MeasureName    string `yaml:"measure_name"`
	DaysHistory    int    `yaml:"days_history"`
	ModelName      string `yaml:"model_name"`
	Scenario       string `yaml:"scenario"`
}

// DefaultConfig returns the stock configuration the pipeline was tuned with.
func DefaultConfig() Config {
	return Config{
		Order:         Order{P: 4, D: 1, Q: 2},
		SeasonalOrder: SeasonalOrder{P: 1, D: 1, Q: 0, M: 24},
		HoursForecast: 48,
		Alpha:         0.05,
		PerformCV:     true,
		CVRefit:       false,
		TrainFraction: 0.8,
		NSplits:       4,
		DaysHistory:   30,
		ModelName:     "Weather forecast",
		Scenario:      "Business as usual",
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading forecast config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing forecast config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configs the pipeline cannot run with.
func (c Config) Validate() error {
	if c.HoursForecast <= 0 {
		return fmt.Errorf("hours_forecast must be greater than zero, got %d", c.HoursForecast)
	}
	if c.Order.P < 0 || c.Order.D < 0 || c.Order.Q < 0 {
		return fmt.Errorf("arima_order components must be non-negative")
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %g", c.Alpha)
	}
	if c.PerformCV {
		if c.TrainFraction < 0.5 || c.TrainFraction >= 1 {
			return fmt.Errorf("train_fraction must be >= 0.5 and < 1, got %g", c.TrainFraction)
		}
		if c.NSplits < 1 {
			return fmt.Errorf("n_splits must be at least 1, got %d", c.NSplits)
		}
	}
	return nil
}
