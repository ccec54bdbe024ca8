package ingress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dtbase/dtbase/internal/services"
	"github.com/dtbase/dtbase/internal/types"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// SensorUniqueID identifies the sensor that all OpenWeatherMap readings
// are attached to.
const SensorUniqueID = "OpenWeatherMap"

// SensorTypeName is the sensor type the weather sensor belongs to.
const SensorTypeName = "Weather"

// presentTolerance is how close to now a datetime has to be to count as
// "present".
const presentTolerance = 10 * time.Second

// weatherMeasures are the measures every weather reading is split into.
var weatherMeasures = []services.MeasureSpec{
	{Name: "temperature", Units: "degrees Celsius", Datatype: "float"},
	{Name: "relative humidity", Units: "percent", Datatype: "integer"},
	{Name: "air pressure", Units: "millibar", Datatype: "integer"},
	{Name: "wind speed", Units: "m/s", Datatype: "float"},
	{Name: "wind direction", Units: "degrees", Datatype: "integer"},
	{Name: "rain", Units: "mm", Datatype: "float"},
	{Name: "icon", Units: "", Datatype: "string"},
}

// Params are the request parameters of a weather ingestion. Latitude and
// longitude are pointers so that an absent field is distinguishable from a
// legitimate zero coordinate.
type Params struct {
	FromDt    string   `json:"from_dt" validate:"required"`
	ToDt      string   `json:"to_dt" validate:"required"`
	APIKey    string   `json:"api_key" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// Service runs weather ingestions against the database.
type Service struct {
	DB       *gorm.DB
	BaseURL  string
	validate *validator.Validate
	// NewClient exists so tests can inject a client against a mock server.
	NewClient func(baseURL, apiKey string) *OpenWeatherClient
}

func NewService(db *gorm.DB, baseURL string) *Service {
	return &Service{
		DB:       db,
		BaseURL:  baseURL,
		validate: validator.New(),
		NewClient: func(baseURL, apiKey string) *OpenWeatherClient {
			return NewOpenWeatherClient(&http.Client{Timeout: 30 * time.Second}, baseURL, apiKey)
		},
	}
}

// ParseDatetime parses an ingestion bound. The literal "present" and any
// timestamp within presentTolerance of now both resolve to now.
func ParseDatetime(s string, now time.Time) (time.Time, error) {
	if s == "present" {
		return now, nil
	}
	ts, err := types.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	if ts.After(now.Add(-presentTolerance)) && ts.Before(now.Add(presentTolerance)) {
		return now, nil
	}
	return ts, nil
}

// Ingest validates params, fetches hourly weather and stores each measure
// as sensor readings. Returns the number of hourly records stored.
func (s *Service) Ingest(ctx context.Context, params Params) (int, error) {
	if err := s.validate.Struct(params); err != nil {
		return 0, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	from, err := ParseDatetime(params.FromDt, now)
	if err != nil {
		return 0, fmt.Errorf("%w: from_dt must be an RFC 3339 datetime or 'present'", services.ErrInvalidInput)
	}
	to, err := ParseDatetime(params.ToDt, now)
	if err != nil {
		return 0, fmt.Errorf("%w: to_dt must be an RFC 3339 datetime or 'present'", services.ErrInvalidInput)
	}

	client := s.NewClient(s.BaseURL, params.APIKey)
	records, err := client.FetchHourly(ctx, from, to, *params.Latitude, *params.Longitude)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := s.ensureWeatherSensor(); err != nil {
		return 0, err
	}
	if err := s.storeRecords(records); err != nil {
		return 0, err
	}

	log.Printf("ingress: stored %d hourly weather records for (%.4f, %.4f)",
		len(records), *params.Latitude, *params.Longitude)
	return len(records), nil
}

// ensureWeatherSensor creates the weather sensor type and sensor on first use.
func (s *Service) ensureWeatherSensor() error {
	if _, err := services.SensorTypeByName(s.DB, SensorTypeName); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return err
		}
		if _, err := services.InsertSensorType(s.DB, SensorTypeName,
			"Weather-related measurements", weatherMeasures); err != nil {
			return err
		}
	}
	if _, err := services.SensorByUniqueID(s.DB, SensorUniqueID); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return err
		}
		if _, err := services.InsertSensor(s.DB, SensorTypeName, SensorUniqueID,
			"OpenWeatherMap", "Hourly weather from the OpenWeatherMap API"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) storeRecords(records []HourlyRecord) error {
	timestamps := make([]time.Time, len(records))
	for i, r := range records {
		timestamps[i] = r.Timestamp
	}

	byMeasure := map[string][]interface{}{
		"temperature":       make([]interface{}, len(records)),
		"relative humidity": make([]interface{}, len(records)),
		"air pressure":      make([]interface{}, len(records)),
		"wind speed":        make([]interface{}, len(records)),
		"wind direction":    make([]interface{}, len(records)),
		"rain":              make([]interface{}, len(records)),
		"icon":              make([]interface{}, len(records)),
	}
	for i, r := range records {
		byMeasure["temperature"][i] = r.Temperature
		byMeasure["relative humidity"][i] = float64(r.RelativeHumidity)
		byMeasure["air pressure"][i] = float64(r.AirPressure)
		byMeasure["wind speed"][i] = r.WindSpeed
		byMeasure["wind direction"][i] = float64(r.WindDirection)
		byMeasure["rain"][i] = r.Rain
		byMeasure["icon"][i] = r.Icon
	}

	for measure, values := range byMeasure {
		if err := services.InsertSensorReadings(s.DB, measure, SensorUniqueID, values, timestamps); err != nil {
			return fmt.Errorf("storing %s readings: %w", measure, err)
		}
	}
	return nil
}
