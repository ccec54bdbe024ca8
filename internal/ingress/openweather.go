package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// HourlyRecord is one hour of weather as returned by OpenWeatherMap,
// reduced to the measures we store.
type HourlyRecord struct {
	Timestamp        time.Time
	Temperature      float64
	RelativeHumidity int64
	AirPressure      int64
	WindSpeed        float64
	WindDirection    int64
	Rain             float64
	Icon             string
}

// OpenWeatherClient fetches hourly weather from the OpenWeatherMap
// One Call timemachine endpoint, one request per hour.
type OpenWeatherClient struct {
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(client *http.Client, baseURL, apiKey string) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchHourly returns one record per whole hour in [from, to]. Both bounds
// are truncated to the hour before iterating.
func (c *OpenWeatherClient) FetchHourly(ctx context.Context, from, to time.Time, latitude, longitude float64) ([]HourlyRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}
	from = from.Truncate(time.Hour)
	to = to.Truncate(time.Hour)
	if to.Before(from) {
		return nil, fmt.Errorf("to_dt %s is before from_dt %s", to, from)
	}

	var records []HourlyRecord
	for ts := from; !ts.After(to); ts = ts.Add(time.Hour) {
		record, err := c.fetchHour(ctx, ts, latitude, longitude)
		if err != nil {
			return nil, fmt.Errorf("fetching weather for %s: %w", ts, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *OpenWeatherClient) fetchHour(ctx context.Context, ts time.Time, latitude, longitude float64) (HourlyRecord, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", latitude))
		values.Set("lon", fmt.Sprintf("%f", longitude))
		values.Set("dt", fmt.Sprintf("%d", ts.Unix()))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return HourlyRecord{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data []struct {
			Dt       int64   `json:"dt"`
			Temp     float64 `json:"temp"`
			Humidity int64   `json:"humidity"`
			Pressure int64   `json:"pressure"`
			WindSpd  float64 `json:"wind_speed"`
			WindDeg  int64   `json:"wind_deg"`
			Rain     struct {
				OneH float64 `json:"1h"`
			} `json:"rain"`
			Weather []struct {
				Icon string `json:"icon"`
			} `json:"weather"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return HourlyRecord{}, err
	}
	if len(payload.Data) == 0 {
		return HourlyRecord{}, fmt.Errorf("empty response for %s", ts)
	}

	hour := payload.Data[0]
	record := HourlyRecord{
		Timestamp:        time.Unix(hour.Dt, 0).UTC(),
		Temperature:      hour.Temp,
		RelativeHumidity: hour.Humidity,
		AirPressure:      hour.Pressure,
		WindSpeed:        hour.WindSpd,
		WindDirection:    hour.WindDeg,
		Rain:             hour.Rain.OneH,
	}
	if len(hour.Weather) > 0 {
		record.Icon = hour.Weather[0].Icon
	}
	return record, nil
}
