package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherPayload(dt int64) map[string]interface{} {
	return map[string]interface{}{
		"data": []map[string]interface{}{{
			"dt":         dt,
			"temp":       21.5,
			"humidity":   60,
			"pressure":   1013,
			"wind_speed": 3.2,
			"wind_deg":   180,
			"rain":       map[string]interface{}{"1h": 0.4},
			"weather":    []map[string]interface{}{{"icon": "10d"}},
		}},
	}
}

func TestFetchHourly(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.NotEmpty(t, r.URL.Query().Get("dt"))
		require.Equal(t, "test-key", r.URL.Query().Get("appid"))

		var dt int64
		fmt.Sscanf(r.URL.Query().Get("dt"), "%d", &dt)
		_ = json.NewEncoder(w).Encode(weatherPayload(dt))
	}))
	defer server.Close()

	client := NewOpenWeatherClient(server.Client(), server.URL, "test-key")
	from := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	records, err := client.FetchHourly(context.Background(), from, to, 51.5, -0.1)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 3, requests)

	assert.Equal(t, from, records[0].Timestamp)
	assert.Equal(t, 21.5, records[0].Temperature)
	assert.Equal(t, int64(60), records[0].RelativeHumidity)
	assert.Equal(t, int64(1013), records[0].AirPressure)
	assert.Equal(t, 3.2, records[0].WindSpeed)
	assert.Equal(t, int64(180), records[0].WindDirection)
	assert.Equal(t, 0.4, records[0].Rain)
	assert.Equal(t, "10d", records[0].Icon)
}

func TestFetchHourlyInvertedWindow(t *testing.T) {
	client := NewOpenWeatherClient(http.DefaultClient, "http://localhost", "test-key")
	from := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := client.FetchHourly(context.Background(), from, from.Add(-time.Hour), 0, 0)
	assert.Error(t, err)
}

func TestFetchHourlyMissingKey(t *testing.T) {
	client := NewOpenWeatherClient(http.DefaultClient, "http://localhost", "")

	_, err := client.FetchHourly(context.Background(), time.Now(), time.Now(), 0, 0)
	assert.Error(t, err)
}

func TestFetchHourlyRetriesServerErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(weatherPayload(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC).Unix()))
	}))
	defer server.Close()

	client := NewOpenWeatherClient(server.Client(), server.URL, "test-key")
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	records, err := client.FetchHourly(context.Background(), ts, ts, 51.5, -0.1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, requests)
}
