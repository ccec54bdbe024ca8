package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendCallSendsBodyOnGET(t *testing.T) {
	var gotMethod string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.ListModelRuns("test model",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "test model", gotBody["model_name"])
	assert.Equal(t, "2026-08-01T00:00:00Z", gotBody["dt_from"])
}

func TestBackendCallErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 404, "message": "no model named \"x\"", "ok": false,
		})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.ListModels()
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "no model named")
}

func TestFetchRunData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/model/list_model_measures", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Measure{
			{ID: 1, Name: "Mean temperature", Datatype: "float"},
			{ID: 2, Name: "Unused measure", Datatype: "float"},
		})
	})
	mux.HandleFunc("/api/model/get_model_run", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MeasureName string `json:"measure_name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.MeasureName != "Mean temperature" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"message": "no product"})
			return
		}
		_ = json.NewEncoder(w).Encode([]Reading{
			{Value: 21.5, Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
			{Value: 22.0, Timestamp: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)},
		})
	})
	mux.HandleFunc("/api/model/get_model_run_sensor_measure", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sensor_unique_id": "station-1", "measure_name": "temperature",
		})
	})
	mux.HandleFunc("/api/sensor/sensor_readings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Reading{
			{Value: 21.0, Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL)
	data, err := c.FetchRunData(42)
	require.NoError(t, err)

	require.Len(t, data.Predictions, 1)
	assert.Len(t, data.Predictions["Mean temperature"], 2)
	assert.Equal(t, "station-1", data.SensorUnique)
	assert.Equal(t, "temperature", data.SensorMeas)
	require.Len(t, data.SensorData, 1)
}

func TestConvertFormValues(t *testing.T) {
	identifiers := []SchemaIdentifier{
		{Name: "latitude", Datatype: "float"},
		{Name: "floor", Datatype: "integer"},
		{Name: "name", Datatype: "string"},
		{Name: "indoors", Datatype: "boolean"},
	}

	out, err := ConvertFormValues(map[string]string{
		"latitude": "51.5",
		"floor":    "3",
		"name":     "lab",
		"indoors":  "true",
	}, identifiers)
	require.NoError(t, err)
	assert.Equal(t, 51.5, out["latitude"])
	assert.Equal(t, int64(3), out["floor"])
	assert.Equal(t, "lab", out["name"])
	assert.Equal(t, true, out["indoors"])

	_, err = ConvertFormValues(map[string]string{
		"latitude": "not a number", "floor": "3", "name": "lab", "indoors": "true",
	}, identifiers)
	assert.Error(t, err)

	_, err = ConvertFormValues(map[string]string{
		"floor": "3", "name": "lab", "indoors": "true",
	}, identifiers)
	assert.Error(t, err)
}
