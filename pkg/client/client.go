// Package client is a typed HTTP client for the dtbase backend, intended
// for frontends and batch jobs that consume the API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the backend API. The zero value is not usable; use New.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// BackendCall performs one request against the backend. Payload is
// marshalled as the JSON body; GET endpoints of the backend read bodies
// too, so payload is sent regardless of method. The response body is
// unmarshalled into out when out is non-nil.
func (c *Client) BackendCall(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshalling payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Message string `json:"message"`
		}
		message := string(raw)
		if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("unmarshalling response: %w", err)
		}
	}
	return nil
}

// Model is a model as returned by the backend.
type Model struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Scenario is a model scenario as returned by the backend.
type Scenario struct {
	ID          uint64          `json:"id"`
	ModelID     uint64          `json:"model_id"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Measure is a model measure as returned by the backend.
type Measure struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Units    string `json:"units"`
	Datatype string `json:"datatype"`
}

// RunSummary is one row of list_model_runs.
type RunSummary struct {
	ID                  uint64    `json:"id"`
	ModelName           string    `json:"model_name"`
	ScenarioDescription string    `json:"scenario_description"`
	TimeCreated         time.Time `json:"time_created"`
	SensorUniqueID      *string   `json:"sensor_unique_id"`
	SensorMeasure       *string   `json:"sensor_measure"`
}

// Reading is one timestamped value.
type Reading struct {
	Value     interface{} `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// ListModels fetches all models.
func (c *Client) ListModels() ([]Model, error) {
	var out []Model
	err := c.BackendCall(http.MethodGet, "/api/model/list_models", nil, &out)
	return out, err
}

// ListModelScenarios fetches all model scenarios.
func (c *Client) ListModelScenarios() ([]Scenario, error) {
	var out []Scenario
	err := c.BackendCall(http.MethodGet, "/api/model/list_model_scenarios", nil, &out)
	return out, err
}

// ListModelMeasures fetches all model measures.
func (c *Client) ListModelMeasures() ([]Measure, error) {
	var out []Measure
	err := c.BackendCall(http.MethodGet, "/api/model/list_model_measures", nil, &out)
	return out, err
}

// ListModelRuns fetches the runs of a model in [dtFrom, dtTo], optionally
// restricted to a scenario.
func (c *Client) ListModelRuns(modelName string, dtFrom, dtTo time.Time, scenario *string) ([]RunSummary, error) {
	payload := map[string]interface{}{
		"model_name": modelName,
		"dt_from":    dtFrom.Format(time.RFC3339),
		"dt_to":      dtTo.Format(time.RFC3339),
	}
	if scenario != nil {
		payload["scenario"] = *scenario
	}
	var out []RunSummary
	err := c.BackendCall(http.MethodGet, "/api/model/list_model_runs", payload, &out)
	return out, err
}

// GetModelRun fetches the output of one run for one measure.
func (c *Client) GetModelRun(runID uint64, measureName string) ([]Reading, error) {
	payload := map[string]interface{}{"run_id": runID, "measure_name": measureName}
	var out []Reading
	err := c.BackendCall(http.MethodGet, "/api/model/get_model_run", payload, &out)
	return out, err
}

// GetModelRunSensorMeasure fetches the sensor and measure a run's
// predictions are compared against.
func (c *Client) GetModelRunSensorMeasure(runID uint64) (sensorUniqueID, measureName string, err error) {
	payload := map[string]interface{}{"run_id": runID}
	var out struct {
		SensorUniqueID string `json:"sensor_unique_id"`
		MeasureName    string `json:"measure_name"`
	}
	err = c.BackendCall(http.MethodGet, "/api/model/get_model_run_sensor_measure", payload, &out)
	return out.SensorUniqueID, out.MeasureName, err
}

// GetSensorReadings fetches readings for one sensor and measure in
// [dtFrom, dtTo].
func (c *Client) GetSensorReadings(measureName, uniqueID string, dtFrom, dtTo time.Time) ([]Reading, error) {
	payload := map[string]interface{}{
		"measure_name":      measureName,
		"unique_identifier": uniqueID,
		"dt_from":           dtFrom.Format(time.RFC3339),
		"dt_to":             dtTo.Format(time.RFC3339),
	}
	var out []Reading
	err := c.BackendCall(http.MethodGet, "/api/sensor/sensor_readings", payload, &out)
	return out, err
}

// SchemaIdentifier is one identifier of a location schema.
type SchemaIdentifier struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Units    string `json:"units"`
	Datatype string `json:"datatype"`
}

// LocationSchema is a location schema with its identifiers.
type LocationSchema struct {
	ID          uint64             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Identifiers []SchemaIdentifier `json:"identifiers"`
}

// GetSchemaDetails fetches one location schema with its identifiers.
func (c *Client) GetSchemaDetails(schemaName string) (LocationSchema, error) {
	payload := map[string]interface{}{"schema_name": schemaName}
	var out LocationSchema
	err := c.BackendCall(http.MethodGet, "/api/location/get_schema_details", payload, &out)
	return out, err
}

// InsertLocation inserts a location under a schema. Coordinates carry one
// typed value per schema identifier.
func (c *Client) InsertLocation(schemaName string, coordinates map[string]interface{}) error {
	payload := map[string]interface{}{"schema_name": schemaName}
	for k, v := range coordinates {
		payload[k] = v
	}
	return c.BackendCall(http.MethodPost, "/api/location/insert_location", payload, nil)
}
