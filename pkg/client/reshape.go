package client

import (
	"fmt"
	"strconv"
)

// RunData bundles a run's predictions with the observed readings of the
// sensor measure the run is compared against.
type RunData struct {
	Predictions  map[string][]Reading // keyed by model measure name
	SensorData   []Reading
	SensorUnique string
	SensorMeas   string
}

// FetchRunData gathers everything needed to plot one model run: the
// predicted series for every model measure that has data, and the matching
// sensor readings over the span of the predictions.
func (c *Client) FetchRunData(runID uint64) (RunData, error) {
	measures, err := c.ListModelMeasures()
	if err != nil {
		return RunData{}, err
	}

	data := RunData{Predictions: make(map[string][]Reading)}
	for _, measure := range measures {
		readings, err := c.GetModelRun(runID, measure.Name)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == 404 {
				continue
			}
			return RunData{}, err
		}
		if len(readings) > 0 {
			data.Predictions[measure.Name] = readings
		}
	}
	if len(data.Predictions) == 0 {
		return RunData{}, fmt.Errorf("run %d has no prediction data", runID)
	}

	sensorUniqueID, sensorMeasure, err := c.GetModelRunSensorMeasure(runID)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == 404 {
			return data, nil
		}
		return RunData{}, err
	}
	data.SensorUnique = sensorUniqueID
	data.SensorMeas = sensorMeasure

	// Span of the sensor data follows the span of the predictions.
	var first, last *Reading
	for _, readings := range data.Predictions {
		f, l := readings[0], readings[len(readings)-1]
		if first == nil || f.Timestamp.Before(first.Timestamp) {
			first = &f
		}
		if last == nil || l.Timestamp.After(last.Timestamp) {
			last = &l
		}
	}

	sensorData, err := c.GetSensorReadings(sensorMeasure, sensorUniqueID, first.Timestamp, last.Timestamp)
	if err != nil {
		return RunData{}, err
	}
	data.SensorData = sensorData
	return data, nil
}

// ConvertFormValues turns string form values into typed values according
// to the datatypes of a schema's identifiers, ready for InsertLocation.
func ConvertFormValues(formValues map[string]string, identifiers []SchemaIdentifier) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(identifiers))
	for _, identifier := range identifiers {
		raw, ok := formValues[identifier.Name]
		if !ok {
			return nil, fmt.Errorf("missing form value for %q", identifier.Name)
		}
		switch identifier.Datatype {
		case "string":
			out[identifier.Name] = raw
		case "integer":
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("value for %q is not an integer: %w", identifier.Name, err)
			}
			out[identifier.Name] = v
		case "float":
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("value for %q is not a float: %w", identifier.Name, err)
			}
			out[identifier.Name] = v
		case "boolean":
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("value for %q is not a boolean: %w", identifier.Name, err)
			}
			out[identifier.Name] = v
		default:
			return nil, fmt.Errorf("unknown datatype %q for %q", identifier.Datatype, identifier.Name)
		}
	}
	return out, nil
}
