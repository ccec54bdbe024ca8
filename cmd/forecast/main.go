package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/database"
	"github.com/dtbase/dtbase/internal/forecast"
	"github.com/dtbase/dtbase/internal/ingress"
	"github.com/dtbase/dtbase/internal/services"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "forecast.yaml", "path to the forecast config file")
	flag.Parse()

	fcfg, err := forecast.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load forecast configuration: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := run(db, fcfg); err != nil {
		log.Fatalf("Forecast failed: %v", err)
	}
}

func run(db *gorm.DB, fcfg forecast.Config) error {
	sensorUniqueID := fcfg.SensorUniqueID
	if sensorUniqueID == "" {
		sensorUniqueID = ingress.SensorUniqueID
	}
	measureName := fcfg.MeasureName
	if measureName == "" {
		measureName = "temperature"
	}

	dtTo := time.Now().UTC()
	dtFrom := dtTo.AddDate(0, 0, -fcfg.DaysHistory)
	readings, err := services.GetSensorReadings(db, measureName, sensorUniqueID, dtFrom, dtTo)
	if err != nil {
		return fmt.Errorf("fetching sensor readings: %w", err)
	}
	if len(readings) == 0 {
		return fmt.Errorf("no %s readings for sensor %s in the last %d days",
			measureName, sensorUniqueID, fcfg.DaysHistory)
	}

	series := forecast.Series{}
	for _, r := range readings {
		value, ok := r.Value.(float64)
		if !ok {
			return fmt.Errorf("measure %s is not numeric, cannot forecast", measureName)
		}
		series.Timestamps = append(series.Timestamps, r.Timestamp)
		series.Values = append(series.Values, value)
	}

	result, err := forecast.Run(series, fcfg)
	if err != nil {
		return err
	}

	runID, err := storeRun(db, fcfg, measureName, sensorUniqueID, result)
	if err != nil {
		return fmt.Errorf("storing model run: %w", err)
	}
	log.Printf("Stored forecast as model run %d", runID)

	if result.Metrics != nil {
		output, _ := json.MarshalIndent(result.Metrics, "", "  ")
		fmt.Println(string(output))
	}
	return nil
}

// storeRun writes the forecast into the model run tables, creating the
// model and its measures on first use.
func storeRun(db *gorm.DB, fcfg forecast.Config, measureName, sensorUniqueID string, result forecast.Result) (uint64, error) {
	if _, err := services.ModelIDFromName(db, fcfg.ModelName); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return 0, err
		}
		if _, err := services.InsertModel(db, fcfg.ModelName); err != nil {
			return 0, err
		}
	}

	runMeasures := []struct {
		name   string
		values []float64
	}{
		{"Mean " + measureName, result.Mean},
		{"Lower Bound " + measureName, result.Lower},
		{"Upper Bound " + measureName, result.Upper},
	}
	args := services.InsertModelRunArgs{
		ModelName:           fcfg.ModelName,
		ScenarioDescription: fcfg.Scenario,
		CreateScenario:      true,
		SensorUniqueID:      &sensorUniqueID,
		SensorMeasure:       &measureName,
	}
	for _, rm := range runMeasures {
		if _, err := services.ModelMeasureByName(db, rm.name); err != nil {
			if !errors.Is(err, services.ErrNotFound) {
				return 0, err
			}
			if _, err := services.InsertModelMeasure(db, rm.name, "", "float"); err != nil {
				return 0, err
			}
		}
		values := make([]interface{}, len(rm.values))
		for i, v := range rm.values {
			values[i] = v
		}
		args.MeasuresAndValues = append(args.MeasuresAndValues, services.MeasureValues{
			MeasureName: rm.name,
			Values:      values,
			Timestamps:  result.Timestamps,
		})
	}

	return services.InsertModelRun(db, args)
}
