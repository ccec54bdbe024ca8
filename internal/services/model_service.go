package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dtbase/dtbase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ValueReading is one timestamped value from a typed value table.
type ValueReading struct {
	Value     interface{} `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// MeasureValues carries the results of a run for one measure.
type MeasureValues struct {
	MeasureName string        `json:"measure_name"`
	Values      []interface{} `json:"values"`
	Timestamps  []time.Time   `json:"timestamps"`
}

// ModelRunRecord is the list_model_runs output row.
type ModelRunRecord struct {
	ID                  uint64    `json:"id"`
	ModelID             uint64    `json:"model_id"`
	ModelName           string    `json:"model_name"`
	ScenarioID          uint64    `json:"scenario_id"`
	ScenarioDescription string    `json:"scenario_description"`
	TimeCreated         time.Time `json:"time_created"`
}

// InsertModelRunArgs bundles the arguments of InsertModelRun.
type InsertModelRunArgs struct {
	ModelName           string
	ScenarioDescription string
	MeasuresAndValues   []MeasureValues
	TimeCreated         time.Time
	CreateScenario      bool
	SensorUniqueID      *string
	SensorMeasure       *string
}

// quiet returns a session that doesn't log expected-miss lookups.
func quiet(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// ModelIDFromName finds the id of the model with the given name.
func ModelIDFromName(db *gorm.DB, name string) (uint64, error) {
	var model models.Model
	if err := quiet(db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: no model named %q", ErrNotFound, name)
		}
		return 0, err
	}
	return model.ID, nil
}

// ScenarioIDFromDescription finds the id of the scenario with the given
// description, belonging to the named model.
func ScenarioIDFromDescription(db *gorm.DB, modelName, description string) (uint64, error) {
	var scenario models.ModelScenario
	err := quiet(db).
		Joins("JOIN model ON model.id = model_scenario.model_id").
		Where("model.name = ? AND model_scenario.description = ?", modelName, description).
		First(&scenario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: no scenario %q for model %q", ErrNotFound, description, modelName)
		}
		return 0, err
	}
	return scenario.ID, nil
}

// ModelMeasureByName finds the measure with the given name.
func ModelMeasureByName(db *gorm.DB, name string) (models.ModelMeasure, error) {
	var measure models.ModelMeasure
	if err := quiet(db).Where("name = ?", name).First(&measure).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return measure, fmt.Errorf("%w: no model measure named %q", ErrNotFound, name)
		}
		return measure, err
	}
	return measure, nil
}

// InsertModel inserts a new model.
func InsertModel(db *gorm.DB, name string) (models.Model, error) {
	model := models.Model{Name: name}
	if err := db.Create(&model).Error; err != nil {
		return model, err
	}
	return model, nil
}

// ListModels lists all models.
func ListModels(db *gorm.DB) ([]models.Model, error) {
	var out []models.Model
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteModel deletes a model by name. Refuses to proceed if there are
// scenarios or runs for this model.
func DeleteModel(db *gorm.DB, name string) error {
	modelID, err := ModelIDFromName(db, name)
	if err != nil {
		return err
	}

	var runs int64
	if err := db.Model(&models.ModelRun{}).Where("model_id = ?", modelID).Count(&runs).Error; err != nil {
		return err
	}
	if runs > 0 {
		return fmt.Errorf("%w: model %q has %d runs", ErrInUse, name, runs)
	}

	var scenarios int64
	if err := db.Model(&models.ModelScenario{}).Where("model_id = ?", modelID).Count(&scenarios).Error; err != nil {
		return err
	}
	if scenarios > 0 {
		return fmt.Errorf("%w: model %q has %d scenarios", ErrInUse, name, scenarios)
	}

	return db.Delete(&models.Model{}, modelID).Error
}

// InsertModelScenario inserts a new scenario for the named model. Parameters
// can be nil.
func InsertModelScenario(db *gorm.DB, modelName, description string, parameters datatypes.JSON) (models.ModelScenario, error) {
	var scenario models.ModelScenario
	modelID, err := ModelIDFromName(db, modelName)
	if err != nil {
		return scenario, err
	}
	scenario = models.ModelScenario{ModelID: modelID, Description: description, Parameters: parameters}
	if err := db.Create(&scenario).Error; err != nil {
		return scenario, err
	}
	return scenario, nil
}

// ListModelScenarios lists all scenarios.
func ListModelScenarios(db *gorm.DB) ([]models.ModelScenario, error) {
	var out []models.ModelScenario
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteModelScenario deletes a scenario by model name and description.
// Refuses to proceed if there are runs for this scenario.
func DeleteModelScenario(db *gorm.DB, modelName, description string) error {
	scenarioID, err := ScenarioIDFromDescription(db, modelName, description)
	if err != nil {
		return err
	}

	var runs int64
	if err := db.Model(&models.ModelRun{}).Where("scenario_id = ?", scenarioID).Count(&runs).Error; err != nil {
		return err
	}
	if runs > 0 {
		return fmt.Errorf("%w: scenario %q has %d runs", ErrInUse, description, runs)
	}

	return db.Delete(&models.ModelScenario{}, scenarioID).Error
}

// InsertModelMeasure inserts a new measure. The datatype has to be one of
// "string", "integer", "float", or "boolean".
func InsertModelMeasure(db *gorm.DB, name, units, datatype string) (models.ModelMeasure, error) {
	var measure models.ModelMeasure
	if !models.ValidDatatype(datatype) {
		return measure, fmt.Errorf("%w: unrecognised datatype %q", ErrInvalidInput, datatype)
	}
	measure = models.ModelMeasure{Name: name, Units: units, Datatype: datatype}
	if err := db.Create(&measure).Error; err != nil {
		return measure, err
	}
	return measure, nil
}

// ListModelMeasures lists all measures.
func ListModelMeasures(db *gorm.DB) ([]models.ModelMeasure, error) {
	var out []models.ModelMeasure
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteModelMeasure deletes a measure by name. Refuses to proceed if there
// are products attached to it.
func DeleteModelMeasure(db *gorm.DB, name string) error {
	measure, err := ModelMeasureByName(db, name)
	if err != nil {
		return err
	}

	var products int64
	if err := db.Model(&models.ModelProduct{}).Where("measure_id = ?", measure.ID).Count(&products).Error; err != nil {
		return err
	}
	if products > 0 {
		return fmt.Errorf("%w: measure %q has %d products", ErrInUse, name, products)
	}

	return db.Delete(&models.ModelMeasure{}, measure.ID).Error
}

// InsertModelProduct inserts a product for the given run and bulk-inserts its
// value rows into the table matching the measure's datatype.
func InsertModelProduct(tx *gorm.DB, run models.ModelRun, measureName string, values []interface{}, timestamps []time.Time) error {
	if len(values) != len(timestamps) {
		return fmt.Errorf("%w: got %d values and %d timestamps", ErrInvalidInput, len(values), len(timestamps))
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no values to insert for measure %q", ErrInvalidInput, measureName)
	}

	measure, err := ModelMeasureByName(tx, measureName)
	if err != nil {
		return err
	}

	datatype := models.Datatype(measure.Datatype)
	for _, v := range values {
		if err := datatype.CheckValue(v); err != nil {
			return fmt.Errorf("%w: for measure %q: %v", ErrInvalidInput, measureName, err)
		}
	}

	product := models.ModelProduct{RunID: run.ID, MeasureID: measure.ID}
	if err := tx.Create(&product).Error; err != nil {
		return err
	}

	// Bulk insert batches the rows into a single statement.
	switch datatype {
	case models.DatatypeString:
		rows := make([]models.ModelStringValue, len(values))
		for i, v := range values {
			rows[i] = models.ModelStringValue{Value: v.(string), Timestamp: timestamps[i], ProductID: product.ID}
		}
		return tx.CreateInBatches(rows, 500).Error
	case models.DatatypeInteger:
		rows := make([]models.ModelIntegerValue, len(values))
		for i, v := range values {
			rows[i] = models.ModelIntegerValue{Value: int64(v.(float64)), Timestamp: timestamps[i], ProductID: product.ID}
		}
		return tx.CreateInBatches(rows, 500).Error
	case models.DatatypeFloat:
		rows := make([]models.ModelFloatValue, len(values))
		for i, v := range values {
			rows[i] = models.ModelFloatValue{Value: v.(float64), Timestamp: timestamps[i], ProductID: product.ID}
		}
		return tx.CreateInBatches(rows, 500).Error
	case models.DatatypeBoolean:
		rows := make([]models.ModelBooleanValue, len(values))
		for i, v := range values {
			rows[i] = models.ModelBooleanValue{Value: v.(bool), Timestamp: timestamps[i], ProductID: product.ID}
		}
		return tx.CreateInBatches(rows, 500).Error
	}
	return fmt.Errorf("%w: unrecognised datatype %q", ErrInvalidInput, measure.Datatype)
}

// InsertModelRun inserts a run and its products in one transaction. The
// scenario is auto-created only when CreateScenario is set.
func InsertModelRun(db *gorm.DB, args InsertModelRunArgs) (uint64, error) {
	var runID uint64

	err := db.Transaction(func(tx *gorm.DB) error {
		scenarioID, err := ScenarioIDFromDescription(tx, args.ModelName, args.ScenarioDescription)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			if !args.CreateScenario {
				return err
			}
			scenario, err := InsertModelScenario(tx, args.ModelName, args.ScenarioDescription, nil)
			if err != nil {
				return err
			}
			scenarioID = scenario.ID
		}

		modelID, err := ModelIDFromName(tx, args.ModelName)
		if err != nil {
			return err
		}

		timeCreated := args.TimeCreated
		if timeCreated.IsZero() {
			timeCreated = time.Now().UTC()
		}

		run := models.ModelRun{
			ModelID:        modelID,
			ScenarioID:     scenarioID,
			TimeCreated:    timeCreated,
			SensorUniqueID: args.SensorUniqueID,
			SensorMeasure:  args.SensorMeasure,
		}
		if err := tx.Create(&run).Error; err != nil {
			return err
		}

		for _, mnv := range args.MeasuresAndValues {
			if err := InsertModelProduct(tx, run, mnv.MeasureName, mnv.Values, mnv.Timestamps); err != nil {
				return err
			}
		}

		runID = run.ID
		return nil
	})

	return runID, err
}

// ListModelRuns lists runs of the named model created inside the inclusive
// [dtFrom, dtTo] window. A nil bound leaves that side open; a nil scenario
// includes all scenarios.
func ListModelRuns(db *gorm.DB, modelName string, dtFrom, dtTo *time.Time, scenario *string) ([]ModelRunRecord, error) {
	if _, err := ModelIDFromName(db, modelName); err != nil {
		return nil, err
	}

	query := db.Model(&models.ModelRun{}).
		Select("model_run.id, model_run.model_id, model.name AS model_name, model_run.scenario_id, model_scenario.description AS scenario_description, model_run.time_created").
		Joins("JOIN model ON model.id = model_run.model_id").
		Joins("JOIN model_scenario ON model_scenario.id = model_run.scenario_id").
		Where("model.name = ?", modelName)

	if dtFrom != nil {
		query = query.Where("model_run.time_created >= ?", *dtFrom)
	}
	if dtTo != nil {
		query = query.Where("model_run.time_created <= ?", *dtTo)
	}
	if scenario != nil {
		query = query.Where("model_scenario.description = ?", *scenario)
	}

	var out []ModelRunRecord
	if err := query.Order("model_run.id").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetModelRun returns the timestamped values one run produced for one
// measure, ordered by timestamp.
func GetModelRun(db *gorm.DB, runID uint64, measureName string) ([]ValueReading, error) {
	measure, err := ModelMeasureByName(db, measureName)
	if err != nil {
		return nil, err
	}

	var product models.ModelProduct
	err = quiet(db).Where("run_id = ? AND measure_id = ?", runID, measure.ID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: run %d has no product for measure %q", ErrNotFound, runID, measureName)
		}
		return nil, err
	}

	out := []ValueReading{}
	switch models.Datatype(measure.Datatype) {
	case models.DatatypeString:
		var rows []models.ModelStringValue
		if err := db.Where("product_id = ?", product.ID).Order("timestamp").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeInteger:
		var rows []models.ModelIntegerValue
		if err := db.Where("product_id = ?", product.ID).Order("timestamp").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeFloat:
		var rows []models.ModelFloatValue
		if err := db.Where("product_id = ?", product.ID).Order("timestamp").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeBoolean:
		var rows []models.ModelBooleanValue
		if err := db.Where("product_id = ?", product.ID).Order("timestamp").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	}
	return out, nil
}

// GetModelRunSensorMeasure returns the sensor and measure a run's
// predictions should be compared against.
func GetModelRunSensorMeasure(db *gorm.DB, runID uint64) (sensorUniqueID, measureName string, err error) {
	var run models.ModelRun
	if err := quiet(db).First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fmt.Errorf("%w: no model run with id %d", ErrNotFound, runID)
		}
		return "", "", err
	}
	if run.SensorUniqueID == nil || run.SensorMeasure == nil {
		return "", "", fmt.Errorf("%w: run %d has no linked sensor", ErrNotFound, runID)
	}
	return *run.SensorUniqueID, *run.SensorMeasure, nil
}

// DeleteModelRun deletes a run and its products and values.
func DeleteModelRun(db *gorm.DB, runID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var run models.ModelRun
		if err := quiet(tx).First(&run, runID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no model run with id %d", ErrNotFound, runID)
			}
			return err
		}

		var products []models.ModelProduct
		if err := tx.Where("run_id = ?", runID).Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			for _, table := range []interface{}{
				&models.ModelStringValue{}, &models.ModelIntegerValue{},
				&models.ModelFloatValue{}, &models.ModelBooleanValue{},
			} {
				if err := tx.Where("product_id = ?", p.ID).Delete(table).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("run_id = ?", runID).Delete(&models.ModelProduct{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ModelRun{}, runID).Error
	})
}
