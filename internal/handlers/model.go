package handlers

import (
	"fmt"

	"github.com/dtbase/dtbase/internal/services"
	"github.com/dtbase/dtbase/internal/types"
	"github.com/dtbase/dtbase/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ModelHandler handles model, scenario, measure and run routes
type ModelHandler struct {
	DB *gorm.DB
}

// measureValuesInput is the wire shape of one measure's results in
// insert_model_run.
type measureValuesInput struct {
	MeasureName string           `json:"measure_name"`
	Values      []interface{}    `json:"values"`
	Timestamps  []types.FlexTime `json:"timestamps"`
}

func (m measureValuesInput) toServiceInput() services.MeasureValues {
	out := services.MeasureValues{MeasureName: m.MeasureName, Values: m.Values}
	for _, ts := range m.Timestamps {
		out.Timestamps = append(out.Timestamps, ts.Time())
	}
	return out
}

// InsertModel handles POST /api/model/insert_model
// @Summary Insert a model
// @Description Add a model to the database
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{name}"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /model/insert_model [post]
func (h *ModelHandler) InsertModel(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if resp := parseBody(c, &body, "name"); resp != nil {
		return resp
	}

	model, err := services.InsertModel(h.DB, body.Name)
	if err != nil {
		return serviceErrorResponse(c, err, "insertModel")
	}
	return c.Status(fiber.StatusCreated).JSON(model)
}

// ListModels handles GET /api/model/list_models
// @Summary List models
// @Tags Model
// @Produce json
// @Success 200 {array} models.Model
// @Router /model/list_models [get]
func (h *ModelHandler) ListModels(c *fiber.Ctx) error {
	result, err := services.ListModels(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listModels")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteModel handles DELETE /api/model/delete_model
// @Summary Delete a model
// @Description Delete a model; refused when scenarios or runs exist
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{name}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /model/delete_model [delete]
func (h *ModelHandler) DeleteModel(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if resp := parseBody(c, &body, "name"); resp != nil {
		return resp
	}

	if err := services.DeleteModel(h.DB, body.Name); err != nil {
		return serviceErrorResponse(c, err, "deleteModel")
	}
	return utils.MessageResponse(c, "Model deleted.")
}

// InsertModelScenario handles POST /api/model/insert_model_scenario
// @Summary Insert a model scenario
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{model_name, description, parameters?}"
// @Success 201 {object} models.ModelScenario
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /model/insert_model_scenario [post]
func (h *ModelHandler) InsertModelScenario(c *fiber.Ctx) error {
	var body struct {
		ModelName   string         `json:"model_name"`
		Description string         `json:"description"`
		Parameters  datatypes.JSON `json:"parameters"`
	}
	if resp := parseBody(c, &body, "model_name", "description"); resp != nil {
		return resp
	}

	scenario, err := services.InsertModelScenario(h.DB, body.ModelName, body.Description, body.Parameters)
	if err != nil {
		return serviceErrorResponse(c, err, "insertModelScenario")
	}
	return c.Status(fiber.StatusCreated).JSON(scenario)
}

// ListModelScenarios handles GET /api/model/list_model_scenarios
// @Summary List model scenarios
// @Tags Model
// @Produce json
// @Success 200 {array} models.ModelScenario
// @Router /model/list_model_scenarios [get]
func (h *ModelHandler) ListModelScenarios(c *fiber.Ctx) error {
	result, err := services.ListModelScenarios(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listModelScenarios")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteModelScenario handles DELETE /api/model/delete_model_scenario
// @Summary Delete a model scenario
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{model_name, description}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /model/delete_model_scenario [delete]
func (h *ModelHandler) DeleteModelScenario(c *fiber.Ctx) error {
	var body struct {
		ModelName   string `json:"model_name"`
		Description string `json:"description"`
	}
	if resp := parseBody(c, &body, "model_name", "description"); resp != nil {
		return resp
	}

	if err := services.DeleteModelScenario(h.DB, body.ModelName, body.Description); err != nil {
		return serviceErrorResponse(c, err, "deleteModelScenario")
	}
	return utils.MessageResponse(c, "Model scenario deleted.")
}

// InsertModelMeasure handles POST /api/model/insert_model_measure
// @Summary Insert a model measure
// @Description Datatype has to be one of string, integer, float, boolean
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{name, units, datatype}"
// @Success 201 {object} models.ModelMeasure
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /model/insert_model_measure [post]
func (h *ModelHandler) InsertModelMeasure(c *fiber.Ctx) error {
	var body struct {
		Name     string `json:"name"`
		Units    string `json:"units"`
		Datatype string `json:"datatype"`
	}
	if resp := parseBody(c, &body, "name", "units", "datatype"); resp != nil {
		return resp
	}

	measure, err := services.InsertModelMeasure(h.DB, body.Name, body.Units, body.Datatype)
	if err != nil {
		return serviceErrorResponse(c, err, "insertModelMeasure")
	}
	return c.Status(fiber.StatusCreated).JSON(measure)
}

// ListModelMeasures handles GET /api/model/list_model_measures
// @Summary List model measures
// @Tags Model
// @Produce json
// @Success 200 {array} models.ModelMeasure
// @Router /model/list_model_measures [get]
func (h *ModelHandler) ListModelMeasures(c *fiber.Ctx) error {
	result, err := services.ListModelMeasures(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listModelMeasures")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteModelMeasure handles DELETE /api/model/delete_model_measure
// @Summary Delete a model measure
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{name}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /model/delete_model_measure [delete]
func (h *ModelHandler) DeleteModelMeasure(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if resp := parseBody(c, &body, "name"); resp != nil {
		return resp
	}

	if err := services.DeleteModelMeasure(h.DB, body.Name); err != nil {
		return serviceErrorResponse(c, err, "deleteModelMeasure")
	}
	return utils.MessageResponse(c, "Model measure deleted.")
}

// InsertModelRun handles POST /api/model/insert_model_run
// @Summary Insert a model run with its results
// @Description Values can be strings, integers, floats or booleans, matching each measure's datatype. There must be as many values as timestamps.
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{model_name, scenario_description, measures_and_values, time_created?, create_scenario?, sensor_unique_id?, sensor_measure?}"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /model/insert_model_run [post]
func (h *ModelHandler) InsertModelRun(c *fiber.Ctx) error {
	var body struct {
		ModelName           string                          `json:"model_name"`
		ScenarioDescription string                          `json:"scenario_description"`
		MeasuresAndValues   types.FlexList[measureValuesInput] `json:"measures_and_values"`
		TimeCreated         types.FlexTime                  `json:"time_created"`
		CreateScenario      bool                            `json:"create_scenario"`
		SensorUniqueID      *string                         `json:"sensor_unique_id"`
		SensorMeasure       *string                         `json:"sensor_measure"`
	}
	if resp := parseBody(c, &body, "model_name", "scenario_description", "measures_and_values"); resp != nil {
		return resp
	}

	args := services.InsertModelRunArgs{
		ModelName:           body.ModelName,
		ScenarioDescription: body.ScenarioDescription,
		TimeCreated:         body.TimeCreated.Time(),
		CreateScenario:      body.CreateScenario,
		SensorUniqueID:      body.SensorUniqueID,
		SensorMeasure:       body.SensorMeasure,
	}
	for _, mnv := range body.MeasuresAndValues.Slice() {
		args.MeasuresAndValues = append(args.MeasuresAndValues, mnv.toServiceInput())
	}

	runID, err := services.InsertModelRun(h.DB, args)
	if err != nil {
		return serviceErrorResponse(c, err, "insertModelRun")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"run_id": runID})
}

// ListModelRuns handles GET /api/model/list_model_runs
// @Summary List model runs in a time window
// @Description dt_from and dt_to bounds are inclusive
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{model_name, dt_from, dt_to, scenario?}"
// @Success 200 {array} services.ModelRunRecord
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /model/list_model_runs [get]
func (h *ModelHandler) ListModelRuns(c *fiber.Ctx) error {
	var body struct {
		ModelName string  `json:"model_name"`
		DtFrom    string  `json:"dt_from"`
		DtTo      string  `json:"dt_to"`
		Scenario  *string `json:"scenario"`
	}
	if resp := parseBody(c, &body, "model_name", "dt_from", "dt_to"); resp != nil {
		return resp
	}

	dtFrom, err := types.ParseTimestamp(body.DtFrom)
	if err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid dt_from: %v", err), fiber.StatusBadRequest, "validation.datetime")
	}
	dtTo, err := types.ParseTimestamp(body.DtTo)
	if err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid dt_to: %v", err), fiber.StatusBadRequest, "validation.datetime")
	}

	result, err := services.ListModelRuns(h.DB, body.ModelName, &dtFrom, &dtTo, body.Scenario)
	if err != nil {
		return serviceErrorResponse(c, err, "listModelRuns")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetModelRun handles GET /api/model/get_model_run
// @Summary Get the output of a model run for one measure
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{run_id, measure_name}"
// @Success 200 {array} services.ValueReading
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /model/get_model_run [get]
func (h *ModelHandler) GetModelRun(c *fiber.Ctx) error {
	var body struct {
		RunID       uint64 `json:"run_id"`
		MeasureName string `json:"measure_name"`
	}
	if resp := parseBody(c, &body, "run_id", "measure_name"); resp != nil {
		return resp
	}

	result, err := services.GetModelRun(h.DB, body.RunID, body.MeasureName)
	if err != nil {
		return serviceErrorResponse(c, err, "getModelRun")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetModelRunSensorMeasure handles GET /api/model/get_model_run_sensor_measure
// @Summary Get the sensor and measure a run's predictions are compared against
// @Tags Model
// @Accept json
// @Produce json
// @Param body body object true "{run_id}"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /model/get_model_run_sensor_measure [get]
func (h *ModelHandler) GetModelRunSensorMeasure(c *fiber.Ctx) error {
	var body struct {
		RunID uint64 `json:"run_id"`
	}
	if resp := parseBody(c, &body, "run_id"); resp != nil {
		return resp
	}

	sensorUniqueID, measureName, err := services.GetModelRunSensorMeasure(h.DB, body.RunID)
	if err != nil {
		return serviceErrorResponse(c, err, "getModelRunSensorMeasure")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"sensor_unique_id": sensorUniqueID,
		"measure_name":     measureName,
	})
}
