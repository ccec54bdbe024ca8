package handlers

import (
	"encoding/json"

	"github.com/dtbase/dtbase/internal/services"
	"github.com/dtbase/dtbase/internal/types"
	"github.com/dtbase/dtbase/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LocationHandler handles location schema and location routes
type LocationHandler struct {
	DB *gorm.DB
}

// InsertLocationSchema handles POST /api/location/insert_location_schema
// @Summary Insert a location schema
// @Description Identifiers are created if missing and reused when an identical one exists
// @Tags Location
// @Accept json
// @Produce json
// @Param body body object true "{name, description, identifiers}"
// @Success 201 {object} models.LocationSchema
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /location/insert_location_schema [post]
func (h *LocationHandler) InsertLocationSchema(c *fiber.Ctx) error {
	var body struct {
		Name        string                                   `json:"name"`
		Description string                                   `json:"description"`
		Identifiers types.FlexList[services.IdentifierSpec] `json:"identifiers"`
	}
	if resp := parseBody(c, &body, "name", "identifiers"); resp != nil {
		return resp
	}

	schema, err := services.InsertLocationSchema(h.DB, body.Name, body.Description, body.Identifiers.Slice())
	if err != nil {
		return serviceErrorResponse(c, err, "insertLocationSchema")
	}
	return c.Status(fiber.StatusCreated).JSON(schema)
}

// ListLocationSchemas handles GET /api/location/list_location_schemas
// @Summary List location schemas with their identifiers
// @Tags Location
// @Produce json
// @Success 200 {array} models.LocationSchema
// @Router /location/list_location_schemas [get]
func (h *LocationHandler) ListLocationSchemas(c *fiber.Ctx) error {
	result, err := services.ListLocationSchemas(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listLocationSchemas")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// ListLocationIdentifiers handles GET /api/location/list_location_identifiers
// @Summary List location identifiers
// @Tags Location
// @Produce json
// @Success 200 {array} models.LocationIdentifier
// @Router /location/list_location_identifiers [get]
func (h *LocationHandler) ListLocationIdentifiers(c *fiber.Ctx) error {
	result, err := services.ListLocationIdentifiers(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listLocationIdentifiers")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// GetSchemaDetails handles GET /api/location/get_schema_details
// @Summary Get one location schema with its identifiers
// @Tags Location
// @Accept json
// @Produce json
// @Param body body object true "{schema_name}"
// @Success 200 {object} models.LocationSchema
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /location/get_schema_details [get]
func (h *LocationHandler) GetSchemaDetails(c *fiber.Ctx) error {
	var body struct {
		SchemaName string `json:"schema_name"`
	}
	if resp := parseBody(c, &body, "schema_name"); resp != nil {
		return resp
	}

	schema, err := services.LocationSchemaByName(h.DB, body.SchemaName)
	if err != nil {
		return serviceErrorResponse(c, err, "getSchemaDetails")
	}
	return c.Status(fiber.StatusOK).JSON(schema)
}

// InsertLocation handles POST /api/location/insert_location
// @Summary Insert a location
// @Description Body carries schema_name plus one value per identifier of the schema
// @Tags Location
// @Accept json
// @Produce json
// @Param body body object true "{schema_name, <identifier values...>}"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /location/insert_location [post]
func (h *LocationHandler) InsertLocation(c *fiber.Ctx) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return utils.ErrorResponse(c, "Invalid input. Body must be valid JSON.", fiber.StatusBadRequest, "validation")
	}
	schemaName, ok := raw["schema_name"].(string)
	if !ok || schemaName == "" {
		return utils.ErrorResponse(c, "Missing required keys: schema_name", fiber.StatusBadRequest, "validation")
	}
	delete(raw, "schema_name")

	location, err := services.InsertLocation(h.DB, schemaName, raw)
	if err != nil {
		return serviceErrorResponse(c, err, "insertLocation")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"location_id": location.ID})
}

// ListLocations handles GET /api/location/list_locations/:schema
// @Summary List locations of a schema with their coordinates
// @Tags Location
// @Produce json
// @Param schema path string true "Schema name"
// @Success 200 {array} services.LocationRecord
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /location/list_locations/{schema} [get]
func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	schemaName := c.Params("schema")

	result, err := services.ListLocations(h.DB, schemaName)
	if err != nil {
		return serviceErrorResponse(c, err, "listLocations")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteLocationSchema handles DELETE /api/location/delete_location_schema
// @Summary Delete a location schema
// @Tags Location
// @Accept json
// @Produce json
// @Param body body object true "{name}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /location/delete_location_schema [delete]
func (h *LocationHandler) DeleteLocationSchema(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if resp := parseBody(c, &body, "name"); resp != nil {
		return resp
	}

	if err := services.DeleteLocationSchema(h.DB, body.Name); err != nil {
		return serviceErrorResponse(c, err, "deleteLocationSchema")
	}
	return utils.MessageResponse(c, "Location schema deleted.")
}
