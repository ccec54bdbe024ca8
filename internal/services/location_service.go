package services

import (
	"errors"
	"fmt"

	"github.com/dtbase/dtbase/internal/models"
	"gorm.io/gorm"
)

// IdentifierSpec describes one identifier when creating a location schema.
type IdentifierSpec struct {
	Name     string `json:"name"`
	Units    string `json:"units"`
	Datatype string `json:"datatype"`
}

// LocationRecord is one location with its coordinate values, keyed by
// identifier name.
type LocationRecord struct {
	ID          uint64                 `json:"id"`
	Coordinates map[string]interface{} `json:"coordinates"`
}

// LocationSchemaByName finds the schema with the given name, identifiers
// included.
func LocationSchemaByName(db *gorm.DB, name string) (models.LocationSchema, error) {
	var schema models.LocationSchema
	err := quiet(db).Preload("Identifiers").Where("name = ?", name).First(&schema).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schema, fmt.Errorf("%w: no location schema named %q", ErrNotFound, name)
		}
		return schema, err
	}
	return schema, nil
}

// InsertLocationSchema inserts a schema together with its identifiers.
// Identifiers that already exist are reused, provided their declared units
// and datatype match.
func InsertLocationSchema(db *gorm.DB, name, description string, identifiers []IdentifierSpec) (models.LocationSchema, error) {
	var schema models.LocationSchema

	for _, idf := range identifiers {
		if !models.ValidDatatype(idf.Datatype) {
			return schema, fmt.Errorf("%w: unrecognised datatype %q for identifier %q", ErrInvalidInput, idf.Datatype, idf.Name)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		schema = models.LocationSchema{Name: name, Description: description}
		if err := tx.Create(&schema).Error; err != nil {
			return err
		}

		for _, idf := range identifiers {
			var identifier models.LocationIdentifier
			err := quiet(tx).Where("name = ?", idf.Name).First(&identifier).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				identifier = models.LocationIdentifier{Name: idf.Name, Units: idf.Units, Datatype: idf.Datatype}
				if err := tx.Create(&identifier).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			case identifier.Datatype != idf.Datatype || identifier.Units != idf.Units:
				return fmt.Errorf("%w: identifier %q already exists with units %q and datatype %q",
					ErrInvalidInput, idf.Name, identifier.Units, identifier.Datatype)
			}
			if err := tx.Model(&schema).Association("Identifiers").Append(&identifier); err != nil {
				return err
			}
		}
		return nil
	})

	return schema, err
}

// ListLocationSchemas lists all schemas with their identifiers.
func ListLocationSchemas(db *gorm.DB) ([]models.LocationSchema, error) {
	var out []models.LocationSchema
	if err := db.Preload("Identifiers").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListLocationIdentifiers lists all identifiers.
func ListLocationIdentifiers(db *gorm.DB) ([]models.LocationIdentifier, error) {
	var out []models.LocationIdentifier
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteLocationSchema deletes a schema by name. Refuses to proceed if
// locations with this schema exist.
func DeleteLocationSchema(db *gorm.DB, name string) error {
	schema, err := LocationSchemaByName(db, name)
	if err != nil {
		return err
	}

	var locations int64
	if err := db.Model(&models.Location{}).Where("schema_id = ?", schema.ID).Count(&locations).Error; err != nil {
		return err
	}
	if locations > 0 {
		return fmt.Errorf("%w: schema %q has %d locations", ErrInUse, name, locations)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&schema).Association("Identifiers").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.LocationSchema{}, schema.ID).Error
	})
}

// InsertLocation inserts a location identified by one value per identifier
// of the named schema. Values must match the identifiers' datatypes; extra
// or missing coordinates are rejected.
func InsertLocation(db *gorm.DB, schemaName string, coordinates map[string]interface{}) (models.Location, error) {
	var location models.Location

	schema, err := LocationSchemaByName(db, schemaName)
	if err != nil {
		return location, err
	}

	known := make(map[string]models.LocationIdentifier, len(schema.Identifiers))
	for _, idf := range schema.Identifiers {
		known[idf.Name] = idf
	}
	for name := range coordinates {
		if _, ok := known[name]; !ok {
			return location, fmt.Errorf("%w: schema %q has no identifier %q", ErrInvalidInput, schemaName, name)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		location = models.Location{SchemaID: schema.ID}
		if err := tx.Create(&location).Error; err != nil {
			return err
		}

		for _, idf := range schema.Identifiers {
			value, ok := coordinates[idf.Name]
			if !ok {
				return fmt.Errorf("%w: missing value for identifier %q", ErrInvalidInput, idf.Name)
			}
			datatype := models.Datatype(idf.Datatype)
			if err := datatype.CheckValue(value); err != nil {
				return fmt.Errorf("%w: for identifier %q: %v", ErrInvalidInput, idf.Name, err)
			}

			var insertErr error
			switch datatype {
			case models.DatatypeString:
				insertErr = tx.Create(&models.LocationStringValue{Value: value.(string), LocationID: location.ID, IdentifierID: idf.ID}).Error
			case models.DatatypeInteger:
				insertErr = tx.Create(&models.LocationIntegerValue{Value: int64(value.(float64)), LocationID: location.ID, IdentifierID: idf.ID}).Error
			case models.DatatypeFloat:
				insertErr = tx.Create(&models.LocationFloatValue{Value: value.(float64), LocationID: location.ID, IdentifierID: idf.ID}).Error
			case models.DatatypeBoolean:
				insertErr = tx.Create(&models.LocationBooleanValue{Value: value.(bool), LocationID: location.ID, IdentifierID: idf.ID}).Error
			}
			if insertErr != nil {
				return insertErr
			}
		}
		return nil
	})

	return location, err
}

// ListLocations lists all locations of the named schema with their
// coordinate values.
func ListLocations(db *gorm.DB, schemaName string) ([]LocationRecord, error) {
	schema, err := LocationSchemaByName(db, schemaName)
	if err != nil {
		return nil, err
	}

	var locations []models.Location
	if err := db.Where("schema_id = ?", schema.ID).Order("id").Find(&locations).Error; err != nil {
		return nil, err
	}

	out := make([]LocationRecord, 0, len(locations))
	for _, loc := range locations {
		record := LocationRecord{ID: loc.ID, Coordinates: map[string]interface{}{}}
		for _, idf := range schema.Identifiers {
			switch models.Datatype(idf.Datatype) {
			case models.DatatypeString:
				var row models.LocationStringValue
				if err := quiet(db).Where("location_id = ? AND identifier_id = ?", loc.ID, idf.ID).First(&row).Error; err == nil {
					record.Coordinates[idf.Name] = row.Value
				}
			case models.DatatypeInteger:
				var row models.LocationIntegerValue
				if err := quiet(db).Where("location_id = ? AND identifier_id = ?", loc.ID, idf.ID).First(&row).Error; err == nil {
					record.Coordinates[idf.Name] = row.Value
				}
			case models.DatatypeFloat:
				var row models.LocationFloatValue
				if err := quiet(db).Where("location_id = ? AND identifier_id = ?", loc.ID, idf.ID).First(&row).Error; err == nil {
					record.Coordinates[idf.Name] = row.Value
				}
			case models.DatatypeBoolean:
				var row models.LocationBooleanValue
				if err := quiet(db).Where("location_id = ? AND identifier_id = ?", loc.ID, idf.ID).First(&row).Error; err == nil {
					record.Coordinates[idf.Name] = row.Value
				}
			}
		}
		out = append(out, record)
	}
	return out, nil
}
