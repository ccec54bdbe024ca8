package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dtbase/dtbase/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeasureSpec describes one measure when creating a sensor type.
type MeasureSpec struct {
	Name     string `json:"name"`
	Units    string `json:"units"`
	Datatype string `json:"datatype"`
}

// SensorMeasureByName finds the sensor measure with the given name.
func SensorMeasureByName(db *gorm.DB, name string) (models.SensorMeasure, error) {
	var measure models.SensorMeasure
	if err := quiet(db).Where("name = ?", name).First(&measure).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return measure, fmt.Errorf("%w: no sensor measure named %q", ErrNotFound, name)
		}
		return measure, err
	}
	return measure, nil
}

// SensorByUniqueID finds the sensor with the given unique identifier.
func SensorByUniqueID(db *gorm.DB, uniqueID string) (models.Sensor, error) {
	var sensor models.Sensor
	if err := quiet(db).Where("unique_identifier = ?", uniqueID).First(&sensor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sensor, fmt.Errorf("%w: no sensor with identifier %q", ErrNotFound, uniqueID)
		}
		return sensor, err
	}
	return sensor, nil
}

// InsertSensorType inserts a sensor type together with its measures.
// Measures that already exist are reused, provided their declared units and
// datatype match.
func InsertSensorType(db *gorm.DB, name, description string, measures []MeasureSpec) (models.SensorType, error) {
	var sensorType models.SensorType

	for _, m := range measures {
		if !models.ValidDatatype(m.Datatype) {
			return sensorType, fmt.Errorf("%w: unrecognised datatype %q for measure %q", ErrInvalidInput, m.Datatype, m.Name)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		sensorType = models.SensorType{Name: name, Description: description}
		if err := tx.Create(&sensorType).Error; err != nil {
			return err
		}

		for _, m := range measures {
			var measure models.SensorMeasure
			err := quiet(tx).Where("name = ?", m.Name).First(&measure).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				measure = models.SensorMeasure{Name: m.Name, Units: m.Units, Datatype: m.Datatype}
				if err := tx.Create(&measure).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			case measure.Datatype != m.Datatype || measure.Units != m.Units:
				return fmt.Errorf("%w: measure %q already exists with units %q and datatype %q",
					ErrInvalidInput, m.Name, measure.Units, measure.Datatype)
			}
			if err := tx.Model(&sensorType).Association("Measures").Append(&measure); err != nil {
				return err
			}
		}
		return nil
	})

	return sensorType, err
}

// ListSensorTypes lists all sensor types with their measures.
func ListSensorTypes(db *gorm.DB) ([]models.SensorType, error) {
	var out []models.SensorType
	if err := db.Preload("Measures").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SensorTypeByName fetches a sensor type by name, with its measures.
func SensorTypeByName(db *gorm.DB, name string) (models.SensorType, error) {
	var sensorType models.SensorType
	err := quiet(db).Preload("Measures").Where("name = ?", name).First(&sensorType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sensorType, fmt.Errorf("%w: no sensor type named %q", ErrNotFound, name)
	}
	return sensorType, err
}

// ListSensorMeasures lists all sensor measures.
func ListSensorMeasures(db *gorm.DB) ([]models.SensorMeasure, error) {
	var out []models.SensorMeasure
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSensorType deletes a sensor type by name. Refuses to proceed if
// sensors of this type exist.
func DeleteSensorType(db *gorm.DB, name string) error {
	var sensorType models.SensorType
	if err := quiet(db).Where("name = ?", name).First(&sensorType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no sensor type named %q", ErrNotFound, name)
		}
		return err
	}

	var sensors int64
	if err := db.Model(&models.Sensor{}).Where("type_id = ?", sensorType.ID).Count(&sensors).Error; err != nil {
		return err
	}
	if sensors > 0 {
		return fmt.Errorf("%w: sensor type %q has %d sensors", ErrInUse, name, sensors)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sensorType).Association("Measures").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.SensorType{}, sensorType.ID).Error
	})
}

// InsertSensor inserts a sensor of the named type. A UUID is assigned when
// uniqueID is empty.
func InsertSensor(db *gorm.DB, typeName, uniqueID, name, notes string) (models.Sensor, error) {
	var sensor models.Sensor

	var sensorType models.SensorType
	if err := quiet(db).Where("name = ?", typeName).First(&sensorType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sensor, fmt.Errorf("%w: no sensor type named %q", ErrNotFound, typeName)
		}
		return sensor, err
	}

	if uniqueID == "" {
		uniqueID = uuid.NewString()
	}

	sensor = models.Sensor{
		TypeID:           sensorType.ID,
		UniqueIdentifier: uniqueID,
		Name:             name,
		Notes:            notes,
	}
	if err := db.Create(&sensor).Error; err != nil {
		return sensor, err
	}
	return sensor, nil
}

// ListSensors lists sensors, restricted to the named type when typeName is
// non-empty.
func ListSensors(db *gorm.DB, typeName string) ([]models.Sensor, error) {
	query := db.Order("id")
	if typeName != "" {
		var sensorType models.SensorType
		if err := quiet(db).Where("name = ?", typeName).First(&sensorType).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: no sensor type named %q", ErrNotFound, typeName)
			}
			return nil, err
		}
		query = query.Where("type_id = ?", sensorType.ID)
	}

	var out []models.Sensor
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSensor deletes a sensor by unique identifier. Refuses to proceed if
// readings for this sensor exist.
func DeleteSensor(db *gorm.DB, uniqueID string) error {
	sensor, err := SensorByUniqueID(db, uniqueID)
	if err != nil {
		return err
	}

	for _, table := range []interface{}{
		&models.SensorStringReading{}, &models.SensorIntegerReading{},
		&models.SensorFloatReading{}, &models.SensorBooleanReading{},
	} {
		var readings int64
		if err := db.Model(table).Where("sensor_id = ?", sensor.ID).Count(&readings).Error; err != nil {
			return err
		}
		if readings > 0 {
			return fmt.Errorf("%w: sensor %q has %d readings", ErrInUse, uniqueID, readings)
		}
	}

	return db.Delete(&models.Sensor{}, sensor.ID).Error
}

// InsertSensorReadings bulk-inserts timestamped readings of one measure for
// one sensor.
func InsertSensorReadings(db *gorm.DB, measureName, uniqueID string, values []interface{}, timestamps []time.Time) error {
	if len(values) != len(timestamps) {
		return fmt.Errorf("%w: got %d readings and %d timestamps", ErrInvalidInput, len(values), len(timestamps))
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: no readings to insert for measure %q", ErrInvalidInput, measureName)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		measure, err := SensorMeasureByName(tx, measureName)
		if err != nil {
			return err
		}
		sensor, err := SensorByUniqueID(tx, uniqueID)
		if err != nil {
			return err
		}

		datatype := models.Datatype(measure.Datatype)
		for _, v := range values {
			if err := datatype.CheckValue(v); err != nil {
				return fmt.Errorf("%w: for measure %q: %v", ErrInvalidInput, measureName, err)
			}
		}

		switch datatype {
		case models.DatatypeString:
			rows := make([]models.SensorStringReading, len(values))
			for i, v := range values {
				rows[i] = models.SensorStringReading{Value: v.(string), Timestamp: timestamps[i], SensorID: sensor.ID, MeasureID: measure.ID}
			}
			return tx.CreateInBatches(rows, 500).Error
		case models.DatatypeInteger:
			rows := make([]models.SensorIntegerReading, len(values))
			for i, v := range values {
				rows[i] = models.SensorIntegerReading{Value: int64(v.(float64)), Timestamp: timestamps[i], SensorID: sensor.ID, MeasureID: measure.ID}
			}
			return tx.CreateInBatches(rows, 500).Error
		case models.DatatypeFloat:
			rows := make([]models.SensorFloatReading, len(values))
			for i, v := range values {
				rows[i] = models.SensorFloatReading{Value: v.(float64), Timestamp: timestamps[i], SensorID: sensor.ID, MeasureID: measure.ID}
			}
			return tx.CreateInBatches(rows, 500).Error
		case models.DatatypeBoolean:
			rows := make([]models.SensorBooleanReading, len(values))
			for i, v := range values {
				rows[i] = models.SensorBooleanReading{Value: v.(bool), Timestamp: timestamps[i], SensorID: sensor.ID, MeasureID: measure.ID}
			}
			return tx.CreateInBatches(rows, 500).Error
		}
		return fmt.Errorf("%w: unrecognised datatype %q", ErrInvalidInput, measure.Datatype)
	})
}

// GetSensorReadings returns readings of one measure for one sensor inside
// the inclusive [dtFrom, dtTo] window, ordered by timestamp.
func GetSensorReadings(db *gorm.DB, measureName, uniqueID string, dtFrom, dtTo time.Time) ([]ValueReading, error) {
	measure, err := SensorMeasureByName(db, measureName)
	if err != nil {
		return nil, err
	}
	sensor, err := SensorByUniqueID(db, uniqueID)
	if err != nil {
		return nil, err
	}

	window := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("sensor_id = ? AND measure_id = ? AND timestamp >= ? AND timestamp <= ?",
			sensor.ID, measure.ID, dtFrom, dtTo).Order("timestamp")
	}

	out := []ValueReading{}
	switch models.Datatype(measure.Datatype) {
	case models.DatatypeString:
		var rows []models.SensorStringReading
		if err := window(db).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeInteger:
		var rows []models.SensorIntegerReading
		if err := window(db).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeFloat:
		var rows []models.SensorFloatReading
		if err := window(db).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	case models.DatatypeBoolean:
		var rows []models.SensorBooleanReading
		if err := window(db).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, ValueReading{Value: r.Value, Timestamp: r.Timestamp})
		}
	}
	return out, nil
}
