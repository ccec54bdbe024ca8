package models

import (
	"time"

	"gorm.io/datatypes"
)

// Model represents a forecasting model known to the platform.
type Model struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ModelScenario is one parameter configuration under which a model can be
// run. The description is free-form text; structured parameters, when the
// caller has them, go into Parameters.
type ModelScenario struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	ModelID     uint64 `gorm:"not null;index;uniqueIndex:idx_scenario_model_desc"`
	Description string `gorm:"size:255;uniqueIndex:idx_scenario_model_desc"`
	Parameters  datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Model       Model `gorm:"constraint:OnDelete:RESTRICT"`
}

// ModelMeasure is a named, typed quantity a model can output, such as
// "mean temperature" or "upper bound for electricity consumption".
type ModelMeasure struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Units     string `gorm:"size:64"`
	Datatype  string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ModelRun is one execution of a model under a scenario. The sensor fields,
// when set, name the real-world series against which the run's predictions
// should be compared.
type ModelRun struct {
	ID             uint64        `gorm:"primaryKey;autoIncrement"`
	ModelID        uint64        `gorm:"not null;index"`
	ScenarioID     uint64        `gorm:"not null;index"`
	TimeCreated    time.Time     `gorm:"not null;index"`
	SensorUniqueID *string       `gorm:"size:255"`
	SensorMeasure  *string       `gorm:"size:255"`
	Model          Model         `gorm:"constraint:OnDelete:RESTRICT"`
	Scenario       ModelScenario `gorm:"foreignKey:ScenarioID;constraint:OnDelete:RESTRICT"`
}

// ModelProduct ties one run to one measure; the typed value rows hang off it.
type ModelProduct struct {
	ID        uint64       `gorm:"primaryKey;autoIncrement"`
	RunID     uint64       `gorm:"not null;index"`
	MeasureID uint64       `gorm:"not null;index"`
	Run       ModelRun     `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Measure   ModelMeasure `gorm:"foreignKey:MeasureID;constraint:OnDelete:RESTRICT"`
}

// Per-datatype value tables. A product's rows live in exactly one of these,
// chosen by the measure's declared datatype.

type ModelStringValue struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	ProductID uint64    `gorm:"not null;index"`
}

type ModelIntegerValue struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     int64     `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	ProductID uint64    `gorm:"not null;index"`
}

type ModelFloatValue struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	ProductID uint64    `gorm:"not null;index"`
}

type ModelBooleanValue struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     bool      `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	ProductID uint64    `gorm:"not null;index"`
}

func (Model) TableName() string             { return "model" }
func (ModelScenario) TableName() string     { return "model_scenario" }
func (ModelMeasure) TableName() string      { return "model_measure" }
func (ModelRun) TableName() string          { return "model_run" }
func (ModelProduct) TableName() string      { return "model_product" }
func (ModelStringValue) TableName() string  { return "model_string_value" }
func (ModelIntegerValue) TableName() string { return "model_integer_value" }
func (ModelFloatValue) TableName() string   { return "model_float_value" }
func (ModelBooleanValue) TableName() string { return "model_boolean_value" }
