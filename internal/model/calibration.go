package model

import "time"

// CalibrationSession groups the step results of tuning one filament on one
// printer. Deleting the referenced filament deletes the session; deleting
// the session deletes its steps.
type CalibrationSession struct {
	ID             int       `gorm:"primaryKey"`
	Registered     time.Time `gorm:"not null"`
	FilamentID     int       `gorm:"index;not null"`
	Status         string    `gorm:"size:32;not null"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	PrinterName    *string `gorm:"size:256"`
	NozzleDiameter *float64
	Notes          *string `gorm:"size:1024"`

	// Associations
	Filament Filament                `gorm:"constraint:OnDelete:CASCADE"`
	Steps    []CalibrationStepResult `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (CalibrationSession) TableName() string { return "calibration_session" }

// CalibrationStepResult is one recorded calibration step. The inputs,
// outputs and selected_values columns hold caller-defined JSON objects
// serialized to text; NULL means the field was never supplied.
type CalibrationStepResult struct {
	ID             int    `gorm:"primaryKey"`
	SessionID      int    `gorm:"index;not null"`
	StepType       string `gorm:"size:64;not null"`
	Inputs         *string
	Outputs        *string
	SelectedValues *string
	Notes          *string   `gorm:"size:1024"`
	Confidence     *string   `gorm:"size:32"`
	RecordedAt     time.Time `gorm:"not null"`
}

func (CalibrationStepResult) TableName() string { return "calibration_step_result" }
