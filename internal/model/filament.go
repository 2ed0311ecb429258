package model

import "time"

// Filament is the sibling resource that calibration sessions attach to.
// It is owned by another part of the system; only the columns needed for
// the foreign key and cascade behaviour live here.
type Filament struct {
	ID         int       `gorm:"primaryKey"`
	Registered time.Time `gorm:"not null"`
	Name       string    `gorm:"size:64"`
	Material   string    `gorm:"size:64"`

	// Associations
	Sessions []CalibrationSession `gorm:"foreignKey:FilamentID;constraint:OnDelete:CASCADE"`
}

func (Filament) TableName() string { return "filament" }
