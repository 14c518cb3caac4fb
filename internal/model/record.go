package model

import "time"

// Record represents a single timestamped vital-sign measurement batch.
// Fev1Fvc is derived at write time by the store and never accepted as input.
type Record struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	MachineID  string    `gorm:"column:machine_id;type:char(36);not null;index" json:"machineId"`
	SpO2       int       `gorm:"column:spo2;not null" json:"spo2"`
	FEV1       float64   `gorm:"column:fev1;not null" json:"fev1"`
	FVC        float64   `gorm:"column:fvc;not null" json:"fvc"`
	PEF        float64   `gorm:"column:pef;not null" json:"pef"`
	Fev1Fvc    float64   `gorm:"column:fev1_fvc" json:"fev1Fvc"`
	MeasuredAt time.Time `gorm:"column:measured_at;not null;index" json:"measuredAt"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	Machine *Machine `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
}
