package progress

import (
	"time"

	"github.com/google/uuid"
)

// PracticeUnit is the catalog entry a completion refers to. Only the fields
// the aggregates need are stored here; drill content lives elsewhere.
type PracticeUnit struct {
	ID     string `gorm:"column:id;type:varchar(128);primaryKey" json:"id"`
	Kind   string `gorm:"column:kind;type:varchar(64);not null;index" json:"kind"`
	Title  string `gorm:"column:title;type:varchar(255)" json:"title"`
	Active bool   `gorm:"column:active;not null" json:"active"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PracticeUnit) TableName() string { return "practice_unit" }

// UnitAssignment marks a unit as assigned to a learner.
type UnitAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID  uuid.UUID `gorm:"type:uuid;not null;index:idx_unit_assignment,unique,priority:1" json:"learner_id"`
	UnitID     string    `gorm:"column:unit_id;type:varchar(128);not null;index:idx_unit_assignment,unique,priority:2" json:"unit_id"`
	AssignedAt time.Time `gorm:"column:assigned_at;not null" json:"assigned_at"`
}

func (UnitAssignment) TableName() string { return "unit_assignment" }
