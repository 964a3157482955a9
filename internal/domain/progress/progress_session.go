package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProgressSession is resumable in-flight state for one unit on one UTC day.
// Saves are last-write-wins.
type ProgressSession struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	LearnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_session_key,unique,priority:1" json:"learner_id"`
	UnitID    string    `gorm:"column:unit_id;type:varchar(128);not null;index:idx_progress_session_key,unique,priority:2" json:"unit_id"`
	DayKey    string    `gorm:"column:day_key;type:varchar(10);not null;index:idx_progress_session_key,unique,priority:3;index" json:"day_key"`

	CurrentIndex int            `gorm:"column:current_index;not null;default:0" json:"current_index"`
	Answers      datatypes.JSON `gorm:"column:answers" json:"answers"`
	IsCompleted  bool           `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	FinalScore   *float64       `gorm:"column:final_score" json:"final_score,omitempty"`

	StartedAt     time.Time `gorm:"column:started_at;not null" json:"started_at"`
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null;index" json:"last_updated_at"`
}

func (ProgressSession) TableName() string { return "progress_session" }
