package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CompletionRecord is durable proof that a learner finished a unit on a UTC day.
// At most one row per (learner, unit, day) has IsFirstCompletion set; same-day
// replays are kept as additional rows and never feed aggregates. The partial
// unique index enforcing this is created by data/db.EnsureProgressIndexes.
type CompletionRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	LearnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_learner_time,priority:1" json:"learner_id"`
	UnitID    string    `gorm:"column:unit_id;type:varchar(128);not null;index" json:"unit_id"`
	DayKey    string    `gorm:"column:day_key;type:varchar(10);not null;index" json:"day_key"`

	Score            float64        `gorm:"column:score;not null;default:0" json:"score"`
	CorrectCount     int            `gorm:"column:correct_count;not null;default:0" json:"correct_count"`
	TotalCount       int            `gorm:"column:total_count;not null;default:0" json:"total_count"`
	TimeSpentSeconds int            `gorm:"column:time_spent_seconds;not null;default:0" json:"time_spent_seconds"`
	Answers          datatypes.JSON `gorm:"column:answers" json:"answers,omitempty"`

	IsFirstCompletion bool      `gorm:"column:is_first_completion;not null;default:false;index" json:"is_first_completion"`
	CompletedAt       time.Time `gorm:"column:completed_at;not null;index:idx_completion_learner_time,priority:2" json:"completed_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CompletionRecord) TableName() string { return "completion_record" }

func (r *CompletionRecord) DecodedAnswers() []Answer {
	if r == nil {
		return nil
	}
	answers, err := DecodeAnswers(r.Answers)
	if err != nil {
		return nil
	}
	return answers
}
