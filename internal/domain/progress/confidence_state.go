package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

type ConfidenceHistoryEntry struct {
	Score          float64   `json:"score"`
	Label          string    `json:"label"`
	Timestamp      time.Time `json:"timestamp"`
	CompletedUnits int       `json:"completedUnits"`
}

type ConfidenceState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_confidence_state_learner" json:"learner_id"`

	AssignedUnits          int     `gorm:"column:assigned_units;not null;default:0" json:"assigned_units"`
	CompletedUnits         int     `gorm:"column:completed_units;not null;default:0" json:"completed_units"`
	CompletionRate         float64 `gorm:"column:completion_rate;not null;default:0" json:"completion_rate"`
	CompletionContribution float64 `gorm:"column:completion_contribution;not null;default:0" json:"completion_contribution"`
	QualityScore           float64 `gorm:"column:quality_score;not null;default:0" json:"quality_score"`
	QualityContribution    float64 `gorm:"column:quality_contribution;not null;default:0" json:"quality_contribution"`
	PronunciationAverage   float64 `gorm:"column:pronunciation_average;not null;default:0" json:"pronunciation_average"`
	CorrectnessAverage     float64 `gorm:"column:correctness_average;not null;default:0" json:"correctness_average"`
	ConfidenceScore        float64 `gorm:"column:confidence_score;not null;default:0" json:"confidence_score"`
	Label                  string  `gorm:"column:label;type:varchar(32)" json:"label"`
	Trend                  Trend   `gorm:"column:trend;type:varchar(16)" json:"trend"`

	History         datatypes.JSON `gorm:"column:history" json:"history"`
	SourceWatermark *time.Time     `gorm:"column:source_watermark" json:"source_watermark,omitempty"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (ConfidenceState) TableName() string { return "confidence_state" }

// ConfidenceSnapshot is the decoded form of a ConfidenceState.
type ConfidenceSnapshot struct {
	AssignedUnits          int
	CompletedUnits         int
	CompletionRate         float64
	CompletionContribution float64
	QualityScore           float64
	QualityContribution    float64
	PronunciationAverage   float64
	CorrectnessAverage     float64
	ConfidenceScore        float64
	Label                  string
	Trend                  Trend
	History                []ConfidenceHistoryEntry
}

func (s *ConfidenceState) Snapshot() (ConfidenceSnapshot, error) {
	var snap ConfidenceSnapshot
	if s == nil {
		return snap, nil
	}
	snap = ConfidenceSnapshot{
		AssignedUnits:          s.AssignedUnits,
		CompletedUnits:         s.CompletedUnits,
		CompletionRate:         s.CompletionRate,
		CompletionContribution: s.CompletionContribution,
		QualityScore:           s.QualityScore,
		QualityContribution:    s.QualityContribution,
		PronunciationAverage:   s.PronunciationAverage,
		CorrectnessAverage:     s.CorrectnessAverage,
		ConfidenceScore:        s.ConfidenceScore,
		Label:                  s.Label,
		Trend:                  s.Trend,
	}
	err := decodeJSON(s.History, &snap.History)
	return snap, err
}

func (s *ConfidenceState) Apply(snap ConfidenceSnapshot) error {
	history := snap.History
	if history == nil {
		history = []ConfidenceHistoryEntry{}
	}
	h, err := encodeJSON(history)
	if err != nil {
		return err
	}
	s.AssignedUnits = snap.AssignedUnits
	s.CompletedUnits = snap.CompletedUnits
	s.CompletionRate = snap.CompletionRate
	s.CompletionContribution = snap.CompletionContribution
	s.QualityScore = snap.QualityScore
	s.QualityContribution = snap.QualityContribution
	s.PronunciationAverage = snap.PronunciationAverage
	s.CorrectnessAverage = snap.CorrectnessAverage
	s.ConfidenceScore = snap.ConfidenceScore
	s.Label = snap.Label
	s.Trend = snap.Trend
	s.History = h
	return nil
}
