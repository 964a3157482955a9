package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PronunciationHistoryEntry struct {
	Score      int       `json:"score"`
	WordsCount int       `json:"wordsCount"`
	Timestamp  time.Time `json:"timestamp"`
}

type PronunciationState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pronunciation_state_learner" json:"learner_id"`

	OverallScore         int            `gorm:"column:overall_score;not null;default:0" json:"overall_score"`
	TotalWordsPronounced int            `gorm:"column:total_words_pronounced;not null;default:0" json:"total_words_pronounced"`
	History              datatypes.JSON `gorm:"column:history" json:"history"`
	SourceWatermark      *time.Time     `gorm:"column:source_watermark" json:"source_watermark,omitempty"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (PronunciationState) TableName() string { return "pronunciation_state" }

type PronunciationSnapshot struct {
	OverallScore         int
	TotalWordsPronounced int
	History              []PronunciationHistoryEntry
}

func (s *PronunciationState) Snapshot() (PronunciationSnapshot, error) {
	var snap PronunciationSnapshot
	if s == nil {
		return snap, nil
	}
	snap.OverallScore = s.OverallScore
	snap.TotalWordsPronounced = s.TotalWordsPronounced
	err := decodeJSON(s.History, &snap.History)
	return snap, err
}

func (s *PronunciationState) Apply(snap PronunciationSnapshot) error {
	history := snap.History
	if history == nil {
		history = []PronunciationHistoryEntry{}
	}
	h, err := encodeJSON(history)
	if err != nil {
		return err
	}
	s.OverallScore = snap.OverallScore
	s.TotalWordsPronounced = snap.TotalWordsPronounced
	s.History = h
	return nil
}
