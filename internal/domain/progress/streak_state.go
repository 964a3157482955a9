package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Badge is a permanent streak milestone marker.
type Badge struct {
	BadgeID    string    `json:"badgeId"`
	Name       string    `json:"name"`
	Milestone  int       `json:"milestone"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// WeeklySlot is one entry of the 7-slot activity cache, indexed by weekday.
type WeeklySlot struct {
	Date      string  `json:"date"`
	Completed bool    `json:"completed"`
	Score     float64 `json:"score"`
}

type StreakState struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_streak_state_learner" json:"learner_id"`

	CurrentStreak    int    `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	StreakStartDate  string `gorm:"column:streak_start_date;type:varchar(10)" json:"streak_start_date,omitempty"`
	LastActivityDate string `gorm:"column:last_activity_date;type:varchar(10);index" json:"last_activity_date,omitempty"`
	LongestStreak    int    `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`

	Badges         datatypes.JSON `gorm:"column:badges" json:"badges"`
	WeeklyActivity datatypes.JSON `gorm:"column:weekly_activity" json:"weekly_activity"`

	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (StreakState) TableName() string { return "streak_state" }

// StreakSnapshot is the decoded, JSON-free form the calculator works on.
type StreakSnapshot struct {
	CurrentStreak    int
	StreakStartDate  string
	LastActivityDate string
	LongestStreak    int
	Badges           []Badge
	Weekly           [7]WeeklySlot
}

func (s *StreakState) Snapshot() (StreakSnapshot, error) {
	var snap StreakSnapshot
	if s == nil {
		return snap, nil
	}
	snap.CurrentStreak = s.CurrentStreak
	snap.StreakStartDate = s.StreakStartDate
	snap.LastActivityDate = s.LastActivityDate
	snap.LongestStreak = s.LongestStreak
	if err := decodeJSON(s.Badges, &snap.Badges); err != nil {
		return snap, err
	}
	var weekly []WeeklySlot
	if err := decodeJSON(s.WeeklyActivity, &weekly); err != nil {
		return snap, err
	}
	copy(snap.Weekly[:], weekly)
	return snap, nil
}

// Apply writes snap back into the row's columns.
func (s *StreakState) Apply(snap StreakSnapshot) error {
	badges := snap.Badges
	if badges == nil {
		badges = []Badge{}
	}
	b, err := encodeJSON(badges)
	if err != nil {
		return err
	}
	w, err := encodeJSON(snap.Weekly[:])
	if err != nil {
		return err
	}
	s.CurrentStreak = snap.CurrentStreak
	s.StreakStartDate = snap.StreakStartDate
	s.LastActivityDate = snap.LastActivityDate
	s.LongestStreak = snap.LongestStreak
	s.Badges = b
	s.WeeklyActivity = w
	return nil
}
