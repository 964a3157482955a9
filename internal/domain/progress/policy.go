package progress

import (
	"strings"
)

const (
	// Maximum contribution of each signal to the 0..100 confidence score.
	CompletionWeight = 40.0
	QualityWeight    = 0.60
)

type Milestone struct {
	Days    int    `yaml:"days" json:"days"`
	BadgeID string `yaml:"badge_id" json:"badgeId"`
	Name    string `yaml:"name" json:"name"`
}

type LabelTier struct {
	MinScore float64 `yaml:"min_score" json:"minScore"`
	Label    string  `yaml:"label" json:"label"`
}

// Policy holds the tunable constants of the engine.
type Policy struct {
	PassingScore            float64
	Milestones              []Milestone // ascending by Days
	LabelLadder             []LabelTier // descending by MinScore; last tier is the floor
	TrendEpsilon            float64
	ConfidenceHistoryCap    int
	PronunciationHistoryCap int
	PronunciationKinds      []string
	PronunciationWeight     float64
	CorrectnessWeight       float64
}

func DefaultPolicy() Policy {
	return Policy{
		PassingScore: 70,
		Milestones: []Milestone{
			{Days: 3, BadgeID: "streak_3", Name: "3-Day Streak"},
			{Days: 7, BadgeID: "streak_7", Name: "Week Warrior"},
			{Days: 14, BadgeID: "streak_14", Name: "Two-Week Trailblazer"},
			{Days: 30, BadgeID: "streak_30", Name: "Monthly Master"},
			{Days: 60, BadgeID: "streak_60", Name: "Unstoppable"},
			{Days: 100, BadgeID: "streak_100", Name: "Century Club"},
			{Days: 365, BadgeID: "streak_365", Name: "Year of Practice"},
		},
		LabelLadder: []LabelTier{
			{MinScore: 90, Label: "Excellent"},
			{MinScore: 80, Label: "Very Good"},
			{MinScore: 70, Label: "Good"},
			{MinScore: 55, Label: "Average"},
			{MinScore: 40, Label: "Developing"},
			{MinScore: 0, Label: "Needs Improvement"},
		},
		TrendEpsilon:            0.5,
		ConfidenceHistoryCap:    20,
		PronunciationHistoryCap: 50,
		PronunciationKinds:      []string{"pronunciation", "speaking", "scene"},
		PronunciationWeight:     1,
		CorrectnessWeight:       1,
	}
}

func (p Policy) IsPronunciationKind(kind string) bool {
	kind = strings.TrimSpace(kind)
	for _, k := range p.PronunciationKinds {
		if strings.EqualFold(kind, strings.TrimSpace(k)) {
			return true
		}
	}
	return false
}

// LabelFor walks the ladder top-down; scores below every cut point get the last label.
func (p Policy) LabelFor(score float64) string {
	if len(p.LabelLadder) == 0 {
		return ""
	}
	for _, tier := range p.LabelLadder {
		if score >= tier.MinScore {
			return tier.Label
		}
	}
	return p.LabelLadder[len(p.LabelLadder)-1].Label
}
