package policy

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

const policyPathEnv = "PROGRESS_POLICY_PATH"

//go:embed policy.yaml
var policyFS embed.FS

type yamlPolicy struct {
	Policy       string               `yaml:"policy"`
	Version      int                  `yaml:"version"`
	PassingScore *float64             `yaml:"passing_score"`
	Milestones   []progress.Milestone `yaml:"milestones"`
	Confidence   struct {
		Labels       []progress.LabelTier `yaml:"labels"`
		TrendEpsilon *float64             `yaml:"trend_epsilon"`
		HistoryCap   int                  `yaml:"history_cap"`
		Weights      struct {
			Pronunciation *float64 `yaml:"pronunciation"`
			Correctness   *float64 `yaml:"correctness"`
		} `yaml:"weights"`
	} `yaml:"confidence"`
	Pronunciation struct {
		Kinds      []string `yaml:"kinds"`
		HistoryCap int      `yaml:"history_cap"`
	} `yaml:"pronunciation"`
}

var (
	currentOnce sync.Once
	currentPol  progress.Policy
	currentErr  error
)

// Current returns the process-wide policy, loaded once from PROGRESS_POLICY_PATH
// or the embedded default. A broken file falls back to progress.DefaultPolicy.
func Current(log *logger.Logger) progress.Policy {
	currentOnce.Do(func() {
		var data []byte
		data, currentErr = read()
		if currentErr == nil {
			currentPol, currentErr = Parse(data)
		}
		if currentErr != nil {
			currentPol = progress.DefaultPolicy()
		}
	})
	if currentErr != nil && log != nil {
		log.Warn("policy: load failed; using defaults", "error", currentErr)
	}
	return currentPol
}

// Load reads and validates a policy file.
func Load(path string) (progress.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return progress.Policy{}, err
	}
	return Parse(data)
}

// Parse decodes a policy document. Omitted sections keep their default values.
func Parse(data []byte) (progress.Policy, error) {
	var doc yamlPolicy
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return progress.Policy{}, err
	}
	if name := strings.TrimSpace(doc.Policy); name != "" && name != "progress" {
		return progress.Policy{}, fmt.Errorf("unexpected policy: %s", name)
	}

	p := progress.DefaultPolicy()
	if doc.PassingScore != nil {
		p.PassingScore = *doc.PassingScore
	}
	if len(doc.Milestones) > 0 {
		p.Milestones = append([]progress.Milestone(nil), doc.Milestones...)
		sort.SliceStable(p.Milestones, func(i, j int) bool { return p.Milestones[i].Days < p.Milestones[j].Days })
	}
	if len(doc.Confidence.Labels) > 0 {
		p.LabelLadder = append([]progress.LabelTier(nil), doc.Confidence.Labels...)
		sort.SliceStable(p.LabelLadder, func(i, j int) bool { return p.LabelLadder[i].MinScore > p.LabelLadder[j].MinScore })
	}
	if doc.Confidence.TrendEpsilon != nil {
		p.TrendEpsilon = *doc.Confidence.TrendEpsilon
	}
	if doc.Confidence.HistoryCap != 0 {
		p.ConfidenceHistoryCap = doc.Confidence.HistoryCap
	}
	if w := doc.Confidence.Weights.Pronunciation; w != nil {
		p.PronunciationWeight = *w
	}
	if w := doc.Confidence.Weights.Correctness; w != nil {
		p.CorrectnessWeight = *w
	}
	if len(doc.Pronunciation.Kinds) > 0 {
		p.PronunciationKinds = dedupeStrings(doc.Pronunciation.Kinds)
	}
	if doc.Pronunciation.HistoryCap != 0 {
		p.PronunciationHistoryCap = doc.Pronunciation.HistoryCap
	}

	if err := Validate(p); err != nil {
		return progress.Policy{}, err
	}
	return p, nil
}

func Validate(p progress.Policy) error {
	if p.PassingScore < 0 || p.PassingScore > 100 {
		return fmt.Errorf("passing_score out of range: %v", p.PassingScore)
	}
	seenDays := map[int]bool{}
	seenIDs := map[string]bool{}
	for _, m := range p.Milestones {
		id := strings.TrimSpace(m.BadgeID)
		if m.Days <= 0 {
			return fmt.Errorf("milestone %q: days must be positive", id)
		}
		if id == "" {
			return fmt.Errorf("milestone %d: badge_id is required", m.Days)
		}
		if seenDays[m.Days] {
			return fmt.Errorf("duplicate milestone: %d days", m.Days)
		}
		if seenIDs[id] {
			return fmt.Errorf("duplicate badge_id: %s", id)
		}
		seenDays[m.Days] = true
		seenIDs[id] = true
	}
	if len(p.LabelLadder) == 0 {
		return errors.New("confidence labels are required")
	}
	seenCut := map[float64]bool{}
	for _, tier := range p.LabelLadder {
		if strings.TrimSpace(tier.Label) == "" {
			return fmt.Errorf("label at %v is empty", tier.MinScore)
		}
		if seenCut[tier.MinScore] {
			return fmt.Errorf("overlapping label cut point: %v", tier.MinScore)
		}
		seenCut[tier.MinScore] = true
	}
	if floor := p.LabelLadder[len(p.LabelLadder)-1].MinScore; floor > 0 {
		return fmt.Errorf("lowest label must start at 0, got %v", floor)
	}
	if p.TrendEpsilon < 0 {
		return fmt.Errorf("trend_epsilon must be >= 0")
	}
	if p.ConfidenceHistoryCap <= 0 || p.PronunciationHistoryCap <= 0 {
		return errors.New("history caps must be positive")
	}
	if p.PronunciationWeight < 0 || p.CorrectnessWeight < 0 {
		return errors.New("weights must be >= 0")
	}
	if p.PronunciationWeight == 0 && p.CorrectnessWeight == 0 {
		return errors.New("at least one weight must be positive")
	}
	return nil
}

func read() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(policyPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return policyFS.ReadFile("policy.yaml")
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
