package progress

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// WordScore is one provider-scored word from a pronunciation attempt.
type WordScore struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

// Answer is one in-progress or submitted answer inside a unit.
type Answer struct {
	Type       string          `json:"type"`
	Index      int             `json:"index"`
	UserAnswer json.RawMessage `json:"userAnswer,omitempty"`
	IsCorrect  *bool           `json:"isCorrect,omitempty"`
	Submitted  bool            `json:"submitted"`
	WordScores []WordScore     `json:"wordScores,omitempty"`
	SceneScore *float64        `json:"sceneScore,omitempty"`
}

// PronunciationScores returns the provider scores carried by the answer that
// count as real attempts (strictly positive).
func (a Answer) PronunciationScores() []float64 {
	out := make([]float64, 0, len(a.WordScores)+1)
	for _, ws := range a.WordScores {
		if ws.Score > 0 {
			out = append(out, ws.Score)
		}
	}
	if a.SceneScore != nil && *a.SceneScore > 0 {
		out = append(out, *a.SceneScore)
	}
	return out
}

func EncodeAnswers(answers []Answer) (datatypes.JSON, error) {
	if answers == nil {
		answers = []Answer{}
	}
	return encodeJSON(answers)
}

func DecodeAnswers(raw datatypes.JSON) ([]Answer, error) {
	out := []Answer{}
	if err := decodeJSON(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
