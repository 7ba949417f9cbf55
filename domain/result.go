package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// Scoring criteria.
const (
	CriterionRelevance     = "relevance_to_questions"
	CriterionExperience    = "experience_background_fit"
	CriterionRoleKnowledge = "role_specific_knowledge"
	CriterionCommunication = "communication_skills"
	CriterionEmotional     = "emotional_intelligence"
	CriterionDepth         = "depth_precision"
)

// Recommendations.
const (
	RecommendationMatch   = "Match"
	RecommendationNoMatch = "No Match"
)

// CriteriaWeights is the fixed rubric. Weights sum to 1.0.
var CriteriaWeights = map[string]float64{
	CriterionRelevance:     0.20,
	CriterionExperience:    0.20,
	CriterionRoleKnowledge: 0.25,
	CriterionCommunication: 0.15,
	CriterionEmotional:     0.10,
	CriterionDepth:         0.10,
}

// Criteria lists the rubric keys in report order.
var Criteria = []string{
	CriterionRelevance,
	CriterionExperience,
	CriterionRoleKnowledge,
	CriterionCommunication,
	CriterionEmotional,
	CriterionDepth,
}

// Result is the final scored evaluation of an interview.
type Result struct {
	OverallRelevanceScore    float64            `json:"overall_relevance_score" validate:"gte=0,lte=100"`
	Recommendation           string             `json:"recommendation" validate:"oneof=Match 'No Match'"`
	CriteriaScores           map[string]float64 `json:"criteria_scores" validate:"required,dive,gte=0,lte=100"`
	CriteriaWeights          map[string]float64 `json:"criteria_weights"`
	FactorBasedBreakdown     map[string]float64 `json:"factor_based_breakdown,omitempty"`
	Strengths                []string           `json:"strengths"`
	Weaknesses               []string           `json:"weaknesses"`
	ComprehensiveExplanation string             `json:"comprehensive_explanation,omitempty"`
	ConfidenceLevel          float64            `json:"confidence_level" validate:"gte=0,lte=100"`
}

// Normalize enforces the fixed rubric on a scored result: weights are reset to
// CriteriaWeights and the overall score is recomputed from them.
func (r *Result) Normalize() error {
	for _, c := range Criteria {
		if _, ok := r.CriteriaScores[c]; !ok {
			return fmt.Errorf("missing score for %s", c)
		}
	}
	if err := validate.Struct(r); err != nil {
		return err
	}

	r.CriteriaWeights = make(map[string]float64, len(CriteriaWeights))
	overall := 0.0
	for _, c := range Criteria {
		w := CriteriaWeights[c]
		r.CriteriaWeights[c] = w
		overall += r.CriteriaScores[c] * w
	}
	r.OverallRelevanceScore = math.Round(overall*100) / 100
	return nil
}

// WeightSum adds up the stored weights.
func (r Result) WeightSum() float64 {
	sum := 0.0
	for _, w := range r.CriteriaWeights {
		sum += w
	}
	return sum
}

// Value implements driver.Valuer.
func (r Result) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *Result) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("cannot scan %T into Result", value)
}
