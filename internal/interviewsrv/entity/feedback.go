package entity

import "time"

// ProficiencyLevel is a coarse label attached to a skill assessment.
type ProficiencyLevel string

const (
	LevelBeginner     ProficiencyLevel = "beginner"
	LevelIntermediate ProficiencyLevel = "intermediate"
	LevelAdvanced     ProficiencyLevel = "advanced"
	LevelExpert       ProficiencyLevel = "expert"
)

// LevelForScore maps a 0-100 score onto a proficiency level.
func LevelForScore(score float64) ProficiencyLevel {
	switch {
	case score >= 90:
		return LevelExpert
	case score >= 75:
		return LevelAdvanced
	case score >= 50:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// SkillAssessment is one scored dimension of the final feedback.
type SkillAssessment struct {
	Skill      string           `json:"skill"`
	Score      float64          `json:"score"`
	Level      ProficiencyLevel `json:"level"`
	Confidence float64          `json:"confidence"`
	Evidence   []string         `json:"evidence,omitempty"`
	Trend      string           `json:"trend,omitempty"`
}

// BehavioralScores are the four behavioral competencies on a 0-100 scale.
type BehavioralScores struct {
	STARQuality   float64 `json:"starQuality"`
	Storytelling  float64 `json:"storytelling"`
	Impact        float64 `json:"impact"`
	SelfAwareness float64 `json:"selfAwareness"`
}

// Average returns the mean of the four competency scores.
func (b BehavioralScores) Average() float64 {
	return (b.STARQuality + b.Storytelling + b.Impact + b.SelfAwareness) / 4
}

// Feedback is the final report, produced exactly once at session completion
// and immutable after creation.
type Feedback struct {
	OverallScore     float64           `json:"overallScore"`
	Skills           []SkillAssessment `json:"skills"`
	Behavioral       *BehavioralScores `json:"behavioral,omitempty"`
	Strengths        []string          `json:"strengths"`
	ImprovementAreas []string          `json:"improvementAreas"`
	Recommendations  []string          `json:"recommendations"`
	Percentile       int               `json:"percentile"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}
