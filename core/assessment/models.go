package assessment

import (
	"encoding/json"
	"sort"
	"time"
)

// Leadership categories, in canonical order.
const (
	CategoryDecisionMaking        = "decisionMakingAndDelegation"
	CategoryEmotionalIntelligence = "emotionalIntelligenceAndEmpathy"
	CategoryVisionStrategy        = "visionAndStrategy"
	CategoryTeamDevelopment       = "teamDevelopmentAndCoaching"
	CategoryAdaptability          = "adaptabilityAndInfluence"
)

// Submission sections
const (
	SectionLeadership    = "leadership"
	SectionRoleInfo      = "roleInfo"
	SectionPsychographic = "psychographic"
)

var (
	Categories = []string{
		CategoryDecisionMaking,
		CategoryEmotionalIntelligence,
		CategoryVisionStrategy,
		CategoryTeamDevelopment,
		CategoryAdaptability,
	}

	Sections = []string{SectionLeadership, SectionRoleInfo, SectionPsychographic}
)

type (
	// SubSkillScores maps a sub-skill name to its score.
	SubSkillScores map[string]float64

	// CategoryScores maps a category to a single (usually averaged) score.
	CategoryScores map[string]float64

	// Answers are the scores as submitted. A JSON null decodes to a nil score.
	Answers map[string]*float64

	Meta struct {
		Include []string `json:"include" validate:"required,dive,oneof=leadership roleInfo psychographic"`
	}

	LeadershipSection struct {
		DecisionMakingAndDelegation     Answers `json:"decisionMakingAndDelegation" validate:"required,dive,keys,notblank,endkeys,required"`
		EmotionalIntelligenceAndEmpathy Answers `json:"emotionalIntelligenceAndEmpathy" validate:"required,dive,keys,notblank,endkeys,required"`
		VisionAndStrategy               Answers `json:"visionAndStrategy" validate:"required,dive,keys,notblank,endkeys,required"`
		TeamDevelopmentAndCoaching      Answers `json:"teamDevelopmentAndCoaching" validate:"required,dive,keys,notblank,endkeys,required"`
		AdaptabilityAndInfluence        Answers `json:"adaptabilityAndInfluence" validate:"required,dive,keys,notblank,endkeys,required"`
	}

	RoleInfoSection struct {
		Role       string   `json:"role" validate:"required"`
		TeamSize   string   `json:"teamSize" validate:"required"`
		Industry   string   `json:"industry" validate:"required"`
		Challenges []string `json:"challenges" validate:"required"`
	}

	PsychographicSection struct {
		LearningStyle []string `json:"learningStyle" validate:"required"`
		CoachingTone  []string `json:"coachingTone" validate:"required"`
	}

	SubmissionSections struct {
		Leadership    *LeadershipSection    `json:"leadership,omitempty"`
		RoleInfo      *RoleInfoSection      `json:"roleInfo,omitempty"`
		Psychographic *PsychographicSection `json:"psychographic,omitempty"`
	}

	// Submission is a questionnaire submitted by a manager about themselves.
	Submission struct {
		Meta     Meta               `json:"meta"`
		Sections SubmissionSections `json:"sections"`

		unknownSections []string
	}

	// SelfAssessment is the latest Submission of a manager.
	SelfAssessment struct {
		ManagerID   string
		Submission  Submission
		PersonaID   string
		SubmittedAt time.Time // UTC
	}

	// TeamFeedback is the latest feedback of a team member about their manager.
	TeamFeedback struct {
		RespondentID string
		ManagerID    string
		Ratings      CategoryScores
		ManagerNPS   int // 0..10
		CompanyNPS   int // 0..10
		SubmittedAt  time.Time // UTC
	}

	// NewTeamFeedback is the payload a team member submits.
	NewTeamFeedback struct {
		Ratings    Answers `json:"ratings" validate:"required,min=1,dive,keys,oneof=decisionMakingAndDelegation emotionalIntelligenceAndEmpathy visionAndStrategy teamDevelopmentAndCoaching adaptabilityAndInfluence,endkeys,required"`
		ManagerNPS *int    `json:"manager_nps" validate:"required,min=0,max=10"`
		CompanyNPS *int    `json:"company_nps" validate:"required,min=0,max=10"`
	}
)

// UnmarshalJSON records the keys of "sections" that name no known section.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type submission Submission
	err := json.Unmarshal(data, (*submission)(s))

	var raw struct {
		Sections map[string]json.RawMessage `json:"sections"`
	}
	s.unknownSections = nil
	if json.Unmarshal(data, &raw) == nil {
		for name := range raw.Sections {
			if !isSection(name) {
				s.unknownSections = append(s.unknownSections, name)
			}
		}
		sort.Strings(s.unknownSections)
	}
	return err
}

func isSection(name string) bool {
	for _, sec := range Sections {
		if sec == name {
			return true
		}
	}
	return false
}

// Includes reports whether the section name is listed in meta.include.
func (s *Submission) Includes(section string) bool {
	for _, name := range s.Meta.Include {
		if name == section {
			return true
		}
	}
	return false
}

// ByCategory returns the sub-skill scores keyed by category.
func (l *LeadershipSection) ByCategory() map[string]SubSkillScores {
	return map[string]SubSkillScores{
		CategoryDecisionMaking:        l.DecisionMakingAndDelegation.Scores(),
		CategoryEmotionalIntelligence: l.EmotionalIntelligenceAndEmpathy.Scores(),
		CategoryVisionStrategy:        l.VisionAndStrategy.Scores(),
		CategoryTeamDevelopment:       l.TeamDevelopmentAndCoaching.Scores(),
		CategoryAdaptability:          l.AdaptabilityAndInfluence.Scores(),
	}
}

// Means returns the mean sub-skill score of every category that has at least one sub-skill.
func (l *LeadershipSection) Means() CategoryScores {
	means := make(CategoryScores, len(Categories))
	for cat, scores := range l.ByCategory() {
		if m, ok := scores.Mean(); ok {
			means[cat] = m
		}
	}
	return means
}

// AnswersOf wraps plain scores, every one of them answered.
func AnswersOf(scores map[string]float64) Answers {
	if scores == nil {
		return nil
	}
	a := make(Answers, len(scores))
	for k, v := range scores {
		v := v
		a[k] = &v
	}
	return a
}

// Scores drops unanswered (nil) scores.
func (a Answers) Scores() map[string]float64 {
	if a == nil {
		return nil
	}
	scores := make(map[string]float64, len(a))
	for k, v := range a {
		if v != nil {
			scores[k] = *v
		}
	}
	return scores
}

// Mean is summed in sorted key order so that the result does not depend on map iteration.
func (s SubSkillScores) Mean() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	var sum float64
	for _, k := range s.Keys() {
		sum += s[k]
	}
	return sum / float64(len(s)), true
}

func (s SubSkillScores) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns the known categories in canonical order followed by any other key, sorted.
func (cs CategoryScores) Keys() []string {
	keys := make([]string, 0, len(cs))
	for _, cat := range Categories {
		if _, ok := cs[cat]; ok {
			keys = append(keys, cat)
		}
	}
	var others []string
	for k := range cs {
		if categoryIndex(k) < 0 {
			others = append(others, k)
		}
	}
	sort.Strings(others)
	return append(keys, others...)
}

func categoryIndex(cat string) int {
	for i, c := range Categories {
		if c == cat {
			return i
		}
	}
	return -1
}
