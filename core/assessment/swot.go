package assessment

import "fmt"

// SWOT lists are never nil so they always encode as JSON arrays.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

func emptySWOT() SWOT {
	return SWOT{
		Strengths:     []string{},
		Weaknesses:    []string{},
		Opportunities: []string{},
		Threats:       []string{},
	}
}

// BuildSWOT derives the SWOT lists from the category means and the thresholds of the policy.
// It returns false, with empty lists, when no category was scored.
func BuildSWOT(p *Policy, leadership *LeadershipSection, means CategoryScores, persona Persona) (SWOT, bool) {
	swot := emptySWOT()
	if leadership == nil || len(means) == 0 {
		return swot, false
	}

	t := p.Thresholds
	var weak []CategoryPolicy
	for _, key := range Categories {
		m, ok := means[key]
		if !ok {
			continue
		}
		cat := p.Category(key)
		switch {
		case m >= t.Strength:
			swot.Strengths = append(swot.Strengths, cat.Strength)
		case m <= t.Weakness:
			swot.Weaknesses = append(swot.Weaknesses, cat.Weakness)
			weak = append(weak, cat)
		}
	}

	// low sub-skills hidden by an otherwise acceptable category
	subSkills := leadership.ByCategory()
	for _, key := range Categories {
		if m, ok := means[key]; !ok || m <= t.Weakness {
			continue
		}
		scores := subSkills[key]
		for _, name := range scores.Keys() {
			if scores[name] <= t.LowSubSkill {
				swot.Weaknesses = append(swot.Weaknesses, fmt.Sprintf("Low score on %s (%s)", name, p.Category(key).Label))
			}
		}
	}

	for _, cat := range weak {
		swot.Opportunities = append(swot.Opportunities, cat.Opportunity)
	}
	swot.Opportunities = append(swot.Opportunities, persona.Opportunities...)

	swot.Threats = append(swot.Threats, persona.Threats...)
	for _, cat := range weak {
		swot.Threats = append(swot.Threats, cat.Threat)
	}
	return swot, true
}
