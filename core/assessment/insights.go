package assessment

import (
	"fmt"
	"math"
)

type Insights struct {
	TeamToManager      []string `json:"team_to_manager"`
	ManagerDevelopment []string `json:"manager_development"`
}

// BuildInsights turns a complete comparison into text. It returns false for any other state.
func BuildInsights(p *Policy, cmp ScoreComparison, teamNPS NPSResult) (Insights, bool) {
	if cmp.State != StateComplete {
		return Insights{}, false
	}
	ins := Insights{TeamToManager: []string{}, ManagerDevelopment: []string{}}
	gap := p.Thresholds.InsightGap

	for _, key := range cmp.Self.Keys() {
		team, ok := cmp.Team[key]
		if !ok {
			continue
		}
		self := cmp.Self[key]
		label := p.Category(key).Label
		var line string
		switch diff := team - self; {
		case diff >= gap:
			line = "Your team rates your %s higher than you do (team %.2f, self %.2f)."
		case diff <= -gap:
			line = "Your team rates your %s lower than you do (team %.2f, self %.2f)."
		default:
			line = "Your team sees your %s much as you do (team %.2f, self %.2f)."
		}
		ins.TeamToManager = append(ins.TeamToManager, fmt.Sprintf(line, label, team, self))
	}
	if !teamNPS.Pending() {
		ins.TeamToManager = append(ins.TeamToManager, fmt.Sprintf(
			"Your team NPS is %.2f from %d respondent(s): %d promoter(s), %d passive(s), %d detractor(s).",
			*teamNPS.Score, teamNPS.Respondents, teamNPS.Promoters, teamNPS.Passives, teamNPS.Detractors))
	}

	lowest, lowestScore := "", math.Inf(1)
	for _, key := range cmp.Team.Keys() {
		score := cmp.Team[key]
		if categoryIndex(key) < 0 {
			continue
		}
		if score < p.Thresholds.Development {
			ins.ManagerDevelopment = append(ins.ManagerDevelopment, p.Category(key).Development)
		}
		if score < lowestScore {
			lowest, lowestScore = key, score
		}
	}
	if len(ins.ManagerDevelopment) == 0 && lowest != "" {
		ins.ManagerDevelopment = append(ins.ManagerDevelopment, p.Category(lowest).Development)
	}
	return ins, true
}
