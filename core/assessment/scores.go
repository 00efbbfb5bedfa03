package assessment

// ReportState is where a manager's report stands, driven by submissions.
type ReportState string

const (
	StateNoData              ReportState = "no_data"               // no self-assessment
	StatePendingTeamFeedback ReportState = "pending_team_feedback" // self-assessment, no team feedback
	StateComplete            ReportState = "complete"              // self-assessment and at least one team feedback
)

// ScoreComparison puts the self-assessed category scores next to the team averages.
type ScoreComparison struct {
	State ReportState
	Self  CategoryScores
	Team  CategoryScores
	// PendingCategories are self-assessed categories no respondent rated yet.
	PendingCategories []string
	Respondents       int
}

// CompareScores averages the team ratings per category, over the respondents who rated it.
// A nil self means no self-assessment was submitted.
func CompareScores(self CategoryScores, team []CategoryScores) ScoreComparison {
	if self == nil {
		return ScoreComparison{State: StateNoData}
	}
	cmp := ScoreComparison{
		State:             StatePendingTeamFeedback,
		Self:              self,
		PendingCategories: []string{},
		Respondents:       len(team),
	}
	if len(team) == 0 {
		cmp.PendingCategories = self.Keys()
		return cmp
	}
	cmp.State = StateComplete

	sums := make(CategoryScores)
	counts := make(map[string]int)
	for _, ratings := range team {
		for _, cat := range ratings.Keys() {
			sums[cat] += ratings[cat]
			counts[cat]++
		}
	}
	cmp.Team = make(CategoryScores, len(sums))
	for cat, sum := range sums {
		cmp.Team[cat] = sum / float64(counts[cat])
	}

	for _, cat := range self.Keys() {
		if _, ok := cmp.Team[cat]; !ok {
			cmp.PendingCategories = append(cmp.PendingCategories, cat)
		}
	}
	return cmp
}
