package assessment

type (
	ReportMetadata struct {
		Personas     []string `json:"personas"`
		SWOTAnalysis bool     `json:"swot_analysis"`
	}

	// LeadershipReport is computed from a Submission; Persona always holds exactly one record.
	LeadershipReport struct {
		Persona  []Persona      `json:"persona"`
		Insights SWOT           `json:"insights"`
		Metadata ReportMetadata `json:"metadata"`
	}
)

// BuildReport is a pure function of the policy and the submission.
func BuildReport(p *Policy, sub Submission) LeadershipReport {
	var means CategoryScores
	if sub.Sections.Leadership != nil {
		means = sub.Sections.Leadership.Means()
	}

	persona := SelectPersona(p, means)
	swot, analysed := BuildSWOT(p, sub.Sections.Leadership, means, persona)

	return LeadershipReport{
		Persona:  []Persona{persona},
		Insights: swot,
		Metadata: ReportMetadata{
			Personas:     []string{persona.ID},
			SWOTAnalysis: analysed,
		},
	}
}
