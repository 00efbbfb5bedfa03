package assessment

// SelectPersona maps category means to exactly one persona of the policy.
//   - nothing scored: the fallback persona
//   - at least two categories scored within the balanced spread: the balanced persona
//   - otherwise: the persona of the highest category, ties going to the earliest category
func SelectPersona(p *Policy, means CategoryScores) Persona {
	var (
		best      string
		high, low float64
		scored    int
	)
	for _, cat := range Categories {
		m, ok := means[cat]
		if !ok {
			continue
		}
		if scored == 0 || m > high {
			best, high = cat, m
		}
		if scored == 0 || m < low {
			low = m
		}
		scored++
	}

	switch {
	case scored == 0:
		return p.Persona(p.FallbackPersona)
	case scored >= 2 && high-low <= p.Thresholds.BalancedSpread:
		return p.Persona(p.BalancedPersona)
	default:
		return p.Persona(p.Category(best).Persona)
	}
}
