package assessment

import (
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
)

// NPSScale is the range respondent scores are given in.
type NPSScale int

const (
	ScaleRaw10     NPSScale = iota // 0..10
	ScaleSigned100                 // -100..100
)

const (
	promoterMin  = 9.0
	detractorMax = 6.0
)

var ErrScoreOutOfRange = errors.New("score out of range")

// NPSResult is pending (nil Score) when there are no respondents.
type NPSResult struct {
	Score       *float64 `json:"score"`
	Respondents int      `json:"respondents"`
	Promoters   int      `json:"promoters"`
	Passives    int      `json:"passives"`
	Detractors  int      `json:"detractors"`
}

func (r NPSResult) Pending() bool {
	return r.Score == nil
}

// normalise maps a score onto the 0..10 scale.
func (s NPSScale) normalise(score float64) (float64, error) {
	switch s {
	case ScaleRaw10:
		if score < 0 || score > 10 {
			return 0, errors.Wrapf(ErrScoreOutOfRange, "%v not in [0, 10]", score)
		}
		return score, nil
	case ScaleSigned100:
		if score < -100 || score > 100 {
			return 0, errors.Wrapf(ErrScoreOutOfRange, "%v not in [-100, 100]", score)
		}
		return (score + 100) / 20, nil
	default:
		return 0, errors.Errorf("unknown NPS scale %d", s)
	}
}

// ComputeNPS returns promoters% minus detractors%, rounded to 2 decimals.
// Promoters score at least 9 and detractors at most 6 on the 0..10 scale.
func ComputeNPS(scores []float64, scale NPSScale) (NPSResult, error) {
	var res NPSResult
	for _, raw := range scores {
		score, err := scale.normalise(raw)
		if err != nil {
			return NPSResult{}, err
		}
		switch {
		case score >= promoterMin:
			res.Promoters++
		case score <= detractorMax:
			res.Detractors++
		default:
			res.Passives++
		}
	}
	res.Respondents = len(scores)
	if res.Respondents == 0 {
		return res, nil
	}

	nps := core.Round(float64(res.Promoters-res.Detractors)*100/float64(res.Respondents), 2)
	res.Score = &nps
	return res, nil
}
