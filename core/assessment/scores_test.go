package assessment

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNPS(t *testing.T) {
	tests := []struct {
		name        string
		scores      []float64
		scale       NPSScale
		wantPending bool
		want        float64
		wantErr     error
	}{
		{name: "no respondents", scale: ScaleRaw10, wantPending: true},
		{name: "no respondents (signed)", scores: []float64{}, scale: ScaleSigned100, wantPending: true},
		{name: "signed scale", scores: []float64{80, 80, -20}, scale: ScaleSigned100, want: 33.33},
		{name: "all promoters", scores: []float64{9, 10, 10}, scale: ScaleRaw10, want: 100},
		{name: "all detractors", scores: []float64{0, 6}, scale: ScaleRaw10, want: -100},
		{name: "passives only", scores: []float64{7, 8}, scale: ScaleRaw10, want: 0},
		{name: "mixed", scores: []float64{10, 9, 8, 7, 3}, scale: ScaleRaw10, want: 20},
		{name: "raw out of range", scores: []float64{11}, scale: ScaleRaw10, wantErr: ErrScoreOutOfRange},
		{name: "signed out of range", scores: []float64{-101}, scale: ScaleSigned100, wantErr: ErrScoreOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ComputeNPS(tt.scores, tt.scale)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPending, res.Pending())
			assert.Equal(t, len(tt.scores), res.Respondents)
			if tt.wantPending {
				assert.Nil(t, res.Score)
				return
			}
			require.NotNil(t, res.Score)
			assert.False(t, math.IsNaN(*res.Score))
			assert.Equal(t, tt.want, *res.Score)
		})
	}
}

func TestComputeNPS_classification(t *testing.T) {
	res, err := ComputeNPS([]float64{80, 80, -20}, ScaleSigned100)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Promoters)
	assert.Equal(t, 0, res.Passives)
	assert.Equal(t, 1, res.Detractors)
}

func TestCompareScores(t *testing.T) {
	t.Run("no self-assessment", func(t *testing.T) {
		cmp := CompareScores(nil, []CategoryScores{{"A": 3}})
		assert.Equal(t, StateNoData, cmp.State)
		assert.Nil(t, cmp.Self)
		assert.Nil(t, cmp.Team)
	})

	t.Run("no team feedback", func(t *testing.T) {
		self := CategoryScores{"A": 4, "B": 5}
		cmp := CompareScores(self, nil)
		assert.Equal(t, StatePendingTeamFeedback, cmp.State)
		assert.Equal(t, self, cmp.Self)
		assert.Nil(t, cmp.Team)
		assert.Equal(t, []string{"A", "B"}, cmp.PendingCategories)
	})

	t.Run("complete", func(t *testing.T) {
		self := CategoryScores{"A": 4, "B": 2}
		cmp := CompareScores(self, []CategoryScores{{"A": 5, "B": 3}, {"A": 3, "B": 1}})
		assert.Equal(t, StateComplete, cmp.State)
		assert.Equal(t, CategoryScores{"A": 4, "B": 2}, cmp.Team)
		assert.Equal(t, 2, cmp.Respondents)
		assert.Empty(t, cmp.PendingCategories)
	})

	t.Run("partial ratings", func(t *testing.T) {
		self := CategoryScores{CategoryVisionStrategy: 3, CategoryDecisionMaking: 4, CategoryAdaptability: 2}
		cmp := CompareScores(self, []CategoryScores{{CategoryDecisionMaking: 2}, {CategoryDecisionMaking: 3, CategoryVisionStrategy: 5}})
		assert.Equal(t, StateComplete, cmp.State)
		assert.Equal(t, CategoryScores{CategoryDecisionMaking: 2.5, CategoryVisionStrategy: 5}, cmp.Team)
		assert.Equal(t, []string{CategoryAdaptability}, cmp.PendingCategories)
	})
}

func TestBuildInsights(t *testing.T) {
	p := defaultPolicy(t)

	_, ok := BuildInsights(p, CompareScores(CategoryScores{"A": 1}, nil), NPSResult{})
	assert.False(t, ok)

	self := CategoryScores{CategoryDecisionMaking: 4, CategoryEmotionalIntelligence: 2, CategoryVisionStrategy: 3}
	cmp := CompareScores(self, []CategoryScores{
		{CategoryDecisionMaking: 2, CategoryEmotionalIntelligence: 4, CategoryVisionStrategy: 3.5},
		{CategoryDecisionMaking: 3, CategoryEmotionalIntelligence: 3, CategoryVisionStrategy: 3},
	})
	nps, err := ComputeNPS([]float64{10, 4}, ScaleRaw10)
	require.NoError(t, err)

	ins, ok := BuildInsights(p, cmp, nps)
	require.True(t, ok)
	assert.Equal(t, []string{
		"Your team rates your decision-making and delegation lower than you do (team 2.50, self 4.00).",
		"Your team rates your emotional intelligence and empathy higher than you do (team 3.50, self 2.00).",
		"Your team sees your vision and strategy much as you do (team 3.25, self 3.00).",
		"Your team NPS is 0.00 from 2 respondent(s): 1 promoter(s), 0 passive(s), 1 detractor(s).",
	}, ins.TeamToManager)
	assert.Equal(t, []string{p.Category(CategoryDecisionMaking).Development}, ins.ManagerDevelopment)

	// nothing below the development threshold: the lowest category is suggested
	cmp = CompareScores(self, []CategoryScores{{CategoryDecisionMaking: 4.5, CategoryVisionStrategy: 3.5}})
	ins, ok = BuildInsights(p, cmp, NPSResult{})
	require.True(t, ok)
	assert.Len(t, ins.TeamToManager, 2)
	assert.Equal(t, []string{p.Category(CategoryVisionStrategy).Development}, ins.ManagerDevelopment)
}
