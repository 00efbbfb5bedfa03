package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/assessment"
)

type assessmentRepository struct {
	selfAssmt *selfAssessmentTable
	feedback  *feedbackTable
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{selfAssmt: db.selfAssmt, feedback: db.feedback}
}

func (repo *assessmentRepository) SaveSelfAssessment(_ context.Context, sa assessment.SelfAssessment, _ ...core.DBExecutor) error {
	repo.selfAssmt.Lock()
	defer repo.selfAssmt.Unlock()
	repo.selfAssmt.table[sa.ManagerID] = sa
	return nil
}

func (repo *assessmentRepository) GetSelfAssessment(_ context.Context, managerID string, _ ...core.DBExecutor) (assessment.SelfAssessment, error) {
	repo.selfAssmt.RLock()
	defer repo.selfAssmt.RUnlock()
	if sa, ok := repo.selfAssmt.table[managerID]; ok {
		return sa, nil
	}
	return assessment.SelfAssessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) SaveTeamFeedback(_ context.Context, fb assessment.TeamFeedback, _ ...core.DBExecutor) error {
	ratings := make(assessment.CategoryScores, len(fb.Ratings))
	for k, v := range fb.Ratings {
		ratings[k] = v
	}
	fb.Ratings = ratings

	repo.feedback.Lock()
	defer repo.feedback.Unlock()
	repo.feedback.table[fb.RespondentID] = fb
	return nil
}

// QueryTeamFeedback returns the feedback of a manager's team, oldest first.
func (repo *assessmentRepository) QueryTeamFeedback(_ context.Context, managerID string, _ ...core.DBExecutor) ([]assessment.TeamFeedback, error) {
	repo.feedback.RLock()
	defer repo.feedback.RUnlock()

	fbs := make([]assessment.TeamFeedback, 0)
	for _, fb := range repo.feedback.table {
		if fb.ManagerID == managerID {
			fbs = append(fbs, fb)
		}
	}
	sort.Slice(fbs, func(i, j int) bool {
		if fbs[i].SubmittedAt.Equal(fbs[j].SubmittedAt) {
			return fbs[i].RespondentID < fbs[j].RespondentID
		}
		return fbs[i].SubmittedAt.Before(fbs[j].SubmittedAt)
	})
	return fbs, nil
}
