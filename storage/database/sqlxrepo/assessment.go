package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/assessment"
)

type selfAssessmentRow struct {
	ManagerID   string    `db:"manager_id"`
	Submission  string    `db:"submission"`
	PersonaID   string    `db:"persona_id"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type teamFeedbackRow struct {
	RespondentID string    `db:"respondent_id"`
	ManagerID    string    `db:"manager_id"`
	Ratings      string    `db:"ratings"`
	ManagerNPS   int       `db:"manager_nps"`
	CompanyNPS   int       `db:"company_nps"`
	SubmittedAt  time.Time `db:"submitted_at"`
}

func (r teamFeedbackRow) toTeamFeedback() (assessment.TeamFeedback, error) {
	fb := assessment.TeamFeedback{
		RespondentID: r.RespondentID,
		ManagerID:    r.ManagerID,
		ManagerNPS:   r.ManagerNPS,
		CompanyNPS:   r.CompanyNPS,
		SubmittedAt:  r.SubmittedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Ratings), &fb.Ratings); err != nil {
		return assessment.TeamFeedback{}, errors.Wrap(err, "decoding ratings")
	}
	return fb, nil
}

type assessmentRepository struct {
	exec core.DBExecutor
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(exec core.DBExecutor) assessment.Repository {
	return &assessmentRepository{exec: exec}
}

func (repo assessmentRepository) SaveSelfAssessment(ctx context.Context, sa assessment.SelfAssessment, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	sub, err := json.Marshal(sa.Submission)
	if err != nil {
		return errors.Wrap(err, "encoding submission")
	}
	row := selfAssessmentRow{
		ManagerID:   sa.ManagerID,
		Submission:  string(sub),
		PersonaID:   sa.PersonaID,
		SubmittedAt: sa.SubmittedAt.UTC(),
	}

	q := `INSERT INTO self_assessments (manager_id, submission, persona_id, submitted_at)
		VALUES (:manager_id, :submission, :persona_id, :submitted_at)
		ON CONFLICT (manager_id) DO UPDATE SET
			submission = excluded.submission, persona_id = excluded.persona_id, submitted_at = excluded.submitted_at`
	if _, err = sqlx.NamedExecContext(ctx, exe, q, row); err != nil {
		return errors.Wrap(err, "saving self-assessment")
	}
	return nil
}

func (repo assessmentRepository) GetSelfAssessment(ctx context.Context, managerID string, exec ...core.DBExecutor) (assessment.SelfAssessment, error) {
	exe := getExec(repo.exec, exec)

	var row selfAssessmentRow
	q := exe.Rebind("SELECT manager_id, submission, persona_id, submitted_at FROM self_assessments WHERE manager_id = ?")
	if err := sqlx.GetContext(ctx, exe, &row, q, managerID); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assessment.SelfAssessment{}, assessment.ErrNotFound
		}
		return assessment.SelfAssessment{}, errors.Wrap(err, "finding self-assessment")
	}

	sa := assessment.SelfAssessment{
		ManagerID:   row.ManagerID,
		PersonaID:   row.PersonaID,
		SubmittedAt: row.SubmittedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.Submission), &sa.Submission); err != nil {
		return assessment.SelfAssessment{}, errors.Wrap(err, "decoding submission")
	}
	return sa, nil
}

func (repo assessmentRepository) SaveTeamFeedback(ctx context.Context, fb assessment.TeamFeedback, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)
	ratings, err := json.Marshal(fb.Ratings)
	if err != nil {
		return errors.Wrap(err, "encoding ratings")
	}
	row := teamFeedbackRow{
		RespondentID: fb.RespondentID,
		ManagerID:    fb.ManagerID,
		Ratings:      string(ratings),
		ManagerNPS:   fb.ManagerNPS,
		CompanyNPS:   fb.CompanyNPS,
		SubmittedAt:  fb.SubmittedAt.UTC(),
	}

	q := `INSERT INTO team_feedback (respondent_id, manager_id, ratings, manager_nps, company_nps, submitted_at)
		VALUES (:respondent_id, :manager_id, :ratings, :manager_nps, :company_nps, :submitted_at)
		ON CONFLICT (respondent_id) DO UPDATE SET
			manager_id = excluded.manager_id, ratings = excluded.ratings, manager_nps = excluded.manager_nps,
			company_nps = excluded.company_nps, submitted_at = excluded.submitted_at`
	if _, err = sqlx.NamedExecContext(ctx, exe, q, row); err != nil {
		return errors.Wrap(err, "saving team feedback")
	}
	return nil
}

// QueryTeamFeedback returns the feedback of a manager's team, oldest first.
func (repo assessmentRepository) QueryTeamFeedback(ctx context.Context, managerID string, exec ...core.DBExecutor) ([]assessment.TeamFeedback, error) {
	exe := getExec(repo.exec, exec)

	var rows []teamFeedbackRow
	q := exe.Rebind(`SELECT respondent_id, manager_id, ratings, manager_nps, company_nps, submitted_at
		FROM team_feedback WHERE manager_id = ? ORDER BY submitted_at ASC, respondent_id ASC`)
	if err := sqlx.SelectContext(ctx, exe, &rows, q, managerID); err != nil {
		return nil, errors.Wrap(err, "querying team feedback")
	}

	fbs := make([]assessment.TeamFeedback, 0, len(rows))
	for _, r := range rows {
		fb, err := r.toTeamFeedback()
		if err != nil {
			return nil, err
		}
		fbs = append(fbs, fb)
	}
	return fbs, nil
}
