package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/team"
)

const invitationColumns = "id, manager_id, email, token, created_at, expires_at, accepted_at"

type invitationRow struct {
	ID         string    `db:"id"`
	ManagerID  string    `db:"manager_id"`
	Email      string    `db:"email"`
	Token      string    `db:"token"`
	CreatedAt  time.Time `db:"created_at"`
	ExpiresAt  time.Time `db:"expires_at"`
	AcceptedAt null.Time `db:"accepted_at"`
}

func (r invitationRow) toInvitation() team.Invitation {
	inv := team.Invitation{
		ID:        r.ID,
		ManagerID: r.ManagerID,
		Email:     r.Email,
		Token:     r.Token,
		CreatedAt: r.CreatedAt.UTC(),
		ExpiresAt: r.ExpiresAt.UTC(),
	}
	if r.AcceptedAt.Valid {
		inv.AcceptedAt = null.TimeFrom(r.AcceptedAt.Time.UTC())
	}
	return inv
}

type invitationRepository struct {
	exec core.DBExecutor
}

var _ team.Repository = (*invitationRepository)(nil)

func NewInvitationRepository(exec core.DBExecutor) team.Repository {
	return &invitationRepository{exec: exec}
}

func (repo invitationRepository) CreateInvitations(ctx context.Context, invs []team.Invitation, exec ...core.DBExecutor) ([]team.Invitation, error) {
	exe := getExec(repo.exec, exec)
	if len(invs) == 0 {
		return nil, nil
	}

	rows := make([]invitationRow, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, invitationRow{
			ID:         uuid.New().String(),
			ManagerID:  inv.ManagerID,
			Email:      inv.Email,
			Token:      inv.Token,
			CreatedAt:  inv.CreatedAt.UTC(),
			ExpiresAt:  inv.ExpiresAt.UTC(),
			AcceptedAt: inv.AcceptedAt,
		})
	}

	q := "INSERT INTO invitations (" + invitationColumns + ") VALUES (:id, :manager_id, :email, :token, :created_at, :expires_at, :accepted_at)"
	if _, err := sqlx.NamedExecContext(ctx, exe, q, rows); err != nil {
		return nil, errors.Wrap(err, "inserting invitations")
	}

	created := make([]team.Invitation, 0, len(rows))
	for _, r := range rows {
		created = append(created, r.toInvitation())
	}
	return created, nil
}

func (repo invitationRepository) GetInvitation(ctx context.Context, token string, exec ...core.DBExecutor) (team.Invitation, error) {
	exe := getExec(repo.exec, exec)

	var row invitationRow
	q := exe.Rebind("SELECT " + invitationColumns + " FROM invitations WHERE token = ?")
	if err := sqlx.GetContext(ctx, exe, &row, q, token); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return team.Invitation{}, team.ErrInvitationNotFound
		}
		return team.Invitation{}, errors.Wrap(err, "finding invitation")
	}
	return row.toInvitation(), nil
}

// QueryInvitations returns a manager's invitations, newest first.
func (repo invitationRepository) QueryInvitations(ctx context.Context, managerID string, exec ...core.DBExecutor) ([]team.Invitation, error) {
	exe := getExec(repo.exec, exec)

	var rows []invitationRow
	q := exe.Rebind("SELECT " + invitationColumns + " FROM invitations WHERE manager_id = ? ORDER BY created_at DESC, email ASC")
	if err := sqlx.SelectContext(ctx, exe, &rows, q, managerID); err != nil {
		return nil, errors.Wrap(err, "querying invitations")
	}

	invs := make([]team.Invitation, 0, len(rows))
	for _, r := range rows {
		invs = append(invs, r.toInvitation())
	}
	return invs, nil
}

func (repo invitationRepository) MarkInvitationAccepted(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	q := exe.Rebind("UPDATE invitations SET accepted_at = ? WHERE id = ?")
	res, err := exe.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "accepting invitation")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return team.ErrInvitationNotFound
	}
	return nil
}
