package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/team"
)

type invitationRepository struct {
	db *invitationTable
}

var _ team.Repository = (*invitationRepository)(nil)

func NewInvitationRepository(db *DB) team.Repository {
	return &invitationRepository{db: db.invitations}
}

func (repo *invitationRepository) CreateInvitations(_ context.Context, invs []team.Invitation, _ ...core.DBExecutor) ([]team.Invitation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]team.Invitation, 0, len(invs))
	for _, inv := range invs {
		inv.ID = uuid.New().String()
		stored := inv
		repo.db.table[inv.Token] = &stored
		created = append(created, inv)
	}
	return created, nil
}

func (repo *invitationRepository) GetInvitation(_ context.Context, token string, _ ...core.DBExecutor) (team.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if inv, ok := repo.db.table[token]; ok {
		return *inv, nil
	}
	return team.Invitation{}, team.ErrInvitationNotFound
}

func (repo *invitationRepository) QueryInvitations(_ context.Context, managerID string, _ ...core.DBExecutor) ([]team.Invitation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	invs := make([]team.Invitation, 0)
	for _, inv := range repo.db.table {
		if inv.ManagerID == managerID {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool {
		if invs[i].CreatedAt.Equal(invs[j].CreatedAt) {
			return invs[i].Email < invs[j].Email
		}
		return invs[i].CreatedAt.After(invs[j].CreatedAt)
	})
	return invs, nil
}

func (repo *invitationRepository) MarkInvitationAccepted(_ context.Context, id string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, inv := range repo.db.table {
		if inv.ID == id {
			inv.AcceptedAt = null.TimeFrom(at.UTC())
			return nil
		}
	}
	return team.ErrInvitationNotFound
}
