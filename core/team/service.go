package team

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/user"
)

var (
	// errors
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvitationAccepted = errors.New("invitation has already been accepted")
)

type (
	Repository interface {
		CreateInvitations(ctx context.Context, invs []Invitation, exec ...core.DBExecutor) ([]Invitation, error)
		GetInvitation(ctx context.Context, token string, exec ...core.DBExecutor) (Invitation, error)
		QueryInvitations(ctx context.Context, managerID string, exec ...core.DBExecutor) ([]Invitation, error)
		MarkInvitationAccepted(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
	}

	Service interface {
		Invite(ctx context.Context, manager user.User, ni NewInvitations) ([]Invitation, error)
		Invitations(ctx context.Context, managerID string) ([]Invitation, error)
		// Accept creates the team member account and consumes the invitation.
		Accept(ctx context.Context, ai AcceptInvitation) (user.User, error)
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		tx       core.Transactor
		mailSvc  core.EmailService
		validate *validator.Validate
		timeout  time.Duration
		now      func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	usrSvc user.Service,
	tx core.Transactor,
	mailSvc core.EmailService,
	validate *validator.Validate,
	conf *core.Config,
) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		tx:       tx,
		mailSvc:  mailSvc,
		validate: validate,
		timeout:  conf.Server.InvitationTimeoutDelta,
		now:      time.Now,
	}
}

// Invite creates one invitation per distinct email. Emails of existing users are rejected.
func (svc *service) Invite(ctx context.Context, manager user.User, ni NewInvitations) ([]Invitation, error) {
	var fldErrs []core.FieldError
	seen := make(map[string]bool, len(ni.Emails))
	emails := make([]string, 0, len(ni.Emails))
	for i, email := range ni.Emails {
		if seen[email] {
			continue
		}
		seen[email] = true

		if _, err := svc.usrSvc.GetByEmail(ctx, email); err == nil {
			fldErrs = append(fldErrs, core.FieldError{Field: fmt.Sprintf("emails[%d]", i), Error: user.ErrEmailExists.Error()})
			continue
		} else if errors.Cause(err) != user.ErrNotFound {
			return nil, errors.Wrap(err, "finding user by email")
		}
		emails = append(emails, email)
	}
	if len(fldErrs) > 0 {
		return nil, core.NewValidationError(nil, fldErrs...)
	}

	now := svc.now().UTC()
	invs := make([]Invitation, 0, len(emails))
	for _, email := range emails {
		invs = append(invs, Invitation{
			ManagerID: manager.ID,
			Email:     email,
			Token:     uuid.New().String(),
			CreatedAt: now,
			ExpiresAt: now.Add(svc.timeout),
		})
	}
	invs, err := svc.repo.CreateInvitations(ctx, invs)
	if err != nil {
		return nil, errors.Wrap(err, "creating invitations")
	}

	svc.sendInvitationMails(manager, invs)
	return invs, nil
}

func (svc *service) sendInvitationMails(manager user.User, invs []Invitation) {
	msgs := make([]*core.EmailMessage, 0, len(invs))
	for _, inv := range invs {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Address: inv.Email}},
			Subject:      manager.Name + " invited you to their team",
			TemplateName: "invitation",
			TemplateData: map[string]interface{}{
				"ManagerName": manager.Name,
				"Token":       inv.Token,
				"ExpiresAt":   inv.ExpiresAt,
			},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

func (svc *service) Invitations(ctx context.Context, managerID string) ([]Invitation, error) {
	invs, err := svc.repo.QueryInvitations(ctx, managerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying invitations")
	}
	return invs, nil
}

func (svc *service) Accept(ctx context.Context, ai AcceptInvitation) (user.User, error) {
	invalid := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	inv, err := svc.repo.GetInvitation(ctx, ai.Token)
	if err != nil {
		if errors.Cause(err) == ErrInvitationNotFound {
			return user.User{}, invalid(ErrInvitationNotFound)
		}
		return user.User{}, errors.Wrap(err, "getting invitation")
	}
	now := svc.now().UTC()
	switch {
	case inv.IsAccepted():
		return user.User{}, invalid(ErrInvitationAccepted)
	case inv.IsExpired(now):
		return user.User{}, invalid(ErrInvitationExpired)
	}

	nu := user.NewUser{
		Name:            ai.Name,
		Email:           inv.Email,
		Role:            user.RoleMember,
		ManagerID:       inv.ManagerID,
		Password:        ai.Password,
		PasswordConfirm: ai.PasswordConfirm,
	}
	if err = nu.Validate(ctx, svc.validate, svc.usrSvc); err != nil {
		return user.User{}, err
	}

	var usr user.User
	err = svc.tx.WithTx(ctx, func(exec core.DBExecutor) error {
		var txErr error
		if usr, txErr = svc.usrSvc.Create(ctx, nu, exec); txErr != nil {
			return errors.Wrap(txErr, "creating team member")
		}
		return errors.Wrap(svc.repo.MarkInvitationAccepted(ctx, inv.ID, now, exec), "accepting invitation")
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}
