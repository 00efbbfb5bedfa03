package team

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kiongozi/core"
)

// Invitation lets a manager bring a team member on board. Token is only ever sent by email.
type Invitation struct {
	ID         string    `json:"id"`
	ManagerID  string    `json:"manager_id"`
	Email      string    `json:"email"`
	Token      string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	ExpiresAt  time.Time `json:"expires_at"` // UTC
	AcceptedAt null.Time `json:"accepted_at"`
}

func (inv Invitation) IsAccepted() bool {
	return inv.AcceptedAt.Valid
}

func (inv Invitation) IsExpired(now time.Time) bool {
	return !now.Before(inv.ExpiresAt)
}

type NewInvitations struct {
	Emails []string `json:"emails" validate:"required,min=1,max=50,dive,required,email"`
}

func (ni *NewInvitations) Validate(validate *validator.Validate) error {
	for i, email := range ni.Emails {
		ni.Emails[i] = core.CleanString(email, true /* lower */)
	}
	return validate.Struct(ni)
}

type AcceptInvitation struct {
	Token           string `json:"token" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ai *AcceptInvitation) Validate(validate *validator.Validate) error {
	ai.Token = core.CleanString(ai.Token)
	ai.Name = core.CleanString(ai.Name)
	return validate.Struct(ai)
}
