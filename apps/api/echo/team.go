package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core/assessment"
	"github.com/trezcool/kiongozi/core/team"
	"github.com/trezcool/kiongozi/core/user"
)

var (
	errNoManager = echo.NewHTTPError(http.StatusForbidden, "you are not part of a team")

	memberOrderingFields = []string{"name", "email", "created_at", "last_login"}
)

type teamApi struct {
	svc           team.Service
	usrSvc        user.Service
	assessmentSvc assessment.Service
	validate      *validator.Validate
}

func registerTeamAPI(g *echo.Group, jwt echo.MiddlewareFunc, api teamApi) {
	tg := g.Group("/team")

	// un-authed endpoints
	tg.POST("/invitations/accept", api.acceptInvitation)

	// authed endpoints
	tg.POST("/feedback", api.submitFeedback, jwt, roleMiddleware(api.usrSvc, user.RoleMember))

	mg := tg.Group("", jwt, roleMiddleware(api.usrSvc, user.RoleManager))
	mg.GET("/members", api.members)
	mg.GET("/invitations", api.invitations)
	mg.POST("/invitations", api.invite)
}

// Handlers

func (api *teamApi) submitFeedback(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ManagerID == "" {
		return errNoManager
	}

	var data assessment.NewTeamFeedback
	if err = bindAndValidate(ctx, &data, func() error { return data.Validate(api.validate) }); err != nil {
		return err
	}

	if err = api.assessmentSvc.SubmitTeamFeedback(ctx.Request().Context(), usr.ID, usr.ManagerID, data); err != nil {
		return errors.Wrap(err, "submitting team feedback")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teamApi) members(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, memberOrderingFields...)

	members, err := api.usrSvc.ListTeam(ctx.Request().Context(), usr.ID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing team members")
	}
	if members == nil {
		members = []user.User{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *teamApi) invitations(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	invs, err := api.svc.Invitations(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing invitations")
	}
	if invs == nil {
		invs = []team.Invitation{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *teamApi) invite(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data team.NewInvitations
	if err = bindAndValidate(ctx, &data, func() error { return data.Validate(api.validate) }); err != nil {
		return err
	}

	invs, err := api.svc.Invite(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "inviting team members")
	}
	return ctx.JSON(http.StatusCreated, invs)
}

func (api *teamApi) acceptInvitation(ctx echo.Context) error {
	var data team.AcceptInvitation
	if err := bindAndValidate(ctx, &data, func() error { return data.Validate(api.validate) }); err != nil {
		return err
	}

	usr, err := api.svc.Accept(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "accepting invitation")
	}
	return ctx.JSON(http.StatusCreated, usr)
}
