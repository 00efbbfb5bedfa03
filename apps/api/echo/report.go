package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core/assessment"
	"github.com/trezcool/kiongozi/core/user"
)

type reportApi struct {
	svc      assessment.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, api reportApi) {
	mgr := roleMiddleware(api.usrSvc, user.RoleManager)
	g.POST("/leadership-report", api.submit, jwt, mgr)
	g.GET("/leadership-report", api.report, jwt, mgr)
	g.GET("/leadership-assessment-score", api.leadershipScores, jwt, mgr)
	g.GET("/nps-score", api.npsScores, jwt, mgr)
	g.GET("/insights", api.insights, jwt, mgr)
}

func pendingResult(state assessment.ReportState) echo.Map {
	return echo.Map{"pending_result": true, "state": state}
}

// Handlers

func (api *reportApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var sub assessment.Submission
	if err = bindAndValidate(ctx, &sub, func() error { return sub.Validate(api.validate) }); err != nil {
		return err
	}

	report, err := api.svc.SubmitSelfAssessment(ctx.Request().Context(), usr.ID, sub)
	if err != nil {
		return errors.Wrap(err, "submitting self-assessment")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reportApi) report(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	report, err := api.svc.Report(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reportApi) leadershipScores(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cmp, err := api.svc.LeadershipScores(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "comparing scores")
	}

	switch cmp.State {
	case assessment.StateNoData:
		return ctx.JSON(http.StatusOK, pendingResult(cmp.State))
	case assessment.StatePendingTeamFeedback:
		resp := pendingResult(cmp.State)
		resp["scores_from_manager"] = cmp.Self
		return ctx.JSON(http.StatusOK, resp)
	}
	pending := cmp.PendingCategories
	if pending == nil {
		pending = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"state":               cmp.State,
		"scores_from_manager": cmp.Self,
		"scores_from_team":    cmp.Team,
		"pending_categories":  pending,
		"respondents":         cmp.Respondents,
	})
}

func (api *reportApi) npsScores(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	scores, err := api.svc.NPSScores(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "computing NPS")
	}
	if scores.State != assessment.StateComplete || scores.Manager.Pending() {
		return ctx.JSON(http.StatusOK, pendingResult(scores.State))
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"state":                   scores.State,
		"scores_from_team_nps":    scores.Manager.Score,
		"scores_from_company_nps": scores.Company.Score,
		"respondents":             scores.Manager.Respondents,
		"team_nps":                scores.Manager,
		"company_nps":             scores.Company,
	})
}

func (api *reportApi) insights(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.Insights(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "building insights")
	}
	if res.State != assessment.StateComplete {
		return ctx.JSON(http.StatusOK, pendingResult(res.State))
	}
	return ctx.JSON(http.StatusOK, res.Insights)
}
