package assessment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
)

var (
	// errors
	ErrNotFound = errors.New("self-assessment not found")
)

// Submission kinds
const (
	KindSelfAssessment = "self_assessment"
	KindTeamFeedback   = "team_feedback"
)

type (
	Repository interface {
		// SaveSelfAssessment replaces any previous self-assessment of the manager.
		SaveSelfAssessment(ctx context.Context, sa SelfAssessment, exec ...core.DBExecutor) error
		GetSelfAssessment(ctx context.Context, managerID string, exec ...core.DBExecutor) (SelfAssessment, error)
		// SaveTeamFeedback replaces any previous feedback of the respondent.
		SaveTeamFeedback(ctx context.Context, fb TeamFeedback, exec ...core.DBExecutor) error
		QueryTeamFeedback(ctx context.Context, managerID string, exec ...core.DBExecutor) ([]TeamFeedback, error)
	}

	// Observer is notified of reports and submissions, e.g. to export metrics.
	Observer interface {
		ObserveReport(personaID string, swotAnalysis bool, took time.Duration)
		ObserveSubmission(kind string)
		ObserveState(view string, state ReportState)
	}

	// NPSScores holds the team's NPS about the manager and about the company.
	NPSScores struct {
		State   ReportState
		Manager NPSResult
		Company NPSResult
	}

	InsightsResult struct {
		State    ReportState
		Insights Insights
	}

	Service interface {
		SubmitSelfAssessment(ctx context.Context, managerID string, sub Submission) (LeadershipReport, error)
		SubmitTeamFeedback(ctx context.Context, respondentID, managerID string, nf NewTeamFeedback) error
		Report(ctx context.Context, managerID string) (LeadershipReport, error)
		LeadershipScores(ctx context.Context, managerID string) (ScoreComparison, error)
		NPSScores(ctx context.Context, managerID string) (NPSScores, error)
		Insights(ctx context.Context, managerID string) (InsightsResult, error)
	}

	service struct {
		repo   Repository
		policy *Policy
		obs    Observer
	}
)

var _ Service = (*service)(nil)

// NewService returns a Service scoring with the given policy. obs may be nil.
func NewService(repo Repository, policy *Policy, obs Observer) Service {
	if obs == nil {
		obs = nopObserver{}
	}
	return &service{repo: repo, policy: policy, obs: obs}
}

func (svc *service) build(sub Submission) LeadershipReport {
	start := time.Now()
	report := BuildReport(svc.policy, sub)
	svc.obs.ObserveReport(report.Metadata.Personas[0], report.Metadata.SWOTAnalysis, time.Since(start))
	return report
}

// SubmitSelfAssessment stores a validated submission and returns its report.
func (svc *service) SubmitSelfAssessment(ctx context.Context, managerID string, sub Submission) (LeadershipReport, error) {
	report := svc.build(sub)
	sa := SelfAssessment{
		ManagerID:   managerID,
		Submission:  sub,
		PersonaID:   report.Persona[0].ID,
		SubmittedAt: time.Now().UTC(),
	}
	if err := svc.repo.SaveSelfAssessment(ctx, sa); err != nil {
		return LeadershipReport{}, errors.Wrap(err, "saving self-assessment")
	}
	svc.obs.ObserveSubmission(KindSelfAssessment)
	return report, nil
}

func (svc *service) SubmitTeamFeedback(ctx context.Context, respondentID, managerID string, nf NewTeamFeedback) error {
	fb := TeamFeedback{
		RespondentID: respondentID,
		ManagerID:    managerID,
		Ratings:      nf.Ratings.Scores(),
		SubmittedAt:  time.Now().UTC(),
	}
	if nf.ManagerNPS != nil {
		fb.ManagerNPS = *nf.ManagerNPS
	}
	if nf.CompanyNPS != nil {
		fb.CompanyNPS = *nf.CompanyNPS
	}
	if err := svc.repo.SaveTeamFeedback(ctx, fb); err != nil {
		return errors.Wrap(err, "saving team feedback")
	}
	svc.obs.ObserveSubmission(KindTeamFeedback)
	return nil
}

// Report rebuilds the report of the latest self-assessment. ErrNotFound when there is none.
func (svc *service) Report(ctx context.Context, managerID string) (LeadershipReport, error) {
	sa, err := svc.repo.GetSelfAssessment(ctx, managerID)
	if err != nil {
		return LeadershipReport{}, err
	}
	return svc.build(sa.Submission), nil
}

// snapshot reads the current self-assessment and team feedback of a manager.
// A nil self means there is no self-assessment.
func (svc *service) snapshot(ctx context.Context, managerID string) (CategoryScores, []TeamFeedback, error) {
	sa, err := svc.repo.GetSelfAssessment(ctx, managerID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, "getting self-assessment")
	}
	self := make(CategoryScores)
	if sa.Submission.Sections.Leadership != nil {
		self = sa.Submission.Sections.Leadership.Means()
	}

	feedback, err := svc.repo.QueryTeamFeedback(ctx, managerID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying team feedback")
	}
	return self, feedback, nil
}

func (svc *service) compare(ctx context.Context, managerID string) (ScoreComparison, []TeamFeedback, error) {
	self, feedback, err := svc.snapshot(ctx, managerID)
	if err != nil {
		return ScoreComparison{}, nil, err
	}
	team := make([]CategoryScores, 0, len(feedback))
	for _, fb := range feedback {
		team = append(team, fb.Ratings)
	}
	return CompareScores(self, team), feedback, nil
}

func (svc *service) LeadershipScores(ctx context.Context, managerID string) (ScoreComparison, error) {
	cmp, _, err := svc.compare(ctx, managerID)
	if err != nil {
		return ScoreComparison{}, err
	}
	svc.obs.ObserveState("leadership_scores", cmp.State)
	return cmp, nil
}

func teamNPS(feedback []TeamFeedback) (NPSResult, NPSResult, error) {
	mgr := make([]float64, 0, len(feedback))
	cpy := make([]float64, 0, len(feedback))
	for _, fb := range feedback {
		mgr = append(mgr, float64(fb.ManagerNPS))
		cpy = append(cpy, float64(fb.CompanyNPS))
	}
	mgrNPS, err := ComputeNPS(mgr, ScaleRaw10)
	if err != nil {
		return NPSResult{}, NPSResult{}, errors.Wrap(err, "computing manager NPS")
	}
	cpyNPS, err := ComputeNPS(cpy, ScaleRaw10)
	if err != nil {
		return NPSResult{}, NPSResult{}, errors.Wrap(err, "computing company NPS")
	}
	return mgrNPS, cpyNPS, nil
}

// NPSScores is only computed once the report is complete; the results stay pending otherwise.
func (svc *service) NPSScores(ctx context.Context, managerID string) (NPSScores, error) {
	cmp, feedback, err := svc.compare(ctx, managerID)
	if err != nil {
		return NPSScores{}, err
	}
	svc.obs.ObserveState("nps_scores", cmp.State)

	scores := NPSScores{State: cmp.State}
	if cmp.State != StateComplete {
		return scores, nil
	}
	scores.Manager, scores.Company, err = teamNPS(feedback)
	if err != nil {
		return NPSScores{}, err
	}
	return scores, nil
}

func (svc *service) Insights(ctx context.Context, managerID string) (InsightsResult, error) {
	cmp, feedback, err := svc.compare(ctx, managerID)
	if err != nil {
		return InsightsResult{}, err
	}
	svc.obs.ObserveState("insights", cmp.State)

	res := InsightsResult{State: cmp.State}
	if cmp.State != StateComplete {
		return res, nil
	}
	mgrNPS, _, err := teamNPS(feedback)
	if err != nil {
		return InsightsResult{}, err
	}
	res.Insights, _ = BuildInsights(svc.policy, cmp, mgrNPS)
	return res, nil
}

type nopObserver struct{}

func (nopObserver) ObserveReport(string, bool, time.Duration) {}
func (nopObserver) ObserveSubmission(string)                  {}
func (nopObserver) ObserveState(string, ReportState)          {}
