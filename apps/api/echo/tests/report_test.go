package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiongozi/core/assessment"
	"github.com/trezcool/kiongozi/core/user"
	"github.com/trezcool/kiongozi/tests"
)

const submission = `{"meta": {"include": ["leadership", "roleInfo"]}, "sections": {
	"leadership": {
		"decisionMakingAndDelegation": {"delegation": 4, "decisiveness": 5},
		"emotionalIntelligenceAndEmpathy": {"empathy": 3},
		"visionAndStrategy": {"vision": 2, "planning": 2},
		"teamDevelopmentAndCoaching": {"coaching": 3.5},
		"adaptabilityAndInfluence": {"influence": 4}
	},
	"roleInfo": {"role": "Engineering Manager", "teamSize": "6-10", "industry": "Tech", "challenges": ["hiring"]}
}}`

func decode(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &data))
	return data
}

func Test_reportApi_access(t *testing.T) {
	env := setup(t)
	mgr := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)
	member := testutil.CreateUser(t, env.usrRepo, "Bob", "bob@test.cd", pwd, user.RoleMember, mgr.ID, true)

	var tests []httpTest
	for _, path := range []string{"/v1/leadership-assessment-score", "/v1/nps-score", "/v1/insights", "/v1/leadership-report"} {
		tests = append(tests,
			httpTest{name: path + " auth required", method: http.MethodGet, path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
			httpTest{
				name: path + " manager required", method: http.MethodGet, path: path, token: env.getToken(t, member),
				wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
			},
		)
	}
	runTests(t, env, tests)
}

func Test_reportApi_submit_invalid(t *testing.T) {
	env := setup(t)
	token := env.getToken(t, testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true))

	runTests(t, env, httpTests{
		{
			name: "unknown section", body: []byte(`{"meta": {"include": ["leadership", "salary"]}}`), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "meta.include[1]", Message: "include[1] must be one of [leadership roleInfo psychographic]"})),
		},
		{
			name: "section not included", token: token, wantCode: http.StatusBadRequest,
			body: []byte(`{"meta": {"include": []}, "sections": {"roleInfo": {"role": "CTO", "teamSize": "50+", "industry": "Fintech", "challenges": ["scale"]}}}`),
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "sections.roleInfo", Message: "section must be listed in meta.include"})),
		},
		{name: "malformed", body: []byte(`{"meta": `), token: token, wantCode: http.StatusBadRequest, wantData: marchallObj(t, newNotOK(fieldErr{Message: "malformed JSON"}))},
		{
			name: "null score", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(strings.Replace(submission, `"empathy": 3`, `"empathy": null`, 1)),
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "sections.leadership.emotionalIntelligenceAndEmpathy[empathy]", Message: "this field is required"})),
		},
		{
			name: "unknown section key", token: token, wantCode: http.StatusBadRequest,
			body:     []byte(strings.Replace(submission, `"roleInfo": {"role"`, `"salary": {"base": 1}, "roleInfo": {"role"`, 1)),
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "sections.salary", Message: "unknown section, must be one of [leadership roleInfo psychographic]"})),
		},
	}.withRequest(http.MethodPost, "/v1/leadership-report"))

	t.Run("type error with other errors", func(t *testing.T) {
		body := `{"meta": {"include": ["leadership", "salary"]}, "sections": {"leadership": {
			"decisionMakingAndDelegation": {"delegation": "high"},
			"emotionalIntelligenceAndEmpathy": {"empathy": 3},
			"visionAndStrategy": {"vision": 2},
			"teamDevelopmentAndCoaching": {"coaching": 3}
		}}}`
		rec := env.do(http.MethodPost, "/v1/leadership-report", token, []byte(body))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp notOK
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Error, 3, rec.Body.String())

		assert.True(t, strings.HasPrefix(resp.Error[0].Path, "sections.leadership.decisionMakingAndDelegation"), resp.Error[0].Path)
		assert.Equal(t, "expected number, got string", resp.Error[0].Message)
		assert.Equal(t, []fieldErr{
			{Path: "meta.include[1]", Message: "include[1] must be one of [leadership roleInfo psychographic]"},
			{Path: "sections.leadership.adaptabilityAndInfluence", Message: "this field is required"},
		}, resp.Error[1:])
	})

	t.Run("wrong type", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/leadership-report", token, []byte(`{"meta": {"include": "leadership"}}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp notOK
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Not OK", resp.Status)
		require.Len(t, resp.Error, 1)
		assert.True(t, strings.HasSuffix(resp.Error[0].Path, "include"))
		assert.Equal(t, "expected array, got string", resp.Error[0].Message)
	})

	// nothing was stored
	rec := env.do(http.MethodGet, "/v1/leadership-assessment-score", token)
	assert.Equal(t, true, decode(t, rec.Body.Bytes())["pending_result"])
}

func Test_reportApi_lifecycle(t *testing.T) {
	env := setup(t)
	mgr := testutil.CreateUser(t, env.usrRepo, "Jane", "jane@test.cd", pwd, user.RoleManager, "", true)
	bob := testutil.CreateUser(t, env.usrRepo, "Bob", "bob@test.cd", pwd, user.RoleMember, mgr.ID, true)
	ann := testutil.CreateUser(t, env.usrRepo, "Ann", "ann@test.cd", pwd, user.RoleMember, mgr.ID, true)
	mgrToken := env.getToken(t, mgr)

	pending := func(state assessment.ReportState) []byte {
		return marchallObj(t, map[string]interface{}{"pending_result": true, "state": state})
	}

	// no self-assessment yet
	runTests(t, env, []httpTest{
		{name: "no data: scores", method: http.MethodGet, path: "/v1/leadership-assessment-score", token: mgrToken, wantData: pending(assessment.StateNoData)},
		{name: "no data: nps", method: http.MethodGet, path: "/v1/nps-score", token: mgrToken, wantData: pending(assessment.StateNoData)},
		{name: "no data: insights", method: http.MethodGet, path: "/v1/insights", token: mgrToken, wantData: pending(assessment.StateNoData)},
		{
			name: "no data: report", method: http.MethodGet, path: "/v1/leadership-report", token: mgrToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	})

	// self-assessment
	rec := env.do(http.MethodPost, "/v1/leadership-report", mgrToken, []byte(submission))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report assessment.LeadershipReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Persona, 1)
	assert.Equal(t, "decisive-driver", report.Persona[0].ID)
	assert.Equal(t, []string{"decisive-driver"}, report.Metadata.Personas)
	assert.True(t, report.Metadata.SWOTAnalysis)
	assert.NotEmpty(t, report.Insights.Strengths)
	assert.NotEmpty(t, report.Insights.Weaknesses)

	// the stored report is rebuilt identically
	stored := env.do(http.MethodGet, "/v1/leadership-report", mgrToken)
	assert.Equal(t, http.StatusOK, stored.Code)
	assert.JSONEq(t, rec.Body.String(), stored.Body.String())

	selfScores := map[string]interface{}{
		assessment.CategoryDecisionMaking:        4.5,
		assessment.CategoryEmotionalIntelligence: 3.0,
		assessment.CategoryVisionStrategy:        2.0,
		assessment.CategoryTeamDevelopment:       3.5,
		assessment.CategoryAdaptability:          4.0,
	}
	runTests(t, env, []httpTest{
		{
			name: "pending: scores", method: http.MethodGet, path: "/v1/leadership-assessment-score", token: mgrToken,
			wantData: marchallObj(t, map[string]interface{}{
				"pending_result":      true,
				"state":               assessment.StatePendingTeamFeedback,
				"scores_from_manager": selfScores,
			}),
		},
		{name: "pending: nps", method: http.MethodGet, path: "/v1/nps-score", token: mgrToken, wantData: pending(assessment.StatePendingTeamFeedback)},
		{name: "pending: insights", method: http.MethodGet, path: "/v1/insights", token: mgrToken, wantData: pending(assessment.StatePendingTeamFeedback)},
	})

	// team feedback
	feedback := func(ratings map[string]float64, mgrNPS, cpyNPS int) []byte {
		return marchallObj(t, map[string]interface{}{"ratings": ratings, "manager_nps": mgrNPS, "company_nps": cpyNPS})
	}
	bobFeedback := feedback(map[string]float64{assessment.CategoryDecisionMaking: 4, assessment.CategoryVisionStrategy: 3}, 9, 10)
	runTests(t, env, httpTests{
		{name: "auth required", body: bobFeedback, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "member required", body: bobFeedback, token: mgrToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid", token: env.getToken(t, bob), wantCode: http.StatusBadRequest,
			body: []byte(`{"ratings": {"salary": 3}, "company_nps": 11}`),
			wantData: marchallObj(t, newNotOK(
				fieldErr{Path: "ratings[salary]", Message: "ratings[salary] must be one of [decisionMakingAndDelegation emotionalIntelligenceAndEmpathy visionAndStrategy teamDevelopmentAndCoaching adaptabilityAndInfluence]"},
				fieldErr{Path: "manager_nps", Message: "this field is required"},
				fieldErr{Path: "company_nps", Message: "company_nps must be 10 or less"},
			)),
		},
		{
			name: "null rating", token: env.getToken(t, bob), wantCode: http.StatusBadRequest,
			body:     []byte(`{"ratings": {"visionAndStrategy": null}, "manager_nps": 5, "company_nps": 5}`),
			wantData: marchallObj(t, newNotOK(fieldErr{Path: "ratings[visionAndStrategy]", Message: "this field is required"})),
		},
		{name: "bob", body: bobFeedback, token: env.getToken(t, bob), wantCode: http.StatusNoContent},
		{
			name: "ann", token: env.getToken(t, ann), wantCode: http.StatusNoContent,
			body: feedback(map[string]float64{assessment.CategoryDecisionMaking: 2, assessment.CategoryVisionStrategy: 5, assessment.CategoryEmotionalIntelligence: 4}, 0, 10),
		},
	}.withRequest(http.MethodPost, "/v1/team/feedback"))

	// complete
	runTests(t, env, []httpTest{
		{
			name: "complete: scores", method: http.MethodGet, path: "/v1/leadership-assessment-score", token: mgrToken,
			wantData: marchallObj(t, map[string]interface{}{
				"state":               assessment.StateComplete,
				"scores_from_manager": selfScores,
				"scores_from_team": map[string]float64{
					assessment.CategoryDecisionMaking:        3,
					assessment.CategoryEmotionalIntelligence: 4,
					assessment.CategoryVisionStrategy:        4,
				},
				"pending_categories": []string{assessment.CategoryTeamDevelopment, assessment.CategoryAdaptability},
				"respondents":        2,
			}),
		},
	})

	rec = env.do(http.MethodGet, "/v1/nps-score", mgrToken)
	require.Equal(t, http.StatusOK, rec.Code)
	nps := decode(t, rec.Body.Bytes())
	assert.Nil(t, nps["pending_result"])
	assert.Equal(t, 0.0, nps["scores_from_team_nps"])
	assert.Equal(t, 100.0, nps["scores_from_company_nps"])
	assert.Equal(t, 2.0, nps["respondents"])

	rec = env.do(http.MethodGet, "/v1/insights", mgrToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var insights assessment.Insights
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	assert.Contains(t, insights.TeamToManager, "Your team rates your vision and strategy higher than you do (team 4.00, self 2.00).")
	assert.Contains(t, insights.TeamToManager, "Your team NPS is 0.00 from 2 respondent(s): 1 promoter(s), 0 passive(s), 1 detractor(s).")
	assert.NotEmpty(t, insights.ManagerDevelopment)

	// metrics are exported
	rec = env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kiongozi_submissions_total{kind="team_feedback"} 2`)
	assert.Contains(t, rec.Body.String(), `kiongozi_report_states_total{state="complete",view="insights"} 1`)
}

func Test_teamFeedback_noManager(t *testing.T) {
	env := setup(t)
	loner := testutil.CreateUser(t, env.usrRepo, "Lone", "lone@test.cd", pwd, user.RoleMember, "", true)

	runTests(t, env, []httpTest{{
		name: "no manager", method: http.MethodPost, path: "/v1/team/feedback", token: env.getToken(t, loner),
		body:     []byte(`{"ratings": {"visionAndStrategy": 3}, "manager_nps": 5, "company_nps": 5}`),
		wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you are not part of a team"}),
	}})
}
