package metricsvc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiongozi/core/assessment"
)

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewPrometheusObserver(reg)
	require.NoError(t, err)

	obs.ObserveSubmission(assessment.KindSelfAssessment)
	obs.ObserveSubmission(assessment.KindSelfAssessment)
	obs.ObserveSubmission(assessment.KindTeamFeedback)
	obs.ObserveState("nps_scores", assessment.StatePendingTeamFeedback)
	obs.ObserveReport("versatile-leader", true, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.submissions.WithLabelValues(assessment.KindSelfAssessment)))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.submissions.WithLabelValues(assessment.KindTeamFeedback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.states.WithLabelValues("nps_scores", string(assessment.StatePendingTeamFeedback))))

	// a second observer reuses the registered collectors
	obs2, err := NewPrometheusObserver(reg)
	require.NoError(t, err)
	obs2.ObserveSubmission(assessment.KindTeamFeedback)
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.submissions.WithLabelValues(assessment.KindTeamFeedback)))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "kiongozi_submissions_total"))
	assert.True(t, strings.Contains(body, `kiongozi_leadership_report_duration_seconds_count{persona="versatile-leader",swot_analysis="true"} 1`))
}

func TestPrometheusObserver_Nil(t *testing.T) {
	var obs *PrometheusObserver
	assert.NotPanics(t, func() {
		obs.ObserveSubmission(assessment.KindTeamFeedback)
		obs.ObserveState("insights", assessment.StateNoData)
		obs.ObserveReport("x", false, time.Second)
	})
}
