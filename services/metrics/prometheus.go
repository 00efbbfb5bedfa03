package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/kiongozi/core/assessment"
)

const namespace = "kiongozi"

// PrometheusObserver exports report and submission metrics to Prometheus.
type PrometheusObserver struct {
	reportDuration *prometheus.HistogramVec
	submissions    *prometheus.CounterVec
	states         *prometheus.CounterVec
}

var _ assessment.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the assessment metrics on reg (the default registerer when nil).
// Metrics already registered by a previous observer are reused.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	obs := &PrometheusObserver{
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leadership_report_duration_seconds",
			Help:      "Time spent building leadership reports.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"persona", "swot_analysis"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Count of accepted questionnaire submissions.",
		}, []string{"kind"}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_states_total",
			Help:      "Count of served aggregate views by report state.",
		}, []string{"view", "state"}),
	}

	var err error
	if obs.reportDuration, err = registerHistogramVec(reg, obs.reportDuration); err != nil {
		return nil, errors.Wrap(err, "registering report histogram")
	}
	if obs.submissions, err = registerCounterVec(reg, obs.submissions); err != nil {
		return nil, errors.Wrap(err, "registering submissions counter")
	}
	if obs.states, err = registerCounterVec(reg, obs.states); err != nil {
		return nil, errors.Wrap(err, "registering states counter")
	}
	return obs, nil
}

func registerHistogramVec(reg prometheus.Registerer, c *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (o *PrometheusObserver) ObserveReport(personaID string, swotAnalysis bool, took time.Duration) {
	if o == nil {
		return
	}
	o.reportDuration.WithLabelValues(personaID, strconv.FormatBool(swotAnalysis)).Observe(took.Seconds())
}

func (o *PrometheusObserver) ObserveSubmission(kind string) {
	if o == nil {
		return
	}
	o.submissions.WithLabelValues(kind).Inc()
}

func (o *PrometheusObserver) ObserveState(view string, state assessment.ReportState) {
	if o == nil {
		return
	}
	o.states.WithLabelValues(view, string(state)).Inc()
}

// Handler serves the metrics gathered by g (the default gatherer when nil).
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
