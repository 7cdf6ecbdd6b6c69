package metrics

import (
	"net/http"
	"strconv"
	"time"

	familydomain "cras-cadastro/internal/domain/family"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts deduplication and transfer outcomes and times store writes.
type Metrics struct {
	MatchesDetected        *prometheus.CounterVec
	TransfersCompleted     *prometheus.CounterVec
	MembersReactivated     *prometheus.CounterVec
	ResponsibleReassigned  prometheus.Counter
	StoreWriteDuration     prometheus.Histogram
	HTTPRequestDuration    *prometheus.HistogramVec
	NoticeSubscribersGauge prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. Pass a fresh prometheus.NewRegistry in
// tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cras_member_matches_total",
			Help: "Members found active in another household, by matching rule",
		}, []string{"rule"}),
		TransfersCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cras_member_transfers_total",
			Help: "Member transfers between households, by whether the source was deactivated",
		}, []string{"source_deactivated"}),
		MembersReactivated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cras_member_reactivations_total",
			Help: "Member reactivations, by whether a duplicate was pulled from another household",
		}, []string{"pulled"}),
		ResponsibleReassigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "cras_responsible_reassigned_total",
			Help: "Automatic responsible member reassignments",
		}),
		StoreWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cras_store_write_duration_seconds",
			Help:    "Duration of read-modify-write cycles against the record store",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cras_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		NoticeSubscribersGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cras_notice_subscribers",
			Help: "Connected notice websocket clients",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) MatchDetected(rule familydomain.MatchRule) {
	m.MatchesDetected.WithLabelValues(string(rule)).Inc()
}

func (m *Metrics) TransferCompleted(sourceDeactivated bool) {
	m.TransfersCompleted.WithLabelValues(strconv.FormatBool(sourceDeactivated)).Inc()
}

func (m *Metrics) MemberReactivated(pulledFromOther bool) {
	m.MembersReactivated.WithLabelValues(strconv.FormatBool(pulledFromOther)).Inc()
}

func (m *Metrics) ResponsibilityReassigned() {
	m.ResponsibleReassigned.Inc()
}

// ObserveStoreWrite records the duration of a store write.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStoreWrite(start time.Time) {
	m.StoreWriteDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, start time.Time) {
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetNoticeSubscribers(count int) {
	m.NoticeSubscribersGauge.Set(float64(count))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
