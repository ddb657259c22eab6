// Package metrics exposes Prometheus counters for the catalog client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "book_catalog"
	subsystem = "client"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder groups every counter the catalog client updates. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	fetches     *prometheus.CounterVec
	staleDrops  prometheus.Counter
	commits     *prometheus.CounterVec
	creates     *prometheus.CounterVec
	gatewayReqs *prometheus.CounterVec
}

// New registers the counters on reg. A nil reg builds unregistered counters,
// which is what tests want.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "list_fetches_total",
			Help:      "List fetches that settled the store, by outcome",
		}, []string{"outcome"}),
		staleDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_responses_dropped_total",
			Help:      "List responses discarded because a newer fetch had already settled",
		}),
		commits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "edit_commits_total",
			Help:      "Inline edit commits, by outcome",
		}, []string{"outcome"}),
		creates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "record_creates_total",
			Help:      "Add-record submissions, by outcome",
		}, []string{"outcome"}),
		gatewayReqs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_requests_total",
			Help:      "Requests sent to the catalog service, by operation and status code",
		}, []string{"op", "code"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func (r *Recorder) FetchSettled(err error) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(outcome(err)).Inc()
}

func (r *Recorder) StaleDropped() {
	if r == nil {
		return
	}
	r.staleDrops.Inc()
}

func (r *Recorder) Commit(err error) {
	if r == nil {
		return
	}
	r.commits.WithLabelValues(outcome(err)).Inc()
}

func (r *Recorder) Create(err error) {
	if r == nil {
		return
	}
	r.creates.WithLabelValues(outcome(err)).Inc()
}

// GatewayRequest counts one round trip. code is the HTTP status text or
// "error" when no response arrived.
func (r *Recorder) GatewayRequest(op, code string) {
	if r == nil {
		return
	}
	r.gatewayReqs.WithLabelValues(op, code).Inc()
}
