package relay

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Callback outcomes recorded by Metrics.
const (
	ResultRedirect     = "redirect"
	ResultRelayed      = "relayed"
	ResultError        = "error"
	ResultTimeout      = "timeout"
	ResultInvalidState = "invalid_state"
)

// Metrics counts relay and proxy traffic. A nil *Metrics records nothing.
type Metrics struct {
	initiations prometheus.Counter
	callbacks   *prometheus.CounterVec
	rewritten   prometheus.Counter
	proxied     *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg creates
// unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		initiations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "relay",
			Name:      "oauth_initiations_total",
			Help:      "OAuth flows started through the relay.",
		}),
		callbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "relay",
			Name:      "oauth_callbacks_total",
			Help:      "OAuth callbacks handled by the relay, by outcome.",
		}, []string{"result"}),
		rewritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "relay",
			Name:      "cookies_rewritten_total",
			Help:      "Backend Set-Cookie headers whose Domain was stripped.",
		}),
		proxied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialsync",
			Subsystem: "proxy",
			Name:      "responses_total",
			Help:      "Responses relayed by the API proxy, by status class.",
		}, []string{"class"}),
	}
}

func (m *Metrics) initiated() {
	if m != nil {
		m.initiations.Inc()
	}
}

func (m *Metrics) callback(result string) {
	if m != nil {
		m.callbacks.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) cookies(n int) {
	if m != nil && n > 0 {
		m.rewritten.Add(float64(n))
	}
}

func (m *Metrics) response(status int) {
	if m != nil {
		m.proxied.WithLabelValues(strconv.Itoa(status/100) + "xx").Inc()
	}
}
