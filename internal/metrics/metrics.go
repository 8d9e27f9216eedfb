package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the publisher's collectors. A nil *Registry is valid and
// records nothing.
type Registry struct {
	PublishOutcomesTotal *prometheus.CounterVec
	PublishDuration      *prometheus.HistogramVec
	PostsTotal           *prometheus.CounterVec
	OAuthCallbacksTotal  *prometheus.CounterVec
	TokenRefreshTotal    *prometheus.CounterVec
}

func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		PublishOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_publish_outcomes_total",
				Help: "Per-platform publish attempts by result status",
			},
			[]string{"platform", "status"},
		),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "social_publish_duration_seconds",
				Help:    "Duration of a single platform publish call",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"platform"},
		),
		PostsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_posts_total",
				Help: "Publish requests by final post status",
			},
			[]string{"status"},
		),
		OAuthCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_oauth_callbacks_total",
				Help: "OAuth callbacks by platform and result",
			},
			[]string{"platform", "result"},
		),
		TokenRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "social_token_refresh_total",
				Help: "Token refresh attempts by platform and result",
			},
			[]string{"platform", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			r.PublishOutcomesTotal,
			r.PublishDuration,
			r.PostsTotal,
			r.OAuthCallbacksTotal,
			r.TokenRefreshTotal,
		)
	}
	return r
}

func (r *Registry) RecordPublish(platform, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.PublishOutcomesTotal.WithLabelValues(platform, status).Inc()
	r.PublishDuration.WithLabelValues(platform).Observe(d.Seconds())
}

func (r *Registry) RecordPost(status string) {
	if r == nil {
		return
	}
	r.PostsTotal.WithLabelValues(status).Inc()
}

func (r *Registry) RecordCallback(platform, result string) {
	if r == nil {
		return
	}
	r.OAuthCallbacksTotal.WithLabelValues(platform, result).Inc()
}

func (r *Registry) RecordRefresh(platform, result string) {
	if r == nil {
		return
	}
	r.TokenRefreshTotal.WithLabelValues(platform, result).Inc()
}
