// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ListingsAdmitted  prometheus.Counter
	ListingsDuplicate prometheus.Counter
	ListingsFailed    prometheus.Counter
	MatchesEvaluated  prometheus.Counter
	MatchesFound      prometheus.Counter
	EmailsSent        prometheus.Counter
	EmailsFailed      prometheus.Counter
	RunsCompleted     prometheus.Counter
	RunsFailed        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ListingsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_listings_admitted_total",
			Help: "Listings admitted as new during ingestion.",
		}),
		ListingsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_listings_duplicate_total",
			Help: "Listings skipped because the external id was already admitted.",
		}),
		ListingsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_listings_failed_total",
			Help: "Raw listings rejected by structural validation.",
		}),
		MatchesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_matches_evaluated_total",
			Help: "Goal evaluations performed against admitted listings.",
		}),
		MatchesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_matches_found_total",
			Help: "Goal evaluations where all hard criteria passed.",
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_emails_sent_total",
			Help: "Notification emails handed to the SMTP transport.",
		}),
		EmailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_emails_failed_total",
			Help: "Notification emails the SMTP transport rejected.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_crawl_runs_completed_total",
			Help: "Crawl runs that ran to completion.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_crawl_runs_failed_total",
			Help: "Crawl runs aborted by a fatal error or operator reset.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.ListingsAdmitted, m.ListingsDuplicate, m.ListingsFailed,
		m.MatchesEvaluated, m.MatchesFound,
		m.EmailsSent, m.EmailsFailed,
		m.RunsCompleted, m.RunsFailed,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
