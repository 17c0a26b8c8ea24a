package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts crawl outcomes per site.
type Metrics struct {
	Registry *prometheus.Registry

	Fetched       *prometheus.CounterVec
	Failed        *prometheus.CounterVec
	Archived      *prometheus.CounterVec
	ImagesMissing *prometheus.CounterVec
	Enqueued      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "pages_fetched_total",
			Help:      "Pages fetched successfully.",
		}, []string{"site"}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "pages_failed_total",
			Help:      "Frontier entries that ended in the failed state.",
		}, []string{"site"}),
		Archived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "recipes_archived_total",
			Help:      "Recipe pages written to the archive.",
		}, []string{"site"}),
		ImagesMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "recipe_images_missing_total",
			Help:      "Recipes archived without a main image.",
		}, []string{"site"}),
		Enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawler",
			Name:      "urls_enqueued_total",
			Help:      "New urls added to a frontier.",
		}, []string{"site"}),
	}

	m.Registry.MustRegister(m.Fetched, m.Failed, m.Archived, m.ImagesMissing, m.Enqueued)

	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
