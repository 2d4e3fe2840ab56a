// Package metrics records renderer lifecycle events as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and embedders do not share globals.
type Collector struct {
	registry *prometheus.Registry

	syncs         prometheus.Counter
	changes       *prometheus.CounterVec
	valuesChanged prometheus.Counter
	binders       *prometheus.GaugeVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		syncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charsheet_synchronize_total",
			Help: "Total number of sheet synchronizations",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charsheet_changes_total",
			Help: "Changes handled, by type and outcome",
		}, []string{"type", "outcome"}),
		valuesChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "charsheet_user_values_changed_total",
			Help: "User values that differed between consecutive snapshots",
		}),
		binders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "charsheet_binders",
			Help: "Binders rendered by the last synchronization of a sheet",
		}, []string{"sheet"}),
	}
	c.registry.MustRegister(
		c.syncs, c.changes, c.valuesChanged, c.binders,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record each event.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSynchronize: func(ctx context.Context, e *domain.SyncEvent) {
			c.syncs.Inc()
			c.binders.WithLabelValues(e.SheetKey).Set(float64(e.Binders))
			if e.Diff != nil {
				c.valuesChanged.Add(float64(len(e.Diff.Changed) + len(e.Diff.Removed)))
			}
		},
		OnChangeApplied: func(ctx context.Context, e *domain.ChangeEvent) {
			c.changes.WithLabelValues(e.Change.Type, "applied").Inc()
		},
		OnChangeRejected: func(ctx context.Context, e *domain.ChangeEvent) {
			c.changes.WithLabelValues(e.Change.Type, "rejected").Inc()
		},
	}
}

// Forget drops per-sheet series, e.g. when a sheet is closed.
func (c *Collector) Forget(sheet string) {
	c.binders.DeleteLabelValues(sheet)
}
