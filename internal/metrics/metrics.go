// Package metrics counts catalog activity with Prometheus collectors kept
// in a private registry.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics of one catalog process.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	notificationsPosted  *prometheus.CounterVec
	notificationsDropped *prometheus.CounterVec
	xmpRewrites          *prometheus.CounterVec
	requests             *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
}

// NewCollector creates a collector with the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	notificationsPosted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_posted_total",
			Help:      "Notifications delivered to at least one listener",
		},
		[]string{"kind"},
	)

	notificationsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications posted with no listener or after teardown",
		},
		[]string{"reason"},
	)

	xmpRewrites := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xmp_rewrites_total",
			Help:      "Sidecar rewrites by result",
		},
		[]string{"result"},
	)

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Catalog requests run by the worker",
		},
		[]string{"operation", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Catalog request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(notificationsPosted, notificationsDropped, xmpRewrites, requests, requestDuration)

	return &Collector{
		registry:             registry,
		notificationsPosted:  notificationsPosted,
		notificationsDropped: notificationsDropped,
		xmpRewrites:          xmpRewrites,
		requests:             requests,
		requestDuration:      requestDuration,
	}
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) NotificationPosted(kind string) {
	if c == nil {
		return
	}
	c.notificationsPosted.WithLabelValues(kind).Inc()
}

func (c *Collector) NotificationDropped(reason string) {
	if c == nil {
		return
	}
	c.notificationsDropped.WithLabelValues(reason).Inc()
}

// XmpRewrite counts one sidecar rewrite; result is written, discarded or failed.
func (c *Collector) XmpRewrite(result string) {
	if c == nil {
		return
	}
	c.xmpRewrites.WithLabelValues(result).Inc()
}

// Request records one worker request.
func (c *Collector) Request(operation string, err error, d time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.requests.WithLabelValues(operation, status).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Sample is one gathered counter value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

func (s Sample) String() string {
	if s.Labels == "" {
		return fmt.Sprintf("%s %g", s.Name, s.Value)
	}
	return fmt.Sprintf("%s{%s} %g", s.Name, s.Labels, s.Value)
}

// Snapshot returns the current counter values sorted by name and labels.
// Histograms are reported by their sample count.
func (c *Collector) Snapshot() ([]Sample, error) {
	if c == nil {
		return nil, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var pairs []string
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			s := Sample{Name: mf.GetName(), Labels: strings.Join(pairs, ",")}
			switch {
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				s.Name += "_count"
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}
