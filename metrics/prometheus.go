// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/companion-network/cnu/log"
)

const namespace = "cnu_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics installs the prometheus backend as the
// process-wide meter service. Safe to call more than once.
func InitializePrometheusMetrics() {
	if _, ok := service.(*prometheusService); !ok {
		service = &prometheusService{}
	}
}

type prometheusService struct {
	counters      sync.Map
	counterVecs   sync.Map
	gauges        sync.Map
	histogramVecs sync.Map
}

func (s *prometheusService) GetOrCreateCounter(name string) Counter {
	if m, ok := s.counters.Load(name); ok {
		return m.(Counter)
	}
	meter := s.newCounter(name)
	s.counters.Store(name, meter)
	return meter
}

func (s *prometheusService) GetOrCreateCounterVec(name string, labels []string) CounterVec {
	if m, ok := s.counterVecs.Load(name); ok {
		return m.(CounterVec)
	}
	meter := s.newCounterVec(name, labels)
	s.counterVecs.Store(name, meter)
	return meter
}

func (s *prometheusService) GetOrCreateGauge(name string) Gauge {
	if m, ok := s.gauges.Load(name); ok {
		return m.(Gauge)
	}
	meter := s.newGauge(name)
	s.gauges.Store(name, meter)
	return meter
}

func (s *prometheusService) GetOrCreateHistogramVec(name string, labels []string, buckets []int64) HistogramVec {
	if m, ok := s.histogramVecs.Load(name); ok {
		return m.(HistogramVec)
	}
	meter := s.newHistogramVec(name, labels, buckets)
	s.histogramVecs.Store(name, meter)
	return meter
}

func (s *prometheusService) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

type promCounter struct {
	counter prometheus.Counter
}

func (c *promCounter) Add(v int64) {
	c.counter.Add(float64(v))
}

func (s *prometheusService) newCounter(name string) Counter {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(counter); err != nil {
		logger.Warn("unable to register counter", "name", name, "err", err)
	}
	return &promCounter{counter: counter}
}

type promCounterVec struct {
	vec *prometheus.CounterVec
}

func (c *promCounterVec) AddWithLabel(v int64, labels map[string]string) {
	c.vec.With(labels).Add(float64(v))
}

func (s *prometheusService) newCounterVec(name string, labels []string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	}, labels)
	if err := prometheus.Register(vec); err != nil {
		logger.Warn("unable to register counter vec", "name", name, "err", err)
	}
	return &promCounterVec{vec: vec}
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (g *promGauge) Add(v int64) {
	g.gauge.Add(float64(v))
}

func (g *promGauge) Set(v int64) {
	g.gauge.Set(float64(v))
}

func (s *prometheusService) newGauge(name string) Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(gauge); err != nil {
		logger.Warn("unable to register gauge", "name", name, "err", err)
	}
	return &promGauge{gauge: gauge}
}

type promHistogramVec struct {
	vec *prometheus.HistogramVec
}

func (h *promHistogramVec) ObserveWithLabels(v int64, labels map[string]string) {
	h.vec.With(labels).Observe(float64(v))
}

func (s *prometheusService) newHistogramVec(name string, labels []string, buckets []int64) HistogramVec {
	floatBuckets := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		floatBuckets = append(floatBuckets, float64(b))
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   floatBuckets,
	}, labels)
	if err := prometheus.Register(vec); err != nil {
		logger.Warn("unable to register histogram vec", "name", name, "err", err)
	}
	return &promHistogramVec{vec: vec}
}
