// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes a process-wide meter registry.
// It defaults to no-op meters until a real backend is installed.
package metrics

import (
	"net/http"
	"sync"
)

// service is the process-wide meter factory, a no-op unless
// InitializePrometheusMetrics has been called.
var service Service = noopService{}

// Service creates or fetches named meters.
type Service interface {
	GetOrCreateCounter(name string) Counter
	GetOrCreateCounterVec(name string, labels []string) CounterVec
	GetOrCreateGauge(name string) Gauge
	GetOrCreateHistogramVec(name string, labels []string, buckets []int64) HistogramVec
	GetOrCreateHandler() http.Handler
}

// HTTPHandler returns the http handler for scraping metrics.
func HTTPHandler() http.Handler {
	return service.GetOrCreateHandler()
}

// BucketHTTPReqs default milliseconds buckets for request durations.
var BucketHTTPReqs = []int64{
	0, 1, 2, 5, 10, 20, 30, 50, 75, 100,
	150, 200, 300, 400, 500, 750, 1000,
	1500, 2000, 3000, 4000, 5000, 10000,
}

// Counter is a monotonically increasing meter.
type Counter interface {
	Add(int64)
}

// CounterVec is a counter with labels.
type CounterVec interface {
	AddWithLabel(int64, map[string]string)
}

// Gauge is a meter that can go up and down.
type Gauge interface {
	Add(int64)
	Set(int64)
}

// HistogramVec aggregates observations into labeled buckets.
type HistogramVec interface {
	ObserveWithLabels(int64, map[string]string)
}

// LazyLoad defers meter instantiation so package-level meter vars pick up
// whichever backend is installed at first use.
func LazyLoad[T any](f func() T) func() T {
	var result T
	var once sync.Once
	return func() T {
		once.Do(func() {
			result = f()
		})
		return result
	}
}

// LazyLoadCounter declares a named counter resolved at first use.
func LazyLoadCounter(name string) func() Counter {
	return LazyLoad(func() Counter {
		return service.GetOrCreateCounter(name)
	})
}

// LazyLoadCounterVec declares a named labeled counter resolved at first use.
func LazyLoadCounterVec(name string, labels []string) func() CounterVec {
	return LazyLoad(func() CounterVec {
		return service.GetOrCreateCounterVec(name, labels)
	})
}

// LazyLoadGauge declares a named gauge resolved at first use.
func LazyLoadGauge(name string) func() Gauge {
	return LazyLoad(func() Gauge {
		return service.GetOrCreateGauge(name)
	})
}

// LazyLoadHistogramVec declares a named labeled histogram resolved at first use.
func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVec {
	return LazyLoad(func() HistogramVec {
		return service.GetOrCreateHistogramVec(name, labels, buckets)
	})
}

type noopService struct{}

type noopMeter struct{}

func (noopMeter) Add(int64)                                  {}
func (noopMeter) Set(int64)                                  {}
func (noopMeter) AddWithLabel(int64, map[string]string)      {}
func (noopMeter) ObserveWithLabels(int64, map[string]string) {}

func (noopService) GetOrCreateCounter(string) Counter { return noopMeter{} }
func (noopService) GetOrCreateCounterVec(string, []string) CounterVec {
	return noopMeter{}
}
func (noopService) GetOrCreateGauge(string) Gauge { return noopMeter{} }
func (noopService) GetOrCreateHistogramVec(string, []string, []int64) HistogramVec {
	return noopMeter{}
}
func (noopService) GetOrCreateHandler() http.Handler { return nil }
