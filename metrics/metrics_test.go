// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	assert.Nil(t, HTTPHandler())

	counter := LazyLoadCounter("noop_counter")
	counter().Add(1) // must not panic
}

func TestPrometheusMeters(t *testing.T) {
	InitializePrometheusMetrics()
	InitializePrometheusMetrics() // idempotent

	counter := service.GetOrCreateCounter("transfers_total")
	counter.Add(3)
	// same meter returned for the same name
	assert.Equal(t, counter, service.GetOrCreateCounter("transfers_total"))

	gauge := service.GetOrCreateGauge("stakers")
	gauge.Set(7)
	gauge.Add(-2)

	vec := service.GetOrCreateCounterVec("api_requests", []string{"code"})
	vec.AddWithLabel(1, map[string]string{"code": "200"})

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.Nil(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	assert.True(t, strings.Contains(string(body), "cnu_metrics_transfers_total 3"))
	assert.True(t, strings.Contains(string(body), "cnu_metrics_stakers 5"))
}
