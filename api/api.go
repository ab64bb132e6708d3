// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/companion-network/cnu/api/events"
	"github.com/companion-network/cnu/api/gating"
	"github.com/companion-network/cnu/api/staking"
	"github.com/companion-network/cnu/api/token"
	"github.com/companion-network/cnu/api/utils"
	"github.com/companion-network/cnu/api/vaults"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/eventdb"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/runtime"
)

var logger = log.WithContext("pkg", "api")

var metricRequests = metrics.LazyLoadHistogramVec(
	"api_request_duration_ms", []string{"path", "code", "method"}, metrics.BucketHTTPReqs)

// Options tunes the http surface.
type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
}

// New returns the api handler.
func New(rt *runtime.Runtime, eco *builtin.Ecosystem, eventDB *eventdb.EventDB, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	token.New(rt, eco).Mount(router, "/token")
	staking.New(rt, eco).Mount(router, "/staking")
	gating.New(rt, eco).Mount(router, "/gating")
	vaults.New(rt, eco).Mount(router, "/vaults")
	if eventDB != nil {
		events.New(eventDB).Mount(router, "/events")
	}
	router.Path("/health").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, utils.M{"healthy": true})
		}))

	handler := http.Handler(router)
	if opts.EnableReqLogger {
		handler = requestLoggerMiddleware(handler)
	}
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler.ServeHTTP
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metricRequests().ObserveWithLabels(time.Since(started).Milliseconds(), map[string]string{
			"path":   path,
			"code":   strconv.Itoa(rec.status),
			"method": r.Method,
		})
	})
}

func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(started).String(),
		)
	})
}
