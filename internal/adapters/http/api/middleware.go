package api

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/okian/mazeball/pkg/metrics"
)

// errorClass labels a failed response for the error counters.
type errorClass struct {
	kind     string
	severity string
}

var knownErrors = map[int]errorClass{
	http.StatusNotFound:              {"not_found", "medium"},
	http.StatusMethodNotAllowed:      {"method_not_allowed", "medium"},
	http.StatusConflict:              {"conflict", "low"},
	http.StatusRequestEntityTooLarge: {"too_large", "medium"},
}

func classify(status int) errorClass {
	if c, ok := knownErrors[status]; ok {
		return c
	}
	if status >= http.StatusInternalServerError {
		return errorClass{"server_error", "high"}
	}
	return errorClass{"client_error", "medium"}
}

// Instrument records request count, latency and error class for one
// endpoint, and continues an incoming W3C trace.
func Instrument(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			metrics.RecordHTTPRequest(endpoint, r.Method, code)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Microseconds())/1000)

			if status >= http.StatusBadRequest {
				c := classify(status)
				metrics.RecordErrorByEndpoint(endpoint, r.Method, c.kind)
				metrics.RecordErrorByType(c.kind, c.severity)
			}
		})
	}
}
