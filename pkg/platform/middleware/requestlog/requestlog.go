// Package requestlog emits one structured log line per request and feeds the
// HTTP metrics. The User-Agent is parsed so operators can tell browser
// traffic from shop-floor terminals and scripts at a glance.
package requestlog

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"

	"nonconf/internal/platform/metrics"
	"nonconf/pkg/requestcontext"
)

// Middleware logs method, route, status, latency, and client platform fields
// for every request.
func Middleware(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			ctx := r.Context()
			duration := time.Since(start)
			ua := useragent.New(r.Header.Get("User-Agent"))
			browser, _ := ua.Browser()

			logger.InfoContext(ctx, "http request",
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", duration.Milliseconds(),
				"client_ip", clientIP(r),
				"client_os", ua.OS(),
				"client_browser", browser,
				"client_bot", ua.Bot(),
			)
			if m != nil {
				route := r.URL.Path
				if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				m.RequestsTotal.WithLabelValues(r.Method, route, statusClass(ww.Status())).Inc()
				m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
			}
		})
	}
}

func statusClass(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return fmt.Sprintf("%dxx", status/100)
}

// clientIP extracts the real client IP, handling proxies and load balancers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
