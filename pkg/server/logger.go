package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/thepwagner/madison/pkg/madison"
)

// RequestLog returns chi middleware that logs one line per response to logger.
// Madison queries also carry the requested packages and suite filter.
func RequestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				level := slog.LevelInfo
				if ww.Status() >= http.StatusBadRequest {
					level = slog.LevelWarn
				}

				attrs := []slog.Attr{
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Group("request", slog.String("method", r.Method), slog.String("path", r.URL.Path)),
					slog.Group("response", slog.Int("status", ww.Status()), slog.Int("bytes", ww.BytesWritten())),
					slog.Duration("duration", time.Since(start)),
				}
				q := r.URL.Query()
				if packages := madison.SplitPackages(q.Get("package")); len(packages) > 0 {
					attrs = append(attrs, slog.Group("query",
						slog.Any("packages", packages),
						slog.String("filter", q.Get("s")),
						slog.Bool("text", q.Get("text") == "on"),
					))
				}
				logger.LogAttrs(r.Context(), level, "returned response", attrs...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
