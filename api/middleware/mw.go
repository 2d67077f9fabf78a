package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID returns the id stored by WithRequestID, or "" if there is none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID tags each request with an id, reusing an inbound
// X-Request-ID header when it is a valid UUID.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger := log.With().
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Str("request_id", RequestID(r.Context())).
				Logger()

			sw := &statusWriter{ResponseWriter: w}

			// Add the logger to the context
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(sw, r.WithContext(ctx))

			logger.Info().
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		},
	)
}

// Recoverer turns a panic in a handler into a JSON 500 response. When the
// handler has already started its response the panic is only logged.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}

			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				zerolog.Ctx(r.Context()).Error().
					Interface("panic", p).
					Int("written_status", sw.status).
					Msg("Recovered from panic in handler")

				if sw.Written() {
					return
				}

				sw.Header().Set("Content-Type", "application/json")
				sw.WriteHeader(http.StatusInternalServerError)
				sw.Write([]byte(`{"error":"internal server error"}` + "\n"))
			}()

			next.ServeHTTP(sw, r)
		},
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Written reports whether the response headers have been sent.
func (w *statusWriter) Written() bool {
	return w.status != 0
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
