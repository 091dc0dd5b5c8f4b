package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bqadmin/internal/logging"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// AccessRecorder receives one record per finished request.
type AccessRecorder interface {
	Record(rec logging.AccessRecord)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// AccessLogMiddleware assigns a request id and records method, path, status,
// latency and caller for every request. Query strings and headers are never
// recorded. It must run inside SessionMiddleware to see the caller.
func AccessLogMiddleware(recorder AccessRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set(RequestIDHeader, reqID)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			recorder.Record(logging.AccessRecord{
				Timestamp:  start.UTC(),
				RequestID:  reqID,
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				RemoteAddr: r.RemoteAddr,
				UserID:     GetUserID(r.Context()),
			})
		})
	}
}
