package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/gorilla/mux"
)

// RateLimitMiddleware limits each client to perSecond requests per second.
// Requests over the limit get 429 with a JSON error body.
func RateLimitMiddleware(perSecond float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(perSecond, nil)
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	lmt.SetMessageContentType("application/json; charset=utf-8")
	lmt.SetMessage(`{"error":"rate limit exceeded"}`)

	return func(next http.Handler) http.Handler {
		if perSecond <= 0 {
			return next
		}
		return tollbooth.LimitHandler(lmt, next)
	}
}

// LoggingMiddleware logs one line per API request with the client, the
// response size and the project row it touched. Throttled and failing
// requests get a marker so they stand out.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		line := fmt.Sprintf("%s %s -> %d %dB in %v from %s",
			r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start).Round(time.Microsecond), clientIP(r))
		if id := mux.Vars(r)["id"]; id != "" {
			line += " row=" + id
		}

		switch {
		case rec.status == http.StatusTooManyRequests:
			log.Printf("⚠️ Throttled %s", line)
		case rec.status >= http.StatusInternalServerError:
			log.Printf("❌ %s", line)
		default:
			log.Printf("API Request: %s", line)
		}
	})
}

// clientIP prefers the first forwarded address, matching the limiter's lookups
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder keeps the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}
