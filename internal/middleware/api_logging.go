package middleware

import (
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// responseWriter records the status and body size of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// RequestLogging writes one log line per API request with the caller's clinic and role
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		caller := "anonymous"
		if claims, ok := GetClaimsFromContext(r.Context()); ok {
			caller = claims.Role
			if claims.ClinicID != "" {
				caller += "/" + claims.ClinicID
			}
		}

		log.Printf("[API] %s %s %d %dB %.1fms caller=%s ip=%s",
			r.Method, sanitizePath(r.URL.Path), wrapped.statusCode, wrapped.bytesWritten,
			float64(time.Since(start).Microseconds())/1000.0, caller, getClientIP(r))
	})
}

var quietPaths = []string{"/health", "/metrics", "/favicon.ico"}

func shouldSkipLogging(path string) bool {
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// sanitizePath drops the query string and caps the length
func sanitizePath(path string) string {
	path, _, _ = strings.Cut(path, "?")
	if len(path) > 200 {
		path = path[:200] + "..."
	}
	return path
}

// getClientIP prefers the first proxy hop, then X-Real-IP, then the socket address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
