package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/crm-backoffice/pkg/logger"
)

// maxLoggedBody caps how much of a request or response body reaches the log.
const maxLoggedBody = 4 << 10

const redacted = "[FILTERED]"

// redactedKeys are JSON keys and header names whose values never reach the log.
// Keys ending in one of redactedSuffixes are treated the same way.
var (
	redactedKeys = map[string]bool{
		"password":         true,
		"current_password": true,
		"new_password":     true,
		"password_hash":    true,
		"access_token":     true,
		"refresh_token":    true,
		"authorization":    true,
		"cookie":           true,
		"set-cookie":       true,
	}
	redactedSuffixes = []string{"_secret", "_password", "_token"}
)

// probePaths are logged at debug level so orchestrator polling stays quiet.
var probePaths = map[string]bool{
	"/api/v1/health": true,
	"/api/v1/ping":   true,
}

func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.FromOr(r.Context(), base)

			if !probePaths[r.URL.Path] {
				logRequest(lg, r)
			}

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			logResponse(lg, r, ww, time.Since(start))
		})
	}
}

// responseWriter records the status and the head of the body.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	head       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.head.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.head.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func logRequest(lg *slog.Logger, r *http.Request) {
	if !lg.Enabled(r.Context(), slog.LevelDebug) {
		return
	}

	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	lg.DebugContext(r.Context(), "incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", redactHeaders(r.Header),
		"body", redactBody(body),
	)
}

func logResponse(lg *slog.Logger, r *http.Request, rw *responseWriter, duration time.Duration) {
	status := rw.statusCode
	if status == 0 {
		status = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case probePaths[r.URL.Path] && status < 500:
		level = slog.LevelDebug
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
	}
	// only error envelopes are worth keeping
	if status >= 400 {
		attrs = append(attrs, "body", redactBody(rw.head.Bytes()))
	}
	lg.Log(r.Context(), level, "response", attrs...)
}

func isRedacted(name string) bool {
	name = strings.ToLower(name)
	if redactedKeys[name] {
		return true
	}
	for _, suffix := range redactedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody masks secrets in a JSON body. Anything that is not JSON is
// reported by size only.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[non-JSON body, " + strconv.Itoa(len(body)) + " bytes]"
	}
	out, err := json.Marshal(redactJSON(data))
	if err != nil {
		return "[unprintable body]"
	}
	return string(out)
}

func redactJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isRedacted(key) {
				out[key] = redacted
				continue
			}
			out[key] = redactJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redactJSON(item)
		}
		return out
	default:
		return v
	}
}
