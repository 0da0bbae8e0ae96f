package server

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/validation"
	"github.com/google/uuid"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// chain applies middlewares so the first one listed is the outermost.
func chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type requestIDKey struct{}

// RequestIDHeader carries the request ID back to the client.
const RequestIDHeader = "X-Request-ID"

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(r.ResponseWriter).Hijack()
	if err == nil {
		r.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

// RequestLogging assigns every request an ID, resolves the client address
// through proxies and logs the request once it completes.
func RequestLogging(proxies *TrustedProxies, logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = context.WithValue(ctx, clientIPKey{}, proxies.ClientIP(r))
			r = r.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			logger.Info(r.Context(), "HTTP request",
				"request_id", id,
				"method", r.Method,
				"path", logging.SanitizeForLog(r.URL.Path),
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", clientIP(r))
		})
	}
}

// contentSecurityPolicy allows the inline styles and live reload script the
// admin pages ship with, and nothing from other origins.
const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self' ws: wss:; " +
	"frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

// SecurityHeaders sets response hardening headers and, for mutating requests,
// requires an allowed Origin (or Referer) to stop cross-site form posts.
func SecurityHeaders(allowedOrigins []string, production bool, logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if production && r.TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			if !isSafeMethod(r.Method) && !isValidOrigin(r, allowedOrigins) {
				logger.Warn(r.Context(),
					errors.NewSecurityError(errors.ErrCodeInvalidOrigin, "invalid origin in request"),
					"Security: Invalid origin",
					"origin", r.Header.Get("Origin"),
					"referer", r.Header.Get("Referer"),
					"client_ip", clientIP(r))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Recovery turns a panicking handler into a 500 response.
func Recovery(logger logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := errors.NewInternalError(errors.ErrCodePanic, fmt.Sprint(rec), nil)
				logger.Error(r.Context(), err, "Handler panicked",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// isValidOrigin validates the request origin against allowed origins
func isValidOrigin(r *http.Request, allowedOrigins []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Some browsers omit Origin on same-origin posts; fall back to Referer.
		if referer := r.Header.Get("Referer"); referer != "" {
			if refererURL, err := url.Parse(referer); err == nil {
				origin = refererURL.Scheme + "://" + refererURL.Host
			}
		}
	}

	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// TrustedProxies decides whose forwarding headers are believed. A nil
// *TrustedProxies trusts nobody.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses IP addresses and CIDR ranges. Entries that fail to
// parse are skipped and reported in the returned error.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	var errs []error
	for _, entry := range entries {
		prefix, err := validation.ParseProxy(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tp.prefixes = append(tp.prefixes, prefix)
	}
	return tp, stderrors.Join(errs...)
}

func (tp *TrustedProxies) trusts(ip string) bool {
	if tp == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range tp.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client behind r. X-Forwarded-For and
// X-Real-IP are only read when the connecting peer is a trusted proxy; the
// forwarded chain is walked from the right and the first untrusted hop wins.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !tp.trusts(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !tp.trusts(hop) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return peer
}

type clientIPKey struct{}

// clientIP returns the address resolved by RequestLogging, or the peer
// address when the request did not pass through it.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
