// Package httpapi exposes the contact pipeline and the staff review API
// over HTTP.
package httpapi

import (
	"net/http"
	"strings"

	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
	goamiddleware "goa.design/goa/v3/middleware"

	"mrxstudio/internal/config"
	"mrxstudio/internal/metrics"
)

// Deps are the services the router mounts.
type Deps struct {
	Contact Submitter
	Auth    interface {
		Login
		Authenticator
	}
	Review Reviewer
	Health HealthChecker
}

// contactMethods are routed to the contact handler so that anything but
// POST gets the JSON 405.
var contactMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// NewRouter builds the full handler chain:
// recover -> security headers -> CORS -> request id -> logging -> metrics -> mux.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	mux := goahttp.NewMuxer()
	routes := &routeTable{}
	handle := func(method, pattern string, h http.HandlerFunc) {
		mux.Handle(method, pattern, h)
		routes.add(pattern)
	}

	contact := NewContactHandler(deps.Contact)
	for _, m := range contactMethods {
		handle(m, "/api/contact", contact.ServeHTTP)
	}

	handle(http.MethodGet, "/health", healthHandler(deps.Health))
	handle(http.MethodGet, "/metrics", metrics.Handler().ServeHTTP)

	if deps.Auth != nil && deps.Review != nil {
		admin := NewAdminHandler(deps.Auth, deps.Review, mux.Vars)
		handle(http.MethodPost, "/api/v1/auth/login", admin.Login)
		handle(http.MethodGet, "/api/v1/submissions", RequireStaff(deps.Auth, admin.ListSubmissions))
		handle(http.MethodPatch, "/api/v1/submissions/{id}", RequireStaff(deps.Auth, admin.UpdateSubmission))
	}

	var h http.Handler = mux
	h = metrics.PrometheusMiddleware(h, routes.label)
	h = requestLogging(h)
	h = middleware.PopulateRequestContext()(h)
	h = middleware.RequestID(
		goamiddleware.UseRequestIDOption(true),
		goamiddleware.RequestIDLimitOption(128),
	)(h)
	h = cors(h, &cfg.CORS, cfg.App.Debug)
	h = securityHeaders(h, cfg.App.Debug)
	return recoverer(h)
}

// routeTable maps request paths back to the pattern they were mounted
// under so metric labels stay bounded.
type routeTable struct {
	patterns [][]string
	raw      []string
}

func (t *routeTable) add(pattern string) {
	for _, p := range t.raw {
		if p == pattern {
			return
		}
	}
	t.raw = append(t.raw, pattern)
	t.patterns = append(t.patterns, strings.Split(pattern, "/"))
}

// label returns the matching pattern or metrics.UnmatchedEndpoint.
func (t *routeTable) label(r *http.Request) string {
	segs := strings.Split(r.URL.Path, "/")
	for i, p := range t.patterns {
		if matchSegments(p, segs) {
			return t.raw[i]
		}
	}
	return metrics.UnmatchedEndpoint
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return true
}
