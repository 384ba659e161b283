// Package handler provides the gateway's upstream routing: a static
// table of path prefixes, each reverse-proxied to one upstream service.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/otterscale/otterscale-gateway/internal/config"
	"github.com/otterscale/otterscale-gateway/internal/core"
	"github.com/otterscale/otterscale-gateway/internal/identity"
)

// Route maps a path prefix to an upstream base URL.
type Route struct {
	Prefix   string
	Upstream *url.URL
}

// ParseRoutes parses "prefix=url" entries. Prefixes are normalised to
// a leading and trailing "/" so they match a whole subtree.
func ParseRoutes(entries []string) ([]Route, error) {
	routes := make([]Route, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		prefix, rawURL, ok := strings.Cut(entry, "=")
		prefix, rawURL = strings.TrimSpace(prefix), strings.TrimSpace(rawURL)
		if !ok || prefix == "" || rawURL == "" {
			return nil, &core.ErrInvalidInput{Field: "route", Message: fmt.Sprintf("%q is not in prefix=url form", entry)}
		}

		upstream, err := url.Parse(rawURL)
		if err != nil || upstream.Scheme == "" || upstream.Host == "" {
			return nil, &core.ErrInvalidInput{Field: "route", Message: fmt.Sprintf("%q has no absolute upstream url", entry)}
		}

		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		if _, dup := seen[prefix]; dup {
			return nil, &core.ErrInvalidInput{Field: "route", Message: fmt.Sprintf("duplicate prefix %q", prefix)}
		}
		seen[prefix] = struct{}{}

		routes = append(routes, Route{Prefix: prefix, Upstream: upstream})
	}

	return routes, nil
}

// Proxy forwards matched requests to their upstream. Headers set by
// earlier middleware, X-User-ID included, travel with the request.
type Proxy struct {
	routes []Route
	log    *slog.Logger
}

// NewProxy builds a Proxy from the configured routes.
func NewProxy(conf *config.Config) (*Proxy, error) {
	routes, err := ParseRoutes(conf.GatewayRoutes())
	if err != nil {
		return nil, err
	}
	return NewProxyFromRoutes(routes)
}

// NewProxyFromRoutes builds a Proxy from already parsed routes.
func NewProxyFromRoutes(routes []Route) (*Proxy, error) {
	for _, route := range routes {
		if route.Upstream == nil {
			return nil, &core.ErrInvalidInput{Field: "route", Message: fmt.Sprintf("prefix %q has no upstream", route.Prefix)}
		}
	}
	return &Proxy{
		routes: routes,
		log:    slog.Default().With("component", "proxy"),
	}, nil
}

// Mount registers one handler per route.
func (p *Proxy) Mount(mux *http.ServeMux) error {
	if len(p.routes) == 0 {
		p.log.Warn("no upstream routes configured; only operational endpoints are served")
	}
	for _, route := range p.routes {
		mux.Handle(route.Prefix, p.forward(route))
		p.log.Info("route mounted", "prefix", route.Prefix, "upstream", route.Upstream.String())
	}
	return nil
}

func (p *Proxy) forward(route Route) http.Handler {
	upstream := route.Upstream.String()
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(route.Upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.log.Warn("upstream request failed", "upstream", upstream, "path", r.URL.Path, "error", err)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := identity.ExternalID(r.Context())
		info, _ := identity.GetUserInfo(r.Context())
		p.log.Debug("forwarding",
			"method", r.Method,
			"path", r.URL.Path,
			"upstream", upstream,
			"external_id", user,
			"subject", info.Subject,
		)
		rp.ServeHTTP(w, r)
	})
}
