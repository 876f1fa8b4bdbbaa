package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
	"github.com/hilmarvdveen/hilmar-cv/internal/seo"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	metrics     http.Handler
	assets      http.Handler
	site        *seo.Generator

	pages        RouteRegistrar
	pagePrefixes []string
	booking      RouteRegistrar
	contact      RouteRegistrar
	leads        RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	apiPrefix         = "/api"
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware and the site route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Timeout(cfg.timeout))
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}
	if cfg.assets != nil {
		r.Handle("/assets/*", cfg.assets)
	}
	if cfg.site != nil {
		r.Get("/sitemap.xml", sitemapHandler(cfg.site))
		r.Get("/robots.txt", robotsHandler(cfg.site))
	}

	r.Route(apiPrefix, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar, name string) {
			api.Route(path, func(group chi.Router) {
				if registrar != nil {
					registrar(group)
					return
				}
				registerNotImplemented(group, name)
			})
		}
		mount("/booking", cfg.booking, "booking")
		mount("/contact", cfg.contact, "contact")
		mount("/cv-download", cfg.leads, "cv download")
	})

	if cfg.pages != nil {
		cfg.pages(r)
		for _, prefix := range cfg.pagePrefixes {
			r.Route(prefix, func(sub chi.Router) { cfg.pages(sub) })
		}
	}
	return r
}

// WithRequestTimeout bounds every request. Non-positive values keep the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *routerConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithMetricsHandler exposes h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.metrics = h
	}
}

// WithAssets serves static files under /assets/.
func WithAssets(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.assets = h
	}
}

// WithSiteFiles serves /sitemap.xml and /robots.txt from gen.
func WithSiteFiles(gen *seo.Generator) Option {
	return func(cfg *routerConfig) {
		cfg.site = gen
	}
}

// WithPageRoutes registers the page routes at the root and again under every prefix.
func WithPageRoutes(reg RouteRegistrar, prefixes ...string) Option {
	return func(cfg *routerConfig) {
		cfg.pages = reg
		cfg.pagePrefixes = append(cfg.pagePrefixes, prefixes...)
	}
}

// WithBookingRoutes configures the registrar responsible for /api/booking.
func WithBookingRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.booking = reg
	}
}

// WithContactRoutes configures the registrar responsible for /api/contact.
func WithContactRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.contact = reg
	}
}

// WithLeadRoutes configures the registrar responsible for /api/cv-download.
func WithLeadRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.leads = reg
	}
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	r.HandleFunc("/*", handler)
	r.HandleFunc("/", handler)
}

func sitemapHandler(gen *seo.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := gen.Sitemap(gen.SitemapPages())
		if err != nil {
			httpx.WriteError(r.Context(), w, httpx.Internal("sitemap unavailable", err, false))
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write(body)
	}
}

func robotsHandler(gen *seo.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(gen.Robots()))
	}
}
