package seo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
)

// Translator resolves a UI string key for locale.
type Translator func(locale, key string) string

// DegradeHook is called once per degraded stage of a page render.
type DegradeHook func(pageType PageType, stage string, err error)

// Generator produces metadata and structured data from a site profile. It holds no
// mutable state and is safe for concurrent use.
type Generator struct {
	profile   *profile.Profile
	clock     func() time.Time
	translate Translator
	onDegrade DegradeHook
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock overrides the time source used for default page timestamps.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithTranslator sets the translator used for breadcrumb labels.
func WithTranslator(t Translator) Option {
	return func(g *Generator) {
		if t != nil {
			g.translate = t
		}
	}
}

// WithDegradeHook registers a callback for degraded renders, typically a metrics counter.
func WithDegradeHook(hook DegradeHook) Option {
	return func(g *Generator) {
		g.onDegrade = hook
	}
}

// NewGenerator builds a generator for p.
func NewGenerator(p *profile.Profile, opts ...Option) (*Generator, error) {
	if p == nil {
		return nil, errors.New("seo: profile is required")
	}
	g := &Generator{profile: p, clock: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.translate == nil {
		if bundle, err := i18n.Default(); err == nil {
			g.translate = bundle.T
		} else {
			g.translate = func(_, key string) string { return key }
		}
	}
	return g, nil
}

// Profile returns the profile the generator renders.
func (g *Generator) Profile() *profile.Profile { return g.profile }

type pageSchema struct {
	schemaType string
	build      func(*Generator, schemaInput) []Schema
}

// pageSchemas holds the page specific schema of every page type. A zero entry emits nothing.
var pageSchemas = map[PageType]pageSchema{
	Homepage: {"ProfessionalService", (*Generator).professionalService},
	About:    {},
	Services: {"Service", (*Generator).services},
	Projects: {"CollectionPage", (*Generator).collectionPage},
	Contact:  {"ContactPage", (*Generator).contactPage},
	FAQ:      {"FAQPage", (*Generator).faqPage},
	Blog:     {"Blog", (*Generator).blog},
	BlogPost: {"BlogPosting", (*Generator).blogPosting},
	Privacy:  {},
	Booking:  {},
}

func (g *Generator) normalize(cfg PageConfig) PageConfig {
	if !g.profile.SupportsLocale(cfg.Locale) {
		cfg.Locale = g.profile.DefaultLocale
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = "/"
	}
	return cfg
}

// Metadata builds the head metadata of cfg, falling back to a minimal record on failure.
func (g *Generator) Metadata(cfg PageConfig) (out Outcome[Metadata]) {
	cfg = g.normalize(cfg)
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[Metadata]{Value: g.fallbackMetadata(cfg)}
			out.degrade(fmt.Errorf("seo: metadata panicked: %v", r))
		}
	}()
	return Outcome[Metadata]{Value: g.buildMetadata(cfg)}
}

// StructuredData builds the ordered JSON-LD list of cfg. Schemas that fail to build or
// serialize are replaced by a minimal object of the same type.
func (g *Generator) StructuredData(cfg PageConfig, meta Metadata) Outcome[[]Schema] {
	cfg = g.normalize(cfg)
	in := schemaInput{
		cfg:   cfg,
		meta:  meta,
		url:   g.URLFor(cfg.Locale, cfg.Path),
		lang:  i18n.LanguageTag(cfg.Locale),
		today: rfc3339(g.clock()),
	}
	out := Outcome[[]Schema]{Value: make([]Schema, 0, 6)}

	single := func(b func(*Generator, schemaInput) Schema) func(*Generator, schemaInput) []Schema {
		return func(g *Generator, in schemaInput) []Schema { return []Schema{b(g, in)} }
	}
	g.stage(&out, in, "WebSite", g.profile.SiteName, single((*Generator).website))
	g.stage(&out, in, "Organization", g.profile.Business.Name, single((*Generator).organization))
	g.stage(&out, in, "Person", g.profile.Person.Name, single((*Generator).person))
	g.stage(&out, in, "WebPage", meta.Title, single((*Generator).webPage))
	if ps := pageSchemas[cfg.PageType]; ps.build != nil {
		g.stage(&out, in, ps.schemaType, meta.Title, ps.build)
	}
	if len(cfg.Breadcrumbs) > 0 {
		g.stage(&out, in, "BreadcrumbList", meta.Title, single((*Generator).breadcrumbList))
	}
	return out
}

func (g *Generator) stage(out *Outcome[[]Schema], in schemaInput, typ, name string, build func(*Generator, schemaInput) []Schema) {
	defer func() {
		if r := recover(); r != nil {
			out.degrade(fmt.Errorf("seo: %s panicked: %v", typ, r))
			out.Value = append(out.Value, fallbackSchema(typ, name, in.url))
		}
	}()
	for _, s := range build(g, in) {
		if _, err := json.Marshal(s); err != nil {
			out.degrade(fmt.Errorf("seo: %s: %w", typ, err))
			s = fallbackSchema(typ, name, in.url)
		}
		out.Value = append(out.Value, s)
	}
}

// Page renders metadata and structured data of cfg. It never fails; degraded stages are
// logged and reported to the degrade hook.
func (g *Generator) Page(ctx context.Context, cfg PageConfig) PageSEO {
	cfg = g.normalize(cfg)
	meta := g.Metadata(cfg)
	g.report(ctx, cfg.PageType, "metadata", meta.Err())

	data := g.StructuredData(cfg, meta.Value)
	g.report(ctx, cfg.PageType, "structured_data", data.Err())

	structured := JSON(data.Value)
	serializeFailed := structured == ""
	if serializeFailed {
		structured = "[]"
		g.report(ctx, cfg.PageType, "serialize", errors.New("seo: structured data did not serialize"))
	}
	return PageSEO{
		Metadata:       meta.Value,
		JSONLD:         data.Value,
		StructuredData: structured,
		Degraded:       meta.Degraded || data.Degraded || serializeFailed,
	}
}

// Err returns the cause of a degraded outcome, or nil.
func (o Outcome[T]) Err() error {
	if !o.Degraded {
		return nil
	}
	if o.Cause == nil {
		return errors.New("seo: degraded")
	}
	return o.Cause
}

func (g *Generator) report(ctx context.Context, pt PageType, stage string, err error) {
	if err == nil {
		return
	}
	requestctx.Logger(ctx).Warn("seo generation degraded",
		zap.String("pageType", string(pt)),
		zap.String("stage", stage),
		zap.Error(err),
	)
	if g.onDegrade != nil {
		g.onDegrade(pt, stage, err)
	}
}
