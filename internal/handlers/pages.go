package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/nav"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/httpx"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
	"github.com/hilmarvdveen/hilmar-cv/internal/seo"
	"github.com/hilmarvdveen/hilmar-cv/internal/view"
)

// PageHandlers renders the site pages through the shared layout.
type PageHandlers struct {
	gen     *seo.Generator
	profile *profile.Profile
	view    *view.Renderer
	bundle  *i18n.Bundle
	clock   func() time.Time
}

// NewPageHandlers constructs the page handlers.
func NewPageHandlers(gen *seo.Generator, renderer *view.Renderer, bundle *i18n.Bundle) *PageHandlers {
	return &PageHandlers{
		gen:     gen,
		profile: gen.Profile(),
		view:    renderer,
		bundle:  bundle,
		clock:   time.Now,
	}
}

// Routes registers every page. It is mounted once per locale prefix.
func (h *PageHandlers) Routes(r chi.Router) {
	for _, pt := range seo.PageTypes {
		if pt == seo.BlogPost {
			continue
		}
		path := h.profile.Pages[string(pt)].Path
		if path == "" {
			path = "/" + string(pt)
		}
		r.Get(path, func(w http.ResponseWriter, req *http.Request) {
			h.render(w, req, pt, path, "")
		})
	}
	r.Get("/blog/{slug}", func(w http.ResponseWriter, req *http.Request) {
		slug := chi.URLParam(req, "slug")
		h.render(w, req, seo.BlogPost, "/blog/"+slug, slug)
	})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, pt seo.PageType, path, slug string) {
	ctx := r.Context()
	locale := requestctx.Locale(ctx)
	if !h.profile.SupportsLocale(locale) {
		locale = h.profile.DefaultLocale
	}

	page, err := h.gen.For(ctx, pt, locale, slug)
	if errors.Is(err, seo.ErrUnknownPage) {
		httpx.WriteError(ctx, w, httpx.NewError("page_not_found", fmt.Sprintf("no page at %s", r.URL.Path), http.StatusNotFound))
		return
	}

	head, err := seo.RenderHead(page)
	if err != nil {
		requestctx.Logger(ctx).Warn("seo head render failed", zap.String("pageType", string(pt)), zap.Error(err))
		head = template.HTML("<title>" + template.HTMLEscapeString(h.profile.SiteName) + "</title>")
	}

	data := h.viewData(pt, locale, path, slug)
	data.Head = head

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.Render(w, data); err != nil {
		requestctx.Logger(ctx).Error("page render failed", zap.String("page", string(pt)), zap.Error(err))
		httpx.WriteError(ctx, w, httpx.Internal("page could not be rendered", err, false))
	}
}

// localHref joins a locale prefix with a locale-free path.
func localHref(prefix, path string) string {
	if path == "/" || path == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + path
}

func (h *PageHandlers) viewData(pt seo.PageType, locale, path, slug string) view.PageData {
	p := h.profile
	def := p.DefaultLocale
	prefix := i18n.PathPrefix(locale, def)
	t := func(key string) string { return h.bundle.T(locale, key) }

	data := view.PageData{
		Lang:     locale,
		Page:     string(pt),
		T:        t,
		SiteName: p.SiteName,
		HomeHref: localHref(prefix, "/"),
		Nav:      nav.Build(path, prefix),
		Copyright: h.bundle.Tf(locale, "layout.copyright", map[string]string{
			"year": strconv.Itoa(h.clock().Year()),
			"name": p.Person.Name,
		}),
	}
	for _, it := range nav.Secondary {
		data.Footer = append(data.Footer, nav.RenderedItem{Href: prefix + it.Path, LabelKey: it.LabelKey})
	}

	leaf := ""
	if pt == seo.BlogPost {
		if post, ok := p.Post(slug); ok {
			pc := postCopy(post, locale, def)
			leaf = pc.Title
			data.Heading, data.Intro = pc.Title, ""
			data.Post = &view.Post{Title: pc.Title, Date: post.PublishedAt().Format(time.DateOnly), Description: pc.Description}
		}
	} else {
		page := p.Pages[string(pt)]
		pc, ok := page.Copy[locale]
		if !ok {
			pc = page.Copy[def]
		}
		data.Heading, data.Intro = pc.Title, pc.Description
	}
	for _, c := range nav.Breadcrumbs(path, leaf) {
		data.Breadcrumbs = append(data.Breadcrumbs, view.Crumb{Href: localHref(prefix, c.Href), Name: c.Name(t), Active: c.Active})
	}

	for _, l := range p.Locales {
		if l != locale {
			data.SwitchLang = l
			data.SwitchHref = localHref(i18n.PathPrefix(l, def), path)
			break
		}
	}

	switch pt {
	case seo.Services:
		for _, svc := range p.Services {
			data.Services = append(data.Services, view.Service{
				ID:          svc.ID,
				Name:        svc.Name.Get(locale, def),
				Description: svc.Description.Get(locale, def),
				Price:       fmt.Sprintf("%s %.0f %s", svc.Currency, svc.Price, t("services.unit."+svc.Unit)),
			})
		}
	case seo.FAQ:
		for _, item := range h.gen.FAQItems(locale) {
			data.FAQ = append(data.FAQ, view.Question{Question: item.Question, Answer: item.Answer})
		}
	case seo.Blog:
		for _, post := range p.Posts {
			pc := postCopy(post, locale, def)
			data.Posts = append(data.Posts, view.Post{
				Href:  localHref(prefix, "/blog/"+post.Slug),
				Title: pc.Title,
				Date:  post.PublishedAt().Format(time.DateOnly),
			})
		}
	}
	return data
}

func postCopy(post profile.Post, locale, def string) profile.PageCopy {
	if pc, ok := post.Copy[locale]; ok {
		return pc
	}
	return post.Copy[def]
}
