package seo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hilmarvdveen/hilmar-cv/internal/nav"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
)

// ErrUnknownPage is returned by For for an unknown page type or blog slug.
var ErrUnknownPage = errors.New("seo: unknown page")

// base returns the PageConfig of a profile page template in locale.
func (g *Generator) base(pt PageType, locale string) PageConfig {
	p := g.profile
	if !p.SupportsLocale(locale) {
		locale = p.DefaultLocale
	}
	page := p.Pages[string(pt)]
	pc, ok := page.Copy[locale]
	if !ok {
		pc = page.Copy[p.DefaultLocale]
	}
	path := page.Path
	if path == "" {
		path = "/" + string(pt)
	}
	return PageConfig{
		PageType:    pt,
		Locale:      locale,
		Title:       pc.Title,
		Description: pc.Description,
		Keywords:    pc.Keywords,
		Path:        path,
		NoIndex:     page.NoIndex,
	}
}

// Breadcrumbs builds the localized absolute trail of path. leaf names the last crumb.
func (g *Generator) Breadcrumbs(locale, path, leaf string) []Breadcrumb {
	crumbs := nav.Breadcrumbs(path, leaf)
	translate := func(key string) string { return g.translate(locale, key) }
	out := make([]Breadcrumb, 0, len(crumbs))
	for i, c := range crumbs {
		out = append(out, Breadcrumb{
			Name:     c.Name(translate),
			URL:      g.URLFor(locale, c.Href),
			Position: i + 1,
		})
	}
	return out
}

func (g *Generator) section(ctx context.Context, pt PageType, locale string) PageSEO {
	cfg := g.base(pt, locale)
	cfg.Breadcrumbs = g.Breadcrumbs(cfg.Locale, cfg.Path, "")
	return g.Page(ctx, cfg)
}

// Homepage has no breadcrumbs.
func (g *Generator) Homepage(ctx context.Context, locale string) PageSEO {
	return g.Page(ctx, g.base(Homepage, locale))
}

func (g *Generator) About(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, About, locale)
}

func (g *Generator) Services(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Services, locale)
}

func (g *Generator) Projects(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Projects, locale)
}

func (g *Generator) Contact(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Contact, locale)
}

// FAQ emits an FAQPage schema only when items is non-empty.
func (g *Generator) FAQ(ctx context.Context, locale string, items []FAQItem) PageSEO {
	cfg := g.base(FAQ, locale)
	cfg.Breadcrumbs = g.Breadcrumbs(cfg.Locale, cfg.Path, "")
	cfg.FAQItems = items
	return g.Page(ctx, cfg)
}

func (g *Generator) Blog(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Blog, locale)
}

// BlogPost renders an article page for post.
func (g *Generator) BlogPost(ctx context.Context, locale string, post profile.Post) PageSEO {
	cfg := g.base(BlogPost, locale)
	pc, ok := post.Copy[cfg.Locale]
	if !ok {
		pc = post.Copy[g.profile.DefaultLocale]
	}
	cfg.Title = pc.Title
	cfg.Description = pc.Description
	cfg.Keywords = append(append([]string(nil), cfg.Keywords...), pc.Keywords...)
	cfg.Path = "/blog/" + post.Slug
	cfg.Tags = post.Tags
	cfg.PublishedTime = post.PublishedAt()
	cfg.LastModified = post.ModifiedAt()
	cfg.Breadcrumbs = g.Breadcrumbs(cfg.Locale, cfg.Path, pc.Title)
	return g.Page(ctx, cfg)
}

func (g *Generator) Privacy(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Privacy, locale)
}

func (g *Generator) Booking(ctx context.Context, locale string) PageSEO {
	return g.section(ctx, Booking, locale)
}

// FAQItems converts the profile FAQ of locale.
func (g *Generator) FAQItems(locale string) []FAQItem {
	src := g.profile.FAQItems(locale)
	items := make([]FAQItem, 0, len(src))
	for _, f := range src {
		items = append(items, FAQItem{Question: f.Question, Answer: f.Answer})
	}
	return items
}

// For dispatches to the factory of pt. slug is only used for blog posts.
func (g *Generator) For(ctx context.Context, pt PageType, locale, slug string) (PageSEO, error) {
	switch pt {
	case Homepage:
		return g.Homepage(ctx, locale), nil
	case About:
		return g.About(ctx, locale), nil
	case Services:
		return g.Services(ctx, locale), nil
	case Projects:
		return g.Projects(ctx, locale), nil
	case Contact:
		return g.Contact(ctx, locale), nil
	case FAQ:
		return g.FAQ(ctx, locale, g.FAQItems(locale)), nil
	case Blog:
		return g.Blog(ctx, locale), nil
	case BlogPost:
		post, ok := g.profile.Post(slug)
		if !ok {
			return PageSEO{}, fmt.Errorf("%w: blog post %q", ErrUnknownPage, slug)
		}
		return g.BlogPost(ctx, locale, post), nil
	case Privacy:
		return g.Privacy(ctx, locale), nil
	case Booking:
		return g.Booking(ctx, locale), nil
	}
	return PageSEO{}, fmt.Errorf("%w: %q", ErrUnknownPage, pt)
}
