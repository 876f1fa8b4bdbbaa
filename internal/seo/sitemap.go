package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// SitemapPage is one locale-independent page listed in the sitemap.
type SitemapPage struct {
	Path         string
	LastModified time.Time
	ChangeFreq   string
	Priority     float64
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	Xhtml   string       `xml:"xmlns:xhtml,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string         `xml:"loc"`
	LastMod    string         `xml:"lastmod,omitempty"`
	ChangeFreq string         `xml:"changefreq,omitempty"`
	Priority   string         `xml:"priority,omitempty"`
	Links      []sitemapXLink `xml:"xhtml:link"`
}

type sitemapXLink struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// SitemapPages lists every indexable page of the profile, blog posts included.
func (g *Generator) SitemapPages() []SitemapPage {
	p := g.profile
	out := make([]SitemapPage, 0, len(PageTypes)+len(p.Posts))
	for _, pt := range PageTypes {
		if pt == BlogPost {
			continue
		}
		cfg := g.base(pt, p.DefaultLocale)
		if cfg.NoIndex {
			continue
		}
		page := SitemapPage{Path: cfg.Path, ChangeFreq: "monthly", Priority: 0.7}
		switch pt {
		case Homepage:
			page.ChangeFreq, page.Priority = "weekly", 1.0
		case Blog:
			page.ChangeFreq, page.Priority = "weekly", 0.8
		}
		out = append(out, page)
	}
	for _, post := range p.Posts {
		out = append(out, SitemapPage{
			Path:         "/blog/" + post.Slug,
			LastModified: post.ModifiedAt(),
			ChangeFreq:   "yearly",
			Priority:     0.6,
		})
	}
	return out
}

// Sitemap renders one url entry per page and locale, each carrying the hreflang
// alternates of its page.
func (g *Generator) Sitemap(pages []SitemapPage) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		Xhtml: "http://www.w3.org/1999/xhtml",
	}
	for _, page := range pages {
		var links []sitemapXLink
		for _, l := range (Metadata{Alternates: g.Alternates(page.Path)}).AlternateLinks() {
			links = append(links, sitemapXLink{Rel: "alternate", HrefLang: l.HrefLang, Href: l.Href})
		}
		var lastMod, priority string
		if !page.LastModified.IsZero() {
			lastMod = page.LastModified.UTC().Format(time.DateOnly)
		}
		if page.Priority > 0 {
			priority = strings.TrimRight(strings.TrimRight(formatPrice(page.Priority), "0"), ".")
		}
		for _, locale := range g.profile.Locales {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        g.URLFor(locale, page.Path),
				LastMod:    lastMod,
				ChangeFreq: page.ChangeFreq,
				Priority:   priority,
				Links:      links,
			})
		}
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// Robots renders robots.txt pointing at the sitemap.
func (g *Generator) Robots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\nSitemap: " + g.profile.BaseURL + "/sitemap.xml\n")
	return b.String()
}
