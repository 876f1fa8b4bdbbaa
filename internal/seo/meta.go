package seo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
)

const robotsPreview = "max-snippet:-1, max-image-preview:large, max-video-preview:-1"

const (
	professionalSeparator = " | "
	locationSeparator     = " - "
)

// URLFor builds the absolute URL of path in locale. The default locale has no prefix and
// trailing slashes are dropped, so the homepage is the bare base URL.
func (g *Generator) URLFor(locale, path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")
	return g.profile.BaseURL + i18n.PathPrefix(locale, g.profile.DefaultLocale) + path
}

// Alternates maps every locale's hreflang to its URL of path, plus x-default.
func (g *Generator) Alternates(path string) map[string]string {
	out := make(map[string]string, len(g.profile.Locales)+1)
	for _, locale := range g.profile.Locales {
		out[i18n.HrefLang(locale)] = g.URLFor(locale, path)
	}
	out[XDefault] = g.URLFor(g.profile.DefaultLocale, path)
	return out
}

func (g *Generator) title(cfg PageConfig) string {
	rules := g.profile.SEO
	base := strings.TrimSpace(cfg.Title)
	if base == "" {
		base = g.profile.SiteName
	}
	full := base
	if suffix := rules.ProfessionalSuffix[string(cfg.PageType)].Get(cfg.Locale, g.profile.DefaultLocale); suffix != "" {
		full += professionalSeparator + suffix
	}
	if suffix := rules.LocationSuffix.Get(cfg.Locale, g.profile.DefaultLocale); suffix != "" {
		full += locationSeparator + suffix
	}
	if runeLen(full) <= rules.MaxTitleLength {
		return full
	}
	short := base
	if !strings.EqualFold(base, g.profile.SiteName) {
		short = base + professionalSeparator + g.profile.SiteName
	}
	return truncateWords(short, rules.MaxTitleLength)
}

func (g *Generator) description(cfg PageConfig) string {
	limit := g.profile.SEO.MaxDescriptionLength
	base := strings.TrimSpace(cfg.Description)
	if base == "" {
		base = g.profile.Person.Description.Get(cfg.Locale, g.profile.DefaultLocale)
	}
	if extra := g.profile.SEO.ValueProposition[string(cfg.PageType)].Get(cfg.Locale, g.profile.DefaultLocale); extra != "" {
		if combined := base + " " + extra; runeLen(combined) <= limit {
			return combined
		}
	}
	return truncateWords(base, limit)
}

func (g *Generator) keywords(cfg PageConfig) []string {
	rules := g.profile.SEO
	loc, def := cfg.Locale, g.profile.DefaultLocale

	semantic := rules.SemanticKeywords.Get(loc, def)
	semantic = semantic[:min(len(semantic), rules.SemanticKeywordCount)]

	all := make([]string, 0, 32)
	all = append(all, cfg.Keywords...)
	all = append(all, rules.PageKeywords[string(cfg.PageType)].Get(loc, def)...)
	all = append(all, semantic...)
	all = append(all, rules.LocationKeywords.Get(loc, def)...)
	all = append(all, rules.QualificationKeywords...)
	all = append(all, cfg.Tags...)
	return dedupeKeywords(all, rules.MaxKeywords)
}

func robots(noIndex, noFollow bool) string {
	index, follow := "index", "follow"
	if noIndex {
		index = "noindex"
	}
	if noFollow {
		follow = "nofollow"
	}
	return index + ", " + follow + ", " + robotsPreview
}

func ogType(pt PageType) string {
	switch pt {
	case BlogPost:
		return "article"
	case About:
		return "profile"
	default:
		return "website"
	}
}

func rfc3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (g *Generator) buildMetadata(cfg PageConfig) Metadata {
	p := g.profile
	canonical := g.URLFor(cfg.Locale, cfg.Path)
	title := g.title(cfg)
	description := g.description(cfg)

	image := cfg.Image
	if image == "" {
		image = p.SEO.Image.URL
	}
	image = p.Absolute(image)

	var altLocales []string
	for _, l := range p.Locales {
		if l != cfg.Locale {
			altLocales = append(altLocales, i18n.OpenGraphLocale(l))
		}
	}

	og := OpenGraph{
		Type:             ogType(cfg.PageType),
		Title:            title,
		Description:      description,
		URL:              canonical,
		SiteName:         p.SiteName,
		Locale:           i18n.OpenGraphLocale(cfg.Locale),
		AlternateLocales: altLocales,
		Image: OGImage{
			URL:    image,
			Width:  p.SEO.Image.Width,
			Height: p.SEO.Image.Height,
			Alt:    p.SEO.Image.Alt.Get(cfg.Locale, p.DefaultLocale),
		},
	}
	if cfg.PageType == BlogPost {
		og.PublishedTime = rfc3339(cfg.PublishedTime)
		og.ModifiedTime = rfc3339(cfg.LastModified)
		og.Tags = cfg.Tags
	}

	other := map[string]string{
		"author":        p.Person.Name,
		"geo.region":    p.Geo.Region,
		"geo.placename": p.Geo.Placename,
		"geo.position":  formatCoord(p.Geo.Latitude) + ";" + formatCoord(p.Geo.Longitude),
		"ICBM":          formatCoord(p.Geo.Latitude) + ", " + formatCoord(p.Geo.Longitude),
		"DC.title":      title,
		"DC.creator":    p.Person.Name,
		"DC.language":   i18n.LanguageTag(cfg.Locale),
	}
	if cfg.PageType == About {
		other["profile:first_name"] = p.Person.GivenName
		other["profile:last_name"] = p.Person.FamilyName
	}

	return Metadata{
		Title:       title,
		Description: description,
		Keywords:    g.keywords(cfg),
		Canonical:   canonical,
		Alternates:  g.Alternates(cfg.Path),
		Robots:      robots(cfg.NoIndex, cfg.NoFollow),
		OpenGraph:   og,
		Twitter: Twitter{
			Card:        "summary_large_image",
			Site:        p.SEO.TwitterHandle,
			Creator:     p.SEO.TwitterHandle,
			Title:       title,
			Description: description,
			Image:       image,
		},
		Other: other,
	}
}

// fallbackMetadata only uses the page input and plain profile fields.
func (g *Generator) fallbackMetadata(cfg PageConfig) Metadata {
	p := g.profile
	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = p.SiteName
	}
	title = truncateWords(title, p.SEO.MaxTitleLength)
	description := truncateWords(strings.TrimSpace(cfg.Description), p.SEO.MaxDescriptionLength)
	canonical := g.URLFor(cfg.Locale, cfg.Path)
	return Metadata{
		Title:       title,
		Description: description,
		Keywords:    dedupeKeywords(cfg.Keywords, p.SEO.MaxKeywords),
		Canonical:   canonical,
		Alternates:  g.Alternates(cfg.Path),
		Robots:      robots(cfg.NoIndex, cfg.NoFollow),
		OpenGraph:   OpenGraph{Type: "website", Title: title, Description: description, URL: canonical, SiteName: p.SiteName, Locale: i18n.OpenGraphLocale(cfg.Locale)},
		Twitter:     Twitter{Card: "summary", Title: title, Description: description},
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
