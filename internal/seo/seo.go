// Package seo builds page metadata and schema.org structured data for the site.
package seo

import (
	"sort"
	"time"
)

// PageType identifies which enrichment rules and page schema apply.
type PageType string

const (
	Homepage PageType = "homepage"
	About    PageType = "about"
	Services PageType = "services"
	Projects PageType = "projects"
	Contact  PageType = "contact"
	FAQ      PageType = "faq"
	Blog     PageType = "blog"
	BlogPost PageType = "blog-post"
	Privacy  PageType = "privacy"
	Booking  PageType = "booking"
)

// PageTypes lists every page type in sitemap order.
var PageTypes = []PageType{Homepage, About, Services, Projects, Contact, FAQ, Blog, BlogPost, Privacy, Booking}

// ParsePageType maps a raw name onto a PageType.
func ParsePageType(raw string) (PageType, bool) {
	for _, pt := range PageTypes {
		if string(pt) == raw {
			return pt, true
		}
	}
	return "", false
}

// Breadcrumb is one trail entry. Position is 1-based.
type Breadcrumb struct {
	Name     string
	URL      string
	Position int
}

// FAQItem is one question and answer pair.
type FAQItem struct {
	Question string
	Answer   string
}

// PageConfig is the input of the generator for one page render.
type PageConfig struct {
	PageType      PageType
	Locale        string
	Title         string
	Description   string
	Keywords      []string
	Path          string
	NoIndex       bool
	NoFollow      bool
	Image         string
	Tags          []string
	Breadcrumbs   []Breadcrumb
	FAQItems      []FAQItem
	PublishedTime time.Time
	LastModified  time.Time
}

// OpenGraph holds the og:* properties.
type OpenGraph struct {
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	URL              string   `json:"url"`
	SiteName         string   `json:"siteName"`
	Locale           string   `json:"locale"`
	AlternateLocales []string `json:"alternateLocales,omitempty"`
	Image            OGImage  `json:"image"`
	PublishedTime    string   `json:"publishedTime,omitempty"`
	ModifiedTime     string   `json:"modifiedTime,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// OGImage is the social preview image.
type OGImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

// Twitter holds the twitter:* card properties.
type Twitter struct {
	Card        string `json:"card"`
	Site        string `json:"site,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// Metadata is the normalized head metadata of a page.
type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Keywords    []string          `json:"keywords"`
	Canonical   string            `json:"canonical"`
	Alternates  map[string]string `json:"alternates"`
	Robots      string            `json:"robots"`
	OpenGraph   OpenGraph         `json:"openGraph"`
	Twitter     Twitter           `json:"twitter"`
	Other       map[string]string `json:"other,omitempty"`
}

// Link is an hreflang alternate.
type Link struct {
	HrefLang string
	Href     string
}

// AlternateLinks returns the alternates sorted by hreflang with x-default last.
func (m Metadata) AlternateLinks() []Link {
	links := make([]Link, 0, len(m.Alternates))
	for lang, href := range m.Alternates {
		if lang == XDefault {
			continue
		}
		links = append(links, Link{HrefLang: lang, Href: href})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].HrefLang < links[j].HrefLang })
	if href, ok := m.Alternates[XDefault]; ok {
		links = append(links, Link{HrefLang: XDefault, Href: href})
	}
	return links
}

// MetaTag is a name/content pair of the extended meta map.
type MetaTag struct {
	Name    string
	Content string
}

// OtherTags returns the extended meta map sorted by name.
func (m Metadata) OtherTags() []MetaTag {
	tags := make([]MetaTag, 0, len(m.Other))
	for name, content := range m.Other {
		tags = append(tags, MetaTag{Name: name, Content: content})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags
}

// XDefault is the hreflang of the fallback alternate.
const XDefault = "x-default"

// PageSEO is what a page handler hands to the layout.
type PageSEO struct {
	Metadata       Metadata `json:"metadata"`
	JSONLD         []Schema `json:"jsonLd"`
	StructuredData string   `json:"structuredData"`
	Degraded       bool     `json:"-"`
}

// Outcome carries a generated value together with whether it had to fall back.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Cause    error
}

func (o *Outcome[T]) degrade(err error) {
	o.Degraded = true
	if o.Cause == nil {
		o.Cause = err
	}
}
