package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var embeddedSite []byte

// Localized maps a locale code to a string.
type Localized map[string]string

// Get returns the value for locale, falling back to the fallback locale.
func (l Localized) Get(locale, fallback string) string {
	if v := strings.TrimSpace(l[locale]); v != "" {
		return v
	}
	if v := strings.TrimSpace(l[fallback]); v != "" {
		return v
	}
	return ""
}

// LocalizedList maps a locale code to an ordered list.
type LocalizedList map[string][]string

// Get returns the list for locale, falling back to the fallback locale.
func (l LocalizedList) Get(locale, fallback string) []string {
	if v, ok := l[locale]; ok && len(v) > 0 {
		return v
	}
	return l[fallback]
}

// Profile is the read-only site configuration shared by every request.
type Profile struct {
	SiteName      string            `yaml:"site_name"`
	BaseURL       string            `yaml:"base_url"`
	DefaultLocale string            `yaml:"default_locale"`
	Locales       []string          `yaml:"locales"`
	Person        Person            `yaml:"person"`
	Business      Business          `yaml:"business"`
	Social        map[string]string `yaml:"social"`
	Geo           Geo               `yaml:"geo"`
	Services      []Offering        `yaml:"services"`
	SEO           SEORules          `yaml:"seo"`
	Pages         map[string]Page   `yaml:"pages"`
	FAQ           map[string][]FAQ  `yaml:"faq"`
	Posts         []Post            `yaml:"posts"`
}

// Person describes the site owner.
type Person struct {
	Name        string    `yaml:"name"`
	GivenName   string    `yaml:"given_name"`
	FamilyName  string    `yaml:"family_name"`
	Email       string    `yaml:"email"`
	Image       string    `yaml:"image"`
	JobTitle    Localized `yaml:"job_title"`
	Description Localized `yaml:"description"`
	KnowsAbout  []string  `yaml:"knows_about"`
	Languages   []string  `yaml:"languages"`
	Alumni      string    `yaml:"alumni"`
}

// Business describes the trading entity behind the site.
type Business struct {
	Name         string   `yaml:"name"`
	LegalName    string   `yaml:"legal_name"`
	Logo         string   `yaml:"logo"`
	Email        string   `yaml:"email"`
	PriceRange   string   `yaml:"price_range"`
	FoundingDate string   `yaml:"founding_date"`
	OpeningHours string   `yaml:"opening_hours"`
	AreaServed   []string `yaml:"area_served"`
	HourlyRate   Price    `yaml:"hourly_rate"`
	Address      Address  `yaml:"address"`
}

// Price is an amount in a currency.
type Price struct {
	Amount   float64 `yaml:"amount"`
	Currency string  `yaml:"currency"`
}

// Address is a postal address.
type Address struct {
	Locality   string `yaml:"locality"`
	Region     string `yaml:"region"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country"`
}

// Geo holds the geo-targeting coordinates.
type Geo struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Region    string  `yaml:"region"`
	Placename string  `yaml:"placename"`
}

// Offering is one service sold through the site.
type Offering struct {
	ID          string    `yaml:"id"`
	Price       float64   `yaml:"price"`
	Currency    string    `yaml:"currency"`
	Unit        string    `yaml:"unit"`
	Name        Localized `yaml:"name"`
	Description Localized `yaml:"description"`
}

// SEORules holds the enrichment rules applied by the metadata generator.
type SEORules struct {
	MaxTitleLength        int                      `yaml:"max_title_length"`
	MaxDescriptionLength  int                      `yaml:"max_description_length"`
	MaxKeywords           int                      `yaml:"max_keywords"`
	SemanticKeywordCount  int                      `yaml:"semantic_keyword_count"`
	TwitterHandle         string                   `yaml:"twitter_handle"`
	Image                 Image                    `yaml:"image"`
	// Suffixes are bare labels; the generator adds the " | " and " - " separators.
	LocationSuffix        Localized                `yaml:"location_suffix"`
	ProfessionalSuffix    map[string]Localized     `yaml:"professional_suffix"`
	ValueProposition      map[string]Localized     `yaml:"value_proposition"`
	PageKeywords          map[string]LocalizedList `yaml:"page_keywords"`
	SemanticKeywords      LocalizedList            `yaml:"semantic_keywords"`
	LocationKeywords      LocalizedList            `yaml:"location_keywords"`
	QualificationKeywords []string                 `yaml:"qualification_keywords"`
}

// Image is a social preview image.
type Image struct {
	URL    string    `yaml:"url"`
	Width  int       `yaml:"width"`
	Height int       `yaml:"height"`
	Alt    Localized `yaml:"alt"`
}

// Page is the base copy for one page type.
type Page struct {
	Path    string              `yaml:"path"`
	NoIndex bool                `yaml:"noindex"`
	Copy    map[string]PageCopy `yaml:",inline"`
}

// PageCopy is the localized title, description and keywords of a page.
type PageCopy struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// FAQ is one question and answer pair.
type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Post is a blog post listed on the site.
type Post struct {
	Slug      string              `yaml:"slug"`
	Published string              `yaml:"published"`
	Modified  string              `yaml:"modified"`
	Tags      []string            `yaml:"tags"`
	Copy      map[string]PageCopy `yaml:",inline"`

	publishedAt time.Time
	modifiedAt  time.Time
}

// PublishedAt returns the parsed publication date.
func (p Post) PublishedAt() time.Time { return p.publishedAt }

// ModifiedAt returns the parsed modification date, or the publication date when unset.
func (p Post) ModifiedAt() time.Time {
	if p.modifiedAt.IsZero() {
		return p.publishedAt
	}
	return p.modifiedAt
}

// Default parses the profile embedded in the binary.
func Default() (*Profile, error) {
	return Parse(embeddedSite)
}

// Load reads a profile from path, or returns the embedded profile when path is empty.
func Load(path string) (*Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML profile document.
func Parse(raw []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// WithBaseURL returns a copy of the profile served from baseURL.
func (p *Profile) WithBaseURL(baseURL string) (*Profile, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return p, nil
	}
	if _, err := parseAbsoluteURL(baseURL); err != nil {
		return nil, err
	}
	cp := *p
	cp.BaseURL = baseURL
	return &cp, nil
}

// SupportsLocale reports whether locale is one of the configured locales.
func (p *Profile) SupportsLocale(locale string) bool {
	for _, l := range p.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// Post looks up a blog post by slug.
func (p *Profile) Post(slug string) (Post, bool) {
	for _, post := range p.Posts {
		if post.Slug == slug {
			return post, true
		}
	}
	return Post{}, false
}

// FAQItems returns the FAQ entries for locale.
func (p *Profile) FAQItems(locale string) []FAQ {
	if items, ok := p.FAQ[locale]; ok && len(items) > 0 {
		return items
	}
	return p.FAQ[p.DefaultLocale]
}

// SameAs lists the social profile URLs in a stable order.
func (p *Profile) SameAs() []string {
	out := make([]string, 0, len(p.Social))
	for _, key := range []string{"linkedin", "github", "twitter", "mastodon"} {
		if v := strings.TrimSpace(p.Social[key]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Absolute resolves a site-relative path against the base URL.
func (p *Profile) Absolute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return p.BaseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.BaseURL + path
}

func (p *Profile) normalize() error {
	var missing []string
	p.SiteName = strings.TrimSpace(p.SiteName)
	if p.SiteName == "" {
		missing = append(missing, "site_name")
	}
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.BaseURL == "" {
		missing = append(missing, "base_url")
	} else if _, err := parseAbsoluteURL(p.BaseURL); err != nil {
		return err
	}
	if len(p.Locales) == 0 {
		missing = append(missing, "locales")
	}
	if p.DefaultLocale == "" && len(p.Locales) > 0 {
		p.DefaultLocale = p.Locales[0]
	}
	if p.Person.Name == "" {
		missing = append(missing, "person.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("profile: missing required fields [%s]", strings.Join(missing, ", "))
	}
	if !p.SupportsLocale(p.DefaultLocale) {
		return fmt.Errorf("profile: default locale %q not in locales %v", p.DefaultLocale, p.Locales)
	}

	if p.SEO.MaxTitleLength <= 0 {
		p.SEO.MaxTitleLength = 60
	}
	if p.SEO.MaxDescriptionLength <= 0 {
		p.SEO.MaxDescriptionLength = 160
	}
	if p.SEO.MaxKeywords <= 0 {
		p.SEO.MaxKeywords = 25
	}
	if p.SEO.SemanticKeywordCount < 0 {
		p.SEO.SemanticKeywordCount = 0
	}

	for i := range p.Posts {
		post := &p.Posts[i]
		if post.Slug == "" {
			return fmt.Errorf("profile: posts[%d] has no slug", i)
		}
		published, err := time.Parse(time.DateOnly, post.Published)
		if err != nil {
			return fmt.Errorf("profile: post %s published date: %w", post.Slug, err)
		}
		post.publishedAt = published.UTC()
		if post.Modified != "" {
			modified, err := time.Parse(time.DateOnly, post.Modified)
			if err != nil {
				return fmt.Errorf("profile: post %s modified date: %w", post.Slug, err)
			}
			post.modifiedAt = modified.UTC()
		}
	}
	return nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("profile: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("profile: base url must be absolute")
	}
	return u, nil
}
