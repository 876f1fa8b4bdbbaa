package seo

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	p, err := profile.Default()
	require.NoError(t, err)
	g, err := NewGenerator(p, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
	require.NoError(t, err)
	return g
}

func everyPage(t *testing.T, g *Generator, fn func(pt PageType, locale string, page PageSEO)) {
	t.Helper()
	slug := g.Profile().Posts[0].Slug
	for _, pt := range PageTypes {
		for _, locale := range g.Profile().Locales {
			page, err := g.For(context.Background(), pt, locale, slug)
			require.NoError(t, err, "%s/%s", pt, locale)
			fn(pt, locale, page)
		}
	}
}

func schemaTypes(schemas []Schema) []string {
	out := make([]string, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, s.Type())
	}
	return out
}

func TestHomepageDutch(t *testing.T) {
	g := newTestGenerator(t)

	page := g.Homepage(context.Background(), "nl")

	assert.Equal(t, "Hilmar van der Veen | Web Developer - Amsterdam, Nederland", page.Metadata.Title)
	assert.Equal(t, page.Metadata.Title, page.Metadata.OpenGraph.Title)
	assert.Equal(t, []string{"WebSite", "Organization", "Person", "WebPage", "ProfessionalService"}, schemaTypes(page.JSONLD))
	assert.Equal(t, "https://www.hilmarvanderveen.nl/nl", page.Metadata.Canonical)
	assert.Equal(t, "nl_NL", page.Metadata.OpenGraph.Locale)
	assert.Equal(t, []string{"en_US"}, page.Metadata.OpenGraph.AlternateLocales)
	assert.False(t, page.Degraded)
	assert.Equal(t, JSON(page.JSONLD), page.StructuredData)
}

func TestCanonicalMatchesAlternateEverywhere(t *testing.T) {
	g := newTestGenerator(t)
	everyPage(t, g, func(pt PageType, locale string, page PageSEO) {
		meta := page.Metadata
		assert.Equal(t, meta.Canonical, meta.Alternates[i18n.HrefLang(locale)], "%s/%s", pt, locale)
		assert.Len(t, meta.Alternates, len(g.Profile().Locales)+1, "%s/%s", pt, locale)
		assert.Equal(t, meta.Alternates["en"], meta.Alternates[XDefault], "%s/%s", pt, locale)
		assert.False(t, strings.HasSuffix(meta.Canonical, "/"), meta.Canonical)
		assert.Equal(t, meta.Canonical, meta.OpenGraph.URL)
	})
}

func TestTitleAndDescriptionLimits(t *testing.T) {
	g := newTestGenerator(t)
	everyPage(t, g, func(pt PageType, locale string, page PageSEO) {
		assert.LessOrEqual(t, utf8.RuneCountInString(page.Metadata.Title), 60, "%s/%s: %q", pt, locale, page.Metadata.Title)
		assert.LessOrEqual(t, utf8.RuneCountInString(page.Metadata.Description), 160, "%s/%s", pt, locale)
		assert.LessOrEqual(t, len(page.Metadata.Keywords), 25)
		assert.False(t, page.Degraded, "%s/%s", pt, locale)
	})
}

var gluedSeparator = regexp.MustCompile(`\S\||\|\S|\S- |\S -\S`)

func TestTitleSeparatorsAreSpaced(t *testing.T) {
	g := newTestGenerator(t)
	everyPage(t, g, func(pt PageType, locale string, page PageSEO) {
		title := page.Metadata.Title
		assert.False(t, gluedSeparator.MatchString(title), "%s/%s: %q", pt, locale, title)
		if strings.Contains(title, "Amsterdam, ") {
			assert.Contains(t, title, " - Amsterdam, ", "%s/%s", pt, locale)
		}
	})
}

func TestTitleOverLimitAfterSuffixesUsesShortForm(t *testing.T) {
	g := newTestGenerator(t)

	// "About Hilmar van der Veen | Developer - Amsterdam, Netherlands" is 62 runes.
	page, err := g.For(context.Background(), About, "en", "")
	require.NoError(t, err)
	assert.Equal(t, "About Hilmar van der Veen | Hilmar van der Veen", page.Metadata.Title)

	page, err = g.For(context.Background(), Homepage, "en", "")
	require.NoError(t, err)
	assert.Equal(t, "Hilmar van der Veen | Web Developer - Amsterdam, Netherlands", page.Metadata.Title)
}

func TestTitleFallsBackToShortForm(t *testing.T) {
	g := newTestGenerator(t)

	meta := g.Metadata(PageConfig{PageType: FAQ, Locale: "nl", Title: "Veelgestelde vragen", Path: "/faq"}).Value
	assert.Equal(t, "Veelgestelde vragen | Hilmar van der Veen", meta.Title)

	long := strings.Repeat("Performance ", 8)
	meta = g.Metadata(PageConfig{PageType: Blog, Locale: "en", Title: long, Path: "/blog"}).Value
	assert.LessOrEqual(t, utf8.RuneCountInString(meta.Title), 60)
	assert.True(t, strings.HasSuffix(meta.Title, "…"), meta.Title)
}

func TestDescriptionEnrichment(t *testing.T) {
	g := newTestGenerator(t)

	meta := g.Metadata(PageConfig{PageType: Contact, Locale: "en", Description: "Say hello.", Path: "/contact"}).Value
	assert.Equal(t, "Say hello. Reply within one business day.", meta.Description)

	long := strings.Repeat("word ", 40)
	meta = g.Metadata(PageConfig{PageType: Contact, Locale: "en", Description: long, Path: "/contact"}).Value
	assert.LessOrEqual(t, utf8.RuneCountInString(meta.Description), 160)
	assert.NotContains(t, meta.Description, "Reply within")
}

func TestKeywordsDeduplicated(t *testing.T) {
	g := newTestGenerator(t)

	meta := g.Metadata(PageConfig{
		PageType: Homepage,
		Locale:   "en",
		Keywords: []string{"React", "Freelance Developer", " react "},
	}).Value

	assert.Equal(t, "React", meta.Keywords[0])
	assert.Equal(t, "Freelance Developer", meta.Keywords[1])
	seen := map[string]bool{}
	for _, kw := range meta.Keywords {
		key := strings.ToLower(kw)
		assert.False(t, seen[key], "duplicate keyword %q", kw)
		seen[key] = true
	}
}

func TestRobotsDirective(t *testing.T) {
	g := newTestGenerator(t)
	privacy := g.Privacy(context.Background(), "en")
	assert.Equal(t, "noindex, follow, max-snippet:-1, max-image-preview:large, max-video-preview:-1", privacy.Metadata.Robots)
	home := g.Homepage(context.Background(), "en")
	assert.True(t, strings.HasPrefix(home.Metadata.Robots, "index, follow"))
}

func TestFAQPageOnlyWithItems(t *testing.T) {
	g := newTestGenerator(t)
	ctx := context.Background()

	items := []FAQItem{{Question: "Q1", Answer: "A1"}, {Question: "Q2", Answer: "A2"}, {Question: "Q3", Answer: "A3"}}
	page := g.FAQ(ctx, "en", items)
	require.Contains(t, schemaTypes(page.JSONLD), "FAQPage")

	var faq Schema
	for _, s := range page.JSONLD {
		if s.Type() == "FAQPage" {
			faq = s
		}
	}
	entities, ok := faq["mainEntity"].([]Schema)
	require.True(t, ok)
	require.Len(t, entities, len(items))
	for i, e := range entities {
		assert.Equal(t, items[i].Question, e["name"])
	}

	empty := g.FAQ(ctx, "en", nil)
	assert.NotContains(t, schemaTypes(empty.JSONLD), "FAQPage")

	cfg := g.base(Contact, "en")
	cfg.FAQItems = items
	contact := g.Page(ctx, cfg)
	assert.NotContains(t, schemaTypes(contact.JSONLD), "FAQPage")
}

func TestPageSpecificSchemas(t *testing.T) {
	g := newTestGenerator(t)
	ctx := context.Background()

	services := g.Services(ctx, "en")
	types := schemaTypes(services.JSONLD)
	assert.Equal(t, []string{"WebSite", "Organization", "Person", "WebPage", "Service", "Service", "Service", "BreadcrumbList"}, types)

	about := g.About(ctx, "nl")
	assert.Equal(t, []string{"WebSite", "Organization", "Person", "WebPage", "BreadcrumbList"}, schemaTypes(about.JSONLD))
	assert.Equal(t, "profile", about.Metadata.OpenGraph.Type)

	post, ok := g.Profile().Post("nextjs-core-web-vitals")
	require.True(t, ok)
	article := g.BlogPost(ctx, "en", post)
	assert.Contains(t, schemaTypes(article.JSONLD), "BlogPosting")
	assert.Equal(t, "article", article.Metadata.OpenGraph.Type)
	assert.Equal(t, "2024-09-12T00:00:00Z", article.Metadata.OpenGraph.PublishedTime)
	assert.Equal(t, "https://www.hilmarvanderveen.nl/blog/nextjs-core-web-vitals", article.Metadata.Canonical)
}

func TestBreadcrumbPositionsPreserved(t *testing.T) {
	g := newTestGenerator(t)

	page := g.Contact(context.Background(), "nl")
	last := page.JSONLD[len(page.JSONLD)-1]
	require.Equal(t, "BreadcrumbList", last.Type())

	items := last["itemListElement"].([]Schema)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0]["position"])
	assert.Equal(t, "https://www.hilmarvanderveen.nl/nl", items[0]["item"])
	assert.Equal(t, 2, items[1]["position"])
	assert.Equal(t, "https://www.hilmarvanderveen.nl/nl/contact", items[1]["item"])
}

func TestWebPageTimestampsDefaultToClock(t *testing.T) {
	g := newTestGenerator(t)

	page := g.Projects(context.Background(), "en")
	webPage := page.JSONLD[3]
	require.Equal(t, "WebPage", webPage.Type())
	assert.Equal(t, "2025-06-01T08:00:00Z", webPage["datePublished"])
	assert.Equal(t, "2025-06-01T08:00:00Z", webPage["dateModified"])
}

func TestOutputIsDeterministic(t *testing.T) {
	g := newTestGenerator(t)
	everyPage(t, g, func(pt PageType, locale string, page PageSEO) {
		again, err := g.For(context.Background(), pt, locale, g.Profile().Posts[0].Slug)
		require.NoError(t, err)
		assert.Equal(t, page.StructuredData, again.StructuredData, "%s/%s", pt, locale)
		assert.Equal(t, page.Metadata, again.Metadata, "%s/%s", pt, locale)
	})
}

func TestDispatchTableCoversEveryPageType(t *testing.T) {
	for _, pt := range PageTypes {
		_, ok := pageSchemas[pt]
		assert.True(t, ok, "missing dispatch entry for %s", pt)
	}
	assert.Len(t, pageSchemas, len(PageTypes))
}

func TestUnserializableSchemaFallsBack(t *testing.T) {
	p, err := profile.Default()
	require.NoError(t, err)
	broken := *p
	broken.Geo.Latitude = math.NaN()

	var stages []string
	g, err := NewGenerator(&broken,
		WithClock(func() time.Time { return fixedNow }),
		WithDegradeHook(func(_ PageType, stage string, _ error) { stages = append(stages, stage) }),
	)
	require.NoError(t, err)

	page := g.Homepage(context.Background(), "en")

	assert.True(t, page.Degraded)
	assert.Equal(t, []string{"structured_data"}, stages)
	require.Len(t, page.JSONLD, 5)
	fallback := page.JSONLD[4]
	assert.Equal(t, Schema{
		"@context": "https://schema.org",
		"@type":    "ProfessionalService",
		"name":     page.Metadata.Title,
		"url":      "https://www.hilmarvanderveen.nl",
	}, fallback)
	assert.NotEmpty(t, page.StructuredData)
}

func TestPanickingBuilderDegrades(t *testing.T) {
	original := pageSchemas[Projects]
	pageSchemas[Projects] = pageSchema{"CollectionPage", func(*Generator, schemaInput) []Schema {
		panic("boom")
	}}
	t.Cleanup(func() { pageSchemas[Projects] = original })

	var causes []error
	g := newTestGenerator(t, WithDegradeHook(func(_ PageType, _ string, err error) { causes = append(causes, err) }))

	page := g.Projects(context.Background(), "en")

	assert.True(t, page.Degraded)
	assert.Equal(t, []string{"WebSite", "Organization", "Person", "WebPage", "CollectionPage", "BreadcrumbList"}, schemaTypes(page.JSONLD))
	require.Len(t, causes, 1)
	assert.Contains(t, causes[0].Error(), "boom")
}

func TestUnknownPage(t *testing.T) {
	g := newTestGenerator(t)
	_, err := g.For(context.Background(), BlogPost, "en", "missing")
	assert.True(t, errors.Is(err, ErrUnknownPage))
	_, err = g.For(context.Background(), PageType("careers"), "en", "")
	assert.True(t, errors.Is(err, ErrUnknownPage))
}

func TestUnsupportedLocaleUsesDefault(t *testing.T) {
	g := newTestGenerator(t)
	page := g.Homepage(context.Background(), "de")
	assert.Equal(t, "https://www.hilmarvanderveen.nl", page.Metadata.Canonical)
	assert.Equal(t, "en_US", page.Metadata.OpenGraph.Locale)
}

func TestTruncateWords(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"the quick brown fox", 12, "the quick…"},
		{"abcdefghij", 5, "abcd…"},
	}
	for _, tc := range cases {
		got := truncateWords(tc.in, tc.limit)
		if got != tc.want {
			t.Fatalf("truncateWords(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
		if utf8.RuneCountInString(got) > tc.limit {
			t.Fatalf("truncateWords(%q, %d) exceeds limit", tc.in, tc.limit)
		}
	}
}
