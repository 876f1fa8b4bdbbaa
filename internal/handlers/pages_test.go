package handlers

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testSite) page(t *testing.T, target string) *goquery.Document {
	t.Helper()
	rr := s.do(t, http.MethodGet, target, "", nil)
	require.Equal(t, http.StatusOK, rr.Code, "%s: %s", target, rr.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	return doc
}

func jsonLDTypes(t *testing.T, doc *goquery.Document) []string {
	t.Helper()
	var schemas []map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &schemas))
	types := make([]string, 0, len(schemas))
	for _, s := range schemas {
		types = append(types, s["@type"].(string))
	}
	return types
}

func TestHomepageRendersSEOHead(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	doc := site.page(t, "/nl")

	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "nl", lang)
	assert.Equal(t, "Hilmar van der Veen | Web Developer - Amsterdam, Nederland", doc.Find("title").Text())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://www.hilmarvanderveen.nl/nl", canonical)
	assert.Equal(t, []string{"WebSite", "Organization", "Person", "WebPage", "ProfessionalService"}, jsonLDTypes(t, doc))
	switchHref, _ := doc.Find("a.lang-switch").Attr("href")
	assert.Equal(t, "/", switchHref)
}

func TestEnglishIsServedWithoutPrefix(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	doc := site.page(t, "/services")

	lang, _ := doc.Find("html").Attr("lang")
	assert.Equal(t, "en", lang)
	assert.Equal(t, 3, doc.Find("ul.services li").Length())
	assert.Contains(t, doc.Find("ul.services li").First().Find(".price").Text(), "EUR 95 per hour")
	switchHref, _ := doc.Find("a.lang-switch").Attr("href")
	assert.Equal(t, "/nl/services", switchHref)

	rr := site.do(t, http.MethodGet, "/en/services", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFAQPageCarriesFAQSchema(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	doc := site.page(t, "/nl/faq")

	assert.Equal(t, 3, doc.Find("dl.faq dt").Length())
	assert.Contains(t, jsonLDTypes(t, doc), "FAQPage")
	assert.Equal(t, 2, doc.Find(".breadcrumbs li").Length())
	crumb, _ := doc.Find(".breadcrumbs a").First().Attr("href")
	assert.Equal(t, "/nl", crumb)
}

func TestBlogPostPage(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	doc := site.page(t, "/blog/nextjs-core-web-vitals")

	assert.Equal(t, "Improving Core Web Vitals in Next.js", doc.Find("main h1").Text())
	ogType, _ := doc.Find(`meta[property="og:type"]`).Attr("content")
	assert.Equal(t, "article", ogType)
	assert.Contains(t, jsonLDTypes(t, doc), "BlogPosting")

	rr := site.do(t, http.MethodGet, "/nl/blog/unknown-post", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "page_not_found", decodeBody(t, rr)["error"])
}

func TestEveryPageRenders(t *testing.T) {
	site := newTestSite(t, siteOptions{})
	for _, path := range []string{"/", "/about", "/services", "/projects", "/contact", "/faq", "/blog", "/privacy", "/booking"} {
		for _, prefix := range []string{"", "/nl"} {
			target := prefix + path
			if prefix != "" && path == "/" {
				target = prefix
			}
			doc := site.page(t, target)
			assert.Equal(t, 1, doc.Find(`script[type="application/ld+json"]`).Length(), target)
			assert.Equal(t, 3, doc.Find(`link[rel="alternate"]`).Length(), target)
		}
	}
}

func TestSitemapAndRobots(t *testing.T) {
	site := newTestSite(t, siteOptions{})

	rr := site.do(t, http.MethodGet, "/sitemap.xml", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rr.Header().Get("Content-Type"))
	var parsed struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(rr.Body.Bytes(), &parsed))
	assert.NotEmpty(t, parsed.URLs)

	rr = site.do(t, http.MethodGet, "/robots.txt", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Sitemap: https://www.hilmarvanderveen.nl/sitemap.xml")
}
