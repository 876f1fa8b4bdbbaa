package seo

import (
	"encoding/json"
	"strings"

	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
)

const schemaContext = "https://schema.org"

// Schema is one schema.org JSON-LD object.
type Schema map[string]any

// Type returns the @type of the schema.
func (s Schema) Type() string {
	t, _ := s["@type"].(string)
	return t
}

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func newSchema(typ string) Schema {
	return Schema{"@context": schemaContext, "@type": typ}
}

func (s Schema) setIf(key, value string) {
	if strings.TrimSpace(value) != "" {
		s[key] = value
	}
}

// schemaInput is what every builder sees for one page.
type schemaInput struct {
	cfg   PageConfig
	meta  Metadata
	url   string
	lang  string
	today string
}

func (g *Generator) id(fragment string) string {
	return g.profile.BaseURL + "/#" + fragment
}

func (g *Generator) website(in schemaInput) Schema {
	p := g.profile
	s := newSchema("WebSite")
	s["@id"] = g.id("website")
	s["name"] = p.SiteName
	s["url"] = g.URLFor(in.cfg.Locale, "/")
	s["inLanguage"] = in.lang
	s["publisher"] = Schema{"@id": g.id("organization")}
	langs := make([]string, 0, len(p.Locales))
	for _, l := range p.Locales {
		langs = append(langs, i18n.LanguageTag(l))
	}
	s["availableLanguage"] = langs
	return s
}

func (g *Generator) organization(in schemaInput) Schema {
	p := g.profile
	s := newSchema("Organization")
	s["@id"] = g.id("organization")
	s["name"] = p.Business.Name
	s.setIf("legalName", p.Business.LegalName)
	s["url"] = p.BaseURL
	if p.Business.Logo != "" {
		s["logo"] = p.Absolute(p.Business.Logo)
	}
	s.setIf("email", p.Business.Email)
	s.setIf("foundingDate", p.Business.FoundingDate)
	s["founder"] = Schema{"@id": g.id("person")}
	s["address"] = g.address()
	if same := p.SameAs(); len(same) > 0 {
		s["sameAs"] = same
	}
	s["contactPoint"] = Schema{
		"@type":             "ContactPoint",
		"contactType":       "customer service",
		"email":             p.Business.Email,
		"availableLanguage": p.Person.Languages,
	}
	return s
}

func (g *Generator) address() Schema {
	a := g.profile.Business.Address
	s := Schema{"@type": "PostalAddress"}
	s.setIf("addressLocality", a.Locality)
	s.setIf("addressRegion", a.Region)
	s.setIf("postalCode", a.PostalCode)
	s.setIf("addressCountry", a.Country)
	return s
}

func (g *Generator) person(in schemaInput) Schema {
	p := g.profile
	loc, def := in.cfg.Locale, p.DefaultLocale
	s := newSchema("Person")
	s["@id"] = g.id("person")
	s["name"] = p.Person.Name
	s.setIf("givenName", p.Person.GivenName)
	s.setIf("familyName", p.Person.FamilyName)
	s.setIf("jobTitle", p.Person.JobTitle.Get(loc, def))
	s.setIf("description", p.Person.Description.Get(loc, def))
	s["url"] = p.BaseURL
	if p.Person.Image != "" {
		s["image"] = p.Absolute(p.Person.Image)
	}
	s.setIf("email", p.Person.Email)
	s["worksFor"] = Schema{"@id": g.id("organization")}
	s["address"] = g.address()
	if len(p.Person.KnowsAbout) > 0 {
		s["knowsAbout"] = p.Person.KnowsAbout
	}
	if len(p.Person.Languages) > 0 {
		s["knowsLanguage"] = p.Person.Languages
	}
	if p.Person.Alumni != "" {
		s["alumniOf"] = Schema{"@type": "CollegeOrUniversity", "name": p.Person.Alumni}
	}
	if same := p.SameAs(); len(same) > 0 {
		s["sameAs"] = same
	}
	return s
}

func (g *Generator) webPage(in schemaInput) Schema {
	published := in.today
	if !in.cfg.PublishedTime.IsZero() {
		published = rfc3339(in.cfg.PublishedTime)
	}
	modified := published
	if !in.cfg.LastModified.IsZero() {
		modified = rfc3339(in.cfg.LastModified)
	}
	s := newSchema("WebPage")
	s["@id"] = in.url + "#webpage"
	s["url"] = in.url
	s["name"] = in.meta.Title
	s.setIf("description", in.meta.Description)
	s["inLanguage"] = in.lang
	s["isPartOf"] = Schema{"@id": g.id("website")}
	s["about"] = Schema{"@id": g.id("person")}
	s["datePublished"] = published
	s["dateModified"] = modified
	if in.meta.OpenGraph.Image.URL != "" {
		s["primaryImageOfPage"] = Schema{"@type": "ImageObject", "url": in.meta.OpenGraph.Image.URL}
	}
	return s
}

func (g *Generator) professionalService(in schemaInput) []Schema {
	p := g.profile
	s := newSchema("ProfessionalService")
	s["@id"] = g.id("service")
	s["name"] = p.Business.Name
	s["url"] = p.BaseURL
	s.setIf("description", p.Person.Description.Get(in.cfg.Locale, p.DefaultLocale))
	if p.Business.Logo != "" {
		s["image"] = p.Absolute(p.Business.Logo)
	}
	s.setIf("email", p.Business.Email)
	s.setIf("priceRange", p.Business.PriceRange)
	s.setIf("openingHours", p.Business.OpeningHours)
	s["address"] = g.address()
	s["geo"] = Schema{
		"@type":     "GeoCoordinates",
		"latitude":  p.Geo.Latitude,
		"longitude": p.Geo.Longitude,
	}
	if len(p.Business.AreaServed) > 0 {
		s["areaServed"] = p.Business.AreaServed
	}
	s["founder"] = Schema{"@id": g.id("person")}
	if p.Business.HourlyRate.Amount > 0 {
		s["makesOffer"] = Schema{
			"@type": "Offer",
			"priceSpecification": Schema{
				"@type":         "UnitPriceSpecification",
				"price":         formatPrice(p.Business.HourlyRate.Amount),
				"priceCurrency": p.Business.HourlyRate.Currency,
				"unitCode":      "HUR",
			},
		}
	}
	return []Schema{s}
}

func (g *Generator) services(in schemaInput) []Schema {
	p := g.profile
	loc, def := in.cfg.Locale, p.DefaultLocale
	out := make([]Schema, 0, len(p.Services))
	for _, svc := range p.Services {
		s := newSchema("Service")
		s["@id"] = in.url + "#" + svc.ID
		s["name"] = svc.Name.Get(loc, def)
		s.setIf("description", svc.Description.Get(loc, def))
		s["serviceType"] = svc.Name.Get(p.DefaultLocale, def)
		s["provider"] = Schema{"@id": g.id("person")}
		if len(p.Business.AreaServed) > 0 {
			s["areaServed"] = p.Business.AreaServed
		}
		s["offers"] = Schema{
			"@type": "Offer",
			"priceSpecification": Schema{
				"@type":         "UnitPriceSpecification",
				"price":         formatPrice(svc.Price),
				"priceCurrency": svc.Currency,
				"unitCode":      svc.Unit,
			},
		}
		out = append(out, s)
	}
	return out
}

func (g *Generator) faqPage(in schemaInput) []Schema {
	if len(in.cfg.FAQItems) == 0 {
		return nil
	}
	entities := make([]Schema, 0, len(in.cfg.FAQItems))
	for _, item := range in.cfg.FAQItems {
		entities = append(entities, Schema{
			"@type": "Question",
			"name":  item.Question,
			"acceptedAnswer": Schema{
				"@type": "Answer",
				"text":  item.Answer,
			},
		})
	}
	s := newSchema("FAQPage")
	s["@id"] = in.url + "#faq"
	s["url"] = in.url
	s["inLanguage"] = in.lang
	s["mainEntity"] = entities
	return []Schema{s}
}

func (g *Generator) contactPage(in schemaInput) []Schema {
	s := newSchema("ContactPage")
	s["@id"] = in.url + "#contact"
	s["url"] = in.url
	s["name"] = in.meta.Title
	s.setIf("description", in.meta.Description)
	s["inLanguage"] = in.lang
	s["mainEntity"] = Schema{"@id": g.id("person")}
	return []Schema{s}
}

func (g *Generator) collectionPage(in schemaInput) []Schema {
	s := newSchema("CollectionPage")
	s["@id"] = in.url + "#collection"
	s["url"] = in.url
	s["name"] = in.meta.Title
	s.setIf("description", in.meta.Description)
	s["inLanguage"] = in.lang
	s["author"] = Schema{"@id": g.id("person")}
	return []Schema{s}
}

func (g *Generator) blog(in schemaInput) []Schema {
	p := g.profile
	s := newSchema("Blog")
	s["@id"] = in.url + "#blog"
	s["url"] = in.url
	s["name"] = in.meta.Title
	s.setIf("description", in.meta.Description)
	s["inLanguage"] = in.lang
	s["author"] = Schema{"@id": g.id("person")}
	posts := make([]Schema, 0, len(p.Posts))
	for _, post := range p.Posts {
		pc := post.Copy[in.cfg.Locale]
		if pc.Title == "" {
			pc = post.Copy[p.DefaultLocale]
		}
		posts = append(posts, Schema{
			"@type":         "BlogPosting",
			"headline":      pc.Title,
			"url":           g.URLFor(in.cfg.Locale, "/blog/"+post.Slug),
			"datePublished": rfc3339(post.PublishedAt()),
		})
	}
	if len(posts) > 0 {
		s["blogPost"] = posts
	}
	return []Schema{s}
}

func (g *Generator) blogPosting(in schemaInput) []Schema {
	p := g.profile
	published := in.today
	if !in.cfg.PublishedTime.IsZero() {
		published = rfc3339(in.cfg.PublishedTime)
	}
	modified := published
	if !in.cfg.LastModified.IsZero() {
		modified = rfc3339(in.cfg.LastModified)
	}
	s := newSchema("BlogPosting")
	s["@id"] = in.url + "#article"
	s["headline"] = in.cfg.Title
	s.setIf("description", in.meta.Description)
	s["url"] = in.url
	s["mainEntityOfPage"] = Schema{"@id": in.url + "#webpage"}
	s["inLanguage"] = in.lang
	s["datePublished"] = published
	s["dateModified"] = modified
	s["author"] = Schema{"@type": "Person", "@id": g.id("person"), "name": p.Person.Name}
	s["publisher"] = Schema{"@id": g.id("organization")}
	if in.meta.OpenGraph.Image.URL != "" {
		s["image"] = in.meta.OpenGraph.Image.URL
	}
	if len(in.cfg.Tags) > 0 {
		s["keywords"] = strings.Join(in.cfg.Tags, ", ")
	}
	return []Schema{s}
}

func (g *Generator) breadcrumbList(in schemaInput) Schema {
	items := make([]Schema, 0, len(in.cfg.Breadcrumbs))
	for _, b := range in.cfg.Breadcrumbs {
		items = append(items, Schema{
			"@type":    "ListItem",
			"position": b.Position,
			"name":     b.Name,
			"item":     b.URL,
		})
	}
	s := newSchema("BreadcrumbList")
	s["itemListElement"] = items
	return s
}

// fallbackSchema is emitted in place of a schema that cannot be serialized.
func fallbackSchema(typ, name, url string) Schema {
	return Schema{
		"@context": schemaContext,
		"@type":    typ,
		"name":     name,
		"url":      url,
	}
}
