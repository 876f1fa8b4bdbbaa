package seo

import (
	"bytes"
	"html/template"
	"strings"
)

var headTemplate = template.Must(template.New("head").Parse(`<title>{{.Meta.Title}}</title>
<meta name="description" content="{{.Meta.Description}}">
{{- with .Keywords}}
<meta name="keywords" content="{{.}}">
{{- end}}
<meta name="robots" content="{{.Meta.Robots}}">
<link rel="canonical" href="{{.Meta.Canonical}}">
{{- range .Meta.AlternateLinks}}
<link rel="alternate" hreflang="{{.HrefLang}}" href="{{.Href}}">
{{- end}}
{{- with .Meta.OpenGraph}}
<meta property="og:type" content="{{.Type}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:locale" content="{{.Locale}}">
{{- range .AlternateLocales}}
<meta property="og:locale:alternate" content="{{.}}">
{{- end}}
{{- with .Image}}{{if .URL}}
<meta property="og:image" content="{{.URL}}">
{{- if .Width}}
<meta property="og:image:width" content="{{.Width}}">
<meta property="og:image:height" content="{{.Height}}">
{{- end}}
{{- with .Alt}}
<meta property="og:image:alt" content="{{.}}">
{{- end}}
{{- end}}{{end}}
{{- with .PublishedTime}}
<meta property="article:published_time" content="{{.}}">
{{- end}}
{{- with .ModifiedTime}}
<meta property="article:modified_time" content="{{.}}">
{{- end}}
{{- range .Tags}}
<meta property="article:tag" content="{{.}}">
{{- end}}
{{- end}}
{{- with .Meta.Twitter}}
<meta name="twitter:card" content="{{.Card}}">
{{- with .Site}}
<meta name="twitter:site" content="{{.}}">
{{- end}}
{{- with .Creator}}
<meta name="twitter:creator" content="{{.}}">
{{- end}}
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{- with .Image}}
<meta name="twitter:image" content="{{.}}">
{{- end}}
{{- end}}
{{- range .Meta.OtherTags}}
<meta name="{{.Name}}" content="{{.Content}}">
{{- end}}
<script type="application/ld+json">{{.StructuredData}}</script>
`))

type headData struct {
	Meta           Metadata
	Keywords       string
	StructuredData template.JS
}

// RenderHead renders the head tags of page, ending with the JSON-LD script.
func RenderHead(page PageSEO) (template.HTML, error) {
	var buf bytes.Buffer
	err := headTemplate.Execute(&buf, headData{
		Meta:           page.Metadata,
		Keywords:       strings.Join(page.Metadata.Keywords, ", "),
		StructuredData: template.JS(scriptSafe(page.StructuredData)),
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// scriptSafe stops a literal "</" from closing the script element.
func scriptSafe(js string) string {
	if strings.TrimSpace(js) == "" {
		return "[]"
	}
	return strings.ReplaceAll(js, "</", `<\/`)
}
