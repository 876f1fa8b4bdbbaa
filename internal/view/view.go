// Package view renders the shared page layout.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hilmarvdveen/hilmar-cv/internal/nav"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Crumb is a rendered breadcrumb.
type Crumb struct {
	Href   string
	Name   string
	Active bool
}

// Service is one offering on the services page.
type Service struct {
	ID          string
	Name        string
	Description string
	Price       string
}

// Question is one FAQ entry.
type Question struct {
	Question string
	Answer   string
}

// Post is a blog post teaser or header.
type Post struct {
	Href        string
	Title       string
	Date        string
	Description string
}

// PageData is the view model of every page.
type PageData struct {
	Lang     string
	Page     string
	Head     template.HTML
	T        func(key string) string
	SiteName string
	HomeHref string

	Nav         []nav.RenderedItem
	Footer      []nav.RenderedItem
	Breadcrumbs []Crumb
	SwitchHref  string
	SwitchLang  string
	Copyright   string

	Heading  string
	Intro    string
	Services []Service
	FAQ      []Question
	Posts    []Post
	Post     *Post
}

// Renderer executes the embedded layout.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("_root").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the base layout into w. Output is buffered so a template error never
// leaves a half-written page.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	if data.T == nil {
		data.T = func(key string) string { return key }
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("view: render %s: %w", data.Page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
