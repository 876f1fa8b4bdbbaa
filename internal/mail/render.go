package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.md
var templateFS embed.FS

const (
	BookingConfirmation = "booking_confirmation"
	ContactNotification = "contact_notification"
	LeadNotification    = "lead_notification"
)

// Renderer turns the embedded Markdown templates into Messages. Templates start with a
// "Subject:" line followed by a blank line and the Markdown body.
type Renderer struct {
	templates *template.Template
	markdown  goldmark.Markdown
	fallback  string
}

// NewRenderer parses the embedded templates. fallback is the locale used when a template
// has no variant for the requested locale.
func NewRenderer(fallback string) (*Renderer, error) {
	tmpl, err := template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("mail: parse templates: %w", err)
	}
	if fallback == "" {
		fallback = "en"
	}
	return &Renderer{
		templates: tmpl,
		// raw HTML in user input is dropped since WithUnsafe is not set
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		fallback: fallback,
	}, nil
}

// Render executes template name for locale with data.
func (r *Renderer) Render(name, locale string, data any) (Message, error) {
	tmpl := r.templates.Lookup(name + "." + locale + ".md")
	if tmpl == nil {
		tmpl = r.templates.Lookup(name + "." + r.fallback + ".md")
	}
	if tmpl == nil {
		return Message{}, fmt.Errorf("mail: unknown template %s", name)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return Message{}, fmt.Errorf("mail: render %s: %w", tmpl.Name(), err)
	}

	first, body, _ := strings.Cut(out.String(), "\n")
	subject, ok := strings.CutPrefix(strings.TrimSpace(first), "Subject:")
	if !ok {
		return Message{}, errors.New("mail: template " + tmpl.Name() + " has no subject line")
	}
	body = strings.TrimSpace(body)

	var htmlBody bytes.Buffer
	if err := r.markdown.Convert([]byte(body), &htmlBody); err != nil {
		return Message{}, fmt.Errorf("mail: markdown %s: %w", tmpl.Name(), err)
	}
	return Message{
		Subject: headerSafe(subject),
		Text:    body + "\n",
		HTML:    htmlBody.String(),
	}, nil
}

// BookingData feeds the booking confirmation template.
type BookingData struct {
	Name     string
	Date     string
	Time     string
	Timezone string
	Message  string
	Owner    string
}

// ContactData feeds the owner notification for contact form messages.
type ContactData struct {
	Name    string
	Email   string
	Subject string
	Message string
	Locale  string
}

// LeadData feeds the owner notification for CV downloads.
type LeadData struct {
	LeadID    string
	Name      string
	Email     string
	Company   string
	Locale    string
	Source    string
	CreatedAt string
}
