package leads

import (
	"context"
	"fmt"
	"html"
	netmail "net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	sitemail "github.com/hilmarvdveen/hilmar-cv/internal/mail"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/events"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/requestctx"
)

// EventCaptured is published after a lead was stored.
const EventCaptured = "lead.captured"

const (
	defaultSource     = "website"
	defaultObject     = "cv/cv-{locale}.pdf"
	staticDownloadFmt = "/assets/cv/cv-%s.pdf"
	maxFieldLength    = 200
)

// Request is the CV download form body.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Locale  string `json:"locale,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Result is returned to the site after a lead was stored.
type Result struct {
	LeadID      string `json:"leadId"`
	DownloadURL string `json:"downloadUrl"`
}

// DownloadSigner issues time-limited CV links.
type DownloadSigner interface {
	DownloadURL(ctx context.Context, object, filename string) (string, time.Time, error)
}

// Renderer renders localized mail templates.
type Renderer interface {
	Render(name, locale string, data any) (sitemail.Message, error)
}

// Publisher announces stored leads.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) (string, error)
}

// ServiceDeps bundles collaborators for the lead service. Signer, Mailer and Events are optional.
type ServiceDeps struct {
	Store         Store
	Signer        DownloadSigner
	Events        Publisher
	ObjectPattern string
	Mailer        sitemail.Sender
	Renderer      Renderer
	OwnerEmail    string
	Clock         func() time.Time
	IDGenerator   func() string
}

// Service captures leads.
type Service struct {
	store  Store
	signer DownloadSigner
	events Publisher
	object string
	mailer sitemail.Sender
	render Renderer
	owner  string
	clock  func() time.Time
	newID  func() string
	policy *bluemonday.Policy
}

// NewService constructs the lead service.
func NewService(deps ServiceDeps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	object := strings.TrimSpace(deps.ObjectPattern)
	if object == "" {
		object = defaultObject
	}
	return &Service{
		store:  deps.Store,
		signer: deps.Signer,
		events: deps.Events,
		object: object,
		mailer: deps.Mailer,
		render: deps.Renderer,
		owner:  strings.TrimSpace(deps.OwnerEmail),
		clock:  clock,
		newID:  idGen,
		policy: bluemonday.StrictPolicy(),
	}
}

func (s *Service) clean(v string) string {
	v = strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
	if utf8.RuneCountInString(v) > maxFieldLength {
		v = string([]rune(v)[:maxFieldLength])
	}
	return v
}

// Capture validates req, stores the lead and returns the download link. userAgent is
// recorded as-is.
func (s *Service) Capture(ctx context.Context, req Request, userAgent string) (Result, error) {
	lead := Lead{
		Name:      s.clean(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Company:   s.clean(req.Company),
		Locale:    "en",
		Source:    s.clean(req.Source),
		UserAgent: strings.TrimSpace(userAgent),
	}
	if strings.EqualFold(strings.TrimSpace(req.Locale), "nl") {
		lead.Locale = "nl"
	}
	if lead.Source == "" {
		lead.Source = defaultSource
	}
	if lead.Name == "" {
		return Result{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	if lead.Email == "" {
		return Result{}, &ValidationError{Field: "email", Message: "email is required"}
	}
	if addr, err := netmail.ParseAddress(lead.Email); err != nil || addr.Address != lead.Email {
		return Result{}, &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if s.store == nil {
		return Result{}, ErrNotConfigured
	}

	lead.ID = s.newID()
	lead.CreatedAt = s.clock().UTC()
	if err := s.store.Create(ctx, lead); err != nil {
		return Result{}, fmt.Errorf("leads: store lead: %w", err)
	}

	logger := requestctx.Logger(ctx)
	url := s.downloadURL(ctx, logger, lead.Locale)
	s.notify(ctx, logger, lead)
	s.announce(ctx, logger, lead)
	return Result{LeadID: lead.ID, DownloadURL: url}, nil
}

// downloadURL prefers a signed link and falls back to the static asset.
func (s *Service) downloadURL(ctx context.Context, logger *zap.Logger, locale string) string {
	static := fmt.Sprintf(staticDownloadFmt, locale)
	if s.signer == nil {
		return static
	}
	object := strings.ReplaceAll(s.object, "{locale}", locale)
	signed, _, err := s.signer.DownloadURL(ctx, object, "cv-"+locale+".pdf")
	if err != nil {
		logger.Warn("leads: signing download url failed, serving static asset", zap.String("object", object), zap.Error(err))
		return static
	}
	return signed
}

// announce publishes the lead without personal data. Failures are logged only.
func (s *Service) announce(ctx context.Context, logger *zap.Logger, lead Lead) {
	if s.events == nil {
		return
	}
	_, err := s.events.Publish(ctx, events.Event{
		Type:       EventCaptured,
		Key:        lead.ID,
		OccurredAt: lead.CreatedAt,
		Payload: map[string]string{
			"leadId": lead.ID,
			"locale": lead.Locale,
			"source": lead.Source,
		},
	})
	if err != nil {
		logger.Warn("leads: publishing lead event failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, logger *zap.Logger, lead Lead) {
	if s.mailer == nil || s.render == nil || s.owner == "" {
		return
	}
	msg, err := s.render.Render(sitemail.LeadNotification, "en", sitemail.LeadData{
		LeadID:    lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Company:   lead.Company,
		Locale:    lead.Locale,
		Source:    lead.Source,
		CreatedAt: lead.CreatedAt.Format(time.RFC3339),
	})
	if err == nil {
		msg.To = []string{s.owner}
		msg.ReplyTo = lead.Email
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.Warn("leads: owner notification failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}
}
