package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitemail "github.com/hilmarvdveen/hilmar-cv/internal/mail"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/events"
)

type fakeSigner struct {
	objects []string
	err     error
}

func (f *fakeSigner) DownloadURL(_ context.Context, object, filename string) (string, time.Time, error) {
	f.objects = append(f.objects, object)
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "https://storage.googleapis.com/cv/" + object + "?sig=1", time.Time{}, nil
}

type recordingMailer struct {
	sent []sitemail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg sitemail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store Store, signer DownloadSigner, mailer sitemail.Sender) *Service {
	t.Helper()
	renderer, err := sitemail.NewRenderer("en")
	require.NoError(t, err)
	return NewService(ServiceDeps{
		Store:      store,
		Signer:     signer,
		Mailer:     mailer,
		Renderer:   renderer,
		OwnerEmail: "hello@example.nl",
		Clock:      func() time.Time { return fixedNow },
	})
}

func TestCaptureStoresLeadAndReturnsStaticURL(t *testing.T) {
	store := NewMemoryStore()
	mailer := &recordingMailer{}
	svc := newService(t, store, nil, mailer)

	res, err := svc.Capture(context.Background(), Request{
		Name:    "Ada",
		Email:   "ada@example.com",
		Company: "<b>Analytical</b> Engines",
		Locale:  "NL",
	}, "test-agent")
	require.NoError(t, err)

	_, err = ulid.Parse(res.LeadID)
	require.NoError(t, err, "lead id should be a ULID")
	assert.Equal(t, "/assets/cv/cv-nl.pdf", res.DownloadURL)

	stored := store.All()
	require.Len(t, stored, 1)
	assert.Equal(t, "Analytical Engines", stored[0].Company)
	assert.Equal(t, "nl", stored[0].Locale)
	assert.Equal(t, "website", stored[0].Source)
	assert.Equal(t, "test-agent", stored[0].UserAgent)
	assert.True(t, stored[0].CreatedAt.Equal(fixedNow))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "CV downloaded by Ada", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Text, res.LeadID)
}

func TestCaptureUsesSignedURL(t *testing.T) {
	signer := &fakeSigner{}
	svc := newService(t, NewMemoryStore(), signer, nil)

	res, err := svc.Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"cv/cv-en.pdf"}, signer.objects)
	assert.Equal(t, "https://storage.googleapis.com/cv/cv/cv-en.pdf?sig=1", res.DownloadURL)
}

func TestCaptureFallsBackWhenSigningFails(t *testing.T) {
	svc := newService(t, NewMemoryStore(), &fakeSigner{err: errors.New("no key")}, nil)
	res, err := svc.Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com"}, "")
	require.NoError(t, err)
	assert.Equal(t, "/assets/cv/cv-en.pdf", res.DownloadURL)
}

func TestCaptureNotificationIsBestEffort(t *testing.T) {
	store := NewMemoryStore()
	svc := newService(t, store, nil, &recordingMailer{err: errors.New("smtp down")})
	_, err := svc.Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com"}, "")
	require.NoError(t, err)
	assert.Len(t, store.All(), 1)
}

func TestCaptureValidation(t *testing.T) {
	svc := newService(t, NewMemoryStore(), nil, nil)
	for _, req := range []Request{
		{Email: "ada@example.com"},
		{Name: "Ada"},
		{Name: "Ada", Email: "Ada <ada@example.com>"},
	} {
		_, err := svc.Capture(context.Background(), req, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "request %+v", req)
	}

	_, err := NewService(ServiceDeps{}).Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com"}, "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, Lead{ID: "a"}))
	require.ErrorIs(t, store.Create(ctx, Lead{ID: "a"}), ErrDuplicate)
	_, err := store.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "msg-1", nil
}

func TestCapturePublishesEventWithoutPersonalData(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewService(ServiceDeps{
		Store:  NewMemoryStore(),
		Events: publisher,
		Clock:  func() time.Time { return fixedNow },
	})

	res, err := svc.Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com", Source: "about"}, "")
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	ev := publisher.events[0]
	assert.Equal(t, EventCaptured, ev.Type)
	assert.Equal(t, res.LeadID, ev.Key)
	assert.True(t, ev.OccurredAt.Equal(fixedNow))
	assert.Equal(t, map[string]string{"leadId": res.LeadID, "locale": "en", "source": "about"}, ev.Payload)
}

func TestCaptureIgnoresPublishFailure(t *testing.T) {
	svc := NewService(ServiceDeps{
		Store:  NewMemoryStore(),
		Events: &recordingPublisher{err: errors.New("topic gone")},
	})
	res, err := svc.Capture(context.Background(), Request{Name: "Ada", Email: "ada@example.com"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.LeadID)
}
