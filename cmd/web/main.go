package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/hilmarvdveen/hilmar-cv/internal/booking"
	"github.com/hilmarvdveen/hilmar-cv/internal/calendar"
	"github.com/hilmarvdveen/hilmar-cv/internal/contact"
	"github.com/hilmarvdveen/hilmar-cv/internal/handlers"
	"github.com/hilmarvdveen/hilmar-cv/internal/i18n"
	"github.com/hilmarvdveen/hilmar-cv/internal/leads"
	"github.com/hilmarvdveen/hilmar-cv/internal/mail"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/config"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/events"
	pfirestore "github.com/hilmarvdveen/hilmar-cv/internal/platform/firestore"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/observability"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/secrets"
	"github.com/hilmarvdveen/hilmar-cv/internal/platform/storage"
	"github.com/hilmarvdveen/hilmar-cv/internal/profile"
	"github.com/hilmarvdveen/hilmar-cv/internal/seo"
	"github.com/hilmarvdveen/hilmar-cv/internal/view"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	secretsCfg, env, err := config.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read bootstrap configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LoggerOptions{
		Level:   os.Getenv("SITE_LOG_LEVEL"),
		Console: env == "local",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("site")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithProject(secretsCfg.ProjectID),
		secrets.WithFallbackFile(secretsCfg.FallbackFile),
		secrets.WithCacheTTL(secretsCfg.CacheTTL),
		secrets.WithLogger(logger.Named("secrets")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(fetcher))
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	site, err := loadProfile(cfg.Site)
	if err != nil {
		logger.Fatal("failed to load site profile", zap.Error(err))
	}
	bundle, err := i18n.Default()
	if err != nil {
		logger.Fatal("failed to load translations", zap.Error(err))
	}

	generator, err := seo.NewGenerator(site,
		seo.WithTranslator(bundle.T),
		seo.WithDegradeHook(func(pt seo.PageType, stage string, _ error) {
			metrics.SEODegraded(string(pt), stage)
		}),
	)
	if err != nil {
		logger.Fatal("failed to initialise seo generator", zap.Error(err))
	}
	renderer, err := view.New()
	if err != nil {
		logger.Fatal("failed to parse page templates", zap.Error(err))
	}

	mailRenderer, err := mail.NewRenderer(site.DefaultLocale)
	if err != nil {
		logger.Fatal("failed to parse mail templates", zap.Error(err))
	}
	var mailer mail.Sender
	if cfg.SMTP.Configured() {
		sender, err := mail.NewSMTPSender(mail.SMTPOptions{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		if err != nil {
			logger.Fatal("failed to initialise smtp sender", zap.Error(err))
		}
		mailer = sender
	} else {
		logger.Warn("smtp is not configured; booking and contact forms are disabled")
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		logger.Fatal("failed to load booking timezone", zap.String("timezone", cfg.Booking.Timezone), zap.Error(err))
	}
	var cal booking.Calendar
	if cfg.Calendar.Configured() {
		client, err := calendar.New(ctx, calendar.Options{
			CalendarID:      cfg.Calendar.CalendarID,
			CredentialsJSON: []byte(cfg.Calendar.CredentialsJSON),
			CredentialsFile: cfg.Calendar.CredentialsFile,
			Endpoint:        cfg.Calendar.Endpoint,
			Location:        loc,
		})
		if err != nil {
			logger.Fatal("failed to initialise google calendar", zap.Error(err))
		}
		cal = client
	} else {
		logger.Warn("calendar is not configured; booking is disabled")
	}

	bookingService, err := booking.NewService(booking.ServiceDeps{
		Calendar:   cal,
		Mailer:     mailer,
		Renderer:   mailRenderer,
		Location:   loc,
		OwnerName:  site.Person.Name,
		OwnerEmail: cfg.Site.OwnerEmail,
	})
	if err != nil {
		logger.Fatal("failed to initialise booking service", zap.Error(err))
	}
	contactService := contact.NewService(contact.ServiceDeps{
		Mailer:     mailer,
		Renderer:   mailRenderer,
		OwnerEmail: cfg.Site.OwnerEmail,
	})

	healthOpts := []handlers.HealthOption{
		handlers.WithHealthBuildInfo(buildVersion(), cfg.Site.Environment, startedAt),
	}
	store, firestoreProvider, err := openLeadStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open lead store", zap.String("backend", cfg.Leads.Backend), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("lead store close error", zap.Error(err))
		}
		if firestoreProvider != nil {
			if err := firestoreProvider.Close(); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}
	}()
	if firestoreProvider != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		}))
	}
	if sqlite, ok := store.(*leads.SQLiteStore); ok {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck("sqlite", func(ctx context.Context) error {
			_, err := sqlite.Count(ctx)
			return err
		}))
	}

	var signer leads.DownloadSigner
	if cfg.Storage.SigningEnabled() {
		keySigner, err := storage.NewKeySignerFromConfig(cfg.Storage)
		if err != nil {
			logger.Fatal("failed to parse storage signer key", zap.Error(err))
		}
		urlSigner, err := storage.NewURLSigner(keySigner, cfg.Storage.CVBucket, storage.WithExpiry(cfg.Storage.SignedURLTTL))
		if err != nil {
			logger.Fatal("failed to initialise signed url client", zap.Error(err))
		}
		signer = urlSigner
	}
	var publisher leads.Publisher
	if cfg.Events.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := pubsubClient.Topic(cfg.Events.Topic)
		defer func() {
			topic.Stop()
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		eventPublisher, err := events.NewPubSubPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
		publisher = eventPublisher
	}
	leadService := leads.NewService(leads.ServiceDeps{
		Store:         store,
		Signer:        signer,
		Events:        publisher,
		ObjectPattern: cfg.Storage.CVObject,
		Mailer:        mailer,
		Renderer:      mailRenderer,
		OwnerEmail:    cfg.Site.OwnerEmail,
	})

	expose := !cfg.IsProduction()
	formLimiter := handlers.NewRateLimiter(cfg.RateLimits.FormsPerMinute, time.Minute, nil)
	slotsLimiter := handlers.NewRateLimiter(cfg.RateLimits.SlotsPerMinute, time.Minute, nil)
	bookingHandlers := handlers.NewBookingHandlers(bookingService, metrics, formLimiter, expose).WithSlotsLimiter(slotsLimiter)
	formHandlers := handlers.NewFormHandlers(contactService, leadService, metrics, formLimiter, expose)
	pageHandlers := handlers.NewPageHandlers(generator, renderer, bundle)

	prefixes := make([]string, 0, len(site.Locales))
	for _, l := range site.Locales {
		if p := i18n.PathPrefix(l, site.DefaultLocale); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	router := handlers.NewRouter(
		handlers.WithRequestTimeout(cfg.Server.RequestTimeout),
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Site.ProjectID),
			observability.RequestLoggerMiddleware(metrics),
			observability.RecoveryMiddleware(logger),
			handlers.Locale(bundle, site.DefaultLocale, site.Locales),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithAssets(view.Assets()),
		handlers.WithSiteFiles(generator),
		handlers.WithPageRoutes(pageHandlers.Routes, prefixes...),
		handlers.WithBookingRoutes(bookingHandlers.Routes),
		handlers.WithContactRoutes(formHandlers.ContactRoutes),
		handlers.WithLeadRoutes(formHandlers.LeadRoutes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("site listening",
			zap.String("environment", cfg.Site.Environment),
			zap.String("base_url", site.BaseURL),
			zap.String("leads_backend", cfg.Leads.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func loadProfile(cfg config.SiteConfig) (*profile.Profile, error) {
	var (
		p   *profile.Profile
		err error
	)
	if path := strings.TrimSpace(cfg.ProfilePath); path != "" {
		p, err = profile.Load(path)
	} else {
		p, err = profile.Default()
	}
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return p, nil
	}
	return p.WithBaseURL(cfg.BaseURL)
}

// openLeadStore selects the backend named in cfg. The provider is only returned for Firestore.
func openLeadStore(ctx context.Context, cfg config.Config) (leads.Store, *pfirestore.Provider, error) {
	switch cfg.Leads.Backend {
	case "firestore":
		provider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithDialTimeout(cfg.Firestore.DialTimeout))
		store, err := leads.NewFirestoreStore(provider, cfg.Leads.Collection)
		if err != nil {
			return nil, nil, err
		}
		return store, provider, nil
	case "memory":
		return leads.NewMemoryStore(), nil, nil
	default:
		store, err := leads.OpenSQLite(ctx, cfg.Leads.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("SITE_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
