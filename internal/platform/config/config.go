package config

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultRequestTimeout  = 20 * time.Second
	defaultEnvironment     = "local"
	defaultTimezone        = "Europe/Amsterdam"
	defaultCalendarID      = "primary"
	defaultSMTPPort        = 587
	defaultLeadsBackend    = "sqlite"
	defaultSQLitePath      = "leads.db"
	defaultLeadsCollection = "cvLeads"
	defaultCVObject        = "cv/cv-{locale}.pdf"
	defaultSignedURLTTL    = 15 * time.Minute
	defaultFirestoreDial   = 10 * time.Second
	defaultFormsPerMinute  = 5
	defaultSlotsPerMinute  = 60
	defaultSecretsFallback = ".secrets.local"
)

var validEnvironments = map[string]struct{}{
	"local": {}, "dev": {}, "staging": {}, "prod": {},
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Site       SiteConfig
	Booking    BookingConfig
	Calendar   CalendarConfig
	SMTP       SMTPConfig
	Leads      LeadsConfig
	Storage    StorageConfig
	Firestore  FirestoreConfig
	Events     EventsConfig
	RateLimits RateLimitConfig
	Secrets    SecretsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// SiteConfig holds deployment-wide settings.
type SiteConfig struct {
	Environment string
	BaseURL     string
	ProfilePath string
	LogLevel    string
	ProjectID   string
	OwnerEmail  string
}

// BookingConfig controls slot generation.
type BookingConfig struct {
	Timezone string
}

// CalendarConfig points at the Google Calendar that receives bookings.
type CalendarConfig struct {
	CalendarID      string
	CredentialsJSON string
	CredentialsFile string
	Endpoint        string
}

// Configured reports whether calendar credentials are available.
func (c CalendarConfig) Configured() bool {
	return strings.TrimSpace(c.CredentialsJSON) != "" || strings.TrimSpace(c.CredentialsFile) != ""
}

// SMTPConfig configures the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough SMTP settings exist to send mail.
func (c SMTPConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != "" && strings.TrimSpace(c.From) != ""
}

// LeadsConfig selects the CV lead store.
type LeadsConfig struct {
	Backend    string
	SQLitePath string
	Collection string
}

// StorageConfig configures signed CV download URLs.
type StorageConfig struct {
	CVBucket              string
	CVObject              string
	SignerEmail           string
	SignerPrivateKey      string
	// SignerCredentialsJSON is a full service account key; it wins over email and key.
	SignerCredentialsJSON string
	SignedURLTTL          time.Duration
}

// SigningEnabled reports whether signed URLs can be issued.
func (c StorageConfig) SigningEnabled() bool {
	if c.CVBucket == "" {
		return false
	}
	return strings.TrimSpace(c.SignerCredentialsJSON) != "" || (c.SignerEmail != "" && c.SignerPrivateKey != "")
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	DialTimeout  time.Duration
}

// EventsConfig names the Pub/Sub topic receiving lead events. Empty disables publishing.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// Enabled reports whether events are published.
func (c EventsConfig) Enabled() bool {
	return c.ProjectID != "" && c.Topic != ""
}

// RateLimitConfig controls request throttling per client IP.
type RateLimitConfig struct {
	FormsPerMinute int
	SlotsPerMinute int
}

// SecretsConfig configures Secret Manager lookups.
type SecretsConfig struct {
	ProjectID    string
	FallbackFile string
	CacheTTL     time.Duration
}

// IsProduction reports whether the deployment hides error details from clients.
func (c Config) IsProduction() bool {
	return c.Site.Environment == "prod"
}

// Location loads the business timezone.
func (c BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	if e == nil || len(e.names) == 0 {
		return "missing required secrets"
	}
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// RedactedNames returns hashed secret identifiers safe for logs.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

// Names returns the underlying secret identifiers.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks the provided secret fields as mandatory, e.g. "SMTP.Password".
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// Bootstrap reads the values needed to build a secret resolver before Load runs.
// It applies the same precedence as Load.
func Bootstrap(opts ...Option) (SecretsConfig, string, error) {
	lookup, err := newLookup(opts)
	if err != nil {
		return SecretsConfig{}, "", err
	}
	env := strings.ToLower(stringWithDefault(lookup, "SITE_ENVIRONMENT", defaultEnvironment))
	return secretsConfig(lookup), env, nil
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := applyOptions(opts)
	lookup, err := newLookup(opts)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:           stringWithDefault(lookup, "SITE_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:    durationWithDefault(lookup, "SITE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   durationWithDefault(lookup, "SITE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    durationWithDefault(lookup, "SITE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: durationWithDefault(lookup, "SITE_SERVER_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Site: SiteConfig{
			Environment: strings.ToLower(stringWithDefault(lookup, "SITE_ENVIRONMENT", defaultEnvironment)),
			BaseURL:     strings.TrimRight(stringWithDefault(lookup, "SITE_BASE_URL", ""), "/"),
			ProfilePath: stringWithDefault(lookup, "SITE_PROFILE_PATH", ""),
			LogLevel:    stringWithDefault(lookup, "SITE_LOG_LEVEL", stringWithDefault(lookup, "LOG_LEVEL", "")),
			ProjectID:   stringWithDefault(lookup, "SITE_GCP_PROJECT", stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", "")),
			OwnerEmail:  stringWithDefault(lookup, "SITE_OWNER_EMAIL", ""),
		},
		Booking: BookingConfig{
			Timezone: stringWithDefault(lookup, "SITE_BOOKING_TIMEZONE", defaultTimezone),
		},
		Calendar: CalendarConfig{
			CalendarID:      stringWithDefault(lookup, "SITE_CALENDAR_ID", defaultCalendarID),
			CredentialsJSON: stringWithDefault(lookup, "SITE_CALENDAR_CREDENTIALS_JSON", ""),
			CredentialsFile: stringWithDefault(lookup, "SITE_CALENDAR_CREDENTIALS_FILE", ""),
			Endpoint:        stringWithDefault(lookup, "SITE_CALENDAR_ENDPOINT", ""),
		},
		SMTP: SMTPConfig{
			Host:     stringWithDefault(lookup, "SITE_SMTP_HOST", ""),
			Port:     intWithDefault(lookup, "SITE_SMTP_PORT", defaultSMTPPort),
			Username: stringWithDefault(lookup, "SITE_SMTP_USERNAME", ""),
			Password: stringWithDefault(lookup, "SITE_SMTP_PASSWORD", ""),
			From:     stringWithDefault(lookup, "SITE_SMTP_FROM", ""),
		},
		Leads: LeadsConfig{
			Backend:    strings.ToLower(stringWithDefault(lookup, "SITE_LEADS_BACKEND", defaultLeadsBackend)),
			SQLitePath: stringWithDefault(lookup, "SITE_LEADS_SQLITE_PATH", defaultSQLitePath),
			Collection: stringWithDefault(lookup, "SITE_LEADS_COLLECTION", defaultLeadsCollection),
		},
		Storage: StorageConfig{
			CVBucket:              stringWithDefault(lookup, "SITE_STORAGE_CV_BUCKET", ""),
			CVObject:              stringWithDefault(lookup, "SITE_STORAGE_CV_OBJECT", defaultCVObject),
			SignerEmail:           stringWithDefault(lookup, "SITE_STORAGE_SIGNER_EMAIL", ""),
			SignerPrivateKey:      stringWithDefault(lookup, "SITE_STORAGE_SIGNER_PRIVATE_KEY", ""),
			SignerCredentialsJSON: stringWithDefault(lookup, "SITE_STORAGE_SIGNER_CREDENTIALS_JSON", ""),
			SignedURLTTL:          durationWithDefault(lookup, "SITE_STORAGE_SIGNED_URL_TTL", defaultSignedURLTTL),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "SITE_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "SITE_FIRESTORE_EMULATOR_HOST", stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", "")),
			DialTimeout:  durationWithDefault(lookup, "SITE_FIRESTORE_DIAL_TIMEOUT", defaultFirestoreDial),
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(lookup, "SITE_EVENTS_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "SITE_EVENTS_TOPIC", ""),
		},
		RateLimits: RateLimitConfig{
			FormsPerMinute: intWithDefault(lookup, "SITE_RATELIMIT_FORMS_PER_MIN", defaultFormsPerMinute),
			SlotsPerMinute: intWithDefault(lookup, "SITE_RATELIMIT_SLOTS_PER_MIN", defaultSlotsPerMinute),
		},
		Secrets: secretsConfig(lookup),
	}

	// Firestore and Secret Manager default to the deployment project.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Site.ProjectID
	}
	if cfg.Secrets.ProjectID == "" {
		cfg.Secrets.ProjectID = cfg.Site.ProjectID
	}
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Site.ProjectID
	}
	if cfg.Site.OwnerEmail == "" {
		cfg.Site.OwnerEmail = cfg.SMTP.From
	}

	resolved := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Calendar.CredentialsJSON", &cfg.Calendar.CredentialsJSON},
		{"SMTP.Password", &cfg.SMTP.Password},
		{"Storage.SignerPrivateKey", &cfg.Storage.SignerPrivateKey},
		{"Storage.SignerCredentialsJSON", &cfg.Storage.SignerCredentialsJSON},
	}
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = value
		resolved[target.name] = strings.TrimSpace(value)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		return Config{}, missing
	}
	return cfg, nil
}

func applyOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", errSecretResolverNotConfigured
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// newLookup resolves keys with precedence dotenv < OS env < explicit map.
func newLookup(opts []Option) (func(string) (string, bool), error) {
	options := applyOptions(opts)
	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}, nil
}

func secretsConfig(lookup func(string) (string, bool)) SecretsConfig {
	return SecretsConfig{
		ProjectID:    stringWithDefault(lookup, "SITE_SECRETS_PROJECT_ID", stringWithDefault(lookup, "SITE_GCP_PROJECT", "")),
		FallbackFile: stringWithDefault(lookup, "SITE_SECRETS_FALLBACK_FILE", defaultSecretsFallback),
		CacheTTL:     durationWithDefault(lookup, "SITE_SECRETS_CACHE_TTL", 0),
	}
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if _, ok := validEnvironments[cfg.Site.Environment]; !ok {
		missing = append(missing, "Site.Environment")
	}
	if cfg.Site.BaseURL != "" {
		if u, err := url.Parse(cfg.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			missing = append(missing, "Site.BaseURL")
		}
	}
	if cfg.Site.OwnerEmail != "" {
		if _, err := mail.ParseAddress(cfg.Site.OwnerEmail); err != nil {
			missing = append(missing, "Site.OwnerEmail")
		}
	}
	if _, err := cfg.Booking.Location(); err != nil || cfg.Booking.Timezone == "" {
		missing = append(missing, "Booking.Timezone")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		missing = append(missing, "SMTP.Port")
	}
	switch cfg.Leads.Backend {
	case "sqlite":
		if strings.TrimSpace(cfg.Leads.SQLitePath) == "" {
			missing = append(missing, "Leads.SQLitePath")
		}
	case "firestore":
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
		if cfg.Leads.Collection == "" {
			missing = append(missing, "Leads.Collection")
		}
	case "memory":
	default:
		missing = append(missing, "Leads.Backend")
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		missing = append(missing, "Storage.SignedURLTTL")
	}
	if !strings.Contains(cfg.Storage.CVObject, "{locale}") {
		missing = append(missing, "Storage.CVObject")
	}
	if cfg.RateLimits.FormsPerMinute <= 0 {
		missing = append(missing, "RateLimits.FormsPerMinute")
	}
	if cfg.RateLimits.SlotsPerMinute <= 0 {
		missing = append(missing, "RateLimits.SlotsPerMinute")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	var names []string
	seen := make(map[string]struct{})
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if strings.TrimSpace(resolved[trimmed]) == "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &MissingSecretsError{names: names}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}
