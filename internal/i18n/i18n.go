package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

const (
	English = "en"
	Dutch   = "nl"
)

type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Default loads the locale files compiled into the binary.
func Default() (*Bundle, error) {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub, English, []string{English, Dutch})
}

// Load reads <locale>.json for every supported locale from fsys. The fallback must exist.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{English, Dutch}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	tags := make([]language.Tag, 0, len(supported))
	// the matcher prefers the first tag on ties, so the fallback goes first
	ordered := append([]string{fallback}, supported...)
	seen := map[string]struct{}{}
	for _, l := range ordered {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		b.supported = append(b.supported, l)
		tags = append(tags, language.Make(l))

		raw, err := fs.ReadFile(fsys, l+".json")
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is one of the bundle locales.
func (b *Bundle) IsSupported(lang string) bool {
	for _, l := range b.supported {
		if l == lang {
			return true
		}
	}
	return false
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Tf translates key and substitutes {name} placeholders from args.
func (b *Bundle) Tf(lang, key string, args map[string]string) string {
	out := b.T(lang, key)
	for k, v := range args {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// Resolve chooses best language from Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}

// Normalize maps user input such as "NL", "nl-NL" or "en_GB" onto a supported locale.
func (b *Bundle) Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return b.fallback, false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return b.fallback, false
	}
	base, _ := tag.Base()
	if b.IsSupported(base.String()) {
		return base.String(), true
	}
	return b.fallback, false
}

// HrefLang returns the hreflang attribute value for locale.
func HrefLang(locale string) string {
	return strings.ToLower(locale)
}

// LanguageTag returns the BCP 47 tag with region used for inLanguage and Content-Language.
func LanguageTag(locale string) string {
	switch locale {
	case Dutch:
		return "nl-NL"
	case English:
		return "en-US"
	default:
		return language.Make(locale).String()
	}
}

// OpenGraphLocale returns the og:locale form (language_TERRITORY).
func OpenGraphLocale(locale string) string {
	return strings.ReplaceAll(LanguageTag(locale), "-", "_")
}

// PathPrefix returns the URL prefix for locale; the default locale has none.
func PathPrefix(locale, defaultLocale string) string {
	if locale == "" || locale == defaultLocale {
		return ""
	}
	return "/" + locale
}

// SplitPath strips a leading locale segment from path. It returns defaultLocale and the
// unchanged path when the first segment is not a supported non-default locale.
func SplitPath(path, defaultLocale string, supported []string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	seg, rest, _ := strings.Cut(trimmed, "/")
	for _, l := range supported {
		if l == seg && l != defaultLocale {
			return l, "/" + rest
		}
	}
	if path == "" {
		path = "/"
	}
	return defaultLocale, path
}
