package i18n

import "testing"

func TestResolveHonorsQValues(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Resolve("en;q=0.8, nl;q=0.9"); got != "nl" {
		t.Fatalf("expected nl, got %s", got)
	}
	if got := b.Resolve("nl-BE,nl;q=0.9"); got != "nl" {
		t.Fatalf("expected nl for regional tag, got %s", got)
	}
	if got := b.Resolve("de-DE"); got != "en" {
		t.Fatalf("expected fallback en, got %s", got)
	}
	if got := b.Resolve(""); got != "en" {
		t.Fatalf("expected fallback for empty header, got %s", got)
	}
}

func TestTranslateFallsBack(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.T("nl", "nav.home"); got == "nav.home" || got == "" {
		t.Fatalf("expected nl translation, got %q", got)
	}
	if got := b.T("fr", "nav.home"); got != b.T("en", "nav.home") {
		t.Fatalf("expected en fallback, got %q", got)
	}
	if got := b.T("nl", "missing.key"); got != "missing.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
	if got := b.Tf("en", "layout.copyright", map[string]string{"year": "2025", "name": "Ada"}); got != "© 2025 Ada. All rights reserved." {
		t.Fatalf("expected placeholder substitution, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[string]struct {
		want string
		ok   bool
	}{
		"nl":    {"nl", true},
		"NL":    {"nl", true},
		"nl_NL": {"nl", true},
		"en-GB": {"en", true},
		"fr":    {"en", false},
		"":      {"en", false},
		"???":   {"en", false},
	}
	for in, tc := range cases {
		got, ok := b.Normalize(in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Normalize(%q) = %q,%v want %q,%v", in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLocaleHelpers(t *testing.T) {
	if got := OpenGraphLocale("nl"); got != "nl_NL" {
		t.Fatalf("og locale nl: %s", got)
	}
	if got := OpenGraphLocale("en"); got != "en_US" {
		t.Fatalf("og locale en: %s", got)
	}
	if got := PathPrefix("en", "en"); got != "" {
		t.Fatalf("default locale prefix: %q", got)
	}
	if got := PathPrefix("nl", "en"); got != "/nl" {
		t.Fatalf("nl prefix: %q", got)
	}
	supported := []string{"en", "nl"}
	for in, want := range map[string][2]string{
		"/nl/about": {"nl", "/about"},
		"/nl":       {"nl", "/"},
		"/about":    {"en", "/about"},
		"/":         {"en", "/"},
		"/en/about": {"en", "/en/about"},
		"/nlx":      {"en", "/nlx"},
	} {
		loc, rest := SplitPath(in, "en", supported)
		if loc != want[0] || rest != want[1] {
			t.Fatalf("SplitPath(%q) = %q,%q want %q,%q", in, loc, rest, want[0], want[1])
		}
	}
}
