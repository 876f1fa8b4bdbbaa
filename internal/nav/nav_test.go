package nav

import "testing"

func TestBuildMarksActiveSection(t *testing.T) {
	items := Build("/blog/nextjs-core-web-vitals", "/nl")
	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Href)
		}
	}
	if len(active) != 1 || active[0] != "/nl/blog" {
		t.Fatalf("expected only /nl/blog active, got %v", active)
	}
}

func TestBreadcrumbs(t *testing.T) {
	home := Breadcrumbs("/", "")
	if len(home) != 1 || !home[0].Active || home[0].LabelKey != "nav.home" {
		t.Fatalf("unexpected home crumbs: %+v", home)
	}

	crumbs := Breadcrumbs("/blog/go-for-frontend-developers/", "Go for Frontend Developers")
	if len(crumbs) != 3 {
		t.Fatalf("expected 3 crumbs, got %d", len(crumbs))
	}
	if crumbs[1].Href != "/blog" || crumbs[1].LabelKey != "nav.blog" || crumbs[1].Active {
		t.Fatalf("unexpected section crumb: %+v", crumbs[1])
	}
	if crumbs[2].Href != "/blog/go-for-frontend-developers" || crumbs[2].Label != "Go for Frontend Developers" || !crumbs[2].Active {
		t.Fatalf("unexpected leaf crumb: %+v", crumbs[2])
	}

	privacy := Breadcrumbs("/privacy", "")
	if privacy[1].LabelKey != "nav.privacy" {
		t.Fatalf("expected footer section label key, got %+v", privacy[1])
	}
}

func TestCrumbName(t *testing.T) {
	translate := func(key string) string {
		if key == "nav.about" {
			return "Over mij"
		}
		return key
	}
	if got := (Crumb{LabelKey: "nav.about", Label: "About"}).Name(translate); got != "Over mij" {
		t.Fatalf("expected translation, got %q", got)
	}
	if got := (Crumb{LabelKey: "nav.unknown", Label: "Unknown"}).Name(translate); got != "Unknown" {
		t.Fatalf("expected label fallback, got %q", got)
	}
	if got := (Crumb{Label: "Deep segment"}).Name(nil); got != "Deep segment" {
		t.Fatalf("expected raw label, got %q", got)
	}
}
