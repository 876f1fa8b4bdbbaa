package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/services"
	LabelKey string // i18n key, e.g. "nav.services"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/about", LabelKey: "nav.about"},
	{Path: "/services", LabelKey: "nav.services"},
	{Path: "/projects", LabelKey: "nav.projects"},
	{Path: "/blog", LabelKey: "nav.blog"},
	{Path: "/faq", LabelKey: "nav.faq"},
	{Path: "/contact", LabelKey: "nav.contact"},
	{Path: "/booking", LabelKey: "nav.booking"},
}

// Secondary holds sections reachable from the footer only.
var Secondary = []Item{
	{Path: "/privacy", LabelKey: "nav.privacy"},
}

// Build renders navigation items with active state given the current path.
// currentPath is locale-free; prefix ("" or "/nl") is prepended to every href.
func Build(currentPath, prefix string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     prefix + it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/blog" or "/blog/..."
	if currentPath == itemPath {
		return true
	}
	return strings.HasPrefix(currentPath, itemPath+"/")
}

func lookup(top string) string {
	for _, group := range [][]Item{Main, Secondary} {
		for _, it := range group {
			if it.Path == top {
				return it.LabelKey
			}
		}
	}
	return ""
}

// Breadcrumbs builds breadcrumb entries from the current locale-free path.
// Rules:
// - Always start with Home
// - For known top-level sections, use nav label keys
// - For deeper segments, use leaf when given, else a prettified segment label
func Breadcrumbs(currentPath, leaf string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.Trim(clean, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return crumbs
	}

	top := "/" + parts[0]
	crumbs = append(crumbs, Crumb{
		Href:     top,
		LabelKey: lookup(top),
		Label:    titleFromSegment(parts[0]),
		Active:   len(parts) == 1,
	})

	href := top
	for i := 1; i < len(parts); i++ {
		href = href + "/" + parts[i]
		label := titleFromSegment(parts[i])
		last := i == len(parts)-1
		if last && leaf != "" {
			label = leaf
		}
		crumbs = append(crumbs, Crumb{Href: href, Label: label, Active: last})
	}
	return crumbs
}

// Name returns the display label of c using translate for label keys.
func (c Crumb) Name(translate func(key string) string) string {
	if c.LabelKey != "" && translate != nil {
		if v := translate(c.LabelKey); v != "" && v != c.LabelKey {
			return v
		}
	}
	return c.Label
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = toUpper(r[0])
	return string(r)
}

func toUpper(r rune) rune {
	// ASCII only is sufficient for slugs here
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}
