package seo

import (
	"strings"
	"unicode/utf8"
)

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// truncateWords cuts s to at most limit runes, ending on a word boundary with an ellipsis.
func truncateWords(s string, limit int) string {
	if runeLen(s) <= limit {
		return s
	}
	if limit <= 1 {
		return string([]rune(s)[:max(limit, 0)])
	}
	cut := string([]rune(s)[:limit-1])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-|") + "…"
}

// dedupeKeywords trims, drops empties and removes case-insensitive repeats, keeping the first spelling.
func dedupeKeywords(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, min(len(in), limit))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}
