package services

import (
	"strings"
	"unicode"
)

const maxTagLength = 32

// NormalizeTag trims a tag, collapses inner whitespace to single spaces, lowercases it
// and strips characters other than letters, digits, spaces, '-', '_', '+', '#' and '.'.
func NormalizeTag(tag string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(tag) {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-_+#.", r):
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteRune(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}

	out := b.String()
	if len(out) > maxTagLength {
		out = strings.TrimSpace(out[:maxTagLength])
	}
	return out
}

// NormalizeTags normalizes every tag, dropping empties and duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(raw, ","))
}
