package perenual

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

var genericSuffixes = map[string]bool{
	"plant": true, "tree": true, "bush": true, "shrub": true, "vine": true, "herb": true,
}

var leadingQualifiers = map[string]bool{
	"common": true, "wild": true, "dwarf": true, "giant": true,
	"japanese": true, "chinese": true, "european": true, "american": true,
}

// cleanName replaces punctuation with spaces, collapses runs of
// whitespace and lowercases the result.
func cleanName(name string) string {
	s := nonWord.ReplaceAllString(name, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Variants lists the search strings tried for name, in order and
// without duplicates.
func Variants(name string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	add(name)
	cleaned := cleanName(name)
	add(cleaned)

	words := strings.Fields(cleaned)
	if len(words) > 1 {
		if genericSuffixes[words[len(words)-1]] {
			add(strings.Join(words[:len(words)-1], " "))
		}
		if leadingQualifiers[words[0]] {
			add(strings.Join(words[1:], " "))
		}
	}

	// looks like "Genus species": also try the bare genus
	if parts := strings.Fields(name); len(parts) >= 2 {
		if r, _ := utf8.DecodeRuneInString(parts[0]); unicode.IsUpper(r) {
			add(parts[0])
		}
	}
	return out
}
