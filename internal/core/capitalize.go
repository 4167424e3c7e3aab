package core

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nameSuffixes = setOf("jr", "sr", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x",
		"phd", "md", "dds", "dvm", "esq", "cpa")
	nameParticles = setOf("van", "von", "de", "la", "di", "del", "della", "el", "al")

	// Words that start with "mac" but are not Mac-prefixed surnames.
	macExceptions = setOf("machado", "macias", "maciel", "macon", "mackey", "mackie", "macklin", "macedo")

	smallWords = setOf("a", "an", "and", "as", "at", "but", "by", "for", "in", "nor",
		"of", "on", "or", "the", "to", "up", "yet", "vs", "via")

	compoundParticle = regexp.MustCompile(`(?i)\b(?:van der|van den|de la)\b`)
	camelCase        = regexp.MustCompile(`^[a-z][A-Z]|^[A-Z][a-z][A-Z]`)
	allCapsWord      = regexp.MustCompile(`^[A-Z]+$`)
)

const minMacSurname = 6

// SmartCapitalize applies the capitalization stage to a single value.
func SmartCapitalize(value string, isHeader bool) string {
	if value == "" || strings.Contains(value, "@") || looksLikeURL(value) || isAcronym(value) {
		return value
	}
	if IsLikelyName(value) {
		return CapitalizeName(value)
	}

	words := strings.Split(value, " ")
	if isHeader {
		for i, w := range words {
			words[i] = titleWord(w)
		}
		return strings.Join(words, " ")
	}

	last := len(words) - 1
	for i, w := range words {
		switch {
		case w == "":
		case smallWords[strings.ToLower(w)] && i > 0 && i < last:
			words[i] = strings.ToLower(w)
		case len(w) <= maxAcronymLength && allCapsWord.MatchString(w):
		case camelCase.MatchString(w):
		default:
			words[i] = titleWord(w)
		}
	}
	return strings.Join(words, " ")
}

// CapitalizeName title-cases a person's name, handling suffixes, particles,
// Mc/Mac prefixes, hyphens, apostrophes and compound particles.
func CapitalizeName(name string) string {
	locs := compoundParticle.FindAllStringIndex(name, -1)
	if len(locs) > 0 {
		var b strings.Builder
		prev := 0
		for _, loc := range locs {
			b.WriteString(capitalizeSegment(name[prev:loc[0]]))
			b.WriteString(strings.ToLower(name[loc[0]:loc[1]]))
			prev = loc[1]
		}
		b.WriteString(capitalizeSegment(name[prev:]))
		return b.String()
	}

	parts := strings.Split(name, " ")
	for i, p := range parts {
		parts[i] = capitalizeNamePart(p, i, len(parts))
	}
	return strings.Join(parts, " ")
}

// capitalizeSegment capitalizes the text between compound particles,
// keeping its surrounding spaces.
func capitalizeSegment(seg string) string {
	trimmed := strings.TrimSpace(seg)
	if trimmed == "" {
		return seg
	}
	start := strings.Index(seg, trimmed)
	return seg[:start] + CapitalizeName(trimmed) + seg[start+len(trimmed):]
}

func capitalizeNamePart(part string, index, count int) string {
	if part == "" {
		return part
	}
	lower := strings.ToLower(part)
	switch {
	case index == count-1 && nameSuffixes[strings.ReplaceAll(lower, ".", "")]:
		return strings.ToUpper(part)
	case index > 0 && nameParticles[lower]:
		return lower
	case strings.ContainsAny(part, "-."):
		return capitalizeJoined(part)
	}
	return capitalizeWord(part)
}

// capitalizeJoined capitalizes each piece of a hyphen or dot joined token.
func capitalizeJoined(part string) string {
	var b strings.Builder
	start := 0
	for i, r := range part {
		if r == '-' || r == '.' {
			b.WriteString(capitalizeWord(part[start:i]))
			b.WriteRune(r)
			start = i + 1
		}
	}
	b.WriteString(capitalizeWord(part[start:]))
	return b.String()
}

// capitalizeWord handles a single name token without separators.
func capitalizeWord(w string) string {
	if w == "" {
		return w
	}
	if i := strings.IndexByte(w, '\''); i >= 0 {
		head, tail := w[:i], w[i+1:]
		if utf8.RuneCountInString(head) == 1 {
			tail = upperFirst(tail)
		}
		return upperFirst(head) + "'" + tail
	}

	lower := strings.ToLower(w)
	switch {
	case strings.HasPrefix(lower, "mc") && len(lower) > 2:
		return "Mc" + titleWord(lower[2:])
	case strings.HasPrefix(lower, "mac") && len(lower) >= minMacSurname && !macExceptions[lower]:
		return "Mac" + titleWord(lower[3:])
	}
	return titleWord(w)
}

// titleWord uppercases the first letter and lowercases the rest.
func titleWord(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

// upperFirst uppercases the first letter and leaves the rest untouched.
func upperFirst(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
