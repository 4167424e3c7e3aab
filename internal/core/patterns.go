package core

// patterns.go holds the stateless recognizers shared by the cleaning stages.
//
// Each recognizer is an independent predicate. Where several recognizers
// compete for the same value (classification, anonymization, dates) they are
// composed through ordered slices so the tie-break order is explicit.

import (
	"regexp"
	"strings"
)

// PatternKind names the shape a recognizer detects.
type PatternKind string

const (
	KindEmail PatternKind = "email"
	KindPhone PatternKind = "phone"
	KindZIP   PatternKind = "zip"
	KindURL   PatternKind = "url"
	KindSSN   PatternKind = "ssn"
	KindCard  PatternKind = "card"
	KindDate  PatternKind = "date"
	KindName  PatternKind = "name"
)

// Match is the result of classifying a value.
type Match struct {
	Kind  PatternKind
	Value string
}

// Recognizer pairs a shape with its predicate.
type Recognizer struct {
	Kind  PatternKind
	Match func(string) bool
}

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	zipPattern       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	urlPattern       = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)
	ssnPattern       = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	cardPattern      = regexp.MustCompile(`^\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}$`)
	namePattern      = regexp.MustCompile(`^[A-Za-z\s.\-',]+$`)
	nameTitlePattern = regexp.MustCompile(`(?i)\b(Mr|Mrs|Ms|Miss|Dr|Prof|Rev|Hon|Sir|Madam|Lady|Lord)\.?\b`)
	internationalTel = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	phoneSeparators  = regexp.MustCompile(`[\s\-().]`)
	nonDigits        = regexp.MustCompile(`\D`)
	upperInitial     = regexp.MustCompile(`^[A-Z]`)
	acronymPattern   = regexp.MustCompile(`^[A-Z0-9.\-_]+$`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

const (
	maxNameTokens    = 4
	maxAcronymLength = 5
	minInternational = 2
)

// PhoneShapes are the literal phone layouts tried before the international form.
var PhoneShapes = []*regexp.Regexp{
	regexp.MustCompile(`^\d{10}$`),
	regexp.MustCompile(`^1\d{10}$`),
	regexp.MustCompile(`^\d{3}[-. ]\d{3}[-. ]\d{4}$`),
	regexp.MustCompile(`^\(\d{3}\)\s*\d{3}[-. ]?\d{4}$`),
}

// Recognizers is the classification order used by Classify.
// Sensitive numbers come before phones so SSN and card layouts win.
var Recognizers = []Recognizer{
	{Kind: KindEmail, Match: IsEmail},
	{Kind: KindURL, Match: IsURL},
	{Kind: KindSSN, Match: IsSSN},
	{Kind: KindCard, Match: IsCard},
	{Kind: KindDate, Match: IsDate},
	{Kind: KindPhone, Match: IsPhone},
	{Kind: KindZIP, Match: IsZIP},
	{Kind: KindName, Match: IsLikelyName},
}

// Classify returns the first recognizer in Recognizers that accepts value.
func Classify(value string) (Match, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Match{}, false
	}
	for _, r := range Recognizers {
		if r.Match(v) {
			return Match{Kind: r.Kind, Value: v}, true
		}
	}
	return Match{}, false
}

// IsEmail reports whether value has the local@domain.tld shape.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// IsZIP reports whether value is a US postal code.
func IsZIP(value string) bool {
	return zipPattern.MatchString(value)
}

// IsURL reports whether value looks like a web address.
func IsURL(value string) bool {
	return urlPattern.MatchString(value)
}

// IsSSN reports whether value has the DDD-DD-DDDD layout.
func IsSSN(value string) bool {
	return ssnPattern.MatchString(value)
}

// IsCard reports whether value is four groups of four digits.
func IsCard(value string) bool {
	return cardPattern.MatchString(value)
}

// IsDate reports whether value parses under any of the date shapes.
func IsDate(value string) bool {
	_, ok := ParseDate(value)
	return ok
}

// IsPhone reports whether value matches one of the phone layouts or a
// +-prefixed international number.
func IsPhone(value string) bool {
	for _, re := range PhoneShapes {
		if re.MatchString(value) {
			return true
		}
	}
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "+") {
		return false
	}
	stripped := phoneSeparators.ReplaceAllString(v, "")
	return len(stripped)-1 >= minInternational && internationalTel.MatchString(stripped)
}

// IsLikelyName reports whether value is shaped like a person's name.
func IsLikelyName(value string) bool {
	parts := strings.Fields(value)
	if namePattern.MatchString(value) && len(parts) <= maxNameTokens {
		return true
	}
	if nameTitlePattern.MatchString(value) {
		return true
	}
	if len(parts) < 2 || len(parts) > maxNameTokens {
		return false
	}
	for _, p := range parts {
		if len(p) <= 1 || !upperInitial.MatchString(p) {
			return false
		}
	}
	return true
}

// isAcronym reports whether value is a short all-caps token.
func isAcronym(value string) bool {
	return len(value) <= maxAcronymLength && acronymPattern.MatchString(value)
}

// looksLikeURL reports whether value should be left alone as an address.
// Only an explicit scheme or www. prefix counts: IsURL also accepts dotted
// tokens such as "mr.smith".
func looksLikeURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "www.")
}

// digitsOf strips everything but ASCII digits.
func digitsOf(value string) string {
	return nonDigits.ReplaceAllString(value, "")
}

// collapseSpaces trims and folds whitespace runs to a single space.
func collapseSpaces(value string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(value), " ")
}
