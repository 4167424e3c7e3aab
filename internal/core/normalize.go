package core

import (
	"regexp"
	"strings"
)

// InvalidMarker prefixes email values that fail validation.
const InvalidMarker = "[INVALID] "

var (
	disallowedChars   = regexp.MustCompile(`[^\p{L}\p{N}_\s@+.,\-:/()&%$#*?!'"<>]`)
	repeatedPunct     = regexp.MustCompile(`\.{2,}|,{2,}|\?{2,}|!{2,}`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,?!])`)
	spaceAfterPunct   = regexp.MustCompile(`([.,?!])\s+`)
	missingSpaceAfter = regexp.MustCompile(`([.,?!])(\p{L})`)
	hyphenSpacing     = regexp.MustCompile(`\s*-\s*`)
	dotSpacing        = regexp.MustCompile(`\s*\.\s*`)
	commaSpacing      = regexp.MustCompile(`\s*,\s*`)
)

// CleanNameSpacing tidies spacing inside a name: single spaces, tight
// hyphens and dots, and ", " after commas.
func CleanNameSpacing(name string) string {
	v := collapseSpaces(name)
	v = hyphenSpacing.ReplaceAllString(v, "-")
	v = dotSpacing.ReplaceAllString(v, ".")
	v = commaSpacing.ReplaceAllString(v, ", ")
	return collapseSpaces(v)
}

// CleanPunctuation strips characters outside the allow-list, collapses
// repeated marks and puts one space after sentence punctuation. Emails and
// addresses keep their dots untouched.
func CleanPunctuation(value string) string {
	v := disallowedChars.ReplaceAllString(value, "")
	v = repeatedPunct.ReplaceAllStringFunc(v, func(m string) string { return m[:1] })
	if !strings.Contains(v, "@") && !looksLikeURL(v) {
		v = spaceBeforePunct.ReplaceAllString(v, "$1")
		v = spaceAfterPunct.ReplaceAllString(v, "$1 ")
		v = missingSpaceAfter.ReplaceAllString(v, "$1 $2")
	}
	return collapseSpaces(v)
}

// NormalizeEmail lowercases a valid address. An invalid one is returned
// as is, or prefixed with InvalidMarker when markInvalid is set. The bool
// reports validity.
func NormalizeEmail(value string, markInvalid bool) (string, bool) {
	if IsEmail(value) {
		return strings.ToLower(value), true
	}
	if markInvalid && !strings.HasPrefix(value, InvalidMarker) {
		return InvalidMarker + value, false
	}
	return value, false
}

// isEmailHeader reports whether a header names an email column.
func isEmailHeader(h string) bool {
	h = strings.ToLower(h)
	return strings.Contains(h, "email") || strings.Contains(h, "e-mail")
}

// cellRef locates the cell being normalized, 1-based for log output.
type cellRef struct {
	row, col int
	header   bool
}

// normalizeCell runs the per-cell stages in their fixed order:
// anonymize, dates, spacing, punctuation, capitalization, phone, email.
func (r *run) normalizeCell(c Cell, ref cellRef) string {
	if c.IsEmpty() {
		return ""
	}
	s := r.settings
	value := c.String()
	textual := c.Kind == CellText

	if s.Anonymize && !ref.header && c.Kind != CellDate {
		if masked, _, ok := Anonymize(value, r.random); ok {
			value = masked
			textual = true
		}
	}

	switch {
	case c.Kind == CellDate && s.Dates:
		value = FormatNativeDate(c.Time, s.StrictDates)
	case textual && s.Dates:
		value = FormatDate(value, s.StrictDates)
	}

	if ref.header && s.PreserveNames {
		return collapseSpaces(value)
	}

	switch {
	case s.Spaces && s.PreserveNames && IsLikelyName(value):
		value = CleanNameSpacing(value)
	case s.Spaces:
		value = collapseSpaces(value)
	default:
		value = strings.TrimSpace(value)
	}

	if s.Punctuation {
		value = CleanPunctuation(value)
	}
	inEmailCol := !ref.header && r.emailCols[ref.col-1]
	if s.Capitalize && !(s.Emails && inEmailCol) {
		value = SmartCapitalize(value, ref.header)
	}
	if s.Phone && IsPhone(value) {
		value = FormatPhone(value)
	}
	if s.Emails && value != "" && (strings.Contains(value, "@") || inEmailCol) {
		normalized, ok := NormalizeEmail(value, s.MarkInvalid)
		if !ok {
			r.warnf(ActionInvalidEmail, "Row %d, Col %d: %q", ref.row, ref.col, value)
		}
		value = normalized
	}
	return value
}
