package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateShape identifies one of the recognized date layouts.
type DateShape string

const (
	ShapeISO       DateShape = "iso"
	ShapeUS        DateShape = "us"
	ShapeEU        DateShape = "eu"
	ShapeYearFirst DateShape = "year_first"
)

// DateMatch is a parsed date together with the digits as typed.
type DateMatch struct {
	Shape DateShape
	Year  int
	Month int
	Day   int

	year, month, day string
}

// dateShape describes one layout: its pattern, the capture group holding
// each component, and how to echo the value back in that layout.
type dateShape struct {
	shape  DateShape
	re     *regexp.Regexp
	yIdx   int
	mIdx   int
	dIdx   int
	render func(y, m, d string) string
}

// DateShapes is the cascade order. The first shape producing a real
// calendar date wins, so 03-04-2024 reads as US (March 4).
var DateShapes = []dateShape{
	{
		shape: ShapeISO,
		re:    regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		yIdx:  1,
		mIdx:  2,
		dIdx:  3,
	},
	{
		shape:  ShapeUS,
		re:     regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`),
		yIdx:   3,
		mIdx:   1,
		dIdx:   2,
		render: func(y, m, d string) string { return m + "/" + d + "/" + y },
	},
	{
		shape:  ShapeEU,
		re:     regexp.MustCompile(`^(\d{1,2})[.-](\d{1,2})[.-](\d{4})$`),
		yIdx:   3,
		mIdx:   2,
		dIdx:   1,
		render: func(y, m, d string) string { return d + "." + m + "." + y },
	},
	{
		shape:  ShapeYearFirst,
		re:     regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`),
		yIdx:   1,
		mIdx:   2,
		dIdx:   3,
		render: func(y, m, d string) string { return y + "/" + m + "/" + d },
	},
}

// ParseDate runs the shape cascade over value.
func ParseDate(value string) (DateMatch, bool) {
	v := strings.TrimSpace(value)
	for _, ds := range DateShapes {
		m := ds.re.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		dm := DateMatch{
			Shape: ds.shape,
			year:  m[ds.yIdx],
			month: m[ds.mIdx],
			day:   m[ds.dIdx],
		}
		dm.Year, _ = strconv.Atoi(dm.year)
		dm.Month, _ = strconv.Atoi(dm.month)
		dm.Day, _ = strconv.Atoi(dm.day)
		if validCalendarDate(dm.Year, dm.Month, dm.Day) {
			return dm, true
		}
	}
	return DateMatch{}, false
}

// Time returns the match as a UTC midnight timestamp.
func (d DateMatch) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ISO renders the match as YYYY-MM-DD.
func (d DateMatch) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FormatDate normalizes a textual date. Strict mode yields ISO; otherwise
// the matched shape is echoed with its canonical separator. Values that do
// not parse are returned unchanged.
func FormatDate(value string, strict bool) string {
	dm, ok := ParseDate(value)
	if !ok {
		return value
	}
	if strict {
		return dm.ISO()
	}
	for _, ds := range DateShapes {
		if ds.shape != dm.Shape {
			continue
		}
		if ds.render == nil {
			return strings.TrimSpace(value)
		}
		return ds.render(dm.year, dm.month, dm.day)
	}
	return value
}

// FormatNativeDate renders a date-valued cell when date handling is on.
func FormatNativeDate(t time.Time, strict bool) string {
	if strict {
		return t.Format("2006-01-02")
	}
	return t.Format("1/2/2006")
}

func validCalendarDate(y, m, d int) bool {
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return false
	}
	return d <= time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
