// Package output names export files and delivers them to a local directory
// or an S3 bucket.
package output

import (
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is the sortable stamp appended to every export name.
const TimestampLayout = "2006-01-02-15-04-05"

// DefaultBase names exports whose source name has no usable characters.
const DefaultBase = "data"

var (
	unsafeChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SafeBase reduces a source file name to the part before its first dot,
// with anything but word characters, whitespace and '-' replaced by '_' and
// whitespace runs collapsed to one '_'.
func SafeBase(source string) string {
	base := source
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	base = whitespace.ReplaceAllString(base, "_")
	if base == "" {
		return DefaultBase
	}
	return base
}

// FileName is <prefix><safe base>_<timestamp>.<ext>.
func FileName(prefix, source, ext string, at time.Time) string {
	return prefix + stem(source, at) + "." + ext
}

// ArchiveNames returns the zip name, which carries the prefix, and the name
// of the single member inside it, which does not.
func ArchiveNames(prefix, source, ext string, at time.Time) (zipName, member string) {
	s := stem(source, at)
	return prefix + s + ".zip", s + "." + ext
}

func stem(source string, at time.Time) string {
	return SafeBase(source) + "_" + at.Format(TimestampLayout)
}
