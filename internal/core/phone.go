package core

import "fmt"

const (
	usPhoneDigits  = 10
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// FormatPhone reformats a phone-shaped value by its digit count.
//
//	10 digits             (AAA) BBB-CCCC
//	11 digits, leading 1  +1 (AAA) BBB-CCCC
//	8-15 digits           [+extra ](last ten grouped as above)
//
// Anything else collapses to its digits.
func FormatPhone(value string) string {
	digits := digitsOf(value)
	n := len(digits)

	switch {
	case n == usPhoneDigits:
		return groupPhone(digits)
	case n == usPhoneDigits+1 && digits[0] == '1':
		return "+1 " + groupPhone(digits[1:])
	case n >= minPhoneDigits && n <= maxPhoneDigits:
		prefix := ""
		local := digits
		if n > usPhoneDigits {
			prefix = "+" + digits[:n-usPhoneDigits] + " "
			local = digits[n-usPhoneDigits:]
		}
		return prefix + groupPhone(local)
	}
	return digits
}

// groupPhone renders up to ten digits as (AAA) BBB-CCCC. Shorter inputs
// fill the groups left to right.
func groupPhone(d string) string {
	area, exchange, line := slice(d, 0, 3), slice(d, 3, 6), slice(d, 6, len(d))
	return fmt.Sprintf("(%s) %s-%s", area, exchange, line)
}

func slice(s string, from, to int) string {
	if from > len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
