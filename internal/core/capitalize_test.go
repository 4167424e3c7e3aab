package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"o'brien mcdonald", "O'Brien McDonald"},
		{"JOHN SMITH", "John Smith"},
		{"mary-jane watson", "Mary-Jane Watson"},
		{"ludwig van beethoven", "Ludwig van Beethoven"},
		{"VAN HALEN", "Van Halen"},
		{"martin luther king jr", "Martin Luther King JR"},
		{"angus macdonald", "Angus MacDonald"},
		{"maria machado", "Maria Machado"},
		{"john mack", "John Mack"},
		{"j.r.r. tolkien", "J.R.R. Tolkien"},
		{"maria de la cruz", "Maria de la Cruz"},
		{"jan van der berg", "Jan van der Berg"},
		{"d'angelo", "D'Angelo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CapitalizeName(tt.in))
		})
	}
}

func TestSmartCapitalize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		header bool
		want   string
	}{
		{"email untouched", "John.Doe@Example.com", false, "John.Doe@Example.com"},
		{"url untouched", "www.Example.com", false, "www.Example.com"},
		{"acronym untouched", "NASA", false, "NASA"},
		{"name", "jane doe", false, "Jane Doe"},
		{"small words", "war and peace 2", false, "War and Peace 2"},
		{"leading small word", "the end 2", false, "The End 2"},
		{"short caps kept", "call IBM now 1", false, "Call IBM Now 1"},
		{"camel case kept", "uses iPhone 15", false, "Uses iPhone 15"},
		{"header title case", "first_name of 2", true, "First_name Of 2"},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SmartCapitalize(tt.in, tt.header))
		})
	}
}

func TestSmartCapitalize_Idempotent(t *testing.T) {
	inputs := []string{
		"o'brien mcdonald",
		"ludwig van beethoven",
		"war and peace 2",
		"uses iPhone 15",
		"ACME corp 7",
		"mary-jane watson-smith",
		"angus macdonald III",
		"order #42 shipped",
	}
	for _, in := range inputs {
		for _, header := range []bool{false, true} {
			once := SmartCapitalize(in, header)
			assert.Equal(t, once, SmartCapitalize(once, header), "input %q header=%t", in, header)
		}
	}
}
