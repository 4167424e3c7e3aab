package core

import (
	"fmt"
	"math/rand"
	"strings"
)

// RandomSource supplies the randomness used for substitution.
// *rand.Rand satisfies it; tests inject a seeded or scripted source.
type RandomSource interface {
	Intn(n int) int
}

// globalRandom draws from the package-level math/rand source, which is safe
// for concurrent use.
type globalRandom struct{}

func (globalRandom) Intn(n int) int { return rand.Intn(n) }

// DefaultRandom is used when a Cleaner is built without a RandomSource.
var DefaultRandom RandomSource = globalRandom{}

// NewSeededRandom returns a deterministic source for reproducible runs.
func NewSeededRandom(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

var (
	substituteFirstNames = []string{"John", "Jane", "Alex", "Sam", "Chris", "Taylor", "Jordan", "Morgan"}
	substituteLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis"}
)

const emailIDSpace = 10000

// AnonymizeRule masks one kind of sensitive value. Match and Replace receive
// the lowercased input.
type AnonymizeRule struct {
	Kind    PatternKind
	Match   func(lower string) bool
	Replace func(lower string, rnd RandomSource) string
}

// AnonymizeRules are evaluated in order; the first match wins.
var AnonymizeRules = []AnonymizeRule{
	{
		Kind:  KindEmail,
		Match: func(v string) bool { return strings.Contains(v, "@") },
		Replace: func(v string, rnd RandomSource) string {
			domain := strings.Split(v, "@")[1]
			return fmt.Sprintf("user%d@%s", rnd.Intn(emailIDSpace), domain)
		},
	},
	{
		Kind:  KindPhone,
		Match: IsPhone,
		Replace: func(v string, _ RandomSource) string {
			digits := digitsOf(v)
			if len(digits) == usPhoneDigits {
				return "(XXX) XXX-" + lastN(digits, 4)
			}
			return "XXX-XXX-" + lastN(digits, 4)
		},
	},
	{
		Kind:  KindSSN,
		Match: IsSSN,
		Replace: func(v string, _ RandomSource) string {
			return "XXX-XX-" + lastN(v, 4)
		},
	},
	{
		Kind:  KindCard,
		Match: IsCard,
		Replace: func(v string, _ RandomSource) string {
			return "XXXX-XXXX-XXXX-" + lastN(digitsOf(v), 4)
		},
	},
	{
		Kind:  KindName,
		Match: IsLikelyName,
		Replace: func(_ string, rnd RandomSource) string {
			first := substituteFirstNames[rnd.Intn(len(substituteFirstNames))]
			last := substituteLastNames[rnd.Intn(len(substituteLastNames))]
			return first + " " + last
		},
	},
}

// Anonymize masks or substitutes a sensitive-looking value. Values that
// match no rule are returned unchanged with ok false.
func Anonymize(value string, rnd RandomSource) (string, PatternKind, bool) {
	if rnd == nil {
		rnd = DefaultRandom
	}
	lower := strings.ToLower(value)
	for _, rule := range AnonymizeRules {
		if rule.Match(lower) {
			return rule.Replace(lower, rnd), rule.Kind, true
		}
	}
	return value, "", false
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
