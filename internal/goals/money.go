package goals

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyPattern finds the first amount in a text: an optional R or $ marker,
// then either a grouped number ("1,200" or "1 200 000") or a plain digit
// run, then an optional fraction after '.' or ','.
var moneyPattern = regexp.MustCompile(`(?i)(?:r|\$)?\s?(\d{1,3}(?:[, ]\d{3})+|\d+)(?:[.,](\d+))?`)

var groupSeparators = strings.NewReplacer(",", "", " ", "")

// ParseAmount returns the first monetary amount in text, or nil when the
// text has no digits.
func ParseAmount(text string) *float64 {
	m := moneyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	raw := groupSeparators.Replace(m[1])
	if m[2] != "" {
		raw += "." + m[2]
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	amount := d.InexactFloat64()
	return &amount
}
