// Package normalize cleans extracted values before they are returned or stored.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/kyc-extractor/constants"
)

const (
	inputDateLayout  = "2/1/2006"
	outputDateLayout = "2006-01-02"
)

var (
	addressDisallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\p{Z},/-]`)
	careOfPattern     = regexp.MustCompile(`(?i)C/O[:\s]+([\p{L}\p{M}\p{N}_\s]+),`)
)

// FormatDate converts DD/MM/YYYY to YYYY-MM-DD. Anything else, including impossible
// calendar dates, returns nil.
func FormatDate(s string) *string {
	t, err := time.Parse(inputDateLayout, s)
	if err != nil {
		return nil
	}
	out := t.Format(outputDateLayout)
	return &out
}

// CleanAddress drops everything except letters, digits, whitespace and ",/-",
// then collapses whitespace runs to one space. CleanAddress(CleanAddress(s)) == CleanAddress(s).
func CleanAddress(s string) string {
	s = addressDisallowed.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// GuardianFromAddress returns the name after a "C/O" marker up to the next comma,
// or "Not Available".
func GuardianFromAddress(address string) string {
	m := careOfPattern.FindStringSubmatch(address)
	if m == nil {
		return constants.NotAvailable
	}
	if name := strings.TrimSpace(m[1]); name != "" {
		return name
	}
	return constants.NotAvailable
}

// IsIncomplete reports whether a record value counts as missing for the completion gate.
func IsIncomplete(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == "" || *v == constants.NotAvailable
}

// IncompleteFields lists, in keys order, the fields that fail the completion gate.
func IncompleteFields(fields map[string]*string, keys []string) []string {
	var bad []string
	for _, k := range keys {
		if IsIncomplete(fields[k]) {
			bad = append(bad, k)
		}
	}
	return bad
}
