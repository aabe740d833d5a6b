package pipeline

import (
	"github.com/joseph-ayodele/kyc-extractor/constants"
)

// Merge takes, per key, the first non-sentinel value in attempt order, else "NA".
// It is first-seen, not a vote: [NA, foo, bar] merges to foo.
func Merge(attempts []map[string]string, keys []string) map[string]string {
	merged := make(map[string]string, len(keys))
	for _, key := range keys {
		merged[key] = constants.NotFound
		for _, attempt := range attempts {
			if v, ok := attempt[key]; ok && !constants.IsSentinel(v) {
				merged[key] = v
				break
			}
		}
	}
	return merged
}

// usable reports whether an attempt read at least one of keys.
func usable(fields map[string]string, keys []string) bool {
	for _, key := range keys {
		if !constants.IsSentinel(fields[key]) {
			return true
		}
	}
	return false
}
