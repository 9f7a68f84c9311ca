package claim

import (
	"fmt"
	"regexp"
	"strconv"
)

// claimIDPrefix is the human-readable registry prefix.
const claimIDPrefix = "AIR-CLAIM"

var claimIDPattern = regexp.MustCompile(`^AIR-CLAIM-(\d{4,})$`)

// FormatClaimID renders a sequence number as a registry identifier,
// e.g. 1 → AIR-CLAIM-0001. Numbers past 9999 widen naturally.
func FormatClaimID(seq int64) string {
	return fmt.Sprintf("%s-%04d", claimIDPrefix, seq)
}

// ParseClaimID extracts the sequence number from a registry identifier.
// Returns false for anything that is not a well-formed claim id.
func ParseClaimID(id string) (int64, bool) {
	m := claimIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsClaimID reports whether id looks like a registry identifier rather
// than a storage key.
func IsClaimID(id string) bool {
	_, ok := ParseClaimID(id)
	return ok
}
