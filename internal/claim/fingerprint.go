package claim

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/air-restore/restore-cli/internal/model"
)

// FingerprintInput is the claim content bound by the integrity fingerprint.
// Evidence added after submission is informational and deliberately outside
// the fingerprinted set.
type FingerprintInput struct {
	ContributorID      string
	CreatedAt          time.Time
	Polygon            [][2]float64
	EvidenceContentIDs []string
}

// Fingerprint computes the integrity digest for the given claim content.
// A random UUID nonce is generated when none is supplied; the nonce used
// is returned alongside the hex digest so it can be stored for later
// verification.
func Fingerprint(in FingerprintInput, nonce string) (digest, usedNonce string) {
	if nonce == "" {
		nonce = uuid.NewString()
	}
	sum := sha256.Sum256([]byte(canonicalInput(in) + nonce))
	return fmt.Sprintf("%x", sum), nonce
}

// VerifyFingerprint recomputes the digest from the stored content and nonce
// and reports whether it matches exactly. Used to detect post-hoc tampering
// with stored claim content.
func VerifyFingerprint(digest string, in FingerprintInput, nonce string) bool {
	got, _ := Fingerprint(in, nonce)
	return got == digest
}

// VerifyClaim recomputes a stored claim's fingerprint over the content
// known at submission time and reports whether it still matches. Evidence
// appended after submission carries a later upload timestamp and is
// outside the fingerprinted set.
func VerifyClaim(c *model.Claim) bool {
	var ids []string
	for _, ev := range c.Evidence {
		if !ev.UploadedAt.After(c.CreatedAt) {
			ids = append(ids, ev.ContentID)
		}
	}
	return VerifyFingerprint(c.Fingerprint, FingerprintInput{
		ContributorID:      c.ContributorID,
		CreatedAt:          c.CreatedAt,
		Polygon:            c.Location.Polygon,
		EvidenceContentIDs: ids,
	}, c.FingerprintNonce)
}

// canonicalInput serializes the fingerprint input into one deterministic
// form: keys in alphabetical order, evidence content ids sorted
// lexicographically, polygon vertices in submission order (vertex order is
// part of the claimed geometry and must affect the digest).
func canonicalInput(in FingerprintInput) string {
	ids := append([]string(nil), in.EvidenceContentIDs...)
	sort.Strings(ids)

	fields := map[string]any{
		"contributorId":      in.ContributorID,
		"createdAt":          in.CreatedAt.UTC().Format(time.RFC3339Nano),
		"evidenceContentIds": ids,
		"polygon":            in.Polygon,
	}
	return canonicalize(fields)
}

// canonicalize renders a value as a deterministic string: object keys are
// visited in sorted order, arrays in element order, scalars without any
// locale or width ambiguity.
func canonicalize(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, strconv.Quote(k)+":"+canonicalize(t[k]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []string:
		parts := make([]string, 0, len(t))
		for _, s := range t {
			parts = append(parts, strconv.Quote(s))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case [][2]float64:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, "["+formatFloat(p[0])+","+formatFloat(p[1])+"]")
		}
		return "[" + strings.Join(parts, ",") + "]"
	case string:
		return strconv.Quote(t)
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatFloat renders a coordinate with the shortest representation that
// round-trips, so canonical form does not depend on caller formatting.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
