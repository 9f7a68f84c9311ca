package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/air-restore/restore-cli/internal/model"
)

func fingerprintFixture() FingerprintInput {
	return FingerprintInput{
		ContributorID: "contrib-1",
		CreatedAt:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Polygon: [][2]float64{
			{-46.63, -23.55}, {-46.62, -23.55}, {-46.62, -23.54}, {-46.63, -23.55},
		},
		EvidenceContentIDs: []string{"bafy-photo-1", "bafy-photo-2"},
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	in := fingerprintFixture()

	first, nonce := Fingerprint(in, "")
	require.NotEmpty(t, nonce)
	require.Len(t, first, 64)

	second, usedNonce := Fingerprint(in, nonce)
	assert.Equal(t, nonce, usedNonce)
	assert.Equal(t, first, second)
}

func TestFingerprintFreshNoncePerCall(t *testing.T) {
	in := fingerprintFixture()

	a, nonceA := Fingerprint(in, "")
	b, nonceB := Fingerprint(in, "")
	assert.NotEqual(t, nonceA, nonceB)
	assert.NotEqual(t, a, b, "same content with different nonces must digest differently")
}

func TestFingerprintEvidenceOrderIndependent(t *testing.T) {
	in := fingerprintFixture()
	reordered := fingerprintFixture()
	reordered.EvidenceContentIDs = []string{"bafy-photo-2", "bafy-photo-1"}

	a, _ := Fingerprint(in, "nonce")
	b, _ := Fingerprint(reordered, "nonce")
	assert.Equal(t, a, b)
}

func TestFingerprintPolygonOrderSensitive(t *testing.T) {
	in := fingerprintFixture()
	reversed := fingerprintFixture()
	for i, j := 0, len(reversed.Polygon)-1; i < j; i, j = i+1, j-1 {
		reversed.Polygon[i], reversed.Polygon[j] = reversed.Polygon[j], reversed.Polygon[i]
	}

	a, _ := Fingerprint(in, "nonce")
	b, _ := Fingerprint(reversed, "nonce")
	assert.NotEqual(t, a, b, "vertex order is part of the claimed geometry")
}

func TestVerifyFingerprintDetectsTampering(t *testing.T) {
	in := fingerprintFixture()
	digest, nonce := Fingerprint(in, "")
	require.True(t, VerifyFingerprint(digest, in, nonce))

	tampered := fingerprintFixture()
	tampered.Polygon[1] = [2]float64{-46.61, -23.55}
	assert.False(t, VerifyFingerprint(digest, tampered, nonce))

	tampered = fingerprintFixture()
	tampered.ContributorID = "contrib-2"
	assert.False(t, VerifyFingerprint(digest, tampered, nonce))

	assert.False(t, VerifyFingerprint(digest, in, "wrong-nonce"))
}

func TestVerifyClaimIgnoresAppendedEvidence(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	c := &model.Claim{
		ContributorID: "contrib-1",
		CreatedAt:     created,
		Location: model.Location{Polygon: [][2]float64{
			{-46.63, -23.55}, {-46.62, -23.55}, {-46.62, -23.54}, {-46.63, -23.55},
		}},
		Evidence: []model.Evidence{
			{ContentID: "bafy-photo-1", UploadedAt: created},
			{ContentID: "bafy-photo-2", UploadedAt: created},
		},
	}
	c.Fingerprint, c.FingerprintNonce = Fingerprint(FingerprintInput{
		ContributorID:      c.ContributorID,
		CreatedAt:          c.CreatedAt,
		Polygon:            c.Location.Polygon,
		EvidenceContentIDs: c.EvidenceContentIDs(),
	}, "")
	require.True(t, VerifyClaim(c))

	// Evidence appended later carries a later timestamp and stays outside
	// the fingerprinted set.
	c.Evidence = append(c.Evidence, model.Evidence{
		ContentID:  "bafy-photo-3",
		UploadedAt: created.Add(48 * time.Hour),
	})
	assert.True(t, VerifyClaim(c))

	// Altering a submission-time content id is tampering.
	c.Evidence[0].ContentID = "bafy-swapped"
	assert.False(t, VerifyClaim(c))
}

func TestCanonicalizeFloats(t *testing.T) {
	assert.Equal(t, "-23.55", formatFloat(-23.55))
	assert.Equal(t, "0", formatFloat(0))
	assert.Equal(t, "10", formatFloat(10.0))
}
