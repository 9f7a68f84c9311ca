package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimStatus_Terminal(t *testing.T) {
	assert.False(t, ClaimStatusPending.Terminal())
	assert.True(t, ClaimStatusVerified.Terminal())
	assert.True(t, ClaimStatusRejected.Terminal())
}

func TestClaimStatus_Valid(t *testing.T) {
	assert.True(t, ClaimStatusPending.Valid())
	assert.True(t, ClaimStatusVerified.Valid())
	assert.True(t, ClaimStatusRejected.Valid())
	assert.False(t, ClaimStatus("approved").Valid())
	assert.False(t, ClaimStatus("").Valid())
}

func TestClaim_EvidenceContentIDs(t *testing.T) {
	c := &Claim{
		Evidence: []Evidence{
			{Name: "before.jpg", ContentID: "bafy-aaa"},
			{Name: "after.jpg", ContentID: "bafy-bbb"},
		},
	}
	assert.Equal(t, []string{"bafy-aaa", "bafy-bbb"}, c.EvidenceContentIDs())

	empty := &Claim{}
	assert.Empty(t, empty.EvidenceContentIDs())
}
