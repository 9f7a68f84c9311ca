package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatClaimID(t *testing.T) {
	assert.Equal(t, "AIR-CLAIM-0001", FormatClaimID(1))
	assert.Equal(t, "AIR-CLAIM-0042", FormatClaimID(42))
	assert.Equal(t, "AIR-CLAIM-9999", FormatClaimID(9999))
	assert.Equal(t, "AIR-CLAIM-10000", FormatClaimID(10000))
}

func TestParseClaimID(t *testing.T) {
	tests := []struct {
		id   string
		want int64
		ok   bool
	}{
		{"AIR-CLAIM-0001", 1, true},
		{"AIR-CLAIM-0420", 420, true},
		{"AIR-CLAIM-10000", 10000, true},
		{"AIR-CLAIM-001", 0, false},
		{"AIR-CLAIM-", 0, false},
		{"air-claim-0001", 0, false},
		{"AIR-CLAIM-12ab", 0, false},
		{"7b0c9c4e-9d9d-4a4e-9a44-6a1c9f0f8f3a", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		n, ok := ParseClaimID(tt.id)
		assert.Equal(t, tt.ok, ok, tt.id)
		assert.Equal(t, tt.want, n, tt.id)
		assert.Equal(t, tt.ok, IsClaimID(tt.id), tt.id)
	}
}
