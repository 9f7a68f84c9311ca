package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/air-restore/restore-cli/internal/model"
)

func TestWriteClaimsXLSX(t *testing.T) {
	credits := 42.5
	verifiedAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	claims := []model.Claim{
		{
			ClaimID:         "AIR-CLAIM-0001",
			Status:          model.ClaimStatusVerified,
			ContributorName: "Ana Souza",
			Location:        model.Location{Country: "Brazil", State: "SP"},
			AreaUnit:        12.5,
			Evidence:        []model.Evidence{{ContentID: "bafy-1"}, {ContentID: "bafy-2"}},
			CreditsIssued:   &credits,
			VerifierName:    "Joao Lima",
			Fingerprint:     "abc123",
			CreatedAt:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			VerifiedAt:      &verifiedAt,
		},
		{
			ClaimID:         "AIR-CLAIM-0002",
			Status:          model.ClaimStatusPending,
			ContributorName: "Maria Costa",
			Location:        model.Location{Country: "Brazil"},
			AreaUnit:        3.0,
			CreatedAt:       time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "claims.xlsx")
	require.NoError(t, WriteClaimsXLSX(path, claims))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Claims", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Claim ID", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "AIR-CLAIM-0001", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "verified", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "2", sheet.Rows[1].Cells[7].Value)
	assert.Equal(t, "2026-03-15T10:00:00Z", sheet.Rows[1].Cells[12].Value)

	// Pending claims leave the decision columns blank.
	assert.Equal(t, "AIR-CLAIM-0002", sheet.Rows[2].Cells[0].Value)
	assert.Equal(t, "", sheet.Rows[2].Cells[8].Value)
	assert.Equal(t, "", sheet.Rows[2].Cells[12].Value)
}

func TestWriteClaimsXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteClaimsXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1)
}
