// Package export writes registry views to reviewer-friendly formats.
package export

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/air-restore/restore-cli/internal/model"
)

var claimHeader = []string{
	"Claim ID", "Status", "Contributor", "Country", "State", "City",
	"Area", "Evidence", "Credits Issued", "Verifier", "Fingerprint",
	"Created At", "Verified At",
}

// WriteClaimsXLSX writes the given claims to an .xlsx workbook at path,
// one row per claim plus a header row.
func WriteClaimsXLSX(path string, claims []model.Claim) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Claims")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range claimHeader {
		header.AddCell().Value = h
	}

	for i := range claims {
		addClaimRow(sheet, &claims[i])
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addClaimRow(sheet *xlsx.Sheet, c *model.Claim) {
	row := sheet.AddRow()
	row.AddCell().Value = c.ClaimID
	row.AddCell().Value = string(c.Status)
	row.AddCell().Value = c.ContributorName
	row.AddCell().Value = c.Location.Country
	row.AddCell().Value = c.Location.State
	row.AddCell().Value = c.Location.City
	row.AddCell().SetFloat(c.AreaUnit)
	row.AddCell().Value = strconv.Itoa(len(c.Evidence))
	if c.CreditsIssued != nil {
		row.AddCell().SetFloat(*c.CreditsIssued)
	} else {
		row.AddCell().Value = ""
	}
	row.AddCell().Value = c.VerifierName
	row.AddCell().Value = c.Fingerprint
	row.AddCell().Value = c.CreatedAt.UTC().Format(time.RFC3339)
	if c.VerifiedAt != nil {
		row.AddCell().Value = c.VerifiedAt.UTC().Format(time.RFC3339)
	} else {
		row.AddCell().Value = ""
	}
}
