package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/air-restore/restore-cli/internal/model"
)

// printFormatted renders v as json or yaml on stdout.
func printFormatted(format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return eris.Wrap(enc.Encode(v), "encode yaml")
	default:
		return eris.Errorf("unknown format: %s", format)
	}
}

// formatClaimTable renders a compact table of claims.
func formatClaimTable(out io.Writer, claims []model.Claim) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLAIM ID\tSTATUS\tCONTRIBUTOR\tCOUNTRY\tAREA\tEVIDENCE\tCREDITS\tCREATED")
	for i := range claims {
		c := &claims[i]
		credits := "-"
		if c.CreditsIssued != nil {
			credits = fmt.Sprintf("%.2f", *c.CreditsIssued)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			c.ClaimID, c.Status, c.ContributorName, c.Location.Country,
			c.AreaUnit, len(c.Evidence), credits,
			c.CreatedAt.Format("2006-01-02"),
		)
	}
	w.Flush()
}
