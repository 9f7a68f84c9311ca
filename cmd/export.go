package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/export"
	"github.com/air-restore/restore-cli/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the claim registry to an .xlsx workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("out", "claims.xlsx", "output file path")
	exportCmd.Flags().String("status", "", "filter by status (pending, verified, rejected)")
	exportCmd.Flags().String("contributor", "", "filter by contributor id")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	status, _ := cmd.Flags().GetString("status")
	contributor, _ := cmd.Flags().GetString("contributor")

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	filter := claim.Filter{
		Status:        model.ClaimStatus(status),
		ContributorID: contributor,
		Limit:         100,
		SortField:     "claim_id",
		SortOrder:     "asc",
	}

	var claims []model.Claim
	for page := 1; ; page++ {
		filter.Page = page
		result, err := svc.List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		claims = append(claims, result.Data...)
		if page >= result.Pages {
			break
		}
	}

	if err := export.WriteClaimsXLSX(out, claims); err != nil {
		return err
	}
	zap.L().Info("exported claims", zap.Int("count", len(claims)), zap.String("path", out))
	return nil
}
