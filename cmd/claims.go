package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/air-restore/restore-cli/internal/claim"
	"github.com/air-restore/restore-cli/internal/model"
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Inspect and decide claims",
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List claims",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")
		contributor, _ := cmd.Flags().GetString("contributor")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		sortField, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		format, _ := cmd.Flags().GetString("format")

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		result, err := svc.List(cmd.Context(), claim.Filter{
			Status:        model.ClaimStatus(status),
			ContributorID: contributor,
			Page:          page,
			Limit:         limit,
			SortField:     sortField,
			SortOrder:     order,
		})
		if err != nil {
			return err
		}

		if format == "table" {
			formatClaimTable(os.Stdout, result.Data)
			fmt.Printf("page %d of %d (%d total)\n", result.Page, result.Pages, result.Total)
			return nil
		}
		return printFormatted(format, result)
	},
}

var claimsGetCmd = &cobra.Command{
	Use:   "get <claim-id>",
	Short: "Show one claim in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		c, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printFormatted(format, c)
	},
}

var claimsDecideCmd = &cobra.Command{
	Use:   "decide <claim-id>",
	Short: "Approve or reject a pending claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		approve, _ := cmd.Flags().GetBool("approve")
		reject, _ := cmd.Flags().GetBool("reject")
		credits, _ := cmd.Flags().GetFloat64("credits")
		notes, _ := cmd.Flags().GetString("notes")
		actorID, _ := cmd.Flags().GetString("actor-id")
		actorName, _ := cmd.Flags().GetString("actor-name")

		if approve == reject {
			return fmt.Errorf("exactly one of --approve or --reject is required")
		}

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		var creditsPtr *float64
		if approve && credits > 0 {
			creditsPtr = &credits
		}
		actor := model.Actor{ID: actorID, Name: actorName, Role: model.RoleVerifier}
		c, credit, err := svc.Decide(cmd.Context(), actor, args[0], approve, creditsPtr, notes)
		if err != nil {
			return err
		}

		fmt.Printf("%s is now %s\n", c.ClaimID, c.Status)
		if credit != nil {
			fmt.Printf("issued credit %s: %.2f to %s\n", credit.ID, credit.Amount, credit.OwnerID)
		}
		return nil
	},
}

var claimsEvidenceCmd = &cobra.Command{
	Use:   "evidence <claim-id>",
	Short: "Append an evidence item to a pending claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		kind, _ := cmd.Flags().GetString("kind")
		url, _ := cmd.Flags().GetString("url")
		contentID, _ := cmd.Flags().GetString("content-id")
		actorID, _ := cmd.Flags().GetString("actor-id")
		actorName, _ := cmd.Flags().GetString("actor-name")

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		actor := model.Actor{ID: actorID, Name: actorName, Role: model.RoleContributor}
		c, err := svc.AppendEvidence(cmd.Context(), actor, args[0], model.Evidence{
			Name:      name,
			Kind:      kind,
			URL:       url,
			ContentID: contentID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d evidence items\n", c.ClaimID, len(c.Evidence))
		return nil
	},
}

var claimsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")

		svc, closeFn, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		stats, err := svc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printFormatted(format, stats)
	},
}

func init() {
	f := claimsListCmd.Flags()
	f.String("status", "", "filter by status (pending, verified, rejected)")
	f.String("contributor", "", "filter by contributor id")
	f.Int("page", 1, "page number")
	f.Int("limit", 20, "page size")
	f.String("sort", "created_at", "sort field")
	f.String("order", "desc", "sort order (asc or desc)")
	f.String("format", "table", "output format: table, json, or yaml")

	claimsGetCmd.Flags().String("format", "json", "output format: json or yaml")

	d := claimsDecideCmd.Flags()
	d.Bool("approve", false, "approve the claim")
	d.Bool("reject", false, "reject the claim")
	d.Float64("credits", 0, "credits to issue on approval")
	d.String("notes", "", "verifier notes")
	d.String("actor-id", "", "verifier id (required)")
	d.String("actor-name", "", "verifier display name")
	_ = claimsDecideCmd.MarkFlagRequired("actor-id")

	e := claimsEvidenceCmd.Flags()
	e.String("name", "", "evidence name (required)")
	e.String("kind", "", "evidence kind, e.g. photo or report")
	e.String("url", "", "evidence URL")
	e.String("content-id", "", "content identifier from the upload transport (required)")
	e.String("actor-id", "", "contributor id (required)")
	e.String("actor-name", "", "contributor display name")
	_ = claimsEvidenceCmd.MarkFlagRequired("name")
	_ = claimsEvidenceCmd.MarkFlagRequired("content-id")
	_ = claimsEvidenceCmd.MarkFlagRequired("actor-id")

	claimsStatsCmd.Flags().String("format", "json", "output format: json or yaml")

	claimsCmd.AddCommand(claimsListCmd, claimsGetCmd, claimsDecideCmd, claimsEvidenceCmd, claimsStatsCmd)
	rootCmd.AddCommand(claimsCmd)
}
