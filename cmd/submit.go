package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/air-restore/restore-cli/internal/model"
	"github.com/air-restore/restore-cli/internal/shape"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a restoration claim from a draft file",
	Long: `Reads a claim draft from a JSON file and submits it as the given contributor.

The draft polygon can be replaced by the first polygon of an ESRI shapefile
with --shapefile, which is how most survey tooling exports plot boundaries.`,
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.String("draft", "", "path to claim draft JSON (required)")
	f.String("shapefile", "", "take the polygon from this shapefile instead of the draft")
	f.String("actor-id", "", "contributor id (required)")
	f.String("actor-name", "", "contributor display name")
	f.String("format", "json", "output format: json or yaml")
	_ = submitCmd.MarkFlagRequired("draft")
	_ = submitCmd.MarkFlagRequired("actor-id")

	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	draftPath, _ := cmd.Flags().GetString("draft")
	shapefile, _ := cmd.Flags().GetString("shapefile")
	actorID, _ := cmd.Flags().GetString("actor-id")
	actorName, _ := cmd.Flags().GetString("actor-name")
	format, _ := cmd.Flags().GetString("format")

	raw, err := os.ReadFile(draftPath)
	if err != nil {
		return eris.Wrapf(err, "read draft %s", draftPath)
	}
	var draft model.ClaimDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return eris.Wrap(err, "parse draft")
	}

	if shapefile != "" {
		ring, err := shape.PolygonFromShapefile(shapefile)
		if err != nil {
			return err
		}
		draft.Location.Polygon = ring
	}

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	actor := model.Actor{ID: actorID, Name: actorName, Role: model.RoleContributor}
	c, err := svc.Submit(cmd.Context(), actor, draft)
	if err != nil {
		return err
	}

	fmt.Printf("submitted %s\n", c.ClaimID)
	return printFormatted(format, map[string]any{
		"claim_id":    c.ClaimID,
		"fingerprint": c.Fingerprint,
		"status":      c.Status,
	})
}
