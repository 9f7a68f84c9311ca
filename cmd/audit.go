package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/air-restore/restore-cli/internal/claim"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify the integrity fingerprint of every stored claim",
	Long: `Recomputes each claim's fingerprint from its stored content and nonce
and reports any claim whose digest no longer matches, which indicates the
stored content was altered after submission.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().Int("concurrency", 8, "claims verified in parallel")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	var (
		mu         sync.Mutex
		checked    int
		mismatched []string
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)

	for page := 1; ; page++ {
		result, err := svc.List(ctx, claim.Filter{Page: page, Limit: 100, SortField: "claim_id", SortOrder: "asc"})
		if err != nil {
			return err
		}
		for i := range result.Data {
			c := result.Data[i]
			g.Go(func() error {
				ok := claim.VerifyClaim(&c)
				mu.Lock()
				checked++
				if !ok {
					mismatched = append(mismatched, c.ClaimID)
				}
				mu.Unlock()
				if !ok {
					zap.L().Warn("fingerprint mismatch",
						zap.String("claim_id", c.ClaimID),
						zap.String("status", string(c.Status)),
					)
				}
				return nil
			})
		}
		if page >= result.Pages {
			break
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("checked %d claims, %d mismatched\n", checked, len(mismatched))
	for _, id := range mismatched {
		fmt.Printf("  %s\n", id)
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%d claims failed fingerprint verification", len(mismatched))
	}
	return nil
}
