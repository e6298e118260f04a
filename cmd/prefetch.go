package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagResolveHead int

var prefetchCmd = &cobra.Command{
	Use:   "prefetch [bucket...]",
	Short: "Warm prefetch buckets once and exit",
	Long: `Prefetch fills the given buckets (default: the configured ones) with
fresh metadata and optionally resolves the first few items of each, so a
following serve start answers from a warm cache.`,
	RunE: prefetchRun,
}

func init() {
	prefetchCmd.Flags().IntVar(&flagResolveHead, "resolve", 0, "Also resolve the first N items per bucket")
	prefetchCmd.Flags().BoolVar(&flagNoPersist, "no-persist", false, "Disable the durable stream cache")
}

func prefetchRun(cmd *cobra.Command, args []string) error {
	buckets := args
	if len(buckets) == 0 {
		buckets = cfg.Buckets
	}

	fetcher := newFetcher()
	orch := newOrchestrator(fetcher, nil)

	store := openStore()
	if store != nil {
		defer store.Close()
	}
	c := newCache(orch, fetcher, store)

	for _, bucket := range buckets {
		if err := c.Fill(cmd.Context(), bucket); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "bucket %s: %v\n", bucket, err)
			continue
		}
		if flagResolveHead > 0 {
			c.Promote(cmd.Context(), bucket, flagResolveHead)
		}

		items := c.Items(cmd.Context(), bucket)
		resolved := 0
		for _, item := range items {
			if item.Resolved() {
				resolved++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d items, %d resolved\n", bucket, len(items), resolved)
	}
	return nil
}
