package main

import (
	"regexp"

	"github.com/spf13/cobra"

	"mwi/internal/crawl"
)

var heuristicCmd = &cobra.Command{
	Use:   "heuristic",
	Short: "offline host-normalization rewrites",
}

// defaultHeuristicRules canonicalizes the handful of host families known
// to alias a single real domain. Non-goals exclude a configurable rules
// file for this first cut; the list lives here until one is needed.
var defaultHeuristicRules = []crawl.HeuristicRule{
	{Pattern: regexp.MustCompile(`(?i)^https?://m\.facebook\.com`), Canonical: "facebook.com"},
	{Pattern: regexp.MustCompile(`(?i)^https?://mobile\.twitter\.com`), Canonical: "twitter.com"},
	{Pattern: regexp.MustCompile(`(?i)^https?://www\.youtube\.com`), Canonical: "youtube.com"},
}

var heuristicUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "apply host-normalization rules to every Expression URL across all Lands",
	RunE: func(cmd *cobra.Command, args []string) error {
		lands, err := db.ListLands("")
		if err != nil {
			return err
		}

		var processed, failed int
		h := &crawl.Heuristics{Store: db, Rules: defaultHeuristicRules}
		for _, land := range lands {
			summary, err := h.ApplyLand(land.ID)
			if err != nil {
				return err
			}
			processed += summary.Processed
			failed += summary.Errors
		}
		reportSummary(processed, failed)
		return nil
	},
}

func init() {
	heuristicCmd.AddCommand(heuristicUpdateCmd)
}
