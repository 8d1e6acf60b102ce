package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"mwi/internal/config"
	"mwi/internal/crawl"
	"mwi/internal/fetch"
	"mwi/internal/readable"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "domain metadata enrichment",
}

var (
	domainCrawlLimit int
	domainCrawlHTTP  string
)

var domainCrawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "fetch and record homepage metadata for pending Domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := fetch.New(fetch.Config{
			Parallelism:    cfg.Fetcher.Parallelism,
			UserAgent:      cfg.Fetcher.UserAgent,
			TotalTimeout:   config.Duration(cfg.Fetcher.TotalTimeout, 30*time.Second),
			ConnectTimeout: config.Duration(cfg.Fetcher.ConnectTimeout, 10*time.Second),
			ArchiveURL:     cfg.Fetcher.ArchiveURL,
		})
		enricher := &crawl.DomainEnricher{
			Store:     db,
			Fetcher:   fetcher,
			Extractor: readable.ReadabilityExtractor{},
		}

		summary, err := enricher.EnrichDomains(context.Background(), crawl.DomainOptions{
			Limit:      domainCrawlLimit,
			HTTPStatus: domainCrawlHTTP,
		})
		if err != nil {
			return err
		}
		reportSummary(summary.Processed, summary.Errors)
		return nil
	},
}

func init() {
	domainCrawlCmd.Flags().IntVar(&domainCrawlLimit, "limit", 0, "maximum number of domains to process")
	domainCrawlCmd.Flags().StringVar(&domainCrawlHTTP, "http", "", "re-run filter: only domains previously left at this http_status")
	domainCmd.AddCommand(domainCrawlCmd)
}
