package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mwi/internal/config"
	"mwi/internal/content"
	"mwi/internal/crawl"
	"mwi/internal/dictionary"
	"mwi/internal/fetch"
	"mwi/internal/gate"
	"mwi/internal/media"
	"mwi/internal/model"
	"mwi/internal/readable"
	"mwi/internal/store"
)

var landCmd = &cobra.Command{
	Use:   "land",
	Short: "bounded research project operations",
}

// resolveLand fetches a Land by name, surfacing the "unknown Land"
// configuration error the spec calls out as fatal-to-the-verb.
func resolveLand(name string) (*model.Land, error) {
	land, err := db.GetLand(name)
	if err == store.ErrNotFound {
		return nil, fmt.Errorf("unknown land %q", name)
	}
	return land, err
}

// loadDictionary builds the immutable per-run dictionary snapshot a Land's
// scoring pass reads for its duration.
func loadDictionary(landID int64, lang string) (*dictionary.Dictionary, error) {
	lemmas, err := db.Dictionary(landID)
	if err != nil {
		return nil, err
	}
	return dictionary.Build(lemmas, lang), nil
}

// buildGate constructs the optional relevance gate from configuration, or
// returns nil when disabled.
func buildGate() (content.Gate, error) {
	if !cfg.Gate.Enabled {
		return nil, nil
	}
	return gate.NewGenAIGate(cfg.Gate.APIKey, cfg.Gate.Model, cfg.Gate.ReadableMaxChars, int64(cfg.Gate.MaxCallsPerRun))
}

// --- land create ---

var (
	landCreateDesc string
	landCreateLang string
)

var landCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a new Land",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := db.CreateLand(args[0], landCreateDesc, landCreateLang)
		if err != nil {
			return err
		}
		fmt.Printf("land %q created (id=%d)\n", land.Name, land.ID)
		reportSummary(1, 0)
		return nil
	},
}

// --- land list ---

var landListName string

var landListCmd = &cobra.Command{
	Use:   "list",
	Short: "list Lands",
	RunE: func(cmd *cobra.Command, args []string) error {
		lands, err := db.ListLands(landListName)
		if err != nil {
			return err
		}
		for _, l := range lands {
			fmt.Printf("%d\t%s\t%s\t%s\n", l.ID, l.Name, l.Lang, l.Description)
		}
		reportSummary(len(lands), 0)
		return nil
	},
}

// --- land addterm ---

// landAddTermCmd only registers new dictionary terms; it does not
// re-score already-fetched Expressions. The bulk re-score path lives in
// `land consolidate`, which re-derives relevance for every fetched
// Expression against the current dictionary snapshot — run it after
// addterm to apply new terms retroactively.
var landAddTermCmd = &cobra.Command{
	Use:   "addterm",
	Short: "register comma-separated terms into a Land's dictionary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}

		stemmer := dictionary.StemmerFor(land.Lang)
		terms := strings.Split(args[1], ",")

		var processed, failed int
		for _, raw := range terms {
			term := strings.TrimSpace(raw)
			if term == "" {
				continue
			}
			processed++
			tokens := dictionary.Tokenize(term)
			if len(tokens) == 0 {
				failed++
				continue
			}
			stemmed := make([]string, len(tokens))
			for i, t := range tokens {
				stemmed[i] = stemmer.Stem(t)
			}
			lemma := strings.Join(stemmed, " ")
			if err := db.AddTerm(land.ID, term, lemma); err != nil {
				failed++
			}
		}
		reportSummary(processed, failed)
		return nil
	},
}

// --- land addurl ---

var (
	landAddURLURLs string
	landAddURLPath string
)

var landAddURLCmd = &cobra.Command{
	Use:   "addurl",
	Short: "seed a Land with URLs, from a comma list or a file (one URL per line)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}

		var urls []string
		if landAddURLPath != "" {
			f, err := os.Open(landAddURLPath)
			if err != nil {
				return fmt.Errorf("open url file: %w", err)
			}
			defer f.Close()
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line != "" {
					urls = append(urls, line)
				}
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		} else if landAddURLURLs != "" {
			for _, u := range strings.Split(landAddURLURLs, ",") {
				u = strings.TrimSpace(u)
				if u != "" {
					urls = append(urls, u)
				}
			}
		} else {
			return fmt.Errorf("addurl requires --urls or --path")
		}

		var processed, failed int
		for _, u := range urls {
			processed++
			if _, err := db.UpsertExpression(land.ID, u, 0); err != nil {
				failed++
			}
		}
		reportSummary(processed, failed)
		return nil
	},
}

// --- land crawl ---

var (
	landCrawlLimit int
	landCrawlHTTP  string
	landCrawlDepth int
)

var landCrawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "fetch and process a Land's pending Expressions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}

		dict, err := loadDictionary(land.ID, land.Lang)
		if err != nil {
			return err
		}
		relevanceGate, err := buildGate()
		if err != nil {
			return err
		}

		fetcher := fetch.New(fetch.Config{
			Parallelism:    cfg.Fetcher.Parallelism,
			UserAgent:      cfg.Fetcher.UserAgent,
			TotalTimeout:   config.Duration(cfg.Fetcher.TotalTimeout, 30*time.Second),
			ConnectTimeout: config.Duration(cfg.Fetcher.ConnectTimeout, 10*time.Second),
			ArchiveURL:     cfg.Fetcher.ArchiveURL,
		})
		pipeline := &content.Pipeline{Store: db, Gate: relevanceGate, MaxDepth: cfg.Crawl.MaxDepth}
		dataDir, err := cfg.DataDir()
		if err != nil {
			return err
		}
		crawler := &crawl.Crawler{Store: db, Fetcher: fetcher, Pipeline: pipeline, BatchSize: cfg.Fetcher.Parallelism, ArchiveDir: dataDir}

		var maxDepth *int
		if cmd.Flags().Changed("depth") {
			maxDepth = &landCrawlDepth
		}

		summary, err := crawler.CrawlLand(context.Background(), land.ID, dict, land.Lang, crawl.CrawlOptions{
			Limit:      landCrawlLimit,
			HTTPStatus: landCrawlHTTP,
			MaxDepth:   maxDepth,
		})
		if err != nil {
			return err
		}
		reportSummary(summary.Processed, summary.Errors)
		return nil
	},
}

// --- land readable ---

var (
	landReadableLimit int
	landReadableDepth int
	landReadableMerge string
)

var landReadableCmd = &cobra.Command{
	Use:   "readable",
	Short: "run the offline readability refiner over a Land's fetched Expressions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}
		dict, err := loadDictionary(land.ID, land.Lang)
		if err != nil {
			return err
		}

		strategy := readable.MergeStrategy(landReadableMerge)
		if strategy == "" {
			strategy = readable.MergeStrategy(cfg.Readable.MergeStrategy)
		}

		refiner := &readable.Refiner{
			Store:     db,
			Extractor: readable.ReadabilityExtractor{},
			Strategy:  strategy,
			Retry:     readable.DefaultRetryConfig(),
			BatchSize: cfg.Readable.BatchSize,
		}

		var maxDepth *int
		if cmd.Flags().Changed("depth") {
			maxDepth = &landReadableDepth
		}

		summary, err := refiner.RefineLand(context.Background(), land.ID, dict, land.Lang, readable.Options{
			Limit:    landReadableLimit,
			MaxDepth: maxDepth,
		})
		if err != nil {
			return err
		}
		reportSummary(summary.Processed, summary.Errors)
		return nil
	},
}

// --- land consolidate ---

var (
	landConsolidateLimit int
	landConsolidateDepth int
)

var landConsolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "restore derived state from stored content, without refetching",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}
		dict, err := loadDictionary(land.ID, land.Lang)
		if err != nil {
			return err
		}

		var maxDepth *int
		if cmd.Flags().Changed("depth") {
			maxDepth = &landConsolidateDepth
		}

		dataDir, err := cfg.DataDir()
		if err != nil {
			return err
		}
		consolidator := &crawl.Consolidator{Store: db, MaxDepth: cfg.Crawl.MaxDepth, ArchiveDir: dataDir}
		summary, err := consolidator.ConsolidateLand(land.ID, dict, land.Lang, crawl.ConsolidateOptions{
			Limit:    landConsolidateLimit,
			MaxDepth: maxDepth,
		})
		if err != nil {
			return err
		}
		reportSummary(summary.Processed, summary.Errors)
		return nil
	},
}

// --- land delete ---

var landDeleteMaxRel float64

var landDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "delete a Land, optionally keeping Expressions at or above a relevance floor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var maxRel *float64
		if cmd.Flags().Changed("maxrel") {
			maxRel = &landDeleteMaxRel
		}
		if err := db.DeleteLand(args[0], maxRel); err != nil {
			return err
		}
		reportSummary(1, 0)
		return nil
	},
}

// --- land medianalyse ---

var (
	landMediAnalyseDepth  int
	landMediAnalyseMinRel int
)

var landMediaAnalyseCmd = &cobra.Command{
	Use:   "medianalyse",
	Short: "analyze image Media discovered by a Land's Expressions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		land, err := resolveLand(args[0])
		if err != nil {
			return err
		}

		analyzer := media.NewAnalyzer(db, media.Config{
			MaxFileSizeBytes: cfg.Media.MaxFileSizeBytes,
			MinWidth:         cfg.Media.MinWidth,
			MinHeight:        cfg.Media.MinHeight,
			Retries:          cfg.Media.Retries,
			DominantColorsK:  cfg.Media.DominantColorsK,
			Thresholds:       media.DefaultContentHintThresholds(),
			UserAgent:        cfg.Fetcher.UserAgent,
		})

		var maxDepth *int
		if cmd.Flags().Changed("depth") {
			maxDepth = &landMediAnalyseDepth
		}
		var minRel *int
		if cmd.Flags().Changed("minrel") {
			minRel = &landMediAnalyseMinRel
		}

		processed, errored, err := analyzer.AnalyzeLand(context.Background(), land.ID, false, media.Options{
			MaxDepth:     maxDepth,
			MinRelevance: minRel,
		})
		if err != nil {
			return err
		}
		reportSummary(processed, errored)
		return nil
	},
}

func init() {
	landCreateCmd.Flags().StringVar(&landCreateDesc, "desc", "", "Land description")
	landCreateCmd.Flags().StringVar(&landCreateLang, "lang", "fr", "ISO language code")

	landListCmd.Flags().StringVar(&landListName, "name", "", "exact Land name filter")

	landAddURLCmd.Flags().StringVar(&landAddURLURLs, "urls", "", "comma-separated list of URLs")
	landAddURLCmd.Flags().StringVar(&landAddURLPath, "path", "", "path to a file of URLs, one per line")

	landCrawlCmd.Flags().IntVar(&landCrawlLimit, "limit", 0, "maximum number of Expressions to process")
	landCrawlCmd.Flags().StringVar(&landCrawlHTTP, "http", "", "re-run filter: only Expressions previously left at this http_status")
	landCrawlCmd.Flags().IntVar(&landCrawlDepth, "depth", 0, "maximum Expression depth to consider")

	landReadableCmd.Flags().IntVar(&landReadableLimit, "limit", 0, "maximum number of Expressions to refine")
	landReadableCmd.Flags().IntVar(&landReadableDepth, "depth", 0, "maximum Expression depth to consider")
	landReadableCmd.Flags().StringVar(&landReadableMerge, "merge", "", "merge strategy: smart_merge, mercury_priority, preserve_existing")

	landConsolidateCmd.Flags().IntVar(&landConsolidateLimit, "limit", 0, "maximum number of Expressions to consolidate")
	landConsolidateCmd.Flags().IntVar(&landConsolidateDepth, "depth", 0, "maximum Expression depth to consider")

	landDeleteCmd.Flags().Float64Var(&landDeleteMaxRel, "maxrel", 0, "delete only Expressions with relevance below this value")

	landMediaAnalyseCmd.Flags().IntVar(&landMediAnalyseDepth, "depth", 0, "maximum Expression depth to consider")
	landMediaAnalyseCmd.Flags().IntVar(&landMediAnalyseMinRel, "minrel", 0, "minimum Expression relevance to consider")

	landCmd.AddCommand(
		landCreateCmd,
		landListCmd,
		landAddTermCmd,
		landAddURLCmd,
		landCrawlCmd,
		landReadableCmd,
		landConsolidateCmd,
		landDeleteCmd,
		landMediaAnalyseCmd,
	)
}
