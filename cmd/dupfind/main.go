// Command dupfind finds the longest near-duplicate substring between
// every pair of documents in one domain of a SQLite-backed corpus and
// writes the results as a JSON array of matches.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mtreilly/dupfind/internal/codepoint"
	"github.com/mtreilly/dupfind/internal/config"
	"github.com/mtreilly/dupfind/internal/dedup"
	"github.com/mtreilly/dupfind/internal/docstore"
	"github.com/mtreilly/dupfind/internal/ingest"
	"github.com/mtreilly/dupfind/internal/output"
	"github.com/mtreilly/dupfind/internal/suffixindex"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose     bool
		printConfig bool
	)

	cmd := &cobra.Command{
		Use:   "dupfind <database_path> <output_json_path> <domain> <threshold>",
		Short: "Find the longest near-duplicate substring between every pair of documents in a domain",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, verbose, printConfig)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace progress to stderr")
	cmd.Flags().BoolVar(&printConfig, "print-config", false, "dump the resolved configuration to stderr before running")

	return cmd
}

func run(args []string, verbose, printConfig bool) error {
	dbPath, outputPath, domain, thresholdArg := args[0], args[1], args[2], args[3]

	threshold, err := strconv.Atoi(thresholdArg)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", thresholdArg, err)
	}

	runID := uuid.New().String()[:8]
	logger := log.New(os.Stderr, fmt.Sprintf("[dupfind %s] ", runID), log.LstdFlags)
	trace := func(format string, a ...any) {
		if verbose {
			logger.Printf(format, a...)
		}
	}

	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if printConfig {
		dump, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprintf(os.Stderr, "--- resolved configuration ---\n%s\n", dump)
	}

	ctx := context.Background()

	trace("opening database %s", dbPath)
	source, err := ingest.Open(dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	ingestCfg := ingest.Config{
		Table:         cfg.Table,
		FilterColumn:  cfg.FilterColumn,
		ContentColumn: cfg.ContentColumn,
	}

	trace("validating schema on table %s", cfg.Table)
	if err := source.ValidateSchema(ctx, ingestCfg); err != nil {
		return err
	}

	trace("estimating corpus size for domain %q", domain)
	docCount, totalBytes, err := source.EstimateSize(ctx, ingestCfg, domain)
	if err != nil {
		return err
	}
	trace("domain %q: %s documents, %s of content", domain, humanize.Comma(docCount), humanize.Bytes(uint64(totalBytes)))

	separator, err := codepoint.FromString(cfg.Separator)
	if err != nil {
		return fmt.Errorf("invalid separator in configuration: %w", err)
	}
	store := docstore.NewWithCapacity(separator, int(totalBytes), int(totalBytes))

	progressToTTY := isatty.IsTerminal(os.Stderr.Fd())
	interval := cfg.BatchLogInterval
	if interval <= 0 {
		interval = 100
	}

	var processed int64
	for doc, err := range source.Documents(ctx, ingestCfg, domain) {
		if err != nil {
			return err
		}
		if _, err := store.Add(doc.Content, doc.ID); err != nil {
			return fmt.Errorf("add document %d: %w", doc.ID, err)
		}
		processed++
		if verbose && docCount > 0 && (processed%int64(interval) == 0 || processed == docCount) {
			pct := float64(processed) / float64(docCount) * 100
			line := fmt.Sprintf("processing documents... %s/%s (%.1f%%)",
				humanize.Comma(processed), humanize.Comma(docCount), pct)
			if progressToTTY {
				fmt.Fprintf(os.Stderr, "\r%s", line)
			} else {
				logger.Println(line)
			}
		}
	}
	if verbose && progressToTTY && docCount > 0 {
		fmt.Fprintln(os.Stderr)
	}

	algo := suffixindex.DoublingCountingSort
	if cfg.Builder == "naive" {
		algo = suffixindex.Naive
	}

	trace("building suffix index over %d documents (%s algorithm)", store.Len(), algo)
	matches, err := dedup.Find(store, threshold, dedup.WithAlgorithm(algo))
	if err != nil {
		return err
	}

	trace("writing %d matches to %s", len(matches), outputPath)
	if err := output.WriteFile(outputPath, matches); err != nil {
		return err
	}

	fmt.Printf("Found %d duplicate matches. Saved to %s\n", len(matches), outputPath)
	return nil
}
