// awscatalog fetches the public AWS price-list hierarchy, normalizes it into
// per-service product catalogs, and writes them as JSON artifacts for the
// price browsing frontend.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pricepages/awscatalog/internal/catalog"
	"github.com/pricepages/awscatalog/internal/fetch"
	"github.com/pricepages/awscatalog/internal/generate"
	"github.com/pricepages/awscatalog/internal/pricelist"
)

var (
	cacheDir    string
	outDir      string
	baseURL     string
	targetsFile string
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "awscatalog",
		Short: "Generate browsable AWS price catalogs",
		Long: `Fetches the AWS Price List index hierarchy for the configured
(service, region) pairs, normalizes on-demand and reserved pricing terms,
and writes one pretty and one minified JSON catalog per service.

Downloads are cached on disk by URL, so re-runs only fetch what changed
paths point at.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "cache", "Directory for cached downloads")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", pricelist.DefaultBaseURL, "Price list API base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&outDir, "out-dir", "out", "Directory for catalog artifacts")
	rootCmd.Flags().StringVar(&targetsFile, "targets", "", "YAML file overriding the built-in (service, region) list")

	listCmd := &cobra.Command{
		Use:   "list-services",
		Short: "Print the raw top-level service index as JSON and exit",
		RunE:  runListServices,
	}
	rootCmd.AddCommand(listCmd)

	if err := rootCmd.Execute(); err != nil {
		logger := newLogger()
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter()).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

func newClient(logger zerolog.Logger) (*pricelist.Client, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	fetcher := fetch.New(cacheDir, logger)
	return pricelist.NewClient(baseURL, fetcher, logger), nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	targets := generate.DefaultTargets
	if targetsFile != "" {
		loaded, err := generate.LoadTargets(targetsFile)
		if err != nil {
			return err
		}
		targets = loaded
		logger.Info().Int("targets", len(targets)).Str("file", targetsFile).Msg("using targets file")
	}

	client, err := newClient(logger)
	if err != nil {
		return err
	}

	writer := catalog.NewWriter(outDir, logger)
	generator := generate.New(client, writer, targets, logger)
	return generator.Run(cmd.Context())
}

func runListServices(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	client, err := newClient(logger)
	if err != nil {
		return err
	}

	raw, err := client.RawServiceIndex(cmd.Context())
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(raw)
	return err
}
