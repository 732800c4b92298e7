// Package generate orchestrates the catalog pipeline: it walks the
// configured (service, region) pairs through the price-list index hierarchy,
// builds the per-service product catalogs, and writes their artifacts.
package generate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pricepages/awscatalog/internal/catalog"
	"github.com/pricepages/awscatalog/internal/pricelist"
)

// Generator runs the price normalization pipeline for a set of targets.
type Generator struct {
	client  *pricelist.Client
	engine  *catalog.RateEngine
	writer  *catalog.Writer
	targets []Target
	logger  zerolog.Logger
}

// New creates a Generator. targets are processed strictly in order, one pair
// at a time; fetches are never concurrent so remote load stays bounded and
// progress output stays single-stream.
func New(client *pricelist.Client, writer *catalog.Writer, targets []Target, logger zerolog.Logger) *Generator {
	return &Generator{
		client:  client,
		engine:  catalog.NewRateEngine(logger),
		writer:  writer,
		targets: targets,
		logger:  logger,
	}
}

// Run executes the full pipeline. A fetch, persist, or malformed-term
// failure aborts the run; re-running resumes from the download cache. A
// configured service or region missing from the remote indices is skipped,
// not an error.
func (g *Generator) Run(ctx context.Context) error {
	index, err := g.client.ServiceIndex(ctx)
	if err != nil {
		return err
	}

	for _, target := range g.targets {
		if err := g.processTarget(ctx, index, target); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) processTarget(ctx context.Context, index *pricelist.ServiceIndex, target Target) error {
	logger := g.logger.With().
		Str("service", target.Service).
		Str("region", target.Region).
		Logger()

	regionIndexPath, ok := index.RegionIndexURL(target.Service)
	if !ok {
		logger.Warn().Msg("service not in index, skipping")
		return nil
	}

	regions, err := g.client.RegionIndex(ctx, target.Service, regionIndexPath)
	if err != nil {
		return err
	}

	offerPath, ok := regions.OfferURL(target.Region)
	if !ok {
		logger.Warn().Msg("region not in service's region index, skipping")
		return nil
	}

	doc, err := g.client.OfferDocument(ctx, target.Service, target.Region, offerPath)
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", doc.Version).
		Str("published", doc.PublicationDate).
		Msg("building catalog")

	products := catalog.Extract(doc)
	for _, product := range products {
		if err := g.engine.AttachOffers(product, doc.Terms); err != nil {
			return err
		}
	}

	return g.writer.Write(target.Service, products)
}
