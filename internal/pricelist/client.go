package pricelist

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public AWS Price List API endpoint. Index entries
// contain paths relative to this base.
const DefaultBaseURL = "https://pricing.us-east-1.amazonaws.com"

const serviceIndexPath = "/offers/v1.0/aws/index.json"

// Fetcher retrieves a document by URL, from a local cache when possible.
// label names the resource for progress reporting.
type Fetcher interface {
	Fetch(ctx context.Context, label, url string) ([]byte, error)
}

// Client decodes the price-list document hierarchy on top of a Fetcher.
type Client struct {
	baseURL string
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, fetcher Fetcher, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

// RawServiceIndex fetches the top-level service index and returns its bytes
// verbatim, for callers that print rather than traverse it.
func (c *Client) RawServiceIndex(ctx context.Context) ([]byte, error) {
	return c.fetcher.Fetch(ctx, "Services", c.baseURL+serviceIndexPath)
}

// ServiceIndex fetches and decodes the top-level service index.
func (c *Client) ServiceIndex(ctx context.Context) (*ServiceIndex, error) {
	data, err := c.RawServiceIndex(ctx)
	if err != nil {
		return nil, err
	}

	var index ServiceIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse service index: %w", err)
	}
	return &index, nil
}

// RegionIndex fetches and decodes the region index for one service.
// indexPath is the CurrentRegionIndexURL from the service index, relative to
// the client's base URL.
func (c *Client) RegionIndex(ctx context.Context, service, indexPath string) (*RegionIndex, error) {
	label := fmt.Sprintf("Regions for %s", service)
	data, err := c.fetcher.Fetch(ctx, label, c.baseURL+indexPath)
	if err != nil {
		return nil, err
	}

	var index RegionIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse region index for %s: %w", service, err)
	}
	return &index, nil
}

// OfferDocument fetches and decodes the offer document for one
// (service, region) pair. offerPath is the region's CurrentVersionURL.
func (c *Client) OfferDocument(ctx context.Context, service, region, offerPath string) (*OfferDocument, error) {
	label := fmt.Sprintf("Offers for %s on %s", service, region)
	data, err := c.fetcher.Fetch(ctx, label, c.baseURL+offerPath)
	if err != nil {
		return nil, err
	}

	var doc OfferDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse offer document for %s/%s: %w", service, region, err)
	}

	c.logger.Debug().
		Str("service", service).
		Str("region", region).
		Str("version", doc.Version).
		Str("published", doc.PublicationDate).
		Int("products", len(doc.Products)).
		Msg("offer document loaded")

	return &doc, nil
}
