package generate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricepages/awscatalog/internal/catalog"
	"github.com/pricepages/awscatalog/internal/fetch"
	"github.com/pricepages/awscatalog/internal/pricelist"
)

const testServiceIndex = `{
	"formatVersion": "v1.0",
	"offers": {
		"AmazonEC2": {
			"offerCode": "AmazonEC2",
			"currentRegionIndexUrl": "/offers/v1.0/aws/AmazonEC2/current/region_index.json"
		}
	}
}`

const testRegionIndex = `{
	"regions": {
		"us-west-2": {
			"regionCode": "us-west-2",
			"currentVersionUrl": "/offers/v1.0/aws/AmazonEC2/20240101/us-west-2/index.json"
		}
	}
}`

const testOfferDocument = `{
	"offerCode": "AmazonEC2",
	"version": "20240101000000",
	"publicationDate": "2024-01-01T00:00:00Z",
	"products": {
		"LINUXSKU": {
			"sku": "LINUXSKU",
			"productFamily": "Compute Instance",
			"attributes": {
				"instanceType": "m5.large",
				"operatingSystem": "Linux",
				"capacitystatus": "Used",
				"tenancy": "Shared",
				"preInstalledSw": "NA"
			}
		},
		"WINSKU": {
			"sku": "WINSKU",
			"productFamily": "Compute Instance",
			"attributes": {
				"instanceType": "m5.large",
				"operatingSystem": "Windows",
				"capacitystatus": "Used",
				"tenancy": "Shared",
				"preInstalledSw": "NA"
			}
		}
	},
	"terms": {
		"OnDemand": {
			"LINUXSKU": {
				"LINUXSKU.JRTCKXETXF": {
					"offerTermCode": "JRTCKXETXF",
					"priceDimensions": {
						"LINUXSKU.JRTCKXETXF.6YS6EN2CT7": {
							"rateCode": "LINUXSKU.JRTCKXETXF.6YS6EN2CT7",
							"unit": "Hrs",
							"pricePerUnit": {"USD": "0.0960000000"}
						}
					}
				}
			}
		},
		"Reserved": {
			"LINUXSKU": {
				"LINUXSKU.6QCMYABX3D": {
					"offerTermCode": "6QCMYABX3D",
					"termAttributes": {
						"LeaseContractLength": "1yr",
						"OfferingClass": "standard",
						"PurchaseOption": "All Upfront"
					},
					"priceDimensions": {
						"LINUXSKU.6QCMYABX3D.2TG2D8R56U": {
							"rateCode": "LINUXSKU.6QCMYABX3D.2TG2D8R56U",
							"unit": "Quantity",
							"pricePerUnit": {"USD": "400"}
						}
					}
				}
			}
		}
	}
}`

// newTestServer serves the three-level index hierarchy and counts requests.
func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	mux := http.NewServeMux()
	serve := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			calls++
			_, _ = w.Write([]byte(body))
		})
	}
	serve("/offers/v1.0/aws/index.json", testServiceIndex)
	serve("/offers/v1.0/aws/AmazonEC2/current/region_index.json", testRegionIndex)
	serve("/offers/v1.0/aws/AmazonEC2/20240101/us-west-2/index.json", testOfferDocument)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestGenerator(t *testing.T, baseURL, cacheDir, outDir string, targets []Target) *Generator {
	t.Helper()
	logger := zerolog.New(io.Discard)
	fetcher := fetch.New(cacheDir, logger, fetch.WithProgressWriter(io.Discard))
	client := pricelist.NewClient(baseURL, fetcher, logger)
	writer := catalog.NewWriter(outDir, logger)
	return New(client, writer, targets, logger)
}

func TestGeneratorWritesCatalogArtifacts(t *testing.T) {
	server, _ := newTestServer(t)
	outDir := t.TempDir()

	gen := newTestGenerator(t, server.URL, t.TempDir(), outDir, []Target{
		{Service: "AmazonEC2", Region: "us-west-2"},
	})
	require.NoError(t, gen.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(outDir, "AmazonEC2.min.json"))
	require.NoError(t, err)

	var products []struct {
		Type       string `json:"type"`
		Variations []struct {
			SKU    string                   `json:"sku"`
			Offers []map[string]interface{} `json:"offers"`
		} `json:"variations"`
	}
	require.NoError(t, json.Unmarshal(data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "m5.large", products[0].Type)

	// The Windows variant is filtered; only the Linux SKU survives, carrying
	// one on-demand and one reserved rate.
	require.Len(t, products[0].Variations, 1)
	assert.Equal(t, "LINUXSKU", products[0].Variations[0].SKU)
	assert.Len(t, products[0].Variations[0].Offers, 2)

	_, err = os.Stat(filepath.Join(outDir, "AmazonEC2.json"))
	require.NoError(t, err)
}

func TestGeneratorSecondRunServedFromCache(t *testing.T) {
	server, calls := newTestServer(t)
	cacheDir := t.TempDir()

	targets := []Target{{Service: "AmazonEC2", Region: "us-west-2"}}

	first := newTestGenerator(t, server.URL, cacheDir, t.TempDir(), targets)
	require.NoError(t, first.Run(context.Background()))
	assert.Equal(t, 3, *calls)

	second := newTestGenerator(t, server.URL, cacheDir, t.TempDir(), targets)
	require.NoError(t, second.Run(context.Background()))
	assert.Equal(t, 3, *calls)
}

func TestGeneratorSkipsUnknownServiceAndRegion(t *testing.T) {
	server, _ := newTestServer(t)
	outDir := t.TempDir()

	gen := newTestGenerator(t, server.URL, t.TempDir(), outDir, []Target{
		{Service: "AmazonNonexistent", Region: "us-west-2"},
		{Service: "AmazonEC2", Region: "mars-north-1"},
		{Service: "AmazonEC2", Region: "us-west-2"},
	})
	require.NoError(t, gen.Run(context.Background()))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	// Only the resolvable pair produced artifacts.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"AmazonEC2.json", "AmazonEC2.min.json"}, names)
}

func TestGeneratorFetchFailureAbortsRun(t *testing.T) {
	server, _ := newTestServer(t)
	baseURL := server.URL
	server.Close()

	gen := newTestGenerator(t, baseURL, t.TempDir(), t.TempDir(), DefaultTargets)
	err := gen.Run(context.Background())

	var reqErr *fetch.RequestError
	require.ErrorAs(t, err, &reqErr)
}
