// Package fetch downloads JSON documents and caches them on disk, keyed by a
// content-addressed hash of the request URL. Repeated runs against an
// unchanged remote are served entirely from the cache directory.
package fetch

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// requestTimeout bounds a single offer-document download. EC2 offer files run
// to hundreds of megabytes, so this is generous.
const requestTimeout = 5 * time.Minute

const progressChunkSize = 32 * 1024

// Fetcher retrieves remote JSON resources with a write-once disk cache.
// The cache key is a pure function of the URL, so a second run against the
// same URL never touches the network.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	progress io.Writer
	logger   zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithProgressWriter redirects the in-place download progress line, which
// goes to stderr by default.
func WithProgressWriter(w io.Writer) Option {
	return func(f *Fetcher) { f.progress = w }
}

// New creates a Fetcher persisting cache entries under cacheDir.
func New(cacheDir string, logger zerolog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: requestTimeout},
		cacheDir: cacheDir,
		progress: os.Stderr,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CacheKey returns the cache file name for a URL: the md5 hex digest of the
// URL followed by a human-readable slug. Deterministic across runs.
func CacheKey(url string) string {
	sum := md5.Sum([]byte(url)) //nolint:gosec // cache key, not a security boundary
	return hex.EncodeToString(sum[:]) + "-" + slugify(url)
}

// slugify lowercases the URL and collapses every non-alphanumeric run into a
// single dash, so the cache file name stays readable in directory listings.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Fetch returns the bytes of the resource at url, from cache when a prior run
// already downloaded it. label names the resource in the progress line.
//
// A transport or status failure returns a *RequestError; a failure to persist
// the downloaded bytes returns a *CacheWriteError. Both abort the caller's
// run, but re-running is safe: everything fetched so far is served from cache.
func (f *Fetcher) Fetch(ctx context.Context, label, url string) ([]byte, error) {
	path := filepath.Join(f.cacheDir, CacheKey(url))

	data, err := os.ReadFile(path)
	if err == nil {
		f.logger.Debug().Str("url", url).Str("entry", filepath.Base(path)).Msg("cache hit")
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn().Err(err).Str("entry", path).Msg("unreadable cache entry, refetching")
	}

	data, err = f.download(ctx, label, url)
	if err != nil {
		return nil, err
	}

	if err := f.persist(path, data); err != nil {
		return nil, err
	}

	f.logger.Debug().Str("url", url).Int("bytes", len(data)).Msg("cached")
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, label, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{URL: url, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	data, err := f.readWithProgress(label, resp.Body, resp.ContentLength)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	return data, nil
}

// readWithProgress drains body while rewriting a single progress line with
// the running percentage and byte counts. total comes from the
// Content-Length header; when the server omits it only byte counts are shown.
func (f *Fetcher) readWithProgress(label string, body io.Reader, total int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, progressChunkSize)
	var read int64

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += int64(n)
			f.printProgress(label, read, total)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprint(f.progress, "\n")
			return nil, err
		}
	}

	fmt.Fprint(f.progress, "\n")
	return buf.Bytes(), nil
}

func (f *Fetcher) printProgress(label string, read, total int64) {
	if total > 0 {
		percent := int(math.Ceil(float64(read) / float64(total) * 100))
		fmt.Fprintf(f.progress, "\x1b[2K\x1b[G[Downloading %s] %03d%% - %s/%s",
			label, percent, humanBytes(read), humanBytes(total))
		return
	}
	fmt.Fprintf(f.progress, "\x1b[2K\x1b[G[Downloading %s] %s", label, humanBytes(read))
}

func (f *Fetcher) persist(path string, data []byte) error {
	// Temp file in the cache directory itself so the rename stays on one
	// filesystem and a crashed run never leaves a partial entry behind.
	tmp, err := os.CreateTemp(f.cacheDir, ".fetch-*.tmp")
	if err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &CacheWriteError{Path: path, Err: err}
	}

	success = true
	return nil
}

// humanBytes formats a byte count with two decimals and a binary unit suffix.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
