// Package tzdist fetches compiled TZif blobs from a remote bundle when
// no local file satisfies a lookup. This is the load_tzdata
// collaborator invoked only after every tzlocate.Locator has failed to
// find a key.
//
// Unlike IANA's own release archive (source-form zone tables that must
// be compiled before use), the bundle this package reads is a gzipped
// tar archive whose entries are already-compiled TZif files named
// after their zone key, e.g. "Europe/Minsk" or "America/Chicago" — the
// shape a platform's /usr/share/zoneinfo tree, or a language runtime's
// bundled tzdata package, ships in. tzcore never compiles TZif data
// itself; it only ever decodes bytes that are already in that format.
package tzdist

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const emptyEtag = ""

// Client fetches a compiled-TZif bundle over HTTP. The zero value is
// ready to use.
type Client struct {
	// HTTPClient is the http.Client used for requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// BundleURL is the location of the gzipped tar archive of compiled
	// TZif blobs. If empty, DefaultBundleURL is used.
	BundleURL string
}

// DefaultBundleURL points at a hypothetical "offline tzdata" mirror;
// deployments are expected to override Client.BundleURL with their own
// trusted source.
const DefaultBundleURL = "https://example.invalid/tzdata/latest.tar.gz"

// DefaultClient is used by the package-level Fetch function.
var DefaultClient = &Client{}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) bundleURL() string {
	if c.BundleURL == "" {
		return DefaultBundleURL
	}
	return c.BundleURL
}

// Fetch downloads the bundle (honoring etag via If-None-Match) and
// returns the raw TZif bytes for key. If the server reports the
// bundle unchanged (304), the returned bytes are nil, the returned etag
// is the one passed in, and err is nil — callers should treat this as
// "no newer data than what produced etag" rather than as a miss.
func Fetch(ctx context.Context, key, etag string) ([]byte, string, error) {
	return DefaultClient.Fetch(ctx, key, etag)
}

// Fetch is the Client method backing the package-level Fetch.
func (c *Client) Fetch(ctx context.Context, key, etag string) ([]byte, string, error) {
	body, newEtag, err := c.download(ctx, etag)
	if err != nil {
		return nil, emptyEtag, err
	}
	if body == nil {
		return nil, etag, nil // not modified
	}
	defer func() {
		_, _ = io.ReadAll(body)
		_ = body.Close()
	}()

	blobs, err := readBundle(body)
	if err != nil {
		return nil, emptyEtag, err
	}
	data, ok := blobs[key]
	if !ok {
		return nil, emptyEtag, fmt.Errorf("tzdist: key %q not present in bundle", key)
	}
	return data, newEtag, nil
}

func (c *Client) download(ctx context.Context, etag string) (io.ReadCloser, string, error) {
	u, err := url.Parse(c.bundleURL())
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("tzdist: parse bundle URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("tzdist: create request: %w", err)
	}
	if etag != emptyEtag {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, emptyEtag, fmt.Errorf("tzdist: GET %q: %w", u.String(), err)
	}

	if resp.StatusCode == http.StatusNotModified {
		_, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, etag, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, emptyEtag, fmt.Errorf("tzdist: GET %q: unexpected status %s", u.String(), resp.Status)
	}

	return resp.Body, resp.Header.Get("etag"), nil
}

// readBundle unpacks a gzipped tar archive into a map of zone key to
// raw TZif bytes. Entries are keyed by their tar path verbatim (e.g.
// "Europe/Minsk"), matching how real zoneinfo trees lay out nested
// zone names as nested directories.
func readBundle(r io.Reader) (map[string][]byte, error) {
	gunzip, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("tzdist: read gzip: %w", err)
	}
	tr := tar.NewReader(gunzip)

	blobs := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tzdist: read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data := make([]byte, header.Size)
		if _, err := io.ReadFull(tr, data); err != nil {
			return nil, fmt.Errorf("tzdist: read entry %q: %w", header.Name, err)
		}
		blobs[header.Name] = data
	}

	if len(blobs) == 0 {
		return nil, fmt.Errorf("tzdist: bundle contained no entries")
	}
	return blobs, nil
}
