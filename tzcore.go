// Package tzcore is the facade that assembles the core's components
// (tzif, posixrule, zoneinfo, tzcache) behind the single operation most
// callers want: resolve a zone key to a *zoneinfo.Zone. It owns the
// process-wide default cache, mirroring how Python's zoneinfo.ZoneInfo
// is backed by a module-level cache unless a caller opts out.
package tzcore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gozoneinfo/tzcore/tzcache"
	"github.com/gozoneinfo/tzcore/tzdist"
	"github.com/gozoneinfo/tzcore/tzlocate"
	"github.com/gozoneinfo/tzcore/zoneinfo"
)

// Locator and Fetcher are the two collaborators a Cache's Loader
// chains: first the local search path, then the bundled-data fetch.
// They default to tzlocate.FileSystemLocator and tzdist.DefaultClient
// but can be swapped (e.g. in tests, or to point at a vendored
// zoneinfo tree) via SetLocator / SetFetcher.
var (
	locator tzlocate.Locator = tzlocate.NewFileSystemLocator("")
	fetcher *tzdist.Client   = tzdist.DefaultClient
	cache   *tzcache.Cache   = tzcache.New(load, tzcache.DefaultStrongCapacity)
)

// SetLocator overrides the local search-path collaborator used by the
// default cache's loader. Intended for tests and for embedders that
// bundle zoneinfo data outside /usr/share/zoneinfo.
func SetLocator(l tzlocate.Locator) { locator = l }

// SetFetcher overrides the bundled-data collaborator consulted when
// SetLocator's Locator reports KindNotFound.
func SetFetcher(c *tzdist.Client) { fetcher = c }

// Load returns the shared, cache-backed Zone for key, building it if
// this is the first request (in this process) for that key. Repeated
// calls for the same key return the same *zoneinfo.Zone while any
// external strong reference to it survives.
func Load(key string) (*zoneinfo.Zone, error) {
	return cache.Get(key)
}

// LoadNoCache builds a fresh Zone for key every time, bypassing the
// process cache entirely. The returned Zone is never Equal-by-identity
// to one returned by Load, though it is Equal by lookup behavior
// (spec.md invariant 8).
func LoadNoCache(key string) (*zoneinfo.Zone, error) {
	return load(key)
}

// FromReader decodes a Zone directly from raw TZif bytes, bypassing
// both the search-path collaborators and the cache (spec's
// Zone.from_file). key need not correspond to any real search-path
// entry; it is used only for Zone.Key and error messages.
func FromReader(r io.Reader, key string) (*zoneinfo.Zone, error) {
	z, err := zoneinfo.Decode(r, key)
	if err != nil {
		return nil, newError(KindMalformedData, key, err)
	}
	return z, nil
}

// ClearCache empties the process-wide cache entirely when called with
// no arguments, or drops only the named keys otherwise.
func ClearCache(keys ...string) {
	cache.Clear(keys...)
}

// load is the tzcache.Loader backing the default cache: consult the
// local search path first, and only fall back to the bundled-data
// fetch when the search path reports the key genuinely absent (as
// opposed to some other I/O failure).
func load(key string) (*zoneinfo.Zone, error) {
	if err := tzlocate.ValidateKey(key); err != nil {
		return nil, newError(KindInvalidKey, key, err)
	}

	rc, err := locator.Find(key)
	if err == nil {
		defer rc.Close()
		z, derr := zoneinfo.Decode(rc, key)
		if derr != nil {
			return nil, newError(KindMalformedData, key, derr)
		}
		return z, nil
	}

	var lerr *tzlocate.Error
	if !errors.As(err, &lerr) || lerr.Kind != tzlocate.KindNotFound {
		return nil, newError(KindIoError, key, err)
	}

	data, _, ferr := fetcher.Fetch(context.Background(), key, "")
	if ferr != nil {
		return nil, newError(KindNoSuchZone, key, fmt.Errorf("not found on search path or bundle: %w", ferr))
	}
	z, derr := zoneinfo.Decode(bytes.NewReader(data), key)
	if derr != nil {
		return nil, newError(KindMalformedData, key, derr)
	}
	return z, nil
}
