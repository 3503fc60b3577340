// Package registryclient talks to the static HTTP registry index (spec §6
// "Registry index") and keeps a local on-disk cache of `versions.json`
// responses so `--offline` installs can succeed against previously-fetched
// metadata (SPEC_FULL.md §4.2.1).
//
// Grounded on teacher's pkg/httputil for the bounded-timeout client and
// structured HTTP error formatting; the cache-then-serve-stale-on-failure
// pattern mirrors gh-aw's own workflow-download caching approach.
package registryclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/botpack/botpack/pkg/boterrors"
	"github.com/botpack/botpack/pkg/httputil"
	"github.com/botpack/botpack/pkg/logger"
)

var registryLog = logger.New("registryclient")

// SchemaVersion is the only registry index schema this client understands.
const SchemaVersion = 1

// VersionEntry is one version's record within a package's index.
type VersionEntry struct {
	Source    string `json:"source"`
	Integrity string `json:"integrity,omitempty"`
}

// Index is the parsed response of `GET <base>/<name>/versions.json`.
type Index struct {
	Schema   int                     `json:"schema"`
	Name     string                  `json:"name"`
	Versions map[string]VersionEntry `json:"versions"`
}

// Client fetches and caches registry version indices.
type Client struct {
	http     *httputil.Client
	baseURL  string
	cacheDir string
	offline  bool
}

// New returns a registry client rooted at baseURL, caching responses under
// cacheDir (the CLI passes the workspace's ".botpack/registry-cache"). When offline is true, the
// network is never touched and a cache miss is a *fetch* error.
func New(baseURL, cacheDir string, offline bool) *Client {
	return &Client{
		http:     httputil.NewClient(nil),
		baseURL:  baseURL,
		cacheDir: cacheDir,
		offline:  offline,
	}
}

// Versions fetches (or serves from cache) the version index for name.
// Registry entries are immutable, so once cached an entry is reused
// whenever the network is unavailable, not just under --offline.
func (c *Client) Versions(ctx context.Context, name string) (*Index, error) {
	cachePath := c.cachePath(name)

	if c.offline {
		idx, err := readCache(cachePath)
		if err != nil {
			return nil, boterrors.New(boterrors.KindFetch, name,
				fmt.Errorf("--offline and no cached registry entry: %w", err))
		}
		return idx, nil
	}

	idx, err := c.fetch(ctx, name)
	if err != nil {
		if cached, cacheErr := readCache(cachePath); cacheErr == nil {
			registryLog.Printf("%s: registry unreachable (%v), serving cached index", name, err)
			return cached, nil
		}
		return nil, boterrors.New(boterrors.KindFetch, name, err)
	}

	if err := writeCache(cachePath, idx); err != nil {
		registryLog.Printf("%s: failed to write registry cache: %v", name, err)
	}
	return idx, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*Index, error) {
	url := fmt.Sprintf("%s/%s/versions.json", c.baseURL, name)
	req, err := c.http.NewRequest(http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httputil.FormatHTTPError(resp.StatusCode, body, "registry index fetch")
	}

	var idx Index
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("decoding registry index for %s: %w", name, err)
	}
	if idx.Schema != SchemaVersion {
		return nil, fmt.Errorf("registry index for %s: unsupported schema %d", name, idx.Schema)
	}
	return &idx, nil
}

func (c *Client) cachePath(name string) string {
	key := sha256.Sum256([]byte(c.baseURL + "\x00" + name))
	return filepath.Join(c.cacheDir, hex.EncodeToString(key[:])+".json")
}

func readCache(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func writeCache(path string, idx *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
