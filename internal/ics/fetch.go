package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperr "icsconv/internal/errors"
	appLog "icsconv/internal/log"
)

const defaultFetchTimeout = 15 * time.Second

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loader reads calendar input from a local file, standard input or an
// http(s) URL. URLs are fetched with ETag / Last-Modified revalidation
// against a disk cache.
type Loader struct {
	client   *http.Client
	cacheDir string
	stdin    io.Reader
}

// NewLoader creates a Loader. An empty cacheDir disables the HTTP cache;
// a non-positive timeout uses 15s.
func NewLoader(cacheDir string, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Loader{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
		stdin:    os.Stdin,
	}
}

// IsRemote reports whether src names an http(s) URL.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsStdio reports whether src names standard input/output.
func IsStdio(src string) bool {
	return src == "-" || strings.EqualFold(src, "stdin") || strings.EqualFold(src, "stdout")
}

// Load returns the raw bytes of src.
func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, apperr.New(apperr.KindSource, "input is empty")
	case IsStdio(src):
		body, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindSource, "read stdin")
		}
		return body, nil
	case IsRemote(src):
		return l.fetch(ctx, src)
	default:
		body, err := os.ReadFile(src)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.KindSource, "read %s", src)
		}
		return body, nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if l.cacheDir != "" {
		cachePath = l.cachePathForURL(url)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			return nil, apperr.Wrap(err, apperr.KindSource, "create cache dir")
		}
		meta, _ = loadCacheMeta(cachePath)
		cachedBody, _ = os.ReadFile(filepath.Join(cachePath, "body.ics"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindSource, "build request")
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("ics fetch start", "url", redactURL(url))

	resp, err := l.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Warn("ics fetch network error, using cached body", "url", redactURL(url), "error", err.Error())
			return cachedBody, nil
		}
		return nil, apperr.Wrapf(err, apperr.KindSource, "fetch %s", redactURL(url))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindSource, "read response body")
		}
		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          url,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := saveCache(cachePath, newMeta, body); err != nil {
				appLog.Error("ics cache save failed", err, "url", redactURL(url))
			}
		}
		appLog.Info("ics fetch success", "url", redactURL(url), "bytes", len(body), "from_cache", false)
		return body, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, apperr.New(apperr.KindSource, "received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "url", redactURL(url))
		return cachedBody, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Warn("ics fetch non-OK, using cached body", "url", redactURL(url), "status", resp.StatusCode)
			return cachedBody, nil
		}
		return nil, apperr.Wrapf(errors.New(resp.Status), apperr.KindSource, "fetch %s", redactURL(url))
	}
}

func (l *Loader) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// body first so meta never points at a missing body
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host of a calendar URL; private feed URLs
// carry tokens in the path or query.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	} else if j := strings.IndexByte(rest, '?'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
