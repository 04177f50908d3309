package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AlexKucera/obsidian-typst-pdf-export-sub001/internal/pathutil"
)

// Remote fetch limits.
const (
	fetchTimeout  = 30 * time.Second
	maxRedirects  = 5
	maxFetchBytes = 64 << 20 // 64MB; larger downloads are almost certainly not note images
)

// Sentinel errors for remote fetches.
var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrFetchStatus      = errors.New("unexpected HTTP status")
	ErrNotAnImage       = errors.New("response is not an image")
)

// remoteFetcher downloads remote images into the scratch directory.
//
// Redirects are followed manually: a relative Location header is resolved
// against the ORIGINAL request URL, matching the reference behavior of
// the host plugin rather than net/http's current-response resolution.
type remoteFetcher struct {
	client *http.Client
}

func newRemoteFetcher() *remoteFetcher {
	return &remoteFetcher{
		client: &http.Client{
			Timeout: fetchTimeout,
			// Redirects are handled manually in Fetch.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch downloads rawURL into scratchDir and returns the local path.
func (f *remoteFetcher) Fetch(ctx context.Context, rawURL, scratchDir string) (string, error) {
	origin, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	resp, err := f.get(ctx, origin)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrFetchStatus, resp.Status)
	}

	if err := pathutil.EnsureDir(scratchDir); err != nil {
		return "", err
	}

	dest := filepath.Join(scratchDir, scratchFileName(origin, resp.Header.Get("Content-Type")))
	out, err := os.Create(dest) // #nosec G304 -- dest is constructed under our scratch dir
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}

	_, copyErr := io.Copy(out, io.LimitReader(resp.Body, maxFetchBytes))
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("downloading %s: %w", rawURL, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("writing scratch file: %w", closeErr)
	}

	return dest, nil
}

// get performs the request, chasing up to maxRedirects redirects with
// origin-anchored resolution.
func (f *remoteFetcher) get(ctx context.Context, origin *url.URL) (*http.Response, error) {
	target := origin

	for i := 0; i <= maxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}

		if !isRedirect(resp.StatusCode) {
			return resp, nil
		}

		location := resp.Header.Get("Location")
		_ = resp.Body.Close()
		if location == "" {
			return nil, fmt.Errorf("%w: redirect without Location", ErrFetchStatus)
		}

		next, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parsing redirect target: %w", err)
		}
		if !next.IsAbs() {
			next = origin.ResolveReference(next)
		}
		target = next
	}

	return nil, fmt.Errorf("%w: gave up after %d", ErrTooManyRedirects, maxRedirects)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// contentTypeExtensions maps image content types to file extensions, used
// when the URL path carries none.
var contentTypeExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
}

// scratchFileName builds a collision-free local name for a fetched URL.
func scratchFileName(u *url.URL, contentType string) string {
	base := filepath.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = "remote"
	}
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"|?*\/`, r) {
			return '-'
		}
		return r
	}, base)

	if filepath.Ext(base) == "" {
		mime, _, _ := strings.Cut(contentType, ";")
		if ext, ok := contentTypeExtensions[strings.TrimSpace(mime)]; ok {
			base += ext
		}
	}

	return uuid.NewString()[:8] + "-" + base
}
