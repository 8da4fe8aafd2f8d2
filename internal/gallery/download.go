package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"gc-portfolio/internal/security"
)

// DefaultDownloadName is used when an item has no name.
const DefaultDownloadName = "download"

// ErrNothingToDownload is returned by DownloadCurrent when no item is
// selected.
var ErrNothingToDownload = errors.New("no media selected")

// Downloader fetches media into a local directory.
type Downloader struct {
	dir    string
	base   *url.URL
	client *http.Client
}

// NewDownloader prepares dir and returns a Downloader writing into it.
// Relative media URLs are resolved against base, which may be empty.
func NewDownloader(dir, base string, client *http.Client) (*Downloader, error) {
	abs, err := security.PrepareDownloadDir(dir)
	if err != nil {
		return nil, err
	}
	var baseURL *url.URL
	if base != "" {
		if baseURL, err = url.Parse(base); err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{dir: abs, base: baseURL, client: client}, nil
}

// Fetch saves rawURL as name inside the download directory and returns the
// written path.
func (d *Downloader) Fetch(ctx context.Context, rawURL, name string) (string, error) {
	if name == "" {
		name = DefaultDownloadName
	}
	dest, err := security.SafeJoin(d.dir, name)
	if err != nil {
		return "", err
	}

	src, err := d.resolve(rawURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("get %s: status %d", src, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}
	return dest, nil
}

// ResolveURL returns rawURL made absolute against the base URL.
func (d *Downloader) ResolveURL(rawURL string) string {
	if u, err := d.resolve(rawURL); err == nil {
		return u
	}
	return rawURL
}

func (d *Downloader) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse media url: %w", err)
	}
	if d.base != nil {
		u = d.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported media url %q", rawURL)
	}
	return u.String(), nil
}

// Download saves rawURL under name. If the fetch fails the url is handed to the
// sink's external opener instead and the fetch error is returned.
func (g *Gallery) Download(ctx context.Context, rawURL, name string) (string, error) {
	var err error
	if g.downloader == nil {
		err = errors.New("downloads are not configured")
	} else {
		var path string
		if path, err = g.downloader.Fetch(ctx, rawURL, name); err == nil {
			log.Printf("[gallery] downloaded %s to %s", rawURL, path)
			return path, nil
		}
	}

	log.Printf("[gallery] download of %s failed, opening externally: %v", rawURL, err)
	target := rawURL
	if g.downloader != nil {
		target = g.downloader.ResolveURL(rawURL)
	}
	g.render("open external", g.sink.OpenExternal(target))
	return "", err
}

// DownloadCurrent downloads the item under the preview cursor.
func (g *Gallery) DownloadCurrent(ctx context.Context) (string, error) {
	g.mu.Lock()
	if len(g.items) == 0 || g.index < 0 {
		g.mu.Unlock()
		return "", ErrNothingToDownload
	}
	item := g.items[g.index]
	g.mu.Unlock()

	return g.Download(ctx, item.URL, item.Name)
}
