// Package fetcher acquires source extracts from local disk, FTP or HTTP and
// parses XLSX and CSV content.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher retrieves a single remote file.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures the fetchers built by ForURL.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// IsRemote reports whether root names an FTP or HTTP location rather than a local directory.
func IsRemote(root string) bool {
	u, err := url.Parse(root)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ftp", "http", "https":
		return true
	default:
		return false
	}
}

// ForURL returns the fetcher that handles rawURL's scheme.
func ForURL(rawURL string, opts Options) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	switch u.Scheme {
	case "ftp":
		return NewFTPFetcher(opts.FTP), nil
	case "http", "https":
		return NewHTTPFetcher(opts.HTTP), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// JoinURL appends name to a base URL path.
func JoinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(name)
}

// Stage downloads name from a remote root into dir and returns the local path.
func Stage(ctx context.Context, f Fetcher, root, name, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "fetcher: create staging dir %s", dir)
	}
	dst := filepath.Join(dir, name)
	if _, err := f.DownloadToFile(ctx, JoinURL(root, name), dst); err != nil {
		return "", eris.Wrapf(err, "fetcher: stage %s", name)
	}
	return dst, nil
}

// writeToFile copies r into a newly created file at path.
func writeToFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
