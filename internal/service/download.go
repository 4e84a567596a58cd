package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// HTTPDownloader downloads images over HTTP and writes them atomically.
type HTTPDownloader struct {
	Client *http.Client
}

// Download fetches url into dest.
func (d HTTPDownloader) Download(ctx context.Context, url, dest string) (Transfer, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Transfer{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Transfer{}, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Transfer{}, fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Transfer{}, fmt.Errorf("creating image dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0644))
	if err != nil {
		return Transfer{}, fmt.Errorf("creating pending file: %w", err)
	}
	defer pending.Cleanup()

	n, err := io.Copy(pending, resp.Body)
	if err != nil {
		return Transfer{}, fmt.Errorf("writing image: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return Transfer{}, fmt.Errorf("replacing image: %w", err)
	}

	return Transfer{
		Path:        dest,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        n,
	}, nil
}
