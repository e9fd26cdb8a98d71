package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
)

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// HTTPDownloader streams responses to disk. The body is written to
// dest+".part" and renamed into place only after a successful response, so an
// interrupted download never leaves a truncated weight file at dest.
type HTTPDownloader struct {
	client *resty.Client
}

// NewHTTPDownloader returns a downloader without a client-level timeout;
// callers bound each download through ctx.
func NewHTTPDownloader() *HTTPDownloader {
	client := resty.New()
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeader("User-Agent", "studiod")
	return &HTTPDownloader{client: client}
}

func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	part := dest + ".part"
	resp, err := d.client.R().SetContext(ctx).SetOutput(part).Get(url)
	if err != nil {
		_ = os.Remove(part)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if resp.IsError() {
		_ = os.Remove(part)
		return fmt.Errorf("unexpected status %s", resp.Status())
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
