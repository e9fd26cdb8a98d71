package scripts

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Source returns the text of a named script.
type Source interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// Fetcher retrieves script text from a fixed base URL. It does not retry.
type Fetcher struct {
	base   string
	client *resty.Client
}

// NewFetcher returns a Fetcher for baseURL with the given per-request timeout.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Fetcher{base: strings.TrimRight(baseURL, "/"), client: client}
}

// URL returns the absolute URL for path.
func (f *Fetcher) URL(path string) string {
	return f.base + "/" + strings.TrimLeft(path, "/")
}

// Fetch downloads the script at path. Failures are *FetchError values.
func (f *Fetcher) Fetch(ctx context.Context, path string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.URL(path))
	if err != nil {
		if isTimeoutErr(ctx, err) {
			return "", &FetchError{Kind: KindTimeout, Path: path, Err: err}
		}
		return "", &FetchError{Kind: KindTransport, Path: path, Err: err}
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return "", &FetchError{Kind: KindNotFound, Path: path, Status: code}
	case code < 200 || code >= 300:
		return "", &FetchError{Kind: KindTransport, Path: path, Status: code}
	}
	return resp.String(), nil
}

func isTimeoutErr(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
