package installer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Checkout materialises the installer repository into dir.
type Checkout interface {
	Fetch(ctx context.Context, dir string) error
}

// GitCheckout shallow-clones RepoURL.
type GitCheckout struct {
	Git     string
	RepoURL string
}

// Fetch clones the repository into dir, which may already exist but must be empty.
func (g GitCheckout) Fetch(ctx context.Context, dir string) error {
	if g.RepoURL == "" {
		return fmt.Errorf("no installer repository configured")
	}
	var stderr bytes.Buffer
	err := RunCmd(ctx, Cmd{
		Path:   g.Git,
		Args:   []string{"clone", "--depth", "1", g.RepoURL, dir},
		Stderr: &stderr,
	})
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("clone repository: %s", msg)
	}
	return nil
}
