package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Upstream is a remote repository.
type Upstream struct {
	baseURL url.URL
	client  *http.Client
}

var _ Repo = (*Upstream)(nil)

func NewUpstream(baseURL url.URL) *Upstream {
	return &Upstream{
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
}

func (u Upstream) InRelease(ctx context.Context, dist Distribution) ([]byte, error) {
	return u.get(ctx, "dists", dist.String(), "InRelease")
}

func (u Upstream) Index(ctx context.Context, dist Distribution, component Component, arch Architecture, compression Compression) ([]byte, error) {
	return u.get(ctx, "dists", dist.String(), component.String(), arch.Dir(), arch.IndexName()+compression.Extension())
}

func (u Upstream) ByHash(ctx context.Context, dist Distribution, component Component, arch Architecture, digest string) ([]byte, error) {
	return u.get(ctx, "dists", dist.String(), component.String(), arch.Dir(), "by-hash", "SHA256", digest)
}

func (u Upstream) get(ctx context.Context, path ...string) ([]byte, error) {
	target := u.baseURL.JoinPath(path...).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	default:
		return nil, fmt.Errorf("upstream status %s: %s", target, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("upstream read: %w", err)
	}
	return buf.Bytes(), nil
}
