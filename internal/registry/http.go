package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPRegistry fetches package metadata from a remote registry speaking a
// plain JSON protocol: GET {base}/packages/{name}.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRegistry(baseURL string) *HTTPRegistry {
	return &HTTPRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (r *HTTPRegistry) GetPackageInfo(ctx context.Context, name string) (PackageInfo, error) {
	u := fmt.Sprintf("%s/packages/%s", r.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PackageInfo{}, fmt.Errorf("registry: build request for %q: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return PackageInfo{}, fmt.Errorf("registry: fetch %q: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return PackageInfo{}, fmt.Errorf("registry: %q: %w", name, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return PackageInfo{}, fmt.Errorf("registry: fetch %q: unexpected status %s", name, resp.Status)
	}

	var info PackageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return PackageInfo{}, fmt.Errorf("registry: decode %q: %w", name, err)
	}
	if info.Name == "" {
		info.Name = name
	}
	return info, nil
}
