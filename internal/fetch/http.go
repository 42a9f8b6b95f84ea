package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Get performs one authenticated GET against a network endpoint and
// returns the raw body. Headers carry whatever credential material the
// network's auth scheme produced. A non-2xx response is an error; there
// is no retry here, callers wrap the adapter with their own policy.
func Get(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Get: building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Get: reading body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Get: %s returned HTTP %d", url, resp.StatusCode)
	}
	return body, nil
}
