package arkserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Info is the public identity of an ark server, as published on its
// well-known info endpoint.
type Info struct {
	SignerPubkey string `json:"signerPubkey"`
	Network      string `json:"network"`
}

type Client struct {
	httpClient *http.Client
}

// NewClient returns a client for the ark server info endpoint. The http
// client is injectable so that callers can substitute a transport in tests;
// pass nil to use a default one.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{httpClient}
}

// GetInfo performs a single read of {serverURL}/v1/info. It never retries:
// a transport failure or a non-2xx status is returned as-is to the caller.
func (c *Client) GetInfo(ctx context.Context, serverURL string) (*Info, error) {
	if len(serverURL) <= 0 {
		return nil, fmt.Errorf("missing ark server url")
	}

	url := fmt.Sprintf("%s/v1/info", strings.TrimSuffix(serverURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server info: %s", err)
	}
	// nolint:all
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf(
			"failed to fetch server info: %s", http.StatusText(resp.StatusCode),
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read server info: %s", err)
	}

	info := &Info{}
	if err := json.Unmarshal(body, info); err != nil {
		return nil, fmt.Errorf("failed to parse server info: %s", err)
	}
	return info, nil
}
