package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ochinchina/wlreplay/faults"
	log "github.com/sirupsen/logrus"
)

// Client sends JSON requests to the order service
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the service at baseURL, e.g. "http://127.0.0.1:14000"
func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: http.DefaultClient}
}

// SetTimeout sets the per request timeout, 0 keeps the transport default
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// SetHTTPClient replaces the underlying http client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// URL returns the absolute URL of path
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

func (c *Client) createHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, faults.CommandError(req.Method+" "+req.Path, "encode payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path), body)
	if err != nil {
		return nil, faults.CommandError(req.Method+" "+req.Path, "%v", err)
	}
	if req.Payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// Do sends req once and returns the status code and the response body
func (c *Client) Do(ctx context.Context, req Request) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	httpReq, err := c.createHTTPRequest(ctx, req)
	if err != nil {
		return 0, nil, err
	}

	log.WithFields(log.Fields{"method": req.Method, "url": httpReq.URL.String()}).Debug("send request to order service")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, faults.NetworkError(req.Method+" "+req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, faults.NetworkError(req.Method+" "+req.Path, fmt.Errorf("read response: %w", err))
	}
	return resp.StatusCode, body, nil
}
