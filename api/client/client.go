// Package client is a typed HTTP client of the aggregator API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/gnosisguild/enclave-aggregator/api"
	"github.com/gnosisguild/enclave-aggregator/log"
)

const (
	HTTPGET  = http.MethodGet
	HTTPPOST = http.MethodPost

	errCodeNot200 = "API error"

	// DefaultRetries is the number of attempts of a request whose
	// connection fails.
	DefaultRetries = 3
	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	retryDelay  = 500 * time.Millisecond
	maxLogBytes = 512
)

// HTTPclient is the aggregator API HTTP client.
type HTTPclient struct {
	c       *http.Client
	host    *url.URL
	retries int
}

// Option configures the client.
type Option func(*HTTPclient)

// WithRetries sets the number of attempts per request, at least one.
func WithRetries(n int) Option {
	return func(c *HTTPclient) {
		c.retries = max(n, 1)
	}
}

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPclient) {
		c.c.Timeout = d
	}
}

// New returns a client of the API at host once it answers the ping
// endpoint.
func New(host string, opts ...Option) (*HTTPclient, error) {
	hostURL, err := url.Parse(host)
	if err != nil {
		return nil, err
	}
	c := &HTTPclient{
		c: &http.Client{
			Transport: &http.Transport{
				IdleConnTimeout: DefaultTimeout,
				WriteBufferSize: 1 << 20,
				ReadBufferSize:  1 << 20,
			},
			Timeout: DefaultTimeout,
		},
		host:    hostURL,
		retries: DefaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	log.Debugw("http client created", "host", hostURL.String(), "retries", c.retries)
	if err := c.do(HTTPGET, nil, nil, nil, api.PingEndpoint); err != nil {
		return nil, fmt.Errorf("ping %s: %w", hostURL, err)
	}
	return c, nil
}

// Request sends a request to the endpoint joined from urlPath, with body
// encoded as JSON if not nil. params holds query parameters as key, value
// pairs. It returns the response body and status code.
func (c *HTTPclient) Request(method string, body any, params []string, urlPath ...string) ([]byte, int, error) {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return nil, 0, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}
	u := *c.host
	u.Path = path.Join(u.Path, path.Join(urlPath...))
	if len(params) > 0 {
		query := url.Values{}
		for i := 0; i+1 < len(params); i += 2 {
			query.Set(params[i], params[i+1])
		}
		u.RawQuery = query.Encode()
	}
	log.Debugw("http client request", "method", method, "url", u.String(), "body", truncate(data))

	var (
		resp *http.Response
		err  error
	)
	for attempt := 1; attempt <= c.retries; attempt++ {
		var req *http.Request
		if req, err = http.NewRequest(method, u.String(), bytes.NewReader(data)); err != nil {
			return nil, 0, fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if resp, err = c.c.Do(req); err == nil {
			break
		}
		log.Warnw("http request failed", "error", err.Error(), "attempt", attempt, "retries", c.retries)
		if attempt < c.retries {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("request failed after %d attempts: %w", c.retries, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnw("failed to close response body", "error", err.Error())
		}
	}()
	res, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return res, resp.StatusCode, nil
}

func truncate(b []byte) string {
	if len(b) > maxLogBytes {
		return string(b[:maxLogBytes]) + "..."
	}
	return string(b)
}
