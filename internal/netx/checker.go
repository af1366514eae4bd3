package netx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authboot/internal/common"
)

// DefaultProbeTimeout bounds a single connectivity probe.
const DefaultProbeTimeout = 5 * time.Second

// Checker reports whether the auth service can be reached at all.
type Checker interface {
	Check(ctx context.Context) error
}

// HTTPChecker probes a URL with GET. Any HTTP response counts as
// connectivity; transport failures and probe timeouts are reported as
// common.ErrNetworkUnavailable.
type HTTPChecker struct {
	url     string
	header  http.Header
	timeout time.Duration
	client  *http.Client
}

func NewHTTPChecker(url string, header http.Header, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPChecker{url: url, header: header, timeout: timeout, client: &http.Client{}}
}

func (c *HTTPChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// AlwaysOnline is a Checker for callers that have no connectivity signal.
type AlwaysOnline struct{}

func (AlwaysOnline) Check(context.Context) error { return nil }
