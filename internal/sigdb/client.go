package sigdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client looks up human-readable function signatures by 4-byte selector
// against an external signature database. Lookups are best-effort: any
// failure leaves the signature unresolved and never blocks persistence.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
	logger  *zap.Logger
}

type lookupResponse struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// NewClient builds a signature lookup client. The cache is injected so its
// capacity stays an explicit choice of the caller.
func NewClient(baseURL string, cache *Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache(1)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

// Lookup resolves a 0x-hex selector to a signature string. The second
// return is false when the database has no entry or the request failed.
func (c *Client) Lookup(ctx context.Context, selector string) (string, bool) {
	selector = strings.ToLower(selector)
	if sig, ok := c.cache.Get(selector); ok {
		return sig, sig != ""
	}

	url := fmt.Sprintf("%s/signatures/%s", c.baseURL, selector)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("signature lookup failed", zap.String("selector", selector), zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Definitive miss, cache it so the selector is not re-fetched.
		c.cache.Set(selector, "")
		return "", false
	default:
		c.logger.Debug("signature lookup unexpected status", zap.String("selector", selector), zap.Int("status", resp.StatusCode))
		return "", false
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Debug("signature lookup bad body", zap.String("selector", selector), zap.Error(err))
		return "", false
	}
	if body.Signature == "" {
		c.cache.Set(selector, "")
		return "", false
	}

	c.cache.Set(selector, body.Signature)
	return body.Signature, true
}
