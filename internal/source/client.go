package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const authTokenParam = "auth_token"

// apiClient is the shared request helper for the remote connector. Each
// call rotates to the next token in the pool to spread rate-limit quota,
// waits on the limiter, and retries failed attempts before giving up.
// Safe for concurrent use.
type apiClient struct {
	base    *url.URL
	httpc   *http.Client
	tokens  []string
	next    atomic.Uint64
	retries int
	limiter *rate.Limiter
	log     *zerolog.Logger
}

func newAPIClient(baseURL string, tokens []string, retries int, rps float64, logger *zerolog.Logger) (*apiClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("auth token pool is empty")
	}
	if retries < 0 {
		retries = 0
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &apiClient{
		base:    base,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		retries: retries,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger,
	}, nil
}

// get issues one GET against the given API path and returns the raw body.
// A failed attempt is retried up to the configured count; exhaustion
// surfaces the last error to the caller.
func (c *apiClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	attempts := c.retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, path, params)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("api request failed")
	}
	return nil, fmt.Errorf("get %s after %d attempts: %w", path, attempts, lastErr)
}

func (c *apiClient) doOnce(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for key, vals := range params {
		q[key] = vals
	}
	q.Set(authTokenParam, c.nextToken())

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// nextToken rotates through the token pool; safe under concurrent calls.
func (c *apiClient) nextToken() string {
	n := c.next.Add(1) - 1
	return c.tokens[int(n%uint64(len(c.tokens)))]
}

// decodeEnvelope pulls the named array out of a single-element JSON
// envelope such as {"rooms": [...]}. A malformed body is logged and
// degrades to an empty collection so one bad page cannot abort a larger
// fetch.
func decodeEnvelope[T any](logger *zerolog.Logger, body []byte, element string) []T {
	var envelope map[string][]T
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Error().Err(err).Str("element", element).Msg("failed to deserialize response envelope")
		return nil
	}
	return envelope[element]
}
