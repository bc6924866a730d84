package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

// maxErrorBody caps how much of a non-JSON error body ends up in an HTTPError.
const maxErrorBody = 512

// HTTPError describes a response with status >= 400.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Method     string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// The league API answers with these three error classes; anything else is
// returned as a bare *HTTPError.
var (
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrInternalError = errors.New("server error")
)

// NewDefaultHTTPClient returns a client with dial and overall timeouts set.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          32,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// Client speaks JSON to a single base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		log.Debug("No http client supplied, using defaults", "base_url", baseURL)
		httpClient = NewDefaultHTTPClient()
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// GetQuery is Get with query parameters appended to path.
func (c *Client) GetQuery(ctx context.Context, path string, query url.Values, result any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, reqURL, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, reqURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s aborted: %w", method, reqURL, ctxErr)
		}
		return fmt.Errorf("%s %s: %w", method, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classify(&HTTPError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			URL:        reqURL,
			Method:     method,
		})
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, reqURL, err)
	}
	return nil
}

// errorMessage prefers the "message" field of a JSONErrorResponse and falls back
// to a short raw body.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed JSONErrorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	if len(raw) > maxErrorBody {
		return ""
	}
	return string(bytes.TrimSpace(raw))
}

// classify wraps httpErr in its sentinel so both errors.Is and errors.As work.
func classify(httpErr *HTTPError) error {
	var kind error
	switch {
	case httpErr.StatusCode == http.StatusNotFound:
		kind = ErrNotFound
	case httpErr.StatusCode == http.StatusBadRequest:
		kind = ErrBadRequest
	case httpErr.StatusCode >= 500:
		kind = ErrInternalError
	default:
		return httpErr
	}
	return fmt.Errorf("%w: %w", kind, httpErr)
}

// IsHTTPError reports whether err carries an HTTPError; status 0 matches any code.
func IsHTTPError(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && (status == 0 || httpErr.StatusCode == status)
}

// GetHTTPStatusCode returns the HTTPError status in err, or 0.
func GetHTTPStatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
