// Package network fetches stylesheets from files, data: URLs and HTTP
// servers, decodes them to text and parses them, following @import rules.
package network

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Client is an HTTP client for stylesheet and document requests.
type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	maxRedirects   int
	userAgent      string
	followRedirect bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func WithMaxRedirects(n int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithFollowRedirect enables or disables redirect following.
func WithFollowRedirect(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	// Some servers gate stylesheets behind a session cookie set by the page
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		timeout:        30 * time.Second,
		maxRedirects:   10,
		userAgent:      "cssparse/1.0",
		followRedirect: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   c.timeout,
	}

	if c.followRedirect {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
			}
			return nil
		}
	} else {
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return c, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	Status      string
	Headers     http.Header
	Body        []byte
	ContentType string
	URL         *url.URL // final URL after redirects
}

// Get performs an HTTP GET request. The Accept header prefers CSS, which
// servers doing content negotiation use to pick the stylesheet variant.
func (c *Client) Get(ctx context.Context, urlStr string) (*Response, error) {
	return c.Do(ctx, urlStr, http.Header{"Accept": {"text/css,*/*;q=0.1"}})
}

// Do performs a GET request with additional headers.
func (c *Client) Do(ctx context.Context, urlStr string, headers http.Header) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("Accept-Encoding", "gzip")
	for k, vs := range headers {
		httpReq.Header[k] = vs
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Headers:     resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL,
	}, nil
}

// ParseContentType splits a Content-Type header into its lower-cased media
// type and charset parameter.
func ParseContentType(contentType string) (mediaType string, charset string) {
	if contentType == "" {
		return "application/octet-stream", ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// keep whatever precedes the first parameter
		mediaType, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mediaType)), ""
	}
	return mediaType, strings.ToLower(params["charset"])
}

// IsHTMLContentType returns true if the content type indicates HTML.
func IsHTMLContentType(contentType string) bool {
	mediaType, _ := ParseContentType(contentType)
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// IsCSSContentType returns true if the content type indicates CSS.
func IsCSSContentType(contentType string) bool {
	mediaType, _ := ParseContentType(contentType)
	return mediaType == "text/css"
}
