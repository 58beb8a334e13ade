package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/chrisuehlinger/cssparse/css"
)

// ErrImportCycle is logged when a stylesheet imports itself, directly or
// through other imports.
var ErrImportCycle = errors.New("import cycle")

// Resource is a fetched resource.
type Resource struct {
	// URL is the final location, after redirects. Relative references in
	// the content resolve against it.
	URL         string
	Content     []byte
	ContentType string
	Charset     string
	StatusCode  int
	Cached      bool
}

// IsSuccess returns true if the resource was served with a 2xx status.
func (r *Resource) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StyleSheet is a loaded stylesheet together with the stylesheets its
// @import rules pulled in.
type StyleSheet struct {
	URL      string
	Encoding string
	// Media lists the media queries of the @import rule that loaded this
	// sheet. It is nil for the root sheet.
	Media   []string
	Sheet   *css.StyleSheet
	Imports []*StyleSheet
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCache sets the response cache.
func WithCache(cache *Cache) LoaderOption {
	return func(l *Loader) {
		l.cache = cache
	}
}

// WithLogger sets the logger for load diagnostics. The same logger is handed
// to the stylesheet parser.
func WithLogger(log *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if log == nil {
			log = zap.NewNop()
		}
		l.log = log
	}
}

// WithEnvironmentEncoding sets the fallback encoding label used when a
// stylesheet names none, usually the encoding of the referring document.
func WithEnvironmentEncoding(label string) LoaderOption {
	return func(l *Loader) {
		l.encoding = label
	}
}

// WithMaxImportDepth limits how deeply nested @import rules are followed.
// Zero disables import loading.
func WithMaxImportDepth(n int) LoaderOption {
	return func(l *Loader) {
		l.maxDepth = n
	}
}

// WithParserOptions passes options to the stylesheet parser.
func WithParserOptions(opts ...css.Option) LoaderOption {
	return func(l *Loader) {
		l.parserOpts = append(l.parserOpts, opts...)
	}
}

// Loader fetches stylesheets and parses them.
type Loader struct {
	client     *Client
	cache      *Cache
	log        *zap.Logger
	encoding   string
	maxDepth   int
	parserOpts []css.Option
}

// NewLoader creates a loader. client may be nil when only files and data
// URLs are loaded.
func NewLoader(client *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:   client,
		cache:    NewCache(256),
		log:      zap.NewNop(),
		maxDepth: 8,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load fetches ref, which is a URL (http, https, file or data) or a
// filesystem path.
func (l *Loader) Load(ctx context.Context, ref string) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if IsDataURL(ref) {
		return loadDataURL(ref)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// a path, possibly with a Windows drive letter
		fileURL, ferr := FileURL(ref)
		if ferr != nil {
			return nil, ferr
		}
		return loadFile(fileURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return loadFile(ref)
	case "http", "https":
		return l.loadHTTP(ctx, ref)
	}
	return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
}

func loadDataURL(ref string) (*Resource, error) {
	dataURL, err := ParseDataURL(ref)
	if err != nil {
		return nil, err
	}
	return &Resource{
		URL:         ref,
		Content:     dataURL.Data,
		ContentType: dataURL.MediaType,
		Charset:     dataURL.Charset,
		StatusCode:  http.StatusOK,
	}, nil
}

func loadFile(fileURL string) (*Resource, error) {
	content, err := os.ReadFile(ExtractPath(fileURL))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileURL, err)
	}
	return &Resource{
		URL:         fileURL,
		Content:     content,
		ContentType: GuessContentType(fileURL),
		StatusCode:  http.StatusOK,
	}, nil
}

func (l *Loader) loadHTTP(ctx context.Context, ref string) (*Resource, error) {
	if l.client == nil {
		return nil, fmt.Errorf("cannot load %s: loader has no HTTP client", ref)
	}

	key, err := NormalizeURL(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", ref, err)
	}

	headers := http.Header{"Accept": {"text/css,*/*;q=0.1"}}
	entry, cached := l.cache.Get(key)
	if cached {
		if !entry.IsExpired() {
			return responseResource(entry.Response, true), nil
		}
		if entry.ETag != "" {
			headers.Set("If-None-Match", entry.ETag)
		}
		if entry.LastMod != "" {
			headers.Set("If-Modified-Since", entry.LastMod)
		}
	}

	resp, err := l.client.Do(ctx, ref, headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cached && entry.CanRevalidate() {
		refreshed := *entry.Response
		refreshed.Headers = entry.Response.Headers.Clone()
		for k, vs := range resp.Headers {
			refreshed.Headers[k] = vs
		}
		l.cache.Set(key, &refreshed)
		l.log.Debug("revalidated cached stylesheet", zap.String("url", ref))
		return responseResource(&refreshed, true), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to load %s: %s", ref, resp.Status)
	}

	l.cache.Set(key, resp)
	return responseResource(resp, false), nil
}

func responseResource(resp *Response, cached bool) *Resource {
	mediaType, cs := ParseContentType(resp.ContentType)
	r := &Resource{
		Content:     resp.Body,
		ContentType: mediaType,
		Charset:     cs,
		StatusCode:  resp.StatusCode,
		Cached:      cached,
	}
	if resp.URL != nil {
		r.URL = resp.URL.String()
	}
	return r
}

// LoadStyleSheet fetches, decodes and parses the stylesheet at ref and,
// recursively, the stylesheets it imports. A failing import is logged and
// left out; only a failure to load ref itself is returned.
func (l *Loader) LoadStyleSheet(ctx context.Context, ref string) (*StyleSheet, error) {
	return l.loadStyleSheet(ctx, ref, nil, 0, map[string]bool{})
}

// ParseStyleSheet parses already decoded text, such as the content of an
// HTML <style> element, and loads its imports relative to baseURL.
func (l *Loader) ParseStyleSheet(ctx context.Context, text, baseURL string) *StyleSheet {
	sheet := &StyleSheet{
		URL:      baseURL,
		Encoding: utf8Name,
		Sheet:    l.parse(text, baseURL),
	}
	visited := map[string]bool{}
	if key, err := NormalizeURL(baseURL); err == nil && baseURL != "" {
		visited[key] = true
	}
	sheet.Imports = l.loadImports(ctx, sheet, 0, visited)
	return sheet
}

// ParseResource decodes and parses a resource that was already loaded, and
// loads its imports.
func (l *Loader) ParseResource(ctx context.Context, res *Resource) (*StyleSheet, error) {
	return l.styleSheet(ctx, res, nil, 0, map[string]bool{})
}

func (l *Loader) loadStyleSheet(ctx context.Context, ref string, media []string, depth int, visited map[string]bool) (*StyleSheet, error) {
	res, err := l.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load stylesheet: %w", err)
	}
	return l.styleSheet(ctx, res, media, depth, visited)
}

func (l *Loader) styleSheet(ctx context.Context, res *Resource, media []string, depth int, visited map[string]bool) (*StyleSheet, error) {
	key, err := NormalizeURL(res.URL)
	if err != nil {
		key = res.URL
	}
	if visited[key] {
		return nil, fmt.Errorf("%w at %s", ErrImportCycle, res.URL)
	}
	visited[key] = true
	defer delete(visited, key)

	if res.ContentType != "" && !IsCSSContentType(res.ContentType) && res.ContentType != "application/octet-stream" {
		l.log.Warn("stylesheet served with unexpected content type",
			zap.String("url", res.URL),
			zap.String("content_type", res.ContentType))
	}

	text, encoding, err := DecodeStyleSheet(res.Content, res.Charset, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", res.URL, err)
	}

	sheet := &StyleSheet{
		URL:      res.URL,
		Encoding: encoding,
		Media:    media,
		Sheet:    l.parse(text, res.URL),
	}
	l.log.Debug("loaded stylesheet",
		zap.String("url", res.URL),
		zap.String("encoding", encoding),
		zap.Bool("cached", res.Cached),
		zap.Int("rules", sheet.Sheet.Len()))

	sheet.Imports = l.loadImports(ctx, sheet, depth, visited)
	return sheet, nil
}

func (l *Loader) parse(text, baseURL string) *css.StyleSheet {
	opts := append([]css.Option{css.WithBaseURL(baseURL), css.WithLogger(l.log)}, l.parserOpts...)
	return css.NewParser(opts...).ParseString(text)
}

func (l *Loader) loadImports(ctx context.Context, sheet *StyleSheet, depth int, visited map[string]bool) []*StyleSheet {
	var imports []*StyleSheet
	for _, rule := range sheet.Sheet.Rules() {
		imp, ok := rule.(*css.ImportRule)
		if !ok {
			continue
		}
		target := imp.URI().Absolute()
		if depth+1 > l.maxDepth {
			l.log.Warn("import depth exceeded",
				zap.String("url", target),
				zap.Int("max_depth", l.maxDepth))
			continue
		}
		child, err := l.loadStyleSheet(ctx, target, imp.Media(), depth+1, visited)
		if err != nil {
			l.log.Warn("skipped @import", zap.String("url", target), zap.Error(err))
			continue
		}
		imports = append(imports, child)
	}
	return imports
}
