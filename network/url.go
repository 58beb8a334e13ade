package network

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ResolveURL resolves a reference URL against a base URL. Absolute and
// data: references are returned as they are.
func ResolveURL(base, ref string) (string, error) {
	if ref == "" {
		return base, nil
	}
	if IsDataURL(ref) {
		return ref, nil
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference URL: %w", err)
	}
	if refURL.IsAbs() {
		return refURL.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// NormalizeURL normalizes a URL for use as a cache and cycle detection key.
// The fragment never names a different stylesheet and is dropped.
func NormalizeURL(urlStr string) (string, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	return u.String(), nil
}

// IsAbsoluteURL returns true if the URL is absolute (has a scheme).
func IsAbsoluteURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return u.IsAbs()
}

// IsDataURL returns true if the URL is a data URL.
func IsDataURL(urlStr string) bool {
	return strings.HasPrefix(strings.ToLower(urlStr), "data:")
}

// DataURL represents a parsed data URL.
type DataURL struct {
	MediaType string
	// Charset is lower-cased; empty when the URL does not name one.
	Charset string
	Base64  bool
	Data    []byte
}

// ParseDataURL parses data:[<mediatype>][;base64],<data>.
func ParseDataURL(urlStr string) (*DataURL, error) {
	if !IsDataURL(urlStr) {
		return nil, errors.New("not a data URL")
	}

	metadata, data, ok := strings.Cut(urlStr[len("data:"):], ",")
	if !ok {
		return nil, errors.New("invalid data URL: missing comma")
	}

	result := &DataURL{MediaType: "text/plain"}
	for i, part := range strings.Split(metadata, ";") {
		part = strings.TrimSpace(part)
		switch {
		case i == 0 && part != "" && !strings.Contains(part, "=") && part != "base64":
			result.MediaType = strings.ToLower(part)
		case strings.EqualFold(part, "base64"):
			result.Base64 = true
		case strings.HasPrefix(strings.ToLower(part), "charset="):
			result.Charset = strings.ToLower(part[len("charset="):])
		}
	}

	if result.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 data: %w", err)
		}
		result.Data = decoded
		return result, nil
	}

	decoded, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("failed to URL-decode data: %w", err)
	}
	result.Data = []byte(decoded)
	return result, nil
}

// FileURL converts a filesystem path into an absolute file:// URL.
func FileURL(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", p, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// ExtractPath returns the path component of a URL.
func ExtractPath(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Path
}

// ExtractExtension returns the lower-cased file extension of a URL path,
// without the dot.
func ExtractExtension(urlStr string) string {
	p := ExtractPath(urlStr)
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// GuessContentType guesses a content type from a URL's extension.
func GuessContentType(urlStr string) string {
	switch ExtractExtension(urlStr) {
	case "css":
		return "text/css"
	case "html", "htm":
		return "text/html"
	case "xhtml":
		return "application/xhtml+xml"
	default:
		return "application/octet-stream"
	}
}
