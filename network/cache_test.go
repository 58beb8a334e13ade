package network

import (
	"net/http"
	"testing"
	"time"
)

func cssResponse(body string, header ...string) *Response {
	h := http.Header{}
	for i := 0; i+1 < len(header); i += 2 {
		h.Set(header[i], header[i+1])
	}
	return &Response{
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/css",
		Headers:     h,
	}
}

func TestCacheBasic(t *testing.T) {
	cache := NewCache(100)
	cache.Set("http://example.com/site.css", cssResponse("p{}", "Cache-Control", "max-age=3600"))

	entry, ok := cache.Get("http://example.com/site.css")
	if !ok {
		t.Fatal("expected to find cached entry")
	}
	if string(entry.Response.Body) != "p{}" {
		t.Errorf("Body = %q, want %q", string(entry.Response.Body), "p{}")
	}
	if entry.IsExpired() {
		t.Error("entry with max-age=3600 should be fresh")
	}
}

func TestCacheExpiration(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		expired bool
	}{
		{"max-age zero", []string{"Cache-Control", "max-age=0"}, true},
		{"no-cache", []string{"Cache-Control", "no-cache"}, true},
		{"long max-age", []string{"Cache-Control", "public, max-age=86400"}, false},
		{"expires in past", []string{"Expires", "Wed, 21 Oct 2015 07:28:00 GMT"}, true},
		{"expires in future", []string{"Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)}, false},
		{"no freshness information", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(10)
			cache.Set("http://example.com/a.css", cssResponse("a", tt.header...))
			entry, ok := cache.Get("http://example.com/a.css")
			if !ok {
				t.Fatal("expected to find cached entry")
			}
			if got := entry.IsExpired(); got != tt.expired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestCacheNoStore(t *testing.T) {
	cache := NewCache(100)
	cache.Set("http://example.com/secret.css", cssResponse("p{}", "Cache-Control", "private, no-store"))

	if _, ok := cache.Get("http://example.com/secret.css"); ok {
		t.Error("no-store response should not be cached")
	}
}

func TestCacheRevalidation(t *testing.T) {
	cache := NewCache(100)
	cache.Set("http://example.com/etag.css", cssResponse("a", "ETag", `"abc123"`))
	cache.Set("http://example.com/lastmod.css", cssResponse("b", "Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT"))
	cache.Set("http://example.com/plain.css", cssResponse("c"))

	entry, _ := cache.Get("http://example.com/etag.css")
	if entry.ETag != `"abc123"` || !entry.CanRevalidate() {
		t.Errorf("ETag entry = %+v, want revalidatable", entry)
	}
	entry, _ = cache.Get("http://example.com/lastmod.css")
	if entry.LastMod == "" || !entry.CanRevalidate() {
		t.Errorf("Last-Modified entry = %+v, want revalidatable", entry)
	}
	entry, _ = cache.Get("http://example.com/plain.css")
	if entry.CanRevalidate() {
		t.Error("entry without validators should not be revalidatable")
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(3)

	for _, name := range []string{"a", "b", "c"} {
		cache.Set("http://example.com/"+name, cssResponse(name))
		time.Sleep(5 * time.Millisecond)
	}
	if cache.Size() != 3 {
		t.Errorf("Size = %d, want 3", cache.Size())
	}

	// replacing an entry does not evict
	cache.Set("http://example.com/b", cssResponse("b2"))
	if _, ok := cache.Get("http://example.com/a"); !ok {
		t.Error("replacing an entry should not evict another")
	}

	cache.Set("http://example.com/d", cssResponse("d"))
	if cache.Size() != 3 {
		t.Errorf("Size after eviction = %d, want 3", cache.Size())
	}
	if _, ok := cache.Get("http://example.com/a"); ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestCacheDelete(t *testing.T) {
	cache := NewCache(100)
	cache.Set("http://example.com/test.css", cssResponse("p{}"))
	cache.Delete("http://example.com/test.css")

	if _, ok := cache.Get("http://example.com/test.css"); ok {
		t.Error("deleted entry should not be found")
	}
}

func TestParseCacheControl(t *testing.T) {
	got := parseCacheControl(`Public, max-age=60 , must-revalidate, x-ext="q"`)
	want := map[string]string{
		"public":          "",
		"max-age":         "60",
		"must-revalidate": "",
		"x-ext":           "q",
	}
	if len(got) != len(want) {
		t.Fatalf("parseCacheControl() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("directive %q = %q, want %q", k, got[k], v)
		}
	}

	if len(parseCacheControl("")) != 0 {
		t.Error("empty header should have no directives")
	}
}
