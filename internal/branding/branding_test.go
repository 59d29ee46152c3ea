package branding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<!doctype html>
<html><head>
<title>Acme Fallback</title>
<meta property="og:site_name" content="Acme Inc">
<meta property="og:image" content="https://acme.example/logo.png">
<meta name="theme-color" content="#112233">
</head><body>hi</body></html>`

func TestLookupParsesMetaTags(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), NewCache(time.Hour))

	profile, err := c.Lookup(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if profile.Name != "Acme Inc" {
		t.Fatalf("expected site name, got %q", profile.Name)
	}
	if profile.LogoURL != "https://acme.example/logo.png" {
		t.Fatalf("expected logo url, got %q", profile.LogoURL)
	}
	if profile.ThemeColor != "#112233" {
		t.Fatalf("expected theme color, got %q", profile.ThemeColor)
	}

	// 第二次命中缓存，不应再请求。
	if _, err := c.Lookup(context.Background(), srv.URL); err != nil {
		t.Fatalf("cached Lookup error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 http hit, got %d", hits.Load())
	}
}

func TestLookupTitleFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Fallback Co</title></head><body></body></html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), NewCache(time.Hour))
	profile, err := c.Lookup(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if profile.Name != "Fallback Co" {
		t.Fatalf("expected title fallback, got %q", profile.Name)
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := NewCache(time.Minute)
	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	cache.Set("acme", Profile{Name: "Acme"})
	if _, ok := cache.Get("acme"); !ok {
		t.Fatalf("expected fresh cache hit")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := cache.Get("acme"); ok {
		t.Fatalf("expected stale entry to miss")
	}
}
