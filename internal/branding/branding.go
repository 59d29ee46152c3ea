package branding

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// Profile 表示从公司官网抓到的品牌元数据，用于预填草稿表单。
type Profile struct {
	Name       string `json:"name"`
	LogoURL    string `json:"logo_url"`
	ThemeColor string `json:"theme_color"`
}

// Cache 是带 TTL 的品牌信息缓存，由调用方持有，不做全局共享。
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	profile   Profile
	fetchedAt time.Time
}

// NewCache 创建缓存，ttl 非正值时默认 24 小时。
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// Get 返回缓存值，过期条目视为不存在。
func (c *Cache) Get(key string) (Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !c.isFresh(entry) {
		return Profile{}, false
	}
	return entry.profile, true
}

// Set 写入缓存。
func (c *Cache) Set(key string, profile Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{profile: profile, fetchedAt: c.now()}
}

func (c *Cache) isFresh(entry cacheEntry) bool {
	return c.now().Sub(entry.fetchedAt) < c.ttl
}

// Client 抓取公司官网首页并解析品牌元数据。
type Client struct {
	client *http.Client
	cache  *Cache
	logger *log.Logger
}

// NewClient 创建 Client，client 为空时使用 10 秒超时的默认客户端。
func NewClient(client *http.Client, cache *Cache) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cache == nil {
		cache = NewCache(0)
	}
	return &Client{
		client: client,
		cache:  cache,
		logger: log.New(os.Stdout, "[branding] ", log.LstdFlags),
	}
}

// Lookup 返回网站的品牌信息，命中未过期缓存时不会发起请求。
func (c *Client) Lookup(ctx context.Context, website string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(website))
	if key == "" {
		return Profile{}, fmt.Errorf("website required")
	}
	if profile, ok := c.cache.Get(key); ok {
		return profile, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, fmt.Errorf("read body: %w", err)
	}

	profile, err := parseProfile(string(body))
	if err != nil {
		return Profile{}, err
	}
	c.cache.Set(key, profile)
	c.logger.Printf("fetched branding for %s: name=%q logo=%q", key, profile.Name, profile.LogoURL)
	return profile, nil
}

// parseProfile 从首页 HTML 的 meta 标签中提取站点名、logo 与主题色。
func parseProfile(htmlText string) (Profile, error) {
	node, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return Profile{}, fmt.Errorf("parse html: %w", err)
	}

	var profile Profile
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				name, content := metaAttrs(n)
				switch name {
				case "og:site_name":
					profile.Name = content
				case "og:image":
					profile.LogoURL = content
				case "theme-color":
					profile.ThemeColor = content
				}
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	if profile.Name == "" {
		profile.Name = title
	}
	return profile, nil
}

func metaAttrs(n *html.Node) (name, content string) {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property", "name":
			if name == "" {
				name = attr.Val
			}
		case "content":
			content = attr.Val
		}
	}
	return name, content
}
