package crawl

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// NewBaseTransport returns the pooled transport page fetches go through,
// routed via proxyURL when it is set. http, https and socks5 proxies work.
func NewBaseTransport(proxyURL string) (*http.Transport, error) {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxyURL == "" {
		return t, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q", proxyURL)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	t.Proxy = http.ProxyURL(u)
	return t, nil
}
