package validate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent is sent with reachability probes.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// IsValidURL reports whether s is an absolute http(s) URL with a host.
// It never touches the network.
func IsValidURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

// CheckAccessible probes rawURL with a HEAD request, following redirects.
// Servers that reject HEAD with 405 are retried with a GET whose body is
// never read. The URL is reachable iff the final status is below 400.
// On failure the returned string says why.
func CheckAccessible(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) (bool, string) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	status, err := probe(ctx, client, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = probe(ctx, client, http.MethodGet, rawURL)
	}
	if err != nil {
		return false, describeProbeError(err)
	}
	if status >= 400 {
		return false, fmt.Sprintf("HTTP %d", status)
	}
	return true, ""
}

func probe(ctx context.Context, client *http.Client, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func describeProbeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timeout"
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return "Connection error"
	}
	return "Request error: " + err.Error()
}

// NormalizeURL rewrites s into a canonical form for comparison: https is
// assumed when no scheme is given, default ports are dropped and trailing
// slashes are removed from non-root paths. Applying it twice is a no-op.
func NormalizeURL(s string) string {
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}

	host := u.Host
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.User != nil {
		host = u.User.String() + "@" + host
	}

	path := u.EscapedPath()
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

// Domain returns the lowercased host[:port] of s, or "" if s does not parse
// or carries no host.
func Domain(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
