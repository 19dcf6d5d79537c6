package direct

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lukman83/compintel/internal/crawl"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const samplePage = `<html><head><title>New Arrivals | West Elm</title><style>.x{color:red}</style></head>
<body>
<nav><a href="/">Home</a> <a href="javascript:void(0)">Menu</a></nav>
<h1>New   Arrivals</h1>
<ul>
  <li><a href="/products/sofa">Modern Sofa</a> - $899</li>
  <li><img src="/img/table.jpg" alt="Oak Table"> Oak Table - $1,299</li>
</ul>
<p>20% off <b>all</b> chairs</p>
<script>var a = 1;</script>
</body></html>`

func TestMarkdown(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(samplePage))
	require.NoError(t, err)
	base, _ := url.Parse("https://www.westelm.com/new")

	md := Markdown(doc, base)
	lines := strings.Split(md, "\n")
	require.Contains(t, lines, "# New Arrivals")
	require.Contains(t, lines, "- [Modern Sofa](https://www.westelm.com/products/sofa) - $899")
	require.Contains(t, lines, "- ![Oak Table](https://www.westelm.com/img/table.jpg) Oak Table - $1,299")
	require.Contains(t, lines, "20% off all chairs")
	require.NotContains(t, md, "color:red")
	require.NotContains(t, md, "var a")
	require.NotContains(t, md, "javascript:")

	require.Equal(t, "New Arrivals | West Elm", Title(doc))
}

func TestTitleFallbacks(t *testing.T) {
	doc, _ := html.Parse(strings.NewReader(`<html><head><meta property="og:title" content=" Summer Sale "></head><body><h1>x</h1></body></html>`))
	require.Equal(t, "Summer Sale", Title(doc))

	doc, _ = html.Parse(strings.NewReader(`<body><h1>Clearance   Event</h1></body>`))
	require.Equal(t, "Clearance Event", Title(doc))
}

func TestStaticFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-UA", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	})
	mux.HandleFunc("/blank", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><script>x()</script></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewStatic(srv.Client())
	require.Equal(t, "direct", s.Name())

	ctx := platform.WithFetchOptions(context.Background(), platform.FetchOptions{UserAgent: "compintel-test"})
	page := s.Fetch(ctx, srv.URL+"/new")
	require.True(t, page.OK(), page.Error)
	require.Equal(t, srv.URL+"/new", page.URL)
	require.Equal(t, "New Arrivals | West Elm", page.Title)
	require.Contains(t, page.Markdown, "- [Modern Sofa]("+srv.URL+"/products/sofa) - $899")
	require.Equal(t, samplePage, page.HTML)
	require.Equal(t, "direct", page.Backend)

	page = s.Fetch(ctx, srv.URL+"/missing")
	require.False(t, page.OK())
	require.Equal(t, "HTTP 404", page.Error)

	page = s.Fetch(ctx, srv.URL+"/blank")
	require.False(t, page.OK())
	require.Contains(t, page.Error, "no visible content")

	page = s.Fetch(ctx, "://bad")
	require.Equal(t, platform.StatusFailed, page.Status)
}

func TestHeadlessName(t *testing.T) {
	h := NewHeadless("", "compintel", 0, nil)
	require.Equal(t, "headless", h.Name())
	require.Equal(t, defaultHeadlessTimeout, h.timeout)
}

type countingScraper struct {
	calls int
}

func (s *countingScraper) Name() string { return "spare" }

func (s *countingScraper) Fetch(ctx context.Context, url string) platform.PageResult {
	s.calls++
	return platform.PageResult{URL: url, Status: platform.StatusSuccess, Markdown: "# Private"}
}

func disallowServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestChainStopsAtRobotsDisallow(t *testing.T) {
	srv := disallowServer(t)
	robots := crawl.NewRobotsChecker(srv.Client(), true)
	client := &http.Client{Transport: &crawl.Transport{
		Base:      srv.Client().Transport,
		UserAgent: "compintel",
		Robots:    robots,
	}}
	spare := &countingScraper{}
	chain := platform.NewChain(NewStatic(client), spare)

	page := chain.Fetch(context.Background(), srv.URL+"/private/page")
	require.False(t, page.OK())
	require.True(t, page.Blocked)
	require.Contains(t, page.Error, "blocked by robots.txt")
	require.Zero(t, spare.calls, "a disallowed page never reaches the next backend")

	page = chain.Fetch(context.Background(), srv.URL+"/new")
	require.True(t, page.OK(), page.Error)
	require.Equal(t, "direct", page.Backend)
	require.Zero(t, spare.calls)
}

func TestHeadlessChecksRobots(t *testing.T) {
	srv := disallowServer(t)
	h := NewHeadless("", "compintel", time.Second, crawl.NewRobotsChecker(srv.Client(), true))

	page := h.Fetch(context.Background(), srv.URL+"/private/page")
	require.False(t, page.OK())
	require.True(t, page.Blocked)
	require.Contains(t, page.Error, "blocked by robots.txt")
	require.Equal(t, "headless", page.Backend)
}
