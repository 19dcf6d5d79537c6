package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, robots string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits.Add(1)
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(robots))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-UA", r.Header.Get("User-Agent"))
		w.Header().Set("X-Seen-Custom", r.Header.Get("X-Custom"))
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &robotsHits
}

func TestRobotsChecker(t *testing.T) {
	srv, hits := robotsServer(t, "User-agent: *\nDisallow: /private\nCrawl-delay: 2\n")
	rc := NewRobotsChecker(srv.Client(), true)
	ctx := context.Background()

	ok, err := rc.IsAllowed(ctx, "compintel", srv.URL+"/new-arrivals")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = rc.IsAllowed(ctx, "compintel", srv.URL+"/private/deals")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, int32(1), hits.Load(), "robots.txt is cached per origin")
}

func TestRobotsCheckerMissingFileAllows(t *testing.T) {
	srv, _ := robotsServer(t, "")
	rc := NewRobotsChecker(srv.Client(), true)
	ok, err := rc.IsAllowed(context.Background(), "compintel", srv.URL+"/anything")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRobotsCheckerDisabled(t *testing.T) {
	srv, hits := robotsServer(t, "User-agent: *\nDisallow: /\n")
	rc := NewRobotsChecker(srv.Client(), false)
	ok, err := rc.IsAllowed(context.Background(), "compintel", srv.URL+"/x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, hits.Load())
}

func TestTransport(t *testing.T) {
	srv, _ := robotsServer(t, "User-agent: *\nDisallow: /private\n")
	client := &http.Client{Transport: &Transport{
		Base:      srv.Client().Transport,
		UserAgent: "compintel-test",
		Headers:   http.Header{"X-Custom": []string{"yes"}},
		Robots:    NewRobotsChecker(srv.Client(), true),
	}}

	resp, err := client.Get(srv.URL + "/new")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "compintel-test", resp.Header.Get("X-Seen-UA"))
	require.Equal(t, "yes", resp.Header.Get("X-Seen-Custom"))

	_, err = client.Get(srv.URL + "/private/sale")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDisallowed))
}

func TestPerMinute(t *testing.T) {
	require.Nil(t, PerMinute(0))
	l := PerMinute(120)
	require.InDelta(t, 2.0, float64(l.Limit()), 1e-9)
	require.Equal(t, 1, l.Burst())
}

func TestPacer(t *testing.T) {
	ctx := context.Background()
	p := NewPacer(60 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.Less(t, time.Since(start), 30*time.Millisecond, "first wait is immediate")

	require.NoError(t, p.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.Error(t, p.Wait(cancelled))

	nop := NewPacer(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, nop.Wait(ctx))
	}
}

func TestNewBaseTransport(t *testing.T) {
	tr, err := NewBaseTransport("")
	require.NoError(t, err)
	require.NotNil(t, tr)

	tr, err = NewBaseTransport("http://proxy.internal:3128")
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	u, err := tr.Proxy(req)
	require.NoError(t, err)
	require.Equal(t, "proxy.internal:3128", u.Host)

	_, err = NewBaseTransport("ftp://proxy")
	require.Error(t, err)
	_, err = NewBaseTransport("::bad")
	require.Error(t, err)
}
