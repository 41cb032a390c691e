package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	endpoint string
	url      string
	fallback bool
}

type memRecorder struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (r *memRecorder) RecordOutcome(endpoint, targetURL string, fallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome{endpoint, targetURL, fallback})
}

func (r *memRecorder) last(t *testing.T) outcome {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.outcomes)
	return r.outcomes[len(r.outcomes)-1]
}

const richPage = `<!DOCTYPE html>
<html>
<head>
	<title>Example Domain</title>
	<meta name="description" content="An example page">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<meta property="og:title" content="OG Example">
	<meta property="og:description" content="OG description">
	<link rel="canonical" href="https://example.com/">
	<script type="application/ld+json">{"@type":"Organization"}</script>
</head>
<body>
	<h1>Welcome</h1>
	<h2>One</h2><h2>Two</h2>
	<h3>Three</h3>
	<h5>Five</h5>
	<img src="a.png" alt="A">
	<img src="b.png" alt="B">
	<img src="c.png" alt="C">
	<img src="d.png" alt="">
</body>
</html>`

const barePage = `<html><head></head><body><p>No headings here</p><img src="x.png"></body></html>`

// site serves fixed documents per path; anything else is a 404.
func site(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnalyzer(cfg Config) (*Analyzer, *memRecorder) {
	rec := &memRecorder{}
	return New(cfg, WithRecorder(rec)), rec
}

func TestPageSpeedFallbackWithoutKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		url  string
		base int
	}{
		{"google", "", "https://www.google.com", 90},
		{"github", "", "https://github.com/golang/go", 80},
		{"other", "", "https://example.com", 70},
		{"demo key", "demo", "https://www.google.com/search", 90},
		{"uppercase host", "", "https://GITHUB.com", 80},
		{"unparseable", "", "::not a url", 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rec := newTestAnalyzer(Config{APIKey: tt.key, PageSpeedEndpoint: "http://127.0.0.1:1/unused"})
			res := a.PageSpeed(context.Background(), tt.url)

			assert.Equal(t, tt.url, res.URL)
			assert.Equal(t, tt.base, res.Scores.Performance)
			assert.Equal(t, tt.base+5, res.Scores.SEO)
			assert.Equal(t, tt.base+10, res.Scores.Accessibility)
			assert.Equal(t, tt.base+8, res.Scores.BestPractices)
			for _, s := range []int{res.Scores.Performance, res.Scores.SEO, res.Scores.Accessibility, res.Scores.BestPractices} {
				assert.True(t, s >= 0 && s <= 100, "score %d out of range", s)
			}
			assert.Equal(t, Metrics{LCP: "2.1s", FID: "85ms", CLS: "0.15", FCP: "1.8s", TTFB: "450ms"}, res.Metrics)
			assert.Len(t, res.Opportunities, 2)
			assert.True(t, rec.last(t).fallback)
		})
	}
}

func TestLivePageSpeed(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		endpoint string
		want     bool
	}{
		{"no key", "", "https://pagespeed.example", false},
		{"demo key", DemoAPIKey, "https://pagespeed.example", false},
		{"no endpoint", "real-key", "", false},
		{"live", "real-key", "https://pagespeed.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{APIKey: tt.key, PageSpeedEndpoint: tt.endpoint})
			assert.Equal(t, tt.want, a.LivePageSpeed())
		})
	}
}

func TestPageSpeedLive(t *testing.T) {
	var gotQuery map[string][]string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"lighthouseResult": {
				"categories": {
					"performance": {"score": 0.875},
					"seo": {"score": 0.92},
					"accessibility": {"score": 1},
					"best-practices": {"score": null}
				},
				"audits": {
					"largest-contentful-paint": {"displayValue": "1.9 s"},
					"max-potential-fid": {"displayValue": "120 ms"},
					"cumulative-layout-shift": {"displayValue": ""},
					"first-contentful-paint": {"displayValue": "0.8 s"}
				}
			}
		}`)
	}))
	defer api.Close()

	a, rec := newTestAnalyzer(Config{APIKey: "secret", PageSpeedEndpoint: api.URL})
	res := a.PageSpeed(context.Background(), "https://example.com/page?q=1")

	assert.Equal(t, Scores{Performance: 88, SEO: 92, Accessibility: 100, BestPractices: 0}, res.Scores)
	assert.Equal(t, Metrics{LCP: "1.9 s", FID: "120 ms", CLS: "N/A", FCP: "0.8 s", TTFB: "N/A"}, res.Metrics)
	assert.NotNil(t, res.Opportunities)
	assert.Empty(t, res.Opportunities)

	assert.Equal(t, []string{"https://example.com/page?q=1"}, gotQuery["url"])
	assert.Equal(t, []string{"secret"}, gotQuery["key"])
	assert.Equal(t, []string{"performance", "seo", "accessibility", "best-practices"}, gotQuery["category"])
	assert.Equal(t, []string{"mobile"}, gotQuery["strategy"])
	assert.False(t, rec.last(t).fallback)
}

func TestPageSpeedLiveFailuresFallBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"lighthouseResult":`)
		}},
		{"missing lighthouse", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}},
		{"missing category", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"lighthouseResult":{"categories":{"performance":{"score":0.5}},"audits":{}}}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := httptest.NewServer(tt.handler)
			defer api.Close()

			a, rec := newTestAnalyzer(Config{APIKey: "secret", PageSpeedEndpoint: api.URL})
			res := a.PageSpeed(context.Background(), "https://github.com")

			assert.Equal(t, 80, res.Scores.Performance)
			assert.Equal(t, "2.1s", res.Metrics.LCP)
			assert.True(t, rec.last(t).fallback)
		})
	}
}

func TestPageSpeedUnreachableAPI(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	endpoint := api.URL
	api.Close()

	a, _ := newTestAnalyzer(Config{APIKey: "secret", PageSpeedEndpoint: endpoint})
	res := a.PageSpeed(context.Background(), "https://www.google.com")
	assert.Equal(t, 90, res.Scores.Performance)
}

func TestOnPageLive(t *testing.T) {
	srv := site(t, map[string]string{"/": richPage})

	a, rec := newTestAnalyzer(Config{})
	res := a.OnPage(context.Background(), srv.URL+"/")

	require.NotNil(t, res.Details)
	assert.Equal(t, "Example Domain", res.Details.Title)
	assert.Equal(t, "An example page", res.Details.MetaDescription)
	assert.Equal(t, "https://example.com/", res.Details.Canonical)
	assert.Equal(t, "OG Example", res.Details.OGTitle)
	assert.Equal(t, "OG description", res.Details.OGDescription)
	assert.Equal(t, HeadingCount{H1: 1, H2: 2, H3: 1, H5: 1}, res.Details.Headings)
	assert.Equal(t, ImageCount{Total: 4, WithAlt: 3, Missing: 1}, res.Details.ImageData)

	require.Len(t, res.MetaTags, 1)
	assert.Equal(t, MetaTagRow{Page: "Current Page", Title: "Present", Description: "Present", Canonical: "Present", Status: StatusSuccess}, res.MetaTags[0])
	require.Len(t, res.HeadingStructure, 1)
	assert.Equal(t, HeadingRow{Page: "Current Page", H1: 1, H2: 2, H3: 1, H4: 0, Issues: "Good structure", Status: StatusSuccess}, res.HeadingStructure[0])
	require.Len(t, res.ImageOptimization, 1)
	// 1 of 4 missing is 25%, under the 30% warning line.
	assert.Equal(t, StatusWarning, res.ImageOptimization[0].Status)
	assert.False(t, rec.last(t).fallback)
}

func TestOnPageMissingH1(t *testing.T) {
	srv := site(t, map[string]string{"/": barePage})

	a, _ := newTestAnalyzer(Config{})
	res := a.OnPage(context.Background(), srv.URL)

	assert.Equal(t, "Missing H1", res.HeadingStructure[0].Issues)
	assert.Equal(t, StatusError, res.HeadingStructure[0].Status)
	assert.Equal(t, StatusError, res.MetaTags[0].Status)
	assert.Equal(t, "Missing", res.MetaTags[0].Title)
	assert.Equal(t, StatusError, res.ImageOptimization[0].Status)
}

func TestOnPageFallback(t *testing.T) {
	srv := site(t, map[string]string{})
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	for name, target := range map[string]string{
		"not found":   srv.URL + "/missing",
		"unreachable": closedURL,
		"no scheme":   "example.invalid/page",
	} {
		t.Run(name, func(t *testing.T) {
			a, rec := newTestAnalyzer(Config{})
			res := a.OnPage(context.Background(), target)

			assert.Equal(t, target, res.URL)
			assert.Nil(t, res.Details)
			assert.Equal(t, StatusWarning, res.MetaTags[0].Status)
			assert.Equal(t, 1, res.HeadingStructure[0].H1)
			assert.Equal(t, 3, res.ImageOptimization[0].Missing)
			assert.True(t, rec.last(t).fallback)
		})
	}
}

func TestOnPageSendsBrowserUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		fmt.Fprint(w, richPage)
	}))
	defer srv.Close()

	a, _ := newTestAnalyzer(Config{})
	a.OnPage(context.Background(), srv.URL)
	assert.Equal(t, BrowserUserAgent, ua)
}

func TestOnPageDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Café" in Latin-1.
		w.Write([]byte("<html><head><title>Caf\xe9</title></head><body><h1>x</h1></body></html>"))
	}))
	defer srv.Close()

	a, _ := newTestAnalyzer(Config{})
	res := a.OnPage(context.Background(), srv.URL)
	require.NotNil(t, res.Details)
	assert.Equal(t, "Café", res.Details.Title)
}

func TestOnPageIdempotent(t *testing.T) {
	srv := site(t, map[string]string{"/": richPage})

	a, _ := newTestAnalyzer(Config{})
	first := a.OnPage(context.Background(), srv.URL)
	second := a.OnPage(context.Background(), srv.URL)
	assert.Equal(t, first, second)
}

func TestTechnicalIdempotent(t *testing.T) {
	srv := site(t, map[string]string{
		"/":           richPage,
		"/robots.txt": "User-agent: *\nAllow: /",
	})

	a, _ := newTestAnalyzer(Config{})
	first := a.Technical(context.Background(), srv.URL)
	second := a.Technical(context.Background(), srv.URL)
	assert.Equal(t, first, second)
}

func TestTechnicalLive(t *testing.T) {
	srv := site(t, map[string]string{
		"/":            richPage,
		"/robots.txt":  "User-agent: *\nAllow: /",
		"/sitemap.xml": "<urlset></urlset>",
	})

	a, rec := newTestAnalyzer(Config{})
	res := a.Technical(context.Background(), srv.URL+"/")

	require.Len(t, res.CoreWebVitals, 4)
	assert.Equal(t, VitalRow{Metric: "SSL Certificate", Value: "Invalid", Target: "Required", Status: StatusError}, res.CoreWebVitals[0])
	assert.Equal(t, VitalRow{Metric: "Mobile-Friendly", Value: "Yes", Target: "Required", Status: StatusSuccess}, res.CoreWebVitals[1])
	assert.Equal(t, VitalRow{Metric: "Robots.txt", Value: "Found", Target: "Present", Status: StatusSuccess}, res.CoreWebVitals[2])
	assert.Equal(t, VitalRow{Metric: "XML Sitemap", Value: "Found", Target: "Present", Status: StatusSuccess}, res.CoreWebVitals[3])

	require.Len(t, res.TechnicalChecks, 6)
	checks := map[string]CheckRow{}
	for _, c := range res.TechnicalChecks {
		checks[c.Check] = c
	}
	assert.Equal(t, StatusSuccess, checks["Schema Markup"].Status)
	assert.Equal(t, "Structured data found", checks["Schema Markup"].Description)
	assert.Equal(t, StatusWarning, checks["HTTPS Redirect"].Status)
	assert.Equal(t, "Sitemap found and accessible", checks["XML Sitemap"].Description)
	assert.NotNil(t, res.CrawlErrors)
	assert.Empty(t, res.CrawlErrors)
	assert.False(t, rec.last(t).fallback)
}

func TestTechnicalMissingResources(t *testing.T) {
	srv := site(t, map[string]string{"/": barePage})

	a, _ := newTestAnalyzer(Config{})
	res := a.Technical(context.Background(), srv.URL)

	assert.Equal(t, StatusError, res.CoreWebVitals[1].Status)
	assert.Equal(t, "No", res.CoreWebVitals[1].Value)
	assert.Equal(t, StatusWarning, res.CoreWebVitals[2].Status)
	assert.Equal(t, "Missing", res.CoreWebVitals[2].Value)
	assert.Equal(t, StatusWarning, res.CoreWebVitals[3].Status)
	assert.Equal(t, "No structured data detected", res.TechnicalChecks[4].Description)
}

func TestTechnicalUnreachableKeepsDefaults(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	target := closed.URL
	closed.Close()

	a, rec := newTestAnalyzer(Config{})
	res := a.Technical(context.Background(), target)

	// Probe failures are warnings and the page check keeps its defaults.
	assert.Equal(t, StatusSuccess, res.CoreWebVitals[1].Status)
	assert.Equal(t, StatusWarning, res.CoreWebVitals[2].Status)
	assert.Equal(t, StatusWarning, res.CoreWebVitals[3].Status)
	assert.Equal(t, StatusWarning, res.TechnicalChecks[4].Status)
	assert.Len(t, res.TechnicalChecks, 6)
	assert.False(t, rec.last(t).fallback)
}

func TestTechnicalSSL(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, richPage)
	}))
	defer srv.Close()

	a := New(Config{}, WithHTTPClient(srv.Client()))
	res := a.Technical(context.Background(), srv.URL)

	require.True(t, strings.HasPrefix(srv.URL, "https://"))
	assert.Equal(t, StatusSuccess, res.CoreWebVitals[0].Status)
	assert.Equal(t, "Valid", res.CoreWebVitals[0].Value)
	assert.Equal(t, "Using HTTPS protocol", res.TechnicalChecks[5].Description)
}

func TestTechnicalFallback(t *testing.T) {
	tests := []struct {
		url    string
		status Status
	}{
		{"https://", StatusSuccess},
		{"http//missing-colon", StatusError},
		{"%zz", StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			a, rec := newTestAnalyzer(Config{})
			res := a.Technical(context.Background(), tt.url)

			assert.Equal(t, tt.status, res.CoreWebVitals[0].Status)
			assert.Len(t, res.TechnicalChecks, 5)
			assert.Equal(t, "Limited structured data", res.TechnicalChecks[4].Description)
			assert.True(t, rec.last(t).fallback)
		})
	}
}
