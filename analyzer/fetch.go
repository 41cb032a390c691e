package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// page is a fetched and parsed HTML document.
type page struct {
	status int
	doc    *goquery.Document
}

func (p *page) ok() bool {
	return p.status >= 200 && p.status < 300
}

// get issues a GET with an optional user agent.
func (a *Analyzer) get(ctx context.Context, targetURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", targetURL, err)
	}
	return resp, nil
}

// fetchPage downloads targetURL and parses the body. With requireOK a non-2xx
// status is returned as ErrUnexpectedStatus without parsing. The body is
// capped at maxBodyBytes and decoded to UTF-8 from the declared or sniffed
// charset.
func (a *Analyzer) fetchPage(ctx context.Context, targetURL, userAgent string, requireOK bool) (*page, error) {
	resp, err := a.get(ctx, targetURL, userAgent)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	p := &page{status: resp.StatusCode}
	if requireOK && !p.ok() {
		return p, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, targetURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, a.maxBodyBytes)
	utf8Body, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return p, fmt.Errorf("failed to decode body of %s: %w", targetURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return p, fmt.Errorf("failed to parse %s: %w", targetURL, err)
	}
	p.doc = doc
	return p, nil
}

// probe reports whether targetURL answers a GET with a 2xx status.
func (a *Analyzer) probe(ctx context.Context, targetURL string) (bool, error) {
	resp, err := a.get(ctx, targetURL, "")
	if err != nil {
		return false, err
	}
	defer drain(resp)
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}
