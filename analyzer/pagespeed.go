package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
)

const notAvailable = "N/A"

// Lighthouse categories requested from the API, in request order.
var pageSpeedCategories = []string{"performance", "seo", "accessibility", "best-practices"}

// Lighthouse audits surfaced as metrics.
const (
	auditLCP  = "largest-contentful-paint"
	auditFID  = "max-potential-fid"
	auditCLS  = "cumulative-layout-shift"
	auditFCP  = "first-contentful-paint"
	auditTTFB = "server-response-time"
)

type lighthouseCategory struct {
	Score *float64 `json:"score"`
}

type lighthouseAudit struct {
	DisplayValue string `json:"displayValue"`
}

type pageSpeedResponse struct {
	LighthouseResult *struct {
		Categories map[string]*lighthouseCategory `json:"categories"`
		Audits     map[string]lighthouseAudit     `json:"audits"`
	} `json:"lighthouseResult"`
}

// PageSpeed scores targetURL with the PageSpeed Insights API. Without a real
// API key, or when the call fails in any way, it returns placeholder data
// derived from the hostname instead.
func (a *Analyzer) PageSpeed(ctx context.Context, targetURL string) *SpeedResult {
	if !a.LivePageSpeed() {
		a.fellBack(EndpointPageSpeed, targetURL, nil)
		return fallbackSpeed(targetURL)
	}

	result, err := a.fetchPageSpeed(ctx, targetURL)
	if err != nil {
		a.fellBack(EndpointPageSpeed, targetURL, err)
		return fallbackSpeed(targetURL)
	}

	a.succeeded(EndpointPageSpeed, targetURL)
	return result
}

func (a *Analyzer) pageSpeedRequestURL(targetURL string) (string, error) {
	endpoint, err := url.Parse(a.pageSpeedEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid pagespeed endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("url", targetURL)
	q.Set("key", a.apiKey)
	for _, category := range pageSpeedCategories {
		q.Add("category", category)
	}
	q.Set("strategy", "mobile")
	endpoint.RawQuery = q.Encode()
	return endpoint.String(), nil
}

func (a *Analyzer) fetchPageSpeed(ctx context.Context, targetURL string) (*SpeedResult, error) {
	apiURL, err := a.pageSpeedRequestURL(targetURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pagespeed request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagespeed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("%w: pagespeed returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var payload pageSpeedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, a.maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode pagespeed response: %w", err)
	}

	return speedFromLighthouse(targetURL, &payload)
}

func speedFromLighthouse(targetURL string, payload *pageSpeedResponse) (*SpeedResult, error) {
	lr := payload.LighthouseResult
	if lr == nil {
		return nil, fmt.Errorf("%w: no lighthouseResult", ErrIncompleteResult)
	}

	scores := make(map[string]int, len(pageSpeedCategories))
	for _, name := range pageSpeedCategories {
		category, ok := lr.Categories[name]
		if !ok || category == nil {
			return nil, fmt.Errorf("%w: missing category %q", ErrIncompleteResult, name)
		}
		scores[name] = percent(category.Score)
	}

	display := func(audit string) string {
		if v := lr.Audits[audit].DisplayValue; v != "" {
			return v
		}
		return notAvailable
	}

	return &SpeedResult{
		URL: targetURL,
		Scores: Scores{
			Performance:   scores["performance"],
			SEO:           scores["seo"],
			Accessibility: scores["accessibility"],
			BestPractices: scores["best-practices"],
		},
		Metrics: Metrics{
			LCP:  display(auditLCP),
			FID:  display(auditFID),
			CLS:  display(auditCLS),
			FCP:  display(auditFCP),
			TTFB: display(auditTTFB),
		},
		Opportunities: []Opportunity{},
	}, nil
}

// percent turns a 0.0-1.0 Lighthouse score into a rounded percentage.
// A null score (category not applicable) counts as 0.
func percent(score *float64) int {
	if score == nil {
		return 0
	}
	return int(math.Round(*score * 100))
}
