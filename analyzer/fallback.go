package analyzer

import (
	"net/url"
	"strings"
)

// Placeholder data served when live analysis is unavailable. None of this
// is measured; it only keeps the dashboard populated.

// Base performance scores keyed by hostname substring, checked in order.
var fallbackBaseScores = []struct {
	contains string
	score    int
}{
	{"google", 90},
	{"github", 80},
}

const (
	defaultFallbackScore = 70
	seoOffset            = 5
	accessibilityOffset  = 10
	bestPracticesOffset  = 8
)

func fallbackBaseScore(targetURL string) int {
	var host string
	if u, err := url.Parse(targetURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	for _, b := range fallbackBaseScores {
		if strings.Contains(host, b.contains) {
			return b.score
		}
	}
	return defaultFallbackScore
}

func fallbackSpeed(targetURL string) *SpeedResult {
	base := fallbackBaseScore(targetURL)
	return &SpeedResult{
		URL: targetURL,
		Scores: Scores{
			Performance:   base,
			SEO:           base + seoOffset,
			Accessibility: base + accessibilityOffset,
			BestPractices: base + bestPracticesOffset,
		},
		Metrics: Metrics{
			LCP:  "2.1s",
			FID:  "85ms",
			CLS:  "0.15",
			FCP:  "1.8s",
			TTFB: "450ms",
		},
		Opportunities: []Opportunity{
			{
				Category:    "Image Optimization",
				Impact:      "High",
				Savings:     "1.2s",
				Description: "Compress and resize images, use modern formats (WebP)",
				Status:      "critical",
			},
			{
				Category:    "JavaScript Optimization",
				Impact:      "Medium",
				Savings:     "0.8s",
				Description: "Remove unused JavaScript and defer non-critical scripts",
				Status:      "warning",
			},
		},
	}
}

func fallbackOnPage(targetURL string) *OnPageResult {
	return &OnPageResult{
		URL: targetURL,
		MetaTags: []MetaTagRow{{
			Page:        currentPage,
			Title:       "Present",
			Description: "Missing",
			Canonical:   "Present",
			Status:      StatusWarning,
		}},
		HeadingStructure: []HeadingRow{{
			Page:   currentPage,
			H1:     1,
			H2:     3,
			H3:     8,
			H4:     2,
			Issues: "Good structure",
			Status: StatusSuccess,
		}},
		ImageOptimization: []ImageRow{{
			Page:    currentPage,
			Total:   15,
			WithAlt: 12,
			Missing: 3,
			Status:  StatusWarning,
		}},
	}
}

func fallbackTechnical(targetURL string) *TechnicalResult {
	ssl := strings.HasPrefix(targetURL, "https://")
	return &TechnicalResult{
		URL: targetURL,
		CoreWebVitals: []VitalRow{
			{Metric: "SSL Certificate", Value: pick(ssl, "Valid", "Invalid"), Target: "Required", Status: requiredStatus(ssl)},
			{Metric: "Mobile-Friendly", Value: "Yes", Target: "Required", Status: StatusSuccess},
			{Metric: "Robots.txt", Value: "Found", Target: "Present", Status: StatusSuccess},
			{Metric: "XML Sitemap", Value: "Found", Target: "Present", Status: StatusSuccess},
		},
		TechnicalChecks: []CheckRow{
			{Check: "SSL Certificate", Status: requiredStatus(ssl), Description: pick(ssl, "Valid SSL certificate", "SSL certificate missing")},
			{Check: "Mobile-Friendly", Status: StatusSuccess, Description: "Mobile optimized"},
			{Check: "XML Sitemap", Status: StatusSuccess, Description: "Sitemap accessible"},
			{Check: "Robots.txt", Status: StatusSuccess, Description: "Robots.txt found"},
			{Check: "Schema Markup", Status: StatusWarning, Description: "Limited structured data"},
		},
		CrawlErrors: []CrawlError{},
	}
}
