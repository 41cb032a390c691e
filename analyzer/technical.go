package analyzer

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

// technicalFacts are the inputs of the technical checklist.
type technicalFacts struct {
	ssl               bool
	robots            Status
	sitemap           Status
	mobileOptimized   bool
	hasStructuredData bool
}

// Technical derives a small technical SEO checklist for targetURL: HTTPS,
// robots.txt and sitemap.xml reachability, viewport meta tag and JSON-LD
// presence. Probes run one after another; a failed probe downgrades its own
// row only.
func (a *Analyzer) Technical(ctx context.Context, targetURL string) *TechnicalResult {
	result, err := a.analyzeTechnical(ctx, targetURL)
	if err != nil {
		a.fellBack(EndpointTechnical, targetURL, err)
		return fallbackTechnical(targetURL)
	}
	a.succeeded(EndpointTechnical, targetURL)
	return result
}

func (a *Analyzer) analyzeTechnical(ctx context.Context, targetURL string) (*TechnicalResult, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no scheme or host", ErrInvalidURL, targetURL)
	}

	origin := u.Scheme + "://" + u.Host
	facts := technicalFacts{
		ssl:             u.Scheme == "https",
		robots:          a.probeStatus(ctx, origin+"/robots.txt"),
		sitemap:         a.probeStatus(ctx, origin+"/sitemap.xml"),
		mobileOptimized: true,
	}

	p, err := a.fetchPage(ctx, targetURL, "", false)
	switch {
	case err != nil:
		a.logger.Warn("page details unavailable", zap.String("url", targetURL), zap.Error(err))
	case p.doc != nil:
		facts.mobileOptimized = p.doc.Find(`meta[name="viewport"]`).Length() > 0
		facts.hasStructuredData = p.doc.Find(`script[type="application/ld+json"]`).Length() > 0
	}

	return buildTechnical(targetURL, facts), nil
}

func (a *Analyzer) probeStatus(ctx context.Context, target string) Status {
	ok, err := a.probe(ctx, target)
	if err != nil {
		a.logger.Debug("probe failed", zap.String("url", target), zap.Error(err))
	}
	return probeStatus(ok)
}

func buildTechnical(targetURL string, f technicalFacts) *TechnicalResult {
	robotsFound := f.robots == StatusSuccess
	sitemapFound := f.sitemap == StatusSuccess

	return &TechnicalResult{
		URL: targetURL,
		CoreWebVitals: []VitalRow{
			{Metric: "SSL Certificate", Value: pick(f.ssl, "Valid", "Invalid"), Target: "Required", Status: requiredStatus(f.ssl)},
			{Metric: "Mobile-Friendly", Value: pick(f.mobileOptimized, "Yes", "No"), Target: "Required", Status: requiredStatus(f.mobileOptimized)},
			{Metric: "Robots.txt", Value: pick(robotsFound, "Found", "Missing"), Target: "Present", Status: f.robots},
			{Metric: "XML Sitemap", Value: pick(sitemapFound, "Found", "Missing"), Target: "Present", Status: f.sitemap},
		},
		TechnicalChecks: []CheckRow{
			{
				Check:       "SSL Certificate",
				Status:      requiredStatus(f.ssl),
				Description: pick(f.ssl, "Valid SSL certificate installed", "SSL certificate missing or invalid"),
			},
			{
				Check:       "Mobile-Friendly",
				Status:      requiredStatus(f.mobileOptimized),
				Description: pick(f.mobileOptimized, "Viewport meta tag found", "Missing viewport meta tag"),
			},
			{
				Check:       "XML Sitemap",
				Status:      f.sitemap,
				Description: pick(sitemapFound, "Sitemap found and accessible", "Sitemap not found or inaccessible"),
			},
			{
				Check:       "Robots.txt",
				Status:      f.robots,
				Description: pick(robotsFound, "Robots.txt found and accessible", "Robots.txt not found or inaccessible"),
			},
			{
				Check:       "Schema Markup",
				Status:      probeStatus(f.hasStructuredData),
				Description: pick(f.hasStructuredData, "Structured data found", "No structured data detected"),
			},
			{
				Check:       "HTTPS Redirect",
				Status:      probeStatus(f.ssl),
				Description: pick(f.ssl, "Using HTTPS protocol", "Consider implementing HTTPS redirect"),
			},
		},
		CrawlErrors: []CrawlError{},
	}
}
