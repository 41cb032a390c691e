package analyzer

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// OnPage fetches targetURL once and reports its meta tags, heading counts
// and image alt coverage. Unreachable pages, non-2xx responses and parse
// failures all produce the static sample result.
func (a *Analyzer) OnPage(ctx context.Context, targetURL string) *OnPageResult {
	result, err := a.analyzeOnPage(ctx, targetURL)
	if err != nil {
		a.fellBack(EndpointOnPage, targetURL, err)
		return fallbackOnPage(targetURL)
	}
	a.succeeded(EndpointOnPage, targetURL)
	return result
}

func (a *Analyzer) analyzeOnPage(ctx context.Context, targetURL string) (*OnPageResult, error) {
	p, err := a.fetchPage(ctx, targetURL, BrowserUserAgent, true)
	if err != nil {
		return nil, err
	}
	if p.doc == nil {
		return nil, fmt.Errorf("no document parsed from %s", targetURL)
	}
	return buildOnPage(targetURL, extractDetails(p.doc)), nil
}

func extractDetails(doc *goquery.Document) *OnPageDetails {
	d := &OnPageDetails{
		Title:           doc.Find("title").Text(),
		MetaDescription: attr(doc, `meta[name="description"]`, "content"),
		Canonical:       attr(doc, `link[rel="canonical"]`, "href"),
		OGTitle:         attr(doc, `meta[property="og:title"]`, "content"),
		OGDescription:   attr(doc, `meta[property="og:description"]`, "content"),
		Headings: HeadingCount{
			H1: doc.Find("h1").Length(),
			H2: doc.Find("h2").Length(),
			H3: doc.Find("h3").Length(),
			H4: doc.Find("h4").Length(),
			H5: doc.Find("h5").Length(),
			H6: doc.Find("h6").Length(),
		},
	}

	images := doc.Find("img")
	d.ImageData.Total = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if alt, _ := s.Attr("alt"); alt != "" {
			d.ImageData.WithAlt++
		}
	})
	d.ImageData.Missing = d.ImageData.Total - d.ImageData.WithAlt

	return d
}

// attr reads name from the first element matching selector, or "".
func attr(doc *goquery.Document, selector, name string) string {
	value, _ := doc.Find(selector).Attr(name)
	return value
}

func buildOnPage(targetURL string, d *OnPageDetails) *OnPageResult {
	issues, headingStatus := headingVerdict(d.Headings.H1)

	return &OnPageResult{
		URL: targetURL,
		MetaTags: []MetaTagRow{{
			Page:        currentPage,
			Title:       presence(d.Title),
			Description: presence(d.MetaDescription),
			Canonical:   presence(d.Canonical),
			Status:      metaTagsStatus(d.Title, d.MetaDescription, d.Canonical),
		}},
		HeadingStructure: []HeadingRow{{
			Page:   currentPage,
			H1:     d.Headings.H1,
			H2:     d.Headings.H2,
			H3:     d.Headings.H3,
			H4:     d.Headings.H4,
			Issues: issues,
			Status: headingStatus,
		}},
		ImageOptimization: []ImageRow{{
			Page:    currentPage,
			Total:   d.ImageData.Total,
			WithAlt: d.ImageData.WithAlt,
			Missing: d.ImageData.Missing,
			Status:  imageStatus(d.ImageData.Total, d.ImageData.Missing),
		}},
		Details: d,
	}
}
