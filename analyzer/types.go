package analyzer

// Status is the traffic-light verdict attached to every result row.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// SpeedResult is the response of the speed analysis.
type SpeedResult struct {
	URL           string        `json:"url"`
	Scores        Scores        `json:"scores"`
	Metrics       Metrics       `json:"metrics"`
	Opportunities []Opportunity `json:"opportunities"`
}

// Scores are 0-100 category scores.
type Scores struct {
	Performance   int `json:"performance"`
	SEO           int `json:"seo"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
}

// Metrics holds display strings such as "2.1s", or "N/A".
type Metrics struct {
	LCP  string `json:"lcp"`
	FID  string `json:"fid"`
	CLS  string `json:"cls"`
	FCP  string `json:"fcp"`
	TTFB string `json:"ttfb"`
}

type Opportunity struct {
	Category    string `json:"category"`
	Impact      string `json:"impact"`
	Savings     string `json:"savings"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// OnPageResult is the response of the on-page analysis.
type OnPageResult struct {
	URL               string         `json:"url"`
	MetaTags          []MetaTagRow   `json:"metaTags"`
	HeadingStructure  []HeadingRow   `json:"headingStructure"`
	ImageOptimization []ImageRow     `json:"imageOptimization"`
	Details           *OnPageDetails `json:"details,omitempty"`
}

type MetaTagRow struct {
	Page        string `json:"page"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
	Status      Status `json:"status"`
}

type HeadingRow struct {
	Page   string `json:"page"`
	H1     int    `json:"h1"`
	H2     int    `json:"h2"`
	H3     int    `json:"h3"`
	H4     int    `json:"h4"`
	Issues string `json:"issues"`
	Status Status `json:"status"`
}

type ImageRow struct {
	Page    string `json:"page"`
	Total   int    `json:"total"`
	WithAlt int    `json:"withAlt"`
	Missing int    `json:"missing"`
	Status  Status `json:"status"`
}

// OnPageDetails carries the raw values extracted from the document.
type OnPageDetails struct {
	Title           string       `json:"title"`
	MetaDescription string       `json:"metaDescription"`
	Canonical       string       `json:"canonical"`
	OGTitle         string       `json:"ogTitle"`
	OGDescription   string       `json:"ogDescription"`
	Headings        HeadingCount `json:"headings"`
	ImageData       ImageCount   `json:"imageData"`
}

type HeadingCount struct {
	H1 int `json:"h1"`
	H2 int `json:"h2"`
	H3 int `json:"h3"`
	H4 int `json:"h4"`
	H5 int `json:"h5"`
	H6 int `json:"h6"`
}

type ImageCount struct {
	Total   int `json:"total"`
	WithAlt int `json:"withAlt"`
	Missing int `json:"missing"`
}

// TechnicalResult is the response of the technical SEO analysis.
type TechnicalResult struct {
	URL             string       `json:"url"`
	CoreWebVitals   []VitalRow   `json:"coreWebVitals"`
	TechnicalChecks []CheckRow   `json:"technicalChecks"`
	CrawlErrors     []CrawlError `json:"crawlErrors"`
}

type VitalRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
	Target string `json:"target"`
	Status Status `json:"status"`
}

type CheckRow struct {
	Check       string `json:"check"`
	Status      Status `json:"status"`
	Description string `json:"description"`
}

// CrawlError is part of the response shape; no crawl fills it yet.
type CrawlError struct {
	URL      string `json:"url"`
	Error    string `json:"error"`
	LastSeen string `json:"lastSeen"`
	Status   Status `json:"status"`
}
