package analyzer

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Endpoint names, used for logging and outcome statistics.
const (
	EndpointPageSpeed = "pagespeed"
	EndpointOnPage    = "onpage-analysis"
	EndpointTechnical = "technical-seo"
)

// BrowserUserAgent is sent with on-page fetches so sites serve their regular markup.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DemoAPIKey is the placeholder credential that keeps PageSpeed in fallback mode.
const DemoAPIKey = "demo"

var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrInvalidURL       = errors.New("invalid url")
	ErrIncompleteResult = errors.New("incomplete pagespeed result")
)

// Recorder receives one outcome per analysis: live data or fallback data.
type Recorder interface {
	RecordOutcome(endpoint, targetURL string, fallback bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, string, bool) {}

// Config is the analyzer's share of the service configuration.
type Config struct {
	// APIKey enables live PageSpeed calls unless empty or "demo".
	APIKey            string
	PageSpeedEndpoint string
	Timeout           time.Duration
	MaxBodyBytes      int64
}

// Analyzer runs the speed, on-page and technical analyses. It holds no
// per-request state; every call depends only on its URL and the network.
type Analyzer struct {
	client            *http.Client
	apiKey            string
	pageSpeedEndpoint string
	maxBodyBytes      int64
	logger            *zap.Logger
	recorder          Recorder
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Analyzer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder reports live/fallback outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New creates a new Analyzer instance
func New(cfg Config, opts ...Option) *Analyzer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 * 1024 * 1024
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	a := &Analyzer{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		apiKey:            cfg.APIKey,
		pageSpeedEndpoint: cfg.PageSpeedEndpoint,
		maxBodyBytes:      maxBody,
		logger:            zap.NewNop(),
		recorder:          nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LivePageSpeed reports whether speed analyses call the PageSpeed API: a real
// credential and an endpoint are both configured.
func (a *Analyzer) LivePageSpeed() bool {
	return a.apiKey != "" && a.apiKey != DemoAPIKey && a.pageSpeedEndpoint != ""
}

// fellBack logs the upstream failure and records a fallback outcome.
func (a *Analyzer) fellBack(endpoint, targetURL string, err error) {
	if err != nil {
		a.logger.Warn("analysis failed, serving fallback data",
			zap.String("endpoint", endpoint),
			zap.String("url", targetURL),
			zap.Error(err),
		)
	}
	a.recorder.RecordOutcome(endpoint, targetURL, true)
}

func (a *Analyzer) succeeded(endpoint, targetURL string) {
	a.recorder.RecordOutcome(endpoint, targetURL, false)
}
