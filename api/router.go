package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seoblend/backend/analyzer"
	"github.com/seoblend/backend/middleware"
	"github.com/seoblend/backend/stats"
)

// Analyzer runs the three analyses. Implementations never fail: upstream
// problems are expected to come back as fallback data.
type Analyzer interface {
	PageSpeed(ctx context.Context, targetURL string) *analyzer.SpeedResult
	OnPage(ctx context.Context, targetURL string) *analyzer.OnPageResult
	Technical(ctx context.Context, targetURL string) *analyzer.TechnicalResult
}

// Statistics collects per-request counters and summarizes them.
type Statistics interface {
	middleware.RequestTracker
	Summary(withHosts bool) stats.Summary
	MonthSummary(yearMonth string, withHosts bool) (stats.Summary, bool)
}

// Options controls routing and limits.
type Options struct {
	// Prefixes are mounted in addition to the bare paths, e.g. "/.netlify/functions/api".
	Prefixes       []string
	DevMode        bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds the handler dependencies.
type Server struct {
	analyzer Analyzer
	stats    Statistics
	logger   *zap.Logger
	devMode  bool
}

// NewRouter builds the gin engine serving the analysis endpoints.
func NewRouter(an Analyzer, st Statistics, logger *zap.Logger, opts Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer: an,
		stats:    st,
		logger:   logger.Named("api"),
		devMode:  opts.DevMode,
	}

	r := gin.New()
	r.RedirectTrailingSlash = false

	// Recovery sits right after CORS so panics in tracking still get the 500 body.
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler(logger.Named("recovery")))
	r.Use(middleware.Logger(logger.Named("http")))
	if st != nil {
		r.Use(middleware.Stats(st))
	}
	r.Use(middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).RateLimit())

	s.register(r)
	for _, prefix := range normalizePrefixes(opts.Prefixes) {
		s.register(r.Group(prefix))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return r
}

func (s *Server) register(g gin.IRoutes) {
	g.Any("/pagespeed", s.pageSpeed)
	g.Any("/onpage-analysis", s.onPage)
	g.Any("/technical-seo", s.technical)
	g.GET("/health", s.health)
	g.GET("/statistics", s.statistics)
}

// normalizePrefixes drops empty, root and duplicate prefixes, which would
// collide with the bare routes.
func normalizePrefixes(prefixes []string) []string {
	seen := make(map[string]bool, len(prefixes))
	var out []string
	for _, p := range prefixes {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
