package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

type analyzeRequest struct {
	URL string `json:"url"`
}

// targetURL validates an analysis request: POST only, JSON body with a
// non-empty url. An empty body counts as {}. On failure the response has
// already been written.
func (s *Server) targetURL(c *gin.Context) (string, bool) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return "", false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("rejecting malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return "", false
	}

	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return "", false
	}
	return req.URL, true
}

func (s *Server) pageSpeed(c *gin.Context) {
	target, ok := s.targetURL(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.analyzer.PageSpeed(c.Request.Context(), target))
}

func (s *Server) onPage(c *gin.Context) {
	target, ok := s.targetURL(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.analyzer.OnPage(c.Request.Context(), target))
}

func (s *Server) technical(c *gin.Context) {
	target, ok := s.targetURL(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.analyzer.Technical(c.Request.Context(), target))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statistics reports request counters for the current month, or for
// ?month=YYYY-MM. Analysed hosts are only included in dev mode.
func (s *Server) statistics(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusOK, s.stats.Summary(s.devMode))
		return
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
		return
	}

	summary, ok := s.stats.MonthSummary(month, s.devMode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No statistics for month"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
