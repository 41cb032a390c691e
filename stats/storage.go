package stats

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	fileName          = "stats.json"
	writeInterval     = 5 * time.Minute
	minWriteSpacing   = time.Minute
	visitorWindow     = 24 * time.Hour
	popularHostsLimit = 5
)

// MonthlyStats represents statistics for a specific month
type MonthlyStats struct {
	Requests     map[string]int `json:"requests"`
	LiveResults  map[string]int `json:"live_results"`
	Fallbacks    map[string]int `json:"fallbacks"`
	PopularHosts map[string]int `json:"popular_hosts"`
	RequestCount int            `json:"request_count"`
	ErrorCount   int            `json:"error_count"`
	TotalLoadMs  float64        `json:"total_load_ms"`
	LastUpdated  time.Time      `json:"last_updated"`
}

func newMonthlyStats() *MonthlyStats {
	return &MonthlyStats{
		Requests:     make(map[string]int),
		LiveResults:  make(map[string]int),
		Fallbacks:    make(map[string]int),
		PopularHosts: make(map[string]int),
	}
}

// ensureMaps fills maps left nil by an older stats file.
func (m *MonthlyStats) ensureMaps() {
	if m.Requests == nil {
		m.Requests = make(map[string]int)
	}
	if m.LiveResults == nil {
		m.LiveResults = make(map[string]int)
	}
	if m.Fallbacks == nil {
		m.Fallbacks = make(map[string]int)
	}
	if m.PopularHosts == nil {
		m.PopularHosts = make(map[string]int)
	}
}

func (m *MonthlyStats) clone() MonthlyStats {
	out := *m
	out.Requests = copyCounts(m.Requests)
	out.LiveResults = copyCounts(m.LiveResults)
	out.Fallbacks = copyCounts(m.Fallbacks)
	out.PopularHosts = copyCounts(m.PopularHosts)
	return out
}

// Summary is the public view served by the statistics endpoint.
type Summary struct {
	Month             string         `json:"month"`
	Months            []string       `json:"months"`
	UniqueVisitors24h int            `json:"uniqueVisitors24h"`
	TotalRequests     int            `json:"totalRequests"`
	ErrorRate         float64        `json:"errorRate"`
	AverageLoadTime   float64        `json:"averageLoadTime"`
	Requests          map[string]int `json:"requests"`
	LiveResults       map[string]int `json:"liveResults"`
	Fallbacks         map[string]int `json:"fallbacks"`
	PopularHosts      map[string]int `json:"popularHosts,omitempty"`
}

// Storage keeps monthly counters in memory and persists them to
// dataDir/stats.json from a background writer. An empty dataDir keeps
// everything in memory.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	visitors    map[string]time.Time
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	logger      *zap.Logger
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		visitors:    make(map[string]time.Time),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger,
		now:         time.Now,
	}

	if dataDir == "" {
		close(s.stopped)
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s.filePath = filepath.Join(dataDir, fileName)

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, &s.stats); err != nil {
		return err
	}
	for month, m := range s.stats {
		if m == nil {
			delete(s.stats, month)
			continue
		}
		m.ensureMaps()
	}
	return nil
}

func (s *Storage) save() error {
	if s.filePath == "" {
		return nil
	}

	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return multierr.Append(
			fmt.Errorf("failed to rename temporary file: %w", err),
			os.Remove(tempFile),
		)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(writeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("failed to persist statistics", zap.Error(err))
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// month returns the bucket for the current month. Callers hold the write lock.
func (s *Storage) month() *MonthlyStats {
	key := s.currentMonth()
	m, exists := s.stats[key]
	if !exists {
		m = newMonthlyStats()
		s.stats[key] = m
	}
	m.LastUpdated = s.now()
	return m
}

// touched requests a write at most once per minute. Callers hold the write lock.
func (s *Storage) touched() {
	if s.now().Sub(s.lastWrite) > minWriteSpacing {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// TrackRequest records one served HTTP request.
func (s *Storage) TrackRequest(endpoint, clientIP string, loadTime time.Duration, status int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	m.Requests[endpoint]++
	m.RequestCount++
	if status >= 400 {
		m.ErrorCount++
	}
	m.TotalLoadMs += float64(loadTime.Microseconds()) / 1000
	if clientIP != "" {
		s.visitors[clientIP] = s.now()
	}
	s.touched()
}

// RecordOutcome records whether an analysis produced live or fallback data.
func (s *Storage) RecordOutcome(endpoint, targetURL string, fallback bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	if fallback {
		m.Fallbacks[endpoint]++
	} else {
		m.LiveResults[endpoint]++
	}
	if host := trackedHost(targetURL); host != "" {
		m.PopularHosts[host]++
	}
	s.touched()
}

// trackedHost reduces an analysed URL to its lower-cased host, skipping
// local addresses.
func trackedHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return ""
	}
	return host
}

// GetCurrentStats returns a copy of the statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.stats[month]; exists {
		return m.clone()
	}
	return newMonthlyStats().clone()
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, exists := s.stats[yearMonth]; exists {
		return m.clone(), true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// UniqueVisitors counts client IPs seen within the last 24 hours.
func (s *Storage) UniqueVisitors() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := s.now().Add(-visitorWindow)
	count := 0
	for _, lastVisit := range s.visitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

// Summary returns the current month in its public shape. Popular hosts are
// only included when withHosts is set.
func (s *Storage) Summary(withHosts bool) Summary {
	summary := s.summarize(s.currentMonth(), s.GetCurrentStats(), withHosts)
	summary.UniqueVisitors24h = s.UniqueVisitors()
	return summary
}

// MonthSummary returns the summary for yearMonth ("YYYY-MM"), or false when
// nothing was recorded that month.
func (s *Storage) MonthSummary(yearMonth string, withHosts bool) (Summary, bool) {
	if yearMonth == s.currentMonth() {
		return s.Summary(withHosts), true
	}
	m, ok := s.GetMonthlyStats(yearMonth)
	if !ok {
		return Summary{}, false
	}
	return s.summarize(yearMonth, m, withHosts), true
}

func (s *Storage) summarize(yearMonth string, m MonthlyStats, withHosts bool) Summary {
	summary := Summary{
		Month:         yearMonth,
		Months:        s.GetAllMonths(),
		TotalRequests: m.RequestCount,
		Requests:      m.Requests,
		LiveResults:   m.LiveResults,
		Fallbacks:     m.Fallbacks,
	}
	if m.RequestCount > 0 {
		summary.ErrorRate = float64(m.ErrorCount) / float64(m.RequestCount) * 100
		summary.AverageLoadTime = m.TotalLoadMs / float64(m.RequestCount)
	}
	if withHosts {
		summary.PopularHosts = topCounts(m.PopularHosts, popularHostsLimit)
	}
	return summary
}

// Cleanup removes statistics older than retainMonths before the current month
// and forgets visitors outside the 24h window.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 0 {
		retainMonths = 0
	}
	now := s.now()
	oldest := now.AddDate(0, -retainMonths, 0).Format("2006-01")

	s.mutex.Lock()
	for key := range s.stats {
		if key < oldest {
			delete(s.stats, key)
		}
	}
	cutoff := now.Add(-visitorWindow)
	for ip, lastVisit := range s.visitors {
		if !lastVisit.After(cutoff) {
			delete(s.visitors, ip)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	s.logger.Debug("statistics cleaned up", zap.String("oldest_month", oldest))
}

// Shutdown stops the background writer and persists a final snapshot.
func (s *Storage) Shutdown() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
	if err := s.save(); err != nil {
		return fmt.Errorf("failed to save stats on shutdown: %w", err)
	}
	return nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// topCounts keeps the n highest counts, ties broken by key.
func topCounts(in map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if in[keys[i]] != in[keys[j]] {
			return in[keys[i]] > in[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		out[k] = in[k]
	}
	return out
}
