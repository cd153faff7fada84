package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogEntry は単一のリクエストログを表します。
type RequestLogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのリクエスト記録と簡易集計を提供します。
type MonitoringService struct {
	logs []RequestLogEntry
	mu   sync.RWMutex
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]RequestLogEntry, 0),
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry RequestLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
// 管理・モニタリング系のパスは記録対象から除外します。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(RequestLogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// UsageSummary は集計済みのリクエスト状況です。
type UsageSummary struct {
	TotalRequests   int               `json:"total_requests"`
	Endpoints       map[string]int    `json:"endpoints"`
	StatusClasses   map[string]int    `json:"status_classes"`
	AvgResponseMs   map[string]int64  `json:"avg_response_ms"`
	RecentErrors    []RequestLogEntry `json:"recent_errors"`
	WindowStartedAt string            `json:"window_started_at"`
}

// Summarize は指定時間幅のログを集計して返します。
func (s *MonitoringService) Summarize(window time.Duration) UsageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := time.Now().Add(-window)
	summary := UsageSummary{
		Endpoints:       make(map[string]int),
		StatusClasses:   map[string]int{"2xx": 0, "4xx": 0, "5xx": 0},
		AvgResponseMs:   make(map[string]int64),
		RecentErrors:    make([]RequestLogEntry, 0),
		WindowStartedAt: since.UTC().Format(time.RFC3339),
	}

	totalTime := make(map[string]time.Duration)
	for _, entry := range s.logs {
		if entry.Timestamp.Before(since) {
			continue
		}
		summary.TotalRequests++
		summary.Endpoints[entry.Path]++
		totalTime[entry.Path] += entry.ResponseTime

		switch {
		case entry.StatusCode >= 500:
			summary.StatusClasses["5xx"]++
		case entry.StatusCode >= 400:
			summary.StatusClasses["4xx"]++
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			summary.StatusClasses["2xx"]++
		}
	}

	for path, total := range totalTime {
		if count := summary.Endpoints[path]; count > 0 {
			summary.AvgResponseMs[path] = total.Milliseconds() / int64(count)
		}
	}

	// 直近のサーバーエラーを新しい順に最大10件
	for i := len(s.logs) - 1; i >= 0 && len(summary.RecentErrors) < 10; i-- {
		if s.logs[i].StatusCode >= 500 && !s.logs[i].Timestamp.Before(since) {
			summary.RecentErrors = append(summary.RecentErrors, s.logs[i])
		}
	}

	return summary
}
