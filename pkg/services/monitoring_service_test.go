package services

import (
	"testing"
	"time"
)

func TestMonitoringSummarize(t *testing.T) {
	s := NewMonitoringService()
	now := time.Now()

	s.LogRequest(RequestLogEntry{Timestamp: now, Path: "/api/v1/advice", Method: "POST", StatusCode: 200, ResponseTime: 120 * time.Millisecond})
	s.LogRequest(RequestLogEntry{Timestamp: now, Path: "/api/v1/advice", Method: "POST", StatusCode: 422, ResponseTime: 80 * time.Millisecond})
	s.LogRequest(RequestLogEntry{Timestamp: now, Path: "/api/v1/weather/current", Method: "GET", StatusCode: 502, ResponseTime: 40 * time.Millisecond})
	// 時間幅の外のログは集計から除外される
	s.LogRequest(RequestLogEntry{Timestamp: now.Add(-48 * time.Hour), Path: "/api/v1/advice", Method: "POST", StatusCode: 200, ResponseTime: 10 * time.Millisecond})

	summary := s.Summarize(24 * time.Hour)

	if summary.TotalRequests != 3 {
		t.Errorf("total = %d, want 3", summary.TotalRequests)
	}
	if summary.Endpoints["/api/v1/advice"] != 2 {
		t.Errorf("advice count = %d, want 2", summary.Endpoints["/api/v1/advice"])
	}
	if summary.StatusClasses["2xx"] != 1 || summary.StatusClasses["4xx"] != 1 || summary.StatusClasses["5xx"] != 1 {
		t.Errorf("status classes = %v", summary.StatusClasses)
	}
	// 平均応答時間: (120+80)/2 = 100ms
	if summary.AvgResponseMs["/api/v1/advice"] != 100 {
		t.Errorf("avg response = %d, want 100", summary.AvgResponseMs["/api/v1/advice"])
	}
	if len(summary.RecentErrors) != 1 || summary.RecentErrors[0].Path != "/api/v1/weather/current" {
		t.Errorf("recent errors = %v", summary.RecentErrors)
	}
}

func TestMonitoringRecentErrorsCapped(t *testing.T) {
	s := NewMonitoringService()
	now := time.Now()

	for i := 0; i < 15; i++ {
		s.LogRequest(RequestLogEntry{Timestamp: now, Path: "/api/v1/advice", Method: "POST", StatusCode: 500})
	}

	summary := s.Summarize(time.Hour)
	if len(summary.RecentErrors) != 10 {
		t.Errorf("recent errors = %d, want capped at 10", len(summary.RecentErrors))
	}
}
