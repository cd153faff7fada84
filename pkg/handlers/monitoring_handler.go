package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agronova-api/pkg/services"
)

// MonitoringHandler モニタリングAPIのハンドラー
type MonitoringHandler struct {
	monitoringService *services.MonitoringService
}

// NewMonitoringHandler 新しいモニタリングハンドラーを作成
func NewMonitoringHandler(monitoringService *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
	}
}

// GetLogs は指定時間幅（hoursクエリ、デフォルト24時間）の集計を返します。
func (mh *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := 24
	if hoursStr := c.Query("hours"); hoursStr != "" {
		if h, err := strconv.Atoi(hoursStr); err == nil && h > 0 && h <= 168 {
			hours = h
		}
	}

	summary := mh.monitoringService.Summarize(time.Duration(hours) * time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"hours":   hours,
		"data":    summary,
	})
}
