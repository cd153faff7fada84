package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agronova-api/pkg/models"
	"agronova-api/pkg/report"
)

// ReportHandler PDFレポート出力のハンドラー
type ReportHandler struct{}

// NewReportHandler 新しいレポートハンドラーを作成
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// ExportPDF は助言テキストをPDFレポートとしてダウンロードさせます。
// 見出しの後に本文を配置し、改行は行区切りとして描画されます。
func (rh *ReportHandler) ExportPDF(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	data, err := report.BuildPDF(req.Title, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="AgroNova_Enterprise_Report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
