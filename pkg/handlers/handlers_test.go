package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	config "agronova-api/configs"
	"agronova-api/pkg/gemini"
	"agronova-api/pkg/models"
	"agronova-api/pkg/services"
)

// stubGenerator テスト用のTextGenerator実装
type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, payload models.PromptPayload, temperature float64) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *stubGenerator) ModelName() string { return "stub-model" }

const stubJSONResponse = `{
  "recommendations": [
    {"action": "Irrigate at dawn", "why": "Reduces evaporation loss", "risk": "LOW"},
    {"action": "Apply compost", "why": "Improves nitrogen uptake", "risk": "LOW"},
    {"action": "Scout for aphids", "why": "Yellowing may indicate pests", "risk": "MEDIUM"}
  ],
  "confidence_score": 82
}`

// newAdviceRouter 助言エンドポイントだけを持つテスト用ルーターを組み立てます。
func newAdviceRouter(t *testing.T, gen services.TextGenerator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	usageLog := services.NewUsageLogService(filepath.Join(t.TempDir(), "logs.csv"))
	weatherService := services.NewWeatherService("http://unused.invalid")
	locationService := services.NewLocationService("http://unused.invalid")
	advisoryService := services.NewAdvisoryService(gen, weatherService, usageLog, services.AdvisoryOptions{})
	handler := NewAdvisoryHandler(advisoryService, locationService)

	router := gin.New()
	router.POST("/api/v1/advice", handler.GenerateAdvice)
	router.GET("/api/v1/advice/options", handler.GetAdviceOptions)
	return router
}

func validAdviceBody() map[string]interface{} {
	return map[string]interface{}{
		"country":    "India",
		"state":      "Punjab",
		"district":   "Ludhiana",
		"crop_stage": "Sowing",
		"goals":      []string{"Water Saving"},
		"question":   "Leaves turning yellow",
	}
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateAdviceSuccess(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	w := postJSON(router, "/api/v1/advice", validAdviceBody())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string `json:"id"`
			Model  string `json:"model"`
			Result struct {
				Recommendations []models.Recommendation `json:"recommendations"`
				ConfidenceScore *float64                `json:"confidence_score"`
				SafetyTier      string                  `json:"safety_tier"`
			} `json:"result"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "stub-model", resp.Data.Model)
	assert.Len(t, resp.Data.Result.Recommendations, 3)
	if assert.NotNil(t, resp.Data.Result.ConfidenceScore) {
		assert.Equal(t, 82.0, *resp.Data.Result.ConfidenceScore)
	}
	assert.Equal(t, "GREEN", resp.Data.Result.SafetyTier)
}

func TestGenerateAdviceMissingFields(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	// 必須フィールド（question）の欠落は400
	body := validAdviceBody()
	delete(body, "question")
	w := postJSON(router, "/api/v1/advice", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestGenerateAdviceInvalidCropStage(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	body := validAdviceBody()
	body["crop_stage"] = "Flying"
	w := postJSON(router, "/api/v1/advice", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid crop_stage")
}

func TestGenerateAdviceModelUnavailable(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("%w: upstream 503", gemini.ErrModelUnavailable)}
	router := newAdviceRouter(t, gen)

	w := postJSON(router, "/api/v1/advice", validAdviceBody())

	// モデル到達不能は502として返す
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "AI service unavailable.")
}

func TestGenerateAdviceParseFailure(t *testing.T) {
	rawText := "Sorry, I can only answer with toxic free-form text."
	router := newAdviceRouter(t, &stubGenerator{response: rawText})

	w := postJSON(router, "/api/v1/advice", validAdviceBody())

	// パース失敗は422で、フォールバック表示用の生テキストと安全性ティアを返す
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, rawText, resp["raw_text"])
	assert.Equal(t, "RED", resp["safety_tier"])
}

func TestGenerateAdviceMultipartWithImage(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range map[string]string{
		"country": "India", "state": "Punjab", "crop_stage": "Growing",
		"question": "Spots on the leaves",
	} {
		mw.WriteField(key, value)
	}
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="leaf.png"`},
		"Content-Type":        {"image/png"},
	})
	assert.NoError(t, err)
	part.Write([]byte{0x89, 0x50, 0x4E, 0x47})
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/advice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestGenerateAdviceMultipartRejectsUnsupportedImage(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range map[string]string{
		"country": "India", "state": "Punjab", "crop_stage": "Growing",
		"question": "Spots on the leaves",
	} {
		mw.WriteField(key, value)
	}
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="leaf.gif"`},
		"Content-Type":        {"image/gif"},
	})
	assert.NoError(t, err)
	part.Write([]byte("GIF89a"))
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/advice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unsupported image type")
}

func TestGetAdviceOptions(t *testing.T) {
	router := newAdviceRouter(t, &stubGenerator{response: stubJSONResponse})

	req, _ := http.NewRequest("GET", "/api/v1/advice/options", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crop_stages")
	assert.Contains(t, w.Body.String(), "Sowing")
	assert.Contains(t, w.Body.String(), "goals")
	assert.Contains(t, w.Body.String(), "countries")
	assert.Contains(t, w.Body.String(), "India")
	assert.Contains(t, w.Body.String(), "response_shape")
}

func newLocationRouter(t *testing.T, upstreamURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewLocationHandler(services.NewLocationService(upstreamURL))
	router := gin.New()
	router.GET("/api/v1/locations/countries", handler.GetCountries)
	router.GET("/api/v1/locations/states", handler.GetStates)
	router.GET("/api/v1/locations/districts", handler.GetDistricts)
	return router
}

func TestGetCountries(t *testing.T) {
	router := newLocationRouter(t, "http://unused.invalid")

	req, _ := http.NewRequest("GET", "/api/v1/locations/countries", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "India")
	assert.Contains(t, w.Body.String(), "Ghana")
}

func TestGetStates(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": false, "msg": "ok", "data": {"name": "India", "states": [{"name": "Punjab"}]}}`))
	}))
	defer upstream.Close()

	router := newLocationRouter(t, upstream.URL)

	req, _ := http.NewRequest("GET", "/api/v1/locations/states?country=India", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Punjab")

	// countryクエリ未指定は400
	req, _ = http.NewRequest("GET", "/api/v1/locations/states", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatesUpstreamFailure(t *testing.T) {
	router := newLocationRouter(t, "http://unused.invalid")

	req, _ := http.NewRequest("GET", "/api/v1/locations/states?country=India", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 上流障害は502として返す
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Location service unavailable.")
}

func TestGetCurrentWeather(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main": {"temp": 24.5, "humidity": 60}, "rain": {"1h": 1.2}}`))
	}))
	defer upstream.Close()

	handler := NewWeatherHandler(services.NewWeatherService(upstream.URL), "server-key")
	router := gin.New()
	router.GET("/api/v1/weather/current", handler.GetCurrentWeather)

	req, _ := http.NewRequest("GET", "/api/v1/weather/current?location=Punjab", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)
	assert.Contains(t, w.Body.String(), "24.5")
}

func TestGetCurrentWeatherAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewWeatherHandler(services.NewWeatherService("http://unused.invalid"), "server-key")
	router := gin.New()
	router.GET("/api/v1/weather/current", handler.GetCurrentWeather)

	req, _ := http.NewRequest("GET", "/api/v1/weather/current?location=Punjab", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 気象欠損はエラーではなく「利用不可」として200で返す
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":false`)

	// locationクエリ未指定は400
	req, _ = http.NewRequest("GET", "/api/v1/weather/current", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewReportHandler()
	router := gin.New()
	router.POST("/api/v1/advice/report", handler.ExportPDF)

	w := postJSON(router, "/api/v1/advice/report", map[string]string{
		"text": "Recommendation 1: Irrigate at dawn",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "AgroNova_Enterprise_Report.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	// 本文未指定は400
	w = postJSON(router, "/api/v1/advice/report", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func newAdminRouter(t *testing.T) (*gin.Engine, *services.UsageLogService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{AdminUsername: "admin", AdminPassword: "secret"}
	usageLog := services.NewUsageLogService(filepath.Join(t.TempDir(), "logs.csv"))
	handler := NewAdminHandler(cfg, usageLog)

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.POST("/api/v1/admin/maintenance/start", handler.StartMaintenance)
	router.POST("/api/v1/admin/maintenance/stop", handler.StopMaintenance)
	router.GET("/api/v1/admin/health-status", handler.GetHealthStatus)
	router.GET("/api/v1/admin/usage", handler.GetUsageLog)
	router.GET("/api/v1/admin/usage/export", handler.ExportUsageLog)
	return router, usageLog
}

func TestMaintenanceModeLifecycle(t *testing.T) {
	router, _ := newAdminRouter(t)
	credentials := map[string]string{"username": "admin", "password": "secret"}

	// 通常時のヘルスチェックは200
	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// メンテナンス開始
	w = postJSON(router, "/api/v1/admin/maintenance/start", credentials)
	assert.Equal(t, http.StatusOK, w.Code)

	// メンテナンス中のヘルスチェックは503
	req, _ = http.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// メンテナンス終了（後続テストへの影響を避けるため必ず戻す）
	w = postJSON(router, "/api/v1/admin/maintenance/stop", credentials)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaintenanceRejectsInvalidCredentials(t *testing.T) {
	router, _ := newAdminRouter(t)

	w := postJSON(router, "/api/v1/admin/maintenance/start", map[string]string{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 資格情報の欠落は400
	w = postJSON(router, "/api/v1/admin/maintenance/start", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUsageLogAndExport(t *testing.T) {
	router, usageLog := newAdminRouter(t)

	confidence := 82.0
	assert.NoError(t, usageLog.Append(models.UsageLogEntry{
		Timestamp: "2026-08-23T10:00:00Z", Country: "India", State: "Punjab",
		Confidence: &confidence, SafetyTier: "GREEN",
	}))

	req, _ := http.NewRequest("GET", "/api/v1/admin/usage", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "India")
	assert.Contains(t, w.Body.String(), `"count":1`)

	req, _ = http.NewRequest("GET", "/api/v1/admin/usage/export", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "agronova_usage_log.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestMonitoringGetLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	monitoring := services.NewMonitoringService()
	handler := NewMonitoringHandler(monitoring)
	router := gin.New()
	router.Use(monitoring.LoggingMiddleware())
	router.GET("/api/v1/advice/options", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/monitoring/logs", handler.GetLogs)

	// 記録対象のリクエストを1件発生させる
	req, _ := http.NewRequest("GET", "/api/v1/advice/options", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req, _ = http.NewRequest("GET", "/api/v1/monitoring/logs?hours=48", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hours":48`)
	assert.Contains(t, w.Body.String(), `"total_requests":1`)
}
