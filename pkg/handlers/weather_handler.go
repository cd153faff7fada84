package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agronova-api/pkg/services"
)

// WeatherHandler 現在気象データのハンドラー
type WeatherHandler struct {
	weatherService *services.WeatherService
	defaultAPIKey  string
}

// NewWeatherHandler 新しい気象ハンドラーを作成
func NewWeatherHandler(weatherService *services.WeatherService, defaultAPIKey string) *WeatherHandler {
	return &WeatherHandler{
		weatherService: weatherService,
		defaultAPIKey:  defaultAPIKey,
	}
}

// GetWeatherService WeatherServiceを取得
func (wh *WeatherHandler) GetWeatherService() *services.WeatherService {
	return wh.weatherService
}

// GetCurrentWeather は指定地点の現在気象を返します。
// ゲートウェイの契約どおり、取得失敗はエラーではなく「利用不可」として
// 200で返します（助言生成と同じ縮退挙動を外からも確認できます）。
func (wh *WeatherHandler) GetCurrentWeather(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location query parameter is required"})
		return
	}

	apiKey := c.Query("api_key")
	if apiKey == "" {
		apiKey = wh.defaultAPIKey
	}

	snapshot := wh.weatherService.FetchWeather(c.Request.Context(), location, apiKey)
	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"location":  location,
			"available": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"location":  location,
		"available": true,
		"data":      snapshot,
	})
}
