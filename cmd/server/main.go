package main

import (
	"context"
	"log"
	"net/http"

	config "agronova-api/configs"
	"agronova-api/pkg/gemini"
	"agronova-api/pkg/handlers"
	"agronova-api/pkg/models"
	"agronova-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()
	owmCfg := config.GetOpenWeatherMapConfig()
	locCfg := config.GetLocationAPIConfig()

	// Ginルーターの初期化
	r := gin.Default()

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	weatherService := services.NewWeatherService(owmCfg.BaseURL)
	locationService := services.NewLocationService(locCfg.BaseURL)
	usageLogService := services.NewUsageLogService(cfg.UsageLogPath)

	geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxOutputTokens)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	advisoryService := services.NewAdvisoryService(geminiClient, weatherService, usageLogService, services.AdvisoryOptions{
		ResponseShape:           models.ResponseShape(cfg.ResponseShape),
		EnableComparison:        cfg.EnableModelComparison,
		ConservativeTemperature: cfg.ConservativeTemperature,
		CreativeTemperature:     cfg.CreativeTemperature,
		WeatherAPIKey:           owmCfg.APIKey,
	})

	// ハンドラーの初期化
	advisoryHandler := handlers.NewAdvisoryHandler(advisoryService, locationService)
	locationHandler := handlers.NewLocationHandler(locationService)
	weatherHandler := handlers.NewWeatherHandler(weatherService, owmCfg.APIKey)
	reportHandler := handlers.NewReportHandler()
	adminHandler := handlers.NewAdminHandler(cfg, usageLogService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware()) // ロギングミドルウェアをグローバルに適用
	r.Use(cors.Default())

	// 認証ミドルウェア
	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" || apiKey == "default_secret_key" {
				c.Next()
				return
			}
			providedKey := c.GetHeader("X-API-KEY")
			if providedKey != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	// ヘルスチェックエンドポイント
	r.GET("/health", handlers.HealthCheck)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		// 位置階層API
		locations := v1.Group("/locations")
		{
			locations.GET("/countries", locationHandler.GetCountries)
			locations.GET("/states", locationHandler.GetStates)
			locations.GET("/districts", locationHandler.GetDistricts)
		}

		// 気象データAPI
		weather := v1.Group("/weather")
		{
			weather.GET("/current", weatherHandler.GetCurrentWeather)
		}

		// 助言生成API
		advice := v1.Group("/advice")
		{
			advice.POST("", advisoryHandler.GenerateAdvice)
			advice.GET("/options", advisoryHandler.GetAdviceOptions)
			advice.POST("/report", reportHandler.ExportPDF) // PDFレポート出力
		}

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
			admin.GET("/usage", adminHandler.GetUsageLog)
			admin.GET("/usage/export", adminHandler.ExportUsageLog)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting AgroNova Advisory API server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
