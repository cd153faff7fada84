package main

import (
	"context"
	"fmt"
	"log"
	"os"

	config "agronova-api/configs"
	"agronova-api/pkg/services"

	"github.com/joho/godotenv"
)

// 外部ゲートウェイ（気象・位置階層）の手動スモークテスト用CLIです。
// 使い方: go run ./cmd/weathercheck [location]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	location := "Punjab"
	if len(os.Args) > 1 {
		location = os.Args[1]
	}

	owmCfg := config.GetOpenWeatherMapConfig()
	locCfg := config.GetLocationAPIConfig()

	weatherService := services.NewWeatherService(owmCfg.BaseURL)
	locationService := services.NewLocationService(locCfg.BaseURL)

	ctx := context.Background()

	fmt.Println("=== 気象ゲートウェイ テスト ===")
	snapshot := weatherService.FetchWeather(ctx, location, owmCfg.APIKey)
	if snapshot == nil {
		fmt.Printf("地点 %q の気象データ: 利用不可（キー未設定または上流エラー）\n", location)
	} else {
		fmt.Printf("地点: %s\n", location)
		fmt.Printf("  気温: %.1f°C\n", snapshot.TemperatureC)
		fmt.Printf("  湿度: %.0f%%\n", snapshot.HumidityPct)
		fmt.Printf("  降水量(1h): %.1fmm\n", snapshot.RainfallMm1h)
	}

	fmt.Println("\n=== 位置階層ゲートウェイ テスト ===")
	for _, country := range locationService.Countries() {
		states := locationService.ListStates(ctx, country)
		if states == nil {
			fmt.Printf("%s: 取得失敗\n", country)
			continue
		}
		fmt.Printf("%s: %d件の州・省\n", country, len(states))
		if len(states) > 0 {
			districts := locationService.ListDistricts(ctx, country, states[0])
			if districts != nil {
				fmt.Printf("  %s: %d件の郡・市\n", states[0], len(districts))
			}
		}
	}

	fmt.Println("\n=== テスト完了 ===")
}
