package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"time"

	"agronova-api/pkg/models"
)

// WeatherService OpenWeatherMapの現在気象APIをラップするゲートウェイです。
// 失敗時は呼び出し元にエラーを伝播せず、常に「欠損」(nil)へ縮退します。
// 気象が取得できなくても助言生成のメインフローは止まりません。
type WeatherService struct {
	baseURL string
	client  *http.Client
}

// NewWeatherService 新しい気象ゲートウェイを作成
func NewWeatherService(baseURL string) *WeatherService {
	return &WeatherService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// openWeatherMapResponse OpenWeatherMap現在気象レスポンスの必要部分
type openWeatherMapResponse struct {
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain map[string]float64 `json:"rain"`
}

// FetchWeather は指定地点の現在気象を取得します。
// locationまたはapiKeyが空の場合はネットワーク呼び出しを行わずnilを返します。
// 通信エラー・タイムアウト・非2xx・必須フィールド欠落もすべてnil（欠損）に
// 縮退し、エラーを返しません。リトライ・キャッシュは行いません。
func (ws *WeatherService) FetchWeather(ctx context.Context, location, apiKey string) *models.WeatherSnapshot {
	if location == "" || apiKey == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ws.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		log.Printf("気象APIリクエストの作成に失敗: %v", err)
		return nil
	}

	resp, err := ws.client.Do(req)
	if err != nil {
		log.Printf("気象APIの呼び出しに失敗（欠損として継続）: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("気象APIが非成功ステータスを返却: %d", resp.StatusCode)
		return nil
	}

	var data openWeatherMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Printf("気象APIレスポンスの解析に失敗: %v", err)
		return nil
	}
	if data.Main == nil {
		// 期待フィールドの欠落は不正レスポンスとして欠損扱い
		return nil
	}

	return &models.WeatherSnapshot{
		TemperatureC: data.Main.Temp,
		HumidityPct:  data.Main.Humidity,
		RainfallMm1h: data.Rain["1h"],
	}
}
