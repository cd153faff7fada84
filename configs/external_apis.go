package config

// OpenWeatherMapConfig OpenWeatherMap API設定
type OpenWeatherMapConfig struct {
	APIKey  string
	BaseURL string
}

// GetOpenWeatherMapConfig OpenWeatherMap設定を取得
func GetOpenWeatherMapConfig() *OpenWeatherMapConfig {
	return &OpenWeatherMapConfig{
		APIKey:  getEnv("OPENWEATHERMAP_API_KEY", ""),
		BaseURL: getEnv("OPENWEATHERMAP_BASE_URL", "https://api.openweathermap.org/data/2.5"),
	}
}

// LocationAPIConfig 国・州・郡の階層データAPI設定
type LocationAPIConfig struct {
	BaseURL string
}

// GetLocationAPIConfig 位置階層API設定を取得
func GetLocationAPIConfig() *LocationAPIConfig {
	return &LocationAPIConfig{
		BaseURL: getEnv("LOCATION_API_BASE_URL", "https://countriesnow.space/api/v0.1/countries"),
	}
}
