package advisor

import (
	"fmt"
	"strings"

	"agronova-api/pkg/models"
)

// 応答形式ごとの出力指示。モデルに渡すテキストは常に英語で統一する。
const (
	jsonFormatInstruction = `Return output STRICTLY in JSON format:

{
  "recommendations":[
    {"action":"", "why":"", "risk":"LOW/MEDIUM/HIGH"}
  ],
  "confidence_score": number_between_0_and_100
}`

	labeledFormatInstruction = `Return output as plain text with exactly 3 numbered sections.
Each section must contain an "Action:" line and a "Why:" line, for example:

1. Action: <what the farmer should do>
   Why: <why it helps>`
)

// weatherNotAvailable 気象データが取得できなかった場合にプロンプトへ埋め込むマーカー
const weatherNotAvailable = "Not available"

// defaultGoals 目標が未選択の場合に使用する汎用プレースホルダー
const defaultGoals = "General"

// BuildPrompt はFarmContextからモデルへ送るプロンプトを組み立てます。
// 純粋関数であり、同一の入力からは常にバイト単位で同一のテキストを生成します。
// 入力のFarmContextは変更しません。画像が添付されている場合は、
// テキストパート・画像パートの順でマルチパートペイロードを返します。
func BuildPrompt(fc models.FarmContext, shape models.ResponseShape) models.PromptPayload {
	var sb strings.Builder

	sb.WriteString("You are AgroNova Enterprise AI, a smart farming advisor.\n\n")

	switch shape {
	case models.ShapeLabeledText:
		sb.WriteString(labeledFormatInstruction)
	default:
		sb.WriteString(jsonFormatInstruction)
	}
	sb.WriteString("\n\nContext:\n")

	sb.WriteString("Country: " + fc.Country + "\n")
	sb.WriteString("State: " + fc.State + "\n")
	if fc.District != "" {
		sb.WriteString("District: " + fc.District + "\n")
	}
	sb.WriteString("Stage: " + string(fc.CropStage) + "\n")
	sb.WriteString("Goals: " + joinGoals(fc.Goals) + "\n")
	sb.WriteString("Weather: " + formatWeather(fc.Weather) + "\n")

	sb.WriteString("\nUser Question:\n")
	sb.WriteString(fc.Question)
	sb.WriteString("\n\nUse simple language.\nAvoid unsafe chemical dosage advice.\nProvide exactly 3 recommendations.\n")

	return models.PromptPayload{
		Text:  sb.String(),
		Image: fc.Image,
	}
}

// joinGoals は目標リストをカンマ区切りで連結します。空の場合は汎用値を返します。
func joinGoals(goals []string) string {
	if len(goals) == 0 {
		return defaultGoals
	}
	return strings.Join(goals, ", ")
}

// formatWeather は気象スナップショットをプロンプト用の短い断片に整形します。
// nil（取得失敗・未取得）の場合は "Not available" マーカーを返します。
func formatWeather(w *models.WeatherSnapshot) string {
	if w == nil {
		return weatherNotAvailable
	}
	return fmt.Sprintf("Temperature %.1fC, Humidity %.0f%%, Rainfall(1h) %.1fmm",
		w.TemperatureC, w.HumidityPct, w.RainfallMm1h)
}
