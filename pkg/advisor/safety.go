package advisor

import (
	"strings"

	"agronova-api/pkg/models"
)

// redKeywords これらのキーワードがモデル出力に含まれる場合はREDと判定します。
// 部分一致（単語境界なし）で照合するため、"hazardous" も "hazard" に一致します。
var redKeywords = []string{"high dosage", "toxic", "hazard", "danger"}

// yellowKeywords RED判定に至らなかった場合のYELLOW判定キーワード
var yellowKeywords = []string{"chemical"}

// ClassifySafety はモデルの生出力テキストから安全性ティアを判定します。
// モデル自身の申告値ではなく、常にローカルのキーワード照合で導出します。
// 構造化パースの成否に関わらず、表示される生テキストに対して実行できます。
func ClassifySafety(rawText string) models.SafetyTier {
	lower := strings.ToLower(rawText)
	for _, kw := range redKeywords {
		if strings.Contains(lower, kw) {
			return models.SafetyRed
		}
	}
	for _, kw := range yellowKeywords {
		if strings.Contains(lower, kw) {
			return models.SafetyYellow
		}
	}
	return models.SafetyGreen
}
