package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"agronova-api/pkg/models"
)

// ErrMalformedResponse はモデル出力が期待した構造にパースできなかったことを示します。
// モデル呼び出し自体の失敗（ErrModelUnavailable）とは区別して扱います。
var ErrMalformedResponse = errors.New("malformed advisory response")

// rawAdvisory JSON形式のモデル出力の生構造
type rawAdvisory struct {
	Recommendations []rawRecommendation `json:"recommendations"`
	ConfidenceScore json.RawMessage     `json:"confidence_score"`
}

// rawRecommendation JSON形式の推奨1件の生構造
type rawRecommendation struct {
	Action string `json:"action"`
	Why    string `json:"why"`
	Risk   string `json:"risk"`
}

// ParseAdvisory はモデルの生出力を正規化されたAdvisoryResultに変換します。
//   - JSON形式: 厳密にパースし、失敗時はErrMalformedResponseを返します。
//     フィールドの推測や補完は行いません。
//   - ラベル形式: "Action:"/"Why:" の組を文書順に走査します。Why行の欠落は
//     空の根拠として採用しますが、存在しない推奨を捏造することはありません。
//
// 推奨の件数が3未満でも有効なパース結果です（呼び出し側が警告を判断します）。
// SafetyTierはパース成否と独立に、常に生テキスト全体から判定します。
func ParseAdvisory(rawText string, shape models.ResponseShape) (*models.AdvisoryResult, error) {
	result := &models.AdvisoryResult{
		RawText:    rawText,
		SafetyTier: ClassifySafety(rawText),
	}

	switch shape {
	case models.ShapeLabeledText:
		result.Recommendations = parseLabeledText(rawText)
	default:
		var parsed rawAdvisory
		if err := json.Unmarshal([]byte(stripCodeFence(rawText)), &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		recs := make([]models.Recommendation, 0, len(parsed.Recommendations))
		for _, r := range parsed.Recommendations {
			recs = append(recs, models.Recommendation{
				Action:    r.Action,
				Rationale: r.Why,
				RiskLevel: normalizeRisk(r.Risk),
			})
		}
		result.Recommendations = recs
		result.ConfidenceScore = parseConfidence(parsed.ConfidenceScore)
	}

	return result, nil
}

// parseConfidence は信頼度スコアを[0,100]に制限して解釈します。
// 数値以外・範囲外の値はエラーではなく「欠損」として扱います。
// 整数である必要はありません（82.5 は有効）。
func parseConfidence(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil
	}
	if score < 0 || score > 100 {
		return nil
	}
	return &score
}

// parseLabeledText はラベル付きテキスト形式の出力を文書順に走査します。
// 新しい "Action:" 行が現れるたびに推奨を1件開始し、続く "Why:" 行を
// 根拠として割り当てます。テキストに存在する分だけを返します。
func parseLabeledText(rawText string) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 3)
	var current *models.Recommendation

	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)

		if value, ok := labeledValue(trimmed, "Action:"); ok {
			if current != nil {
				recs = append(recs, *current)
			}
			current = &models.Recommendation{Action: value}
			continue
		}
		if current == nil {
			continue
		}
		if value, ok := labeledValue(trimmed, "Why:"); ok && current.Rationale == "" {
			current.Rationale = value
			continue
		}
		if value, ok := labeledValue(trimmed, "Risk:"); ok && current.RiskLevel == "" {
			current.RiskLevel = normalizeRisk(value)
		}
	}
	if current != nil {
		recs = append(recs, *current)
	}
	return recs
}

// labeledValue は "1. Action: xxx" のような行からラベル以降の値を取り出します。
func labeledValue(line, label string) (string, bool) {
	idx := strings.Index(line, label)
	if idx < 0 {
		return "", false
	}
	// 行頭の番号や箇条書き記号は許容するが、文中に現れたラベルは無視する
	prefix := strings.TrimSpace(line[:idx])
	prefix = strings.Trim(prefix, "0123456789.)-* ")
	if prefix != "" {
		return "", false
	}
	return strings.TrimSpace(line[idx+len(label):]), true
}

// normalizeRisk はモデルが返すリスク表記を正規化します。
// LOW/MEDIUM/HIGH以外の値はそのまま保持します（パーサーは推測しません）。
func normalizeRisk(risk string) models.RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(risk)) {
	case "LOW":
		return models.RiskLow
	case "MEDIUM":
		return models.RiskMedium
	case "HIGH":
		return models.RiskHigh
	}
	return models.RiskLevel(strings.TrimSpace(risk))
}

// stripCodeFence はモデルがJSONをMarkdownのコードフェンスで包んで返した場合に
// フェンスだけを取り除きます。フィールドの補完や修復は行いません。
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
