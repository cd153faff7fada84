package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"agronova-api/pkg/models"
)

// ErrModelUnavailable は生成モデル呼び出しの失敗（通信エラー・非成功ステータス・
// 空レスポンス）を1つの不透明な失敗として表します。リトライは行いません。
var ErrModelUnavailable = errors.New("advisory model unavailable")

// Client は公式genaiクライアントの薄いラッパーです。
// API呼び出しのみに責務を絞り、プロンプト構築やレスポンス解析は持ちません。
// プロセス全体で共有するグローバル状態は持たず、明示的に生成して注入します。
type Client struct {
	cli             *genai.Client
	model           string
	maxOutputTokens int32
}

// NewClient は新しいGeminiクライアントを作成します。
// maxOutputTokensは応答長の上限としてモデル呼び出し設定に渡されます。
func NewClient(ctx context.Context, apiKey, model string, maxOutputTokens int) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗: %w", err)
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 1000
	}
	return &Client{
		cli:             cli,
		model:           model,
		maxOutputTokens: int32(maxOutputTokens),
	}, nil
}

// ModelName は設定されたモデル識別子を返します。
func (c *Client) ModelName() string { return c.model }

// Generate はプロンプトペイロードを1回だけモデルに送信し、生成テキストを返します。
// temperatureはサンプリングのランダム性（[0,1]）を制御します。
// 画像が添付されている場合は、テキスト・画像の順のマルチパートで送信します。
// 失敗はすべてErrModelUnavailableでラップして返します。
func (c *Client) Generate(ctx context.Context, payload models.PromptPayload, temperature float64) (string, error) {
	parts := []*genai.Part{{Text: payload.Text}}
	if payload.Image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: payload.Image.MIMEType,
				Data:     payload.Image.Data,
			},
		})
	}

	temp := float32(temperature)
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: c.maxOutputTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}
	return text, nil
}

// extractText はレスポンスからテキストフィールドを取り出します。
// テキストが存在しないレスポンスは失敗として扱います（呼び出し側で判定）。
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
