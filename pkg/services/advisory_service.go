package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"agronova-api/pkg/advisor"
	"agronova-api/pkg/models"
)

// TextGenerator は生成モデルへの1回の呼び出しを抽象化します。
type TextGenerator interface {
	Generate(ctx context.Context, payload models.PromptPayload, temperature float64) (string, error)
	ModelName() string
}

// AdvisoryOptions 助言生成パイプラインの動作設定
type AdvisoryOptions struct {
	// ResponseShape はモデルに指示する出力形式（json / labeled_text）
	ResponseShape models.ResponseShape
	// EnableComparison が真の場合、保守的・創造的の2温度で生成して比較します
	EnableComparison        bool
	ConservativeTemperature float64
	CreativeTemperature     float64
	// WeatherAPIKey はリクエストにキーが無い場合のサーバー既定キー
	WeatherAPIKey string
}

// AdvisoryService 助言生成のオーケストレーターです。
// 気象・位置の付加 → プロンプト構築 → モデル呼び出し → 解析・安全判定 →
// 使用ログ追記、の順で1リクエスト分のパイプラインを実行します。
type AdvisoryService struct {
	generator TextGenerator
	weather   *WeatherService
	usageLog  *UsageLogService
	opts      AdvisoryOptions
}

// NewAdvisoryService 新しい助言サービスを作成
func NewAdvisoryService(generator TextGenerator, weather *WeatherService, usageLog *UsageLogService, opts AdvisoryOptions) *AdvisoryService {
	if opts.ResponseShape == "" {
		opts.ResponseShape = models.ShapeJSON
	}
	if opts.ConservativeTemperature == 0 {
		opts.ConservativeTemperature = 0.3
	}
	if opts.CreativeTemperature == 0 {
		opts.CreativeTemperature = 0.7
	}
	return &AdvisoryService{
		generator: generator,
		weather:   weather,
		usageLog:  usageLog,
		opts:      opts,
	}
}

// ParseFailure は構造化パースの失敗を表し、フォールバック表示用に
// 生テキストとその安全性ティアを保持します。
type ParseFailure struct {
	RawText    string
	SafetyTier models.SafetyTier
	Err        error
}

func (e *ParseFailure) Error() string { return e.Err.Error() }
func (e *ParseFailure) Unwrap() error { return e.Err }

// GenerateAdvice は1回の提出に対する助言生成パイプラインを実行します。
// 気象取得はプロンプト構築より先に解決されます（欠損でも続行）。
// モデル呼び出しの失敗はgemini.ErrModelUnavailable、構造化パースの失敗は
// ParseFailure（advisor.ErrMalformedResponseをラップ）として返します。
// 失敗した生成は使用ログに記録しません。
func (s *AdvisoryService) GenerateAdvice(ctx context.Context, req models.AdviceRequest, image *models.ImageAttachment) (*models.AdviceResponse, error) {
	// 気象の付加。キーはリクエスト優先、無ければサーバー既定。
	weatherKey := req.WeatherAPIKey
	if weatherKey == "" {
		weatherKey = s.opts.WeatherAPIKey
	}
	snapshot := s.weather.FetchWeather(ctx, req.State, weatherKey)

	fc := models.FarmContext{
		Country:   req.Country,
		State:     req.State,
		District:  req.District,
		CropStage: models.CropStage(req.CropStage),
		Goals:     req.Goals,
		Question:  req.Question,
		Weather:   snapshot,
		Image:     image,
	}

	payload := advisor.BuildPrompt(fc, s.opts.ResponseShape)

	// 保守的（低温度）出力。表示・解析・安全判定の対象はこちら。
	rawText, err := s.generator.Generate(ctx, payload, s.opts.ConservativeTemperature)
	if err != nil {
		return nil, err
	}

	result, err := advisor.ParseAdvisory(rawText, s.opts.ResponseShape)
	if err != nil {
		return nil, &ParseFailure{
			RawText:    rawText,
			SafetyTier: advisor.ClassifySafety(rawText),
			Err:        err,
		}
	}

	resp := &models.AdviceResponse{
		ID:          uuid.NewString(),
		Model:       s.generator.ModelName(),
		Result:      result,
		Weather:     snapshot,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	// 比較用の創造的（高温度）出力。補助表示のため、失敗しても
	// 本体の助言は返す。
	if s.opts.EnableComparison {
		creative, err := s.generator.Generate(ctx, payload, s.opts.CreativeTemperature)
		if err != nil {
			log.Printf("比較用の創造的出力の生成に失敗（本体は継続）: %v", err)
		} else {
			resp.CreativeText = creative
		}
	}

	// 成功した生成のみ使用ログに記録する
	entry := models.UsageLogEntry{
		Timestamp:  resp.GeneratedAt,
		Country:    req.Country,
		State:      req.State,
		Confidence: result.ConfidenceScore,
		SafetyTier: string(result.SafetyTier),
	}
	if err := s.usageLog.Append(entry); err != nil {
		log.Printf("使用ログの追記に失敗: %v", err)
	}

	return resp, nil
}

// ResponseShape は設定されている応答形式を返します。
func (s *AdvisoryService) ResponseShape() models.ResponseShape {
	return s.opts.ResponseShape
}
