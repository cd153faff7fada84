package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agronova-api/pkg/gemini"
	"agronova-api/pkg/models"
	"agronova-api/pkg/services"
)

// maxImageBytes アップロード画像の上限サイズ（8MB）
const maxImageBytes = 8 << 20

// allowedImageMIMETypes 受け付ける画像のMIMEタイプ
var allowedImageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// AdvisoryHandler 助言生成APIのハンドラー
type AdvisoryHandler struct {
	advisoryService *services.AdvisoryService
	locationService *services.LocationService
}

// NewAdvisoryHandler 新しい助言ハンドラーを作成
func NewAdvisoryHandler(advisoryService *services.AdvisoryService, locationService *services.LocationService) *AdvisoryHandler {
	return &AdvisoryHandler{
		advisoryService: advisoryService,
		locationService: locationService,
	}
}

// GenerateAdvice は農場コンテキストから助言を生成するハンドラーです。
// application/jsonのボディ、またはmultipart/form-data（任意のimageパート付き）
// を受け付けます。
func (h *AdvisoryHandler) GenerateAdvice(c *gin.Context) {
	var req models.AdviceRequest
	var image *models.ImageAttachment

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
		attachment, err := readImagePart(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		image = attachment
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	if !models.CropStage(req.CropStage).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid crop_stage: " + req.CropStage})
		return
	}

	resp, err := h.advisoryService.GenerateAdvice(c.Request.Context(), req, image)
	if err != nil {
		h.respondGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// respondGenerationError は生成パイプラインの失敗を種別ごとにHTTP応答へ変換します。
// モデル到達不能と構造化パース失敗は区別して返します（後者は生テキストの
// フォールバック表示が可能）。
func (h *AdvisoryHandler) respondGenerationError(c *gin.Context, err error) {
	var parseFailure *services.ParseFailure
	if errors.As(err, &parseFailure) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":     false,
			"error":       "AI response could not be parsed.",
			"raw_text":    parseFailure.RawText,
			"safety_tier": parseFailure.SafetyTier,
		})
		return
	}

	if errors.Is(err, gemini.ErrModelUnavailable) {
		log.Printf("モデル呼び出しに失敗: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "AI service unavailable.",
			"detail":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// GetAdviceOptions はフォームの選択肢（作物ステージ・目標・国）を返します。
func (h *AdvisoryHandler) GetAdviceOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"crop_stages":    models.CropStages,
			"goals":          models.GoalVocabulary,
			"countries":      h.locationService.Countries(),
			"response_shape": h.advisoryService.ResponseShape(),
		},
	})
}

// readImagePart はmultipartリクエストから任意の画像パートを読み込みます。
// 画像が無い場合は(nil, nil)を返します。
func readImagePart(c *gin.Context) (*models.ImageAttachment, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("Invalid image upload: " + err.Error())
	}

	if fileHeader.Size > maxImageBytes {
		return nil, errors.New("Image exceeds the 8MB size limit")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedImageMIMETypes[mimeType] {
		return nil, errors.New("Unsupported image type: " + mimeType)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("Failed to open uploaded image")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("Failed to read uploaded image")
	}

	return &models.ImageAttachment{
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
