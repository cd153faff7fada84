package models

// CropStage represents the current stage of the crop cycle.
type CropStage string

const (
	StagePlanning   CropStage = "Planning"
	StageSowing     CropStage = "Sowing"
	StageGrowing    CropStage = "Growing"
	StageHarvesting CropStage = "Harvesting"
	StageStorage    CropStage = "Storage"
)

// CropStages lists the accepted crop stages in display order.
var CropStages = []CropStage{
	StagePlanning, StageSowing, StageGrowing, StageHarvesting, StageStorage,
}

// IsValid reports whether the stage is one of the accepted values.
func (s CropStage) IsValid() bool {
	switch s {
	case StagePlanning, StageSowing, StageGrowing, StageHarvesting, StageStorage:
		return true
	}
	return false
}

// GoalVocabulary lists the selectable farming goals.
var GoalVocabulary = []string{
	"High Yield", "Low Cost", "Organic", "Water Saving", "Pest Control", "Soil Health",
}

// WeatherSnapshot holds the current weather for the farm location.
// It is produced only by the weather gateway; a nil pointer means
// "not available", never a zero-filled value.
type WeatherSnapshot struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	RainfallMm1h float64 `json:"rainfall_mm_1h"`
}

// ImageAttachment carries an uploaded crop image and its MIME type.
type ImageAttachment struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// FarmContext is the full input for one advisory generation.
// It is built fresh per submission and never mutated afterwards.
type FarmContext struct {
	Country   string           `json:"country"`
	State     string           `json:"state"`
	District  string           `json:"district,omitempty"`
	CropStage CropStage        `json:"crop_stage"`
	Goals     []string         `json:"goals"`
	Question  string           `json:"question"`
	Weather   *WeatherSnapshot `json:"weather,omitempty"`
	Image     *ImageAttachment `json:"image,omitempty"`
}

// ResponseShape selects the output format the model is instructed to use.
type ResponseShape string

const (
	ShapeJSON        ResponseShape = "json"
	ShapeLabeledText ResponseShape = "labeled_text"
)

// PromptPayload is the assembled model input: the prompt text, plus an
// optional image part. Part order is fixed: text first, image second.
type PromptPayload struct {
	Text  string
	Image *ImageAttachment
}

// RiskLevel is the model-reported risk of a single recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Recommendation is one normalized advisory item.
type Recommendation struct {
	Action    string    `json:"action"`
	Rationale string    `json:"rationale"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// SafetyTier is the heuristic safety label derived from the raw model
// output. It is computed locally, never reported by the model.
type SafetyTier string

const (
	SafetyGreen  SafetyTier = "GREEN"
	SafetyYellow SafetyTier = "YELLOW"
	SafetyRed    SafetyTier = "RED"
)

// AdvisoryResult is the normalized outcome of one model invocation.
// RawText is always retained for audit and export; Recommendations keep
// the model's output order.
type AdvisoryResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	RawText         string           `json:"raw_text"`
	SafetyTier      SafetyTier       `json:"safety_tier"`
}

// UsageLogEntry is one append-only usage-log row, written only after a
// successful generation.
type UsageLogEntry struct {
	Timestamp  string   `json:"timestamp"`
	Country    string   `json:"country"`
	State      string   `json:"state"`
	Confidence *float64 `json:"confidence,omitempty"`
	SafetyTier string   `json:"safety_tier"`
}

// AdviceRequest is the JSON body of POST /api/v1/advice. The multipart
// variant carries the same fields plus an image file part.
type AdviceRequest struct {
	Country       string   `json:"country" form:"country" binding:"required"`
	State         string   `json:"state" form:"state" binding:"required"`
	District      string   `json:"district" form:"district"`
	CropStage     string   `json:"crop_stage" form:"crop_stage" binding:"required"`
	Goals         []string `json:"goals" form:"goals"`
	Question      string   `json:"question" form:"question" binding:"required"`
	WeatherAPIKey string   `json:"weather_api_key,omitempty" form:"weather_api_key"`
}

// AdviceResponse is the payload returned by POST /api/v1/advice.
type AdviceResponse struct {
	ID           string           `json:"id"`
	Model        string           `json:"model"`
	Result       *AdvisoryResult  `json:"result"`
	CreativeText string           `json:"creative_text,omitempty"`
	Weather      *WeatherSnapshot `json:"weather,omitempty"`
	GeneratedAt  string           `json:"generated_at"`
}

// ReportRequest is the JSON body of POST /api/v1/advice/report.
type ReportRequest struct {
	Title string `json:"title"`
	Text  string `json:"text" binding:"required"`
}
