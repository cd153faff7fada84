package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"agronova-api/pkg/models"
)

// usageLogHeader 使用ログCSVの列定義
var usageLogHeader = []string{"timestamp", "country", "state", "confidence", "safety_tier"}

// UsageLogService 追記専用の使用ログを管理します。
// 1回の生成成功につき1行を追記します。失敗した生成は記録しません。
// ローテーションや圧縮は行いません。
type UsageLogService struct {
	path string
	mu   sync.Mutex
}

// NewUsageLogService 新しい使用ログサービスを作成
func NewUsageLogService(path string) *UsageLogService {
	return &UsageLogService{path: path}
}

// Append は使用ログに1行追記します。ファイルが存在しない場合は
// ヘッダー行を書いてから追記します。
func (s *UsageLogService) Append(entry models.UsageLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("使用ログのオープンに失敗: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(usageLogHeader); err != nil {
			return fmt.Errorf("使用ログヘッダーの書き込みに失敗: %w", err)
		}
	}
	if err := w.Write(entryToRow(entry)); err != nil {
		return fmt.Errorf("使用ログの書き込みに失敗: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ReadAll は使用ログの全行を読み込みます。ファイルが存在しない場合は
// 空の一覧を返します。
func (s *UsageLogService) ReadAll() ([]models.UsageLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.UsageLogEntry{}, nil
		}
		return nil, fmt.Errorf("使用ログのオープンに失敗: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("使用ログの読み込みに失敗: %w", err)
	}

	entries := make([]models.UsageLogEntry, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == usageLogHeader[0] {
			continue // ヘッダー行をスキップ
		}
		if len(rec) < 5 {
			continue
		}
		entry := models.UsageLogEntry{
			Timestamp:  rec[0],
			Country:    rec[1],
			State:      rec[2],
			SafetyTier: rec[4],
		}
		if rec[3] != "" {
			if score, err := strconv.ParseFloat(rec[3], 64); err == nil {
				entry.Confidence = &score
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ExportXLSX は使用ログ全体をExcelワークブックとして書き出します。
func (s *UsageLogService) ExportXLSX() ([]byte, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Timestamp", "Country", "State", "Confidence", "Safety Tier"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("Excelヘッダーの書き込みに失敗: %w", err)
	}

	for i, entry := range entries {
		confidence := ""
		if entry.Confidence != nil {
			confidence = strconv.FormatFloat(*entry.Confidence, 'f', -1, 64)
		}
		row := []interface{}{entry.Timestamp, entry.Country, entry.State, confidence, entry.SafetyTier}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("Excel行の書き込みに失敗: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("Excelワークブックの出力に失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// entryToRow はログエントリをCSV行へ変換します。欠損の信頼度は空欄にします。
func entryToRow(entry models.UsageLogEntry) []string {
	confidence := ""
	if entry.Confidence != nil {
		confidence = strconv.FormatFloat(*entry.Confidence, 'f', -1, 64)
	}
	return []string{entry.Timestamp, entry.Country, entry.State, confidence, entry.SafetyTier}
}
