package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// DefaultTitle タイトル未指定時のレポート見出し
const DefaultTitle = "AgroNova Enterprise Farm Report"

// BuildPDF は助言テキストからPDFレポートを生成します。
// 見出しに続けて本文を配置し、改行は行区切りとして描画します。
// 本文の長さに応じて自動的に改ページされます。
func BuildPDF(title, body string) ([]byte, error) {
	if title == "" {
		title = DefaultTitle
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 10, title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range strings.Split(body, "\n") {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDFレポートの生成に失敗: %w", err)
	}
	return buf.Bytes(), nil
}
