package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const maxExcerptLen = 2000

// ExtractExcerpt lấy đoạn text đầu của tài liệu để hiển thị/tìm kiếm.
// Chỉ best-effort: lỗi trích xuất không làm fail thao tác tạo/sửa bài học.
func ExtractExcerpt(data []byte, fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err := extractTextFromPDF(data)
		if err != nil {
			return "", err
		}
		return truncateExcerpt(text), nil
	case ".txt", ".md", ".markdown", ".rtf":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("nội dung không phải UTF-8")
		}
		return truncateExcerpt(string(data)), nil
	default:
		return "", fmt.Errorf("không hỗ trợ trích xuất cho định dạng %s", filepath.Ext(fileName))
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("không thể tạo reader PDF: %w", err)
	}

	var textBuilder bytes.Buffer
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(content)
		if textBuilder.Len() >= maxExcerptLen {
			break
		}
	}
	return textBuilder.String(), nil
}

func truncateExcerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxExcerptLen {
		return s
	}
	cut := s[:maxExcerptLen]
	// không cắt giữa một ký tự UTF-8
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
