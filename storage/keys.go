package storage

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

const (
	maxFolderPartLen = 64
	maxFileBaseLen   = 100
)

// SanitizeFolderPart chuyển một phần thư mục (tên khóa học, tên bài học)
// thành dạng an toàn cho object key.
func SanitizeFolderPart(part string) string {
	s := slug.Make(part)
	if s == "" {
		s = "untitled"
	}
	if len(s) > maxFolderPartLen {
		s = s[:maxFolderPartLen]
	}
	return s
}

// SanitizeFileName giữ phần mở rộng, slug hóa phần tên và giới hạn độ dài.
func SanitizeFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	ext = keepSafeExt(ext)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	s := slug.Make(base)
	if s == "" {
		s = "file"
	}
	if len(s) > maxFileBaseLen {
		s = s[:maxFileBaseLen]
	}
	return s + ext
}

func keepSafeExt(ext string) string {
	var b strings.Builder
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildObjectKey ghép các phần thư mục đã sanitize với tên file.
func BuildObjectKey(folderParts []string, fileName string) string {
	parts := make([]string, 0, len(folderParts)+1)
	for _, p := range folderParts {
		parts = append(parts, SanitizeFolderPart(p))
	}
	parts = append(parts, SanitizeFileName(fileName))
	return strings.Join(parts, "/")
}

// FolderPrefix trả về prefix thư mục của một bài học.
func FolderPrefix(folderParts []string) string {
	parts := make([]string, 0, len(folderParts))
	for _, p := range folderParts {
		parts = append(parts, SanitizeFolderPart(p))
	}
	return strings.Join(parts, "/")
}

// HeaderSafe báo tên file có biểu diễn được trong header của transport không.
// UTF-8 hỏng hoặc ký tự điều khiển sẽ làm Supabase từ chối request.
func HeaderSafe(name string) bool {
	if !utf8.ValidString(name) {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// ContentTypeForFile suy ra content type từ phần mở rộng.
func ContentTypeForFile(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".rtf":
		return "application/rtf"
	default:
		return "application/octet-stream"
	}
}
