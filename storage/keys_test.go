package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFolderPart(t *testing.T) {
	require.Equal(t, "lap-trinh-go", SanitizeFolderPart("Lập trình Go"))
	require.Equal(t, "untitled", SanitizeFolderPart("   "))
	require.Equal(t, "untitled", SanitizeFolderPart("!!!"))

	long := SanitizeFolderPart(strings.Repeat("a", 200))
	require.Len(t, long, 64)
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "bai-giang-1.pdf", SanitizeFileName("Bài giảng 1.PDF"))
	require.Equal(t, "file.txt", SanitizeFileName("???.txt"))

	// Phần mở rộng chỉ giữ ký tự an toàn.
	require.Equal(t, "x.pdf", SanitizeFileName("x.p?df"))

	long := SanitizeFileName(strings.Repeat("a", 200) + ".txt")
	require.Equal(t, strings.Repeat("a", 100)+".txt", long)
}

func TestBuildObjectKey(t *testing.T) {
	key := BuildObjectKey([]string{"Lập trình Go", "Bài mở đầu"}, "Tài liệu.txt")
	require.Equal(t, "lap-trinh-go/bai-mo-dau/tai-lieu.txt", key)
}

func TestFolderPrefix(t *testing.T) {
	require.Equal(t, "khoa-a/bai-1", FolderPrefix([]string{"Khóa A", "Bài 1"}))
}

func TestHeaderSafe(t *testing.T) {
	require.True(t, HeaderSafe("tai-lieu.pdf"))
	require.True(t, HeaderSafe("Tài liệu tiếng Việt.pdf"))
	require.False(t, HeaderSafe("bad\x01name.pdf"))
	require.False(t, HeaderSafe("tab\there.pdf"))
	require.False(t, HeaderSafe(string([]byte{0xff, 0xfe})+".pdf"))
}

func TestContentTypeForFile(t *testing.T) {
	cases := map[string]string{
		"a.pdf":      "application/pdf",
		"a.PDF":      "application/pdf",
		"a.md":       "text/markdown",
		"a.markdown": "text/markdown",
		"a.txt":      "text/plain",
		"a.rtf":      "application/rtf",
		"a.exe":      "application/octet-stream",
		"khong-ext":  "application/octet-stream",
	}
	for name, want := range cases {
		require.Equal(t, want, ContentTypeForFile(name), "file %q", name)
	}
}
