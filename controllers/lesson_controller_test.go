package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/learnhub-backend/services"
)

func formContext(t *testing.T, values url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	return c, w
}

func TestParseVideoDirectiveAbsentMeansNoChange(t *testing.T) {
	c, _ := formContext(t, url.Values{"title": {"Bài 1"}})
	d, ok := parseVideoDirective(c)
	require.True(t, ok)
	require.Equal(t, services.VideosNoChange, d.Kind)
}

func TestParseVideoDirectiveEmptyMeansClearAll(t *testing.T) {
	for _, raw := range []string{"", "[]", "null", "  [] "} {
		c, _ := formContext(t, url.Values{"videos": {raw}})
		d, ok := parseVideoDirective(c)
		require.True(t, ok, "raw=%q", raw)
		require.Equal(t, services.VideosClearAll, d.Kind, "raw=%q", raw)
	}
}

func TestParseVideoDirectiveReplace(t *testing.T) {
	raw := `[{"title":"Giới thiệu","youtube_url":"https://youtu.be/abc123","order_index":2}]`
	c, _ := formContext(t, url.Values{"videos": {raw}})
	d, ok := parseVideoDirective(c)
	require.True(t, ok)
	require.Equal(t, services.VideosReplace, d.Kind)
	require.Len(t, d.Items, 1)
	require.Equal(t, "Giới thiệu", d.Items[0].Title)
	require.NotNil(t, d.Items[0].OrderIndex)
	require.Equal(t, 2, *d.Items[0].OrderIndex)
}

func TestParseVideoDirectiveBadJSON(t *testing.T) {
	c, w := formContext(t, url.Values{"videos": {"{không phải mảng"}})
	_, ok := parseVideoDirective(c)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestAllowedUploadType(t *testing.T) {
	// Khớp phần mở rộng HOẶC MIME là đủ.
	require.True(t, allowedUploadType("bai-giang.pdf", "application/octet-stream"))
	require.True(t, allowedUploadType("khong-ext", "application/pdf"))
	require.True(t, allowedUploadType("ghi-chu.md", ""))
	require.True(t, allowedUploadType("x.bin", "text/plain; charset=utf-8"))
	require.False(t, allowedUploadType("video.mp4", "video/mp4"))
	require.False(t, allowedUploadType("anh.png", "image/png"))
}

func TestWriteAttachmentSetsRFC5987Headers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeAttachment(c, "Tài liệu bài 1.pdf", "application/pdf", []byte("%PDF-fake"))

	cd := w.Header().Get("Content-Disposition")
	require.Contains(t, cd, `attachment; filename="`)
	require.Contains(t, cd, "filename*=UTF-8''")
	// Phần ASCII fallback không được chứa ký tự ngoài bảng in được.
	require.NotContains(t, cd[:strings.Index(cd, "filename*")], "Tài")

	require.Equal(t, "9", w.Header().Get("Content-Length"))
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, "%PDF-fake", w.Body.String())
}

func TestStorageSafeASCII(t *testing.T) {
	require.Equal(t, "T_i li_u.pdf", storageSafeASCII("Tài liệu.pdf"))
	require.Equal(t, "a_b_.txt", storageSafeASCII(`a"b\.txt`))
	require.Equal(t, "plain.txt", storageSafeASCII("plain.txt"))
}
