package storage

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/logger"
)

type UploadResult struct {
	ObjectKey string `json:"object_key"`
	FileType  string `json:"file_type"`
	FileSize  int64  `json:"file_size"`
}

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

type FileDownload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// FolderArchive là kết quả nén thư mục; OK=false khi prefix rỗng
// (soft failure, không phải lỗi).
type FolderArchive struct {
	OK          bool
	Data        []byte
	ContentType string
	FileCount   int
	ArchiveName string
}

// Client bọc Supabase Storage: upload qua storage-go, các thao tác còn lại
// gọi thẳng REST API (storage-go v0.7.0 không phủ hết).
type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	sb         *storage_go.Client
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(log *logger.Logger) (*Client, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}
	bucket := os.Getenv("SUPABASE_BUCKET")
	if bucket == "" {
		bucket = "uploads"
	}
	return NewClientWithConfig(supabaseURL, supabaseKey, bucket, log), nil
}

func NewClientWithConfig(supabaseURL, supabaseKey, bucket string, log *logger.Logger) *Client {
	supabaseURL = strings.TrimRight(supabaseURL, "/")
	return &Client{
		baseURL:    supabaseURL,
		apiKey:     supabaseKey,
		bucket:     bucket,
		sb:         storage_go.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		log:        log.With("component", "storage"),
	}
}

// UploadFile đẩy file lên bucket với key dẫn xuất từ folderParts + fileName.
// Upload lại cùng key sẽ ghi đè object cũ (last-writer-wins) — caller muốn
// giữ file cũ phải DeleteFile trước.
func (c *Client) UploadFile(data []byte, folderParts []string, fileName string) (*UploadResult, error) {
	if !HeaderSafe(fileName) {
		return nil, apperr.StorageEncoding("Tên file chứa ký tự không hỗ trợ, vui lòng đổi tên file")
	}

	objectKey := BuildObjectKey(folderParts, fileName)
	contentType := ContentTypeForFile(fileName)

	buf := bytes.NewBuffer(data)
	options := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      boolPtr(true),
	}
	if _, err := c.sb.UploadFile(c.bucket, objectKey, buf, options); err != nil {
		return nil, apperr.Storage("Lỗi upload Supabase", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	return &UploadResult{
		ObjectKey: objectKey,
		FileType:  ext,
		FileSize:  int64(len(data)),
	}, nil
}

// DeleteFile xóa object theo key; key không tồn tại coi như đã xóa.
func (c *Client) DeleteFile(objectKey string) error {
	if objectKey == "" {
		return nil
	}

	deleteURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(objectKey))
	req, err := http.NewRequest(http.MethodDelete, deleteURL, nil)
	if err != nil {
		return apperr.Storage("Không tạo được request xóa file", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Storage("Xóa file Supabase thất bại", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return apperr.Storage("Xóa file Supabase thất bại",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body)))
	}
}

// DownloadFile tải object; trả NotFound nếu key không tồn tại.
func (c *Client) DownloadFile(objectKey string) (*FileDownload, error) {
	downloadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, escapeKey(objectKey))
	req, err := http.NewRequest(http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, apperr.Storage("Không tạo được request tải file", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Storage("Tải file Supabase thất bại", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		return nil, apperr.NotFound("Không tìm thấy file trên storage")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperr.Storage("Tải file Supabase thất bại",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Storage("Đọc nội dung file thất bại", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentTypeForFile(objectKey)
	}
	return &FileDownload{
		Data:        data,
		ContentType: contentType,
		FileName:    filepath.Base(objectKey),
	}, nil
}

type listEntry struct {
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
	Metadata  struct {
		Size     int64  `json:"size"`
		Mimetype string `json:"mimetype"`
	} `json:"metadata"`
}

// ListFiles liệt kê object dưới prefix. Lỗi listing trả danh sách rỗng để
// màn hình danh sách file vẫn hiển thị khi storage trục trặc.
func (c *Client) ListFiles(prefix string) []ObjectInfo {
	listURL := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, c.bucket)
	payload := map[string]interface{}{
		"prefix": prefix,
		"limit":  1000,
		"offset": 0,
		"sortBy": map[string]string{"column": "name", "order": "asc"},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, listURL, bytes.NewReader(body))
	if err != nil {
		c.log.Warn("tạo request list file thất bại", "error", err)
		return []ObjectInfo{}
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("list file Supabase thất bại", "prefix", prefix, "error", err)
		return []ObjectInfo{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("list file Supabase thất bại", "prefix", prefix, "status", resp.StatusCode)
		return []ObjectInfo{}
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.log.Warn("parse kết quả list file thất bại", "error", err)
		return []ObjectInfo{}
	}

	out := make([]ObjectInfo, 0, len(entries))
	cleanPrefix := strings.TrimSuffix(prefix, "/")
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		key := e.Name
		if cleanPrefix != "" {
			key = cleanPrefix + "/" + e.Name
		}
		t, _ := time.Parse(time.RFC3339, e.UpdatedAt)
		out = append(out, ObjectInfo{Key: key, Size: e.Metadata.Size, LastModified: t})
	}
	return out
}

// DownloadFolder gom toàn bộ object dưới prefix vào một file zip.
// Prefix rỗng trả về OK=false thay vì lỗi.
func (c *Client) DownloadFolder(prefix, archiveName string) (*FolderArchive, error) {
	files := c.ListFiles(prefix)
	if len(files) == 0 {
		return &FolderArchive{OK: false, ArchiveName: archiveName}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	cleanPrefix := strings.TrimSuffix(prefix, "/") + "/"

	count := 0
	for _, f := range files {
		dl, err := c.DownloadFile(f.Key)
		if err != nil {
			_ = zw.Close()
			return nil, apperr.Storage("Không tải được file trong thư mục", err)
		}
		entryName := strings.TrimPrefix(f.Key, cleanPrefix)
		w, err := zw.Create(entryName)
		if err != nil {
			_ = zw.Close()
			return nil, apperr.Storage("Không tạo được entry trong file nén", err)
		}
		if _, err := w.Write(dl.Data); err != nil {
			_ = zw.Close()
			return nil, apperr.Storage("Không ghi được dữ liệu vào file nén", err)
		}
		count++
	}
	if err := zw.Close(); err != nil {
		return nil, apperr.Storage("Không đóng được file nén", err)
	}

	if archiveName == "" {
		archiveName = "lesson-files.zip"
	}
	if !strings.HasSuffix(strings.ToLower(archiveName), ".zip") {
		archiveName += ".zip"
	}
	return &FolderArchive{
		OK:          true,
		Data:        buf.Bytes(),
		ContentType: "application/zip",
		FileCount:   count,
		ArchiveName: archiveName,
	}, nil
}

// CreateSignedURL tạo link tải có hạn cho object.
func (c *Client) CreateSignedURL(objectKey string, expiresIn int) (string, error) {
	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, c.bucket, escapeKey(objectKey))
	body, _ := json.Marshal(map[string]int{"expiresIn": expiresIn})

	req, err := http.NewRequest(http.MethodPost, signURL, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Storage("Không tạo được request ký URL", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Storage("Ký URL Supabase thất bại", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", apperr.Storage("Ký URL Supabase thất bại",
			fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b)))
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Storage("Parse kết quả ký URL thất bại", err)
	}
	return c.baseURL + "/storage/v1" + out.SignedURL, nil
}

// authorize gắn header theo yêu cầu của Supabase:
// Authorization: Bearer <key> và apikey.
func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
}

func escapeKey(objectKey string) string {
	parts := strings.Split(objectKey, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func boolPtr(b bool) *bool { return &b }
