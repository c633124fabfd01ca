package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/logger"
	"github.com/vnkhanh/learnhub-backend/repository"
	"github.com/vnkhanh/learnhub-backend/services"
	"github.com/vnkhanh/learnhub-backend/ws"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

const signedURLTTL = 3600 // giây

type LessonController struct {
	svc     *services.LessonService
	storage services.ObjectStorage
	log     *logger.Logger
}

func NewLessonController(svc *services.LessonService, store services.ObjectStorage, log *logger.Logger) *LessonController {
	return &LessonController{svc: svc, storage: store, log: log.With("controller", "lesson")}
}

// GET /lessons?courseId=
func (lc *LessonController) GetLessons(c *gin.Context) {
	var courseID *uuid.UUID
	if raw := c.Query("courseId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "courseId không hợp lệ")
			return
		}
		courseID = &parsed
	}

	lessons, err := lc.svc.ListLessons(courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"lessons": lessons, "total": len(lessons)})
}

// GET /lessons/:id
func (lc *LessonController) GetLessonDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	lesson, err := lc.svc.GetLesson(id)
	if err != nil {
		respondError(c, err)
		return
	}

	downloadURL := ""
	if lesson.FilePath != nil {
		signed, err := lc.storage.CreateSignedURL(*lesson.FilePath, signedURLTTL)
		if err != nil {
			lc.log.Warn("không ký được URL tải file", "lesson_id", id, "error", err)
		} else {
			downloadURL = signed
		}
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"lesson":       lesson,
		"download_url": downloadURL,
		"videos":       lesson.Videos,
	})
}

// POST /lessons  (multipart: file + fields; videos là JSON array)
func (lc *LessonController) CreateLesson(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Bài học mới bắt buộc phải có file tài liệu")
		return
	}
	data, ok := readUploadedFile(c, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, func() (io.ReadCloser, error) {
		return fileHeader.Open()
	})
	if !ok {
		return
	}

	courseID, err := uuid.Parse(c.PostForm("course_id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Thiếu hoặc sai course_id")
		return
	}

	directive, ok := parseVideoDirective(c)
	if !ok {
		return
	}

	input := services.CreateLessonInput{
		CourseID: courseID,
		Title:    c.PostForm("title"),
		FileData: data,
		FileName: fileHeader.Filename,
		Videos:   directive,
		ActorID:  actorID,
	}
	if v, ok := c.GetPostForm("description"); ok {
		input.Description = &v
	}
	if v, ok := c.GetPostForm("duration"); ok {
		input.Duration = &v
	}
	if v, ok := c.GetPostForm("order_index"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "order_index phải là số nguyên")
			return
		}
		input.OrderIndex = &n
	}
	if v, ok := c.GetPostForm("has_assignment"); ok {
		b := v == "true" || v == "1"
		input.HasAssignment = &b
	}

	lesson, err := lc.svc.CreateLesson(input)
	if err != nil {
		respondError(c, err)
		return
	}

	ws.BroadcastLessonListChanged()
	respondOK(c, http.StatusCreated, "Tạo bài học thành công", gin.H{"lesson": lesson})
}

// PUT /lessons/:id  (multipart, file tùy chọn; update_file/remove_file flags)
func (lc *LessonController) UpdateLesson(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	input := services.UpdateLessonInput{ActorID: actorID}
	if v, ok := c.GetPostForm("title"); ok {
		input.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		input.Description = &v
	}
	if v, ok := c.GetPostForm("duration"); ok {
		input.Duration = &v
	}
	if v, ok := c.GetPostForm("order_index"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "order_index phải là số nguyên")
			return
		}
		input.OrderIndex = &n
	}
	if v, ok := c.GetPostForm("has_assignment"); ok {
		b := v == "true" || v == "1"
		input.HasAssignment = &b
	}

	switch {
	case c.PostForm("remove_file") == "true":
		input.File = services.FileOp{Kind: services.FileRemove}
	case c.PostForm("update_file") == "true":
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondFail(c, http.StatusBadRequest, "Thiếu file khi yêu cầu thay tài liệu")
			return
		}
		data, ok := readUploadedFile(c, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, func() (io.ReadCloser, error) {
			return fileHeader.Open()
		})
		if !ok {
			return
		}
		input.File = services.FileOp{Kind: services.FileReplace, Data: data, FileName: fileHeader.Filename}
	}

	directive, ok := parseVideoDirective(c)
	if !ok {
		return
	}
	input.Videos = directive

	lesson, err := lc.svc.UpdateLesson(id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	ws.BroadcastLessonListChanged()
	ws.SendLessonStatusUpdate(id.String(), "updated", "")
	respondOK(c, http.StatusOK, "Cập nhật bài học thành công", gin.H{
		"lesson": lesson,
		"videos": lesson.Videos,
	})
}

// DELETE /lessons/:id
func (lc *LessonController) DeleteLesson(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	if err := lc.svc.DeleteLesson(id, actorID); err != nil {
		respondError(c, err)
		return
	}

	ws.BroadcastLessonListChanged()
	respondOK(c, http.StatusOK, "Xóa bài học thành công", nil)
}

// PUT /lessons/order  body: {lessonOrders: [{id, order_index}]}
func (lc *LessonController) UpdateLessonOrder(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req struct {
		LessonOrders []repository.OrderPair `json:"lessonOrders" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Body không hợp lệ: cần lessonOrders")
		return
	}

	if err := lc.svc.UpdateOrder(req.LessonOrders, actorID); err != nil {
		respondError(c, err)
		return
	}

	ws.BroadcastLessonListChanged()
	respondOK(c, http.StatusOK, "Cập nhật thứ tự thành công", nil)
}

// GET /lessons/:id/download — stream tài liệu chính
func (lc *LessonController) DownloadLessonFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	lesson, err := lc.svc.GetLesson(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if lesson.FilePath == nil {
		respondError(c, apperr.NotFound("Bài học chưa có file tài liệu"))
		return
	}

	dl, err := lc.storage.DownloadFile(*lesson.FilePath)
	if err != nil {
		respondError(c, err)
		return
	}

	writeAttachment(c, dl.FileName, dl.ContentType, dl.Data)
}

// GET /lessons/:id/download-folder — nén toàn bộ file của bài học
func (lc *LessonController) DownloadLessonFolder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	lesson, err := lc.svc.GetLesson(id)
	if err != nil {
		respondError(c, err)
		return
	}

	prefix := lc.svc.FolderPrefix(lesson)
	archive, err := lc.storage.DownloadFolder(prefix, lesson.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	if !archive.OK {
		respondFail(c, http.StatusOK, "Thư mục bài học không có file nào")
		return
	}

	c.Header("X-File-Count", strconv.Itoa(archive.FileCount))
	writeAttachment(c, archive.ArchiveName, archive.ContentType, archive.Data)
}

// GET /lessons/:id/files — liệt kê object dưới thư mục bài học
func (lc *LessonController) GetLessonFiles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "ID không hợp lệ")
		return
	}

	lesson, err := lc.svc.GetLesson(id)
	if err != nil {
		respondError(c, err)
		return
	}

	files := lc.storage.ListFiles(lc.svc.FolderPrefix(lesson))
	respondOK(c, http.StatusOK, "", gin.H{"files": files, "total": len(files)})
}

// POST /lessons/download-file  body: {file_path}
func (lc *LessonController) DownloadFileByKey(c *gin.Context) {
	var req struct {
		FilePath string `json:"file_path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Thiếu file_path")
		return
	}

	dl, err := lc.storage.DownloadFile(req.FilePath)
	if err != nil {
		respondError(c, err)
		return
	}

	writeAttachment(c, dl.FileName, dl.ContentType, dl.Data)
}

// ---- helpers ----

func actorFromContext(c *gin.Context) (uuid.UUID, bool) {
	userIDStr := c.GetString("user_id")
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "user_id không hợp lệ")
		return uuid.Nil, false
	}
	return uid, true
}

// readUploadedFile kiểm tra giới hạn 50MB và định dạng cho phép
// (pdf/markdown/txt/rtf — xét MIME type HOẶC phần mở rộng) rồi đọc nội dung.
func readUploadedFile(c *gin.Context, fileName, mimeType string, size int64, open func() (io.ReadCloser, error)) ([]byte, bool) {
	if size > maxUploadSize {
		respondFail(c, http.StatusBadRequest, "File vượt quá 50MB")
		return nil, false
	}
	if !allowedUploadType(fileName, mimeType) {
		respondFail(c, http.StatusBadRequest, "Chỉ hỗ trợ file pdf, markdown, txt hoặc rtf")
		return nil, false
	}

	f, err := open()
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Không đọc được file đính kèm")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Không đọc được file đính kèm")
		return nil, false
	}
	if int64(len(data)) > maxUploadSize {
		respondFail(c, http.StatusBadRequest, "File vượt quá 50MB")
		return nil, false
	}
	return data, true
}

var allowedExts = map[string]bool{
	".pdf": true, ".md": true, ".markdown": true, ".txt": true, ".rtf": true,
}

var allowedMimes = map[string]bool{
	"application/pdf": true,
	"text/markdown":   true,
	"text/plain":      true,
	"application/rtf": true,
	"text/rtf":        true,
}

func allowedUploadType(fileName, mimeType string) bool {
	if allowedExts[strings.ToLower(filepath.Ext(fileName))] {
		return true
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return allowedMimes[strings.TrimSpace(strings.ToLower(mimeType))]
}

// parseVideoDirective đọc trường "videos" của form theo 3 trạng thái:
// không gửi = giữ nguyên, mảng rỗng = xóa hết, mảng có phần tử = thay thế.
func parseVideoDirective(c *gin.Context) (services.VideoDirective, bool) {
	raw, ok := c.GetPostForm("videos")
	if !ok {
		return services.VideoDirective{Kind: services.VideosNoChange}, true
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return services.VideoDirective{Kind: services.VideosClearAll}, true
	}

	var items []services.VideoInput
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		respondFail(c, http.StatusBadRequest, "Trường videos không phải JSON hợp lệ")
		return services.VideoDirective{}, false
	}
	if len(items) == 0 {
		return services.VideoDirective{Kind: services.VideosClearAll}, true
	}
	return services.VideoDirective{Kind: services.VideosReplace, Items: items}, true
}

// writeAttachment đặt Content-Disposition theo RFC 5987 và Content-Length
// tường minh rồi stream dữ liệu.
func writeAttachment(c *gin.Context, fileName, contentType string, data []byte) {
	asciiName := storageSafeASCII(fileName)
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, asciiName, url.PathEscape(fileName)))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}

func storageSafeASCII(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 0x20 && r < 0x7f && r != '"' && r != '\\' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
