package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/models"
	"github.com/vnkhanh/learnhub-backend/testutil"
)

func activeVideos(t *testing.T, db *gorm.DB, lessonID uuid.UUID) []models.LessonVideo {
	t.Helper()
	var videos []models.LessonVideo
	err := db.Where("lesson_id = ? AND status = ?", lessonID, models.VideoStatusActive).
		Order("order_index ASC, created_at ASC").
		Find(&videos).Error
	require.NoError(t, err)
	return videos
}

func TestIsValidYoutubeURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=abc_123-XY",
		"http://youtu.be/dQw4w9WgXcQ",
		"  https://youtu.be/dQw4w9WgXcQ  ",
	}
	for _, u := range valid {
		require.True(t, IsValidYoutubeURL(u), "phải chấp nhận %q", u)
	}
	invalid := []string{
		"",
		"youtube.com/watch?v=abc",
		"https://vimeo.com/12345",
		"https://www.youtube.com/playlist?list=PL123",
		"ftp://youtu.be/abc",
	}
	for _, u := range invalid {
		require.False(t, IsValidYoutubeURL(u), "phải từ chối %q", u)
	}
}

func TestReconcileNoChangeLeavesVideosAlone(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	testutil.SeedVideo(t, db, lesson.ID, "Giữ nguyên", 0, time.Now())

	r := NewVideoReconciler(db)
	require.NoError(t, r.Reconcile(lesson.ID, VideoDirective{Kind: VideosNoChange}))

	videos := activeVideos(t, db, lesson.ID)
	require.Len(t, videos, 1)
	require.Equal(t, "Giữ nguyên", videos[0].Title)
}

func TestReconcileClearAllSoftDeletes(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	for i := 0; i < 3; i++ {
		testutil.SeedVideo(t, db, lesson.ID, "Video", i, time.Now())
	}

	r := NewVideoReconciler(db)
	require.NoError(t, r.Reconcile(lesson.ID, VideoDirective{Kind: VideosClearAll}))

	require.Empty(t, activeVideos(t, db, lesson.ID))

	// Soft delete: hàng vẫn còn, chỉ đổi status.
	var total int64
	require.NoError(t, db.Model(&models.LessonVideo{}).
		Where("lesson_id = ?", lesson.ID).Count(&total).Error)
	require.EqualValues(t, 3, total)
}

func TestReconcileReplaceKeepsByIDAndCreatesNew(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	kept := testutil.SeedVideo(t, db, lesson.ID, "Tên cũ", 0, time.Now())
	testutil.SeedVideo(t, db, lesson.ID, "Sẽ bị xóa", 1, time.Now())

	r := NewVideoReconciler(db)
	err := r.Reconcile(lesson.ID, VideoDirective{
		Kind: VideosReplace,
		Items: []VideoInput{
			{ID: &kept.ID, Title: "Tên mới", YoutubeURL: "https://youtu.be/abc123"},
			{Title: "Hoàn toàn mới", YoutubeURL: "https://www.youtube.com/watch?v=xyz789"},
		},
	})
	require.NoError(t, err)

	videos := activeVideos(t, db, lesson.ID)
	require.Len(t, videos, 2)
	// order_index mặc định theo vị trí gửi lên: 0 rồi 1.
	require.Equal(t, kept.ID, videos[0].ID)
	require.Equal(t, "Tên mới", videos[0].Title)
	require.Equal(t, 0, videos[0].OrderIndex)
	require.Equal(t, "Hoàn toàn mới", videos[1].Title)
	require.Equal(t, 1, videos[1].OrderIndex)
}

func TestReconcileReplaceResurrectsSoftDeletedID(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	v := testutil.SeedVideo(t, db, lesson.ID, "Video", 0, time.Now())

	r := NewVideoReconciler(db)
	require.NoError(t, r.Reconcile(lesson.ID, VideoDirective{Kind: VideosClearAll}))
	require.Empty(t, activeVideos(t, db, lesson.ID))

	err := r.Reconcile(lesson.ID, VideoDirective{
		Kind: VideosReplace,
		Items: []VideoInput{
			{ID: &v.ID, Title: "Quay lại", YoutubeURL: "https://youtu.be/abc123"},
		},
	})
	require.NoError(t, err)

	videos := activeVideos(t, db, lesson.ID)
	require.Len(t, videos, 1)
	require.Equal(t, v.ID, videos[0].ID)
	require.Equal(t, "Quay lại", videos[0].Title)
}

func TestReconcileRespectsExplicitOrderIndex(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)

	seven := 7
	r := NewVideoReconciler(db)
	err := r.Reconcile(lesson.ID, VideoDirective{
		Kind: VideosReplace,
		Items: []VideoInput{
			{Title: "Sau", YoutubeURL: "https://youtu.be/abc123", OrderIndex: &seven},
			{Title: "Trước", YoutubeURL: "https://youtu.be/xyz789"},
		},
	})
	require.NoError(t, err)

	videos := activeVideos(t, db, lesson.ID)
	require.Len(t, videos, 2)
	require.Equal(t, "Trước", videos[0].Title) // vị trí 1 → order 1
	require.Equal(t, 1, videos[0].OrderIndex)
	require.Equal(t, "Sau", videos[1].Title)
	require.Equal(t, 7, videos[1].OrderIndex)
}

func TestReconcileValidatesWholeListBeforeWriting(t *testing.T) {
	db := testutil.DB(t)
	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	testutil.SeedVideo(t, db, lesson.ID, "Nguyên vẹn", 0, time.Now())

	r := NewVideoReconciler(db)
	err := r.Reconcile(lesson.ID, VideoDirective{
		Kind: VideosReplace,
		Items: []VideoInput{
			{Title: "Hợp lệ", YoutubeURL: "https://youtu.be/abc123"},
			{Title: "Link hỏng", YoutubeURL: "https://vimeo.com/12345"},
			{Title: "Cũng hợp lệ", YoutubeURL: "https://youtu.be/xyz789"},
		},
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.CodeValidation))
	require.Contains(t, err.Error(), "thứ 2")

	// Fail-fast: không có gì bị ghi.
	videos := activeVideos(t, db, lesson.ID)
	require.Len(t, videos, 1)
	require.Equal(t, "Nguyên vẹn", videos[0].Title)
}

func TestReconcileRejectsMissingTitle(t *testing.T) {
	db := testutil.DB(t)
	r := NewVideoReconciler(db)
	err := r.Reconcile(uuid.New(), VideoDirective{
		Kind:  VideosReplace,
		Items: []VideoInput{{Title: "   ", YoutubeURL: "https://youtu.be/abc123"}},
	})
	require.True(t, apperr.IsCode(err, apperr.CodeValidation))
	require.Contains(t, err.Error(), "thứ 1")
}
