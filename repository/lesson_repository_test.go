package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/learnhub-backend/apperr"
	"github.com/vnkhanh/learnhub-backend/models"
	"github.com/vnkhanh/learnhub-backend/testutil"
)

func TestGetLessonJoinsCourseTitle(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	course := testutil.SeedCourse(t, db, "Lập trình Go")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	testutil.SeedVideo(t, db, lesson.ID, "Video A", 1, time.Now())
	testutil.SeedVideo(t, db, lesson.ID, "Video B", 0, time.Now())

	got, err := repo.GetLesson(lesson.ID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if got.CourseTitle != "Lập trình Go" {
		t.Errorf("course_title = %q, muốn %q", got.CourseTitle, "Lập trình Go")
	}
	if len(got.Videos) != 2 {
		t.Fatalf("videos = %d, muốn 2", len(got.Videos))
	}
	if got.Videos[0].Title != "Video B" || got.Videos[1].Title != "Video A" {
		t.Errorf("videos không sắp theo order_index: %q, %q", got.Videos[0].Title, got.Videos[1].Title)
	}
}

func TestGetLessonNotFound(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	_, err := repo.GetLesson(uuid.New())
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("muốn NOT_FOUND, nhận %v", err)
	}
}

func TestGetCourseExcludesDeleted(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	course := testutil.SeedCourse(t, db, "Khóa cũ")
	if err := db.Model(&models.Course{}).Where("id = ?", course.ID).
		Update("status", models.CourseStatusDeleted).Error; err != nil {
		t.Fatalf("đánh dấu deleted: %v", err)
	}

	_, err := repo.GetCourse(course.ID)
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("muốn NOT_FOUND cho khóa đã xóa, nhận %v", err)
	}
}

func TestListLessonsFilterByCourse(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	c1 := testutil.SeedCourse(t, db, "Khóa A")
	c2 := testutil.SeedCourse(t, db, "Khóa B")
	testutil.SeedLesson(t, db, c1.ID, "A1", 1)
	testutil.SeedLesson(t, db, c1.ID, "A0", 0)
	testutil.SeedLesson(t, db, c2.ID, "B0", 0)
	deleted := testutil.SeedLesson(t, db, c1.ID, "A-deleted", 2)
	if err := repo.SoftDeleteLesson(deleted.ID, uuid.New()); err != nil {
		t.Fatalf("SoftDeleteLesson: %v", err)
	}

	lessons, err := repo.ListLessons(&c1.ID)
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("lessons = %d, muốn 2", len(lessons))
	}
	if lessons[0].Title != "A0" || lessons[1].Title != "A1" {
		t.Errorf("thứ tự sai: %q, %q", lessons[0].Title, lessons[1].Title)
	}

	all, err := repo.ListLessons(nil)
	if err != nil {
		t.Fatalf("ListLessons(nil): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("tất cả lessons = %d, muốn 3", len(all))
	}
}

func TestSoftDeleteLessonIsTerminal(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)
	actor := uuid.New()

	if err := repo.SoftDeleteLesson(lesson.ID, actor); err != nil {
		t.Fatalf("SoftDeleteLesson: %v", err)
	}
	if _, err := repo.GetLesson(lesson.ID); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("muốn NOT_FOUND sau khi xóa, nhận %v", err)
	}
	// Xóa lần nữa không lỗi, và update sau khi xóa không có tác dụng.
	if err := repo.SoftDeleteLesson(lesson.ID, actor); err != nil {
		t.Fatalf("SoftDeleteLesson lần 2: %v", err)
	}
	if err := repo.UpdateLessonFields(lesson.ID, map[string]interface{}{"title": "Hồi sinh"}); err != nil {
		t.Fatalf("UpdateLessonFields: %v", err)
	}
	var raw models.Lesson
	if err := db.First(&raw, "id = ?", lesson.ID).Error; err != nil {
		t.Fatalf("đọc raw: %v", err)
	}
	if raw.Title != "Bài 1" || raw.Status != models.LessonStatusDeleted {
		t.Errorf("bài đã xóa bị sửa: title=%q status=%q", raw.Title, raw.Status)
	}
}

func TestUpdateLessonFieldsSkipsEmptyMap(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	if err := repo.UpdateLessonFields(uuid.New(), nil); err != nil {
		t.Fatalf("map rỗng phải là no-op, nhận %v", err)
	}
}

func TestUpdateOrderAllOrNothing(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	course := testutil.SeedCourse(t, db, "Khóa A")
	l1 := testutil.SeedLesson(t, db, course.ID, "Bài 1", 1)
	l2 := testutil.SeedLesson(t, db, course.ID, "Bài 2", 2)
	actor := uuid.New()

	err := repo.UpdateOrder([]OrderPair{
		{ID: l1.ID, OrderIndex: 9},
		{ID: uuid.New(), OrderIndex: 10}, // không tồn tại
	}, actor)
	if err == nil {
		t.Fatal("muốn lỗi khi một cặp không khớp bài học nào")
	}

	var check models.Lesson
	if err := db.First(&check, "id = ?", l1.ID).Error; err != nil {
		t.Fatalf("đọc lại l1: %v", err)
	}
	if check.OrderIndex != 1 {
		t.Errorf("order_index của l1 = %d, batch lỗi phải rollback về 1", check.OrderIndex)
	}

	if err := repo.UpdateOrder([]OrderPair{
		{ID: l1.ID, OrderIndex: 2},
		{ID: l2.ID, OrderIndex: 1},
	}, actor); err != nil {
		t.Fatalf("UpdateOrder hợp lệ: %v", err)
	}
	lessons, err := repo.ListLessons(&course.ID)
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if lessons[0].ID != l2.ID || lessons[1].ID != l1.ID {
		t.Errorf("thứ tự sau khi đổi sai: %v, %v", lessons[0].Title, lessons[1].Title)
	}
}

func TestListVideosExcludesDeletedAndBreaksTiesByCreatedAt(t *testing.T) {
	db := testutil.DB(t)
	repo := NewLessonRepository(db)

	course := testutil.SeedCourse(t, db, "Khóa A")
	lesson := testutil.SeedLesson(t, db, course.ID, "Bài 1", 0)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := testutil.SeedVideo(t, db, lesson.ID, "Cũ hơn", 5, base)
	newer := testutil.SeedVideo(t, db, lesson.ID, "Mới hơn", 5, base.Add(time.Minute))
	gone := testutil.SeedVideo(t, db, lesson.ID, "Đã xóa", 0, base)
	if err := db.Model(&models.LessonVideo{}).Where("id = ?", gone.ID).
		Update("status", models.VideoStatusDeleted).Error; err != nil {
		t.Fatalf("đánh dấu video deleted: %v", err)
	}

	videos, err := repo.ListVideos(lesson.ID)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("videos = %d, muốn 2", len(videos))
	}
	if videos[0].ID != older.ID || videos[1].ID != newer.ID {
		t.Errorf("trùng order_index phải xếp theo created_at: %q trước %q", videos[0].Title, videos[1].Title)
	}
}
