// Package progress upserts per-user, per-lesson progress rows.
package progress

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursehub/models"
)

var conflictColumns = []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}}

// MarkVisited completes the lesson for the user. The first completion time is
// kept; LastVisitedAt moves on every call.
func MarkVisited(ctx context.Context, db *gorm.DB, userID, lessonID uint, now time.Time) (*models.Progress, error) {
	row := models.Progress{
		UserID:        userID,
		LessonID:      lessonID,
		IsCompleted:   true,
		CompletedAt:   &now,
		LastVisitedAt: &now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: conflictColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_completed":    true,
			"completed_at":    gorm.Expr("COALESCE(progresses.completed_at, ?)", now),
			"last_visited_at": now,
			"updated_at":      now,
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("mark visited: %w", err)
	}
	return Get(ctx, db, userID, lessonID)
}

// SetVideoProgress stores the watched percentage. The lesson is completed at
// models.VideoCompletionThreshold and above; below it completion is cleared.
func SetVideoProgress(ctx context.Context, db *gorm.DB, userID, lessonID uint, pct float64, now time.Time) (*models.Progress, error) {
	completed := pct >= models.VideoCompletionThreshold

	row := models.Progress{
		UserID:        userID,
		LessonID:      lessonID,
		VideoProgress: pct,
		IsCompleted:   completed,
		LastVisitedAt: &now,
	}
	updates := map[string]interface{}{
		"video_progress":  pct,
		"is_completed":    completed,
		"completed_at":    nil,
		"last_visited_at": now,
		"updated_at":      now,
	}
	if completed {
		row.CompletedAt = &now
		updates["completed_at"] = gorm.Expr("COALESCE(progresses.completed_at, ?)", now)
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   conflictColumns,
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("set video progress: %w", err)
	}
	return Get(ctx, db, userID, lessonID)
}

// RecordQuizScore stores the latest graded attempt without touching completion.
func RecordQuizScore(ctx context.Context, db *gorm.DB, userID, lessonID uint, score, total int, now time.Time) error {
	row := models.Progress{
		UserID:        userID,
		LessonID:      lessonID,
		QuizScore:     &score,
		QuizTotal:     &total,
		LastVisitedAt: &now,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: conflictColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quiz_score":      score,
			"quiz_total":      total,
			"last_visited_at": now,
			"updated_at":      now,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("record quiz score: %w", err)
	}
	return nil
}

func Get(ctx context.Context, db *gorm.DB, userID, lessonID uint) (*models.Progress, error) {
	var p models.Progress
	if err := db.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Summary is a student's progress through one course.
type Summary struct {
	CourseID         uint              `json:"course_id"`
	TotalLessons     int               `json:"total_lessons"`
	CompletedLessons int               `json:"completed_lessons"`
	Percentage       float64           `json:"percentage"`
	Lessons          []models.Progress `json:"lessons"`
}

// CourseSummary returns the user's rows for the course's lessons plus the
// completed share rounded to two decimals.
func CourseSummary(ctx context.Context, db *gorm.DB, userID, courseID uint) (*Summary, error) {
	db = db.WithContext(ctx)

	var lessonIDs []uint
	if err := db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Order("position asc, id asc").Pluck("id", &lessonIDs).Error; err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	s := &Summary{CourseID: courseID, TotalLessons: len(lessonIDs), Lessons: []models.Progress{}}
	if len(lessonIDs) == 0 {
		return s, nil
	}

	if err := db.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).Order("lesson_id asc").Find(&s.Lessons).Error; err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for _, p := range s.Lessons {
		if p.IsCompleted {
			s.CompletedLessons++
		}
	}
	s.Percentage = math.Round(float64(s.CompletedLessons)/float64(s.TotalLessons)*10000) / 100
	return s, nil
}
