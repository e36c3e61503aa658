package models

import (
	"time"

	"gorm.io/gorm"
)

// VideoCompletionThreshold is the watched percentage at which a lesson counts as completed.
const VideoCompletionThreshold = 95

// Progress is upserted per (user, lesson) and never deleted
type Progress struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson"`
	LessonID      uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson;index"`
	IsCompleted   bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt   *time.Time `json:"completed_at"`
	LastVisitedAt *time.Time `json:"last_visited_at"`
	QuizScore     *int       `json:"quiz_score"`
	QuizTotal     *int       `json:"quiz_total"`
	VideoProgress float64    `json:"video_progress" gorm:"default:0"`
}
