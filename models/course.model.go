package models

import "gorm.io/gorm"

// Course represents a sellable course owned by a teacher
type Course struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description" gorm:"type:text"`
	Price        int64  `json:"price" gorm:"default:0"` // whole currency units
	ThumbnailURL string `json:"thumbnail_url"`
	IsPublished  bool   `json:"is_published" gorm:"default:false"`
	TeacherID    uint   `json:"teacher_id" gorm:"index;not null"`
	Teacher      *User  `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// Lesson belongs to a course and is ordered by Position
type Lesson struct {
	gorm.Model
	CourseID uint   `json:"course_id" gorm:"index;not null"`
	Title    string `json:"title"`
	Content  string `json:"content" gorm:"type:text"`
	VideoURL string `json:"video_url"`
	Position int    `json:"position" gorm:"default:0"`
	Quiz     *Quiz  `json:"quiz,omitempty" gorm:"foreignKey:LessonID"`
}
