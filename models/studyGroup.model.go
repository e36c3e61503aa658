package models

import "gorm.io/gorm"

// StudyGroup is the discussion space of a course; exactly one per course
type StudyGroup struct {
	gorm.Model
	CourseID  uint   `json:"course_id" gorm:"uniqueIndex;not null"`
	CreatorID uint   `json:"creator_id" gorm:"not null"`
	Name      string `json:"name"`
}

type GroupMember struct {
	gorm.Model
	GroupID uint  `json:"group_id" gorm:"not null;uniqueIndex:idx_group_member"`
	UserID  uint  `json:"user_id" gorm:"not null;uniqueIndex:idx_group_member;index"`
	User    *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Message is immutable once created
type Message struct {
	gorm.Model
	GroupID  uint   `json:"group_id" gorm:"index;not null"`
	SenderID uint   `json:"sender_id" gorm:"index;not null"`
	Content  string `json:"content" gorm:"type:text;not null"`
	Sender   *User  `json:"-" gorm:"foreignKey:SenderID"`
}
