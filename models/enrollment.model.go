package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment payment states. Transitions only go pending -> paid.
const (
	EnrollmentPending = "pending"
	EnrollmentPaid    = "paid"
)

type Enrollment struct {
	gorm.Model
	UserID   uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	Status   string     `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	OrderID  string     `json:"order_id" gorm:"index"` // last payment intent created at the processor
	PaidAt   *time.Time `json:"paid_at"`

	// reconciler bookkeeping for the current order id
	CheckedAt    *time.Time `json:"-"`
	IntentClosed bool       `json:"-" gorm:"default:false"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (e Enrollment) IsPaid() bool {
	return e.Status == EnrollmentPaid
}
