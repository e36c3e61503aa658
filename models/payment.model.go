package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment methods and statuses.
const (
	PaymentMethodMock = "mock"
	PaymentCompleted  = "completed"
)

// Payment is an immutable record of one completed charge
type Payment struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"index;not null"`
	CourseID      uint   `json:"course_id" gorm:"index;not null"`
	EnrollmentID  uint   `json:"enrollment_id" gorm:"index;not null"`
	Amount        int64  `json:"amount" gorm:"not null"`
	TransactionID string `json:"transaction_id" gorm:"uniqueIndex;not null"`
	OrderID       string `json:"order_id"`
	Status        string `json:"status" gorm:"type:varchar(16);not null"`
	Method        string `json:"method" gorm:"type:varchar(32)"`
}

// Processing states of a PaymentEvent.
const (
	EventReceived  = "received"
	EventProcessed = "processed"
	EventIgnored   = "ignored"
	EventFailed    = "failed"
)

// PaymentEvent logs every notification received from the payment processor
type PaymentEvent struct {
	gorm.Model
	Provider          string         `json:"provider" gorm:"type:varchar(32);index"`
	OrderID           string         `json:"order_id" gorm:"index"`
	TransactionID     string         `json:"transaction_id"`
	TransactionStatus string         `json:"transaction_status"`
	FraudStatus       string         `json:"fraud_status"`
	Signature         string         `json:"-"`
	Payload           datatypes.JSON `json:"payload"`
	Status            string         `json:"status" gorm:"type:varchar(16)"`
	Error             string         `json:"error"`
	ProcessedAt       *time.Time     `json:"processed_at"`
}
