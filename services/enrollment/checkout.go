package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"coursehub/models"
)

// Reserve creates (or reuses) the pending enrollment a payment intent settles
// later, and records the intent's order id on it.
func Reserve(ctx context.Context, db *gorm.DB, userID, courseID uint, orderID string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
		switch {
		case err == nil && e.IsPaid():
			return ErrAlreadyPaid
		case err == nil:
			e.OrderID = orderID
			e.CheckedAt = nil
			e.IntentClosed = false
			return tx.Save(&e).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			e = models.Enrollment{
				UserID:   userID,
				CourseID: courseID,
				Status:   models.EnrollmentPending,
				OrderID:  orderID,
			}
			return tx.Create(&e).Error
		default:
			return fmt.Errorf("load enrollment: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByOrderID returns the enrollment whose latest payment intent is orderID.
func FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// StalePending lists pending enrollments holding an open payment intent that
// has not been settled for at least age. Rows checked within age are skipped
// and the least recently checked come first, so a full batch of unsettled
// intents cannot starve the rest.
func StalePending(ctx context.Context, db *gorm.DB, age time.Duration, limit int) ([]models.Enrollment, error) {
	cutoff := time.Now().Add(-age)
	var rows []models.Enrollment
	err := db.WithContext(ctx).
		Where("status = ? AND order_id <> '' AND intent_closed = ?", models.EnrollmentPending, false).
		Where("updated_at <= ? AND (checked_at IS NULL OR checked_at <= ?)", cutoff, cutoff).
		Order("COALESCE(checked_at, updated_at) asc").
		Order("id asc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkChecked records a reconciler lookup of the current order id. A closed
// intent is not polled again until a new checkout replaces it.
func MarkChecked(ctx context.Context, db *gorm.DB, enrollmentID uint, orderID string, closed bool) error {
	return db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ? AND order_id = ?", enrollmentID, orderID).
		UpdateColumns(map[string]interface{}{
			"checked_at":    time.Now(),
			"intent_closed": closed,
		}).Error
}
