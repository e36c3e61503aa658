// Package enrollment moves (user, course) pairs into the paid state.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursehub/models"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadyPaid    = errors.New("enrollment already paid")
)

// Outcome says what a settlement changed.
type Outcome int

const (
	// AlreadyPaid: nothing but the membership check happened.
	AlreadyPaid Outcome = iota
	// Upgraded: an existing pending enrollment was marked paid.
	Upgraded
	// Created: a new paid enrollment was inserted.
	Created
)

func (o Outcome) String() string {
	switch o {
	case Upgraded:
		return "upgraded"
	case Created:
		return "created"
	default:
		return "already_paid"
	}
}

// Changed reports whether the settlement moved the enrollment into paid.
func (o Outcome) Changed() bool { return o != AlreadyPaid }

// Charge describes the payment that settles an enrollment. Zero values are
// filled in: Amount from the course price, TransactionID with a random UUID.
type Charge struct {
	TransactionID string
	OrderID       string
	Amount        int64
	Method        string
}

type Result struct {
	Outcome    Outcome
	Enrollment models.Enrollment
	Payment    *models.Payment
	Course     models.Course
}

// Settle ensures (userID, courseID) ends in a paid enrollment with exactly one
// Payment per transaction id, and that the user belongs to the course's study
// group. Everything runs in one transaction.
func Settle(ctx context.Context, db *gorm.DB, userID, courseID uint, charge Charge) (*Result, error) {
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}
		if err := tx.First(&res.Course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("load course: %w", err)
		}

		var existing models.Enrollment
		err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
		switch {
		case err == nil && existing.IsPaid():
			res.Outcome = AlreadyPaid
			res.Enrollment = existing
		case err == nil:
			now := time.Now()
			existing.Status = models.EnrollmentPaid
			existing.PaidAt = &now
			if charge.OrderID != "" {
				existing.OrderID = charge.OrderID
			}
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("mark enrollment paid: %w", err)
			}
			res.Outcome = Upgraded
			res.Enrollment = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			created := models.Enrollment{
				UserID:   userID,
				CourseID: courseID,
				Status:   models.EnrollmentPaid,
				OrderID:  charge.OrderID,
				PaidAt:   &now,
			}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("create enrollment: %w", err)
			}
			res.Outcome = Created
			res.Enrollment = created
		default:
			return fmt.Errorf("load enrollment: %w", err)
		}

		if res.Outcome.Changed() {
			payment, err := recordPayment(tx, res.Enrollment, res.Course, charge)
			if err != nil {
				return err
			}
			res.Payment = payment
		}

		if _, err := EnsureMembership(tx, courseID, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// recordPayment inserts the payment unless one already exists for the transaction id.
func recordPayment(tx *gorm.DB, e models.Enrollment, course models.Course, charge Charge) (*models.Payment, error) {
	if charge.TransactionID == "" {
		charge.TransactionID = uuid.NewString()
	}
	if charge.Amount <= 0 {
		charge.Amount = course.Price
	}
	if charge.Method == "" {
		charge.Method = models.PaymentMethodMock
	}

	var payment models.Payment
	err := tx.Where("transaction_id = ?", charge.TransactionID).First(&payment).Error
	if err == nil {
		return &payment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load payment: %w", err)
	}

	payment = models.Payment{
		UserID:        e.UserID,
		CourseID:      e.CourseID,
		EnrollmentID:  e.ID,
		Amount:        charge.Amount,
		TransactionID: charge.TransactionID,
		OrderID:       charge.OrderID,
		Status:        models.PaymentCompleted,
		Method:        charge.Method,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &payment, nil
}

// EnsureMembership adds the user to the course's study group if missing. It
// returns false when the course has no group.
func EnsureMembership(tx *gorm.DB, courseID, userID uint) (bool, error) {
	var group models.StudyGroup
	if err := tx.Where("course_id = ?", courseID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load study group: %w", err)
	}
	member := models.GroupMember{GroupID: group.ID, UserID: userID}
	if err := tx.Where("group_id = ? AND user_id = ?", group.ID, userID).FirstOrCreate(&member).Error; err != nil {
		return false, fmt.Errorf("ensure group membership: %w", err)
	}
	return true, nil
}

// IsPaid reports the paid status of (userID, courseID).
func IsPaid(ctx context.Context, db *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.EnrollmentPaid).
		Count(&count).Error
	return count > 0, err
}
