package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/models"
	"coursehub/services/enrollment"
	"coursehub/services/payment"
)

const (
	DefaultReconcileAge   = 5 * time.Minute
	DefaultReconcileBatch = 100
)

// PaymentReconciler settles pending enrollments whose webhook never arrived.
type PaymentReconciler struct {
	DB        *gorm.DB
	Gateway   payment.Gateway
	Mailer    Mailer
	Log       *logger.Logger
	MinAge    time.Duration
	BatchSize int
}

func NewPaymentReconciler(db *gorm.DB, gateway payment.Gateway, mailer Mailer, log *logger.Logger) *PaymentReconciler {
	return &PaymentReconciler{
		DB:        db,
		Gateway:   gateway,
		Mailer:    mailer,
		Log:       log.With("component", "payment-reconciler"),
		MinAge:    DefaultReconcileAge,
		BatchSize: DefaultReconcileBatch,
	}
}

// Run checks one batch of stale pending enrollments and returns how many were settled.
func (r *PaymentReconciler) Run(ctx context.Context) int {
	pending, err := enrollment.StalePending(ctx, r.DB, r.MinAge, r.BatchSize)
	if err != nil {
		r.Log.Error("fetching pending enrollments", "error", err)
		return 0
	}
	r.Log.Debug("reconciling pending enrollments", "count", len(pending))

	settled := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			break
		}
		status, err := r.Gateway.CheckStatus(e.OrderID)
		if err != nil {
			r.Log.Warn("checking transaction status", "order_id", e.OrderID, "error", err)
			r.markChecked(ctx, e, false)
			continue
		}
		if !status.Settled() {
			if status.Closed() {
				r.Log.Info("payment intent closed", "order_id", e.OrderID, "transaction_status", status.TransactionStatus)
			}
			r.markChecked(ctx, e, status.Closed())
			continue
		}

		res, err := enrollment.Settle(ctx, r.DB, e.UserID, e.CourseID, enrollment.Charge{
			TransactionID: status.TransactionID,
			OrderID:       e.OrderID,
			Amount:        payment.ParseAmount(status.GrossAmount),
			Method:        status.PaymentType,
		})
		r.recordEvent(e.OrderID, status, err)
		if err != nil {
			r.Log.Error("settling enrollment", "order_id", e.OrderID, "error", err)
			continue
		}

		settled++
		r.Log.Info("enrollment settled by reconciler", "order_id", e.OrderID, "outcome", res.Outcome.String())
		if res.Outcome.Changed() {
			var user models.User
			if err := r.DB.WithContext(ctx).First(&user, e.UserID).Error; err == nil {
				SendEnrollmentEmail(r.Mailer, r.Log, user, res.Course, res.Payment.Amount)
			}
		}
	}
	return settled
}

func (r *PaymentReconciler) markChecked(ctx context.Context, e models.Enrollment, closed bool) {
	if err := enrollment.MarkChecked(ctx, r.DB, e.ID, e.OrderID, closed); err != nil {
		r.Log.Warn("marking enrollment checked", "order_id", e.OrderID, "error", err)
	}
}

func (r *PaymentReconciler) recordEvent(orderID string, status *payment.Status, settleErr error) {
	payload, _ := json.Marshal(status)
	now := time.Now()
	event := models.PaymentEvent{
		Provider:          payment.ProviderMidtrans,
		OrderID:           orderID,
		TransactionID:     status.TransactionID,
		TransactionStatus: status.TransactionStatus,
		FraudStatus:       status.FraudStatus,
		Payload:           datatypes.JSON(payload),
		Status:            models.EventProcessed,
		ProcessedAt:       &now,
	}
	if settleErr != nil {
		event.Status = models.EventFailed
		event.Error = settleErr.Error()
	}
	if err := r.DB.Create(&event).Error; err != nil {
		r.Log.Warn("recording reconciler event", "order_id", orderID, "error", err)
	}
}

// StartPaymentScheduler registers the reconciler on spec and starts the cron runner.
func StartPaymentScheduler(spec string, r *PaymentReconciler) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.Run(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	r.Log.Info("payment reconciler scheduled", "spec", spec)
	return c, nil
}
