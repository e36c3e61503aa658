package paymentController

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/enrollment"
	"coursehub/services/payment"
	"coursehub/utils"
)

// PaymentController receives payment processor notifications.
type PaymentController struct {
	DB      *gorm.DB
	Gateway payment.Gateway
	Mailer  utils.Mailer
	Log     *logger.Logger
	Resp    *middleware.Responder
}

func NewPaymentController(db *gorm.DB, gateway payment.Gateway, mailer utils.Mailer, log *logger.Logger, resp *middleware.Responder) *PaymentController {
	return &PaymentController{DB: db, Gateway: gateway, Mailer: mailer, Log: log.With("component", "payment-webhook"), Resp: resp}
}

type midtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
	CustomField1      string `json:"custom_field1"` // user id
	CustomField2      string `json:"custom_field2"` // course id
}

// MidtransWebhook verifies and records a notification, and settles the
// enrollment when the processor reports the money as captured.
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	if h.Gateway == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway is not configured!", nil)
	}

	var notif midtransNotification
	if err := c.BodyParser(&notif); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid notification payload!", nil)
	}
	if strings.TrimSpace(notif.OrderID) == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "order_id is required!", nil)
	}

	if !h.Gateway.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		h.Log.Warn("rejected notification with invalid signature", "order_id", notif.OrderID)
		h.logEvent(c, notif, models.EventFailed, "invalid signature")
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid signature!", nil)
	}

	event := h.logEvent(c, notif, models.EventReceived, "")

	if !payment.IsSettled(notif.TransactionStatus, notif.FraudStatus) {
		h.finishEvent(event, models.EventIgnored, "")
		h.Log.Info("notification recorded", "order_id", notif.OrderID, "transaction_status", notif.TransactionStatus)
		return c.JSON(fiber.Map{"received": true})
	}

	userID, courseID, ok := h.resolvePair(c, notif)
	if !ok {
		h.finishEvent(event, models.EventFailed, "no enrollment matches order_id")
		h.Log.Warn("settled notification for unknown order", "order_id", notif.OrderID)
		return c.JSON(fiber.Map{"received": true})
	}

	res, err := enrollment.Settle(c.UserContext(), h.DB, userID, courseID, enrollment.Charge{
		TransactionID: notif.TransactionID,
		OrderID:       notif.OrderID,
		Amount:        payment.ParseAmount(notif.GrossAmount),
		Method:        notif.PaymentType,
	})
	if err != nil {
		h.finishEvent(event, models.EventFailed, err.Error())
		return h.Resp.ServerError(c, "Failed to settle payment!", err)
	}
	h.finishEvent(event, models.EventProcessed, "")

	h.Log.Info("payment settled", "order_id", notif.OrderID, "user_id", userID, "course_id", courseID, "outcome", res.Outcome.String())
	if res.Outcome.Changed() && res.Payment != nil {
		var user models.User
		if err := h.DB.WithContext(c.UserContext()).First(&user, userID).Error; err == nil {
			utils.SendEnrollmentEmail(h.Mailer, h.Log, user, res.Course, res.Payment.Amount)
		}
	}
	return c.JSON(fiber.Map{"received": true})
}

// resolvePair reads user and course from the custom fields, falling back to
// the enrollment holding the order id, then to the order id itself.
func (h *PaymentController) resolvePair(c *fiber.Ctx, notif midtransNotification) (userID, courseID uint, ok bool) {
	u, errU := strconv.ParseUint(strings.TrimSpace(notif.CustomField1), 10, 64)
	co, errC := strconv.ParseUint(strings.TrimSpace(notif.CustomField2), 10, 64)
	if errU == nil && errC == nil && u > 0 && co > 0 {
		return uint(u), uint(co), true
	}

	if e, err := enrollment.FindByOrderID(c.UserContext(), h.DB, notif.OrderID); err == nil {
		return e.UserID, e.CourseID, true
	}
	return payment.ParseOrderID(notif.OrderID)
}

func (h *PaymentController) logEvent(c *fiber.Ctx, notif midtransNotification, status, errMsg string) *models.PaymentEvent {
	payload := json.RawMessage(c.Body())
	if !json.Valid(payload) {
		payload, _ = json.Marshal(notif)
	}
	event := models.PaymentEvent{
		Provider:          payment.ProviderMidtrans,
		OrderID:           notif.OrderID,
		TransactionID:     notif.TransactionID,
		TransactionStatus: notif.TransactionStatus,
		FraudStatus:       notif.FraudStatus,
		Signature:         notif.SignatureKey,
		Payload:           datatypes.JSON(payload),
		Status:            status,
		Error:             errMsg,
	}
	if err := h.DB.WithContext(c.UserContext()).Create(&event).Error; err != nil {
		h.Log.Error("recording payment event", "order_id", notif.OrderID, "error", err)
		return nil
	}
	return &event
}

func (h *PaymentController) finishEvent(event *models.PaymentEvent, status, errMsg string) {
	if event == nil {
		return
	}
	now := time.Now()
	err := h.DB.Model(event).Updates(map[string]interface{}{
		"status":       status,
		"error":        errMsg,
		"processed_at": &now,
	}).Error
	if err != nil {
		h.Log.Error("updating payment event", "event_id", event.ID, "error", err)
	}
}
