package paymentRoutes

import (
	"github.com/gofiber/fiber/v2"

	paymentController "coursehub/controllers/payment"
)

// SetupPaymentRoutes registers the unauthenticated processor callback; the
// notification signature is the authentication.
func SetupPaymentRoutes(app *fiber.App, ctrl *paymentController.PaymentController) {
	app.Post("/payment/webhook", ctrl.MidtransWebhook)
}
