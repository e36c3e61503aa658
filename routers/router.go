// Package routers wires controllers to the HTTP surface.
package routers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/config"
	authControllers "coursehub/controllers/auth"
	courseControllers "coursehub/controllers/course"
	paymentController "coursehub/controllers/payment"
	superAdminController "coursehub/controllers/superAdmin"
	userProfileController "coursehub/controllers/userControllers"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/routers/authRoutes"
	"coursehub/routers/courseRoutes"
	"coursehub/routers/paymentRoutes"
	superAdminRoutes "coursehub/routers/superAdmin"
	userProfileRoutes "coursehub/routers/userRoutes"
	"coursehub/services/payment"
	"coursehub/utils"
)

// Deps are the process-wide handles shared by every controller.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *logger.Logger
	Gateway payment.Gateway
	Mailer  utils.Mailer
}

// NewApp builds the fiber app with the error handler derived from deps.
func NewApp(deps Deps) *fiber.App {
	resp := middleware.NewResponder(deps.Log, deps.Config.IsProduction())
	return fiber.New(fiber.Config{
		AppName:      "coursehub",
		ErrorHandler: resp.ErrorHandler,
	})
}

// Setup registers every route on app.
func Setup(app *fiber.App, deps Deps) {
	resp := middleware.NewResponder(deps.Log, deps.Config.IsProduction())
	guard := middleware.NewGuard(deps.Config.JWTKey, deps.DB)

	auth := authControllers.NewAuthController(deps.DB, deps.Config.JWTKey, deps.Config.SaltRound, deps.Log, resp)
	courses := courseControllers.NewCourseController(deps.DB, deps.Gateway, deps.Mailer, deps.Log, resp)
	admin := superAdminController.NewAdminController(deps.DB, deps.Log, resp)
	payments := paymentController.NewPaymentController(deps.DB, deps.Gateway, deps.Mailer, deps.Log, resp)
	profiles := userProfileController.NewProfileController(deps.DB, deps.Config.UploadDir, deps.Log, resp)

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app, guard, auth)
	userProfileRoutes.SetupUserRoutes(app, guard, profiles)
	courseRoutes.SetupCourseRoutes(app, guard, courses)
	courseRoutes.SetupProgressRoutes(app, guard, courses)
	courseRoutes.SetupDashboardRoutes(app, guard, courses)
	superAdminRoutes.SetupSuperAdminRoutes(app, guard, admin, courses)
	paymentRoutes.SetupPaymentRoutes(app, payments)
}
