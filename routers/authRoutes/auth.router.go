package authRoutes

import (
	"github.com/gofiber/fiber/v2"

	authControllers "coursehub/controllers/auth"
	"coursehub/middleware"
	authValidators "coursehub/validators/auth"
)

func SetupAuthRoutes(app *fiber.App, guard middleware.Guard, ctrl *authControllers.AuthController) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), ctrl.Signup)
	authGroup.Post("/login", authValidators.Login(), ctrl.Login)
	authGroup.Get("/me", guard.Then(ctrl.Me)...)
}
