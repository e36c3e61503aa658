package userProfileRoutes

import (
	"github.com/gofiber/fiber/v2"

	userProfileController "coursehub/controllers/userControllers"
	"coursehub/middleware"
	"coursehub/utils"
	"coursehub/validators"
	userValidator "coursehub/validators/userValidator"
)

func SetupUserRoutes(app *fiber.App, guard middleware.Guard, ctrl *userProfileController.ProfileController) {
	userGroup := app.Group("/users")

	userGroup.Put("/me", guard.Then(userValidator.UpdateProfile(), ctrl.UpdateProfile)...)
	userGroup.Post("/me/picture", guard.Then(userValidator.UploadPicture(), ctrl.UploadPicture)...)
	userGroup.Get("/:id", guard.Then(validators.IDParams("id"), ctrl.GetProfile)...)

	app.Static(utils.UploadsPath, ctrl.UploadDir)
}
