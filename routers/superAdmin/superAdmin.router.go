package superAdminRoutes

import (
	"github.com/gofiber/fiber/v2"

	courseControllers "coursehub/controllers/course"
	superAdminController "coursehub/controllers/superAdmin"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/validators"
	superAdminValidator "coursehub/validators/superAdmin"
)

func SetupSuperAdminRoutes(app *fiber.App, guard middleware.Guard, ctrl *superAdminController.AdminController, courses *courseControllers.CourseController) {
	adminGroup := app.Group("/admin")
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	adminGroup.Get("/users", guard.Then(adminOnly, validators.Paginate(20, 100), superAdminValidator.List(), ctrl.UserList)...)
	adminGroup.Patch("/users/:id/role", guard.Then(adminOnly, validators.IDParams("id"), superAdminValidator.UpdateRole(), ctrl.UpdateUserRole)...)
	adminGroup.Get("/dashboard/stats", guard.Then(adminOnly, courses.AdminDashboardStats)...)
}
