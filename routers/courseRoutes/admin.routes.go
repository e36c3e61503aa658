package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	"coursehub/models"
)

// SetupDashboardRoutes sets up the teacher and student dashboards
func SetupDashboardRoutes(app *fiber.App, guard middleware.Guard, ctrl *controllers.CourseController) {
	app.Get("/teacher/dashboard", guard.Then(middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), ctrl.TeacherDashboard)...)
	app.Get("/student/dashboard", guard.Then(ctrl.StudentDashboard)...)
}
