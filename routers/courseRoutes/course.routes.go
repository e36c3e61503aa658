package courseRoutes

import (
	"github.com/gofiber/fiber/v2"

	controllers "coursehub/controllers/course"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/validators"
	courseValidator "coursehub/validators/course"
)

// SetupCourseRoutes sets up catalog, lesson, enrollment, quiz and study group routes
func SetupCourseRoutes(app *fiber.App, guard middleware.Guard, ctrl *controllers.CourseController) {
	courseGroup := app.Group("/courses")
	courseID := validators.IDParams("id")
	lessonIDs := validators.IDParams("id", "lessonId")
	authors := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	// Catalog
	courseGroup.Get("/", guard.Then(validators.Paginate(20, 100), courseValidator.CourseList(), ctrl.ListCourses)...)
	courseGroup.Post("/", guard.Then(authors, courseValidator.CreateCourse(), ctrl.CreateCourse)...)
	courseGroup.Get("/:id", guard.Then(courseID, ctrl.GetCourse)...)
	courseGroup.Put("/:id", guard.Then(authors, courseID, courseValidator.UpdateCourse(), ctrl.UpdateCourse)...)
	courseGroup.Delete("/:id", guard.Then(authors, courseID, ctrl.DeleteCourse)...)
	courseGroup.Post("/:id/publish", guard.Then(authors, courseID, courseValidator.Publish(), ctrl.PublishCourse)...)

	// Lessons
	courseGroup.Get("/:id/lessons", guard.Then(courseID, ctrl.ListLessons)...)
	courseGroup.Post("/:id/lessons", guard.Then(authors, courseID, courseValidator.CreateLesson(), ctrl.CreateLesson)...)
	courseGroup.Put("/:id/lessons/reorder", guard.Then(authors, courseID, courseValidator.ReorderLessons(), ctrl.ReorderLessons)...)
	courseGroup.Put("/:id/lessons/:lessonId", guard.Then(authors, lessonIDs, courseValidator.UpdateLesson(), ctrl.UpdateLesson)...)
	courseGroup.Delete("/:id/lessons/:lessonId", guard.Then(authors, lessonIDs, ctrl.DeleteLesson)...)

	// Enrollment
	courseGroup.Post("/:id/enroll", guard.Then(courseID, courseValidator.EnrollCourse(), ctrl.EnrollInCourse)...)
	courseGroup.Get("/:id/enroll", guard.Then(courseID, ctrl.EnrollmentStatus)...)
	courseGroup.Post("/:id/checkout", guard.Then(courseID, ctrl.Checkout)...)

	// Quiz
	courseGroup.Get("/:id/lessons/:lessonId/quiz", guard.Then(lessonIDs, ctrl.GetQuiz)...)
	courseGroup.Post("/:id/lessons/:lessonId/quiz", guard.Then(authors, lessonIDs, courseValidator.UpsertQuiz(), ctrl.CreateQuiz)...)
	courseGroup.Put("/:id/lessons/:lessonId/quiz", guard.Then(authors, lessonIDs, courseValidator.UpsertQuiz(), ctrl.UpdateQuiz)...)
	courseGroup.Delete("/:id/lessons/:lessonId/quiz", guard.Then(authors, lessonIDs, ctrl.DeleteQuiz)...)
	courseGroup.Post("/:id/lessons/:lessonId/quiz/submit", guard.Then(lessonIDs, courseValidator.SubmitQuiz(), ctrl.SubmitQuiz)...)

	// Study group
	courseGroup.Post("/:id/study-group/message", guard.Then(courseID, courseValidator.PostMessage(), ctrl.PostMessage)...)
	courseGroup.Get("/:id/study-group/messages", guard.Then(courseID, validators.Paginate(50, 200), ctrl.ListMessages)...)
	courseGroup.Get("/:id/study-group/members", guard.Then(courseID, ctrl.ListMembers)...)
}

// SetupProgressRoutes sets up per-student progress routes
func SetupProgressRoutes(app *fiber.App, guard middleware.Guard, ctrl *controllers.CourseController) {
	studentGroup := app.Group("/students")
	ids := validators.IDParams("id", "lessonId")

	studentGroup.Post("/:id/lessons/:lessonId/progress", guard.Then(ids, ctrl.MarkVisited)...)
	studentGroup.Patch("/:id/lessons/:lessonId/progress", guard.Then(ids, courseValidator.UpdateProgress(), ctrl.UpdateProgress)...)
	studentGroup.Get("/:id/courses/:courseId/progress", guard.Then(validators.IDParams("id", "courseId"), ctrl.GetCourseProgress)...)
}
