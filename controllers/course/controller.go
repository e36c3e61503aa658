package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/enrollment"
	"coursehub/services/payment"
	"coursehub/utils"
	"coursehub/validators"
)

// CourseController serves the catalog and everything hanging off a course:
// lessons, enrollment, quizzes, progress, the study group and dashboards.
type CourseController struct {
	DB      *gorm.DB
	Gateway payment.Gateway // nil when Midtrans is not configured
	Mailer  utils.Mailer
	Log     *logger.Logger
	Resp    *middleware.Responder
	Now     func() time.Time
}

func NewCourseController(db *gorm.DB, gateway payment.Gateway, mailer utils.Mailer, log *logger.Logger, resp *middleware.Responder) *CourseController {
	return &CourseController{
		DB:      db,
		Gateway: gateway,
		Mailer:  mailer,
		Log:     log.With("component", "course"),
		Resp:    resp,
		Now:     time.Now,
	}
}

func (cc *CourseController) db(c *fiber.Ctx) *gorm.DB {
	return cc.DB.WithContext(c.UserContext())
}

// caller returns the user loaded by middleware.LoadUser.
func caller(c *fiber.Ctx) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

func paramID(c *fiber.Ctx, name string) uint {
	id, _ := c.Locals(name).(uint)
	return id
}

func pagination(c *fiber.Ctx) validators.Pagination {
	p, ok := c.Locals("pagination").(validators.Pagination)
	if !ok {
		return validators.Pagination{Page: 1, Limit: 20}
	}
	return p
}

func (cc *CourseController) findCourse(c *fiber.Ctx, id uint) (*models.Course, error) {
	var course models.Course
	if err := cc.db(c).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// visibleCourse loads a course the caller may see: published ones for
// everybody, drafts only for their owner and admins. On a nil course the
// response is already written and the error is the write result.
func (cc *CourseController) visibleCourse(c *fiber.Ctx) (*models.Course, error) {
	course, err := cc.findCourse(c, paramID(c, "id"))
	if err != nil {
		return nil, cc.lookupError(c, err, "Course not found!")
	}
	if !course.IsPublished && !middleware.Can(caller(c), course, middleware.CapManageCourse) {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	return course, nil
}

// managedCourse loads a course the caller may modify.
func (cc *CourseController) managedCourse(c *fiber.Ctx, capability middleware.Capability) (*models.Course, error) {
	course, err := cc.findCourse(c, paramID(c, "id"))
	if err != nil {
		return nil, cc.lookupError(c, err, "Course not found!")
	}
	if !middleware.Can(caller(c), course, capability) {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
	}
	return course, nil
}

func (cc *CourseController) findLesson(c *fiber.Ctx, courseID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	err := cc.db(c).Where("id = ? AND course_id = ?", paramID(c, "lessonId"), courseID).First(&lesson).Error
	if err != nil {
		return nil, cc.lookupError(c, err, "Lesson not found!")
	}
	return &lesson, nil
}

// lookupError writes a 404 for missing rows and a 500 for everything else.
func (cc *CourseController) lookupError(c *fiber.Ctx, err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, notFound, nil)
	}
	return cc.Resp.ServerError(c, "Failed to load record!", err)
}

// hasAccess reports whether the caller may read paid course material.
func (cc *CourseController) hasAccess(c *fiber.Ctx, course *models.Course) (bool, error) {
	if middleware.Can(caller(c), course, middleware.CapPreviewQuiz) {
		return true, nil
	}
	return enrollment.IsPaid(c.UserContext(), cc.DB, caller(c).ID, course.ID)
}

func (cc *CourseController) notifyEnrollment(res *enrollment.Result, user models.User) {
	if res == nil || !res.Outcome.Changed() || res.Payment == nil {
		return
	}
	utils.SendEnrollmentEmail(cc.Mailer, cc.Log, user, res.Course, res.Payment.Amount)
}
