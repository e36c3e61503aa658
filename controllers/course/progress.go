package controllers

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/progress"
	courseValidator "coursehub/validators/course"
)

// progressTarget checks the caller may touch :id's progress and loads :lessonId.
func (cc *CourseController) progressTarget(c *fiber.Ctx) (uint, *models.Lesson, error) {
	studentID := paramID(c, "id")
	if !middleware.Can(caller(c), middleware.StudentRef(studentID), middleware.CapTrackProgress) {
		return 0, nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only track your own progress!", nil)
	}

	var lesson models.Lesson
	if err := cc.db(c).First(&lesson, paramID(c, "lessonId")).Error; err != nil {
		return 0, nil, cc.lookupError(c, err, "Lesson not found!")
	}
	return studentID, &lesson, nil
}

// MarkVisited completes the lesson for the student.
func (cc *CourseController) MarkVisited(c *fiber.Ctx) error {
	studentID, lesson, err := cc.progressTarget(c)
	if lesson == nil {
		return err
	}

	p, err := progress.MarkVisited(c.UserContext(), cc.DB, studentID, lesson.ID, cc.Now())
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to update progress!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked as completed!", p)
}

// UpdateProgress stores the video percentage and derives completion from it.
func (cc *CourseController) UpdateProgress(c *fiber.Ctx) error {
	studentID, lesson, err := cc.progressTarget(c)
	if lesson == nil {
		return err
	}
	reqData := c.Locals("validatedProgress").(*courseValidator.UpdateProgressRequest)

	p, err := progress.SetVideoProgress(c.UserContext(), cc.DB, studentID, lesson.ID, *reqData.Progress, cc.Now())
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to update progress!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", p)
}

// GetCourseProgress summarizes the student's progress through :courseId.
func (cc *CourseController) GetCourseProgress(c *fiber.Ctx) error {
	studentID := paramID(c, "id")
	if !middleware.Can(caller(c), middleware.StudentRef(studentID), middleware.CapTrackProgress) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only view your own progress!", nil)
	}
	course, err := cc.findCourse(c, paramID(c, "courseId"))
	if err != nil {
		return cc.lookupError(c, err, "Course not found!")
	}

	summary, err := progress.CourseSummary(c.UserContext(), cc.DB, studentID, course.ID)
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch progress!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", summary)
}
