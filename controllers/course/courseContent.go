package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/middleware"
	"coursehub/models"
	courseValidator "coursehub/validators/course"
)

// ListLessons returns the course's lessons in order. Callers without access
// to paid material only see titles.
func (cc *CourseController) ListLessons(c *fiber.Ctx) error {
	course, err := cc.visibleCourse(c)
	if course == nil {
		return err
	}

	var lessons []models.Lesson
	if err := cc.db(c).Where("course_id = ?", course.ID).Order("position asc, id asc").Find(&lessons).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch lessons!", err)
	}

	access, err := cc.hasAccess(c, course)
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch lessons!", err)
	}
	if !access {
		for i := range lessons {
			lessons[i].Content = ""
			lessons[i].VideoURL = ""
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons fetched successfully!", fiber.Map{
		"lessons":    lessons,
		"has_access": access,
	})
}

// CreateLesson appends the lesson unless a position is given.
func (cc *CourseController) CreateLesson(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	reqData := c.Locals("validatedLesson").(*courseValidator.LessonRequest)

	lesson := models.Lesson{
		CourseID: course.ID,
		Title:    reqData.Title,
		Content:  reqData.Content,
		VideoURL: reqData.VideoURL,
	}
	if reqData.Position != nil {
		lesson.Position = *reqData.Position
	} else {
		var maxPos int
		if err := cc.db(c).Model(&models.Lesson{}).Where("course_id = ?", course.ID).Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
			return cc.Resp.ServerError(c, "Failed to create lesson!", err)
		}
		lesson.Position = maxPos + 1
	}

	if err := cc.db(c).Create(&lesson).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to create lesson!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func (cc *CourseController) UpdateLesson(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}
	reqData := c.Locals("validatedLesson").(*courseValidator.UpdateLessonRequest)

	if reqData.Title != nil {
		lesson.Title = *reqData.Title
	}
	if reqData.Content != nil {
		lesson.Content = *reqData.Content
	}
	if reqData.VideoURL != nil {
		lesson.VideoURL = *reqData.VideoURL
	}
	if reqData.Position != nil {
		lesson.Position = *reqData.Position
	}

	if err := cc.db(c).Save(lesson).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to update lesson!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

func (cc *CourseController) DeleteLesson(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}

	err = cc.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("lesson_id = ?", lesson.ID).Delete(&models.Quiz{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(lesson).Error
	})
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to delete lesson!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// ReorderLessons sets positions 1..n following lesson_ids, which must list
// every lesson of the course exactly once.
func (cc *CourseController) ReorderLessons(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	reqData := c.Locals("validatedReorder").(*courseValidator.ReorderLessonsRequest)

	var existing []uint
	if err := cc.db(c).Model(&models.Lesson{}).Where("course_id = ?", course.ID).Pluck("id", &existing).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to reorder lessons!", err)
	}
	if !sameSet(existing, reqData.LessonIDs) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "lesson_ids must list every lesson of the course exactly once!", nil)
	}

	err = cc.db(c).Transaction(func(tx *gorm.DB) error {
		for i, id := range reqData.LessonIDs {
			if err := tx.Model(&models.Lesson{}).Where("id = ?", id).Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to reorder lessons!", err)
	}

	var lessons []models.Lesson
	cc.db(c).Where("course_id = ?", course.ID).Order("position asc").Find(&lessons)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lessons reordered successfully!", lessons)
}

func sameSet(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
