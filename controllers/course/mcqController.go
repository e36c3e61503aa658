package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/progress"
	"coursehub/services/quiz"
	courseValidator "coursehub/validators/course"
)

func (cc *CourseController) findQuiz(c *fiber.Ctx, lessonID uint) (*models.Quiz, error) {
	var q models.Quiz
	if err := cc.db(c).Where("lesson_id = ?", lessonID).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func applyQuizRequest(q *models.Quiz, reqData *courseValidator.QuizRequest) error {
	options, err := json.Marshal(reqData.Options)
	if err != nil {
		return err
	}
	q.Question = reqData.Question
	q.Options = datatypes.JSON(options)
	return reqData.Key.Apply(q)
}

func (cc *CourseController) CreateQuiz(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapAuthorQuiz)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}
	reqData := c.Locals("validatedQuiz").(*courseValidator.QuizRequest)

	if _, err := cc.findQuiz(c, lesson.ID); err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "This lesson already has a quiz!", nil)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return cc.Resp.ServerError(c, "Failed to create quiz!", err)
	}

	q := models.Quiz{LessonID: lesson.ID}
	if err := applyQuizRequest(&q, reqData); err != nil {
		return cc.Resp.ServerError(c, "Failed to create quiz!", err)
	}
	if err := cc.db(c).Create(&q).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to create quiz!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", q)
}

func (cc *CourseController) UpdateQuiz(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapAuthorQuiz)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}
	reqData := c.Locals("validatedQuiz").(*courseValidator.QuizRequest)

	q, err := cc.findQuiz(c, lesson.ID)
	if err != nil {
		return cc.lookupError(c, err, "Quiz not found!")
	}
	if err := applyQuizRequest(q, reqData); err != nil {
		return cc.Resp.ServerError(c, "Failed to update quiz!", err)
	}
	if err := cc.db(c).Save(q).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to update quiz!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz updated successfully!", q)
}

func (cc *CourseController) DeleteQuiz(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapAuthorQuiz)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}

	q, err := cc.findQuiz(c, lesson.ID)
	if err != nil {
		return cc.lookupError(c, err, "Quiz not found!")
	}
	if err := cc.db(c).Unscoped().Delete(q).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to delete quiz!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz deleted successfully!", nil)
}

// GetQuiz returns the quiz; the answer key is only included for the owner and admins.
func (cc *CourseController) GetQuiz(c *fiber.Ctx) error {
	course, err := cc.visibleCourse(c)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}

	access, err := cc.hasAccess(c, course)
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch quiz!", err)
	}
	if !access {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enroll in this course to take the quiz!", nil)
	}

	q, err := cc.findQuiz(c, lesson.ID)
	if err != nil {
		return cc.lookupError(c, err, "Quiz not found!")
	}
	if !middleware.Can(caller(c), course, middleware.CapPreviewQuiz) {
		stripped := q.WithoutAnswer()
		q = &stripped
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", q)
}

// SubmitQuiz grades the answers. Students need a paid enrollment and get the
// score recorded on their progress; owners and admins may preview.
func (cc *CourseController) SubmitQuiz(c *fiber.Ctx) error {
	user := caller(c)
	course, err := cc.visibleCourse(c)
	if course == nil {
		return err
	}
	lesson, err := cc.findLesson(c, course.ID)
	if lesson == nil {
		return err
	}
	reqData := c.Locals("validatedSubmission").(*courseValidator.SubmitQuizRequest)

	preview := middleware.Can(user, course, middleware.CapPreviewQuiz)
	if !preview {
		access, err := cc.hasAccess(c, course)
		if err != nil {
			return cc.Resp.ServerError(c, "Failed to grade quiz!", err)
		}
		if !access {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Enroll in this course to take the quiz!", nil)
		}
	}

	q, err := cc.findQuiz(c, lesson.ID)
	if err != nil {
		return cc.lookupError(c, err, "Quiz not found!")
	}
	key, err := quiz.Decode(*q)
	if err != nil {
		return cc.Resp.ServerError(c, quiz.ErrCorruptAnswerKey.Error(), err)
	}

	result := quiz.Grade(key, reqData.Indices)

	if !preview {
		if err := progress.RecordQuizScore(c.UserContext(), cc.DB, user.ID, lesson.ID, result.Score, result.Total, cc.Now()); err != nil {
			cc.Log.Warn("recording quiz score", "user_id", user.ID, "lesson_id", lesson.ID, "error", err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz graded successfully!", result)
}
