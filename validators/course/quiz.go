package courseValidator

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
	"coursehub/services/quiz"
	"coursehub/validators"
)

type QuizRequest struct {
	Question      string          `json:"question" validate:"required,max=2000"`
	Options       []string        `json:"options" validate:"required,min=2,dive,required,max=500"`
	CorrectAnswer json.RawMessage `json:"correct_answer" validate:"required"`

	// camelCase spelling, used when correct_answer is absent
	CorrectAnswerAlias json.RawMessage `json:"correctAnswer"`

	// Key is the normalized CorrectAnswer.
	Key quiz.Key `json:"-"`
}

type SubmitQuizRequest struct {
	Answers []json.RawMessage `json:"answers" validate:"required"`

	// Indices is Answers read by quiz.ParseSubmission.
	Indices []int `json:"-"`
}

// UpsertQuiz validates a quiz definition and normalizes its answer key.
func UpsertQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if len(reqData.CorrectAnswer) == 0 {
			reqData.CorrectAnswer = reqData.CorrectAnswerAlias
		}
		reqData.Question = strings.TrimSpace(reqData.Question)
		for i := range reqData.Options {
			reqData.Options[i] = strings.TrimSpace(reqData.Options[i])
		}

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		key, err := quiz.Normalize(reqData.CorrectAnswer)
		if err == nil {
			err = key.CheckRange(len(reqData.Options))
		}
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		reqData.Key = key

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}
		reqData.Indices = quiz.ParseSubmission(reqData.Answers)
		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}
