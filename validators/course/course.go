package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

// ============ Course Validators ============

type CreateCourseRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Price        int64  `json:"price" validate:"gte=0"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url"`
}

// UpdateCourseRequest only touches the fields that are present.
type UpdateCourseRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=5000"`
	Price        *int64  `json:"price" validate:"omitempty,gte=0"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url"`
}

type PublishRequest struct {
	Published *bool `json:"published"`
}

// CreateCourse validates course creation request
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.Description = strings.TrimSpace(reqData.Description)
		reqData.ThumbnailURL = strings.TrimSpace(reqData.ThumbnailURL)

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates course update request
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		trimPtr(reqData.Title)
		trimPtr(reqData.Description)
		trimPtr(reqData.ThumbnailURL)

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// Publish accepts an optional {"published": bool}; an empty body publishes.
func Publish() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PublishRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return validators.InvalidBody(c)
			}
		}
		published := true
		if reqData.Published != nil {
			published = *reqData.Published
		}
		c.Locals("published", published)
		return c.Next()
	}
}

// CourseList validates ?search= on the catalog listing.
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		search := strings.TrimSpace(c.Query("search"))
		if len(search) > 100 {
			return validators.Failed(c, map[string]string{"search": "Search must be at most 100 characters long!"})
		}
		c.Locals("search", search)
		return c.Next()
	}
}

// ============ Lesson Validators ============

type LessonRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Position *int   `json:"position" validate:"omitempty,gte=0"`
}

type UpdateLessonRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string `json:"content"`
	VideoURL *string `json:"video_url" validate:"omitempty,url"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
}

type ReorderLessonsRequest struct {
	LessonIDs []uint `json:"lesson_ids" validate:"required,min=1,unique,dive,gt=0"`
}

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Title = strings.TrimSpace(reqData.Title)
		reqData.VideoURL = strings.TrimSpace(reqData.VideoURL)

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateLessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		trimPtr(reqData.Title)
		trimPtr(reqData.VideoURL)

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

func ReorderLessons() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReorderLessonsRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}
		c.Locals("validatedReorder", reqData)
		return c.Next()
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
