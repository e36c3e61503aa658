package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

// Content length is counted in characters after trimming.
type PostMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func PostMessage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PostMessageRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Content = strings.TrimSpace(reqData.Content)

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedMessage", reqData)
		return c.Next()
	}
}
