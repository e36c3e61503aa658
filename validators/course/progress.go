package courseValidator

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

type UpdateProgressRequest struct {
	Progress *float64 `json:"progress" validate:"required,gte=0,lte=100"`
}

func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProgressRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}
		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}
