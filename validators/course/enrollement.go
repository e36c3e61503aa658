package courseValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

// MockEnrollRequest carries the card used by the simulated payment path.
type MockEnrollRequest struct {
	CardNumber string `json:"card_number" validate:"required,credit_card"`

	// camelCase spelling, used when card_number is absent
	CardNumberAlias string `json:"cardNumber"`
}

func EnrollCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MockEnrollRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if reqData.CardNumber == "" {
			reqData.CardNumber = reqData.CardNumberAlias
		}
		reqData.CardNumber = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(reqData.CardNumber))

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedEnroll", reqData)
		return c.Next()
	}
}
