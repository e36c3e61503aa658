package authValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SignupRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}
