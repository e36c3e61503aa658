package superAdminValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/validators"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
}

// UserListFilter narrows GET /admin/users.
type UserListFilter struct {
	Role   string `json:"role" validate:"omitempty,oneof=ADMIN TEACHER STUDENT"`
	Search string `json:"search" validate:"max=100"`
}

func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := &UserListFilter{
			Role:   strings.ToUpper(strings.TrimSpace(c.Query("role"))),
			Search: strings.TrimSpace(c.Query("search")),
		}
		if errs := validators.Struct(filter); errs != nil {
			return validators.Failed(c, errs)
		}
		c.Locals("userFilter", filter)
		return c.Next()
	}
}

func UpdateRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateRoleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}
		c.Locals("validatedRole", reqData)
		return c.Next()
	}
}
