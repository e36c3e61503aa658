// Package validators holds the helpers shared by the per-area request validators.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// report fields by their json name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates v and returns a field -> message map, or nil when valid.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Invalid email!"
	case "credit_card":
		return "Invalid card number!"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items!", fe.Field(), fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be between the allowed bounds!", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL!", fe.Field())
	}
	return fmt.Sprintf("%s is invalid!", fe.Field())
}

func InvalidBody(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
}

func Failed(c *fiber.Ctx, errs map[string]string) error {
	return middleware.ValidationErrorResponse(c, errs)
}

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// IDParams validates each named route parameter and stores it under
// Locals(name) as uint.
func IDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			id, ok := ParamID(c, name)
			if !ok {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Invalid %s!", name), nil)
			}
			c.Locals(name, id)
		}
		return c.Next()
	}
}

// Pagination is read from ?page=&limit=.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// Paginate validates page/limit query params and stores Locals("pagination").
func Paginate(defaultLimit, maxLimit int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := Pagination{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", defaultLimit)}
		errs := make(map[string]string)
		if p.Page < 1 {
			errs["page"] = "Page must be a positive number!"
		}
		if p.Limit < 1 || p.Limit > maxLimit {
			errs["limit"] = fmt.Sprintf("Limit must be between 1 and %d!", maxLimit)
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals("pagination", p)
		return c.Next()
	}
}
