package userValidator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
	"coursehub/utils"
	"coursehub/validators"
)

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=100"`
	Bio  *string `json:"bio" validate:"omitempty,max=1000"`
}

func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProfileRequest)
		if err := c.BodyParser(reqData); err != nil {
			return validators.InvalidBody(c)
		}
		if reqData.Name != nil {
			name := strings.TrimSpace(*reqData.Name)
			reqData.Name = &name
		}
		if reqData.Bio != nil {
			bio := strings.TrimSpace(*reqData.Bio)
			reqData.Bio = &bio
		}
		if reqData.Name == nil && reqData.Bio == nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
		}

		if errs := validators.Struct(reqData); errs != nil {
			return validators.Failed(c, errs)
		}

		c.Locals("validatedProfile", reqData)
		return c.Next()
	}
}

// UploadPicture requires a multipart "picture" field within the size limit.
func UploadPicture() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("picture")
		if err != nil {
			return validators.Failed(c, map[string]string{"picture": "picture file is required"})
		}
		if file.Size > utils.MaxPictureSize {
			return validators.Failed(c, map[string]string{"picture": utils.ErrPictureTooLarge.Error()})
		}
		c.Locals("picture", file)
		return c.Next()
	}
}
