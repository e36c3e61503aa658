package userProfileController

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/utils"
	userValidator "coursehub/validators/userValidator"
)

// ProfileController lets users edit what others see of them in study groups
// and course listings.
type ProfileController struct {
	DB        *gorm.DB
	UploadDir string
	Log       *logger.Logger
	Resp      *middleware.Responder
}

func NewProfileController(db *gorm.DB, uploadDir string, log *logger.Logger, resp *middleware.Responder) *ProfileController {
	return &ProfileController{DB: db, UploadDir: uploadDir, Log: log.With("component", "profile"), Resp: resp}
}

type profileView struct {
	models.PublicProfile
	Bio  string `json:"bio"`
	Role string `json:"role"`
}

func toProfileView(u models.User) profileView {
	return profileView{PublicProfile: u.Profile(), Bio: u.Bio, Role: u.Role}
}

// GetProfile returns the public profile of :id.
func (p *ProfileController) GetProfile(c *fiber.Ctx) error {
	id, _ := c.Locals("id").(uint)

	var user models.User
	if err := p.DB.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return p.Resp.ServerError(c, "Failed to fetch profile!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", toProfileView(user))
}

func (p *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	reqData := c.Locals("validatedProfile").(*userValidator.UpdateProfileRequest)

	updates := map[string]interface{}{}
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Bio != nil {
		updates["bio"] = *reqData.Bio
	}
	if err := p.DB.WithContext(c.UserContext()).Model(user).Updates(updates).Error; err != nil {
		return p.Resp.ServerError(c, "Failed to update profile!", err)
	}
	if reqData.Name != nil {
		user.Name = *reqData.Name
	}
	if reqData.Bio != nil {
		user.Bio = *reqData.Bio
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile updated successfully!", toProfileView(*user))
}

// UploadPicture replaces the caller's picture and removes the previous upload.
func (p *ProfileController) UploadPicture(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	file := c.Locals("picture").(*multipart.FileHeader)

	name, err := utils.SavePicture(file, p.UploadDir)
	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedPicture) || errors.Is(err, utils.ErrPictureTooLarge) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		return p.Resp.ServerError(c, "Failed to save picture!", err)
	}

	previous, url := user.Picture, utils.GetFileURL(name)
	if err := p.DB.WithContext(c.UserContext()).Model(user).Update("picture", url).Error; err != nil {
		return p.Resp.ServerError(c, "Failed to update picture!", err)
	}
	user.Picture = url
	if err := utils.RemoveUpload(p.UploadDir, previous); err != nil {
		p.Log.Warn("removing previous picture", "user_id", user.ID, "error", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Picture updated successfully!", toProfileView(*user))
}
