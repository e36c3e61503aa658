package superAdminController

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/validators"
	superAdminValidator "coursehub/validators/superAdmin"
)

type AdminController struct {
	DB   *gorm.DB
	Log  *logger.Logger
	Resp *middleware.Responder
}

func NewAdminController(db *gorm.DB, log *logger.Logger, resp *middleware.Responder) *AdminController {
	return &AdminController{DB: db, Log: log.With("component", "admin"), Resp: resp}
}

func (a *AdminController) UserList(c *fiber.Ctx) error {
	if user, _ := middleware.CurrentUser(c); !middleware.Can(user, nil, middleware.CapManageUsers) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}
	p, ok := c.Locals("pagination").(validators.Pagination)
	if !ok {
		p = validators.Pagination{Page: 1, Limit: 20}
	}
	filter, _ := c.Locals("userFilter").(*superAdminValidator.UserListFilter)

	query := a.DB.WithContext(c.UserContext()).Model(&models.User{})
	if filter != nil && filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter != nil && filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return a.Resp.ServerError(c, "Failed to fetch user list!", err)
	}

	var users []models.User
	if err := query.Order("id asc").Offset(p.Offset()).Limit(p.Limit).Find(&users).Error; err != nil {
		return a.Resp.ServerError(c, "Failed to fetch user list!", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User List.", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"total": total,
			"page":  p.Page,
			"limit": p.Limit,
		},
	})
}

// UpdateUserRole changes another user's role. Admins cannot demote themselves.
func (a *AdminController) UpdateUserRole(c *fiber.Ctx) error {
	actor, _ := middleware.CurrentUser(c)
	if !middleware.Can(actor, nil, middleware.CapManageUsers) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}
	reqData := c.Locals("validatedRole").(*superAdminValidator.UpdateRoleRequest)
	targetID, _ := c.Locals("id").(uint)

	if targetID == actor.ID && reqData.Role != models.RoleAdmin {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot remove your own admin role!", nil)
	}

	var target models.User
	if err := a.DB.WithContext(c.UserContext()).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
		}
		return a.Resp.ServerError(c, "Failed to update role!", err)
	}

	if err := a.DB.WithContext(c.UserContext()).Model(&target).Update("role", reqData.Role).Error; err != nil {
		return a.Resp.ServerError(c, "Failed to update role!", err)
	}
	target.Role = reqData.Role
	a.Log.Info("role updated", "user_id", target.ID, "role", reqData.Role, "by", actor.ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Role updated successfully.", target)
}
