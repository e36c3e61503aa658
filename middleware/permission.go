package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/models"
)

// Capability is an action checked by Can.
type Capability string

const (
	CapCreateCourse  Capability = "course:create"
	CapManageCourse  Capability = "course:manage"
	CapAuthorQuiz    Capability = "quiz:author"
	CapPreviewQuiz   Capability = "quiz:preview"
	CapTrackProgress Capability = "progress:track"
	CapManageUsers   Capability = "users:manage"
	CapViewStats     Capability = "stats:view"
)

// StudentRef names the student whose records are being touched.
type StudentRef uint

// Can is the single authorization predicate. resource is a models.Course
// (or *models.Course) for course-scoped capabilities and a StudentRef for
// progress.
func Can(actor *models.User, resource interface{}, capability Capability) bool {
	if actor == nil || actor.IsBlocked {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}

	switch capability {
	case CapCreateCourse:
		return actor.Role == models.RoleTeacher
	case CapManageCourse, CapAuthorQuiz, CapPreviewQuiz:
		course := asCourse(resource)
		return course != nil && actor.Role == models.RoleTeacher && course.TeacherID == actor.ID
	case CapTrackProgress:
		ref, ok := resource.(StudentRef)
		return ok && uint(ref) == actor.ID
	}
	return false
}

func asCourse(resource interface{}) *models.Course {
	switch r := resource.(type) {
	case models.Course:
		return &r
	case *models.Course:
		return r
	}
	return nil
}

// LoadUser resolves the JWT subject to a user row and stores it under
// Locals("currentUser"). Must run after the JWT middleware.
func LoadUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		err := db.WithContext(c.UserContext()).First(&user, userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while loading user!", nil)
		}
		if user.IsBlocked {
			return JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
		}

		c.Locals("currentUser", &user)
		return c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. Must run after LoadUser.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
}

func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("currentUser").(*models.User)
	return user, ok && user != nil
}

// Guard is a handler chain run before protected routes.
type Guard []fiber.Handler

// NewGuard authenticates the bearer token and loads the caller.
func NewGuard(secret string, db *gorm.DB) Guard {
	return Guard{NewJWTMiddleware(secret), LoadUser(db)}
}

// Then returns the guard followed by handlers.
func (g Guard) Then(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(g)+len(handlers))
	out = append(out, g...)
	return append(out, handlers...)
}
