package authController

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	authValidator "coursehub/validators/auth"
)

type AuthController struct {
	DB        *gorm.DB
	JWTSecret string
	SaltRound int
	Log       *logger.Logger
	Resp      *middleware.Responder
}

func NewAuthController(db *gorm.DB, jwtSecret string, saltRound int, log *logger.Logger, resp *middleware.Responder) *AuthController {
	if saltRound < bcrypt.MinCost {
		saltRound = bcrypt.DefaultCost
	}
	return &AuthController{DB: db, JWTSecret: jwtSecret, SaltRound: saltRound, Log: log.With("component", "auth"), Resp: resp}
}

// Signup registers a STUDENT account.
func (a *AuthController) Signup(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*authValidator.SignupRequest)
	db := a.DB.WithContext(c.UserContext())

	// Check if email already exists
	err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return a.Resp.ServerError(c, "Failed to Signup user!", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), a.SaltRound)
	if err != nil {
		return a.Resp.ServerError(c, "Failed to process your request!", err)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
		Role:     models.RoleStudent,
	}
	if err := db.Create(&newUser).Error; err != nil {
		return a.Resp.ServerError(c, "Failed to Signup user!", err)
	}

	a.Log.Info("user signed up", "user_id", newUser.ID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	db := a.DB.WithContext(c.UserContext())

	var user models.User
	if err := db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
		}
		return a.Resp.ServerError(c, "Failed to login!", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	if user.IsBlocked {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
	}

	// Update last login time
	now := time.Now()
	user.LastLogin = &now
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		a.Log.Warn("saving last login time", "user_id", user.ID, "error", err)
	}

	token, err := middleware.GenerateJWT(a.JWTSecret, user)
	if err != nil {
		return a.Resp.ServerError(c, "Failed to generate token", err)
	}

	a.Log.Info("user logged in", "user_id", user.ID, "ip", c.IP())
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Me returns the authenticated user.
func (a *AuthController) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully.", user)
}
