package middleware

import (
	"github.com/gofiber/fiber/v2"

	"coursehub/logger"
)

// Responder writes 500 envelopes. The error is always logged; its text is
// only returned to the client outside production.
type Responder struct {
	log          *logger.Logger
	exposeErrors bool
}

func NewResponder(log *logger.Logger, production bool) *Responder {
	if log == nil {
		log = logger.Nop()
	}
	return &Responder{log: log, exposeErrors: !production}
}

func (r *Responder) ServerError(c *fiber.Ctx, message string, err error) error {
	r.log.Error(message,
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	var data interface{}
	if r.exposeErrors && err != nil {
		data = fiber.Map{"error": err.Error()}
	}
	return JsonResponse(c, fiber.StatusInternalServerError, false, message, data)
}

// ErrorHandler is installed as fiber's error handler for errors that escape handlers.
func (r *Responder) ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return JsonResponse(c, fe.Code, false, fe.Message, nil)
	}
	return r.ServerError(c, "Internal server error!", err)
}
