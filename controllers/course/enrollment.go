package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/enrollment"
	"coursehub/services/payment"
)

// publishedCourse loads a course open for enrollment.
func (cc *CourseController) publishedCourse(c *fiber.Ctx) (*models.Course, error) {
	course, err := cc.findCourse(c, paramID(c, "id"))
	if err != nil {
		return nil, cc.lookupError(c, err, "Course not found or not published!")
	}
	if !course.IsPublished {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}
	return course, nil
}

// EnrollInCourse is the simulated payment path: the card is only validated
// and the enrollment settles at the course price.
func (cc *CourseController) EnrollInCourse(c *fiber.Ctx) error {
	user := caller(c)
	course, err := cc.publishedCourse(c)
	if course == nil {
		return err
	}

	res, err := enrollment.Settle(c.UserContext(), cc.DB, user.ID, course.ID, enrollment.Charge{})
	if err != nil {
		switch {
		case errors.Is(err, enrollment.ErrCourseNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		case errors.Is(err, enrollment.ErrUserNotFound):
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}
		return cc.Resp.ServerError(c, "Failed to enroll in course!", err)
	}

	cc.Log.Info("enrollment settled", "user_id", user.ID, "course_id", course.ID, "outcome", res.Outcome.String())
	cc.notifyEnrollment(res, *user)

	status, message := fiber.StatusOK, "Already enrolled in this course!"
	switch res.Outcome {
	case enrollment.Created:
		status, message = fiber.StatusCreated, "Enrolled in course successfully!"
	case enrollment.Upgraded:
		message = "Enrolled in course successfully!"
	}
	return middleware.JsonResponse(c, status, true, message, fiber.Map{
		"enrollment": res.Enrollment,
		"payment":    res.Payment,
		"outcome":    res.Outcome.String(),
	})
}

// EnrollmentStatus reports whether the caller has paid for the course.
func (cc *CourseController) EnrollmentStatus(c *fiber.Ctx) error {
	course, err := cc.visibleCourse(c)
	if course == nil {
		return err
	}
	paid, err := enrollment.IsPaid(c.UserContext(), cc.DB, caller(c).ID, course.ID)
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch enrollment!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment status fetched successfully!", fiber.Map{"paid": paid})
}

// Checkout opens a Midtrans Snap transaction and leaves a pending enrollment
// that the webhook or the reconciler settles.
func (cc *CourseController) Checkout(c *fiber.Ctx) error {
	if cc.Gateway == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payment gateway is not configured!", nil)
	}
	user := caller(c)
	course, err := cc.publishedCourse(c)
	if course == nil {
		return err
	}
	if course.Price <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This course is free, enroll directly!", nil)
	}

	paid, err := enrollment.IsPaid(c.UserContext(), cc.DB, user.ID, course.ID)
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to start checkout!", err)
	}
	if paid {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
	}

	orderID := payment.NewOrderID(user.ID, course.ID)
	intent, err := cc.Gateway.CreateIntent(payment.IntentRequest{
		OrderID:       orderID,
		Amount:        course.Price,
		UserID:        user.ID,
		CourseID:      course.ID,
		CourseTitle:   course.Title,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
	})
	if err != nil {
		cc.Log.Error("creating payment intent", "order_id", orderID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment provider is unavailable, try again later!", nil)
	}

	if _, err := enrollment.Reserve(c.UserContext(), cc.DB, user.ID, course.ID, orderID); err != nil {
		if errors.Is(err, enrollment.ErrAlreadyPaid) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", nil)
		}
		return cc.Resp.ServerError(c, "Failed to start checkout!", err)
	}

	cc.Log.Info("checkout started", "user_id", user.ID, "course_id", course.ID, "order_id", orderID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout created successfully!", intent)
}
