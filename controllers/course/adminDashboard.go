package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"

	"coursehub/middleware"
	"coursehub/models"
)

// AdminDashboardStats returns platform-wide counters and revenue.
func (cc *CourseController) AdminDashboardStats(c *fiber.Ctx) error {
	if !middleware.Can(caller(c), nil, middleware.CapViewStats) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied! Admin only.", nil)
	}
	db := cc.db(c)

	var roleCounts []struct {
		Role  string
		Total int64
	}
	if err := db.Model(&models.User{}).Select("role, COUNT(*) AS total").Group("role").Scan(&roleCounts).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch dashboard stats!", err)
	}
	users := fiber.Map{models.RoleAdmin: int64(0), models.RoleTeacher: int64(0), models.RoleStudent: int64(0)}
	var totalUsers int64
	for _, rc := range roleCounts {
		users[rc.Role] = rc.Total
		totalUsers += rc.Total
	}

	var totalCourses, publishedCourses, paidEnrollments, pendingEnrollments int64
	db.Model(&models.Course{}).Count(&totalCourses)
	db.Model(&models.Course{}).Where("is_published = ?", true).Count(&publishedCourses)
	db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentPaid).Count(&paidEnrollments)
	db.Model(&models.Enrollment{}).Where("status = ?", models.EnrollmentPending).Count(&pendingEnrollments)

	var totalRevenue, monthRevenue int64
	if err := db.Model(&models.Payment{}).Select("COALESCE(SUM(amount), 0)").Scan(&totalRevenue).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch dashboard stats!", err)
	}
	month := now.With(cc.Now())
	if err := db.Model(&models.Payment{}).
		Where("created_at BETWEEN ? AND ?", month.BeginningOfMonth(), month.EndOfMonth()).
		Select("COALESCE(SUM(amount), 0)").Scan(&monthRevenue).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch dashboard stats!", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"users": fiber.Map{
			"total":   totalUsers,
			"by_role": users,
		},
		"courses": fiber.Map{
			"total":     totalCourses,
			"published": publishedCourses,
		},
		"enrollments": fiber.Map{
			"paid":    paidEnrollments,
			"pending": pendingEnrollments,
		},
		"revenue": fiber.Map{
			"total":      totalRevenue,
			"this_month": monthRevenue,
		},
	})
}

// TeacherDashboard lists the caller's courses with paid enrollments and revenue.
func (cc *CourseController) TeacherDashboard(c *fiber.Ctx) error {
	user := caller(c)
	db := cc.db(c)

	var courses []models.Course
	if err := db.Where("teacher_id = ?", user.ID).Order("created_at desc").Find(&courses).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch dashboard!", err)
	}

	type courseStats struct {
		CourseID    uint   `json:"course_id"`
		Title       string `json:"title"`
		IsPublished bool   `json:"is_published"`
		Price       int64  `json:"price"`
		Students    int64  `json:"students"`
		Revenue     int64  `json:"revenue"`
	}

	stats := make([]courseStats, 0, len(courses))
	var totalStudents, totalRevenue int64
	for _, course := range courses {
		s := courseStats{CourseID: course.ID, Title: course.Title, IsPublished: course.IsPublished, Price: course.Price}
		db.Model(&models.Enrollment{}).Where("course_id = ? AND status = ?", course.ID, models.EnrollmentPaid).Count(&s.Students)
		db.Model(&models.Payment{}).Where("course_id = ?", course.ID).Select("COALESCE(SUM(amount), 0)").Scan(&s.Revenue)
		totalStudents += s.Students
		totalRevenue += s.Revenue
		stats = append(stats, s)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", fiber.Map{
		"courses":        stats,
		"total_students": totalStudents,
		"total_revenue":  totalRevenue,
	})
}

// StudentDashboard lists the caller's paid enrollments with lesson completion.
func (cc *CourseController) StudentDashboard(c *fiber.Ctx) error {
	user := caller(c)
	db := cc.db(c)

	var enrollments []models.Enrollment
	if err := db.Where("user_id = ? AND status = ?", user.ID, models.EnrollmentPaid).
		Preload("Course").Order("paid_at desc").Find(&enrollments).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch dashboard!", err)
	}

	type enrolledCourse struct {
		CourseID         uint       `json:"course_id"`
		Title            string     `json:"title"`
		ThumbnailURL     string     `json:"thumbnail_url"`
		PaidAt           *time.Time `json:"paid_at"`
		TotalLessons     int64      `json:"total_lessons"`
		CompletedLessons int64      `json:"completed_lessons"`
	}

	items := make([]enrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course == nil {
			continue
		}
		item := enrolledCourse{CourseID: e.CourseID, Title: e.Course.Title, ThumbnailURL: e.Course.ThumbnailURL, PaidAt: e.PaidAt}
		lessonIDs := db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", e.CourseID)
		db.Model(&models.Lesson{}).Where("course_id = ?", e.CourseID).Count(&item.TotalLessons)
		db.Model(&models.Progress{}).
			Where("user_id = ? AND is_completed = ? AND lesson_id IN (?)", user.ID, true, lessonIDs).
			Count(&item.CompletedLessons)
		items = append(items, item)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", fiber.Map{
		"enrollments": items,
		"total":       len(items),
	})
}
