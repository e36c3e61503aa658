package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursehub/middleware"
	"coursehub/models"
	courseValidator "coursehub/validators/course"
)

type courseView struct {
	models.Course
	Teacher     *models.PublicProfile `json:"teacher,omitempty"`
	LessonCount int64                 `json:"lesson_count"`
}

func (cc *CourseController) toViews(c *fiber.Ctx, courses []models.Course) []courseView {
	views := make([]courseView, len(courses))
	if len(courses) == 0 {
		return views
	}

	teacherIDs := make([]uint, 0, len(courses))
	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		teacherIDs = append(teacherIDs, course.TeacherID)
		courseIDs = append(courseIDs, course.ID)
	}

	var teachers []models.User
	cc.db(c).Where("id IN ?", teacherIDs).Find(&teachers)
	profiles := make(map[uint]models.PublicProfile, len(teachers))
	for _, t := range teachers {
		profiles[t.ID] = t.Profile()
	}

	var counts []struct {
		CourseID uint
		Total    int64
	}
	cc.db(c).Model(&models.Lesson{}).Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).Group("course_id").Scan(&counts)
	lessonCounts := make(map[uint]int64, len(counts))
	for _, row := range counts {
		lessonCounts[row.CourseID] = row.Total
	}

	for i, course := range courses {
		course.Teacher = nil
		views[i] = courseView{Course: course, LessonCount: lessonCounts[course.ID]}
		if p, ok := profiles[course.TeacherID]; ok {
			p := p
			views[i].Teacher = &p
		}
	}
	return views
}

// ListCourses returns published courses, newest first.
func (cc *CourseController) ListCourses(c *fiber.Ctx) error {
	p := pagination(c)
	search, _ := c.Locals("search").(string)

	query := cc.db(c).Model(&models.Course{}).Where("is_published = ?", true)
	if search != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch courses!", err)
	}

	var courses []models.Course
	if err := query.Order("created_at desc").Offset(p.Offset()).Limit(p.Limit).Find(&courses).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to fetch courses!", err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": cc.toViews(c, courses),
		"pagination": fiber.Map{
			"total": total,
			"page":  p.Page,
			"limit": p.Limit,
		},
	})
}

func (cc *CourseController) GetCourse(c *fiber.Ctx) error {
	course, err := cc.visibleCourse(c)
	if course == nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", cc.toViews(c, []models.Course{*course})[0])
}

// CreateCourse creates the course together with its study group and the
// creator's membership.
func (cc *CourseController) CreateCourse(c *fiber.Ctx) error {
	user := caller(c)
	if !middleware.Can(user, nil, middleware.CapCreateCourse) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only teachers can create courses!", nil)
	}
	reqData := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)

	course := models.Course{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Price:        reqData.Price,
		ThumbnailURL: reqData.ThumbnailURL,
		TeacherID:    user.ID,
	}

	err := cc.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		group := models.StudyGroup{CourseID: course.ID, CreatorID: user.ID, Name: course.Title}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: user.ID}).Error
	})
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to create course!", err)
	}

	cc.Log.Info("course created", "course_id", course.ID, "teacher_id", user.ID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (cc *CourseController) UpdateCourse(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	reqData := c.Locals("validatedCourse").(*courseValidator.UpdateCourseRequest)

	if reqData.Title != nil {
		course.Title = *reqData.Title
	}
	if reqData.Description != nil {
		course.Description = *reqData.Description
	}
	if reqData.Price != nil {
		course.Price = *reqData.Price
	}
	if reqData.ThumbnailURL != nil {
		course.ThumbnailURL = *reqData.ThumbnailURL
	}

	if err := cc.db(c).Save(course).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to update course!", err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

func (cc *CourseController) PublishCourse(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}
	published, _ := c.Locals("published").(bool)

	if err := cc.db(c).Model(course).Update("is_published", published).Error; err != nil {
		return cc.Resp.ServerError(c, "Failed to update course!", err)
	}
	course.IsPublished = published

	message := "Course published successfully!"
	if !published {
		message = "Course unpublished successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// DeleteCourse removes the lessons, quizzes and study group of the course and
// soft-deletes the course row itself, so enrollments and payments keep a valid
// reference as history.
func (cc *CourseController) DeleteCourse(c *fiber.Ctx) error {
	course, err := cc.managedCourse(c, middleware.CapManageCourse)
	if course == nil {
		return err
	}

	err = cc.db(c).Transaction(func(tx *gorm.DB) error {
		var lessonIDs, groupIDs []uint
		if err := tx.Model(&models.Lesson{}).Where("course_id = ?", course.ID).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.StudyGroup{}).Where("course_id = ?", course.ID).Pluck("id", &groupIDs).Error; err != nil {
			return err
		}

		if len(lessonIDs) > 0 {
			if err := tx.Unscoped().Where("lesson_id IN ?", lessonIDs).Delete(&models.Quiz{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("course_id = ?", course.ID).Delete(&models.Lesson{}).Error; err != nil {
				return err
			}
		}
		if len(groupIDs) > 0 {
			if err := tx.Unscoped().Where("group_id IN ?", groupIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("group_id IN ?", groupIDs).Delete(&models.GroupMember{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("course_id = ?", course.ID).Delete(&models.StudyGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
	if err != nil {
		return cc.Resp.ServerError(c, "Failed to delete course!", err)
	}

	cc.Log.Info("course deleted", "course_id", course.ID, "by", caller(c).ID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}
