package routers

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/models"
	"coursehub/testutil"
)

func (h *harness) countAll(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Unscoped().Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestCreateCourseOpensStudyGroup(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)

	status, _ := h.do(t, "POST", "/courses", &student, fiber.Map{"title": "Go Basics"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := h.do(t, "POST", "/courses", &teacher, fiber.Map{"title": "  Go Basics  ", "price": 99000})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	var created struct {
		ID          uint   `json:"ID"`
		Title       string `json:"title"`
		TeacherID   uint   `json:"teacher_id"`
		IsPublished bool   `json:"is_published"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Go Basics", created.Title)
	assert.Equal(t, teacher.ID, created.TeacherID)
	assert.False(t, created.IsPublished, "new courses start as drafts")

	var group models.StudyGroup
	require.NoError(t, h.db.Where("course_id = ?", created.ID).First(&group).Error)
	assert.Equal(t, teacher.ID, group.CreatorID)
	assert.Equal(t, "Go Basics", group.Name)
	assert.EqualValues(t, 1, h.count(t, &models.GroupMember{}, "group_id = ? AND user_id = ?", group.ID, teacher.ID))

	status, _ = h.do(t, "POST", "/courses", &teacher, fiber.Map{"title": "Go", "price": -1})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestDeleteCourseKeepsPaymentHistory(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	other := testutil.CreateUser(t, h.db, "Otto Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)
	lesson := testutil.CreateLesson(t, h.db, course, 1)
	testutil.CreateLesson(t, h.db, course, 2)
	coursePath := fmt.Sprintf("/courses/%d", course.ID)

	var group models.StudyGroup
	require.NoError(t, h.db.Where("course_id = ?", course.ID).First(&group).Error)

	status, env := h.do(t, "POST", fmt.Sprintf("%s/lessons/%d/quiz", coursePath, lesson.ID), &teacher,
		fiber.Map{"question": "Pick", "options": []string{"a", "b"}, "correct_answer": 1})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	status, env = h.do(t, "POST", coursePath+"/enroll", &student, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	status, env = h.do(t, "POST", coursePath+"/study-group/message", &student, fiber.Map{"content": "hi"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = h.do(t, "DELETE", coursePath, &other, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = h.do(t, "DELETE", coursePath, &teacher, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	status, _ = h.do(t, "GET", coursePath, &teacher, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = h.do(t, "DELETE", coursePath, &teacher, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	assert.Zero(t, h.countAll(t, &models.Lesson{}, "course_id = ?", course.ID))
	assert.Zero(t, h.countAll(t, &models.Quiz{}, "lesson_id = ?", lesson.ID))
	assert.Zero(t, h.countAll(t, &models.StudyGroup{}, "course_id = ?", course.ID))
	assert.Zero(t, h.countAll(t, &models.GroupMember{}, "group_id = ?", group.ID))
	assert.Zero(t, h.countAll(t, &models.Message{}, "group_id = ?", group.ID))

	// the course row stays behind for the enrollment and payment referencing it
	assert.EqualValues(t, 1, h.countAll(t, &models.Course{}, "id = ? AND deleted_at IS NOT NULL", course.ID))
	assert.EqualValues(t, 1, h.count(t, &models.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
	assert.EqualValues(t, 1, h.count(t, &models.Payment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))

	status, env = h.do(t, "GET", "/student/dashboard", &student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var dash struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Zero(t, dash.Total)
}

func TestReorderLessons(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	other := testutil.CreateUser(t, h.db, "Otto Teacher", models.RoleTeacher)
	course := testutil.CreateCourse(t, h.db, teacher, 0)
	l1 := testutil.CreateLesson(t, h.db, course, 1)
	l2 := testutil.CreateLesson(t, h.db, course, 2)
	l3 := testutil.CreateLesson(t, h.db, course, 3)
	path := fmt.Sprintf("/courses/%d/lessons/reorder", course.ID)

	status, _ := h.do(t, "PUT", path, &other, fiber.Map{"lesson_ids": []uint{l3.ID, l1.ID, l2.ID}})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do(t, "PUT", path, &teacher, fiber.Map{"lesson_ids": []uint{l3.ID, l1.ID}})
	assert.Equal(t, fiber.StatusBadRequest, status, "every lesson must be listed")
	status, _ = h.do(t, "PUT", path, &teacher, fiber.Map{"lesson_ids": []uint{l3.ID, l1.ID, 9999}})
	assert.Equal(t, fiber.StatusBadRequest, status, "foreign lessons are rejected")
	status, _ = h.do(t, "PUT", path, &teacher, fiber.Map{"lesson_ids": []uint{l3.ID, l3.ID, l1.ID}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env := h.do(t, "PUT", path, &teacher, fiber.Map{"lesson_ids": []uint{l3.ID, l1.ID, l2.ID}})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	var lessons []struct {
		ID       uint `json:"ID"`
		Position int  `json:"position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &lessons))
	require.Len(t, lessons, 3)
	assert.Equal(t, []uint{l3.ID, l1.ID, l2.ID}, []uint{lessons[0].ID, lessons[1].ID, lessons[2].ID})
	for i, l := range lessons {
		assert.Equal(t, i+1, l.Position)
	}
}

func TestTeacherAndStudentDashboards(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	paidCourse := testutil.CreateCourse(t, h.db, teacher, 150000)
	testutil.CreateCourse(t, h.db, teacher, 50000)
	l1 := testutil.CreateLesson(t, h.db, paidCourse, 1)
	testutil.CreateLesson(t, h.db, paidCourse, 2)

	status, _ := h.do(t, "GET", "/teacher/dashboard", &student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", paidCourse.ID), &student, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	require.NoError(t, h.db.Create(&models.Progress{UserID: student.ID, LessonID: l1.ID, IsCompleted: true}).Error)

	status, env = h.do(t, "GET", "/teacher/dashboard", &teacher, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var teacherDash struct {
		Courses []struct {
			CourseID uint  `json:"course_id"`
			Students int64 `json:"students"`
			Revenue  int64 `json:"revenue"`
		} `json:"courses"`
		TotalStudents int64 `json:"total_students"`
		TotalRevenue  int64 `json:"total_revenue"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &teacherDash))
	require.Len(t, teacherDash.Courses, 2)
	assert.EqualValues(t, 1, teacherDash.TotalStudents)
	assert.EqualValues(t, 150000, teacherDash.TotalRevenue)
	for _, c := range teacherDash.Courses {
		if c.CourseID == paidCourse.ID {
			assert.EqualValues(t, 1, c.Students)
			assert.EqualValues(t, 150000, c.Revenue)
		} else {
			assert.Zero(t, c.Students)
			assert.Zero(t, c.Revenue)
		}
	}

	status, env = h.do(t, "GET", "/student/dashboard", &student, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var studentDash struct {
		Enrollments []struct {
			CourseID         uint       `json:"course_id"`
			PaidAt           *time.Time `json:"paid_at"`
			TotalLessons     int64      `json:"total_lessons"`
			CompletedLessons int64      `json:"completed_lessons"`
		} `json:"enrollments"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &studentDash))
	require.Equal(t, 1, studentDash.Total)
	e := studentDash.Enrollments[0]
	assert.Equal(t, paidCourse.ID, e.CourseID)
	assert.NotNil(t, e.PaidAt)
	assert.EqualValues(t, 2, e.TotalLessons)
	assert.EqualValues(t, 1, e.CompletedLessons)
}

func TestAdminDashboardRevenueWindow(t *testing.T) {
	h := newHarness(t)
	admin := testutil.CreateUser(t, h.db, "Ada Admin", models.RoleAdmin)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	alice := testutil.CreateUser(t, h.db, "Alice Student", models.RoleStudent)
	bob := testutil.CreateUser(t, h.db, "Bob Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)
	cheap := testutil.CreateCourse(t, h.db, teacher, 20000)

	status, env := h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), &alice, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	status, env = h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", cheap.ID), &bob, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	// alice paid well before the current month started
	lastMonth := time.Now().AddDate(0, 0, -40)
	require.NoError(t, h.db.Model(&models.Payment{}).Where("user_id = ?", alice.ID).UpdateColumn("created_at", lastMonth).Error)

	status, _ = h.do(t, "GET", "/admin/dashboard/stats", &teacher, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = h.do(t, "GET", "/admin/dashboard/stats", &admin, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var stats struct {
		Users struct {
			Total  int64            `json:"total"`
			ByRole map[string]int64 `json:"by_role"`
		} `json:"users"`
		Courses struct {
			Total     int64 `json:"total"`
			Published int64 `json:"published"`
		} `json:"courses"`
		Enrollments struct {
			Paid    int64 `json:"paid"`
			Pending int64 `json:"pending"`
		} `json:"enrollments"`
		Revenue struct {
			Total     int64 `json:"total"`
			ThisMonth int64 `json:"this_month"`
		} `json:"revenue"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 4, stats.Users.Total)
	assert.EqualValues(t, 2, stats.Users.ByRole[models.RoleStudent])
	assert.EqualValues(t, 2, stats.Courses.Total)
	assert.EqualValues(t, 2, stats.Enrollments.Paid)
	assert.EqualValues(t, 170000, stats.Revenue.Total)
	assert.EqualValues(t, 20000, stats.Revenue.ThisMonth)
}
