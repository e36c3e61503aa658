package routers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"coursehub/config"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/services/payment"
	"coursehub/testutil"
)

const (
	testSecret    = "router-test-secret"
	testServerKey = "SB-Mid-server-test"
	testCard      = "4111 1111 1111 1111"
)

type harness struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *testutil.FakeGateway
	mailer  *testutil.FakeMailer

	uploadDir string
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		db:      testutil.PrepareDB(t),
		gateway: testutil.NewFakeGateway(testServerKey),
		mailer:  testutil.NewFakeMailer(),

		uploadDir: t.TempDir(),
	}
	deps := Deps{
		Config:  &config.Config{AppEnv: "test", JWTKey: testSecret, SaltRound: 4, UploadDir: h.uploadDir},
		DB:      h.db,
		Log:     logger.Nop(),
		Gateway: h.gateway,
		Mailer:  h.mailer,
	}
	h.app = NewApp(deps)
	Setup(h.app, deps)
	return h
}

func (h *harness) do(t *testing.T, method, path string, as *models.User, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := middleware.GenerateJWT(testSecret, *as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (h *harness) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestEnrollIsIdempotent(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)
	path := fmt.Sprintf("/courses/%d/enroll", course.ID)

	status, env := h.do(t, "POST", path, &student, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	select {
	case mail := <-h.mailer.Sent:
		assert.Equal(t, student.Email, mail.To)
	case <-time.After(2 * time.Second):
		t.Fatal("enrollment email was not sent")
	}

	status, env = h.do(t, "POST", path, &student, fiber.Map{"card_number": testCard})
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Status)

	assert.EqualValues(t, 1, h.count(t, &models.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
	assert.EqualValues(t, 1, h.count(t, &models.Payment{}, "user_id = ? AND course_id = ?", student.ID, course.ID))
	assert.EqualValues(t, 1, h.count(t, &models.GroupMember{}, "user_id = ?", student.ID))

	status, env = h.do(t, "GET", path, &student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"paid":true}`, string(env.Data))
}

func TestEnrollRejectsBadCard(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)

	status, _ := h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), &student, fiber.Map{"card_number": "1234"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), nil, fiber.Map{"card_number": testCard})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestQuizLifecycle(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	other := testutil.CreateUser(t, h.db, "Otto Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 0)
	lesson := testutil.CreateLesson(t, h.db, course, 1)
	quizPath := fmt.Sprintf("/courses/%d/lessons/%d/quiz", course.ID, lesson.ID)

	single := fiber.Map{"question": "Pick", "options": []string{"a", "b", "c"}, "correct_answer": "2"}

	status, _ := h.do(t, "POST", quizPath, &other, single)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env := h.do(t, "POST", quizPath, &teacher, single)
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = h.do(t, "POST", quizPath, &teacher, single)
	assert.Equal(t, fiber.StatusConflict, status)

	var stored models.Quiz
	require.NoError(t, h.db.Where("lesson_id = ?", lesson.ID).First(&stored).Error)
	assert.Equal(t, models.AnswerSingle, stored.AnswerKind)
	assert.JSONEq(t, `[2]`, string(stored.AnswerIndices))

	status, _ = h.do(t, "PUT", quizPath, &teacher, fiber.Map{"question": "Pick", "options": []string{"a", "b", "c"}, "correct_answer": 2})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, h.db.Where("lesson_id = ?", lesson.ID).First(&stored).Error)
	assert.JSONEq(t, `[2]`, string(stored.AnswerIndices))

	status, env = h.do(t, "PUT", quizPath, &teacher, fiber.Map{"question": "Pick", "options": []string{"a", "b"}, "correct_answer": 5})
	assert.Equal(t, fiber.StatusBadRequest, status, env.Message)

	status, _ = h.do(t, "POST", quizPath+"/submit", &student, fiber.Map{"answers": []int{2}})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), &student, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status)

	status, env = h.do(t, "GET", quizPath, &student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(env.Data), "answer_indices")

	status, _ = h.do(t, "PUT", quizPath, &teacher, fiber.Map{"question": "Pick two", "options": []string{"a", "b", "c"}, "correct_answer": []int{0, 2}})
	require.Equal(t, fiber.StatusOK, status)

	var result struct {
		Score int `json:"score"`
		Total int `json:"total"`
	}
	status, env = h.do(t, "POST", quizPath+"/submit", &student, fiber.Map{"answers": []int{0, 2}})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 2, result.Total)

	status, env = h.do(t, "POST", quizPath+"/submit", &student, fiber.Map{"answers": []int{0, 1}})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Score)

	var p models.Progress
	require.NoError(t, h.db.Where("user_id = ? AND lesson_id = ?", student.ID, lesson.ID).First(&p).Error)
	require.NotNil(t, p.QuizScore)
	assert.Equal(t, 1, *p.QuizScore)
}

func TestProgressThreshold(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	other := testutil.CreateUser(t, h.db, "Olive Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 0)
	lesson := testutil.CreateLesson(t, h.db, course, 1)
	path := fmt.Sprintf("/students/%d/lessons/%d/progress", student.ID, lesson.ID)

	status, _ := h.do(t, "PATCH", path, &other, fiber.Map{"progress": 50})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do(t, "PATCH", path, &student, fiber.Map{"progress": 101})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	var p struct {
		Completed   bool       `json:"is_completed"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	status, env := h.do(t, "PATCH", path, &student, fiber.Map{"progress": 96})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.Completed)
	assert.NotNil(t, p.CompletedAt)

	status, env = h.do(t, "PATCH", path, &student, fiber.Map{"progress": 94})
	require.Equal(t, fiber.StatusOK, status)
	p.CompletedAt = nil
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.False(t, p.Completed)
	assert.Nil(t, p.CompletedAt)

	status, env = h.do(t, "GET", fmt.Sprintf("/students/%d/courses/%d/progress", student.ID, course.ID), &student, nil)
	require.Equal(t, fiber.StatusOK, status)
	var summary struct {
		TotalLessons     int `json:"total_lessons"`
		CompletedLessons int `json:"completed_lessons"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalLessons)
	assert.Equal(t, 0, summary.CompletedLessons)
}

func TestStudyGroupMessaging(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 0)
	msgPath := fmt.Sprintf("/courses/%d/study-group/message", course.ID)

	status, _ := h.do(t, "POST", msgPath, &student, fiber.Map{"content": "hello"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), &student, fiber.Map{"card_number": testCard})
	require.Equal(t, fiber.StatusCreated, status)

	status, env := h.do(t, "POST", msgPath, &student, fiber.Map{"content": "  hello  "})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	var msg struct {
		Content string `json:"content"`
		Sender  struct {
			ID      uint   `json:"id"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		} `json:"sender"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, student.ID, msg.Sender.ID)
	assert.Equal(t, student.Name, msg.Sender.Name)
	assert.Equal(t, student.Picture, msg.Sender.Picture)

	status, _ = h.do(t, "POST", msgPath, &student, fiber.Map{"content": "   "})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = h.do(t, "GET", fmt.Sprintf("/courses/%d/study-group/messages", course.ID), &teacher, nil)
	require.Equal(t, fiber.StatusOK, status)
	var page struct {
		Messages []json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Messages, 1)
}

func notification(orderID, transactionID, status string) fiber.Map {
	const statusCode, gross = "200", "150000.00"
	return fiber.Map{
		"order_id":           orderID,
		"status_code":        statusCode,
		"gross_amount":       gross,
		"transaction_status": status,
		"transaction_id":     transactionID,
		"payment_type":       "bank_transfer",
		"fraud_status":       "accept",
		"signature_key":      payment.Signature(testServerKey, orderID, statusCode, gross),
	}
}

func TestCheckoutAndWebhook(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)
	checkoutPath := fmt.Sprintf("/courses/%d/checkout", course.ID)

	status, env := h.do(t, "POST", checkoutPath, &student, nil)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var intent payment.Intent
	require.NoError(t, json.Unmarshal(env.Data, &intent))
	assert.NotEmpty(t, intent.Token)
	require.Len(t, h.gateway.Intents, 1)
	assert.Equal(t, int64(150000), h.gateway.Intents[0].Amount)

	var pending models.Enrollment
	require.NoError(t, h.db.Where("order_id = ?", intent.OrderID).First(&pending).Error)
	assert.Equal(t, models.EnrollmentPending, pending.Status)

	forged := notification(intent.OrderID, "trx-1", "settlement")
	forged["signature_key"] = "deadbeef"
	status, _ = h.do(t, "POST", "/payment/webhook", nil, forged)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.EqualValues(t, 0, h.count(t, &models.Payment{}, "order_id = ?", intent.OrderID))

	status, _ = h.do(t, "POST", "/payment/webhook", nil, notification(intent.OrderID, "trx-1", "pending"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, h.count(t, &models.Payment{}, "order_id = ?", intent.OrderID))

	for i := 0; i < 2; i++ {
		status, _ = h.do(t, "POST", "/payment/webhook", nil, notification(intent.OrderID, "trx-1", "settlement"))
		require.Equal(t, fiber.StatusOK, status)
	}
	assert.EqualValues(t, 1, h.count(t, &models.Payment{}, "order_id = ?", intent.OrderID))
	assert.EqualValues(t, 1, h.count(t, &models.Enrollment{}, "user_id = ? AND course_id = ? AND status = ?", student.ID, course.ID, models.EnrollmentPaid))
	assert.EqualValues(t, 1, h.count(t, &models.GroupMember{}, "user_id = ?", student.ID))
	assert.EqualValues(t, 4, h.count(t, &models.PaymentEvent{}, "order_id = ?", intent.OrderID))

	status, _ = h.do(t, "POST", checkoutPath, &student, nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestCheckoutFreeCourse(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 0)

	status, _ := h.do(t, "POST", fmt.Sprintf("/courses/%d/checkout", course.ID), &student, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	status, env := h.do(t, "POST", "/auth/signup", nil, fiber.Map{"name": "Nina", "email": "nina@example.com", "password": "correct-horse"})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = h.do(t, "POST", "/auth/signup", nil, fiber.Map{"name": "Nina", "email": "nina@example.com", "password": "correct-horse"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = h.do(t, "POST", "/auth/login", nil, fiber.Map{"email": "nina@example.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = h.do(t, "POST", "/auth/login", nil, fiber.Map{"email": "nina@example.com", "password": "correct-horse"})
	require.Equal(t, fiber.StatusOK, status)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, models.RoleStudent, login.User.Role)

	status, _ = h.do(t, "GET", "/admin/users", &login.User, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func (h *harness) upload(t *testing.T, path string, as models.User, filename string, content []byte) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("picture", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	token, err := middleware.GenerateJWT(testSecret, as)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)

	status, _ := h.do(t, "PUT", "/users/me", &student, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env := h.do(t, "PUT", "/users/me", &student, fiber.Map{"name": "  Samuel  ", "bio": "learning go"})
	require.Equal(t, fiber.StatusOK, status, env.Message)

	var profile struct {
		Name    string `json:"name"`
		Bio     string `json:"bio"`
		Picture string `json:"picture"`
	}
	status, env = h.do(t, "GET", fmt.Sprintf("/users/%d", student.ID), &student, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Samuel", profile.Name)
	assert.Equal(t, "learning go", profile.Bio)

	status, _ = h.upload(t, "/users/me/picture", student, "notes.txt", []byte("plain text, not an image"))
	assert.Equal(t, fiber.StatusBadRequest, status)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	status, env = h.upload(t, "/users/me/picture", student, "me.png", png)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	require.True(t, strings.HasPrefix(profile.Picture, "/uploads/"), profile.Picture)
	assert.True(t, strings.HasSuffix(profile.Picture, ".png"), profile.Picture)

	_, err := os.Stat(filepath.Join(h.uploadDir, strings.TrimPrefix(profile.Picture, "/uploads/")))
	assert.NoError(t, err)
}

func TestCamelCaseFieldsAndLooseAnswers(t *testing.T) {
	h := newHarness(t)
	teacher := testutil.CreateUser(t, h.db, "Tess Teacher", models.RoleTeacher)
	student := testutil.CreateUser(t, h.db, "Sam Student", models.RoleStudent)
	course := testutil.CreateCourse(t, h.db, teacher, 150000)
	lesson := testutil.CreateLesson(t, h.db, course, 1)
	quizPath := fmt.Sprintf("/courses/%d/lessons/%d/quiz", course.ID, lesson.ID)

	status, env := h.do(t, "POST", quizPath, &teacher, fiber.Map{"question": "Pick two", "options": []string{"a", "b", "c"}, "correctAnswer": []int{0, 2}})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var stored models.Quiz
	require.NoError(t, h.db.Where("lesson_id = ?", lesson.ID).First(&stored).Error)
	assert.JSONEq(t, `[0,2]`, string(stored.AnswerIndices))

	// correct_answer wins when both spellings are sent
	status, env = h.do(t, "PUT", quizPath, &teacher, fiber.Map{"question": "Pick two", "options": []string{"a", "b", "c"}, "correct_answer": []int{1, 2}, "correctAnswer": []int{0, 0}})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, h.db.Where("lesson_id = ?", lesson.ID).First(&stored).Error)
	assert.JSONEq(t, `[1,2]`, string(stored.AnswerIndices))

	status, _ = h.do(t, "POST", fmt.Sprintf("/courses/%d/enroll", course.ID), &student, fiber.Map{"cardNumber": "4111-1111-1111-1111"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.EqualValues(t, 1, h.count(t, &models.Payment{}, "user_id = ?", student.ID))

	var result struct {
		Score   int `json:"score"`
		Details []struct {
			Correct        bool `json:"correct"`
			SubmittedIndex *int `json:"submitted_index"`
		} `json:"details"`
	}
	status, env = h.do(t, "POST", quizPath+"/submit", &student, json.RawMessage(`{"answers":[1,1.5]}`))
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Score)
	require.Len(t, result.Details, 2)
	assert.False(t, result.Details[1].Correct)
	assert.Nil(t, result.Details[1].SubmittedIndex)

	status, env = h.do(t, "POST", quizPath+"/submit", &student, json.RawMessage(`{"answers":["1","2.0"]}`))
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Score)

	status, _ = h.do(t, "POST", quizPath+"/submit", &student, json.RawMessage(`{"answers":"1"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)
}
