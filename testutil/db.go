// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursehub/database"
	"coursehub/models"
)

var dbSeq atomic.Int64

// PrepareDB opens a migrated in-memory SQLite database private to the test,
// with foreign keys enforced.
func PrepareDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=1", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()
	u := models.User{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Password: "x",
		Role:     role,
		Picture:  "https://cdn.example.com/" + strings.ToLower(name) + ".png",
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateCourse inserts a published course with its study group and the
// teacher's membership, the way the catalog does.
func CreateCourse(t *testing.T, db *gorm.DB, teacher models.User, price int64) models.Course {
	t.Helper()
	c := models.Course{Title: "Course by " + teacher.Name, Price: price, IsPublished: true, TeacherID: teacher.ID}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	g := models.StudyGroup{CourseID: c.ID, CreatorID: teacher.ID, Name: c.Title}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("create study group: %v", err)
	}
	if err := db.Create(&models.GroupMember{GroupID: g.ID, UserID: teacher.ID}).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return c
}

// CreateLesson inserts a lesson at position.
func CreateLesson(t *testing.T, db *gorm.DB, course models.Course, position int) models.Lesson {
	t.Helper()
	l := models.Lesson{CourseID: course.ID, Title: fmt.Sprintf("Lesson %d", position), Position: position}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return l
}
