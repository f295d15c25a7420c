// Package testutil builds in-memory stores and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"project-tracker/internal/database"
	"project-tracker/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite store that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   gormlogger.Discard,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// a second connection would see a different in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given password hashed at minimum cost.
func CreateUser(t *testing.T, db *gorm.DB, email, password string, isAdmin bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{Email: email, Name: email, PasswordHash: string(hash), IsAdmin: isAdmin}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateProject inserts a project row directly, bypassing the workflow.
func CreateProject(t *testing.T, db *gorm.DB, name string, status models.ProjectStatus, start, due string) models.Project {
	t.Helper()
	s, err := models.ParseDate(start)
	if err != nil {
		t.Fatal(err)
	}
	d, err := models.ParseDate(due)
	if err != nil {
		t.Fatal(err)
	}
	p := models.Project{
		Name:            name,
		Description:     name + " description",
		StartDate:       s,
		DueDate:         d,
		Status:          status,
		SharedLinkToken: "tok-" + name,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

// Assign inserts assignment rows directly.
func Assign(t *testing.T, db *gorm.DB, projectID uint, userIDs ...uint) {
	t.Helper()
	for _, uid := range userIDs {
		row := models.ProjectAssignment{ProjectID: projectID, UserID: uid}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("assign %d to %d: %v", uid, projectID, err)
		}
	}
}

// FixedClock returns a clock function pinned to t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
