// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"anoa.com/photoshare/internal/bootstrap"
	"anoa.com/photoshare/internal/entity"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A single connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user together with its profile.
func CreateUser(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()

	user := &entity.User{
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	user.Profile = &entity.Profile{UserID: user.ID}
	if err := db.Create(user.Profile).Error; err != nil {
		t.Fatalf("create profile %s: %v", username, err)
	}
	return user
}

// CreatePost inserts a post authored by userID.
func CreatePost(t *testing.T, db *gorm.DB, userID uuid.UUID, description string) *entity.Post {
	t.Helper()

	post := &entity.Post{
		ImageURL: "https://res.cloudinary.com/demo/image/upload/v1/posts/" + uuid.NewString() + ".jpg",
		UserID:   userID,
	}
	if description != "" {
		post.Description = &description
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// Notifications returns the notifications of recipient.
func Notifications(t *testing.T, db *gorm.DB, recipient uuid.UUID) []entity.Notification {
	t.Helper()

	var out []entity.Notification
	if err := db.WithContext(context.Background()).
		Where("user_id = ?", recipient).
		Order("created_at desc").
		Find(&out).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return out
}
