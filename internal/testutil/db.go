// Package testutil holds helpers shared by tests across packages
package testutil

import (
	"bitwise74/blog/db"
	"bitwise74/blog/internal/model"
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database that is closed when
// the test ends
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(d); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return d
}

// SeedPosts creates n posts for userID, one minute apart. Post i is titled
// "Post i" and post n is the newest
func SeedPosts(t *testing.T, d *gorm.DB, userID uint, n int) {
	t.Helper()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		p := model.Post{
			Title:      fmt.Sprintf("Post %d", i),
			Content:    "content",
			UserID:     userID,
			DatePosted: base.Add(time.Duration(i) * time.Minute),
		}

		if err := d.WithContext(context.Background()).Create(&p).Error; err != nil {
			t.Fatalf("failed to seed post: %v", err)
		}
	}
}
