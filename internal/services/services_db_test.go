package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
)

// newServiceDB opens a fresh in-memory database with the full schema, shared
// by the service tests in this package.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// seedAccount inserts a user and returns its ID.
func seedAccount(t *testing.T, db *gorm.DB, email string) int64 {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, email, "x", "")
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u.ID
}

// seedSession inserts a conversation for userID and returns it.
func seedSession(t *testing.T, db *gorm.DB, userID int64, title string) *domain.Conversation {
	t.Helper()
	c, err := repo.CreateConversation(context.Background(), db, userID, title)
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return c
}

// messageCount returns how many messages a conversation holds.
func messageCount(t *testing.T, db *gorm.DB, conversationID int64) int64 {
	t.Helper()
	n, err := repo.CountMessages(db, conversationID)
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return n
}
