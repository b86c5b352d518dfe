package repo

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

func newFeedbackDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:feedback_repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.MessageFeedback{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedFeedbackFixtures(t *testing.T, db *gorm.DB) (userID, messageID int64) {
	t.Helper()
	u, err := CreateUser(context.Background(), db, "fb@example.com", "hash", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	conv, err := CreateConversation(context.Background(), db, u.ID, "t")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	msg, err := CreateMessage(db, conv.ID, domain.RoleAssistant, "hello", nil)
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return u.ID, msg.ID
}

func TestCreateFeedback_ThenDuplicate(t *testing.T) {
	db := newFeedbackDB(t)
	userID, messageID := seedFeedbackFixtures(t, db)

	fb, err := CreateFeedback(db, messageID, userID, 1)
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if fb.ID == 0 || fb.Value != 1 {
		t.Fatalf("unexpected feedback row: %+v", fb)
	}

	if _, err := CreateFeedback(db, messageID, userID, -1); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	n, err := CountFeedback(context.Background(), db, messageID)
	if err != nil {
		t.Fatalf("CountFeedback: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 feedback row, got %d", n)
	}
}

func TestCreateFeedback_DistinctUsersAllowed(t *testing.T) {
	db := newFeedbackDB(t)
	_, messageID := seedFeedbackFixtures(t, db)

	other, err := CreateUser(context.Background(), db, "other@example.com", "hash", "")
	if err != nil {
		t.Fatalf("seed second user: %v", err)
	}

	if _, err := CreateFeedback(db, messageID, other.ID, -1); err != nil {
		t.Fatalf("second user's feedback should pass: %v", err)
	}
}

func TestDeleteFeedbackForMessages(t *testing.T) {
	db := newFeedbackDB(t)
	userID, messageID := seedFeedbackFixtures(t, db)

	if _, err := CreateFeedback(db, messageID, userID, 1); err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	// A second conversation whose feedback must survive.
	conv2, err := CreateConversation(context.Background(), db, userID, "keep")
	if err != nil {
		t.Fatalf("seed second conversation: %v", err)
	}
	msg2, err := CreateMessage(db, conv2.ID, domain.RoleAssistant, "keep me", nil)
	if err != nil {
		t.Fatalf("seed second message: %v", err)
	}
	if _, err := CreateFeedback(db, msg2.ID, userID, 1); err != nil {
		t.Fatalf("seed second feedback: %v", err)
	}

	var conversationID int64
	if err := db.Model(&domain.Message{}).Select("conversation_id").Where("id = ?", messageID).Scan(&conversationID).Error; err != nil {
		t.Fatalf("lookup conversation id: %v", err)
	}

	if err := DeleteFeedbackForMessages(db, conversationID); err != nil {
		t.Fatalf("DeleteFeedbackForMessages: %v", err)
	}

	if n, _ := CountFeedback(context.Background(), db, messageID); n != 0 {
		t.Fatalf("expected feedback for deleted conversation gone, got %d", n)
	}
	if n, _ := CountFeedback(context.Background(), db, msg2.ID); n != 1 {
		t.Fatalf("expected other conversation's feedback kept, got %d", n)
	}
}
