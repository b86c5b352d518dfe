// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

// CreateMessage inserts a new message row. It takes a plain handle (often a
// transaction) so callers can compose appends with the conversation touch or
// with a paired assistant insert.
func CreateMessage(db *gorm.DB, conversationID int64, role, content string, keywords []string) (*domain.Message, error) {
	m := &domain.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Keywords:       keywords,
		CreatedAt:      time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessages returns messages ordered deterministically (CreatedAt ASC, ID ASC).
func ListMessages(db *gorm.DB, conversationID int64, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.Where("conversation_id = ?", conversationID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error (as tests expect).
func CountMessages(db *gorm.DB, conversationID int64) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID).Scan(&total).Error
	return total, err
}

// MessageCountsByConversation returns per-conversation message counts for the
// given IDs in a single grouped query, avoiding one COUNT per row when
// listing conversations.
func MessageCountsByConversation(ctx context.Context, db *gorm.DB, conversationIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ConversationID int64
		N              int64
	}
	var rows []row
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ConversationID] = r.N
	}
	return counts, nil
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id int64) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessages removes every message belonging to a conversation. It takes
// a plain handle (often a transaction) so the cascade commits atomically with
// the conversation delete.
func DeleteMessages(db *gorm.DB, conversationID int64) error {
	return db.Delete(&domain.Message{}, "conversation_id = ?", conversationID).Error
}
