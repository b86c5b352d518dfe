// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - Ownership is part of every lookup: a conversation that exists but
//     belongs to another user is indistinguishable from a missing one.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateConversation(ctx, db, userID, title) -> *domain.Conversation, error
//     Inserts a new Conversation row with a generated session handle.
//
//   - GetConversation(ctx, db, sessionID, userID) -> *domain.Conversation, error
//     Fetches a conversation by session handle, scoped to its owner.
//
//   - ListConversations(ctx, db, userID, limit) -> []domain.Conversation, error
//     Returns a user's conversations ordered by recent activity.
//
//   - CountConversations(ctx, db, userID) -> (int64, error)
//     Returns the total number of conversations owned by the user.
//
//   - UpdateConversationTitle(ctx, db, sessionID, userID, title) -> error
//     Updates the title, enforcing user ownership.
//
//   - TouchConversation(db, conversationID, now) -> error
//     Bumps updated_at; callers run it inside the same transaction as a
//     message append so recency ordering stays consistent.
//
//   - DeleteConversationRow(db, conversationID) -> error
//     Removes the conversation row itself. Message cleanup is explicit and
//     handled by the service layer inside one transaction.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.ConversationService) which enforces business rules and
// transactional composition.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// NewSessionID generates an opaque conversation handle: "conv-" followed by
// 32 lowercase hex characters.
func NewSessionID() string {
	return "conv-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateConversation inserts a new Conversation row owned by userID with the
// given title. The session handle is generated here and returned with the
// persisted row; CreatedAt and UpdatedAt are set to the same UTC instant.
func CreateConversation(ctx context.Context, db *gorm.DB, userID int64, title string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		UserID:    userID,
		SessionID: NewSessionID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation by its session handle, scoped to
// userID. Missing and not-owned rows both surface as ErrNotFound so callers
// cannot leak the existence of another user's conversation.
func GetConversation(ctx context.Context, db *gorm.DB, sessionID string, userID int64) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns up to limit conversations belonging to userID,
// ordered by last activity descending (most recently touched first). A
// limit <= 0 returns all rows. On DB error, it returns the error.
func ListConversations(ctx context.Context, db *gorm.DB, userID int64, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountConversations returns the total number of conversations owned by
// userID. On DB error, it returns the error.
func CountConversations(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// UpdateConversationTitle updates the title of the conversation identified by
// sessionID and owned by userID. If no rows are affected (missing or not
// owned), it returns ErrNotFound. On DB error, the raw error is returned.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, sessionID string, userID int64, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchConversation bumps the conversation's updated_at to now. It takes a
// plain handle (often a transaction) so an append and its touch commit
// together.
func TouchConversation(db *gorm.DB, conversationID int64, now time.Time) error {
	return db.Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", now).Error
}

// DeleteConversationRow removes the conversation row by primary key. It takes
// a plain handle (often a transaction); message cleanup is explicit and done
// by the caller in the same transaction.
func DeleteConversationRow(db *gorm.DB, conversationID int64) error {
	res := db.Delete(&domain.Conversation{}, "id = ?", conversationID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
