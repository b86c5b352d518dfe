// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the TurnReceipt
// model used to implement safe-retry semantics for the buffered chat
// endpoint.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

// ErrDuplicate indicates that a record already exists for a key that must be
// unique (a turn receipt tuple, or a user email).
var ErrDuplicate = errors.New("duplicate")

// GetTurnReceipt returns a non-expired receipt or ErrNotFound.
func GetTurnReceipt(ctx context.Context, db *gorm.DB, userID int64, sessionID, key string, now time.Time) (*domain.TurnReceipt, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.TurnReceipt
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND key = ? AND expires_at > ?", userID, sessionID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateTurnReceipt inserts a receipt and returns ErrDuplicate on unique
// violation. It takes a plain handle (often a transaction) so the receipt
// commits atomically with the message pair it records.
func CreateTurnReceipt(db *gorm.DB, userID int64, sessionID, key string, userMessageID, assistantMessageID int64, status int, ttl time.Duration) (*domain.TurnReceipt, error) {
	now := time.Now().UTC()
	rec := &domain.TurnReceipt{
		ID:                 uuid.NewString(),
		UserID:             userID,
		SessionID:          sessionID,
		Key:                key,
		UserMessageID:      userMessageID,
		AssistantMessageID: assistantMessageID,
		Status:             status,
		CreatedAt:          now,
		ExpiresAt:          now.Add(ttl),
	}
	if err := db.Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// DeleteTurnReceipts removes every receipt recorded against a session handle.
// It takes a plain handle (often a transaction) so the cleanup commits
// atomically with the conversation delete.
func DeleteTurnReceipts(db *gorm.DB, sessionID string) error {
	return db.Delete(&domain.TurnReceipt{}, "session_id = ?", sessionID).Error
}
