// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MessageFeedback model.
//
// Error semantics:
//   - Duplicate feedback (same message_id, user_id) relies on the database
//     unique constraint and is returned as ErrDuplicate. The service layer
//     translates that into a domain error (e.g. services.ErrFeedbackExists).
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

// CreateFeedback inserts a feedback row for the given message and user.
//
// The combination (message_id, user_id) must be unique, enforced by the
// database schema. A duplicate insert returns ErrDuplicate.
//
// Value must be -1 (negative) or 1 (positive). Validation is enforced at the
// service layer and by the DB check constraint.
func CreateFeedback(db *gorm.DB, messageID, userID int64, value int) (*domain.MessageFeedback, error) {
	fb := &domain.MessageFeedback{
		MessageID: messageID,
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(fb).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return fb, nil
}

// DeleteFeedbackForMessages removes all feedback rows attached to messages of
// the given conversation. Used by the transactional conversation delete so no
// orphan rows survive on drivers without FK enforcement.
func DeleteFeedbackForMessages(db *gorm.DB, conversationID int64) error {
	return db.
		Where("message_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&domain.Message{}).
				Select("id").
				Where("conversation_id = ?", conversationID),
		).
		Delete(&domain.MessageFeedback{}).Error
}

// CountFeedback returns the number of feedback rows for a message.
func CountFeedback(ctx context.Context, db *gorm.DB, messageID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.MessageFeedback{}).
		Where("message_id = ?", messageID).
		Count(&n).Error
	return n, err
}
