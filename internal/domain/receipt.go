// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// TurnReceipt represents a recorded result of a previously processed chat
// turn, keyed by (user_id, session_id, key). It enables safe retries of the
// buffered chat endpoint by returning the originally persisted message pair
// without re-invoking the inference service.
type TurnReceipt struct {
	ID                 string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID             int64     `gorm:"not null;uniqueIndex:ux_user_session_key,priority:1"`
	SessionID          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_session_key,priority:2"`
	Key                string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_session_key,priority:3"`
	UserMessageID      int64     `gorm:"not null"`
	AssistantMessageID int64     `gorm:"not null"`
	Status             int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt          time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt          time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (TurnReceipt) TableName() string { return "turn_receipts" }
