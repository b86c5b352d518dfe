package domain

import "time"

// MessageFeedback represents a user-provided rating on a specific assistant
// message. Value is constrained to -1 (negative) or 1 (positive), and each
// user may rate a given message at most once, enforced by a composite unique
// index on (message_id, user_id).
type MessageFeedback struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	MessageID int64     `json:"message_id" gorm:"not null;uniqueIndex:ux_feedback_message_user,priority:1"`
	UserID    int64     `json:"user_id"    gorm:"not null;uniqueIndex:ux_feedback_message_user,priority:2"`
	Value     int       `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time `json:"created_at"`

	// Message is the rated assistant message. Feedback is cascade-deleted
	// if the message is removed.
	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// User is the rating account. Feedback is cascade-deleted if the user
	// is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MessageFeedback.
func (MessageFeedback) TableName() string { return "message_feedback" }
