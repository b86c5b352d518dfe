// Package domain defines the persistence models for users, conversations,
// messages, goals, and goal check-ins. These types are mapped with GORM and
// form the core data layer of the coaching application.
package domain

import (
	"time"
)

// Message roles recognized by the application. The database constraint on
// messages.role enforces the same set.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Goal lifecycle states. The database constraint on goals.status enforces
// the same set.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusAbandoned = "abandoned"
)

// User represents a registered account. Authentication is by email and
// password; the password is stored only as a bcrypt hash.
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - Email: login identifier, unique across the system.
//   - HashedPassword: bcrypt hash of the password (never serialized).
//   - UserName: optional display name.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID             int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Email          string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	HashedPassword string    `json:"-"          gorm:"type:varchar(255);not null"`
	UserName       string    `json:"user_name"  gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation represents a chat session owned by a user. Clients address a
// conversation by its opaque SessionID handle; the numeric ID never leaves
// the persistence layer except inside API payloads that mirror it.
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - UserID: owning user; indexed for efficient per-user listing.
//   - SessionID: unique external handle ("conv-" + 32 hex chars).
//   - Title: optional human-readable title.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM. UpdatedAt is
//     touched whenever a message is appended, so recency ordering works.
//   - User: FK association, ensures cascade delete/update at the DB level.
type Conversation struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id"    gorm:"not null;index:idx_user_conversations"`
	SessionID string    `json:"session_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_conversations_session"`
	Title     string    `json:"title"      gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// User is the owning account. Conversations are cascade-deleted
	// if their user is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message represents a single utterance within a conversation, authored by
// the "system", the "user", or the "assistant".
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - ConversationID: owning conversation (indexed together with CreatedAt
//     so history reads stay cheap).
//   - Role: "system", "user", or "assistant" (enforced by DB constraint).
//   - Content: full text content of the message.
//   - Keywords: extracted keywords for search/analytics, stored as JSON.
//   - CreatedAt: timestamp managed by GORM.
//   - Conversation: FK association, ensures cascade delete/update.
type Message struct {
	ID             int64     `json:"id"              gorm:"primaryKey;autoIncrement"`
	ConversationID int64     `json:"conversation_id" gorm:"not null;index:idx_conversation_msgs,priority:1"`
	Role           string    `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('system','user','assistant')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	Keywords       []string  `json:"keywords,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	// Conversation is the parent session. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Goal represents a personal objective a user is working toward. Progress is
// recorded through check-ins; StreakCount counts completed check-ins.
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - UserID: owning user; indexed for efficient per-user listing.
//   - Title: short statement of the goal.
//   - Description: optional longer free text.
//   - TargetDate: optional deadline.
//   - Status: "active", "completed", or "abandoned" (enforced by DB constraint).
//   - StreakCount: number of completed check-ins recorded so far.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - User: FK association, ensures cascade delete/update.
type Goal struct {
	ID          int64      `json:"id"           gorm:"primaryKey;autoIncrement"`
	UserID      int64      `json:"user_id"      gorm:"not null;index:idx_user_goals"`
	Title       string     `json:"title"        gorm:"type:varchar(255);not null"`
	Description string     `json:"description"  gorm:"type:text"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Status      string     `json:"status"       gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','completed','abandoned')"`
	StreakCount int        `json:"streak_count" gorm:"not null;default:0"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// User is the owning account. Goals are cascade-deleted if their
	// user is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Goal.
func (Goal) TableName() string { return "goals" }

// GoalCheckIn represents one progress report against a goal. A check-in with
// Completed=true atomically increments the goal's StreakCount.
//
// Fields:
//   - ID: auto-incrementing primary key.
//   - GoalID: owning goal (indexed together with CheckInDate for recency reads).
//   - CheckInDate: when the check-in was recorded.
//   - ProgressNote: optional free-text progress note.
//   - Completed: whether the goal was met for this period.
//   - Goal: FK association, ensures cascade delete/update.
type GoalCheckIn struct {
	ID           int64     `json:"id"            gorm:"primaryKey;autoIncrement"`
	GoalID       int64     `json:"goal_id"       gorm:"not null;index:idx_goal_checkins,priority:1"`
	CheckInDate  time.Time `json:"check_in_date" gorm:"index:idx_goal_checkins,priority:2"`
	ProgressNote string    `json:"progress_note" gorm:"type:text"`
	Completed    bool      `json:"completed"     gorm:"not null;default:false"`

	// Goal is the tracked objective. Check-ins are cascade-deleted if
	// their goal is removed.
	Goal Goal `json:"-" gorm:"foreignKey:GoalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GoalCheckIn.
func (GoalCheckIn) TableName() string { return "goal_check_ins" }
