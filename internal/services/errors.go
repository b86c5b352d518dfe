// Package services defines the business logic for accounts, conversations,
// chat turns, goals, and message feedback. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrEmailTaken is returned when registering with an email that already
	// belongs to an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately not
	// distinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates that the requested account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Conversation- and message-related errors.
var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not owned by the current user. The two cases are
	// deliberately not distinguishable.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates that the requested message does not exist
	// or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyMessage is returned when a chat turn carries an empty or
	// whitespace-only utterance.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a chat turn exceeds the maximum
	// configured utterance length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrEmptyTitle is returned when a title update contains no usable
	// characters after normalization.
	ErrEmptyTitle = errors.New("title is empty")
)

// Goal-related errors.
var (
	// ErrGoalNotFound indicates that the requested goal does not exist or is
	// not owned by the current user.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrCheckInNotFound indicates that the requested check-in does not
	// exist under the addressed goal.
	ErrCheckInNotFound = errors.New("check-in not found")

	// ErrInvalidStatus is returned when a goal update carries a status value
	// outside the allowed set (active, completed, abandoned).
	ErrInvalidStatus = errors.New("invalid goal status")
)

// Feedback-related errors.
var (
	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrFeedbackNotAllowed is returned when a user attempts to rate a
	// message that is not an assistant message.
	ErrFeedbackNotAllowed = errors.New("cannot leave feedback on this message")

	// ErrFeedbackExists is returned when a user attempts to rate a message
	// they have already rated.
	ErrFeedbackExists = errors.New("feedback already exists")
)
