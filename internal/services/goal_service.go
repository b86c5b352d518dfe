// Package services – GoalService
//
// This file implements the GoalService, which owns goal tracking: CRUD over
// goals, progress check-ins, and the streak counter. A completed check-in
// increments the goal's streak atomically with the check-in insert; editing
// or deleting a check-in afterwards never rewrites the streak.
//
// Service-level errors (ErrGoalNotFound, ErrCheckInNotFound, ErrEmptyTitle,
// ErrInvalidStatus) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/repo"
	"github.com/Area51-Labs/Alari-BE/internal/utils"
)

// DefaultCheckInLimit is how many check-ins a listing returns when the client
// does not ask for a specific amount.
const DefaultCheckInLimit = 30

// GoalUpdate describes a partial goal update; nil fields are left untouched.
type GoalUpdate struct {
	Title       *string
	Description *string
	TargetDate  *time.Time
	Status      *string
}

// CheckInUpdate describes a partial check-in update; nil fields are left
// untouched.
type CheckInUpdate struct {
	ProgressNote *string
	Completed    *bool
}

// GoalService provides goal and check-in operations scoped to their owner.
type GoalService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// TitleMaxLen caps stored goal titles by rune length.
	TitleMaxLen int
}

// NewGoalService constructs a GoalService with sane defaults.
func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{DB: db, TitleMaxLen: 255}
}

// Create inserts a new goal owned by userID. New goals start active with a
// zero streak. A title that normalizes to nothing is ErrEmptyTitle.
func (s *GoalService) Create(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error) {
	title = collapseSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return repo.CreateGoal(ctx, s.DB, userID, s.clipTitle(title), description, targetDate)
}

// List returns the user's goals, newest first, optionally filtered by
// lifecycle state. An unknown status simply matches nothing, mirroring a
// plain column filter.
func (s *GoalService) List(ctx context.Context, userID int64, status string) ([]domain.Goal, error) {
	return repo.ListGoals(ctx, s.DB, userID, status)
}

// Get fetches one goal scoped to its owner. A missing or foreign goal is
// ErrGoalNotFound either way.
func (s *GoalService) Get(ctx context.Context, userID, goalID int64) (*domain.Goal, error) {
	g, err := repo.GetGoal(ctx, s.DB, goalID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return g, nil
}

// Update applies a partial update to an owned goal and returns the fresh row.
// Status values outside (active, completed, abandoned) are ErrInvalidStatus;
// a provided-but-blank title is ErrEmptyTitle.
func (s *GoalService) Update(ctx context.Context, userID, goalID int64, upd GoalUpdate) (*domain.Goal, error) {
	updates := map[string]any{}

	if upd.Title != nil {
		title := collapseSpace(*upd.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		updates["title"] = s.clipTitle(title)
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.TargetDate != nil {
		updates["target_date"] = *upd.TargetDate
	}
	if upd.Status != nil {
		if !validGoalStatus(*upd.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *upd.Status
	}

	if len(updates) > 0 {
		if err := repo.UpdateGoal(ctx, s.DB, goalID, userID, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrGoalNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, userID, goalID)
}

// Delete removes an owned goal together with all its check-ins in one
// transaction.
func (s *GoalService) Delete(ctx context.Context, userID, goalID int64) error {
	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrGoalNotFound
		}
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteCheckIns(tx, goalID); err != nil {
			return err
		}
		return repo.DeleteGoalRow(tx, goalID)
	})
}

// CheckIn records one progress report against an owned goal. When completed
// is true the goal's streak_count is incremented in the same transaction as
// the insert, so the counter can never drift from the check-in log.
func (s *GoalService) CheckIn(ctx context.Context, userID, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error) {
	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	var ci *domain.GoalCheckIn
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.CreateCheckIn(tx, goalID, progressNote, completed)
		if err != nil {
			return err
		}
		ci = c
		if completed {
			return repo.IncrementStreak(tx, goalID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ci, nil
}

// ListCheckIns returns the goal's check-ins, newest first. The limit is
// clamped to [1, MaxListLimit] with DefaultCheckInLimit applied when the
// caller passes 0 or less.
func (s *GoalService) ListCheckIns(ctx context.Context, userID, goalID int64, limit int) ([]domain.GoalCheckIn, error) {
	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultCheckInLimit
	}
	limit = utils.ClampInt(limit, 1, MaxListLimit)
	return repo.ListCheckIns(ctx, s.DB, goalID, limit)
}

// UpdateCheckIn applies a partial update to one check-in of an owned goal and
// returns the fresh row. The streak is deliberately left untouched: a
// check-in edited to completed after the fact earns no increment.
func (s *GoalService) UpdateCheckIn(ctx context.Context, userID, goalID, checkinID int64, upd CheckInUpdate) (*domain.GoalCheckIn, error) {
	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}

	updates := map[string]any{}
	if upd.ProgressNote != nil {
		updates["progress_note"] = *upd.ProgressNote
	}
	if upd.Completed != nil {
		updates["completed"] = *upd.Completed
	}

	if len(updates) > 0 {
		if err := repo.UpdateCheckIn(ctx, s.DB, checkinID, goalID, updates); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrCheckInNotFound
			}
			return nil, err
		}
	}

	ci, err := repo.GetCheckIn(ctx, s.DB, checkinID, goalID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	return ci, nil
}

// DeleteCheckIn removes one check-in of an owned goal. The streak is
// deliberately left untouched.
func (s *GoalService) DeleteCheckIn(ctx context.Context, userID, goalID, checkinID int64) error {
	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrGoalNotFound
		}
		return err
	}

	if err := repo.DeleteCheckIn(ctx, s.DB, checkinID, goalID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCheckInNotFound
		}
		return err
	}
	return nil
}

// clipTitle truncates a goal title to the configured maximum rune length.
func (s *GoalService) clipTitle(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// validGoalStatus reports whether status is one of the allowed lifecycle
// states.
func validGoalStatus(status string) bool {
	switch status {
	case domain.GoalStatusActive, domain.GoalStatusCompleted, domain.GoalStatusAbandoned:
		return true
	}
	return false
}
