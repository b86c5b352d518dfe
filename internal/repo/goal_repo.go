// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Goal and
// GoalCheckIn models.
//
// All goal lookups are scoped to the owning user: a goal that exists but
// belongs to someone else is indistinguishable from a missing one, so the
// service layer can map both to the same not-found result. Check-in lookups
// are scoped through their goal for the same reason.
//
// Streak semantics: only inserting a completed check-in increments the
// goal's streak_count, and the increment happens via a single UPDATE with a
// SQL expression so concurrent check-ins do not lose counts. Editing or
// deleting a check-in afterwards never rewrites the streak.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
)

// CreateGoal inserts a new Goal row owned by userID. New goals always start
// in the "active" state with a zero streak.
func CreateGoal(ctx context.Context, db *gorm.DB, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error) {
	now := time.Now().UTC()
	g := &domain.Goal{
		UserID:      userID,
		Title:       title,
		Description: description,
		TargetDate:  targetDate,
		Status:      domain.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGoal fetches a single goal by ID, scoped to userID. Missing and
// not-owned rows both surface as ErrNotFound.
func GetGoal(ctx context.Context, db *gorm.DB, id, userID int64) (*domain.Goal, error) {
	var g domain.Goal
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGoals returns all goals belonging to userID, newest first. When status
// is non-empty the result is filtered to that lifecycle state.
func ListGoals(ctx context.Context, db *gorm.DB, userID int64, status string) ([]domain.Goal, error) {
	var out []domain.Goal
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

// UpdateGoal applies the given column updates to a goal owned by userID and
// bumps updated_at. If no rows are affected (missing or not owned), it
// returns ErrNotFound.
func UpdateGoal(ctx context.Context, db *gorm.DB, id, userID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Goal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteGoalRow removes the goal row by primary key. It takes a plain handle
// (often a transaction); check-in cleanup is explicit and done by the caller
// in the same transaction.
func DeleteGoalRow(db *gorm.DB, goalID int64) error {
	res := db.Delete(&domain.Goal{}, "id = ?", goalID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateCheckIn inserts a check-in row for a goal. It takes a plain handle
// (often a transaction) so the insert can commit atomically with the streak
// increment.
func CreateCheckIn(db *gorm.DB, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error) {
	ci := &domain.GoalCheckIn{
		GoalID:       goalID,
		CheckInDate:  time.Now().UTC(),
		ProgressNote: progressNote,
		Completed:    completed,
	}
	return ci, db.Create(ci).Error
}

// IncrementStreak adds one to the goal's streak_count in a single UPDATE and
// bumps updated_at. It takes a plain handle (often a transaction) so the
// bump commits atomically with the completed check-in that earned it.
func IncrementStreak(db *gorm.DB, goalID int64) error {
	res := db.Model(&domain.Goal{}).
		Where("id = ?", goalID).
		Updates(map[string]any{
			"streak_count": gorm.Expr("streak_count + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCheckIns returns up to limit check-ins for a goal, newest first.
// A limit <= 0 returns all rows.
func ListCheckIns(ctx context.Context, db *gorm.DB, goalID int64, limit int) ([]domain.GoalCheckIn, error) {
	var out []domain.GoalCheckIn
	q := db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("check_in_date desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetCheckIn fetches a check-in by ID, scoped to its goal so ownership checks
// made on the goal extend to the check-in.
func GetCheckIn(ctx context.Context, db *gorm.DB, id, goalID int64) (*domain.GoalCheckIn, error) {
	var ci domain.GoalCheckIn
	err := db.WithContext(ctx).
		Where("id = ? AND goal_id = ?", id, goalID).
		First(&ci).Error
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// UpdateCheckIn applies the given column updates to a check-in belonging to
// goalID. If no rows are affected (missing or wrong goal), it returns
// ErrNotFound. The streak is deliberately left untouched.
func UpdateCheckIn(ctx context.Context, db *gorm.DB, id, goalID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&domain.GoalCheckIn{}).
		Where("id = ? AND goal_id = ?", id, goalID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCheckIn removes a check-in belonging to goalID. If no rows are
// affected, it returns ErrNotFound. The streak is deliberately left
// untouched.
func DeleteCheckIn(ctx context.Context, db *gorm.DB, id, goalID int64) error {
	res := db.WithContext(ctx).Delete(&domain.GoalCheckIn{}, "id = ? AND goal_id = ?", id, goalID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCheckIns removes every check-in belonging to a goal. It takes a plain
// handle (often a transaction) so the cascade commits atomically with the
// goal delete.
func DeleteCheckIns(db *gorm.DB, goalID int64) error {
	return db.Delete(&domain.GoalCheckIn{}, "goal_id = ?", goalID).Error
}
