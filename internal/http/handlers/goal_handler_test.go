package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

func goalEngine(h *Handlers) *gin.Engine {
	return authedEngine(42, func(r *gin.Engine) {
		r.POST("/goals", h.CreateGoal)
		r.GET("/goals", h.ListGoals)
		r.GET("/goals/:goalID", h.GetGoal)
		r.PUT("/goals/:goalID", h.UpdateGoal)
		r.DELETE("/goals/:goalID", h.DeleteGoal)
		r.POST("/goals/:goalID/checkins", h.CreateCheckIn)
		r.GET("/goals/:goalID/checkins", h.ListCheckIns)
		r.PUT("/goals/:goalID/checkins/:checkinID", h.UpdateCheckIn)
		r.DELETE("/goals/:goalID/checkins/:checkinID", h.DeleteCheckIn)
	})
}

func TestCreateGoal(t *testing.T) {
	goals := &stubGoals{
		createFn: func(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error) {
			if userID != 42 || title != "Gym twice a week" {
				t.Fatalf("unexpected args: uid=%d title=%q", userID, title)
			}
			return &domain.Goal{ID: 7, UserID: userID, Title: title, Description: description, Status: domain.GoalStatusActive}, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodPost, "/goals", `{"title":"Gym twice a week","description":"Tue and Fri"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	var g domain.Goal
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatalf("json: %v", err)
	}
	if g.ID != 7 || g.Status != domain.GoalStatusActive || g.StreakCount != 0 {
		t.Fatalf("unexpected goal: %+v", g)
	}
}

func TestCreateGoal_MissingTitleIs400(t *testing.T) {
	goals := &stubGoals{
		createFn: func(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error) {
			t.Fatalf("service must not be called on a binding failure")
			return nil, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	for _, body := range []string{``, `{}`, `{"title":""}`} {
		w := doJSON(r, http.MethodPost, "/goals", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d; want 400", body, w.Code)
		}
	}
}

func TestListGoals_StatusFilterAndWrapper(t *testing.T) {
	var gotStatus string
	goals := &stubGoals{
		listFn: func(ctx context.Context, userID int64, status string) ([]domain.Goal, error) {
			gotStatus = status
			return []domain.Goal{
				{ID: 2, Title: "Read daily", Status: domain.GoalStatusActive},
				{ID: 1, Title: "Meditate", Status: domain.GoalStatusActive},
			}, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodGet, "/goals?status=active", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotStatus != "active" {
		t.Fatalf("filter not forwarded, got %q", gotStatus)
	}
	var resp ListGoalsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Total != 2 || len(resp.Goals) != 2 || resp.Goals[0].ID != 2 {
		t.Fatalf("unexpected wrapper: %+v", resp)
	}
}

func TestGetGoal_NotFoundCollapse(t *testing.T) {
	goals := &stubGoals{
		getFn: func(ctx context.Context, userID, goalID int64) (*domain.Goal, error) {
			return nil, services.ErrGoalNotFound
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodGet, "/goals/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Message != "Goal not found" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestUpdateGoal_ForwardsPartialFields(t *testing.T) {
	var gotUpd services.GoalUpdate
	goals := &stubGoals{
		updateFn: func(ctx context.Context, userID, goalID int64, upd services.GoalUpdate) (*domain.Goal, error) {
			gotUpd = upd
			return &domain.Goal{ID: goalID, Title: "Gym thrice a week", Status: domain.GoalStatusCompleted}, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodPut, "/goals/7", `{"status":"completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	if gotUpd.Title != nil || gotUpd.Description != nil || gotUpd.TargetDate != nil {
		t.Fatalf("omitted fields must stay nil: %+v", gotUpd)
	}
	if gotUpd.Status == nil || *gotUpd.Status != "completed" {
		t.Fatalf("status not forwarded: %+v", gotUpd.Status)
	}
}

func TestUpdateGoal_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"blank title", services.ErrEmptyTitle, http.StatusBadRequest},
		{"bad status", services.ErrInvalidStatus, http.StatusBadRequest},
		{"unknown goal", services.ErrGoalNotFound, http.StatusNotFound},
		{"storage failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			goals := &stubGoals{
				updateFn: func(ctx context.Context, userID, goalID int64, upd services.GoalUpdate) (*domain.Goal, error) {
					return nil, tc.err
				},
			}
			h := newHandlers(nil, nil, nil, goals, nil)
			r := goalEngine(h)

			w := doJSON(r, http.MethodPut, "/goals/7", `{"title":"x"}`)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestDeleteGoal(t *testing.T) {
	var deleted int64
	goals := &stubGoals{
		deleteFn: func(ctx context.Context, userID, goalID int64) error {
			deleted = goalID
			return nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodDelete, "/goals/7", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if deleted != 7 {
		t.Fatalf("service saw goalID %d", deleted)
	}

	// Non-numeric IDs never reach the service.
	w = doJSON(r, http.MethodDelete, "/goals/seven", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}

func TestCreateCheckIn(t *testing.T) {
	goals := &stubGoals{
		checkInFn: func(ctx context.Context, userID, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error) {
			return &domain.GoalCheckIn{ID: 3, GoalID: goalID, ProgressNote: progressNote, Completed: completed}, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodPost, "/goals/7/checkins", `{"progress_note":"made it","completed":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	var ci domain.GoalCheckIn
	if err := json.Unmarshal(w.Body.Bytes(), &ci); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !ci.Completed || ci.ProgressNote != "made it" {
		t.Fatalf("unexpected check-in: %+v", ci)
	}

	// A bare POST records an incomplete check-in without a note.
	w = doJSON(r, http.MethodPost, "/goals/7/checkins", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("bodyless status = %d; body=%s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ci); err != nil {
		t.Fatalf("json: %v", err)
	}
	if ci.Completed || ci.ProgressNote != "" {
		t.Fatalf("bodyless check-in must be empty and incomplete: %+v", ci)
	}
}

func TestListCheckIns_ForwardsLimit(t *testing.T) {
	var gotLimit int
	goals := &stubGoals{
		listCheckInsFn: func(ctx context.Context, userID, goalID int64, limit int) ([]domain.GoalCheckIn, error) {
			gotLimit = limit
			return []domain.GoalCheckIn{{ID: 2, GoalID: goalID}, {ID: 1, GoalID: goalID}}, nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodGet, "/goals/7/checkins?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotLimit != 5 {
		t.Fatalf("limit = %d; want 5", gotLimit)
	}
	var resp ListCheckInsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Total != 2 || len(resp.CheckIns) != 2 {
		t.Fatalf("unexpected wrapper: %+v", resp)
	}

	// Garbage limits degrade to zero; the service applies its default.
	doJSON(r, http.MethodGet, "/goals/7/checkins?limit=abc", "")
	if gotLimit != 0 {
		t.Fatalf("limit = %d; want 0 for unparseable input", gotLimit)
	}
}

func TestUpdateCheckIn_NotFound(t *testing.T) {
	goals := &stubGoals{
		updateCheckInFn: func(ctx context.Context, userID, goalID, checkinID int64, upd services.CheckInUpdate) (*domain.GoalCheckIn, error) {
			return nil, services.ErrCheckInNotFound
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodPut, "/goals/7/checkins/99", `{"completed":false}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d; want 404", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Message != "Check-in not found" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestDeleteCheckIn(t *testing.T) {
	var gotGoal, gotCI int64
	goals := &stubGoals{
		deleteCheckInFn: func(ctx context.Context, userID, goalID, checkinID int64) error {
			gotGoal, gotCI = goalID, checkinID
			return nil
		},
	}
	h := newHandlers(nil, nil, nil, goals, nil)
	r := goalEngine(h)

	w := doJSON(r, http.MethodDelete, "/goals/7/checkins/3", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if gotGoal != 7 || gotCI != 3 {
		t.Fatalf("ids = (%d,%d); want (7,3)", gotGoal, gotCI)
	}

	// Both path IDs are validated before the service runs.
	w = doJSON(r, http.MethodDelete, "/goals/7/checkins/-1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}
