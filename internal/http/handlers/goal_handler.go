// Goal HTTP handlers.
//
// This file exposes REST endpoints for goal and check-in resources:
//   - POST   /goals                                  (create)
//   - GET    /goals?status=                          (list, optional filter)
//   - GET    /goals/{goalID}                         (read one)
//   - PUT    /goals/{goalID}                         (partial update)
//   - DELETE /goals/{goalID}                         (delete with check-ins)
//   - POST   /goals/{goalID}/checkins                (record progress)
//   - GET    /goals/{goalID}/checkins?limit=         (list, newest first)
//   - PUT    /goals/{goalID}/checkins/{checkinID}    (edit)
//   - DELETE /goals/{goalID}/checkins/{checkinID}    (remove)
//
// A completed check-in increments the goal's streak atomically with the
// insert; later edits or deletes never rewrite the streak. Missing and
// foreign goals are presented identically as 404.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

//
// DTOs
//

// CreateGoalRequest is the JSON payload for creating a goal.
type CreateGoalRequest struct {
	// Title names the goal (normalized before storage).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Lights out by 23:00"`
	// Description optionally elaborates on the goal.
	Description string `json:"description" binding:"omitempty,max=2000" example:"Wind-down routine on weekdays"`
	// TargetDate optionally sets a deadline.
	TargetDate *time.Time `json:"target_date" example:"2026-03-01T00:00:00Z"`
}

// UpdateGoalRequest is the JSON payload for partially updating a goal.
// Omitted fields are left untouched.
type UpdateGoalRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=255" example:"Lights out by 22:30"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	TargetDate  *time.Time `json:"target_date"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active completed abandoned" example:"completed"`
}

// CheckInRequest is the JSON payload for recording goal progress.
type CheckInRequest struct {
	// ProgressNote optionally describes what happened.
	ProgressNote string `json:"progress_note" binding:"omitempty,max=2000" example:"Phone out of the bedroom, asleep by 23:10"`
	// Completed marks the check-in as a success, advancing the streak.
	Completed bool `json:"completed" example:"true"`
}

// UpdateCheckInRequest is the JSON payload for editing a check-in. Omitted
// fields are left untouched; flipping Completed never adjusts the streak.
type UpdateCheckInRequest struct {
	ProgressNote *string `json:"progress_note" binding:"omitempty,max=2000"`
	Completed    *bool   `json:"completed"`
}

// ListGoalsResponse wraps a goal listing.
type ListGoalsResponse struct {
	Goals []domain.Goal `json:"goals"`
	Total int           `json:"total"`
}

// ListCheckInsResponse wraps a check-in listing.
type ListCheckInsResponse struct {
	CheckIns []domain.GoalCheckIn `json:"check_ins"`
	Total    int                  `json:"total"`
}

// failGoal maps goal service errors onto HTTP responses.
func failGoal(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGoalNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Goal not found")
	case errors.Is(err, services.ErrCheckInNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Check-in not found")
	case errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title must contain at least one character")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status must be one of active, completed, abandoned")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "goal operation failed")
	}
}

//
// Handlers
//

// CreateGoal godoc
// @ID          createGoal
// @Summary     Create a goal
// @Description Creates a goal for the current user. New goals start active with a zero streak.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateGoalRequest  true  "Goal payload"
//
// @Success     201  {object}  domain.Goal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals [post]
func (h *Handlers) CreateGoal(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	g, err := h.goals.Create(c.Request.Context(), uid, req.Title, req.Description, req.TargetDate)
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusCreated, g)
}

// ListGoals godoc
// @ID          listGoals
// @Summary     List goals
// @Description Returns the user's goals, newest first, optionally filtered by status.
// @Tags        Goals
// @Produce     json
// @Security    BearerAuth
//
// @Param       status  query  string  false  "Filter by status"  Enums(active, completed, abandoned)
//
// @Success     200  {object}  handlers.ListGoalsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals [get]
func (h *Handlers) ListGoals(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}

	goals, err := h.goals.List(c.Request.Context(), uid, c.Query("status"))
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusOK, ListGoalsResponse{Goals: goals, Total: len(goals)})
}

// GetGoal godoc
// @ID          getGoal
// @Summary     Read a goal
// @Description Returns one goal owned by the current user.
// @Tags        Goals
// @Produce     json
// @Security    BearerAuth
//
// @Param       goalID  path  int  true  "Goal ID"  example(7)
//
// @Success     200  {object}  domain.Goal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID} [get]
func (h *Handlers) GetGoal(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okID := pathID(c, "goalID")
	if !okID {
		return
	}

	g, err := h.goals.Get(c.Request.Context(), uid, goalID)
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}

// UpdateGoal godoc
// @ID          updateGoal
// @Summary     Update a goal
// @Description Partially updates a goal; omitted fields are left untouched. Status transitions are unrestricted within the allowed set.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       goalID  path  int  true  "Goal ID"
// @Param       body    body  handlers.UpdateGoalRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.Goal
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID} [put]
func (h *Handlers) UpdateGoal(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okID := pathID(c, "goalID")
	if !okID {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	g, err := h.goals.Update(c.Request.Context(), uid, goalID, services.GoalUpdate{
		Title:       req.Title,
		Description: req.Description,
		TargetDate:  req.TargetDate,
		Status:      req.Status,
	})
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}

// DeleteGoal godoc
// @ID          deleteGoal
// @Summary     Delete a goal
// @Description Removes a goal together with all of its check-ins.
// @Tags        Goals
// @Security    BearerAuth
//
// @Param       goalID  path  int  true  "Goal ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID} [delete]
func (h *Handlers) DeleteGoal(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okID := pathID(c, "goalID")
	if !okID {
		return
	}

	if err := h.goals.Delete(c.Request.Context(), uid, goalID); err != nil {
		failGoal(c, err)
		return
	}
	noContent(c)
}

// CreateCheckIn godoc
// @ID          createCheckIn
// @Summary     Record a check-in
// @Description Records progress on a goal. A completed check-in advances the goal's streak in the same transaction.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       goalID  path  int  true  "Goal ID"
// @Param       body    body  handlers.CheckInRequest  true  "Check-in payload"
//
// @Success     201  {object}  domain.GoalCheckIn
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID}/checkins [post]
func (h *Handlers) CreateCheckIn(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okID := pathID(c, "goalID")
	if !okID {
		return
	}

	// The body is optional: a bare POST records an incomplete check-in.
	var req CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	ci, err := h.goals.CheckIn(c.Request.Context(), uid, goalID, req.ProgressNote, req.Completed)
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusCreated, ci)
}

// ListCheckIns godoc
// @ID          listCheckIns
// @Summary     List check-ins
// @Description Returns a goal's check-ins, newest first.
// @Tags        Goals
// @Produce     json
// @Security    BearerAuth
//
// @Param       goalID  path   int  true   "Goal ID"
// @Param       limit   query  int  false  "Max check-ins to return"  minimum(1) maximum(100) default(30)
//
// @Success     200  {object}  handlers.ListCheckInsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID}/checkins [get]
func (h *Handlers) ListCheckIns(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okID := pathID(c, "goalID")
	if !okID {
		return
	}

	cis, err := h.goals.ListCheckIns(c.Request.Context(), uid, goalID, queryLimit(c))
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusOK, ListCheckInsResponse{CheckIns: cis, Total: len(cis)})
}

// UpdateCheckIn godoc
// @ID          updateCheckIn
// @Summary     Edit a check-in
// @Description Partially updates a check-in. Changing the completed flag never adjusts the goal's streak retroactively.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       goalID     path  int  true  "Goal ID"
// @Param       checkinID  path  int  true  "Check-in ID"
// @Param       body       body  handlers.UpdateCheckInRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.GoalCheckIn
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal or check-in not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID}/checkins/{checkinID} [put]
func (h *Handlers) UpdateCheckIn(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okGoal := pathID(c, "goalID")
	if !okGoal {
		return
	}
	checkinID, okCI := pathID(c, "checkinID")
	if !okCI {
		return
	}

	var req UpdateCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ci, err := h.goals.UpdateCheckIn(c.Request.Context(), uid, goalID, checkinID, services.CheckInUpdate{
		ProgressNote: req.ProgressNote,
		Completed:    req.Completed,
	})
	if err != nil {
		failGoal(c, err)
		return
	}
	ok(c, http.StatusOK, ci)
}

// DeleteCheckIn godoc
// @ID          deleteCheckIn
// @Summary     Remove a check-in
// @Description Deletes one check-in. The goal's streak is left as-is.
// @Tags        Goals
// @Security    BearerAuth
//
// @Param       goalID     path  int  true  "Goal ID"
// @Param       checkinID  path  int  true  "Check-in ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal or check-in not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /goals/{goalID}/checkins/{checkinID} [delete]
func (h *Handlers) DeleteCheckIn(c *gin.Context) {
	uid, authed := currentUser(c)
	if !authed {
		return
	}
	goalID, okGoal := pathID(c, "goalID")
	if !okGoal {
		return
	}
	checkinID, okCI := pathID(c, "checkinID")
	if !okCI {
		return
	}

	if err := h.goals.DeleteCheckIn(c.Request.Context(), uid, goalID, checkinID); err != nil {
		failGoal(c, err)
		return
	}
	noContent(c)
}
