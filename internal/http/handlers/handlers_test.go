package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Area51-Labs/Alari-BE/internal/domain"
	"github.com/Area51-Labs/Alari-BE/internal/http/middleware"
	"github.com/Area51-Labs/Alari-BE/internal/services"
)

//
// Service stubs: each method delegates to an injected func so individual
// tests control exactly one behavior.
//

type stubAccounts struct {
	registerFn func(ctx context.Context, email, password, userName string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	byIDFn     func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubAccounts) Register(ctx context.Context, email, password, userName string) (*domain.User, error) {
	return s.registerFn(ctx, email, password, userName)
}
func (s *stubAccounts) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}
func (s *stubAccounts) ByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.byIDFn(ctx, id)
}

type stubConversations struct {
	createFn       func(ctx context.Context, userID int64, title string) (*services.ConversationSummary, error)
	listFn         func(ctx context.Context, userID int64, limit int) ([]services.ConversationSummary, error)
	getFn          func(ctx context.Context, userID int64, sessionID string) (*services.ConversationSummary, error)
	listMessagesFn func(ctx context.Context, userID int64, sessionID string) ([]domain.Message, error)
	updateTitleFn  func(ctx context.Context, userID int64, sessionID, title string) (*services.ConversationSummary, error)
	deleteFn       func(ctx context.Context, userID int64, sessionID string) error
	listStatsFn    func(ctx context.Context, userID int64) (int64, *time.Time, error)
	messageStatsFn func(ctx context.Context, userID int64, sessionID string) (int64, *time.Time, error)
}

func (s *stubConversations) Create(ctx context.Context, userID int64, title string) (*services.ConversationSummary, error) {
	return s.createFn(ctx, userID, title)
}
func (s *stubConversations) List(ctx context.Context, userID int64, limit int) ([]services.ConversationSummary, error) {
	return s.listFn(ctx, userID, limit)
}
func (s *stubConversations) Get(ctx context.Context, userID int64, sessionID string) (*services.ConversationSummary, error) {
	return s.getFn(ctx, userID, sessionID)
}
func (s *stubConversations) ListMessages(ctx context.Context, userID int64, sessionID string) ([]domain.Message, error) {
	return s.listMessagesFn(ctx, userID, sessionID)
}
func (s *stubConversations) UpdateTitle(ctx context.Context, userID int64, sessionID, title string) (*services.ConversationSummary, error) {
	return s.updateTitleFn(ctx, userID, sessionID, title)
}
func (s *stubConversations) Delete(ctx context.Context, userID int64, sessionID string) error {
	return s.deleteFn(ctx, userID, sessionID)
}
func (s *stubConversations) ListStats(ctx context.Context, userID int64) (int64, *time.Time, error) {
	if s.listStatsFn == nil {
		return 0, nil, context.Canceled // skip the ETag fast path
	}
	return s.listStatsFn(ctx, userID)
}
func (s *stubConversations) MessageStats(ctx context.Context, userID int64, sessionID string) (int64, *time.Time, error) {
	return s.messageStatsFn(ctx, userID, sessionID)
}

type stubTurns struct {
	sendFn   func(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, idemKey string) (*services.TurnResult, error)
	streamFn func(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, deliver func(chunk string) error) (*services.StreamResult, error)
}

func (s *stubTurns) Send(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, idemKey string) (*services.TurnResult, error) {
	return s.sendFn(ctx, userID, sessionID, message, maxTokens, temperature, idemKey)
}
func (s *stubTurns) Stream(ctx context.Context, userID int64, sessionID, message string, maxTokens int, temperature float64, deliver func(chunk string) error) (*services.StreamResult, error) {
	return s.streamFn(ctx, userID, sessionID, message, maxTokens, temperature, deliver)
}

type stubGoals struct {
	createFn        func(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error)
	listFn          func(ctx context.Context, userID int64, status string) ([]domain.Goal, error)
	getFn           func(ctx context.Context, userID, goalID int64) (*domain.Goal, error)
	updateFn        func(ctx context.Context, userID, goalID int64, upd services.GoalUpdate) (*domain.Goal, error)
	deleteFn        func(ctx context.Context, userID, goalID int64) error
	checkInFn       func(ctx context.Context, userID, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error)
	listCheckInsFn  func(ctx context.Context, userID, goalID int64, limit int) ([]domain.GoalCheckIn, error)
	updateCheckInFn func(ctx context.Context, userID, goalID, checkinID int64, upd services.CheckInUpdate) (*domain.GoalCheckIn, error)
	deleteCheckInFn func(ctx context.Context, userID, goalID, checkinID int64) error
}

func (s *stubGoals) Create(ctx context.Context, userID int64, title, description string, targetDate *time.Time) (*domain.Goal, error) {
	return s.createFn(ctx, userID, title, description, targetDate)
}
func (s *stubGoals) List(ctx context.Context, userID int64, status string) ([]domain.Goal, error) {
	return s.listFn(ctx, userID, status)
}
func (s *stubGoals) Get(ctx context.Context, userID, goalID int64) (*domain.Goal, error) {
	return s.getFn(ctx, userID, goalID)
}
func (s *stubGoals) Update(ctx context.Context, userID, goalID int64, upd services.GoalUpdate) (*domain.Goal, error) {
	return s.updateFn(ctx, userID, goalID, upd)
}
func (s *stubGoals) Delete(ctx context.Context, userID, goalID int64) error {
	return s.deleteFn(ctx, userID, goalID)
}
func (s *stubGoals) CheckIn(ctx context.Context, userID, goalID int64, progressNote string, completed bool) (*domain.GoalCheckIn, error) {
	return s.checkInFn(ctx, userID, goalID, progressNote, completed)
}
func (s *stubGoals) ListCheckIns(ctx context.Context, userID, goalID int64, limit int) ([]domain.GoalCheckIn, error) {
	return s.listCheckInsFn(ctx, userID, goalID, limit)
}
func (s *stubGoals) UpdateCheckIn(ctx context.Context, userID, goalID, checkinID int64, upd services.CheckInUpdate) (*domain.GoalCheckIn, error) {
	return s.updateCheckInFn(ctx, userID, goalID, checkinID, upd)
}
func (s *stubGoals) DeleteCheckIn(ctx context.Context, userID, goalID, checkinID int64) error {
	return s.deleteCheckInFn(ctx, userID, goalID, checkinID)
}

type stubFeedback struct {
	leaveFn func(ctx context.Context, userID int64, sessionID string, messageID int64, value int) (*domain.MessageFeedback, error)
}

func (s *stubFeedback) Leave(ctx context.Context, userID int64, sessionID string, messageID int64, value int) (*domain.MessageFeedback, error) {
	return s.leaveFn(ctx, userID, sessionID, messageID, value)
}

//
// Router helpers
//

// authedEngine returns a gin engine whose requests authenticate as uid via
// the real JWT middleware with a stub verifier. mount registers routes.
func authedEngine(uid int64, mount func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTAuth(func(ctx context.Context, token string) (int64, error) {
		return uid, nil
	}))
	mount(r)
	return r
}

// doJSON performs a request with an optional JSON body and the bearer header
// the authed engine expects.
func doJSON(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// doJSONWithHeader is doJSON plus one extra request header.
func doJSONWithHeader(r *gin.Engine, method, target, body, key, value string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set(key, value)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// newHandlers builds a Handlers with the given stubs; nil stubs stay nil and
// will panic when touched, making unexpected service calls loud.
func newHandlers(acc *stubAccounts, convs *stubConversations, turns *stubTurns, goals *stubGoals, fb *stubFeedback) *Handlers {
	h := &Handlers{version: "test"}
	if acc != nil {
		h.accounts = acc
	}
	if convs != nil {
		h.convs = convs
	}
	if turns != nil {
		h.turns = turns
	}
	if goals != nil {
		h.goals = goals
	}
	if fb != nil {
		h.feedback = fb
	}
	return h
}

func TestHandlersNewWiresEverything(t *testing.T) {
	acc := &stubAccounts{}
	convs := &stubConversations{}
	turns := &stubTurns{}
	goals := &stubGoals{}
	fb := &stubFeedback{}

	h := New(acc, convs, turns, goals, fb, nil, "1.2.3")
	if h.accounts != acc || h.convs != convs || h.turns != turns || h.goals != goals || h.feedback != fb {
		t.Fatalf("New did not retain the provided services")
	}
	if h.version != "1.2.3" {
		t.Fatalf("version = %q", h.version)
	}
}

func TestCurrentUserFailsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// No auth middleware mounted: the helper must produce the 401 itself.
	r.GET("/private", func(c *gin.Context) {
		if _, authed := currentUser(c); !authed {
			return
		}
		c.String(http.StatusOK, "never")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Could not validate credentials") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestPathIDValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/goals/:goalID", func(c *gin.Context) {
		id, okID := pathID(c, "goalID")
		if !okID {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, bad := range []string{"abc", "0", "-3", "1.5"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/goals/"+bad, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("param %q: status = %d; want 400", bad, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/goals/42", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":42`) {
		t.Fatalf("valid id: status=%d body=%s", w.Code, w.Body.String())
	}
}
