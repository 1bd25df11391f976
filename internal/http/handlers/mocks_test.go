package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"charter/internal/http/handlers"
	"charter/internal/http/middleware"
	"charter/internal/infra"
	"charter/internal/modules/estimate"
	"charter/internal/modules/notice"
	"charter/internal/modules/notification"
	"charter/internal/modules/review"
	"charter/internal/types"
)

// mockEstimates is a test double for the estimate services.
// Set only the method fields your test needs.
type mockEstimates struct {
	create        func(ctx context.Context, cmd estimate.CreateCommand) (*estimate.Estimate, error)
	list          func(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]estimate.Estimate, int, error)
	get           func(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error)
	getAny        func(ctx context.Context, id types.ID) (*estimate.Estimate, error)
	del           func(ctx context.Context, id, owner types.ID) error
	sheet         func(ctx context.Context, id, owner types.ID) ([]byte, string, error)
	override      func(ctx context.Context, cmd estimate.OverrideCommand) error
	updateAdmin   func(ctx context.Context, id types.ID, upd estimate.AdminUpdate, caller string) (*estimate.Estimate, error)
	transition    func(ctx context.Context, id types.ID, to estimate.Status, actor string) (*estimate.Estimate, error)
	finishSweep   func(ctx context.Context, today time.Time) (estimate.SweepResult, error)
	reminderSweep func(ctx context.Context) (estimate.SweepResult, error)
	today         time.Time
}

var (
	_ handlers.EstimateService      = (*mockEstimates)(nil)
	_ handlers.EstimateAdminService = (*mockEstimates)(nil)
)

func (m *mockEstimates) Create(ctx context.Context, cmd estimate.CreateCommand) (*estimate.Estimate, error) {
	return m.create(ctx, cmd)
}
func (m *mockEstimates) List(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]estimate.Estimate, int, error) {
	return m.list(ctx, owner, finished, page)
}
func (m *mockEstimates) Get(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error) {
	return m.get(ctx, id, owner)
}
func (m *mockEstimates) GetAny(ctx context.Context, id types.ID) (*estimate.Estimate, error) {
	return m.getAny(ctx, id)
}
func (m *mockEstimates) Delete(ctx context.Context, id, owner types.ID) error {
	return m.del(ctx, id, owner)
}
func (m *mockEstimates) Sheet(ctx context.Context, id, owner types.ID) ([]byte, string, error) {
	return m.sheet(ctx, id, owner)
}
func (m *mockEstimates) OverrideStatus(ctx context.Context, cmd estimate.OverrideCommand) error {
	return m.override(ctx, cmd)
}
func (m *mockEstimates) UpdateAdministrative(ctx context.Context, id types.ID, upd estimate.AdminUpdate, caller string) (*estimate.Estimate, error) {
	return m.updateAdmin(ctx, id, upd, caller)
}
func (m *mockEstimates) Transition(ctx context.Context, id types.ID, to estimate.Status, actor string) (*estimate.Estimate, error) {
	return m.transition(ctx, id, to, actor)
}
func (m *mockEstimates) RunFinishSweep(ctx context.Context, today time.Time) (estimate.SweepResult, error) {
	return m.finishSweep(ctx, today)
}
func (m *mockEstimates) RunDepositReminderSweep(ctx context.Context) (estimate.SweepResult, error) {
	return m.reminderSweep(ctx)
}
func (m *mockEstimates) Today() time.Time { return m.today }

type mockReviews struct {
	create func(ctx context.Context, cmd review.CreateCommand) (*review.Review, error)
	list   func(ctx context.Context, page types.Page) ([]review.Review, int, error)
}

var _ handlers.ReviewService = (*mockReviews)(nil)

func (m *mockReviews) Create(ctx context.Context, cmd review.CreateCommand) (*review.Review, error) {
	return m.create(ctx, cmd)
}
func (m *mockReviews) List(ctx context.Context, page types.Page) ([]review.Review, int, error) {
	return m.list(ctx, page)
}

type mockNotices struct {
	create func(ctx context.Context, cmd notice.CreateCommand) (*notice.Notice, error)
	list   func(ctx context.Context, page types.Page) ([]notice.Notice, int, error)
}

var _ handlers.NoticeService = (*mockNotices)(nil)

func (m *mockNotices) Create(ctx context.Context, cmd notice.CreateCommand) (*notice.Notice, error) {
	return m.create(ctx, cmd)
}
func (m *mockNotices) List(ctx context.Context, page types.Page) ([]notice.Notice, int, error) {
	return m.list(ctx, page)
}

type mockNotifications struct {
	register func(ctx context.Context, userID types.ID, token string) error
	list     func(ctx context.Context, userID types.ID, page types.Page) ([]notification.Record, int, error)
	markRead func(ctx context.Context, userID types.ID, id int64) error
	send     func(ctx context.Context, userID types.ID, title, body string) (bool, error)
}

var _ handlers.NotificationService = (*mockNotifications)(nil)

func (m *mockNotifications) RegisterToken(ctx context.Context, userID types.ID, token string) error {
	return m.register(ctx, userID, token)
}
func (m *mockNotifications) List(ctx context.Context, userID types.ID, page types.Page) ([]notification.Record, int, error) {
	return m.list(ctx, userID, page)
}
func (m *mockNotifications) MarkRead(ctx context.Context, userID types.ID, id int64) error {
	return m.markRead(ctx, userID, id)
}
func (m *mockNotifications) Send(ctx context.Context, userID types.ID, title, body string) (bool, error) {
	return m.send(ctx, userID, title, body)
}

type mockVerification struct {
	send   func(ctx context.Context, phone string) error
	verify func(ctx context.Context, phone, code string) error
}

var _ handlers.VerificationService = (*mockVerification)(nil)

func (m *mockVerification) SendCode(ctx context.Context, phone string) error {
	return m.send(ctx, phone)
}
func (m *mockVerification) Verify(ctx context.Context, phone, code string) error {
	return m.verify(ctx, phone, code)
}

// tokenVerifier maps bearer tokens to callers.
type tokenVerifier map[string]*infra.FirebaseToken

func (v tokenVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.FirebaseToken, error) {
	if t, ok := v[raw]; ok {
		return t, nil
	}
	return nil, types.ErrNotFound
}

const (
	userToken  = "user-token"
	userUID    = "user-1"
	adminToken = "admin-token"
	adminUID   = "admin-1"
)

var testVerifier = tokenVerifier{
	userToken:  {UID: userUID, Claims: map[string]interface{}{}},
	adminToken: {UID: adminUID, Claims: map[string]interface{}{"role": "admin"}},
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	return r
}

func authed() gin.HandlerFunc { return middleware.Auth(testVerifier) }

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func do(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Result  bool              `json:"result"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func fixtureEstimate() *estimate.Estimate {
	owner := types.ID(userUID)
	ret := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	pc := 30
	return &estimate.Estimate{
		ID:             types.ID("0b6c3f52-8c7e-4a35-9a53-2f9d1c3b7a10"),
		OwnerID:        &owner,
		Departure:      estimate.Address{Name: "Seoul Station", Latitude: "37.5547", Longitude: "126.9706"},
		Destination:    estimate.Address{Name: "Gangneung", Latitude: "37.7519", Longitude: "128.8761"},
		DepartureAt:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		ReturnAt:       &ret,
		TripKind:       "ROUND_TRIP",
		Status:         estimate.StatusUnderReview,
		Purpose:        estimate.PurposeTour,
		Quote:          estimate.Quote{Price: types.Won(992000), VehicleClass: "standard", TripKind: "ROUND_TRIP"},
		Vehicle:        estimate.Vehicle{Class: "standard", Seats: 45, Count: 1},
		Price:          types.Won(992000),
		PassengerCount: &pc,
		CreatedAt:      time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
	}
}
