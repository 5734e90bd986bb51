package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abebe-delivery/gateway/internal/config"
	"github.com/abebe-delivery/gateway/internal/entity"
)

type fakeAlerter struct {
	alerts []string
}

func (f *fakeAlerter) Alert(text string) { f.alerts = append(f.alerts, text) }

type fakePusher struct {
	pushes []string
}

func (f *fakePusher) PushToUser(_ context.Context, userID, title, _ string, _ map[string]string) {
	f.pushes = append(f.pushes, userID+"|"+title)
}

type fakeReviews struct {
	stored []*entity.Review
}

func (f *fakeReviews) Insert(_ context.Context, rev *entity.Review) error {
	f.stored = append(f.stored, rev)
	return nil
}

func (f *fakeReviews) ListRecent(context.Context, int) ([]entity.Review, error) {
	return nil, nil
}

// fakeCrashes counts occurrences per fingerprint like the real repository.
type fakeCrashes struct {
	counts map[string]int
}

func (f *fakeCrashes) Record(_ context.Context, report entity.CrashLog) (*entity.CrashLog, error) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[report.LogHash]++
	report.Count = f.counts[report.LogHash]
	return &report, nil
}

type fakePlacer struct{}

func (fakePlacer) Place(_ context.Context, order, _ json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{"id": 1}`), nil
}

type gwFixture struct {
	handler *Handler
	alerter *fakeAlerter
	pusher  *fakePusher
	reviews *fakeReviews
}

func newGWFixture(cfg config.Config) *gwFixture {
	alerter := &fakeAlerter{}
	pusher := &fakePusher{}
	reviews := &fakeReviews{}
	handler := NewHandler(HandlerDeps{
		Config:  cfg,
		Pusher:  pusher,
		Alerter: alerter,
		Reviews: reviews,
		Crashes: &fakeCrashes{},
		Placer:  fakePlacer{},
		Logger:  zap.NewNop(),
	})
	return &gwFixture{handler: handler, alerter: alerter, pusher: pusher, reviews: reviews}
}

func perform(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	Register(e, h)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProxyInjectsKeyAndRelays(t *testing.T) {
	var got *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer upstream.Close()

	cfg := config.Config{}
	cfg.Supabase.URL = upstream.URL
	cfg.Supabase.AnonKey = "anon-123"
	f := newGWFixture(cfg)

	rec := perform(t, f.handler, http.MethodGet, "/api/proxy/rest/v1/menu_items?select=*", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `[{"id":1}]`, rec.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, "/rest/v1/menu_items", got.URL.Path)
	assert.Equal(t, "select=*", got.URL.RawQuery)
	assert.Equal(t, "anon-123", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-123", got.Header.Get("Authorization"))
}

func TestProxyKeepsRealUserToken(t *testing.T) {
	var auth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	cfg := config.Config{}
	cfg.Supabase.URL = upstream.URL
	cfg.Supabase.AnonKey = "anon-123"
	f := newGWFixture(cfg)

	e := echo.New()
	Register(e, f.handler)
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/auth/v1/user", nil)
	req.Header.Set("Authorization", "Bearer user-jwt")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "Bearer user-jwt", auth)
}

func TestProxyReplacesPlaceholderToken(t *testing.T) {
	var auth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	cfg := config.Config{}
	cfg.Supabase.URL = upstream.URL
	cfg.Supabase.AnonKey = "anon-123"
	f := newGWFixture(cfg)

	e := echo.New()
	Register(e, f.handler)
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/rest/v1/orders", nil)
	req.Header.Set("Authorization", placeholderBearer)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "Bearer anon-123", auth)
}

func TestProxyRefusesUnlistedPaths(t *testing.T) {
	cfg := config.Config{}
	cfg.Supabase.URL = "http://upstream.invalid"
	f := newGWFixture(cfg)

	rec := perform(t, f.handler, http.MethodGet, "/api/proxy/functions/v1/admin", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(t, f.handler, http.MethodGet, "/api/proxy/pg/admin", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProxyStorageUploadsUpsert(t *testing.T) {
	var upsert string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upsert = r.Header.Get("x-upsert")
	}))
	defer upstream.Close()

	cfg := config.Config{}
	cfg.Supabase.URL = upstream.URL
	f := newGWFixture(cfg)

	perform(t, f.handler, http.MethodPut, "/api/proxy/storage/v1/object/proofs/a.jpg", `{}`)
	assert.Equal(t, "true", upsert)
}

func TestNewCrashClusterAlertsImmediately(t *testing.T) {
	f := newGWFixture(config.Config{})

	rec := perform(t, f.handler, http.MethodPost, "/api/log",
		`{"error_message": "boom on launch", "error_stack": "at main.js:1", "app_type": "driver"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "New crash")
	assert.Contains(t, f.alerter.alerts[0], "driver")
	assert.Contains(t, f.alerter.alerts[0], "boom on launch")
}

func TestCrashAlertFiresAtThreshold(t *testing.T) {
	f := newGWFixture(config.Config{})

	payload := `{"error_message": "NPE in checkout", "error_stack": "at checkout.js:10", "app_type": "customer"}`
	for i := 0; i < 10; i++ {
		rec := perform(t, f.handler, http.MethodPost, "/api/log", payload)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// The first report alerts, occurrences 2-9 stay quiet, the 10th
	// crosses a threshold.
	require.Len(t, f.alerter.alerts, 2)
	assert.Contains(t, f.alerter.alerts[0], "New crash")
	assert.Contains(t, f.alerter.alerts[1], "10 occurrences")
	assert.Contains(t, f.alerter.alerts[1], "NPE in checkout")
}

func TestDifferentStacksClusterSeparately(t *testing.T) {
	crashes := &fakeCrashes{}
	f := newGWFixture(config.Config{})
	f.handler.crashes = crashes

	perform(t, f.handler, http.MethodPost, "/api/log", `{"error_message": "boom", "error_stack": "at a.js:1"}`)
	perform(t, f.handler, http.MethodPost, "/api/log", `{"error_message": "boom", "error_stack": "at b.js:2"}`)

	assert.Len(t, crashes.counts, 2)
}

func TestReviewStoredAndAnnounced(t *testing.T) {
	f := newGWFixture(config.Config{})

	rec := perform(t, f.handler, http.MethodPost, "/api/reviews",
		`{"user_id": "u1", "rating": 5, "comment": "great burgers", "full_name": "Sara"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.reviews.stored, 1)
	assert.Equal(t, 5, f.reviews.stored[0].Rating)
	require.Len(t, f.alerter.alerts, 1)
	assert.Contains(t, f.alerter.alerts[0], "Sara")
}

func TestReviewRatingValidated(t *testing.T) {
	f := newGWFixture(config.Config{})

	rec := perform(t, f.handler, http.MethodPost, "/api/reviews", `{"rating": 9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.reviews.stored)
}

func TestRemindDefaultsAndPushes(t *testing.T) {
	f := newGWFixture(config.Config{})

	rec := perform(t, f.handler, http.MethodPost, "/api/remind", `{"user_id": "u9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.pusher.pushes, 1)
	assert.Equal(t, "u9|⏰ Order Reminder", f.pusher.pushes[0])

	rec = perform(t, f.handler, http.MethodPost, "/api/remind", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRealtimeConfigExposesConnectionDetails(t *testing.T) {
	cfg := config.Config{}
	cfg.Supabase.URL = "https://db.example.com"
	cfg.Supabase.AnonKey = "anon-xyz"
	f := newGWFixture(cfg)

	rec := perform(t, f.handler, http.MethodGet, "/api/realtime-config", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "anon-xyz")
}

func TestLandingAndLegalPages(t *testing.T) {
	f := newGWFixture(config.Config{})

	for _, path := range []string{"/", "/privacy", "/terms", "/account-deletion"} {
		rec := perform(t, f.handler, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html", path)
	}

	rec := perform(t, f.handler, http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPlaceOrderReturnsProcedureResult(t *testing.T) {
	f := newGWFixture(config.Config{})

	rec := perform(t, f.handler, http.MethodPost, "/api/orders",
		fmt.Sprintf(`{"order": {"user_id": "u1"}, "items": [%s]}`, `{"menu_item_id": 2, "quantity": 1}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id"`)
}
