package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stay-on-one/internal/domain"
	"stay-on-one/internal/llm"
	"stay-on-one/internal/repository"
	"stay-on-one/internal/service"
)

var routerNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *service.AccountStore
	coach  *llm.MockClient
}

func setupRouter(t *testing.T, secret, passphraseHash string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	coach := &llm.MockClient{Response: "Solid first run. DELTA:+6"}
	store := service.NewAccountStore(
		repository.NewMemoryDocumentRepository(),
		coach,
		logger,
		service.WithClock(func() time.Time { return routerNow }, time.UTC),
	)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	jwtSvc := service.NewJWTService(secret, 15*time.Minute, time.Hour, nil)
	authSvc := service.NewAuthService(logger, passphraseHash, jwtSvc, nil)

	router := NewRouter(
		logger,
		jwtSvc,
		NewAuthHandler(logger, authSvc),
		NewAccountHandler(logger, store),
		NewCoachHandler(logger, store, service.NewCoachService(store, coach, logger), service.NewVisionService(store, coach, logger)),
	)
	return &testServer{router: router, store: store, coach: coach}
}

func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	srv := setupRouter(t, "", "")
	rec := performRequest(srv.router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestGoalCheckinFlow(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	rec := performRequest(r, http.MethodPut, "/goals/1", map[string]string{"text": "Run 5k", "metric": "km"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(50), decode(t, rec)["score"])

	rec = performRequest(r, http.MethodGet, "/goals/1/checkin", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(service.CheckinPending), decode(t, rec)["state"])

	rec = performRequest(r, http.MethodPost, "/goals/1/checkins", map[string]any{"note": "ran 3k", "mood": 4}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	checkin := body["checkin"].(map[string]any)
	assert.Equal(t, float64(56), checkin["new_score"])
	assert.Equal(t, string(service.RoundComplete), body["round"])

	rec = performRequest(r, http.MethodPost, "/goals/1/checkins", map[string]any{"note": "again", "mood": 4}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = performRequest(r, http.MethodGet, "/goals/1/history", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["active"])
	assert.Len(t, body["journey"], 1)
	assert.Len(t, body["months"], 1)
}

func TestCheckinErrors(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "unknown category", path: "/goals/13/checkins", body: map[string]any{"note": "x", "mood": 3}, status: http.StatusBadRequest},
		{name: "non numeric category", path: "/goals/abc/checkins", body: map[string]any{"note": "x", "mood": 3}, status: http.StatusBadRequest},
		{name: "no goal", path: "/goals/2/checkins", body: map[string]any{"note": "x", "mood": 3}, status: http.StatusNotFound},
		{name: "malformed body", path: "/goals/2/checkins", body: "nope", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performRequest(r, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	_, err := srv.store.SetGoal(2, "Read", "")
	require.NoError(t, err)
	rec := performRequest(r, http.MethodPost, "/goals/2/checkins", map[string]any{"note": "", "mood": 3}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "note", decode(t, rec)["field"])
	assert.Empty(t, srv.coach.Calls())
}

func TestRemovedGoalKeepsHistory(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	_, err := srv.store.SetGoal(3, "Call family", "")
	require.NoError(t, err)
	_, err = srv.store.RecordCheckin(context.Background(), 3, "called mom", 5)
	require.NoError(t, err)

	rec := performRequest(r, http.MethodDelete, "/goals/3", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = performRequest(r, http.MethodGet, "/goals/3/history", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["active"])
	assert.NotContains(t, body, "goal")

	rec = performRequest(r, http.MethodGet, "/goals/4/history", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifeWheelNeedsThreeGoals(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	rec := performRequest(r, http.MethodGet, "/life-wheel", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for _, id := range []int{1, 2, 3} {
		_, err := srv.store.SetGoal(id, "goal", "")
		require.NoError(t, err)
	}
	rec = performRequest(r, http.MethodGet, "/life-wheel?radius=80", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["points"], 3)

	rec = performRequest(r, http.MethodGet, "/life-wheel?radius=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardAndRound(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	rec := performRequest(r, http.MethodPut, "/account/name", map[string]string{"name": "Ada"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := srv.store.SetGoal(1, "Run 5k", "")
	require.NoError(t, err)

	rec = performRequest(r, http.MethodGet, "/dashboard", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode(t, rec)["dashboard"].(map[string]any)
	assert.Equal(t, "Ada", dash["name"])
	assert.Equal(t, "Good morning", dash["greeting"])

	rec = performRequest(r, http.MethodGet, "/round", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, string(service.RoundPending), body["round"])
	assert.Equal(t, []any{float64(1)}, body["pending"])

	rec = performRequest(r, http.MethodGet, "/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["categories"], domain.MaxCategoryID)
}

func TestGoalChatAndCoach(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router
	_, err := srv.store.SetGoal(1, "Run 5k", "")
	require.NoError(t, err)
	srv.coach.Response = "Run three times this week."

	rec := performRequest(r, http.MethodPost, "/goals/1/chat", map[string]string{"content": "How do I train?"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = performRequest(r, http.MethodGet, "/goals/1/chat", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["messages"], 2)

	rec = performRequest(r, http.MethodGet, "/coach/greeting?page=checkin", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["quick_prompts"])

	rec = performRequest(r, http.MethodPost, "/coach", map[string]any{
		"page":     "dashboard",
		"messages": []map[string]string{{"role": "user", "content": "What first?"}},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = performRequest(r, http.MethodPost, "/coach", map[string]any{"messages": []any{}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisionEndpoints(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router

	rec := performRequest(r, http.MethodPost, "/vision/regenerate", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := srv.store.SetGoal(1, "Run 5k", "")
	require.NoError(t, err)
	srv.coach.Response = "You finish what you start."
	rec = performRequest(r, http.MethodPost, "/vision/regenerate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["regenerated"])

	rec = performRequest(r, http.MethodPut, "/vision", map[string]string{"text": "Edited."}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(r, http.MethodGet, "/vision", nil, "")
	assert.Equal(t, "Edited.", decode(t, rec)["vision"])
}

func TestMutationsAfterStoreCloseAreUnavailable(t *testing.T) {
	srv := setupRouter(t, "", "")
	r := srv.router
	require.NoError(t, srv.store.Close(context.Background()))

	rec := performRequest(r, http.MethodPut, "/vision", map[string]string{"text": "Late."}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = performRequest(r, http.MethodPut, "/goals/1", map[string]string{"text": "Run 5k"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = performRequest(r, http.MethodGet, "/vision", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode(t, rec)["vision"])
}

func TestAuthProtectsAPI(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := setupRouter(t, "secret", string(hash))
	r := srv.router

	rec := performRequest(r, http.MethodGet, "/account", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(r, http.MethodPost, "/auth/token", map[string]string{"passphrase": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(r, http.MethodPost, "/auth/token", map[string]string{"passphrase": "open sesame"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tokens := decode(t, rec)["tokens"].(map[string]any)
	access := tokens["access_token"].(string)
	refresh := tokens["refresh_token"].(string)

	rec = performRequest(r, http.MethodGet, "/account", nil, access)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode(t, rec)["tokens"].(map[string]any)["refresh_token"].(string)

	rec = performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "old refresh token is revoked")

	rec = performRequest(r, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": rotated}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = performRequest(r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": rotated}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDisabledWithoutSecret(t *testing.T) {
	srv := setupRouter(t, "", "")
	rec := performRequest(srv.router, http.MethodPost, "/auth/token", map[string]string{"passphrase": "x"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := setupRouter(t, "secret", string(hash))

	var last int
	for i := 0; i < 6; i++ {
		last = performRequest(srv.router, http.MethodPost, "/auth/token", map[string]string{"passphrase": "wrong"}, "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
