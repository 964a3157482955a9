package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	"github.com/yungbote/lingua-progress-backend/internal/observability"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db := testutil.DB(t)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := Config{
		JWTSecretKey:    "app-test-secret",
		PrivilegedRoles: []string{"teacher"},
		SessionCacheTTL: time.Hour,
	}
	a, err := Build(cfg, Deps{
		Log:     testutil.Logger(t),
		DB:      db,
		Redis:   rdb,
		Metrics: observability.New(0.5),
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func serve(t *testing.T, a *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, req)
	return rec
}

func TestBuildRequiresStores(t *testing.T) {
	_, err := Build(Config{}, Deps{})
	require.Error(t, err)
}

func TestCompletionFlowOverHTTP(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	testutil.SeedUnit(t, ctx, a.DB, "greetings-1", "pronunciation")
	learner := uuid.New()
	testutil.SeedAssignment(t, ctx, a.DB, learner, "greetings-1")

	token, err := a.Services.Auth.MintToken(learner, "learner", time.Hour)
	require.NoError(t, err)

	completion := map[string]any{
		"unitId":           "greetings-1",
		"score":            90,
		"correctAnswers":   9,
		"totalQuestions":   10,
		"timeSpentSeconds": 60,
		"answers": []map[string]any{{
			"type":       "pronunciation",
			"submitted":  true,
			"wordScores": []map[string]any{{"word": "hola", "score": 80}, {"word": "gracias", "score": 90}},
		}},
	}

	rec := serve(t, a, http.MethodPost, "/api/progress/completions", token, completion)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, true, first["streakUpdated"])
	assert.Equal(t, false, first["alreadyCompletedToday"])
	assert.EqualValues(t, 1, first["currentStreak"])

	rec = serve(t, a, http.MethodPost, "/api/progress/completions", token, completion)
	require.Equal(t, http.StatusOK, rec.Code)
	var replay map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replay))
	assert.Equal(t, false, replay["streakUpdated"])
	assert.Equal(t, true, replay["alreadyCompletedToday"])
	assert.EqualValues(t, 1, replay["currentStreak"])

	rec = serve(t, a, http.MethodGet, "/api/progress/pronunciation", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pron struct {
		Pronunciation struct {
			OverallScore         int `json:"overallScore"`
			TotalWordsPronounced int `json:"totalWordsPronounced"`
		} `json:"pronunciation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pron))
	assert.Equal(t, 85, pron.Pronunciation.OverallScore)
	assert.Equal(t, 2, pron.Pronunciation.TotalWordsPronounced)

	rec = serve(t, a, http.MethodGet, "/api/progress/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary struct {
		Streak struct {
			CurrentStreak int `json:"currentStreak"`
		} `json:"streak"`
		Confidence struct {
			CompletedUnits int `json:"completedUnits"`
			AssignedUnits  int `json:"assignedUnits"`
		} `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Streak.CurrentStreak)
	assert.Equal(t, 1, summary.Confidence.AssignedUnits)
	assert.Equal(t, 1, summary.Confidence.CompletedUnits)
}

func TestSessionRoundTripOverHTTP(t *testing.T) {
	a := newTestApp(t)
	testutil.SeedUnit(t, context.Background(), a.DB, "scene-2", "scene")
	token, err := a.Services.Auth.MintToken(uuid.New(), "learner", time.Hour)
	require.NoError(t, err)

	rec := serve(t, a, http.MethodPut, "/api/progress/sessions/scene-2", token, map[string]any{
		"currentIndex": 3,
		"answers":      []map[string]any{{"type": "scene", "index": 2, "submitted": true, "sceneScore": 64}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/api/progress/sessions/scene-2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Progress struct {
			UnitID       string `json:"unitId"`
			CurrentIndex int    `json:"currentIndex"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "scene-2", body.Progress.UnitID)
	assert.Equal(t, 3, body.Progress.CurrentIndex)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	a := newTestApp(t)

	rec := serve(t, a, http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"db":"ok","redis":"ok"}`, rec.Body.String())

	rec = serve(t, a, http.MethodGet, "/api/progress/streak", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, a, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lp_api_requests_total{method="GET",route="/api/progress/streak",status="401"} 1.000000`)
}

func TestListenAddr(t *testing.T) {
	assert.Equal(t, ":8080", Config{}.ListenAddr())
	assert.Equal(t, ":9000", Config{Port: ":9000"}.ListenAddr())
}
