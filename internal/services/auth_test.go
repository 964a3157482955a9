package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lingua-progress-backend/internal/data/repos/testutil"
	"github.com/yungbote/lingua-progress-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-progress-backend/internal/platform/ctxutil"
)

func newTestAuth(t *testing.T) AuthService {
	return NewAuthService(testutil.Logger(t), "test-secret", []string{"teacher", "admin"})
}

func TestMintAndVerifyToken(t *testing.T) {
	auth := newTestAuth(t)
	learner := uuid.New()
	tok, err := auth.MintToken(learner, "teacher", time.Hour)
	require.NoError(t, err)

	ctx, err := auth.SetContextFromToken(context.Background(), tok)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, learner, rd.LearnerID)
	assert.Equal(t, "teacher", rd.Role)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	auth := newTestAuth(t)
	learner := uuid.New()

	other := NewAuthService(testutil.Logger(t), "other-secret", nil)
	foreign, err := other.MintToken(learner, "", time.Hour)
	require.NoError(t, err)
	_, err = auth.SetContextFromToken(context.Background(), foreign)
	assert.Error(t, err)

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{Subject: learner.String()}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.SetContextFromToken(context.Background(), hs384)
	assert.Error(t, err)

	expiring := auth.(*authService)
	tok, err := expiring.MintToken(learner, "", time.Minute)
	require.NoError(t, err)
	expiring.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expiring.SetContextFromToken(context.Background(), tok)
	assert.Error(t, err)

	_, err = auth.SetContextFromToken(context.Background(), "")
	assert.Error(t, err)
}

func TestResolveLearner(t *testing.T) {
	auth := newTestAuth(t)
	self := uuid.New()
	other := uuid.New()

	_, err := auth.ResolveLearner(context.Background(), "")
	assert.Equal(t, http.StatusUnauthorized, apierr.FromError(err).Status)

	learnerCtx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{LearnerID: self, Role: "learner"})
	got, err := auth.ResolveLearner(learnerCtx, "")
	require.NoError(t, err)
	assert.Equal(t, self, got)
	got, err = auth.ResolveLearner(learnerCtx, self.String())
	require.NoError(t, err)
	assert.Equal(t, self, got)
	_, err = auth.ResolveLearner(learnerCtx, other.String())
	assert.Equal(t, http.StatusForbidden, apierr.FromError(err).Status)
	_, err = auth.ResolveLearner(learnerCtx, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, apierr.FromError(err).Status)

	teacherCtx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{LearnerID: self, Role: "Teacher"})
	got, err = auth.ResolveLearner(teacherCtx, other.String())
	require.NoError(t, err)
	assert.Equal(t, other, got)
}
