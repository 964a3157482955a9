package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-progress-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthService verifies bearer tokens issued by the platform's identity service.
// Token issuance here exists for local tooling only.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	MintToken(learnerID uuid.UUID, role string, ttl time.Duration) (string, error)
	// ResolveLearner returns the learner a request acts on: the caller, or the
	// requested learner when the caller holds a privileged role.
	ResolveLearner(ctx context.Context, requested string) (uuid.UUID, error)
}

type authService struct {
	log             *logger.Logger
	jwtSecretKey    string
	privilegedRoles []string
	now             func() time.Time
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, privilegedRoles []string) AuthService {
	return &authService{
		log:             log.With("service", "AuthService"),
		jwtSecretKey:    jwtSecretKey,
		privilegedRoles: privilegedRoles,
		now:             time.Now,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, errors.New("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, errors.New("invalid or expired token")
	}
	learnerID, err := uuid.Parse(claims.Subject)
	if err != nil || learnerID == uuid.Nil {
		return ctx, errors.New("invalid subject in token")
	}
	rd := &ctxutil.RequestData{LearnerID: learnerID, Role: strings.TrimSpace(claims.Role)}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) MintToken(learnerID uuid.UUID, role string, ttl time.Duration) (string, error) {
	if learnerID == uuid.Nil {
		return "", errors.New("learner id is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := as.now()
	claims := JWTClaims{
		Role: strings.TrimSpace(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learnerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) ResolveLearner(ctx context.Context, requested string) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.LearnerID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return rd.LearnerID, nil
	}
	target, err := uuid.Parse(requested)
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "validation_error", fmt.Errorf("invalid learnerId: %w", err))
	}
	if target == rd.LearnerID {
		return target, nil
	}
	if !rd.HasRole(as.privilegedRoles...) {
		as.log.Warn("cross-learner read denied", "learner_id", rd.LearnerID, "role", rd.Role)
		return uuid.Nil, apierr.New(http.StatusForbidden, "forbidden", errors.New("forbidden"))
	}
	return target, nil
}
