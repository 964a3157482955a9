package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/http/response"
	"github.com/yungbote/lingua-progress-backend/internal/platform/logger"
	"github.com/yungbote/lingua-progress-backend/internal/services"
)

type ProgressHandler struct {
	log         *logger.Logger
	auth        services.AuthService
	completions services.CompletionService
	progress    services.ProgressService
}

type ProgressHandlerDeps struct {
	Log         *logger.Logger
	Auth        services.AuthService
	Completions services.CompletionService
	Progress    services.ProgressService
}

func NewProgressHandler(deps ProgressHandlerDeps) *ProgressHandler {
	return &ProgressHandler{
		log:         deps.Log.With("handler", "ProgressHandler"),
		auth:        deps.Auth,
		completions: deps.Completions,
		progress:    deps.Progress,
	}
}

type submitCompletionRequest struct {
	UnitID           string            `json:"unitId"`
	Score            *float64          `json:"score"`
	CorrectAnswers   int               `json:"correctAnswers"`
	TotalQuestions   int               `json:"totalQuestions"`
	TimeSpentSeconds int               `json:"timeSpentSeconds"`
	Answers          []progress.Answer `json:"answers"`
}

// POST /api/progress/completions
func (h *ProgressHandler) SubmitCompletion(c *gin.Context) {
	var req submitCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Score == nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", errMissingScore)
		return
	}
	learnerID, ok := h.resolve(c, "")
	if !ok {
		return
	}
	out, err := h.completions.Submit(c.Request.Context(), services.CompletionInput{
		LearnerID:        learnerID,
		UnitID:           strings.TrimSpace(req.UnitID),
		Score:            *req.Score,
		CorrectCount:     req.CorrectAnswers,
		TotalCount:       req.TotalQuestions,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Answers:          req.Answers,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/progress/streak
func (h *ProgressHandler) GetStreak(c *gin.Context) {
	learnerID, ok := h.resolve(c, c.Query("learnerId"))
	if !ok {
		return
	}
	streak, err := h.progress.GetStreak(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"streak": streak})
}

// GET /api/progress/confidence
func (h *ProgressHandler) GetConfidence(c *gin.Context) {
	learnerID, ok := h.resolve(c, c.Query("learnerId"))
	if !ok {
		return
	}
	conf, err := h.progress.GetConfidence(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"confidence": conf})
}

// GET /api/progress/pronunciation
func (h *ProgressHandler) GetPronunciation(c *gin.Context) {
	learnerID, ok := h.resolve(c, c.Query("learnerId"))
	if !ok {
		return
	}
	pron, err := h.progress.GetPronunciation(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pronunciation": pron})
}

// GET /api/progress/summary
func (h *ProgressHandler) GetSummary(c *gin.Context) {
	learnerID, ok := h.resolve(c, c.Query("learnerId"))
	if !ok {
		return
	}
	summary, err := h.progress.GetSummary(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

// POST /api/progress/recompute
func (h *ProgressHandler) Recompute(c *gin.Context) {
	learnerID, ok := h.resolve(c, c.Query("learnerId"))
	if !ok {
		return
	}
	res, err := h.progress.Recompute(c.Request.Context(), learnerID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProgressHandler) resolve(c *gin.Context, requested string) (uuid.UUID, bool) {
	learnerID, err := h.auth.ResolveLearner(c.Request.Context(), requested)
	if err != nil {
		response.RespondFromError(c, err)
		return uuid.Nil, false
	}
	return learnerID, true
}
