package handlers

import (
	"github.com/gin-gonic/gin"
	"net/http"

	"github.com/yungbote/lingua-progress-backend/internal/domain/progress"
	"github.com/yungbote/lingua-progress-backend/internal/http/response"
	"github.com/yungbote/lingua-progress-backend/internal/services"
)

type SessionHandler struct {
	auth     services.AuthService
	sessions services.SessionService
}

func NewSessionHandler(auth services.AuthService, sessions services.SessionService) *SessionHandler {
	return &SessionHandler{auth: auth, sessions: sessions}
}

type saveSessionRequest struct {
	CurrentIndex int               `json:"currentIndex"`
	Answers      []progress.Answer `json:"answers"`
	IsCompleted  bool              `json:"isCompleted"`
	FinalScore   *float64          `json:"finalScore"`
}

// GET /api/progress/sessions/:unitId
func (h *SessionHandler) Get(c *gin.Context) {
	learnerID, err := h.auth.ResolveLearner(c.Request.Context(), "")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	view, err := h.sessions.Get(c.Request.Context(), learnerID, c.Param("unitId"))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": view})
}

// PUT /api/progress/sessions/:unitId
func (h *SessionHandler) Save(c *gin.Context) {
	var req saveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	learnerID, err := h.auth.ResolveLearner(c.Request.Context(), "")
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	view, err := h.sessions.Save(c.Request.Context(), services.SessionSaveInput{
		LearnerID:    learnerID,
		UnitID:       c.Param("unitId"),
		CurrentIndex: req.CurrentIndex,
		Answers:      req.Answers,
		IsCompleted:  req.IsCompleted,
		FinalScore:   req.FinalScore,
	})
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": view})
}
