package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/delaygate"
	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
	"goalgate/backend/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

type createGoalRequest struct {
	Text             string `json:"text"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Importance       int    `json:"importance"`
}

// goalResponse is a goal plus the badge fields the UI derives from it.
type goalResponse struct {
	model.Goal
	DelayTier   model.DelayTier `json:"delayTier"`
	FinalRegime bool            `json:"finalRegime"`
}

func toGoalResponse(goal model.Goal) goalResponse {
	return goalResponse{Goal: goal, DelayTier: goal.Tier(), FinalRegime: goal.InFinalRegime()}
}

func toGoalResponses(goals []model.Goal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	return out
}

// goalBody wraps goal for a response; a nil goal stays null.
func goalBody(goal *model.Goal) gin.H {
	if goal == nil {
		return gin.H{"goal": nil}
	}
	return gin.H{"goal": toGoalResponse(*goal)}
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func (h *GoalHandler) List(c *gin.Context) {
	view := service.GoalView(c.DefaultQuery("view", string(service.ViewAll)))
	switch view {
	case service.ViewAll, service.ViewDelaying, service.ViewCompleted:
	default:
		writeError(c, apperrors.BadRequest("invalid_view", "view must be all, delaying or completed"))
		return
	}

	body := gin.H{"goals": toGoalResponses(h.goalService.List(view))}
	savedAt, err := h.goalService.LastSaved(c.Request.Context())
	if err != nil {
		observability.LoggerFromContext(c.Request.Context()).Warn("read goals save time", "error", err)
	}
	if savedAt != nil {
		body["lastSavedAt"] = savedAt
	}
	c.JSON(http.StatusOK, body)
}

func (h *GoalHandler) Get(c *gin.Context) {
	goal, err := h.goalService.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goalBody(goal))
}

func (h *GoalHandler) Create(c *gin.Context) {
	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	goal, err := h.goalService.Create(c.Request.Context(), service.CreateGoalInput{
		Text:             req.Text,
		EstimatedMinutes: req.EstimatedMinutes,
		Importance:       req.Importance,
	})
	body := goalBody(goal)
	if err != nil && !persistWarning(c, err, body) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (h *GoalHandler) Complete(c *gin.Context) {
	goal, err := h.goalService.Complete(c.Request.Context(), c.Param("id"))
	body := goalBody(goal)
	if err != nil && !persistWarning(c, err, body) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Delay answers 409 when the gate refuses; the goal is returned untouched.
func (h *GoalHandler) Delay(c *gin.Context) {
	outcome, err := h.goalService.Delay(c.Request.Context(), c.Param("id"))
	if outcome == nil {
		writeError(c, err)
		return
	}

	if !outcome.Decision.Allowed {
		writeError(c, delayDenied(outcome.Decision))
		return
	}

	body := gin.H{"goal": toGoalResponse(outcome.Goal), "finalWarning": outcome.FinalWarning}
	if err != nil && !persistWarning(c, err, body) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	err := h.goalService.Delete(c.Request.Context(), c.Param("id"))
	body := gin.H{"deleted": true}
	if err != nil && !persistWarning(c, err, body) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *GoalHandler) FinalTimer(c *gin.Context) {
	view, err := h.goalService.FinalTimer(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"finalTimer": view})
}

func delayDenied(decision delaygate.Decision) *apperrors.APIError {
	details := gin.H{"reason": decision.Reason}
	if !decision.Terminal() {
		details["retryAfterMinutes"] = decision.RetryAfterMinutes()
	}
	return apperrors.Conflict("delay_denied", decision.Message(), details)
}
