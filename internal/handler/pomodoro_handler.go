package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/model"
	"goalgate/backend/internal/service"
)

type PomodoroHandler struct {
	engine *service.PomodoroEngine
	binder *service.Binder
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

type updateSettingsRequest struct {
	FocusDurationSeconds      int `json:"focusDurationSeconds"`
	ShortBreakDurationSeconds int `json:"shortBreakDurationSeconds"`
	LongBreakDurationSeconds  int `json:"longBreakDurationSeconds"`
}

type bindRequest struct {
	GoalID string `json:"goalId"`
}

func NewPomodoroHandler(engine *service.PomodoroEngine, binder *service.Binder) *PomodoroHandler {
	return &PomodoroHandler{engine: engine, binder: binder}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state": h.engine.State(),
		"stats": h.engine.DailyStats(),
	})
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.engine.Start()})
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.engine.Pause()})
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.engine.Reset()})
}

func (h *PomodoroHandler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, err := h.engine.SwitchMode(model.Mode(req.Mode))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, err := h.engine.UpdateDurations(model.Durations{
		FocusSeconds:      req.FocusDurationSeconds,
		ShortBreakSeconds: req.ShortBreakDurationSeconds,
		LongBreakSeconds:  req.LongBreakDurationSeconds,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) Bind(c *gin.Context) {
	var req bindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, err := h.binder.BindAndStart(c.Request.Context(), req.GoalID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) Unbind(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.binder.Unbind(c.Request.Context())})
}
