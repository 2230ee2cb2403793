package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/service"
)

type PreferencesHandler struct {
	preferencesService *service.PreferencesService
}

type updatePreferencesRequest struct {
	Theme             *string `json:"theme"`
	PomodoroCollapsed *bool   `json:"pomodoroCollapsed"`
}

func NewPreferencesHandler(preferencesService *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

func (h *PreferencesHandler) Get(c *gin.Context) {
	prefs, err := h.preferencesService.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

func (h *PreferencesHandler) Update(c *gin.Context) {
	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	prefs, err := h.preferencesService.Update(c.Request.Context(), service.UpdatePreferencesInput{
		Theme:             req.Theme,
		PomodoroCollapsed: req.PomodoroCollapsed,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

func (h *PreferencesHandler) ToggleTheme(c *gin.Context) {
	prefs, err := h.preferencesService.ToggleTheme(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}
