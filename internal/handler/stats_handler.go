package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.statsService.Summary()})
}
