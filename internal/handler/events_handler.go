package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/events"
)

// EventsHandler hands buffered core events to the UI, which plays the
// matching animation or sound. Each event is delivered once.
type EventsHandler struct {
	recorder *events.Recorder
}

func NewEventsHandler(recorder *events.Recorder) *EventsHandler {
	return &EventsHandler{recorder: recorder}
}

func (h *EventsHandler) Drain(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.recorder.Drain()})
}
