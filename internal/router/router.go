package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goalgate/backend/internal/handler"
	"goalgate/backend/internal/middleware"
)

type Handlers struct {
	Goals       *handler.GoalHandler
	Pomodoro    *handler.PomodoroHandler
	Stats       *handler.StatsHandler
	Preferences *handler.PreferencesHandler
	Events      *handler.EventsHandler
}

func New(h Handlers, corsOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	goals := api.Group("/goals")
	goals.GET("", h.Goals.List)
	goals.POST("", h.Goals.Create)
	goals.GET("/:id", h.Goals.Get)
	goals.GET("/:id/final-timer", h.Goals.FinalTimer)
	goals.POST("/:id/complete", h.Goals.Complete)
	goals.POST("/:id/delay", h.Goals.Delay)
	goals.DELETE("/:id", h.Goals.Delete)

	api.GET("/stats", h.Stats.Summary)
	api.GET("/events", h.Events.Drain)

	pomodoro := api.Group("/pomodoro")
	pomodoro.GET("/state", h.Pomodoro.GetState)
	pomodoro.POST("/start", h.Pomodoro.Start)
	pomodoro.POST("/pause", h.Pomodoro.Pause)
	pomodoro.POST("/reset", h.Pomodoro.Reset)
	pomodoro.POST("/mode", h.Pomodoro.SwitchMode)
	pomodoro.PUT("/settings", h.Pomodoro.UpdateSettings)
	pomodoro.POST("/bind", h.Pomodoro.Bind)
	pomodoro.POST("/unbind", h.Pomodoro.Unbind)

	prefs := api.Group("/preferences")
	prefs.GET("", h.Preferences.Get)
	prefs.PUT("", h.Preferences.Update)
	prefs.POST("/theme/toggle", h.Preferences.ToggleTheme)

	return engine
}
