package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional collaborators (task queue, backups, event bus) only add routes
// when present.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(NewReadOnlyMiddleware(cfg.ReadOnly).Handler())

	var publisher Publisher = noopPublisher{}
	if cfg.Bus != nil {
		publisher = cfg.Bus
	}

	health := NewHealthController(cfg.Library, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Songs
	songs := NewSongsController(cfg.Library, publisher, cfg.MediaDir)
	api.GET("/songs", songs.ListSongs)
	api.POST("/songs", songs.CreateSong)
	api.GET("/songs/:id", songs.GetSong)
	api.PUT("/songs/:id", songs.UpdateSong)
	api.DELETE("/songs/:id", songs.DeleteSong)
	api.POST("/songs/:id/favorite", songs.ToggleFavorite)
	api.GET("/songs/:id/verses", songs.GetVerses)
	api.POST("/songs/:id/audio", songs.UploadAudio)

	// Members
	members := NewMembersController(cfg.Library, publisher)
	api.GET("/members", members.ListMembers)
	api.POST("/members", members.CreateMember)
	api.GET("/members/:id", members.GetMember)
	api.PUT("/members/:id", members.UpdateMember)
	api.DELETE("/members/:id", members.DeleteMember)

	// Categories
	categories := NewCategoriesController(cfg.Library, publisher)
	api.GET("/categories", categories.ListCategories)
	api.POST("/categories", categories.CreateCategory)
	api.POST("/categories/recompute", categories.RecomputeCounts)
	api.GET("/categories/:id", categories.GetCategory)
	api.PUT("/categories/:id", categories.UpdateCategory)
	api.DELETE("/categories/:id", categories.DeleteCategory)
	api.GET("/categories/:id/songs", categories.GetCategorySongs)

	// Choirs
	choirs := NewChoirsController(cfg.Library, publisher)
	api.GET("/choirs", choirs.ListChoirs)
	api.POST("/choirs", choirs.CreateChoir)
	api.GET("/choirs/:id", choirs.GetChoir)
	api.PUT("/choirs/:id", choirs.UpdateChoir)
	api.DELETE("/choirs/:id", choirs.DeleteChoir)

	// Settings and verse of the day
	settings := NewSettingsController(cfg.Library, publisher)
	api.GET("/settings", settings.GetSettings)
	api.PUT("/settings", settings.UpdateSettings)
	api.GET("/verse", settings.GetVerse)

	// Whole-library operations
	var queue TaskEnqueuer
	if cfg.TaskQueue != nil {
		queue = cfg.TaskQueue
	}
	data := NewDataController(cfg.Library, publisher, queue, cfg.Backups)
	api.GET("/stats", data.Stats)
	api.GET("/export", data.Export)
	api.POST("/import", data.Import)
	api.POST("/reset", data.Reset)
	api.GET("/backups", data.BackupStatus)
	api.POST("/backups", data.Backup)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	// Event stream
	if cfg.Bus != nil {
		eventsController := NewEventsController(cfg.Bus)
		api.GET("/events", eventsController.Stream)
	}

	return router
}
