package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akarpov/castwatch/app/appcast"
	"github.com/akarpov/castwatch/app/checker"
	"github.com/akarpov/castwatch/app/config"
	"github.com/akarpov/castwatch/app/database"
	"github.com/akarpov/castwatch/app/tasks"
)

func NewHandler(configCache *config.Cache, appRepo database.AppRepository,
	fetcher checker.Fetcher, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		appRepo:     appRepo,
		configCache: configCache,
		fetcher:     fetcher,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if appCount, err := h.appRepo.GetAppCount(); err == nil {
		health["apps"] = appCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListApps(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	apps := make([]map[string]interface{}, 0, len(configs))

	for _, appConfig := range configs {
		appInfo := map[string]interface{}{
			"name":           appConfig.Name,
			"url":            appConfig.URL,
			"version":        appConfig.Version,
			"enabled":        appConfig.Settings.Enabled,
			"check_interval": (time.Duration(appConfig.Settings.CheckInterval) * time.Second).String(),
		}

		if app, err := h.appRepo.GetApp(appConfig.Name); err == nil && app != nil {
			appInfo["last_check_at"] = app.LastCheckAt
			appInfo["next_check_at"] = app.NextCheckAt
			appInfo["last_outcome"] = app.LastOutcome
			appInfo["latest_version"] = app.LatestVersion
		}

		apps = append(apps, appInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"apps":  apps,
		"total": len(apps),
	})
}

func (h *Handler) APIGetAppDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	appConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("App configuration not found", "app", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "App configuration not found"})
		return
	}

	app, err := h.appRepo.GetApp(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_app", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if app == nil {
		slog.Error("App not found in database", "app", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":           name,
		"url":            appConfig.URL,
		"version":        appConfig.Version,
		"enabled":        appConfig.Settings.Enabled,
		"check_interval": (time.Duration(appConfig.Settings.CheckInterval) * time.Second).String(),
		"timeout":        (time.Duration(appConfig.Settings.Timeout) * time.Second).String(),
		"extract_notes":  appConfig.Settings.ExtractNotes,
	}

	details["database"] = map[string]interface{}{
		"id":              app.ID,
		"name":            app.Name,
		"skipped_version": app.SkippedVersion,
		"last_check_at":   app.LastCheckAt,
		"next_check_at":   app.NextCheckAt,
		"last_outcome":    app.LastOutcome,
		"last_error":      app.LastError,
		"created_at":      app.CreatedAt,
		"updated_at":      app.UpdatedAt,
	}

	if app.LatestVersion != "" {
		details["release"] = map[string]interface{}{
			"version":            app.LatestVersion,
			"short_version":      app.LatestShortVersion,
			"download_url":       app.DownloadURL,
			"title":              app.ReleaseTitle,
			"description":        app.ReleaseDescription,
			"release_notes_url":  app.ReleaseNotesURL,
			"notes_extracted_at": app.NotesExtractedAt,
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIGetAppNotes(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	app, err := h.appRepo.GetApp(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_app", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found in database"})
		return
	}

	if app.NotesExtractedAt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Release notes not extracted yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":              name,
		"version":           app.LatestVersion,
		"release_notes_url": app.ReleaseNotesURL,
		"release_notes":     app.ReleaseNotes,
		"extracted_at":      app.NotesExtractedAt,
	})
}

// APICheckApp enqueues a user-initiated check. Manual checks bypass HTTP
// caches and ignore the skipped version. The response is sent once a worker
// has picked the check up, or after a short wait if all workers are busy.
func (h *Handler) APICheckApp(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	appConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("App configuration not found", "app", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "App configuration not found"})
		return
	}

	checkTask := tasks.NewCheckUpdateTask(appConfig, h.appRepo, h.fetcher, true)
	if err := h.scheduler.EnqueueTask(checkTask); err != nil {
		slog.Error("Error enqueueing check task", "app", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue check task",
			"details": err.Error(),
		})
		return
	}

	started := false
	select {
	case <-checkTask.Started():
		started = true
	case <-time.After(2 * time.Second):
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Update check enqueued",
		"started": started,
		"task": gin.H{
			"id":   checkTask.ID,
			"type": checkTask.Type,
		},
	})
}

type skipRequest struct {
	Version string `json:"version"`
}

// APISkipVersion marks a version as skipped so automatic checks stop
// reporting it. Without an explicit version in the body, the latest known
// release is skipped.
func (h *Handler) APISkipVersion(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	var req skipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	version := req.Version
	if version == "" {
		app, err := h.appRepo.GetApp(name)
		if err != nil {
			slog.Error("Database error", "operation", "get_app", "app", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if app == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "App not found in database"})
			return
		}
		if app.LatestVersion == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "No known release to skip"})
			return
		}
		version = app.LatestVersion
	}

	if err := h.appRepo.SetSkippedVersion(name, version); err != nil {
		slog.Error("Error storing skipped version", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store skipped version"})
		return
	}

	slog.Info("Version skipped", "app", name, "version", version)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"name":    name,
		"version": version,
	})
}

func (h *Handler) APIUnskipVersion(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	if err := h.appRepo.ClearSkippedVersion(name); err != nil {
		slog.Error("Error clearing skipped version", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear skipped version"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"name":    name,
	})
}

// APIProbeApp fetches the configured feed and reports what kind of document
// it is without running the update workflow. Useful when a feed keeps
// failing to parse.
func (h *Handler) APIProbeApp(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	appConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("App configuration not found", "app", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "App configuration not found"})
		return
	}

	data, err := h.fetcher.Fetch(c.Request.Context(), appConfig.URL, true)
	if err != nil {
		slog.Error("Error fetching feed for probe", "app", name, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch feed", "details": err.Error()})
		return
	}

	result, err := appcast.Probe(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to parse feed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        name,
		"url":         appConfig.URL,
		"feed_type":   result.FeedType,
		"title":       result.Title,
		"description": result.Description,
		"item_count":  result.ItemCount,
	})
}

// APIReloadApp re-reads the config file from disk and syncs it into the
// database.
func (h *Handler) APIReloadApp(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing app name parameter"})
		return
	}

	appConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncAppConfigTask(appConfig, h.appRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "app", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued",
		"app": gin.H{
			"name":    name,
			"url":     appConfig.URL,
			"version": appConfig.Version,
		},
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}
