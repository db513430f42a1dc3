package api

import (
	"github.com/akarpov/castwatch/app/checker"
	"github.com/akarpov/castwatch/app/config"
	"github.com/akarpov/castwatch/app/database"
	"github.com/akarpov/castwatch/app/tasks"
)

type Handler struct {
	appRepo     database.AppRepository
	configCache *config.Cache
	fetcher     checker.Fetcher
	scheduler   tasks.TaskSchedulerInterface
}
