package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akarpov/castwatch/app/config"
	"github.com/akarpov/castwatch/app/database"
)

// SyncAppConfigTask mirrors an app config file into the database so that
// check state survives restarts and config edits.
type SyncAppConfigTask struct {
	Task

	appConfig *config.Config
	appRepo   database.AppRepository
}

func NewSyncAppConfigTask(appConfig *config.Config, appRepo database.AppRepository) *SyncAppConfigTask {
	return &SyncAppConfigTask{
		Task:      NewTask(TaskTypeSyncAppConfig, appConfig.Name),
		appConfig: appConfig,
		appRepo:   appRepo,
	}
}

func (t *SyncAppConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.appRepo.UpsertApp(t.appConfig.Name, t.appConfig.URL, t.appConfig.Version); err != nil {
		return fmt.Errorf("failed to sync app config %s: %w", t.appConfig.Name, err)
	}

	slog.Info("Task completed", "type", t.Type, "app", t.AppName, "duration", t.GetDuration())
	return nil
}
