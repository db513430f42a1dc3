package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akarpov/castwatch/app/cfg"
	"github.com/akarpov/castwatch/app/checker"
	"github.com/akarpov/castwatch/app/config"
	"github.com/akarpov/castwatch/app/database"
	"github.com/akarpov/castwatch/app/notes"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	appRepo     database.AppRepository
	configCache *config.Cache
	fetcher     checker.Fetcher
	extractor   *notes.Extractor
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *config.Cache, appRepo database.AppRepository,
	fetcher checker.Fetcher, extractor *notes.Extractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		appRepo:     appRepo,
		configCache: configCache,
		fetcher:     fetcher,
		extractor:   extractor,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	appConfigs := s.configCache.GetConfigs()
	if len(appConfigs) == 0 {
		slog.Debug("No app configurations found")
		return
	}

	slog.Debug("Processing app configurations", "count", len(appConfigs))

	for _, appConfig := range appConfigs {
		syncTask := NewSyncAppConfigTask(appConfig, s.appRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncAppConfigTask", "app", appConfig.Name, "error", err)
			continue
		}

		if !appConfig.Settings.Enabled {
			slog.Debug("App disabled, skipping CheckUpdateTask", "app", appConfig.Name)
			continue
		}

		checkTask := NewCheckUpdateTask(appConfig, s.appRepo, s.fetcher, false)
		if err := s.EnqueueTask(checkTask); err != nil {
			slog.Warn("Failed to enqueue CheckUpdateTask", "app", appConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	appConfigs := s.configCache.GetEnabledConfigs()
	if len(appConfigs) == 0 {
		slog.Debug("No enabled app configurations found")
		return
	}

	slog.Debug("Processing enabled app configurations for task scheduling", "count", len(appConfigs))

	for _, appConfig := range appConfigs {
		app, err := s.appRepo.GetApp(appConfig.Name)
		if err != nil {
			slog.Warn("Failed to get app from database, skipping", "app", appConfig.Name, "error", err)
			continue
		}
		if app == nil {
			slog.Warn("App not found in database, skipping", "app", appConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if app.NextCheckAt != nil && app.NextCheckAt.After(now) {
			slog.Debug("App not due for check yet", "app", appConfig.Name, "next_check_at", app.NextCheckAt)
		} else {
			checkTask := NewCheckUpdateTask(appConfig, s.appRepo, s.fetcher, false)
			if err := s.EnqueueTask(checkTask); err != nil {
				slog.Warn("Failed to enqueue CheckUpdateTask", "app", appConfig.Name, "error", err)
			}
		}

		if appConfig.Settings.ExtractNotes && app.ReleaseNotesURL != "" && app.NotesExtractedAt == nil {
			extractTask := NewExtractNotesTask(appConfig.Name, s.appRepo, s.fetcher, s.extractor)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractNotesTask", "app", appConfig.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "app", task.GetAppName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
