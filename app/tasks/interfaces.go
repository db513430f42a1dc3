package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
