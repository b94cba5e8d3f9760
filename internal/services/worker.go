package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/database"
	"github.com/fyerfyer/slide-gen-system/internal/repository"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
)

// EnableAsyncProcessing 启用异步处理
func (s *GenerationService) EnableAsyncProcessing(queue taskqueue.Queue) {
	s.asyncEnabled = true
	s.taskQueue = queue

	// 重建带队列的仓储，让任务关联操作可用
	s.repo = repository.NewJobRepositoryWithQueue(database.DB, queue)

	// 确保状态管理器已设置
	if s.statusManager == nil {
		if s.cache != nil {
			s.statusManager = NewJobStatusManagerWithCache(s.repo, s.cache, s.logger)
		} else {
			s.statusManager = NewJobStatusManager(s.repo, s.logger)
		}
	}

	s.logger.Info("Async job processing enabled")
}

// DisableAsyncProcessing 禁用异步处理
func (s *GenerationService) DisableAsyncProcessing() {
	s.asyncEnabled = false
	s.logger.Info("Async job processing disabled")
}

// CleanupArtifacts 清理作业的产物文件和记录，保留作业本身
func (s *GenerationService) CleanupArtifacts(ctx context.Context, jobID string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	s.logger.WithField("job_id", jobID).Info("Cleaning up job artifacts")

	// 删除已登记的产物文件
	artifacts, err := s.repo.GetArtifacts(jobID)
	if err != nil {
		return fmt.Errorf("failed to get artifacts: %w", err)
	}

	for _, artifact := range artifacts {
		if err := s.storage.DeleteByPath(artifact.StoragePath); err != nil {
			s.logger.WithError(err).WithField("path", artifact.StoragePath).Warn("Failed to delete artifact file")
		}
	}

	// 删除产物记录
	if err := s.repo.DeleteArtifacts(jobID); err != nil {
		return fmt.Errorf("failed to delete artifact records: %w", err)
	}

	// 渲染中途失败会留下未登记的产物文件，按目录前缀兜底清理
	files, err := s.storage.List()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list storage files for cleanup")
		return nil
	}

	prefix := artifactDirPrefix + "/" + jobID + "/"
	removed := 0
	for _, f := range files {
		if strings.HasPrefix(filepath.ToSlash(f.Path), prefix) {
			if err := s.storage.DeleteByPath(f.Path); err != nil {
				s.logger.WithError(err).WithField("path", f.Path).Warn("Failed to delete orphaned artifact file")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"count":  removed,
		}).Info("Removed orphaned artifact files")
	}

	return nil
}

// scheduleCleanup 入队产物清理任务
// 渲染中途失败可能留下部分产物文件，由清理任务兜底移除
func (s *GenerationService) scheduleCleanup(ctx context.Context, jobID string) {
	if !s.asyncEnabled || s.taskQueue == nil {
		return
	}

	payload := taskqueue.CleanupPayload{JobID: jobID}
	taskID, err := s.repo.CreateTask(ctx, taskqueue.TaskCleanupArtifacts, jobID, payload)
	if err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to enqueue cleanup task")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"task_id": taskID,
	}).Info("Cleanup task enqueued")
}

// WaitForTaskResult 等待任务完成并返回任务记录
func (s *GenerationService) WaitForTaskResult(ctx context.Context, taskID string, timeout time.Duration) (*taskqueue.Task, error) {
	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, fmt.Errorf("async processing not enabled or task queue not configured")
	}

	// 等待任务完成
	task, err := s.taskQueue.WaitForTask(ctx, taskID, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for task: %w", err)
	}

	// 检查任务状态
	if task.Status == taskqueue.StatusFailed {
		return task, fmt.Errorf("task failed: %s", task.Error)
	}

	return task, nil
}

// GenerationTaskHandler 队列任务处理器
// 把队列中的生成和清理任务分发到生成服务
type GenerationTaskHandler struct {
	service *GenerationService // 生成服务
	logger  *logrus.Logger     // 日志记录器
}

// NewGenerationTaskHandler 创建生成任务处理器
func NewGenerationTaskHandler(service *GenerationService, logger *logrus.Logger) *GenerationTaskHandler {
	if logger == nil {
		logger = logrus.New()
	}

	return &GenerationTaskHandler{
		service: service,
		logger:  logger,
	}
}

// GetTaskTypes 返回此处理器支持的任务类型
func (h *GenerationTaskHandler) GetTaskTypes() []taskqueue.TaskType {
	return []taskqueue.TaskType{
		taskqueue.TaskGeneratePresentations,
		taskqueue.TaskCleanupArtifacts,
	}
}

// RegisterHandlers 将处理器注册到工作者
func (h *GenerationTaskHandler) RegisterHandlers(worker taskqueue.Worker) {
	for _, taskType := range h.GetTaskTypes() {
		worker.RegisterHandler(taskType, h)
	}
}

// ProcessTask 处理队列任务
func (h *GenerationTaskHandler) ProcessTask(ctx context.Context, task *taskqueue.Task) error {
	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"task_type": task.Type,
		"job_id":    task.JobID,
	}).Info("Processing queue task")

	switch task.Type {
	case taskqueue.TaskGeneratePresentations:
		return h.handleGeneration(ctx, task)
	case taskqueue.TaskCleanupArtifacts:
		return h.handleCleanup(ctx, task)
	default:
		return fmt.Errorf("unsupported task type: %s", task.Type)
	}
}

// handleGeneration 处理演示文稿生成任务
func (h *GenerationTaskHandler) handleGeneration(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.GenerationPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	jobID := payload.JobID
	if jobID == "" {
		jobID = task.JobID
	}
	if jobID == "" {
		return taskqueue.ErrInvalidPayload
	}

	if err := h.service.ProcessJob(ctx, jobID); err != nil {
		return err
	}

	// 把生成结果挂到任务记录上，供轮询方读取
	if queue := h.service.GetTaskQueue(); queue != nil {
		if result, err := h.service.GetJobResult(ctx, jobID); err == nil {
			if err := queue.UpdateTaskStatus(ctx, task.ID, taskqueue.StatusCompleted, result, ""); err != nil {
				h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to attach result to task")
			}
		}
	}

	return nil
}

// handleCleanup 处理产物清理任务
func (h *GenerationTaskHandler) handleCleanup(ctx context.Context, task *taskqueue.Task) error {
	var payload taskqueue.CleanupPayload
	if err := taskqueue.UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", taskqueue.ErrInvalidPayload, err)
	}

	jobID := payload.JobID
	if jobID == "" {
		jobID = task.JobID
	}
	if jobID == "" {
		return taskqueue.ErrInvalidPayload
	}

	return h.service.CleanupArtifacts(ctx, jobID)
}
