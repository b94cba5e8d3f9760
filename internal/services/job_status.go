package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/cache"
	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/fyerfyer/slide-gen-system/internal/repository"
	"github.com/sirupsen/logrus"
)

// statusCacheTTL 作业状态缓存的过期时间
const statusCacheTTL = time.Minute * 30

// JobStatusManager 作业状态管理器
// 负责管理生成作业生命周期内的状态转换，所有状态变更都必须经过这里
type JobStatusManager struct {
	repo   repository.JobRepository // 作业仓储接口
	cache  cache.Cache              // 状态缓存，可为nil
	logger *logrus.Logger           // 日志记录器
	mu     sync.Mutex               // 互斥锁，保证状态转换的原子性
}

// NewJobStatusManager 创建作业状态管理器
func NewJobStatusManager(repo repository.JobRepository, logger *logrus.Logger) *JobStatusManager {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	return &JobStatusManager{
		repo:   repo,
		logger: logger,
	}
}

// NewJobStatusManagerWithCache 创建带状态缓存的作业状态管理器
// 状态变更时写穿缓存，GetStatus优先读缓存，用于支撑客户端的高频轮询
func NewJobStatusManagerWithCache(repo repository.JobRepository, c cache.Cache, logger *logrus.Logger) *JobStatusManager {
	m := NewJobStatusManager(repo, logger)
	m.cache = c
	return m
}

// MarkAsPending 创建作业记录并标记为等待处理状态
func (m *JobStatusManager) MarkAsPending(ctx context.Context, jobID string, sourceName string, sourcePath string, sourceSize int64, format string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"job_id":      jobID,
		"source_name": sourceName,
		"format":      format,
	}).Info("Marking job as pending")

	// 创建新的作业记录
	job := &models.GenerationJob{
		ID:          jobID,
		SourceName:  sourceName,
		SourceType:  getSourceType(sourceName),
		SourcePath:  sourcePath,
		SourceSize:  sourceSize,
		Format:      format,
		Status:      models.JobStatusPending,
		SubmittedAt: time.Now(),
		UpdatedAt:   time.Now(),
	}

	// 保存到仓储
	if err := m.repo.Create(job); err != nil {
		return err
	}

	m.cacheStatus(jobID, models.JobStatusPending)
	return nil
}

// MarkAsProcessing 将作业标记为处理中状态
// 等待中的作业可以开始处理，失败的作业允许重试
func (m *JobStatusManager) MarkAsProcessing(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 检查状态转换的有效性
	if job.Status != models.JobStatusPending && job.Status != models.JobStatusFailed {
		return fmt.Errorf("invalid state transition: job %s is in %s state, expected %s or %s",
			jobID, job.Status, models.JobStatusPending, models.JobStatusFailed)
	}

	m.logger.WithField("job_id", jobID).Info("Marking job as processing")

	// 重试时累计重试次数并清除上次失败的痕迹
	if job.Status == models.JobStatusFailed {
		job.Status = models.JobStatusProcessing
		job.RetryCount++
		job.Error = ""
		job.ProcessedAt = nil
		if err := m.repo.Update(job); err != nil {
			return err
		}
		m.cacheStatus(jobID, models.JobStatusProcessing)
		return nil
	}

	// 更新状态
	if err := m.repo.UpdateStatus(jobID, models.JobStatusProcessing, ""); err != nil {
		return err
	}

	m.cacheStatus(jobID, models.JobStatusProcessing)
	return nil
}

// MarkAsCompleted 将作业标记为处理完成状态
func (m *JobStatusManager) MarkAsCompleted(ctx context.Context, jobID string, presentationCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 检查状态转换的有效性
	if job.Status != models.JobStatusProcessing && job.Status != models.JobStatusPending {
		return fmt.Errorf("invalid state transition: job %s is in %s state, expected %s or %s",
			jobID, job.Status, models.JobStatusProcessing, models.JobStatusPending)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id":             jobID,
		"presentation_count": presentationCount,
	}).Info("Marking job as completed")

	// 更新状态
	if err := m.repo.UpdateStatus(jobID, models.JobStatusCompleted, ""); err != nil {
		return err
	}

	// 记录生成的演示文稿数量
	if err := m.repo.UpdateResult(jobID, presentationCount); err != nil {
		return err
	}

	m.cacheStatus(jobID, models.JobStatusCompleted)
	return nil
}

// MarkAsFailed 将作业标记为处理失败状态
func (m *JobStatusManager) MarkAsFailed(ctx context.Context, jobID string, errorMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 获取当前作业
	if _, err := m.repo.GetByID(jobID); err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"job_id": jobID,
		"error":  errorMsg,
	}).Error("Marking job as failed")

	// 更新状态
	if err := m.repo.UpdateStatus(jobID, models.JobStatusFailed, errorMsg); err != nil {
		return err
	}

	m.cacheStatus(jobID, models.JobStatusFailed)
	return nil
}

// GetStatus 获取作业当前状态
func (m *JobStatusManager) GetStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	// 先查缓存，避免高频轮询打到数据库
	if m.cache != nil {
		if value, found, err := m.cache.Get(cache.JobStatusKey(jobID)); err == nil && found {
			return models.JobStatus(value), nil
		}
	}

	job, err := m.repo.GetByID(jobID)
	if err != nil {
		return "", fmt.Errorf("failed to get job status: %w", err)
	}

	m.cacheStatus(jobID, job.Status)
	return job.Status, nil
}

// GetJob 获取完整的作业对象
func (m *JobStatusManager) GetJob(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	return m.repo.GetByID(jobID)
}

// ListJobs 获取作业列表
func (m *JobStatusManager) ListJobs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.GenerationJob, int64, error) {
	return m.repo.List(offset, limit, filters)
}

// DeleteJob 删除作业记录
func (m *JobStatusManager) DeleteJob(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 确认作业存在
	if _, err := m.repo.GetByID(jobID); err != nil {
		return err
	}

	m.logger.WithField("job_id", jobID).Info("Deleting job record")

	if err := m.repo.Delete(jobID); err != nil {
		return err
	}

	m.invalidate(jobID)
	return nil
}

// ValidateStateTransition 验证状态转换的有效性
func (m *JobStatusManager) ValidateStateTransition(from, to models.JobStatus) error {
	// 定义有效的状态转换
	validTransitions := map[models.JobStatus][]models.JobStatus{
		models.JobStatusPending: {
			models.JobStatusProcessing,
			models.JobStatusCompleted, // 同步模式下小输入可能直接完成
			models.JobStatusFailed,    // 入队失败时立即失败
		},
		models.JobStatusProcessing: {
			models.JobStatusCompleted,
			models.JobStatusFailed,
		},
		// 终态
		models.JobStatusCompleted: {},
		models.JobStatusFailed:    {models.JobStatusProcessing}, // 允许重试
	}

	// 检查是否是有效转换
	allowed := false
	for _, validTo := range validTransitions[from] {
		if validTo == to {
			allowed = true
			break
		}
	}

	if !allowed {
		return errors.New("invalid state transition")
	}

	return nil
}

// cacheStatus 写穿作业状态缓存
func (m *JobStatusManager) cacheStatus(jobID string, status models.JobStatus) {
	if m.cache == nil {
		return
	}

	if err := m.cache.Set(cache.JobStatusKey(jobID), string(status), statusCacheTTL); err != nil {
		m.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to cache job status")
	}
}

// invalidate 清除作业相关的缓存条目
func (m *JobStatusManager) invalidate(jobID string) {
	if m.cache == nil {
		return
	}

	for _, key := range []string{cache.JobStatusKey(jobID), cache.JobResultKey(jobID)} {
		if err := m.cache.Delete(key); err != nil {
			m.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to invalidate job cache")
		}
	}
}

// getSourceType 根据文件名获取输入文件类型
func getSourceType(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext != "" && ext[0] == '.' {
		ext = ext[1:] // 去掉开头的点号
	}
	return ext
}
