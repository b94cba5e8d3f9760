package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/database"
	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
	"gorm.io/gorm"
)

// jobRepository 生成作业仓储实现
type jobRepository struct {
	db        *gorm.DB        // 数据库连接
	taskQueue taskqueue.Queue // 任务队列
	ctx       context.Context // 上下文，可用于事务或超时控制
}

// NewJobRepository 创建作业仓储实例
func NewJobRepository() JobRepository {
	return &jobRepository{
		db:  database.MustDB(),
		ctx: context.Background(),
	}
}

// NewJobRepositoryWithDB 使用指定的数据库连接创建作业仓储实例
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepository{
		db:  db,
		ctx: context.Background(),
	}
}

// NewJobRepositoryWithQueue 使用指定的数据库连接和任务队列创建作业仓储实例
func NewJobRepositoryWithQueue(db *gorm.DB, queue taskqueue.Queue) JobRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &jobRepository{
		db:        db,
		taskQueue: queue,
		ctx:       context.Background(),
	}
}

// Create 创建作业记录
func (r *jobRepository) Create(job *models.GenerationJob) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}

	return r.db.Create(job).Error
}

// Update 更新作业记录
func (r *jobRepository) Update(job *models.GenerationJob) error {
	if job.ID == "" {
		return errors.New("job ID cannot be empty")
	}

	return r.db.Save(job).Error
}

// GetByID 根据ID获取作业
func (r *jobRepository) GetByID(id string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
		}
		return nil, err
	}
	return &job, nil
}

// List 列出作业列表，支持分页和筛选
func (r *jobRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.GenerationJob, int64, error) {
	var jobs []*models.GenerationJob
	var total int64

	// 创建查询构造器
	query := r.db.Model(&models.GenerationJob{})

	// 应用筛选条件
	if filters != nil {
		// 状态过滤
		if status, ok := filters["status"]; ok {
			// 处理不同类型的status
			switch s := status.(type) {
			case models.JobStatus:
				// 如果是JobStatus类型，转换为string
				query = query.Where("status = ?", string(s))
			case string:
				// 如果已经是string，直接使用
				if s != "" {
					query = query.Where("status = ?", s)
				}
			default:
				// 其他类型，尝试转换为string
				statusStr := fmt.Sprintf("%v", status)
				if statusStr != "" {
					query = query.Where("status = ?", statusStr)
				}
			}
		}

		// 输出格式过滤
		if format, ok := filters["format"].(string); ok && format != "" {
			query = query.Where("format = ?", format)
		}

		// 时间范围过滤
		if startTime, ok := filters["start_time"].(string); ok && startTime != "" {
			query = query.Where("submitted_at >= ?", startTime)
		}

		if endTime, ok := filters["end_time"].(string); ok && endTime != "" {
			query = query.Where("submitted_at <= ?", endTime)
		}

		// 源文件名过滤
		if sourceName, ok := filters["source_name"].(string); ok && sourceName != "" {
			query = query.Where("source_name LIKE ?", "%"+sourceName+"%")
		}
	}

	// 获取总数
	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 应用排序、分页并执行查询
	err = query.Order("submitted_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// Delete 删除作业记录
func (r *jobRepository) Delete(id string) error {
	// 开启事务
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除产物记录
		if err := tx.Where("job_id = ?", id).Delete(&models.Artifact{}).Error; err != nil {
			return err
		}

		// 2. 删除作业记录
		if err := tx.Where("id = ?", id).Delete(&models.GenerationJob{}).Error; err != nil {
			return err
		}

		// 3. 如果任务队列已初始化，尝试获取并删除相关任务
		if r.taskQueue != nil {
			ctx := r.getContext()
			tasks, err := r.taskQueue.GetTasksByJob(ctx, id)
			if err == nil && len(tasks) > 0 {
				for _, task := range tasks {
					// 忽略错误，因为任务可能已经被删除
					_ = r.taskQueue.DeleteTask(ctx, task.ID)
				}
			}
		}

		return nil
	})
}

// UpdateStatus 更新作业状态
func (r *jobRepository) UpdateStatus(id string, status models.JobStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	// 如果有错误消息，更新错误字段
	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	// 如果状态是已完成或失败，设置处理完成时间
	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		now := time.Now()
		updates["processed_at"] = &now
	}

	return r.db.Model(&models.GenerationJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateResult 更新作业的生成结果统计
func (r *jobRepository) UpdateResult(id string, presentationCount int) error {
	if presentationCount < 0 {
		presentationCount = 0
	}

	return r.db.Model(&models.GenerationJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"presentation_count": presentationCount,
			"updated_at":         time.Now(),
		}).Error
}

// SaveArtifact 保存生成产物记录
func (r *jobRepository) SaveArtifact(artifact *models.Artifact) error {
	return r.db.Create(artifact).Error
}

// SaveArtifacts 批量保存产物记录
func (r *jobRepository) SaveArtifacts(artifacts []*models.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}

	// 使用事务批量插入
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 批量创建记录
		return tx.CreateInBatches(artifacts, 100).Error
	})
}

// GetArtifacts 获取作业的所有产物
func (r *jobRepository) GetArtifacts(jobID string) ([]*models.Artifact, error) {
	var artifacts []*models.Artifact
	err := r.db.Where("job_id = ?", jobID).
		Order("position ASC").
		Find(&artifacts).Error
	return artifacts, err
}

// GetArtifactByPosition 获取作业中指定序号的产物
func (r *jobRepository) GetArtifactByPosition(jobID string, position int) (*models.Artifact, error) {
	var artifact models.Artifact
	err := r.db.Where("job_id = ? AND position = ?", jobID, position).
		First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job %s position %d", models.ErrArtifactNotFound, jobID, position)
		}
		return nil, err
	}
	return &artifact, nil
}

// CountArtifacts 统计作业的产物数量
func (r *jobRepository) CountArtifacts(jobID string) (int, error) {
	var count int64
	err := r.db.Model(&models.Artifact{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return int(count), err
}

// DeleteArtifacts 删除作业的所有产物记录
func (r *jobRepository) DeleteArtifacts(jobID string) error {
	return r.db.Where("job_id = ?", jobID).
		Delete(&models.Artifact{}).Error
}

// WithContext 创建带有上下文的仓储
func (r *jobRepository) WithContext(ctx context.Context) JobRepository {
	return &jobRepository{
		db:        r.db.WithContext(ctx),
		taskQueue: r.taskQueue,
		ctx:       ctx,
	}
}

// getContext 获取仓储的上下文，如果未设置则使用背景上下文
func (r *jobRepository) getContext() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// GetJobTasks 获取作业相关的所有任务
func (r *jobRepository) GetJobTasks(ctx context.Context, jobID string) ([]*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTasksByJob(ctx, jobID)
}

// GetTaskByID 根据ID获取任务
func (r *jobRepository) GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error) {
	if r.taskQueue == nil {
		return nil, errors.New("task queue not initialized")
	}

	return r.taskQueue.GetTask(ctx, taskID)
}

// CreateTask 创建任务并关联到作业
func (r *jobRepository) CreateTask(ctx context.Context, taskType taskqueue.TaskType, jobID string, payload interface{}) (string, error) {
	if r.taskQueue == nil {
		return "", errors.New("task queue not initialized")
	}

	// 检查作业是否存在
	_, err := r.GetByID(jobID)
	if err != nil {
		return "", err
	}

	// 将任务加入队列
	taskID, err := r.taskQueue.Enqueue(ctx, taskType, jobID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	// 在作业上记录当前任务ID，状态转换由状态管理器负责
	err = r.db.Model(&models.GenerationJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"current_task_id": taskID,
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		// 记录错误但继续，因为任务已创建
		fmt.Printf("Failed to link task to job: %v\n", err)
	}

	return taskID, nil
}

// UpdateTaskStatus 更新任务状态并同步作业状态
func (r *jobRepository) UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	// 获取任务信息
	task, err := r.taskQueue.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	// 更新任务状态
	if err := r.taskQueue.UpdateTaskStatus(ctx, taskID, status, result, errorMsg); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	// 通知任务状态更新
	if err := r.taskQueue.NotifyTaskUpdate(ctx, taskID); err != nil {
		// 记录错误但继续，通知失败不是致命错误
		fmt.Printf("Failed to notify task update: %v\n", err)
	}

	// 根据任务状态更新作业状态
	if task.JobID != "" {
		var jobStatus models.JobStatus
		var jobError string

		switch status {
		case taskqueue.StatusCompleted:
			jobStatus = models.JobStatusCompleted
		case taskqueue.StatusFailed:
			jobStatus = models.JobStatusFailed
			jobError = errorMsg
		case taskqueue.StatusProcessing:
			jobStatus = models.JobStatusProcessing
		default:
			// 对于其他状态，不更新作业状态
			return nil
		}

		// 更新作业状态
		err = r.UpdateStatus(task.JobID, jobStatus, jobError)
		if err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
	}

	return nil
}

// DeleteTask 删除任务
func (r *jobRepository) DeleteTask(ctx context.Context, taskID string) error {
	if r.taskQueue == nil {
		return errors.New("task queue not initialized")
	}

	return r.taskQueue.DeleteTask(ctx, taskID)
}
