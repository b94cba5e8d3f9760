package repository

import (
	"context"

	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
)

// JobRepository 生成作业仓储接口
// 负责作业元数据和产物记录的存储和检索
type JobRepository interface {
	// Create 创建作业记录
	Create(job *models.GenerationJob) error

	// Update 更新作业记录
	Update(job *models.GenerationJob) error

	// GetByID 根据ID获取作业
	GetByID(id string) (*models.GenerationJob, error)

	// List 列出作业列表，支持分页和筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.GenerationJob, int64, error)

	// Delete 删除作业
	Delete(id string) error

	// UpdateStatus 更新作业状态
	UpdateStatus(id string, status models.JobStatus, errorMsg string) error

	// UpdateResult 更新作业的生成结果统计
	UpdateResult(id string, presentationCount int) error

	// SaveArtifact 保存生成产物记录
	SaveArtifact(artifact *models.Artifact) error

	// SaveArtifacts 批量保存生成产物记录
	SaveArtifacts(artifacts []*models.Artifact) error

	// GetArtifacts 获取作业的所有产物
	GetArtifacts(jobID string) ([]*models.Artifact, error)

	// GetArtifactByPosition 获取作业中指定序号的产物
	GetArtifactByPosition(jobID string, position int) (*models.Artifact, error)

	// CountArtifacts 统计作业的产物数量
	CountArtifacts(jobID string) (int, error)

	// DeleteArtifacts 删除作业的所有产物记录
	DeleteArtifacts(jobID string) error

	// CreateTask 创建任务并关联到作业
	CreateTask(ctx context.Context, taskType taskqueue.TaskType, jobID string, payload interface{}) (string, error)

	// GetJobTasks 获取作业相关的所有任务
	GetJobTasks(ctx context.Context, jobID string) ([]*taskqueue.Task, error)

	// GetTaskByID 根据ID获取任务
	GetTaskByID(ctx context.Context, taskID string) (*taskqueue.Task, error)

	// UpdateTaskStatus 更新任务状态并同步作业状态
	UpdateTaskStatus(ctx context.Context, taskID string, status taskqueue.TaskStatus, result interface{}, errorMsg string) error

	// DeleteTask 删除任务
	DeleteTask(ctx context.Context, taskID string) error

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) JobRepository
}
