package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/cache"
	"github.com/fyerfyer/slide-gen-system/internal/deck"
	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/fyerfyer/slide-gen-system/internal/parser"
	"github.com/fyerfyer/slide-gen-system/internal/reader"
	"github.com/fyerfyer/slide-gen-system/internal/render"
	"github.com/fyerfyer/slide-gen-system/internal/repository"
	"github.com/fyerfyer/slide-gen-system/pkg/storage"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// artifactDirPrefix 产物文件在存储中的目录前缀
const artifactDirPrefix = "jobs"

// resultCacheTTL 生成结果缓存的过期时间
const resultCacheTTL = time.Hour * 24

// GenerationService 演示文稿生成服务
// 负责协调源文件读取、标记解析、渲染和产物存储
type GenerationService struct {
	storage       storage.Storage          // 文件存储服务
	parserCfg     parser.Config            // 标记解析配置
	style         render.Style             // 渲染样式
	repo          repository.JobRepository // 作业元数据存储
	statusManager *JobStatusManager        // 作业状态管理器
	taskQueue     taskqueue.Queue          // 任务队列
	cache         cache.Cache              // 结果缓存
	format        string                   // 默认输出格式
	asyncEnabled  bool                     // 是否启用异步处理
	timeout       time.Duration            // 处理超时时间
	logger        *logrus.Logger           // 日志记录器
}

// GenerationOption 生成服务配置选项
type GenerationOption func(*GenerationService)

// NewGenerationService 创建一个新的生成服务
func NewGenerationService(store storage.Storage, opts ...GenerationOption) *GenerationService {
	// 创建服务实例
	srv := &GenerationService{
		storage:      store,
		parserCfg:    parser.DefaultConfig(),
		style:        render.DefaultStyle(),
		format:       string(render.FormatPPTX), // 默认输出格式
		timeout:      time.Minute * 5,           // 默认超时时间
		logger:       logrus.New(),              // 默认日志记录器
		asyncEnabled: false,                     // 默认不启用异步处理
	}

	// 应用配置选项
	for _, opt := range opts {
		opt(srv)
	}

	return srv
}

// WithParserConfig 设置标记解析配置
func WithParserConfig(cfg parser.Config) GenerationOption {
	return func(s *GenerationService) {
		s.parserCfg = cfg
	}
}

// WithRenderStyle 设置渲染样式
func WithRenderStyle(style render.Style) GenerationOption {
	return func(s *GenerationService) {
		s.style = style
	}
}

// WithRenderFormat 设置默认输出格式
func WithRenderFormat(format string) GenerationOption {
	return func(s *GenerationService) {
		if format != "" {
			s.format = strings.ToLower(format)
		}
	}
}

// WithTimeout 设置处理超时时间
func WithTimeout(timeout time.Duration) GenerationOption {
	return func(s *GenerationService) {
		s.timeout = timeout
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) GenerationOption {
	return func(s *GenerationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithJobRepository 设置作业仓储
func WithJobRepository(repo repository.JobRepository) GenerationOption {
	return func(s *GenerationService) {
		s.repo = repo
	}
}

// WithStatusManager 设置状态管理器
func WithStatusManager(manager *JobStatusManager) GenerationOption {
	return func(s *GenerationService) {
		s.statusManager = manager
	}
}

// WithTaskQueue 设置任务队列
func WithTaskQueue(queue taskqueue.Queue) GenerationOption {
	return func(s *GenerationService) {
		s.taskQueue = queue
		s.asyncEnabled = queue != nil
	}
}

// WithAsyncProcessing 设置是否启用异步处理
func WithAsyncProcessing(enabled bool) GenerationOption {
	return func(s *GenerationService) {
		s.asyncEnabled = enabled
	}
}

// WithResultCache 设置结果缓存
func WithResultCache(c cache.Cache) GenerationOption {
	return func(s *GenerationService) {
		s.cache = c
	}
}

// Init 初始化生成服务
// 确保必要的依赖都已设置
func (s *GenerationService) Init() error {
	// 如果没有设置仓储，创建默认仓储
	if s.repo == nil {
		s.repo = repository.NewJobRepository()
	}

	// 如果没有设置状态管理器，创建默认状态管理器
	if s.statusManager == nil {
		if s.cache != nil {
			s.statusManager = NewJobStatusManagerWithCache(s.repo, s.cache, s.logger)
		} else {
			s.statusManager = NewJobStatusManager(s.repo, s.logger)
		}
	}

	return nil
}

// SubmitJob 提交一个生成作业
// 保存源文件并创建作业记录；异步模式下入队处理任务后立即返回，
// 同步模式下在当前调用内完成整个生成流程
func (s *GenerationService) SubmitJob(ctx context.Context, sourceName string, src io.Reader, format string) (*models.GenerationJob, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 检查输入参数
	if sourceName == "" {
		return nil, errors.New("source name cannot be empty")
	}

	if format == "" {
		format = s.format
	}
	format = strings.ToLower(format)

	// 先验证输出格式和输入类型，避免保存无法处理的作业
	if _, err := render.NewRenderer(format, s.style); err != nil {
		return nil, err
	}
	if _, err := reader.NewReader(sourceName); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"source_name": sourceName,
		"format":      format,
	}).Info("Submitting generation job")

	// 保存源文件，存储生成的文件标识符同时作为作业ID
	fileInfo, err := s.storage.Save(src, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to save source file: %w", err)
	}

	jobID := fileInfo.ID

	// 创建作业记录
	if err := s.statusManager.MarkAsPending(ctx, jobID, sourceName, fileInfo.Path, fileInfo.Size, format); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	if s.asyncEnabled && s.taskQueue != nil {
		// 异步模式：创建生成任务并入队
		if err := s.enqueueGeneration(ctx, jobID, fileInfo.Path, sourceName, format); err != nil {
			return nil, err
		}
	} else {
		// 同步模式：直接处理，失败时作业已标记为失败，仍返回作业记录供查询
		if err := s.ProcessJob(ctx, jobID); err != nil {
			s.logger.WithError(err).WithField("job_id", jobID).Error("Synchronous job processing failed")
		}
	}

	return s.statusManager.GetJob(ctx, jobID)
}

// enqueueGeneration 创建生成任务并入队
func (s *GenerationService) enqueueGeneration(ctx context.Context, jobID string, sourcePath string, sourceName string, format string) error {
	s.logger.WithFields(logrus.Fields{
		"job_id":      jobID,
		"source_name": sourceName,
	}).Info("Enqueuing job for async processing")

	// 创建处理任务载荷
	payload := taskqueue.GenerationPayload{
		JobID:      jobID,
		SourcePath: sourcePath,
		SourceName: sourceName,
		SourceType: getSourceType(sourceName),
		Format:     format,
		Metadata: map[string]string{
			"source":     "api",
			"created_by": "generation_service",
		},
	}

	// 创建任务
	taskID, err := s.repo.CreateTask(ctx, taskqueue.TaskGeneratePresentations, jobID, payload)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to create generation task: %v", err))
		return fmt.Errorf("failed to create generation task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":  jobID,
		"task_id": taskID,
	}).Info("Generation task created successfully")

	return nil
}

// ProcessJob 处理生成作业(读取、解析、渲染、保存产物)
// 同步模式下由SubmitJob直接调用，异步模式下由队列工作者调用
func (s *GenerationService) ProcessJob(ctx context.Context, jobID string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	if jobID == "" {
		return errors.New("jobID cannot be empty")
	}

	// 设置上下文超时
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	job, err := s.statusManager.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	// 状态转换失败说明作业已在处理或已结束，直接拒绝避免重复生成产物
	if err := s.statusManager.MarkAsProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("failed to mark job as processing: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":      jobID,
		"source_name": job.SourceName,
		"format":      job.Format,
	}).Info("Starting job processing")

	// 读取源文件并转换为标记文本
	text, err := s.readSource(job)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to read source file: %v", err))
		return fmt.Errorf("failed to read source file: %w", err)
	}

	// 解析标记文本
	presentations := parser.NewParser(s.parserCfg).Parse(text)

	// 没有解析出任何演示文稿也算成功完成，产物数量为0
	if len(presentations) == 0 {
		s.logger.WithField("job_id", jobID).Warn("No topic markers found in source file")
		if err := s.statusManager.MarkAsCompleted(ctx, jobID, 0); err != nil {
			return err
		}
		s.cacheResult(jobID, &taskqueue.GenerationResult{JobID: jobID})
		return nil
	}

	// 渲染并保存产物文件
	artifacts, err := s.renderPresentations(ctx, job, presentations)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to render presentations: %v", err))
		// 渲染中途失败可能已经写出了部分产物文件
		s.scheduleCleanup(ctx, jobID)
		return fmt.Errorf("failed to render presentations: %w", err)
	}

	// 重试时清掉上次遗留的产物记录，避免出现重复序号
	if err := s.repo.DeleteArtifacts(jobID); err != nil {
		s.logger.WithError(err).Warn("Failed to clear previous artifact records")
	}

	// 保存产物记录
	if err := s.repo.SaveArtifacts(artifacts); err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("failed to save artifact records: %v", err))
		return fmt.Errorf("failed to save artifact records: %w", err)
	}

	// 作业处理完成，更新状态
	if err := s.statusManager.MarkAsCompleted(ctx, jobID, len(presentations)); err != nil {
		s.logger.WithError(err).Error("Failed to mark job as completed")
		// 产物已生成，状态更新失败不影响处理结果
	}

	s.cacheResult(jobID, buildGenerationResult(jobID, artifacts))

	s.logger.WithFields(logrus.Fields{
		"job_id":             jobID,
		"presentation_count": len(presentations),
	}).Info("Job processing completed successfully")

	return nil
}

// readSource 从存储读取源文件并转换为标记文本
func (s *GenerationService) readSource(job *models.GenerationJob) (string, error) {
	s.logger.WithField("source_path", job.SourcePath).Debug("Reading source file")

	// 优先按记录的存储路径读取
	rc, err := s.storage.GetByPath(job.SourcePath)
	if err != nil {
		s.logger.WithError(err).Debug("Failed to get file by path, trying with job ID")
		// 回退为按作业ID查找
		rc, err = s.storage.Get(job.ID)
		if err != nil {
			return "", fmt.Errorf("failed to get file from storage: %w", err)
		}
	}
	defer rc.Close()

	// 创建读取器
	rd, err := reader.NewReader(job.SourceName)
	if err != nil {
		return "", err
	}

	// 直接从reader读取标记文本
	return rd.ReadFrom(rc)
}

// renderPresentations 逐个渲染演示文稿并保存产物文件
func (s *GenerationService) renderPresentations(ctx context.Context, job *models.GenerationJob, presentations []deck.Presentation) ([]*models.Artifact, error) {
	renderer, err := render.NewRenderer(job.Format, s.style)
	if err != nil {
		return nil, err
	}

	artifacts := make([]*models.Artifact, 0, len(presentations))

	for i := range presentations {
		// 检查上下文是否已取消
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			// 继续处理
		}

		pres := &presentations[i]
		position := i + 1

		data, err := renderer.Render(pres)
		if err != nil {
			return nil, fmt.Errorf("failed to render presentation %d: %w", position, err)
		}

		fileName := deck.ArtifactFileName(position, pres.Title, renderer.Ext())
		relPath := path.Join(artifactDirPrefix, job.ID, fileName)

		info, err := s.storage.SaveAs(bytes.NewReader(data), relPath)
		if err != nil {
			return nil, fmt.Errorf("failed to save artifact %s: %w", fileName, err)
		}

		artifacts = append(artifacts, &models.Artifact{
			JobID:       job.ID,
			Position:    position,
			Title:       pres.Title,
			FileName:    fileName,
			StoragePath: info.Path,
			Format:      job.Format,
			Size:        info.Size,
			SlideCount:  len(pres.Slides) + 1, // 加上标题页
			Metadata:    artifactMetadata(pres),
		})

		s.logger.WithFields(logrus.Fields{
			"job_id":   job.ID,
			"position": position,
			"file":     fileName,
		}).Debug("Artifact rendered")
	}

	return artifacts, nil
}

// DeleteJob 删除作业及其相关数据
func (s *GenerationService) DeleteJob(ctx context.Context, jobID string) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	// 确认作业存在
	if _, err := s.statusManager.GetJob(ctx, jobID); err != nil {
		return err
	}

	s.logger.WithField("job_id", jobID).Info("Deleting job")

	// 1. 删除产物文件
	artifacts, err := s.repo.GetArtifacts(jobID)
	if err == nil {
		for _, artifact := range artifacts {
			if err := s.storage.DeleteByPath(artifact.StoragePath); err != nil {
				s.logger.WithError(err).WithField("path", artifact.StoragePath).Warn("Failed to delete artifact file")
			}
		}
	}

	// 2. 删除源文件
	if err := s.storage.Delete(jobID); err != nil {
		// 文件可能已被删除，记录错误但不中断流程
		s.logger.WithError(err).Warn("Failed to delete source file from storage")
	}

	// 3. 删除作业记录(产物记录和队列任务随之删除)，同时清除缓存
	if err := s.statusManager.DeleteJob(ctx, jobID); err != nil {
		s.logger.WithError(err).Error("Failed to delete job record")
		return fmt.Errorf("failed to delete job record: %w", err)
	}

	s.logger.WithField("job_id", jobID).Info("Job deleted successfully")
	return nil
}

// GetJobInfo 获取作业信息
func (s *GenerationService) GetJobInfo(ctx context.Context, jobID string) (map[string]interface{}, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 获取作业记录
	job, err := s.statusManager.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	// 构建作业信息
	info := map[string]interface{}{
		"job_id":             job.ID,
		"source_name":        job.SourceName,
		"source_type":        job.SourceType,
		"format":             job.Format,
		"status":             string(job.Status),
		"submitted_at":       job.SubmittedAt.Format(time.RFC3339),
		"updated_at":         job.UpdatedAt.Format(time.RFC3339),
		"size":               job.SourceSize,
		"presentation_count": job.PresentationCount,
	}

	// 如果有错误信息，添加到返回结果
	if job.Error != "" {
		info["error"] = job.Error
	}

	// 如果有处理完成时间，添加到返回结果
	if job.ProcessedAt != nil {
		info["processed_at"] = job.ProcessedAt.Format(time.RFC3339)
	}

	// 如果发生过重试，添加到返回结果
	if job.RetryCount > 0 {
		info["retry_count"] = job.RetryCount
	}

	// 如果启用了异步处理，尝试获取相关任务信息
	if s.asyncEnabled && s.taskQueue != nil {
		tasks, err := s.repo.GetJobTasks(ctx, jobID)
		if err == nil && len(tasks) > 0 {
			// 添加最近的任务信息
			latestTask := tasks[0]
			for _, task := range tasks {
				if task.UpdatedAt.After(latestTask.UpdatedAt) {
					latestTask = task
				}
			}

			info["task_id"] = latestTask.ID
			info["task_status"] = string(latestTask.Status)
			info["task_created_at"] = latestTask.CreatedAt.Format(time.RFC3339)
			info["task_updated_at"] = latestTask.UpdatedAt.Format(time.RFC3339)

			if latestTask.StartedAt != nil {
				info["task_started_at"] = latestTask.StartedAt.Format(time.RFC3339)
			}
			if latestTask.CompletedAt != nil {
				info["task_completed_at"] = latestTask.CompletedAt.Format(time.RFC3339)
			}
			if latestTask.Error != "" {
				info["task_error"] = latestTask.Error
			}
		}
	}

	return info, nil
}

// GetJobStatus 获取作业处理状态
func (s *GenerationService) GetJobStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return "", err
	}

	return s.statusManager.GetStatus(ctx, jobID)
}

// GetJobResult 获取作业的生成结果
// 优先读缓存，缓存未命中时从数据库的产物记录重建
func (s *GenerationService) GetJobResult(ctx context.Context, jobID string) (*taskqueue.GenerationResult, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if value, found, err := s.cache.Get(cache.JobResultKey(jobID)); err == nil && found {
			var result taskqueue.GenerationResult
			if err := json.Unmarshal([]byte(value), &result); err == nil {
				return &result, nil
			}
			// 缓存内容损坏时走数据库重建
		}
	}

	job, err := s.statusManager.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.JobStatusCompleted {
		return nil, fmt.Errorf("job %s is not completed: %s", jobID, job.Status)
	}

	artifacts, err := s.repo.GetArtifacts(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}

	result := buildGenerationResult(jobID, artifacts)
	s.cacheResult(jobID, result)
	return result, nil
}

// GetJobArtifacts 获取作业的产物记录列表
func (s *GenerationService) GetJobArtifacts(ctx context.Context, jobID string) ([]*models.Artifact, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	// 确认作业存在
	if _, err := s.statusManager.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	return s.repo.GetArtifacts(jobID)
}

// OpenArtifact 按序号打开作业产物，返回产物记录和内容
// 调用方负责关闭返回的Reader
func (s *GenerationService) OpenArtifact(ctx context.Context, jobID string, position int) (*models.Artifact, io.ReadCloser, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, nil, err
	}

	artifact, err := s.repo.GetArtifactByPosition(jobID, position)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.GetByPath(artifact.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open artifact file: %w", err)
	}

	return artifact, rc, nil
}

// ListJobs 获取作业列表
func (s *GenerationService) ListJobs(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.GenerationJob, int64, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	// 使用状态管理器获取作业列表
	return s.statusManager.ListJobs(ctx, offset, limit, filters)
}

// GetJobTasks 获取作业相关的任务
func (s *GenerationService) GetJobTasks(ctx context.Context, jobID string) ([]*taskqueue.Task, error) {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return nil, err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		return nil, errors.New("async processing not enabled")
	}

	return s.repo.GetJobTasks(ctx, jobID)
}

// WaitForJob 等待作业处理完成
func (s *GenerationService) WaitForJob(ctx context.Context, jobID string, timeout time.Duration) error {
	// 确保初始化完成
	if err := s.Init(); err != nil {
		return err
	}

	if !s.asyncEnabled || s.taskQueue == nil {
		// 如果未启用异步处理，直接检查作业状态
		status, err := s.statusManager.GetStatus(ctx, jobID)
		if err != nil {
			return err
		}
		if status == models.JobStatusFailed {
			return fmt.Errorf("job processing failed")
		}
		if status != models.JobStatusCompleted {
			return fmt.Errorf("job not processed")
		}
		return nil
	}

	// 设置上下文超时
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// 获取作业相关的任务
	tasks, err := s.repo.GetJobTasks(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job tasks: %w", err)
	}

	if len(tasks) == 0 {
		return fmt.Errorf("no generation tasks found for job %s", jobID)
	}

	// 找到最新的生成任务
	var latestTask *taskqueue.Task
	for _, task := range tasks {
		if task.Type == taskqueue.TaskGeneratePresentations {
			if latestTask == nil || task.CreatedAt.After(latestTask.CreatedAt) {
				latestTask = task
			}
		}
	}

	if latestTask == nil {
		return fmt.Errorf("no generation task found for job %s", jobID)
	}

	// 等待任务完成
	if _, err := s.taskQueue.WaitForTask(ctx, latestTask.ID, timeout); err != nil {
		return fmt.Errorf("failed to wait for job processing: %w", err)
	}

	// 再次检查作业状态
	status, err := s.statusManager.GetStatus(ctx, jobID)
	if err != nil {
		return err
	}

	if status == models.JobStatusFailed {
		return fmt.Errorf("job processing failed")
	}

	if status != models.JobStatusCompleted {
		return fmt.Errorf("job processing incomplete")
	}

	return nil
}

// cacheResult 缓存作业的生成结果
func (s *GenerationService) cacheResult(jobID string, result *taskqueue.GenerationResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal generation result")
		return
	}

	if err := s.cache.Set(cache.JobResultKey(jobID), string(data), resultCacheTTL); err != nil {
		s.logger.WithError(err).WithField("job_id", jobID).Warn("Failed to cache generation result")
	}
}

// artifactMetadata 把演示文稿的级别、模块和各页标题打包为产物元数据
func artifactMetadata(pres *deck.Presentation) datatypes.JSON {
	titles := make([]string, 0, len(pres.Slides))
	for _, slide := range pres.Slides {
		titles = append(titles, slide.Title)
	}

	meta, err := json.Marshal(map[string]interface{}{
		"level":        pres.Level,
		"module":       pres.Module,
		"slide_titles": titles,
	})
	if err != nil {
		return nil
	}

	return datatypes.JSON(meta)
}

// buildGenerationResult 根据产物记录构造生成结果
func buildGenerationResult(jobID string, artifacts []*models.Artifact) *taskqueue.GenerationResult {
	result := &taskqueue.GenerationResult{
		JobID:             jobID,
		PresentationCount: len(artifacts),
		Artifacts:         make([]taskqueue.ArtifactInfo, 0, len(artifacts)),
	}

	for _, a := range artifacts {
		result.Artifacts = append(result.Artifacts, taskqueue.ArtifactInfo{
			Position:   a.Position,
			Title:      a.Title,
			FileName:   a.FileName,
			SlideCount: a.SlideCount,
			Size:       a.Size,
		})
	}

	return result
}

// failJob 将作业标记为失败状态
func (s *GenerationService) failJob(ctx context.Context, jobID string, errorMsg string) {
	if s.statusManager == nil {
		s.logger.Error("Cannot mark job as failed: status manager not initialized")
		return
	}

	if err := s.statusManager.MarkAsFailed(ctx, jobID, errorMsg); err != nil {
		s.logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"error":  err,
		}).Error("Failed to mark job as failed")
	}
}

// GetStatusManager 返回作业状态管理器实例
func (s *GenerationService) GetStatusManager() *JobStatusManager {
	return s.statusManager
}

// GetTaskQueue 返回任务队列实例
func (s *GenerationService) GetTaskQueue() taskqueue.Queue {
	return s.taskQueue
}
