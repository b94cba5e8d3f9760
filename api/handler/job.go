package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/fyerfyer/slide-gen-system/api/middleware"
	"github.com/fyerfyer/slide-gen-system/api/model"
	"github.com/fyerfyer/slide-gen-system/internal/models"
	"github.com/fyerfyer/slide-gen-system/internal/reader"
	"github.com/fyerfyer/slide-gen-system/internal/render"
	"github.com/fyerfyer/slide-gen-system/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// JobHandler 处理生成作业相关的API请求
type JobHandler struct {
	generationService *services.GenerationService // 生成服务
	logger            *logrus.Logger              // 日志记录器
}

// NewJobHandler 创建新的作业处理器
func NewJobHandler(generationService *services.GenerationService) *JobHandler {
	return &JobHandler{
		generationService: generationService,
		logger:            middleware.GetLogger(),
	}
}

// UploadJob 处理作业提交请求
// POST /api/jobs
func (h *JobHandler) UploadJob(c *gin.Context) {
	// 绑定请求参数
	var req model.JobUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("Invalid job upload request")

		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"无效的请求参数",
		))
		return
	}

	// 检查文件
	if req.File == nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"未提供文件",
		))
		return
	}

	// 检查文件类型
	filename := req.File.Filename
	ext := filepath.Ext(filename)
	if !isValidSourceType(ext) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"不支持的文件类型，仅支持 .txt, .md, .markdown, .pdf",
		))
		return
	}

	// 打开上传的文件
	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"无法打开上传的文件",
		))
		return
	}
	defer file.Close()

	// 提交生成作业，同步模式下会在本次请求中完成处理
	job, err := h.generationService.SubmitJob(c.Request.Context(), filename, file, req.Format)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
			"format":   req.Format,
		}).Error("Failed to submit generation job")

		// 参数类错误返回400
		if errors.Is(err, render.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"不支持的输出格式，仅支持 pptx 和 pdf",
			))
			return
		}
		if errors.Is(err, reader.ErrUnsupportedInput) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"不支持的文件类型，仅支持 .txt, .md, .markdown, .pdf",
			))
			return
		}

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"提交生成作业失败",
		))
		return
	}

	// 记录作业提交信息
	h.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"source_name": job.SourceName,
		"format":      job.Format,
		"status":      job.Status,
	}).Info("Generation job submitted")

	// 返回作业ID和状态
	resp := model.JobUploadResponse{
		JobID:      job.ID,
		SourceName: job.SourceName,
		Format:     job.Format,
		Status:     string(job.Status),
		TaskID:     job.CurrentTaskID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetJobStatus 获取作业处理状态
// GET /api/jobs/:id
func (h *JobHandler) GetJobStatus(c *gin.Context) {
	// 绑定路径参数
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	// 获取作业信息
	jobInfo, err := h.generationService.GetJobInfo(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to get job info")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(http.StatusInternalServerError, "获取作业信息失败"))
		return
	}

	// 构建响应
	resp := model.JobStatusResponse{
		JobID:             req.ID,
		Status:            jobInfo["status"].(string),
		SourceName:        jobInfo["source_name"].(string),
		SourceType:        jobInfo["source_type"].(string),
		Format:            jobInfo["format"].(string),
		PresentationCount: jobInfo["presentation_count"].(int),
		SubmittedAt:       jobInfo["submitted_at"].(string),
		UpdatedAt:         jobInfo["updated_at"].(string),
	}

	// 如果有错误信息，添加到响应中
	if errMsg, ok := jobInfo["error"]; ok {
		resp.Error = errMsg.(string)
	}

	// 如果有处理完成时间，添加到响应中
	if processedAt, ok := jobInfo["processed_at"]; ok {
		resp.ProcessedAt = processedAt.(string)
	}

	// 如果发生过重试，添加到响应中
	if retryCount, ok := jobInfo["retry_count"]; ok {
		resp.RetryCount = retryCount.(int)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// GetJobResult 获取作业的生成结果
// GET /api/jobs/:id/result
func (h *JobHandler) GetJobResult(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	result, err := h.generationService.GetJobResult(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Warn("Generation result not available")

		// 作业未完成时结果不可用
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"生成结果不可用: "+err.Error(),
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// ListJobs 获取作业列表
// GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	// 绑定查询参数
	var req model.JobListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的查询参数"))
		return
	}

	// 构建过滤条件
	filters := make(map[string]interface{})

	if req.Status != "" {
		filters["status"] = req.Status
	}

	if req.Format != "" {
		filters["format"] = req.Format
	}

	if req.SourceName != "" {
		filters["source_name"] = req.SourceName
	}

	if req.StartTime != nil {
		filters["start_time"] = req.StartTime.Format(time.RFC3339)
	}

	if req.EndTime != nil {
		filters["end_time"] = req.EndTime.Format(time.RFC3339)
	}

	// 查询作业列表
	page := req.GetPage()
	pageSize := req.GetPageSize()
	offset := (page - 1) * pageSize

	jobs, total, err := h.generationService.ListJobs(c.Request.Context(), offset, pageSize, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(http.StatusInternalServerError, "获取作业列表失败"))
		return
	}

	// 构建分页响应
	resp := model.JobListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Jobs:     model.ConvertToJobInfo(jobs),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// ListArtifacts 获取作业的产物列表
// GET /api/jobs/:id/artifacts
func (h *JobHandler) ListArtifacts(c *gin.Context) {
	var req model.JobStatusRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	artifacts, err := h.generationService.GetJobArtifacts(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to get job artifacts")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(http.StatusInternalServerError, "获取产物列表失败"))
		return
	}

	resp := model.ArtifactListResponse{
		JobID:     req.ID,
		Total:     len(artifacts),
		Artifacts: model.ConvertToArtifactInfo(artifacts),
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DownloadArtifact 下载生成的产物文件
// GET /api/jobs/:id/artifacts/:position/download
func (h *JobHandler) DownloadArtifact(c *gin.Context) {
	var req model.ArtifactDownloadRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的下载参数"))
		return
	}

	artifact, rc, err := h.generationService.OpenArtifact(c.Request.Context(), req.ID, req.Position)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的作业"))
			return
		}
		if errors.Is(err, models.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的产物"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"job_id":   req.ID,
			"position": req.Position,
		}).Error("Failed to open artifact")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(http.StatusInternalServerError, "打开产物文件失败"))
		return
	}
	defer rc.Close()

	// 文件名可能包含非ASCII字符，使用RFC 5987编码
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(artifact.FileName)),
	}

	c.DataFromReader(http.StatusOK, artifact.Size, artifactContentType(artifact.Format), rc, extraHeaders)
}

// DeleteJob 删除作业及其产物
// DELETE /api/jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	// 绑定路径参数
	var req model.JobDeleteRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest, "无效的作业ID"))
		return
	}

	// 删除作业
	err := h.generationService.DeleteJob(c.Request.Context(), req.ID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound, "未找到指定的作业"))
			return
		}

		h.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"job_id": req.ID,
		}).Error("Failed to delete job")

		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"删除作业失败",
		))
		return
	}

	h.logger.WithField("job_id", req.ID).Info("Job deleted successfully")

	// 返回成功响应
	resp := model.JobDeleteResponse{
		Success: true,
		JobID:   req.ID,
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// isValidSourceType 检查源文件类型是否有效
func isValidSourceType(ext string) bool {
	validTypes := map[string]bool{
		".txt":      true,
		".text":     true,
		".md":       true,
		".markdown": true,
		".pdf":      true,
	}
	return validTypes[ext]
}

// artifactContentType 根据产物格式返回Content-Type
func artifactContentType(format string) string {
	switch format {
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
