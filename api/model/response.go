package model

import (
	"fmt"
	"time"

	"github.com/fyerfyer/slide-gen-system/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// JobUploadResponse 作业提交响应
type JobUploadResponse struct {
	JobID      string `json:"job_id"`            // 作业ID
	SourceName string `json:"source_name"`       // 源文件名
	Format     string `json:"format"`            // 输出格式
	Status     string `json:"status"`            // 作业状态：pending、processing、completed、failed
	TaskID     string `json:"task_id,omitempty"` // 异步模式下的队列任务ID
}

// JobStatusResponse 作业状态查询响应
type JobStatusResponse struct {
	JobID             string `json:"job_id"`                 // 作业ID
	Status            string `json:"status"`                 // 处理状态
	SourceName        string `json:"source_name"`            // 源文件名
	SourceType        string `json:"source_type"`            // 源文件类型
	Format            string `json:"format"`                 // 输出格式
	Error             string `json:"error,omitempty"`        // 错误信息（如果有）
	PresentationCount int    `json:"presentation_count"`     // 生成的演示文稿数量
	RetryCount        int    `json:"retry_count"`            // 重试次数
	SubmittedAt       string `json:"submitted_at"`           // 提交时间
	ProcessedAt       string `json:"processed_at,omitempty"` // 处理完成时间
	UpdatedAt         string `json:"updated_at"`             // 更新时间
}

// JobInfo 列表中的作业信息
type JobInfo struct {
	JobID             string    `json:"job_id"`             // 作业ID
	SourceName        string    `json:"source_name"`        // 源文件名
	SourceType        string    `json:"source_type"`        // 源文件类型
	Format            string    `json:"format"`             // 输出格式
	Status            string    `json:"status"`             // 状态
	PresentationCount int       `json:"presentation_count"` // 演示文稿数量
	SubmittedAt       time.Time `json:"submitted_at"`       // 提交时间
	Error             string    `json:"error,omitempty"`    // 错误信息
}

// JobListResponse 作业列表响应
type JobListResponse struct {
	Total    int64     `json:"total"`     // 总数量
	Page     int       `json:"page"`      // 当前页码
	PageSize int       `json:"page_size"` // 每页大小
	Jobs     []JobInfo `json:"jobs"`      // 作业列表
}

// JobDeleteResponse 作业删除响应
type JobDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	JobID   string `json:"job_id"`  // 作业ID
}

// ArtifactInfo 产物信息
type ArtifactInfo struct {
	Position    int    `json:"position"`     // 产物序号，从1开始
	Title       string `json:"title"`        // 演示文稿标题
	FileName    string `json:"file_name"`    // 产物文件名
	Format      string `json:"format"`       // 文件格式
	SlideCount  int    `json:"slide_count"`  // 幻灯片数量（含标题页）
	Size        int64  `json:"size"`         // 文件大小（字节）
	DownloadURL string `json:"download_url"` // 下载地址
}

// ArtifactListResponse 产物列表响应
type ArtifactListResponse struct {
	JobID     string         `json:"job_id"`    // 作业ID
	Total     int            `json:"total"`     // 产物数量
	Artifacts []ArtifactInfo `json:"artifacts"` // 产物列表
}

// ConvertToJobInfo 将作业模型转换为列表项
func ConvertToJobInfo(jobs []*models.GenerationJob) []JobInfo {
	if len(jobs) == 0 {
		return []JobInfo{}
	}

	infos := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		infos[i] = JobInfo{
			JobID:             job.ID,
			SourceName:        job.SourceName,
			SourceType:        job.SourceType,
			Format:            job.Format,
			Status:            string(job.Status),
			PresentationCount: job.PresentationCount,
			SubmittedAt:       job.SubmittedAt,
			Error:             job.Error,
		}
	}
	return infos
}

// ConvertToArtifactInfo 将产物模型转换为响应信息
func ConvertToArtifactInfo(artifacts []*models.Artifact) []ArtifactInfo {
	if len(artifacts) == 0 {
		return []ArtifactInfo{}
	}

	infos := make([]ArtifactInfo, len(artifacts))
	for i, a := range artifacts {
		infos[i] = ArtifactInfo{
			Position:    a.Position,
			Title:       a.Title,
			FileName:    a.FileName,
			Format:      a.Format,
			SlideCount:  a.SlideCount,
			Size:        a.Size,
			DownloadURL: fmt.Sprintf("/api/jobs/%s/artifacts/%d/download", a.JobID, a.Position),
		}
	}
	return infos
}

// PaginationResponse 分页响应信息
type PaginationResponse struct {
	Total    int `json:"total"`     // 总记录数
	Page     int `json:"page"`      // 当前页码
	PageSize int `json:"page_size"` // 每页大小
}
