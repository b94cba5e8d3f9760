package model

import (
	"mime/multipart"
	"time"
)

// 分页参数的默认值和上限
const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// PaginationRequest 列表接口通用的分页参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 返回规范化后的页码
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return defaultPage
	}
	return p.Page
}

// GetPageSize 返回规范化后的每页记录数
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	if p.PageSize > maxPageSize {
		return maxPageSize
	}
	return p.PageSize
}

// JobUploadRequest 生成作业提交请求
type JobUploadRequest struct {
	File   *multipart.FileHeader `form:"file" binding:"required"`                  // 源文件对象
	Format string                `form:"format" json:"format" binding:"omitempty"` // 输出格式：pptx 或 pdf，留空使用服务默认值
}

// JobStatusRequest 作业状态查询请求
type JobStatusRequest struct {
	ID string `uri:"id" binding:"required"` // 作业ID
}

// JobListRequest 作业列表请求
type JobListRequest struct {
	PaginationRequest
	StartTime  *time.Time `form:"start_time" json:"start_time" binding:"omitempty"`   // 开始时间
	EndTime    *time.Time `form:"end_time" json:"end_time" binding:"omitempty"`       // 结束时间
	Status     string     `form:"status" json:"status" binding:"omitempty"`           // 作业状态
	Format     string     `form:"format" json:"format" binding:"omitempty"`           // 输出格式过滤
	SourceName string     `form:"source_name" json:"source_name" binding:"omitempty"` // 源文件名模糊匹配
}

// JobDeleteRequest 作业删除请求
type JobDeleteRequest struct {
	ID string `uri:"id" binding:"required"` // 作业ID
}

// ArtifactDownloadRequest 产物下载请求
type ArtifactDownloadRequest struct {
	ID       string `uri:"id" binding:"required"`             // 作业ID
	Position int    `uri:"position" binding:"required,min=1"` // 产物在作业中的序号，从1开始
}
