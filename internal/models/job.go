package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus 生成任务状态类型
type JobStatus string

const (
	// JobStatusPending 任务已创建，等待处理
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing 任务处理中
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted 任务处理完成
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed 任务处理失败
	JobStatusFailed JobStatus = "failed"
)

// GenerationJob 生成任务数据模型
// 记录一次"输入文件 -> 一组演示文稿"的生成过程
type GenerationJob struct {
	ID                string         `gorm:"primaryKey"`         // 任务ID，主键
	SourceName        string         `gorm:"not null"`           // 输入文件名
	SourceType        string         `gorm:"not null;size:20"`   // 输入文件类型
	SourcePath        string         `gorm:"not null"`           // 输入文件存储路径
	SourceSize        int64          `gorm:"not null"`           // 输入文件大小（字节）
	Format            string         `gorm:"not null;size:10"`   // 产物格式（pptx/pdf）
	Status            JobStatus      `gorm:"not null;index"`     // 处理状态
	SubmittedAt       time.Time      `gorm:"not null;index"`     // 提交时间
	ProcessedAt       *time.Time     `gorm:"index"`              // 处理完成时间
	UpdatedAt         time.Time      `gorm:"not null;index"`     // 更新时间
	Error             string         `gorm:"type:text"`          // 错误信息
	PresentationCount int            `gorm:"not null;default:0"` // 生成的演示文稿数量
	Metadata          datatypes.JSON `gorm:"type:json"`          // 元数据，JSON格式
	CurrentTaskID     string         `gorm:"size:50;index"`      // 当前关联的队列任务ID
	RetryCount        int            `gorm:"default:0"`          // 重试次数
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (j *GenerationJob) BeforeCreate(tx *gorm.DB) (err error) {
	// 如果提交时间为零值，设置为当前时间
	if j.SubmittedAt.IsZero() {
		j.SubmittedAt = time.Now()
	}
	// 设置更新时间
	j.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (j *GenerationJob) BeforeUpdate(tx *gorm.DB) (err error) {
	j.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// Artifact 生成产物数据模型
// 每条记录对应一份渲染出的演示文稿文件
type Artifact struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"` // 主键ID
	JobID       string         `gorm:"not null;index"`           // 所属任务ID
	Position    int            `gorm:"not null"`                 // 在输入文本中的序号（从1开始）
	Title       string         `gorm:"not null"`                 // 演示文稿标题
	FileName    string         `gorm:"not null"`                 // 产物文件名
	StoragePath string         `gorm:"not null"`                 // 产物存储路径
	Format      string         `gorm:"not null;size:10"`         // 产物格式
	Size        int64          `gorm:"not null;default:0"`       // 产物大小（字节）
	SlideCount  int            `gorm:"not null;default:0"`       // 幻灯片数量（含标题页）
	CreatedAt   time.Time      `gorm:"not null"`                 // 创建时间
	UpdatedAt   time.Time      `gorm:"not null"`                 // 更新时间
	Metadata    datatypes.JSON `gorm:"type:json"`                // 产物元数据
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (a *Artifact) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (a *Artifact) BeforeUpdate(tx *gorm.DB) (err error) {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Artifact) TableName() string {
	return "artifacts"
}
