package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskGeneratePresentations 演示文稿生成任务（读取源文件→解析→渲染全流程）
	TaskGeneratePresentations TaskType = "generation:process"
	// TaskCleanupArtifacts 清理任务产物
	TaskCleanupArtifacts TaskType = "generation:cleanup"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	JobID       string          `json:"job_id"`       // 关联的生成作业ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷数据，不同任务类型对应不同结构
	Result      json.RawMessage `json:"result"`       // 任务结果数据，不同任务类型对应不同结构
	Error       string          `json:"error"`        // 错误信息（如果处理失败）
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	Attempts    int             `json:"attempts"`     // 尝试次数
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// GenerationPayload 演示文稿生成任务载荷
type GenerationPayload struct {
	JobID      string            `json:"job_id"`      // 作业ID
	SourcePath string            `json:"source_path"` // 源文件存储路径
	SourceName string            `json:"source_name"` // 源文件名
	SourceType string            `json:"source_type"` // 源文件类型（txt/md/pdf）
	Format     string            `json:"format"`      // 输出格式（pptx/pdf）
	Metadata   map[string]string `json:"metadata"`    // 元数据
}

// ArtifactInfo 生成产物信息
type ArtifactInfo struct {
	Position   int    `json:"position"`    // 演示文稿在源文件中的序号（从1开始）
	Title      string `json:"title"`       // 演示文稿标题
	FileName   string `json:"file_name"`   // 产物文件名
	SlideCount int    `json:"slide_count"` // 幻灯片数量
	Size       int64  `json:"size"`        // 文件大小（字节）
}

// GenerationResult 演示文稿生成任务结果
type GenerationResult struct {
	JobID             string         `json:"job_id"`             // 作业ID
	PresentationCount int            `json:"presentation_count"` // 生成的演示文稿数量
	Artifacts         []ArtifactInfo `json:"artifacts"`          // 产物列表
	Error             string         `json:"error"`              // 错误信息（如果有）
}

// CleanupPayload 清理任务载荷
type CleanupPayload struct {
	JobID string `json:"job_id"` // 作业ID
}

// IsFinished 任务是否已到达终态
func (t *Task) IsFinished() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
