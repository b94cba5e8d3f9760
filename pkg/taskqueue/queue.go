package taskqueue

import (
	"context"
	"encoding/json"
	"time"
)

// Queue 任务队列接口
// 承载生成作业的异步任务：入队、查询状态、等待结果
type Queue interface {
	// Enqueue 立即投递一个任务，返回任务ID
	Enqueue(ctx context.Context, taskType TaskType, jobID string, payload interface{}) (string, error)

	// EnqueueAt 在指定时间点投递任务
	EnqueueAt(ctx context.Context, taskType TaskType, jobID string, payload interface{}, processAt time.Time) (string, error)

	// EnqueueIn 延迟指定时长后投递任务
	EnqueueIn(ctx context.Context, taskType TaskType, jobID string, payload interface{}, delay time.Duration) (string, error)

	// GetTask 按ID读取任务记录
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// GetTasksByJob 列出某个作业名下的全部任务
	GetTasksByJob(ctx context.Context, jobID string) ([]*Task, error)

	// WaitForTask 阻塞等待任务到达终态
	// timeout为0时只受ctx控制
	WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error)

	// DeleteTask 删除任务记录并尝试撤回未执行的任务
	DeleteTask(ctx context.Context, taskID string) error

	// UpdateTaskStatus 更新任务状态，可同时写入结果或错误信息
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error

	// NotifyTaskUpdate 广播任务状态变更，唤醒WaitForTask的等待方
	NotifyTaskUpdate(ctx context.Context, taskID string) error

	// Close 释放队列持有的连接
	Close() error
}

// Handler 任务处理器接口
// 每个实现声明自己支持的任务类型并执行对应逻辑
type Handler interface {
	// ProcessTask 执行单个任务
	ProcessTask(ctx context.Context, task *Task) error

	// GetTaskTypes 声明该处理器能消费的任务类型
	GetTaskTypes() []TaskType
}

// Worker 工作者接口
// 运行一组Handler消费队列中的任务
type Worker interface {
	// RegisterHandler 按任务类型挂载处理器
	RegisterHandler(taskType TaskType, handler Handler)

	// Start 启动消费循环
	Start() error

	// Stop 优雅停止，等待在途任务结束
	Stop()
}

// Config 队列配置
type Config struct {
	RedisAddr     string         // Redis服务地址
	RedisPassword string         // Redis访问密码
	RedisDB       int            // Redis数据库编号
	Concurrency   int            // 工作者并发度
	RetryLimit    int            // 失败任务的最大重试次数
	RetryDelay    time.Duration  // 两次重试之间的间隔
	Queues        map[string]int // 队列名到权重的映射，权重越高越优先
}

// DefaultConfig 返回本地开发用的默认配置
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		RedisDB:     0,
		Concurrency: 10,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}
}

// TaskInfo 任务元信息
// 面向客户端的简化视图，不携带原始载荷
type TaskInfo struct {
	ID          string     `json:"id"`           // 任务标识
	Type        TaskType   `json:"type"`         // 任务类型
	JobID       string     `json:"job_id"`       // 所属生成作业
	Status      TaskStatus `json:"status"`       // 当前状态
	Error       string     `json:"error"`        // 失败原因
	CreatedAt   time.Time  `json:"created_at"`   // 创建时间
	StartedAt   *time.Time `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time `json:"completed_at"` // 完成时间
	Progress    float64    `json:"progress"`     // 近似进度（0-100）
}

// Factory 队列工厂函数类型
type Factory func(cfg *Config) (Queue, error)

// NewTaskInfo 将任务记录转换为对外的元信息视图
func NewTaskInfo(task *Task) *TaskInfo {
	return &TaskInfo{
		ID:          task.ID,
		Type:        task.Type,
		JobID:       task.JobID,
		Status:      task.Status,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
		Progress:    getTaskProgress(task),
	}
}

// getTaskProgress 从任务状态推导近似进度
func getTaskProgress(task *Task) float64 {
	switch task.Status {
	case StatusPending:
		return 0.0
	case StatusProcessing:
		// 生成任务没有细粒度进度上报，处理中统一视为50%
		return 50.0
	case StatusCompleted:
		return 100.0
	case StatusFailed:
		return 50.0
	default:
		return 0.0
	}
}

// ErrTaskNotFound 任务不存在或记录已过期
var ErrTaskNotFound = TaskError("task not found")

// ErrTaskTimeout 等待任务完成超时
var ErrTaskTimeout = TaskError("task timed out")

// ErrInvalidPayload 任务载荷无法解析
var ErrInvalidPayload = TaskError("invalid task payload")

// TaskError 字符串形式的任务错误，可直接比较
type TaskError string

func (e TaskError) Error() string {
	return string(e)
}

// MarshalPayload 将任务载荷序列化为JSON
// nil载荷序列化为空对象，保证Payload字段始终是合法JSON
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(payload)
}

// UnmarshalPayload 将JSON载荷还原到目标结构
func UnmarshalPayload(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
