package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fyerfyer/slide-gen-system/api/middleware"
	"github.com/fyerfyer/slide-gen-system/api/model"
	"github.com/fyerfyer/slide-gen-system/pkg/taskqueue"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler 任务状态查询接口
type TaskHandler struct {
	queue  taskqueue.Queue // 任务队列
	logger *logrus.Logger  // 日志记录器
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{
		queue:  queue,
		logger: middleware.GetLogger(),
	}
}

// GetTaskStatus 查询单个任务的状态和结果
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		middleware.HandleError(c, middleware.NewValidationError("任务ID不能为空"))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), taskID)
	if err != nil {
			if errors.Is(err, taskqueue.ErrTaskNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("任务未找到"))
			return
		}

		h.logger.WithError(err).WithField("task_id", taskID).Error("Failed to get task")
		middleware.HandleError(c, middleware.NewInternalError("获取任务状态失败", err.Error()))
		return
	}

	if task == nil {
		middleware.HandleError(c, middleware.NewNotFoundError("任务未找到"))
		return
	}

	// 组装对外的任务视图
	taskInfo := map[string]interface{}{
		"id":         task.ID,
		"type":       string(task.Type),
		"job_id":     task.JobID,
		"status":     string(task.Status),
		"created_at": task.CreatedAt,
		"updated_at": task.UpdatedAt,
	}

	// 失败任务附带错误信息
	if task.Error != "" {
		taskInfo["error"] = task.Error
	}

	// 已有结果时一并返回
	if len(task.Result) > 0 {
		var result map[string]interface{}
		if err := json.Unmarshal(task.Result, &result); err == nil {
			taskInfo["result"] = result
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskInfo))
}

// GetJobTasks 获取作业相关的所有任务
// GET /api/jobs/:id/tasks
func (h *TaskHandler) GetJobTasks(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		middleware.HandleError(c, middleware.NewValidationError("作业ID不能为空"))
		return
	}

	tasks, err := h.queue.GetTasksByJob(c.Request.Context(), jobID)
	if err != nil {
		h.logger.WithError(err).WithField("job_id", jobID).Error("Failed to get job tasks")
		middleware.HandleError(c, middleware.NewInternalError("获取作业任务列表失败", err.Error()))
		return
	}

	// 列表视图不携带结果载荷
	tasksInfo := make([]map[string]interface{}, len(tasks))
	for i, task := range tasks {
		tasksInfo[i] = map[string]interface{}{
			"id":         task.ID,
			"type":       string(task.Type),
			"status":     string(task.Status),
			"created_at": task.CreatedAt,
			"updated_at": task.UpdatedAt,
		}

		if task.Error != "" {
			tasksInfo[i]["error"] = task.Error
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(map[string]interface{}{
		"job_id": jobID,
		"tasks":  tasksInfo,
	}))
}
